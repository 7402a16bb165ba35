package player

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Header    lipgloss.Style
	Frame     lipgloss.Style
	Fullframe lipgloss.Style
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	DotOn     lipgloss.Style
	DotOff    lipgloss.Style
	Badge     lipgloss.Style
	Footer    lipgloss.Style
}

func DefaultStyles() Styles {
	accent := lipgloss.Color("#d9825b")
	muted := lipgloss.Color("#8a7a72")

	return Styles{
		Header: lipgloss.NewStyle().
			Background(accent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(1, 2),
		Fullframe: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(accent).
			Padding(2, 4),
		Title: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d14343")).
			Bold(true),
		DotOn: lipgloss.NewStyle().
			Foreground(accent),
		DotOff: lipgloss.NewStyle().
			Foreground(muted),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(muted).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 2),
	}
}
