// Package player is a terminal rendering of a wish's carousel and lightbox.
package player

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/keepsake-app/keepsake/internal/carousel"
	"github.com/keepsake-app/keepsake/internal/keys"
	"github.com/keepsake-app/keepsake/internal/storage"
)

type stateMsg carousel.State

type closedMsg struct{}

type Model struct {
	wish    *storage.Wish
	updates <-chan carousel.State
	stop    func()
	state   carousel.State
	styles  Styles
	width   int
	height  int
}

// New watches the wish's carousel. Call Stop when the program exits.
func New(wish *storage.Wish) Model {
	updates, stop := wish.Carousel.Watch()
	return Model{
		wish:    wish,
		updates: updates,
		stop:    stop,
		state:   wish.Carousel.State(),
		styles:  DefaultStyles(),
	}
}

// Stop releases the carousel subscription.
func (m Model) Stop() {
	m.stop()
}

func (m Model) Init() tea.Cmd {
	return m.waitForState()
}

// waitForState blocks until the carousel changes or the wish goes away.
func (m Model) waitForState() tea.Cmd {
	updates, done := m.updates, m.wish.Done()
	return func() tea.Msg {
		select {
		case s := <-updates:
			return stateMsg(s)
		case <-done:
			return closedMsg{}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		if s := carousel.State(msg); s.Version >= m.state.Version {
			m.state = s
		}
		return m, m.waitForState()
	case closedMsg:
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	open := m.wish.Lightbox.IsOpen()

	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		if open {
			m.wish.Press(keys.Left)
		} else {
			m.wish.Carousel.Advance(carousel.Prev)
		}
	case "right", "l":
		if open {
			m.wish.Press(keys.Right)
		} else {
			m.wish.Carousel.Advance(carousel.Next)
		}
	case "esc":
		m.wish.Press(keys.Escape)
	case "f", "enter":
		m.wish.Lightbox.Open()
	case "m":
		_ = m.wish.SetReduceMotion(!m.wish.ReduceMotion())
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		_, _ = m.wish.Carousel.GoTo(int(key[0] - '1'))
	default:
		return m, nil
	}

	m.state = m.wish.Carousel.State()
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("Keepsake"))
	b.WriteString("\n\n")

	if msg := m.wish.Message(); msg != "" {
		b.WriteString(m.styles.Error.Render(msg))
		b.WriteString("\n\n")
	}

	s := m.state
	if s.Count == 0 {
		b.WriteString(m.styles.Muted.Render("No photos yet. " + m.wish.Validator().Limits()))
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render("q quit"))
		return b.String()
	}

	frame := m.styles.Frame
	if s.Fullscreen {
		frame = m.styles.Fullframe
		if m.width > 4 {
			frame = frame.Width(m.width - 4)
		}
	}
	b.WriteString(frame.Render(m.slide()))
	b.WriteString("\n")
	b.WriteString(m.dots())
	b.WriteString("\n\n")
	b.WriteString(m.badges())
	b.WriteString("\n")

	help := "←/→ navigate · 1-9 jump · f open · m motion · q quit"
	if s.Fullscreen {
		help = "←/→ navigate · esc close · q quit"
	}
	b.WriteString(m.styles.Footer.Render(help))
	return b.String()
}

func (m Model) slide() string {
	s := m.state
	images := m.wish.Collection.Images()

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(fmt.Sprintf("Photo %d of %d", s.Index+1, s.Count)))
	b.WriteString("\n")
	if s.Index >= 0 && s.Index < len(images) {
		img := images[s.Index]
		b.WriteString(img.AltText)
		b.WriteString("\n")
		meta := fmt.Sprintf("%s · %s", img.Name, img.ContentType)
		if img.Width > 0 {
			meta += fmt.Sprintf(" · %dx%d", img.Width, img.Height)
		}
		b.WriteString(m.styles.Muted.Render(meta))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render(m.motion()))
	return b.String()
}

func (m Model) motion() string {
	s := m.state
	if s.ReducedMotion {
		return "motion reduced"
	}
	return fmt.Sprintf("drift to scale %.2f, x %+.0f%%, y %+.0f%% over %ds",
		s.Motion.Scale, s.Motion.X, s.Motion.Y, s.MotionDurationMS/1000)
}

func (m Model) dots() string {
	dots := make([]string, m.state.Count)
	for i := range dots {
		if i == m.state.Index {
			dots[i] = m.styles.DotOn.Render("●")
		} else {
			dots[i] = m.styles.DotOff.Render("○")
		}
	}
	return strings.Join(dots, " ")
}

func (m Model) badges() string {
	var badges []string
	if m.state.Fullscreen {
		badges = append(badges, m.styles.Badge.Render("fullscreen"))
	}
	if m.state.AutoAdvance {
		badges = append(badges, m.styles.Badge.Render("auto"))
	}
	if m.state.Transitioning {
		badges = append(badges, m.styles.Badge.Render("transition"))
	}
	return strings.Join(badges, " ")
}
