package player

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/keepsake-app/keepsake/internal/carousel"
	"github.com/keepsake-app/keepsake/internal/clock"
	"github.com/keepsake-app/keepsake/internal/handles"
	"github.com/keepsake-app/keepsake/internal/ingest"
	"github.com/keepsake-app/keepsake/internal/storage"
)

func newWish(t *testing.T, photos int) (*storage.Wish, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake()
	w, err := storage.NewWish(storage.WishOptions{
		Registry: handles.NewRegistry("/blob/"),
		Carousel: carousel.Options{Clock: fake},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Discard)

	var cands []ingest.Candidate
	for i := 0; i < photos; i++ {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 6, 4))); err != nil {
			t.Fatal(err)
		}
		cands = append(cands, ingest.NewCandidate(fmt.Sprintf("p%d.png", i+1), "image/png", buf.Bytes()))
	}
	if _, err := w.Ingest(context.Background(), cands); err != nil {
		t.Fatal(err)
	}
	return w, fake
}

func press(m tea.Model, key string) tea.Model {
	var msg tea.KeyMsg
	switch key {
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEscape}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, _ = m.Update(msg)
	return m
}

func stateOf(m tea.Model) carousel.State {
	return m.(Model).state
}

func TestNavigation(t *testing.T) {
	w, fake := newWish(t, 3)
	var m tea.Model = New(w)
	defer m.(Model).Stop()

	m = press(m, "right")
	if got := stateOf(m).Index; got != 1 {
		t.Errorf("Expected index 1 after right, got %d", got)
	}

	m = press(m, "l")
	if got := stateOf(m).Index; got != 1 {
		t.Errorf("Expected navigation ignored mid-transition, got %d", got)
	}

	fake.Advance(carousel.DefaultTransitionDuration)
	m = press(m, "h")
	if got := stateOf(m).Index; got != 0 {
		t.Errorf("Expected index 0 after h, got %d", got)
	}

	fake.Advance(carousel.DefaultTransitionDuration)
	m = press(m, "3")
	if got := stateOf(m).Index; got != 2 {
		t.Errorf("Expected index 2 after 3, got %d", got)
	}

	fake.Advance(carousel.DefaultTransitionDuration)
	m = press(m, "9")
	if got := stateOf(m).Index; got != 2 {
		t.Errorf("Expected out of range jump to be ignored, got %d", got)
	}

	if view := m.View(); !strings.Contains(view, "Photo 3 of 3") || !strings.Contains(view, "p3.png") {
		t.Errorf("Expected view to show the third photo, got:\n%s", view)
	}
}

func TestLightboxKeys(t *testing.T) {
	w, fake := newWish(t, 2)
	var m tea.Model = New(w)
	defer m.(Model).Stop()

	m = press(m, "esc")
	if w.Lightbox.IsOpen() {
		t.Error("Expected esc to do nothing while closed")
	}

	m = press(m, "enter")
	if !w.Lightbox.IsOpen() || !stateOf(m).Fullscreen {
		t.Fatal("Expected enter to open the lightbox")
	}
	if w.Keys.Listeners() != 1 {
		t.Errorf("Expected the lightbox to hold the key scope, got %d listeners", w.Keys.Listeners())
	}
	if !strings.Contains(m.View(), "esc close") {
		t.Error("Expected fullscreen help text")
	}

	m = press(m, "right")
	if got := stateOf(m).Index; got != 1 {
		t.Errorf("Expected lightbox to advance, got %d", got)
	}
	fake.Advance(carousel.DefaultTransitionDuration)

	m = press(m, "esc")
	if w.Lightbox.IsOpen() || stateOf(m).Fullscreen {
		t.Error("Expected esc to close the lightbox")
	}
	if got := stateOf(m).Index; got != 1 {
		t.Errorf("Expected index to survive close, got %d", got)
	}
}

func TestReducedMotionToggle(t *testing.T) {
	w, _ := newWish(t, 2)
	var m tea.Model = New(w)
	defer m.(Model).Stop()

	if strings.Contains(m.View(), "motion reduced") {
		t.Error("Expected full motion by default")
	}
	m = press(m, "m")
	if !stateOf(m).ReducedMotion || !strings.Contains(m.View(), "motion reduced") {
		t.Error("Expected m to reduce motion")
	}
	if stateOf(m).AutoAdvance {
		t.Error("Expected auto-advance off with reduced motion")
	}
}

func TestStateMessages(t *testing.T) {
	w, _ := newWish(t, 2)
	m := New(w)
	defer m.Stop()

	w.Carousel.Advance(carousel.Next)
	msg := m.waitForState()()
	s, ok := msg.(stateMsg)
	if !ok {
		t.Fatalf("Expected stateMsg, got %T", msg)
	}
	if s.Index != 1 {
		t.Errorf("Expected index 1, got %d", s.Index)
	}

	next, cmd := m.Update(msg)
	if stateOf(next).Index != 1 || cmd == nil {
		t.Error("Expected state applied and another wait scheduled")
	}

	stale := stateMsg(carousel.State{Version: 0, Index: 0})
	next, _ = next.Update(stale)
	if stateOf(next).Index != 1 {
		t.Error("Expected stale state to be ignored")
	}

	w.Discard()
	if _, ok := m.waitForState()().(closedMsg); !ok {
		t.Error("Expected closedMsg after discard")
	}
}

func TestQuit(t *testing.T) {
	w, _ := newWish(t, 1)
	m := New(w)
	defer m.Stop()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestEmptyView(t *testing.T) {
	w, _ := newWish(t, 0)
	m := New(w)
	defer m.Stop()

	if view := m.View(); !strings.Contains(view, "No photos yet") {
		t.Errorf("Expected empty view, got:\n%s", view)
	}
}
