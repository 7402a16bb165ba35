package lightbox

import (
	"testing"
	"time"

	"github.com/keepsake-app/keepsake/internal/carousel"
	"github.com/keepsake-app/keepsake/internal/clock"
	"github.com/keepsake-app/keepsake/internal/keys"
	"github.com/keepsake-app/keepsake/internal/preference"
)

func newCarousel(t *testing.T, count int) (*carousel.Controller, *clock.Fake) {
	t.Helper()
	prefs, err := preference.New(preference.NewManual(false))
	if err != nil {
		t.Fatal(err)
	}
	clk := clock.NewFake()
	c := carousel.New(carousel.Options{Clock: clk}, prefs)
	slides := make([]string, count)
	for i := range slides {
		slides[i] = "/blob/" + string(rune('a'+i))
	}
	c.SetSlides(slides)
	t.Cleanup(func() {
		c.Close()
		prefs.Close()
	})
	return c, clk
}

func TestNextKeyMatchesControl(t *testing.T) {
	viaKey, keyClock := newCarousel(t, 4)
	viaControl, _ := newCarousel(t, 4)

	bus := keys.NewBus()
	lb := New(viaKey, bus)
	lb.Open()
	if !viaKey.State().Fullscreen {
		t.Fatal("Expected fullscreen after Open")
	}

	bus.Dispatch(keys.Right)
	viaControl.Advance(carousel.Next)
	if viaKey.State().Index != viaControl.State().Index {
		t.Errorf("Expected key and control to agree, got %d and %d", viaKey.State().Index, viaControl.State().Index)
	}

	keyClock.Advance(carousel.DefaultTransitionDuration)
	bus.Dispatch(keys.Left)
	if idx := viaKey.State().Index; idx != 0 {
		t.Errorf("Expected left key to go back to 0, got %d", idx)
	}
}

func TestEscapeClosesWithoutMovingIndex(t *testing.T) {
	c, clk := newCarousel(t, 3)
	c.Advance(carousel.Next)
	clk.Advance(carousel.DefaultTransitionDuration)

	bus := keys.NewBus()
	lb := New(c, bus)
	lb.Open()
	bus.Dispatch(keys.Escape)

	if lb.IsOpen() {
		t.Error("Expected lightbox closed after escape")
	}
	s := c.State()
	if s.Fullscreen || s.Index != 1 {
		t.Errorf("Expected index 1 outside fullscreen, got %+v", s)
	}
	if bus.Listeners() != 0 {
		t.Errorf("Expected key listener torn down, got %d", bus.Listeners())
	}
}

func TestKeysIgnoredWhileClosed(t *testing.T) {
	c, _ := newCarousel(t, 3)
	bus := keys.NewBus()
	lb := New(c, bus)

	bus.Dispatch(keys.Right)
	if c.State().Index != 0 {
		t.Error("Keys moved the carousel while the lightbox was closed")
	}

	lb.Open()
	lb.Open()
	if bus.Listeners() != 1 {
		t.Errorf("Expected a single listener, got %d", bus.Listeners())
	}
	lb.Close()
	lb.Close()
	bus.Dispatch(keys.Right)
	if c.State().Index != 0 {
		t.Error("Keys moved the carousel after the lightbox closed")
	}
}

func TestOpenPausesAutoAdvance(t *testing.T) {
	c, clk := newCarousel(t, 3)
	bus := keys.NewBus()
	lb := New(c, bus)

	lb.Open()
	clk.Advance(time.Minute)
	if c.State().Index != 0 {
		t.Errorf("Expected no auto-advance while open, got %d", c.State().Index)
	}

	lb.Discard()
	if c.State().Fullscreen || !c.State().AutoAdvance {
		t.Errorf("Expected auto-advance resumed after Discard, got %+v", c.State())
	}
	if bus.Listeners() != 0 {
		t.Errorf("Expected no listeners after Discard, got %d", bus.Listeners())
	}
}
