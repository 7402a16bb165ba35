package carousel

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/keepsake-app/keepsake/internal/clock"
	"github.com/keepsake-app/keepsake/internal/motion"
	"github.com/keepsake-app/keepsake/internal/preference"
)

type firstPick struct{}

func (firstPick) IntN(int) int { return 0 }

type fixture struct {
	clock  *clock.Fake
	source *preference.Manual
	prefs  *preference.Observer
	c      *Controller
}

func newFixture(t *testing.T, count int, reduced bool) *fixture {
	t.Helper()
	f := &fixture{clock: clock.NewFake(), source: preference.NewManual(reduced)}
	prefs, err := preference.New(f.source)
	if err != nil {
		t.Fatal(err)
	}
	f.prefs = prefs
	f.c = New(Options{Clock: f.clock, Rand: firstPick{}}, prefs)
	f.c.SetSlides(slides(count))
	t.Cleanup(func() {
		f.c.Close()
		f.prefs.Close()
	})
	return f
}

func slides(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("/blob/%d", i)
	}
	return out
}

// settle lets the running transition finish without reaching the next
// auto-advance tick.
func (f *fixture) settle() {
	f.clock.Advance(DefaultTransitionDuration)
}

func TestInitialState(t *testing.T) {
	f := newFixture(t, 0, false)
	s := f.c.State()
	if s.Index != -1 || s.Count != 0 || s.AutoAdvance {
		t.Errorf("Expected empty state, got %+v", s)
	}
	if f.c.Advance(Next) {
		t.Error("Expected Advance to be a no-op without slides")
	}

	f.c.SetSlides(slides(3))
	s = f.c.State()
	if s.Index != 0 || s.Count != 3 || !s.AutoAdvance {
		t.Errorf("Expected index 0 of 3 with auto-advance, got %+v", s)
	}
}

func TestAdvanceUpdatesIndexSynchronously(t *testing.T) {
	f := newFixture(t, 3, false)

	if !f.c.Advance(Next) {
		t.Fatal("Expected Advance to move")
	}
	s := f.c.State()
	if s.Index != 1 || !s.Transitioning {
		t.Errorf("Expected index 1 and transitioning, got %+v", s)
	}

	f.clock.Advance(DefaultTransitionDuration - time.Millisecond)
	if !f.c.State().Transitioning {
		t.Error("Transition guard released early")
	}
	f.clock.Advance(time.Millisecond)
	if f.c.State().Transitioning {
		t.Error("Transition guard not released after the duration")
	}
}

func TestAdvanceDuringTransitionIsNoop(t *testing.T) {
	f := newFixture(t, 4, false)

	f.c.Advance(Next)
	first := f.c.State()

	if f.c.Advance(Next) {
		t.Error("Expected second Advance to be refused")
	}
	if f.c.Advance(Prev) {
		t.Error("Expected Advance(Prev) to be refused")
	}
	if moved, err := f.c.GoTo(3); moved || err != nil {
		t.Errorf("Expected GoTo to be refused, got %v %v", moved, err)
	}

	second := f.c.State()
	if second.Index != first.Index || second.Transitioning != first.Transitioning {
		t.Errorf("State changed during transition: %+v -> %+v", first, second)
	}
}

func TestCyclicClosure(t *testing.T) {
	for count := 2; count <= 5; count++ {
		t.Run(fmt.Sprintf("%d slides", count), func(t *testing.T) {
			f := newFixture(t, count, true)

			for i := 0; i < count; i++ {
				if !f.c.Advance(Next) {
					t.Fatalf("Advance %d refused", i)
				}
				f.settle()
			}
			if idx := f.c.State().Index; idx != 0 {
				t.Errorf("Expected index 0 after %d advances, got %d", count, idx)
			}

			f.c.Advance(Prev)
			if idx := f.c.State().Index; idx != count-1 {
				t.Errorf("Expected index %d after prev from 0, got %d", count-1, idx)
			}
		})
	}
}

func TestSingleSlideNeverMoves(t *testing.T) {
	f := newFixture(t, 1, false)
	if f.c.Advance(Next) || f.c.Advance(Prev) {
		t.Error("Expected no movement with one slide")
	}
	if f.c.State().AutoAdvance {
		t.Error("Expected no auto-advance with one slide")
	}
	f.clock.Advance(time.Minute)
	if f.c.State().Index != 0 {
		t.Errorf("Expected index 0, got %d", f.c.State().Index)
	}
}

func TestGoTo(t *testing.T) {
	f := newFixture(t, 5, false)

	moved, err := f.c.GoTo(3)
	if err != nil || !moved {
		t.Fatalf("Expected GoTo(3) to move, got %v %v", moved, err)
	}
	s := f.c.State()
	if s.Index != 3 || !s.Transitioning {
		t.Errorf("Expected index 3 transitioning, got %+v", s)
	}
	f.settle()

	if moved, _ := f.c.GoTo(3); moved {
		t.Error("Expected GoTo(current) to be a no-op")
	}
	if f.c.State().Transitioning {
		t.Error("GoTo(current) started a transition")
	}

	for _, bad := range []int{-1, 5} {
		if _, err := f.c.GoTo(bad); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Expected ErrIndexOutOfRange for %d, got %v", bad, err)
		}
	}
}

func TestAutoAdvance(t *testing.T) {
	f := newFixture(t, 3, false)

	f.clock.Advance(DefaultAutoAdvanceInterval - time.Millisecond)
	if f.c.State().Index != 0 {
		t.Fatal("Auto-advanced early")
	}
	f.clock.Advance(time.Millisecond)
	if f.c.State().Index != 1 {
		t.Errorf("Expected auto-advance to index 1, got %d", f.c.State().Index)
	}
	f.clock.Advance(2 * DefaultAutoAdvanceInterval)
	if f.c.State().Index != 0 {
		t.Errorf("Expected wrap to index 0 after two more ticks, got %d", f.c.State().Index)
	}
}

func TestManualNavigationKeepsTimerPhase(t *testing.T) {
	f := newFixture(t, 4, false)

	f.clock.Advance(4 * time.Second)
	f.c.Advance(Next)
	f.settle()

	// The tick still lands 5s after the timer was armed, not 5s after the
	// manual move.
	f.clock.Advance(500 * time.Millisecond)
	if idx := f.c.State().Index; idx != 2 {
		t.Errorf("Expected auto-advance at the original phase, got index %d", idx)
	}
}

func TestAutoAdvanceSkipsDuringTransition(t *testing.T) {
	f := newFixture(t, 3, false)

	f.clock.Advance(DefaultAutoAdvanceInterval - 100*time.Millisecond)
	f.c.Advance(Next)
	f.clock.Advance(100 * time.Millisecond)

	if idx := f.c.State().Index; idx != 1 {
		t.Errorf("Expected the tick to be swallowed by the running transition, got index %d", idx)
	}
	if !f.c.State().AutoAdvance {
		t.Error("Expected the timer to stay armed")
	}
}

func TestReducedMotionSuppressesTimerAndMotion(t *testing.T) {
	f := newFixture(t, 4, true)

	if f.c.State().AutoAdvance {
		t.Error("Expected no auto-advance with reduced motion")
	}
	f.clock.Advance(time.Minute)
	if f.c.State().Index != 0 {
		t.Errorf("Expected no auto-advance, got index %d", f.c.State().Index)
	}

	for i := 0; i < 8; i++ {
		f.c.Advance(Next)
		f.clock.Advance(time.Second)
		if m := f.c.State().Motion; m != motion.Neutral {
			t.Fatalf("Expected neutral motion, got %+v", m)
		}
	}
	if f.c.State().MotionDurationMS != 0 {
		t.Error("Expected no motion duration with reduced motion")
	}
	if f.clock.Pending() != 0 {
		t.Errorf("Expected no timers, got %d", f.clock.Pending())
	}
}

func TestPreferenceChangeRearmsTimer(t *testing.T) {
	f := newFixture(t, 3, false)

	f.clock.Advance(3 * time.Second)
	f.source.Set(true)
	if f.c.State().AutoAdvance || !f.c.State().ReducedMotion {
		t.Errorf("Expected timer torn down, got %+v", f.c.State())
	}
	f.clock.Advance(time.Minute)
	if f.c.State().Index != 0 {
		t.Fatalf("Expected no movement while reduced, got %d", f.c.State().Index)
	}

	f.source.Set(false)
	f.clock.Advance(DefaultAutoAdvanceInterval - time.Millisecond)
	if f.c.State().Index != 0 {
		t.Error("Expected recreated timer to start a fresh period")
	}
	f.clock.Advance(time.Millisecond)
	if f.c.State().Index != 1 {
		t.Errorf("Expected auto-advance after re-enable, got %d", f.c.State().Index)
	}
}

func TestFullscreenPausesAutoAdvance(t *testing.T) {
	f := newFixture(t, 3, false)
	f.c.Advance(Next)
	f.settle()

	f.c.SetFullscreen(true)
	s := f.c.State()
	if !s.Fullscreen || s.AutoAdvance || s.Index != 1 {
		t.Errorf("Expected fullscreen at index 1 without auto-advance, got %+v", s)
	}
	f.clock.Advance(time.Minute)
	if f.c.State().Index != 1 {
		t.Errorf("Expected no auto-advance in fullscreen, got %d", f.c.State().Index)
	}

	if !f.c.Advance(Next) {
		t.Error("Expected manual navigation in fullscreen")
	}
	f.settle()

	f.c.SetFullscreen(false)
	if !f.c.State().AutoAdvance {
		t.Error("Expected auto-advance after leaving fullscreen")
	}
}

func TestMotionFollowsIndex(t *testing.T) {
	f := newFixture(t, 3, false)

	f.clock.Advance(motion.DefaultDelay)
	if m := f.c.State().Motion; m != motion.Palette[0] {
		t.Fatalf("Expected first palette entry, got %+v", m)
	}

	f.c.Advance(Next)
	if m := f.c.State().Motion; m != motion.Neutral {
		t.Errorf("Expected reset to neutral on slide change, got %+v", m)
	}
	f.clock.Advance(motion.DefaultDelay)
	if m := f.c.State().Motion; m != motion.Palette[0] {
		t.Errorf("Expected target applied after delay, got %+v", m)
	}

	f.settle()
	f.c.SetFullscreen(true)
	if f.clock.Pending() != 0 {
		t.Errorf("Expected fullscreen toggle not to schedule motion, %d pending", f.clock.Pending())
	}
}

func TestSetSlidesResetsInvalidIndex(t *testing.T) {
	f := newFixture(t, 4, false)
	f.c.GoTo(3)
	f.settle()

	f.c.SetSlides(slides(5))
	if idx := f.c.State().Index; idx != 3 {
		t.Errorf("Expected index kept at 3, got %d", idx)
	}

	f.c.SetSlides(slides(3))
	if idx := f.c.State().Index; idx != 0 {
		t.Errorf("Expected index reset to 0, got %d", idx)
	}

	f.c.SetSlides(nil)
	s := f.c.State()
	if s.Index != -1 || s.AutoAdvance || s.Transitioning {
		t.Errorf("Expected empty carousel, got %+v", s)
	}
}

func TestSubscribeAndWatch(t *testing.T) {
	f := newFixture(t, 3, true)

	var seen []State
	unsubscribe := f.c.Subscribe(func(s State) { seen = append(seen, s) })
	updates, stop := f.c.Watch()
	defer stop()

	f.c.Advance(Next)
	f.settle()
	unsubscribe()
	f.c.Advance(Next)

	if len(seen) != 2 {
		t.Fatalf("Expected 2 snapshots (move, settle), got %d", len(seen))
	}
	if seen[0].Index != 1 || !seen[0].Transitioning || seen[1].Transitioning {
		t.Errorf("Unexpected snapshots %+v", seen)
	}
	if seen[1].Version <= seen[0].Version {
		t.Errorf("Expected increasing versions, got %d then %d", seen[0].Version, seen[1].Version)
	}

	select {
	case s := <-updates:
		if s.Index != 2 {
			t.Errorf("Expected latest snapshot at index 2, got %d", s.Index)
		}
	default:
		t.Fatal("Expected a pending snapshot on the watch channel")
	}
}

func TestCloseCancelsEverything(t *testing.T) {
	f := newFixture(t, 3, false)
	f.c.Advance(Next)

	f.c.Close()
	f.c.Close()

	if f.clock.Pending() != 0 {
		t.Errorf("Expected no timers after Close, got %d", f.clock.Pending())
	}
	if f.prefs.Subscribers() != 0 {
		t.Errorf("Expected no preference subscribers after Close, got %d", f.prefs.Subscribers())
	}
	if f.c.Advance(Next) {
		t.Error("Expected Advance to be refused after Close")
	}
}
