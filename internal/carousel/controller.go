// Package carousel is the navigation state machine behind the slideshow:
// current slide, guarded transitions, auto-advance and the fullscreen flag.
package carousel

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keepsake-app/keepsake/internal/clock"
	"github.com/keepsake-app/keepsake/internal/motion"
	"github.com/keepsake-app/keepsake/internal/preference"
)

const (
	DefaultTransitionDuration  = 500 * time.Millisecond
	DefaultAutoAdvanceInterval = 5 * time.Second
)

var ErrIndexOutOfRange = errors.New("slide index out of range")

type Direction int

const (
	Next Direction = 1
	Prev Direction = -1
)

func (d Direction) String() string {
	if d == Prev {
		return "prev"
	}
	return "next"
}

type Options struct {
	TransitionDuration  time.Duration
	AutoAdvanceInterval time.Duration
	MotionDelay         time.Duration
	Clock               clock.Clock
	Rand                motion.Rand
	Logger              *slog.Logger
}

// State is a snapshot for renderers. Index is -1 when there are no slides.
type State struct {
	Version       uint64        `json:"version"`
	Index         int           `json:"index"`
	Count         int           `json:"count"`
	Slides        []string      `json:"slides"`
	Transitioning bool          `json:"transitioning"`
	Fullscreen    bool          `json:"fullscreen"`
	ReducedMotion bool          `json:"reduced_motion"`
	AutoAdvance   bool          `json:"auto_advance"`
	Motion        motion.Vector `json:"motion"`
	// MotionDurationMS is how long the renderer should take to reach Motion.
	MotionDurationMS int64 `json:"motion_duration_ms"`
}

// Controller drives one carousel. Every transition, whether from a caller,
// a timer or a preference change, runs under one lock, so a second transition
// never starts while another is being applied; the Transitioning flag guards
// the visual transition that follows.
type Controller struct {
	mu     sync.Mutex
	opts   Options
	logger *slog.Logger
	clock  clock.Clock
	motion *motion.Generator

	slides        []string
	index         int
	transitioning bool
	fullscreen    bool
	reduced       bool

	transitionTimer clock.Timer
	transitionGen   int
	autoTimer       clock.Timer
	autoGen         int

	emitMu  sync.Mutex
	version atomic.Uint64
	subs    map[int]func(State)
	nextSub int

	unsubscribePrefs func()
	closed           bool
}

func New(opts Options, prefs *preference.Observer) *Controller {
	if opts.TransitionDuration <= 0 {
		opts.TransitionDuration = DefaultTransitionDuration
	}
	if opts.AutoAdvanceInterval <= 0 {
		opts.AutoAdvanceInterval = DefaultAutoAdvanceInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Controller{
		opts:    opts,
		logger:  opts.Logger,
		clock:   opts.Clock,
		index:   -1,
		reduced: prefs.Current(),
		subs:    make(map[int]func(State)),
	}
	c.motion = motion.NewGenerator(motion.Options{
		Clock:    opts.Clock,
		Rand:     opts.Rand,
		Delay:    opts.MotionDelay,
		OnChange: func(motion.Vector) { c.emit() },
	}, prefs)
	c.unsubscribePrefs = prefs.Subscribe(c.preferenceChanged)

	return c
}

// SetSlides replaces the slide list. The current index survives if it is
// still valid and falls back to 0 otherwise.
func (c *Controller) SetSlides(slides []string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	oldCount, oldIndex := len(c.slides), c.index
	c.slides = append([]string(nil), slides...)
	count := len(c.slides)

	switch {
	case count == 0:
		c.index = -1
		c.cancelTransitionLocked()
	case c.index < 0 || c.index >= count:
		c.index = 0
	}
	if count != oldCount {
		c.rearmLocked()
	}
	restart := count > 0 && (c.index != oldIndex || count != oldCount)
	c.mu.Unlock()

	switch {
	case count == 0:
		c.motion.Reset()
	case restart:
		c.motion.Restart()
	}
	c.emit()
}

// Advance moves one slide in dir, wrapping at either end. It does nothing
// and returns false while a transition is running or with fewer than two
// slides. The new index is visible as soon as Advance returns.
func (c *Controller) Advance(dir Direction) bool {
	c.mu.Lock()
	if !c.canMoveLocked() {
		c.mu.Unlock()
		return false
	}
	count := len(c.slides)
	c.moveLocked((c.index + int(dir) + count) % count)
	c.mu.Unlock()

	c.motion.Restart()
	c.emit()
	return true
}

// GoTo jumps to index under the same guard as Advance. Jumping to the
// current slide is a no-op.
func (c *Controller) GoTo(index int) (bool, error) {
	c.mu.Lock()
	if index < 0 || index >= len(c.slides) {
		count := len(c.slides)
		c.mu.Unlock()
		return false, fmt.Errorf("failed to go to slide %d of %d: %w", index, count, ErrIndexOutOfRange)
	}
	if !c.canMoveLocked() || index == c.index {
		c.mu.Unlock()
		return false, nil
	}
	c.moveLocked(index)
	c.mu.Unlock()

	c.motion.Restart()
	c.emit()
	return true, nil
}

// SetFullscreen toggles the fullscreen flag. The index is untouched;
// auto-advance pauses while fullscreen.
func (c *Controller) SetFullscreen(on bool) {
	c.mu.Lock()
	if c.closed || c.fullscreen == on {
		c.mu.Unlock()
		return
	}
	c.fullscreen = on
	c.rearmLocked()
	c.mu.Unlock()

	c.emit()
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	s := c.snapshotLocked()
	c.mu.Unlock()

	s.Version = c.version.Load()
	return s
}

// Subscribe calls fn with a fresh snapshot after every change. fn runs on
// the goroutine that caused the change and must neither block nor call back
// into the Controller.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.emitMu.Lock()
		defer c.emitMu.Unlock()
		delete(c.subs, id)
	}
}

// Watch returns a channel that always holds the most recent snapshot not
// yet received. Older snapshots are dropped.
func (c *Controller) Watch() (<-chan State, func()) {
	ch := make(chan State, 1)
	unsubscribe := c.Subscribe(func(s State) {
		for {
			select {
			case ch <- s:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
	return ch, unsubscribe
}

// Close cancels every timer and subscription the controller owns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancelTransitionLocked()
	c.disarmLocked()
	unsubscribe := c.unsubscribePrefs
	c.mu.Unlock()

	unsubscribe()
	c.motion.Close()

	c.emitMu.Lock()
	c.subs = make(map[int]func(State))
	c.emitMu.Unlock()
}

func (c *Controller) canMoveLocked() bool {
	return !c.closed && !c.transitioning && len(c.slides) > 1
}

func (c *Controller) moveLocked(index int) {
	c.index = index
	c.transitioning = true
	c.cancelTransitionTimerLocked()

	gen := c.transitionGen
	c.transitionTimer = c.clock.AfterFunc(c.opts.TransitionDuration, func() {
		c.endTransition(gen)
	})
}

func (c *Controller) endTransition(gen int) {
	c.mu.Lock()
	if c.closed || gen != c.transitionGen {
		c.mu.Unlock()
		return
	}
	c.transitioning = false
	c.transitionTimer = nil
	c.mu.Unlock()

	c.emit()
}

func (c *Controller) cancelTransitionLocked() {
	c.cancelTransitionTimerLocked()
	c.transitioning = false
}

func (c *Controller) cancelTransitionTimerLocked() {
	c.transitionGen++
	if c.transitionTimer != nil {
		c.transitionTimer.Stop()
		c.transitionTimer = nil
	}
}

// autoAdvanceLocked reports whether all three gates are open.
func (c *Controller) autoAdvanceLocked() bool {
	return len(c.slides) > 1 && !c.fullscreen && !c.reduced
}

// rearmLocked tears the auto-advance timer down and recreates it if the
// gates allow. Manual navigation does not call this, so the timer keeps its
// phase across manual moves.
func (c *Controller) rearmLocked() {
	c.disarmLocked()
	if c.autoAdvanceLocked() {
		c.scheduleAutoLocked()
	}
}

func (c *Controller) disarmLocked() {
	c.autoGen++
	if c.autoTimer != nil {
		c.autoTimer.Stop()
		c.autoTimer = nil
	}
}

func (c *Controller) scheduleAutoLocked() {
	gen := c.autoGen
	c.autoTimer = c.clock.AfterFunc(c.opts.AutoAdvanceInterval, func() {
		c.autoTick(gen)
	})
}

func (c *Controller) autoTick(gen int) {
	c.mu.Lock()
	if c.closed || gen != c.autoGen {
		c.mu.Unlock()
		return
	}
	c.scheduleAutoLocked()

	moved := false
	if c.canMoveLocked() {
		c.moveLocked((c.index + 1) % len(c.slides))
		moved = true
	}
	index := c.index
	c.mu.Unlock()

	if !moved {
		c.logger.Debug("Auto-advance skipped, transition in progress", "index", index)
		return
	}
	c.motion.Restart()
	c.emit()
}

func (c *Controller) preferenceChanged(reduced bool) {
	c.mu.Lock()
	if c.closed || c.reduced == reduced {
		c.mu.Unlock()
		return
	}
	c.reduced = reduced
	c.rearmLocked()
	c.mu.Unlock()

	c.logger.Debug("Reduced-motion preference changed", "reduced", reduced)
	c.emit()
}

func (c *Controller) snapshotLocked() State {
	s := State{
		Index:         c.index,
		Count:         len(c.slides),
		Slides:        append([]string(nil), c.slides...),
		Transitioning: c.transitioning,
		Fullscreen:    c.fullscreen,
		ReducedMotion: c.reduced,
		AutoAdvance:   c.autoTimer != nil,
		Motion:        c.motion.Vector(),
	}
	if !c.reduced {
		s.MotionDurationMS = motion.AnimationDuration.Milliseconds()
	}
	return s
}

// emit delivers snapshots in the order they were taken.
func (c *Controller) emit() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	if len(c.subs) == 0 {
		return
	}

	c.mu.Lock()
	s := c.snapshotLocked()
	c.mu.Unlock()

	s.Version = c.version.Add(1)

	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		c.subs[id](s)
	}
}
