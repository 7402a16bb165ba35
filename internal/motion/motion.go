// Package motion produces the slow pan and zoom ("Ken Burns") targets shown
// on the current slide.
package motion

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/keepsake-app/keepsake/internal/clock"
	"github.com/keepsake-app/keepsake/internal/preference"
)

const (
	// DefaultDelay separates the reset to Neutral from the new target so a
	// renderer always observes the reset first.
	DefaultDelay = 100 * time.Millisecond
	// AnimationDuration is how long a renderer should take to reach a target.
	AnimationDuration = 8 * time.Second
	Easing            = "ease-out"
)

// Vector is a transform target: a zoom factor plus a pan offset in percent
// of the slide size.
type Vector struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

var Neutral = Vector{Scale: 1}

// Palette is the set of directions a slide may drift in.
var Palette = [...]Vector{
	{Scale: 1.1, X: 2, Y: 2},
	{Scale: 1.1, X: -2, Y: 2},
	{Scale: 1.1, X: 2, Y: -2},
	{Scale: 1.1, X: -2, Y: -2},
}

// Rand is the random source used to pick a direction.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultRand draws from math/rand/v2's global source.
func DefaultRand() Rand {
	return globalRand{}
}

// Pick returns a palette entry chosen uniformly by r.
func Pick(r Rand) Vector {
	return Palette[r.IntN(len(Palette))]
}

type Options struct {
	Clock clock.Clock
	Rand  Rand
	Delay time.Duration
	// OnChange is told about every new vector. It is never called with the
	// generator's lock held.
	OnChange func(Vector)
}

// Generator holds the current motion vector for one carousel.
type Generator struct {
	mu       sync.Mutex
	clock    clock.Clock
	rand     Rand
	delay    time.Duration
	onChange func(Vector)
	prefs    *preference.Observer

	vector      Vector
	pending     clock.Timer
	generation  int
	active      bool
	closed      bool
	unsubscribe func()
}

func NewGenerator(opts Options, prefs *preference.Observer) *Generator {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Rand == nil {
		opts.Rand = DefaultRand()
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}

	g := &Generator{
		clock:    opts.Clock,
		rand:     opts.Rand,
		delay:    opts.Delay,
		onChange: opts.OnChange,
		prefs:    prefs,
		vector:   Neutral,
	}
	g.unsubscribe = prefs.Subscribe(g.preferenceChanged)
	return g
}

// Vector returns the current target.
func (g *Generator) Vector() Vector {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.vector
}

// Restart is called on every slide change. It snaps back to Neutral and,
// unless motion is reduced, schedules a random target after the delay.
func (g *Generator) Restart() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.active = true
	changed := g.restartLocked()
	g.mu.Unlock()

	g.notify(changed)
}

// Reset parks the generator at Neutral with nothing scheduled, for an empty
// carousel.
func (g *Generator) Reset() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.active = false
	g.cancelLocked()
	changed := g.setLocked(Neutral)
	g.mu.Unlock()

	g.notify(changed)
}

// Pending reports whether a target is waiting to be applied.
func (g *Generator) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending != nil
}

// Close cancels the pending target and the preference subscription.
func (g *Generator) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.cancelLocked()
	unsubscribe := g.unsubscribe
	g.mu.Unlock()

	unsubscribe()
}

func (g *Generator) preferenceChanged(reduced bool) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	var changed *Vector
	if reduced {
		g.cancelLocked()
		changed = g.setLocked(Neutral)
	} else if g.active {
		changed = g.restartLocked()
	}
	g.mu.Unlock()

	g.notify(changed)
}

func (g *Generator) restartLocked() *Vector {
	g.cancelLocked()
	changed := g.setLocked(Neutral)
	if g.prefs.Current() {
		return changed
	}

	target := Pick(g.rand)
	generation := g.generation
	g.pending = g.clock.AfterFunc(g.delay, func() {
		g.apply(generation, target)
	})
	return changed
}

func (g *Generator) apply(generation int, target Vector) {
	g.mu.Lock()
	if g.closed || generation != g.generation {
		g.mu.Unlock()
		return
	}
	g.pending = nil
	changed := g.setLocked(target)
	g.mu.Unlock()

	g.notify(changed)
}

func (g *Generator) cancelLocked() {
	g.generation++
	if g.pending != nil {
		g.pending.Stop()
		g.pending = nil
	}
}

func (g *Generator) setLocked(v Vector) *Vector {
	if v == g.vector {
		return nil
	}
	g.vector = v
	return &v
}

func (g *Generator) notify(v *Vector) {
	if v != nil && g.onChange != nil {
		g.onChange(*v)
	}
}
