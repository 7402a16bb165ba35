// Package preference tracks the user's reduced-motion accessibility setting.
package preference

import (
	"fmt"
	"sort"
	"sync"
)

// Source is the platform's reduced-motion signal.
type Source interface {
	// Current reads the signal.
	Current() (bool, error)
	// Watch registers fn to be told about changes. The returned func
	// releases the registration.
	Watch(fn func(bool)) (stop func(), err error)
}

// Observer caches the reduced-motion signal and fans changes out to
// subscribers. Each Observer holds exactly one registration on its Source,
// released by Close.
type Observer struct {
	mu     sync.Mutex
	value  bool
	subs   map[int]func(bool)
	nextID int
	stop   func()
	closed bool
}

// New reads the initial value from src and starts watching it.
func New(src Source) (*Observer, error) {
	value, err := src.Current()
	if err != nil {
		return nil, fmt.Errorf("failed to read reduced-motion preference: %w", err)
	}

	o := &Observer{
		value: value,
		subs:  make(map[int]func(bool)),
	}

	stop, err := src.Watch(o.set)
	if err != nil {
		return nil, fmt.Errorf("failed to watch reduced-motion preference: %w", err)
	}

	o.mu.Lock()
	o.stop = stop
	o.mu.Unlock()

	return o, nil
}

// Current reports whether motion should be reduced.
func (o *Observer) Current() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Subscribe calls fn on every change until the returned func is called.
func (o *Observer) Subscribe(fn func(bool)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return func() {}
	}

	id := o.nextID
	o.nextID++
	o.subs[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

// Subscribers reports how many subscriptions are live.
func (o *Observer) Subscribers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

// Close releases the source registration and drops all subscribers.
func (o *Observer) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.subs = nil
	stop := o.stop
	o.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (o *Observer) set(value bool) {
	o.mu.Lock()
	if o.closed || value == o.value {
		o.mu.Unlock()
		return
	}
	o.value = value

	ids := make([]int, 0, len(o.subs))
	for id := range o.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(bool), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, o.subs[id])
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}
