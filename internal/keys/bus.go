// Package keys routes navigation key presses to whoever currently holds
// the keyboard scope.
package keys

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Key int

const (
	Left Key = iota + 1
	Right
	Escape
)

func (k Key) String() string {
	switch k {
	case Left:
		return "left"
	case Right:
		return "right"
	case Escape:
		return "escape"
	default:
		return fmt.Sprintf("key(%d)", int(k))
	}
}

// Parse accepts DOM key names ("ArrowLeft", "Escape") and terminal names
// ("left", "esc").
func Parse(name string) (Key, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "arrowleft", "left", "h":
		return Left, nil
	case "arrowright", "right", "l":
		return Right, nil
	case "escape", "esc":
		return Escape, nil
	default:
		return 0, fmt.Errorf("unsupported key %q", name)
	}
}

// Bus delivers key presses to subscribers. Nothing listens by default.
type Bus struct {
	mu        sync.Mutex
	listeners map[int]func(Key)
	nextID    int
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[int]func(Key))}
}

// Subscribe registers fn until the returned func is called.
func (b *Bus) Subscribe(fn func(Key)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.listeners[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

// Dispatch delivers k to every listener and reports whether anyone was
// listening.
func (b *Bus) Dispatch(k Key) bool {
	b.mu.Lock()
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Key), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.listeners[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(k)
	}
	return len(fns) > 0
}

// Listeners reports how many subscriptions are live.
func (b *Bus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
