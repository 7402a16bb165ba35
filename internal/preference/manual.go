package preference

import "sync"

// Manual is a Source whose value is pushed by the caller, e.g. a browser
// reporting its prefers-reduced-motion media query.
type Manual struct {
	mu        sync.Mutex
	value     bool
	listeners map[int]func(bool)
	nextID    int
}

func NewManual(initial bool) *Manual {
	return &Manual{
		value:     initial,
		listeners: make(map[int]func(bool)),
	}
}

func (m *Manual) Current() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

func (m *Manual) Watch(fn func(bool)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.listeners, id)
		})
	}, nil
}

// Set updates the value and notifies listeners if it changed.
func (m *Manual) Set(value bool) {
	m.mu.Lock()
	if value == m.value {
		m.mu.Unlock()
		return
	}
	m.value = value
	fns := make([]func(bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// Listeners reports how many watches are registered.
func (m *Manual) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}
