// Package lightbox is the fullscreen viewer layered over a carousel. While
// open it owns the keyboard scope.
package lightbox

import (
	"sync"

	"github.com/keepsake-app/keepsake/internal/carousel"
	"github.com/keepsake-app/keepsake/internal/keys"
)

// Navigator is the part of the carousel the lightbox drives.
type Navigator interface {
	Advance(dir carousel.Direction) bool
	SetFullscreen(on bool)
}

// KeySource delivers key presses.
type KeySource interface {
	Subscribe(fn func(keys.Key)) (unsubscribe func())
}

type Lightbox struct {
	mu          sync.Mutex
	nav         Navigator
	keys        KeySource
	open        bool
	unsubscribe func()
}

func New(nav Navigator, source KeySource) *Lightbox {
	return &Lightbox{nav: nav, keys: source}
}

// Open enters fullscreen and starts listening for keys. Opening an open
// lightbox does nothing.
func (l *Lightbox) Open() {
	l.mu.Lock()
	if l.open {
		l.mu.Unlock()
		return
	}
	l.open = true
	l.unsubscribe = l.keys.Subscribe(l.handleKey)
	l.mu.Unlock()

	l.nav.SetFullscreen(true)
}

// Close stops listening for keys and leaves fullscreen. The carousel index
// is not touched.
func (l *Lightbox) Close() {
	l.mu.Lock()
	if !l.open {
		l.mu.Unlock()
		return
	}
	l.open = false
	unsubscribe := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()

	unsubscribe()
	l.nav.SetFullscreen(false)
}

func (l *Lightbox) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

// Discard releases the key listener when the owning view goes away.
func (l *Lightbox) Discard() {
	l.Close()
}

func (l *Lightbox) handleKey(k keys.Key) {
	switch k {
	case keys.Left:
		l.nav.Advance(carousel.Prev)
	case keys.Right:
		l.nav.Advance(carousel.Next)
	case keys.Escape:
		l.Close()
	}
}
