// Package handles issues revocable display references for in-memory image
// payloads, the server-side counterpart of a browser blob URL.
package handles

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrUnknownHandle  = errors.New("unknown or revoked display handle")
	ErrRegistryClosed = errors.New("display handle registry closed")
)

// Handle is a live reference a renderer can load.
type Handle struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type entry struct {
	data        []byte
	contentType string
}

// Registry owns every live handle. A handle lives until Revoke is called
// for it exactly once.
type Registry struct {
	prefix  string
	mu      sync.RWMutex
	entries map[string]entry
	closed  bool
}

// NewRegistry returns a Registry whose handle URLs start with prefix,
// e.g. "/blob/".
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix:  prefix,
		entries: make(map[string]entry),
	}
}

// Prefix is the path handle URLs start with.
func (r *Registry) Prefix() string {
	return r.prefix
}

// Create registers a payload and returns its handle.
func (r *Registry) Create(data []byte, contentType string) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Handle{}, ErrRegistryClosed
	}

	id := uuid.NewString()
	r.entries[id] = entry{data: data, contentType: contentType}
	return Handle{ID: id, URL: r.prefix + id}, nil
}

// Revoke releases a handle. Revoking twice is an error.
func (r *Registry) Revoke(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("failed to revoke %s: %w", id, ErrUnknownHandle)
	}
	delete(r.entries, id)
	return nil
}

// Open returns the payload behind a live handle.
func (r *Registry) Open(id string) ([]byte, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e.data, e.contentType, ok
}

// Live reports the number of handles not yet revoked.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close stops issuing handles. Handles still live at this point were never
// released by their owner; they are dropped and reported as an error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if len(r.entries) == 0 {
		return nil
	}

	leaked := make([]string, 0, len(r.entries))
	for id := range r.entries {
		leaked = append(leaked, id)
	}
	sort.Strings(leaked)
	r.entries = make(map[string]entry)

	return fmt.Errorf("%d display handles leaked: %s", len(leaked), strings.Join(leaked, ", "))
}

// ServeHTTP serves the bytes behind a handle. The handle id is the last path
// segment.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:]
	data, contentType, ok := r.Open(id)
	if !ok {
		slog.Debug("Display handle not found", "id", id)
		http.NotFound(w, req)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, no-store")
	if req.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		slog.Error("Unable to write display handle", "id", id, "err", err)
	}
}
