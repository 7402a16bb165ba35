// Package collection is the ordered set of accepted images and the display
// handles rendered from them.
package collection

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/keepsake-app/keepsake/internal/handles"
	"github.com/keepsake-app/keepsake/internal/ingest"
	"github.com/keepsake-app/keepsake/internal/models"
)

var (
	ErrCapacity      = errors.New("collection is full")
	ErrNoSuchOrdinal = errors.New("no image at ordinal")
	ErrReleased      = errors.New("collection released")
)

// Item is an admitted payload ready to be appended.
type Item struct {
	Name        string
	ContentType string
	Data        []byte
	AltText     string
}

type entry struct {
	image  models.AcceptedImage
	data   []byte
	handle *handles.Handle
}

// Collection keeps images in insertion order with contiguous ordinals.
// Each image has at most one live display handle, created on first use and
// revoked when the image is removed or the collection is released.
type Collection struct {
	mu        sync.Mutex
	maxImages int
	registry  *handles.Registry
	entries   []*entry
	released  bool
}

func New(registry *handles.Registry, maxImages int) *Collection {
	return &Collection{
		maxImages: maxImages,
		registry:  registry,
	}
}

// ItemFromCandidate loads an admitted candidate's payload.
func ItemFromCandidate(c ingest.Candidate) (Item, error) {
	data, err := c.ReadAll()
	if err != nil {
		return Item{}, err
	}
	return Item{Name: c.Name, ContentType: c.ContentType, Data: data}, nil
}

// Add appends items. It refuses the whole call rather than exceed the limit.
func (c *Collection) Add(items ...Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return ErrReleased
	}
	if len(c.entries)+len(items) > c.maxImages {
		return fmt.Errorf("failed to add %d images to %d of %d: %w", len(items), len(c.entries), c.maxImages, ErrCapacity)
	}

	for _, item := range items {
		sum := md5.Sum(item.Data)
		img := models.AcceptedImage{
			Ordinal:     len(c.entries),
			Name:        item.Name,
			ContentType: item.ContentType,
			Size:        int64(len(item.Data)),
			Checksum:    hex.EncodeToString(sum[:]),
			AltText:     item.AltText,
		}
		if dims, err := ingest.Probe(item.Data); err == nil {
			img.Width, img.Height = dims.Width, dims.Height
		} else {
			slog.Debug("Unable to read image dimensions", "name", item.Name, "err", err)
		}
		c.entries = append(c.entries, &entry{image: img, data: item.Data})
	}
	return nil
}

// Remove drops the image at ordinal, releases its handle and re-indexes the
// images after it.
func (c *Collection) Remove(ordinal int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return ErrReleased
	}
	if ordinal < 0 || ordinal >= len(c.entries) {
		return fmt.Errorf("failed to remove %d: %w", ordinal, ErrNoSuchOrdinal)
	}

	c.releaseHandle(c.entries[ordinal])
	c.entries = append(c.entries[:ordinal], c.entries[ordinal+1:]...)
	for i, e := range c.entries {
		e.image.Ordinal = i
	}
	return nil
}

// DisplayHandleFor returns the image's handle, creating it on first call.
func (c *Collection) DisplayHandleFor(ordinal int) (handles.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return handles.Handle{}, ErrReleased
	}
	if ordinal < 0 || ordinal >= len(c.entries) {
		return handles.Handle{}, fmt.Errorf("failed to get handle for %d: %w", ordinal, ErrNoSuchOrdinal)
	}
	return c.handleFor(c.entries[ordinal])
}

// Slides returns a display reference for every image in order.
func (c *Collection) Slides() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return nil, ErrReleased
	}
	refs := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		h, err := c.handleFor(e)
		if err != nil {
			return nil, err
		}
		refs = append(refs, h.URL)
	}
	return refs, nil
}

// Images returns a copy of the image metadata. URL is set for images that
// have a live handle. Empty alt text defaults to "Photo N".
func (c *Collection) Images() []models.AcceptedImage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.AcceptedImage, 0, len(c.entries))
	for _, e := range c.entries {
		img := e.image
		if img.AltText == "" {
			img.AltText = fmt.Sprintf("Photo %d", img.Ordinal+1)
		}
		if e.handle != nil {
			img.URL = e.handle.URL
		}
		out = append(out, img)
	}
	return out
}

// Payload returns the bytes of the image at ordinal.
func (c *Collection) Payload(ordinal int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ordinal < 0 || ordinal >= len(c.entries) {
		return nil, fmt.Errorf("failed to read %d: %w", ordinal, ErrNoSuchOrdinal)
	}
	return c.entries[ordinal].data, nil
}

func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Release revokes every live handle and empties the collection. Safe to
// call more than once.
func (c *Collection) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return
	}
	for _, e := range c.entries {
		c.releaseHandle(e)
	}
	c.entries = nil
	c.released = true
}

func (c *Collection) handleFor(e *entry) (handles.Handle, error) {
	if e.handle != nil {
		return *e.handle, nil
	}
	h, err := c.registry.Create(e.data, e.image.ContentType)
	if err != nil {
		return handles.Handle{}, fmt.Errorf("failed to create display handle for %s: %w", e.image.Name, err)
	}
	e.handle = &h
	return h, nil
}

// releaseHandle is best effort: a failed revoke delays reclamation but does
// not corrupt the collection.
func (c *Collection) releaseHandle(e *entry) {
	if e.handle == nil {
		return
	}
	if err := c.registry.Revoke(e.handle.ID); err != nil {
		slog.Warn("Failed to release display handle", "name", e.image.Name, "handle", e.handle.ID, "err", err)
	}
	e.handle = nil
}
