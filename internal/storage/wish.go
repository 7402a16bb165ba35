package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/keepsake-app/keepsake/internal/carousel"
	"github.com/keepsake-app/keepsake/internal/collection"
	"github.com/keepsake-app/keepsake/internal/handles"
	"github.com/keepsake-app/keepsake/internal/ingest"
	"github.com/keepsake-app/keepsake/internal/keys"
	"github.com/keepsake-app/keepsake/internal/lightbox"
	"github.com/keepsake-app/keepsake/internal/models"
	"github.com/keepsake-app/keepsake/internal/preference"
)

var ErrPreferenceFixed = errors.New("reduced motion preference is not settable for this session")

// Captioner produces alt text for an admitted image.
type Captioner interface {
	AltText(ctx context.Context, data []byte, contentType string) (string, error)
}

type WishOptions struct {
	// ID defaults to a random UUID.
	ID        string
	Registry  *handles.Registry
	Validator ingest.Validator
	Carousel  carousel.Options
	// Source supplies the reduced motion preference. When nil the session
	// gets a settable source starting at ReduceMotion.
	Source       preference.Source
	ReduceMotion bool
	Captioner    Captioner
}

// Wish is one greeting being assembled: the accepted images, the carousel
// showing them, its lightbox and the reduced motion preference they follow.
type Wish struct {
	ID        string
	CreatedAt time.Time

	Collection *collection.Collection
	Carousel   *carousel.Controller
	Lightbox   *lightbox.Lightbox
	Keys       *keys.Bus

	validator ingest.Validator
	captioner Captioner
	manual    *preference.Manual
	prefs     *preference.Observer

	ingestMu sync.Mutex
	mu       sync.Mutex
	message  string

	discard sync.Once
	done    chan struct{}
}

func NewWish(opts WishOptions) (*Wish, error) {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("wish %s: a display handle registry is required", opts.ID)
	}
	if opts.Validator.MaxImages == 0 {
		opts.Validator = ingest.NewValidator()
	}

	w := &Wish{
		ID:        opts.ID,
		CreatedAt: time.Now(),
		validator: opts.Validator,
		captioner: opts.Captioner,
		done:      make(chan struct{}),
	}

	src := opts.Source
	if src == nil {
		w.manual = preference.NewManual(opts.ReduceMotion)
		src = w.manual
	}
	prefs, err := preference.New(src)
	if err != nil {
		return nil, fmt.Errorf("wish %s: %w", opts.ID, err)
	}
	w.prefs = prefs

	w.Collection = collection.New(opts.Registry, opts.Validator.MaxImages)
	w.Carousel = carousel.New(opts.Carousel, prefs)
	w.Keys = keys.NewBus()
	w.Lightbox = lightbox.New(w.Carousel, w.Keys)
	return w, nil
}

// Ingest admits what it can from candidates and shows the result in the
// carousel. The previous message is cleared first; the returned decision's
// Reason becomes the new one.
func (w *Wish) Ingest(ctx context.Context, candidates []ingest.Candidate) (ingest.Decision, error) {
	w.ingestMu.Lock()
	defer w.ingestMu.Unlock()

	w.setMessage("")
	decision := w.validator.Admit(candidates, w.Collection.Len())

	items := make([]collection.Item, 0, len(decision.Admitted))
	for _, c := range decision.Admitted {
		item, err := collection.ItemFromCandidate(c)
		if err != nil {
			return decision, fmt.Errorf("failed to read %s: %w", c.Name, err)
		}
		if w.captioner != nil {
			alt, err := w.captioner.AltText(ctx, item.Data, item.ContentType)
			if err != nil {
				slog.Warn("Failed to generate alt text", "wish", w.ID, "name", item.Name, "err", err)
			} else {
				item.AltText = alt
			}
		}
		items = append(items, item)
	}

	if len(items) > 0 {
		if err := w.Collection.Add(items...); err != nil {
			return decision, err
		}
		if err := w.refreshSlides(); err != nil {
			return decision, err
		}
		slog.Info("Images accepted", "wish", w.ID, "accepted", len(items), "offered", len(candidates), "count", w.Collection.Len())
	}

	if decision.Reason != "" {
		slog.Info("Images rejected", "wish", w.ID, "reason", decision.Reason)
	}
	w.setMessage(decision.Reason)
	return decision, nil
}

// Remove drops the image at ordinal and clears the message.
func (w *Wish) Remove(ordinal int) error {
	w.ingestMu.Lock()
	defer w.ingestMu.Unlock()

	if err := w.Collection.Remove(ordinal); err != nil {
		return err
	}
	w.setMessage("")
	return w.refreshSlides()
}

// Message is the most recent rejection reason, or "".
func (w *Wish) Message() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.message
}

func (w *Wish) Accepting() bool {
	return w.validator.Accepting(w.Collection.Len())
}

func (w *Wish) Validator() ingest.Validator {
	return w.validator
}

func (w *Wish) ReduceMotion() bool {
	return w.prefs.Current()
}

// SetReduceMotion changes the preference of a session created without an
// external source.
func (w *Wish) SetReduceMotion(on bool) error {
	if w.manual == nil {
		return ErrPreferenceFixed
	}
	w.manual.Set(on)
	return nil
}

// Press routes a key to whoever holds the keyboard scope. It reports whether
// anyone did.
func (w *Wish) Press(k keys.Key) bool {
	return w.Keys.Dispatch(k)
}

func (w *Wish) Snapshot() models.WishSession {
	return models.WishSession{
		ID:        w.ID,
		Images:    w.Collection.Images(),
		Message:   w.Message(),
		Accepting: w.Accepting(),
		MaxImages: w.validator.MaxImages,
		Limits:    w.validator.Limits(),
		CreatedAt: w.CreatedAt,
	}
}

// Discard tears the session down: key listener, timers, preference
// listener, then display handles. Safe to call more than once.
func (w *Wish) Discard() {
	w.discard.Do(func() {
		w.Lightbox.Discard()
		w.Carousel.Close()
		w.prefs.Close()
		w.Collection.Release()
		close(w.done)
		slog.Debug("Wish discarded", "wish", w.ID)
	})
}

// Done is closed once the session has been discarded.
func (w *Wish) Done() <-chan struct{} {
	return w.done
}

func (w *Wish) setMessage(m string) {
	w.mu.Lock()
	w.message = m
	w.mu.Unlock()
}

func (w *Wish) refreshSlides() error {
	slides, err := w.Collection.Slides()
	if err != nil {
		return err
	}
	w.Carousel.SetSlides(slides)
	return nil
}
