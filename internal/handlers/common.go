package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/keepsake-app/keepsake/internal/carousel"
	"github.com/keepsake-app/keepsake/internal/clock"
	"github.com/keepsake-app/keepsake/internal/handles"
	"github.com/keepsake-app/keepsake/internal/images"
	"github.com/keepsake-app/keepsake/internal/ingest"
	"github.com/keepsake-app/keepsake/internal/storage"
)

// maxUploadBytes bounds a whole multipart request. Oversized files below this
// still reach the validator so the user sees the size message.
const maxUploadBytes = 64 << 20

type Options struct {
	Registry  *handles.Registry
	Validator ingest.Validator
	Carousel  carousel.Options
	// Captioner is optional.
	Captioner storage.Captioner
	// Clock overrides the carousel clock of every new session.
	Clock clock.Clock
}

type Handler struct {
	sessionStore *storage.SessionStore
	registry     *handles.Registry
	validator    ingest.Validator
	carousel     carousel.Options
	captioner    storage.Captioner
	fetcher      *images.Fetcher
	upgrader     websocket.Upgrader
}

func New(opts Options) *Handler {
	if opts.Registry == nil {
		opts.Registry = handles.NewRegistry("/blob/")
	}
	if opts.Validator.MaxImages == 0 {
		opts.Validator = ingest.NewValidator()
	}
	if opts.Clock != nil {
		opts.Carousel.Clock = opts.Clock
	}
	return &Handler{
		sessionStore: storage.New(),
		registry:     opts.Registry,
		validator:    opts.Validator,
		carousel:     opts.Carousel,
		captioner:    opts.Captioner,
		fetcher:      images.NewFetcher(opts.Validator.MaxSizeBytes),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/wishes", h.HandleSessions)
	mux.HandleFunc("/api/wishes/", h.HandleSessionDetail)
	mux.Handle(h.registry.Prefix(), h.registry)
	mux.HandleFunc("/", h.HandleStatic)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}

// Shutdown discards every session, then closes the handle registry.
func (h *Handler) Shutdown() error {
	h.sessionStore.CloseAll()
	return h.registry.Close()
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "code", code)
	}
	http.Error(w, message, code)
}

// decodeJSON reads an optional JSON body. An empty body leaves v untouched.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*storage.Wish, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func (h *Handler) createSession(reduceMotion bool) (*storage.Wish, error) {
	session, err := storage.NewWish(storage.WishOptions{
		Registry:     h.registry,
		Validator:    h.validator,
		Carousel:     h.carousel,
		ReduceMotion: reduceMotion,
		Captioner:    h.captioner,
	})
	if err != nil {
		return nil, err
	}
	h.sessionStore.Set(session.ID, session)
	slog.Info("Wish session created", "session_id", session.ID, "reduce_motion", reduceMotion)
	return session, nil
}

// splitPath returns the path segments after prefix.
func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
