package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/keepsake-app/keepsake/internal/collection"
	"github.com/keepsake-app/keepsake/internal/ingest"
	"github.com/keepsake-app/keepsake/internal/models"
	"github.com/keepsake-app/keepsake/internal/storage"
)

type uploadResponse struct {
	Admitted  int                    `json:"admitted"`
	Message   string                 `json:"message,omitempty"`
	Images    []models.AcceptedImage `json:"images"`
	Count     int                    `json:"count"`
	MaxImages int                    `json:"max_images"`
	Accepting bool                   `json:"accepting"`
}

func (h *Handler) handleImages(w http.ResponseWriter, r *http.Request, session *storage.Wish) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, session.Snapshot().Images)
	case "POST":
		// Check if this is a JSON request with image URLs
		if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			h.handleURLUpload(w, r, session)
			return
		}
		h.handleFileUpload(w, r, session)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request, session *storage.Wish) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("Failed to remove multipart temp files", "err", err)
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		h.writeError(w, "No files provided", http.StatusBadRequest)
		return
	}

	candidates := make([]ingest.Candidate, 0, len(headers))
	for _, header := range headers {
		candidates = append(candidates, ingest.FromFileHeader(header))
	}

	h.ingest(w, r, session, candidates)
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request, session *storage.Wish) {
	var request struct {
		URLs []string `json:"urls"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}
	if len(request.URLs) == 0 {
		h.writeError(w, "urls is required", http.StatusBadRequest)
		return
	}

	// URLs past the remaining slots are never examined, so they are not fetched.
	remaining := max(session.Validator().MaxImages-session.Collection.Len(), 0)
	fetch := request.URLs[:min(len(request.URLs), remaining)]
	candidates, err := h.fetcher.FetchAll(r.Context(), fetch)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return
	}
	for _, u := range request.URLs[len(fetch):] {
		candidates = append(candidates, ingest.NewCandidate(u, "", nil))
	}

	h.ingest(w, r, session, candidates)
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request, session *storage.Wish, candidates []ingest.Candidate) {
	decision, err := session.Ingest(r.Context(), candidates)
	if err != nil {
		h.writeError(w, "Failed to store images: "+err.Error(), http.StatusInternalServerError)
		return
	}

	snap := session.Snapshot()
	h.writeJSON(w, uploadResponse{
		Admitted:  len(decision.Admitted),
		Message:   snap.Message,
		Images:    snap.Images,
		Count:     len(snap.Images),
		MaxImages: snap.MaxImages,
		Accepting: snap.Accepting,
	})
}

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request, session *storage.Wish, ordinal int) {
	if r.Method != "DELETE" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := session.Remove(ordinal); err != nil {
		if errors.Is(err, collection.ErrNoSuchOrdinal) {
			h.writeError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.writeError(w, "Failed to remove image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Image removed", "session_id", session.ID, "ordinal", ordinal)
	h.writeJSON(w, session.Snapshot())
}
