package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/keepsake-app/keepsake/internal/models"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		sessionList := make([]models.WishSession, 0, len(sessions))
		for _, session := range sessions {
			sessionList = append(sessionList, session.Snapshot())
		}
		h.writeJSON(w, sessionList)
	case "POST":
		var request struct {
			ReduceMotion bool `json:"reduce_motion"`
		}
		if !h.decodeJSON(w, r, &request) {
			return
		}
		session, err := h.createSession(request.ReduceMotion)
		if err != nil {
			h.writeError(w, "Failed to create session: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSONStatus(w, http.StatusCreated, session.Snapshot())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail serves everything under /api/wishes/{id}.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/wishes/")
	if len(parts) == 0 {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	session, ok := h.getSessionOrError(w, parts[0])
	if !ok {
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case "GET":
			h.writeJSON(w, session.Snapshot())
		case "DELETE":
			h.sessionStore.Delete(session.ID)
			slog.Info("Wish session discarded", "session_id", session.ID)
			w.WriteHeader(http.StatusNoContent)
		default:
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "images":
		h.handleImages(w, r, session)
	case len(parts) == 3 && parts[1] == "images":
		ordinal, err := strconv.Atoi(parts[2])
		if err != nil {
			h.writeError(w, "Invalid image ordinal: "+parts[2], http.StatusBadRequest)
			return
		}
		h.handleImage(w, r, session, ordinal)
	case len(parts) == 2 && parts[1] == "carousel":
		h.handleCarousel(w, r, session)
	case len(parts) == 3 && parts[1] == "carousel" && parts[2] == "stream":
		h.handleStream(w, r, session)
	case len(parts) == 2 && parts[1] == "preferences":
		h.handlePreferences(w, r, session)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}
