package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/keepsake-app/keepsake/internal/carousel"
	"github.com/keepsake-app/keepsake/internal/keys"
	"github.com/keepsake-app/keepsake/internal/storage"
)

type carouselResponse struct {
	Changed      bool           `json:"changed"`
	LightboxOpen bool           `json:"lightbox_open"`
	State        carousel.State `json:"state"`
}

func (h *Handler) handleCarousel(w http.ResponseWriter, r *http.Request, session *storage.Wish) {
	switch r.Method {
	case "GET":
		h.writeCarousel(w, session, false)
	case "POST":
		var request struct {
			Action string `json:"action"` // "next", "prev", "goto", "open", "close", "key"
			Index  *int   `json:"index"`
			Key    string `json:"key"`
		}
		if !h.decodeJSON(w, r, &request) {
			return
		}

		var changed bool
		switch request.Action {
		case "next":
			changed = session.Carousel.Advance(carousel.Next)
		case "prev":
			changed = session.Carousel.Advance(carousel.Prev)
		case "goto":
			if request.Index == nil {
				h.writeError(w, "index is required for goto", http.StatusBadRequest)
				return
			}
			moved, err := session.Carousel.GoTo(*request.Index)
			if err != nil {
				if errors.Is(err, carousel.ErrIndexOutOfRange) {
					h.writeError(w, err.Error(), http.StatusBadRequest)
					return
				}
				h.writeError(w, err.Error(), http.StatusInternalServerError)
				return
			}
			changed = moved
		case "open":
			changed = !session.Lightbox.IsOpen()
			session.Lightbox.Open()
		case "close":
			changed = session.Lightbox.IsOpen()
			session.Lightbox.Close()
		case "key":
			k, err := keys.Parse(request.Key)
			if err != nil {
				h.writeError(w, err.Error(), http.StatusBadRequest)
				return
			}
			changed = session.Press(k)
		default:
			h.writeError(w, "Invalid action. Must be 'next', 'prev', 'goto', 'open', 'close' or 'key'", http.StatusBadRequest)
			return
		}

		slog.Debug("Carousel action", "session_id", session.ID, "action", request.Action, "changed", changed)
		h.writeCarousel(w, session, changed)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) writeCarousel(w http.ResponseWriter, session *storage.Wish, changed bool) {
	h.writeJSON(w, carouselResponse{
		Changed:      changed,
		LightboxOpen: session.Lightbox.IsOpen(),
		State:        session.Carousel.State(),
	})
}

func (h *Handler) handlePreferences(w http.ResponseWriter, r *http.Request, session *storage.Wish) {
	switch r.Method {
	case "GET":
	case "PUT":
		var request struct {
			ReduceMotion *bool `json:"reduce_motion"`
		}
		if !h.decodeJSON(w, r, &request) {
			return
		}
		if request.ReduceMotion == nil {
			h.writeError(w, "reduce_motion is required", http.StatusBadRequest)
			return
		}
		if err := session.SetReduceMotion(*request.ReduceMotion); err != nil {
			h.writeError(w, err.Error(), http.StatusConflict)
			return
		}
		slog.Info("Reduced motion preference changed", "session_id", session.ID, "reduce_motion", *request.ReduceMotion)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, map[string]any{
		"reduce_motion": session.ReduceMotion(),
		"state":         session.Carousel.State(),
	})
}
