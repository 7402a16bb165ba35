package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/keepsake-app/keepsake/internal/storage"
)

const streamWriteTimeout = 10 * time.Second

// handleStream pushes the carousel state as JSON on every change until the
// client goes away or the session is discarded.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request, session *storage.Wish) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "session_id", session.ID, "err", err)
		return
	}
	defer conn.Close()

	updates, stop := session.Carousel.Watch()
	defer stop()

	// The client never sends anything meaningful; reading detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Debug("Carousel stream opened", "session_id", session.ID, "remote", r.RemoteAddr)
	if err := writeState(conn, session.Carousel.State()); err != nil {
		return
	}

	for {
		select {
		case state := <-updates:
			if err := writeState(conn, state); err != nil {
				slog.Debug("Carousel stream write failed", "session_id", session.ID, "err", err)
				return
			}
		case <-session.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "session discarded")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		case <-gone:
			slog.Debug("Carousel stream closed", "session_id", session.ID)
			return
		}
	}
}

func writeState(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
