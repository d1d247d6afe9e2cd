package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
)

// WebSocketHandler streams session updates to dashboard clients.
type WebSocketHandler struct {
	hub           *Hub
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a WebSocket handler over the given hub.
func NewWebSocketHandler(hub *Hub, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP upgrades the connection and forwards broadcast session updates
// as JSON text messages until the client disconnects.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if h.isDev {
		opts.InsecureSkipVerify = true
	} else if h.allowedOrigin != "" {
		opts.OriginPatterns = []string{h.allowedOrigin}
	}

	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Warn("WebSocket accept failed", "error", err)
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "")

	id, updates := h.hub.Subscribe()
	defer h.hub.Unsubscribe(id)
	slog.Debug("Feed subscriber connected", "subscriber_id", id)

	// The feed is write-only. CloseRead keeps a reader running so close
	// frames and pings are processed, and cancels the context when the
	// client goes away; without it an idle connection's goroutine and hub
	// subscription would outlive the client.
	ctx := ws.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case session, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(session)
			if err != nil {
				slog.Error("Failed to encode session update", "session_id", session.ID, "error", err)
				continue
			}
			if err := ws.Write(ctx, websocket.MessageText, payload); err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Debug("Feed subscriber write failed, dropping connection",
						"subscriber_id", id, "error", err)
				}
				return
			}
		}
	}
}
