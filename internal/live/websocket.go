package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/sambhav874/tuition-teacher/internal/domain"
	"github.com/sambhav874/tuition-teacher/internal/identity"
	"github.com/sambhav874/tuition-teacher/internal/tutor"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// StateSource loads a user's current state for the initial sync.
type StateSource interface {
	State(ctx context.Context, userID string) (domain.AppState, error)
}

// WebSocketHandler streams a user's tutoring events over a WebSocket.
type WebSocketHandler struct {
	hub            *Hub
	states         StateSource
	allowedOrigins []string
	isDev          bool
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(hub *Hub, states StateSource, allowedOrigins []string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		states:         states,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	sub := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(sub)

	// Clients never send data; CloseRead handles control frames and
	// cancels ctx when the peer goes away.
	ctx := ws.CloseRead(r.Context())

	state, err := h.states.State(ctx, userID)
	if err != nil {
		slog.Error("Failed to load state for live sync", "error", err, "user_id", userID)
		return
	}
	initial, err := json.Marshal(tutor.Event{Type: tutor.EventState, State: &state})
	if err != nil {
		slog.Error("Failed to encode initial state", "error", err, "user_id", userID)
		return
	}
	if err := write(ctx, ws, initial); err != nil {
		slog.Debug("Failed to send initial state", "error", err, "user_id", userID)
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Live stream closed by client", "user_id", userID)
			return
		case payload, ok := <-sub.C:
			if !ok {
				return
			}
			if err := write(ctx, ws, payload); err != nil {
				slog.Debug("Live stream write failed", "error", err, "user_id", userID)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := ws.Ping(pingCtx)
			cancel()
			if err != nil {
				slog.Debug("Live stream ping failed", "error", err, "user_id", userID)
				return
			}
		}
	}
}

func write(ctx context.Context, ws *websocket.Conn, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, payload)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}
