// internal/handlers/websocket_handlers.go
package handlers

import (
	"log/slog"
	"net/http"

	"chat-hive/internal/middleware"
	"chat-hive/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering happens at the CORS layer; the realtime
		// endpoint authenticates by token instead.
		return true
	},
}

// HandleWebSocket authenticates the token query parameter, upgrades the
// connection and attaches it to the hub.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		claims, err := middleware.ValidateToken(tokenString)
		if err != nil {
			slog.Warn("WebSocket auth failed", "error", err)
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		userID := claims.UserID
		if userID == uuid.Nil {
			http.Error(w, "Invalid user ID in token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("WebSocket upgrade failed", "userId", userID, "error", err)
			return
		}

		client := websocket.NewClient(s.Hub, userID, conn)
		s.Hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
