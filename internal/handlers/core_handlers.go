// internal/handlers/core_handlers.go
package handlers

import (
	"net/http"
	"time"

	"chat-hive/internal/utils"
)

// HealthResponse is the health endpoint payload
type HealthResponse struct {
	Status      string                `json:"status"`
	Time        time.Time             `json:"time"`
	Users       int64                 `json:"users"`
	Chats       int64                 `json:"chats"`
	Messages    int64                 `json:"messages"`
	OnlineUsers int                   `json:"onlineUsers"`
	Metrics     utils.MetricsSnapshot `json:"metrics"`
}

// HandleHealth reports liveness plus store and hub counters
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		ctx := r.Context()

		users, err := s.Store.CountUsers(ctx)
		if err != nil {
			http.Error(w, "Store unavailable", http.StatusServiceUnavailable)
			return
		}
		chats, _ := s.Store.CountChats(ctx)
		messages, _ := s.Store.CountMessages(ctx)

		s.respondJSON(w, http.StatusOK, &HealthResponse{
			Status:      "ok",
			Time:        time.Now(),
			Users:       users,
			Chats:       chats,
			Messages:    messages,
			OnlineUsers: len(s.Hub.OnlineUsers()),
			Metrics:     s.Metrics.Snapshot(),
		})
	}
}
