// internal/handlers/handlers.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"chat-hive/internal/database"
	"chat-hive/internal/engine"
	"chat-hive/internal/middleware"
	"chat-hive/internal/utils"
	"chat-hive/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Hub            *websocket.Hub
	Store          database.Store
	Metrics        *utils.MetricsCollector
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	hub *websocket.Hub,
	store database.Store,
	metrics *utils.MetricsCollector,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Hub:            hub,
		Store:          store,
		Metrics:        metrics,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// request sends a message to an actor and normalizes the outcome: an
// AppError response or a future timeout both surface as *utils.AppError.
func (s *Server) request(pid *actor.PID, msg interface{}) (interface{}, *utils.AppError) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		return nil, utils.NewActorTimeoutError(pid.String())
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondAppError maps the error taxonomy onto HTTP. REQUIRES_INVITE
// additionally carries the identity that gates the send.
func (s *Server) respondAppError(w http.ResponseWriter, appErr *utils.AppError) {
	s.Metrics.IncrementErrors()
	body := map[string]interface{}{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if appErr.Code == utils.ErrRequiresInvite {
		body["target"] = appErr.Target.String()
	}
	s.respondJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), body)
}

// authedUser pulls the JWT-authenticated user ID out of the request.
func authedUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// queryUUID parses a required UUID query parameter.
func queryUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		http.Error(w, name+" required", http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "Invalid "+name+" format", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}
