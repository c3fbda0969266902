// cmd/engine/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"chat-hive/internal/config"
	"chat-hive/internal/database"
	"chat-hive/internal/engine"
	"chat-hive/internal/handlers"
	"chat-hive/internal/middleware"
	"chat-hive/internal/utils"
	"chat-hive/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Debug)

	store, err := database.NewMongoDB(cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureIndexes(indexCtx); err != nil {
		slog.Error("Failed to ensure indexes", "error", err)
		os.Exit(1)
	}

	middleware.SetJWTSecret(cfg.JWTSecret)

	metrics := utils.NewMetricsCollector()
	hub := websocket.NewHub(store)
	go hub.Run()

	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, store, hub, metrics)

	server := handlers.NewServer(system, eng, hub, store, metrics)

	mux := http.NewServeMux()
	registerRoutes(mux, server)

	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins)
	handler := middleware.CORSMiddleware(corsConfig)(mux)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	slog.Info("Starting server", "addr", serverAddr)
	if err := httpServer.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

// registerRoutes wires every endpoint, wrapping protected ones with JWT
// authentication.
func registerRoutes(mux *http.ServeMux, s *handlers.Server) {
	route := func(path string, handler http.HandlerFunc) {
		mux.HandleFunc(path, middleware.ApplyJWTMiddleware(handler, path))
	}

	route("/health", s.HandleHealth())

	// Identity
	route("/user/register", s.HandleUserRegistration())
	route("/user/login", s.HandleUserLogin())
	route("/user/profile", s.HandleUserProfile())
	route("/user/profile/update", s.HandleUpdateProfile())
	route("/user/visibility", s.HandleSetVisibility())
	route("/user/search", s.HandleUserSearch())

	// Relationship graph
	route("/user/block", s.HandleBlockUser())
	route("/user/unblock", s.HandleUnblockUser())
	route("/user/friend/add", s.HandleAddFriend())
	route("/user/friend/remove", s.HandleRemoveFriend())

	// Invites
	route("/invite", s.HandleCreateInvite())
	route("/invite/accept", s.HandleAcceptInvite())
	route("/invite/decline", s.HandleDeclineInvite())
	route("/invite/read", s.HandleMarkInviteRead())
	route("/invite/list", s.HandleListInvites())

	// Conversations
	route("/chat/direct", s.HandleCreateDirectChat())
	route("/chat/group", s.HandleCreateGroupChat())
	route("/chat", s.HandleGetChat())
	route("/chat/list", s.HandleListChats())
	route("/chat/rename", s.HandleRenameChat())
	route("/chat/description", s.HandleSetChatDescription())
	route("/chat/icon", s.HandleSetChatIcon())
	route("/chat/member/add", s.HandleAddChatMember())
	route("/chat/member/remove", s.HandleRemoveChatMember())
	route("/chat/admin/add", s.HandlePromoteAdmin())
	route("/chat/admin/remove", s.HandleDemoteAdmin())
	route("/chat/leave", s.HandleLeaveChat())
	route("/chat/mute", s.HandleMuteChat())
	route("/chat/clear", s.HandleClearChat())
	route("/chat/delete", s.HandleDeleteChatForMe())
	route("/chat/group/delete", s.HandleDeleteGroupChat())

	// Messages
	route("/message/send", s.HandleSendMessage())
	route("/message/list", s.HandleListMessages())
	route("/message/read", s.HandleMarkChatRead())
	route("/message/delete", s.HandleDeleteMessage())

	// Realtime endpoint authenticates via token query parameter.
	mux.HandleFunc("/ws", s.HandleWebSocket())
}
