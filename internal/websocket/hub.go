// internal/websocket/hub.go
package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// PresenceStore is the slice of the storage layer the hub needs to keep
// the persisted online flag in step with live connections.
type PresenceStore interface {
	SetUserPresence(ctx context.Context, id uuid.UUID, online bool) error
}

// Hub maintains the set of active clients, tracks which chat rooms each
// connection has joined, and fans events out to users and rooms.
type Hub struct {
	// Registered clients. Maps user ID to the set of that user's
	// active connections, one entry per device.
	clients map[uuid.UUID]map[*Client]bool

	// Chat room membership. Maps chat ID to the set of connections
	// currently subscribed to that chat's realtime feed.
	rooms map[uuid.UUID]map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	store PresenceStore

	mu sync.RWMutex
}

func NewHub(store PresenceStore) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		store:      store,
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	slog.Info("WebSocket hub started")
	for {
		select {
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	first := len(h.clients[client.UserID]) == 0
	if _, ok := h.clients[client.UserID]; !ok {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true
	connections := len(h.clients[client.UserID])
	h.mu.Unlock()

	slog.Info("WebSocket client registered",
		"connectionId", client.ID,
		"userId", client.UserID,
		"connections", connections)

	// Only the user's first connection flips presence; extra devices
	// attach silently.
	if first {
		if h.store != nil {
			if err := h.store.SetUserPresence(context.Background(), client.UserID, true); err != nil {
				slog.Error("Failed to persist online presence", "userId", client.UserID, "error", err)
			}
		}
		h.Broadcast(EventUserOnline, map[string]string{"userId": client.UserID.String()})
	}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	userClients, ok := h.clients[client.UserID]
	if !ok || !userClients[client] {
		h.mu.Unlock()
		return
	}
	delete(userClients, client)
	close(client.Send)
	for chatID := range client.rooms {
		h.removeFromRoom(chatID, client)
	}
	last := len(userClients) == 0
	if last {
		delete(h.clients, client.UserID)
	}
	remaining := len(userClients)
	h.mu.Unlock()

	slog.Info("WebSocket client unregistered",
		"connectionId", client.ID,
		"userId", client.UserID,
		"remaining", remaining)

	if last {
		if h.store != nil {
			if err := h.store.SetUserPresence(context.Background(), client.UserID, false); err != nil {
				slog.Error("Failed to persist offline presence", "userId", client.UserID, "error", err)
			}
		}
		h.Broadcast(EventUserOffline, map[string]string{"userId": client.UserID.String()})
	}
}

// removeFromRoom must be called with h.mu held.
func (h *Hub) removeFromRoom(chatID uuid.UUID, client *Client) {
	if room, ok := h.rooms[chatID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// JoinRoom subscribes the connection to a chat's realtime feed.
func (h *Hub) JoinRoom(chatID uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[*Client]bool)
	}
	h.rooms[chatID][client] = true
	client.rooms[chatID] = true
}

// LeaveRoom unsubscribes the connection from a chat's realtime feed.
func (h *Hub) LeaveRoom(chatID uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(chatID, client)
	delete(client.rooms, chatID)
}

// Resolve returns the live connections for a set of identities. Users
// without an open connection are silently omitted.
func (h *Hub) Resolve(userIDs []uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Client
	for _, userID := range userIDs {
		for client := range h.clients[userID] {
			out = append(out, client)
		}
	}
	return out
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// OnlineUsers returns the IDs of every currently connected user.
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) send(client *Client, payload []byte) {
	select {
	case client.Send <- payload:
	default:
		slog.Warn("Send buffer full, dropping event",
			"connectionId", client.ID,
			"userId", client.UserID)
	}
}

// EmitToUser delivers an event to every connection the user has open.
func (h *Hub) EmitToUser(userID uuid.UUID, event string, data interface{}) {
	payload := encodeEvent(event, data)
	if payload == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		h.send(client, payload)
	}
}

// EmitToUsers delivers an event to every connection of each listed user.
func (h *Hub) EmitToUsers(userIDs []uuid.UUID, event string, data interface{}) {
	payload := encodeEvent(event, data)
	if payload == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range userIDs {
		for client := range h.clients[userID] {
			h.send(client, payload)
		}
	}
}

// EmitToRoom delivers an event to every connection joined to the chat.
func (h *Hub) EmitToRoom(chatID uuid.UUID, event string, data interface{}) {
	payload := encodeEvent(event, data)
	if payload == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[chatID] {
		h.send(client, payload)
	}
}

// EmitToRoomExcept delivers an event to the chat's room, skipping the
// originating user's connections. Used for typing passthrough.
func (h *Hub) EmitToRoomExcept(chatID, except uuid.UUID, event string, data interface{}) {
	payload := encodeEvent(event, data)
	if payload == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[chatID] {
		if client.UserID == except {
			continue
		}
		h.send(client, payload)
	}
}

// Broadcast delivers an event to every connected client.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload := encodeEvent(event, data)
	if payload == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userClients := range h.clients {
		for client := range userClients {
			h.send(client, payload)
		}
	}
}
