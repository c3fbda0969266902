// internal/websocket/client.go
package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lithammer/shortuuid/v4"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	// Short connection identifier, used only for logging.
	ID string

	Hub *Hub

	// The user ID this connection authenticated as.
	UserID uuid.UUID

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound payloads.
	Send chan []byte

	// Chats this connection has joined; guarded by the hub's mutex.
	rooms map[uuid.UUID]bool
}

func NewClient(hub *Hub, userID uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{
		ID:     shortuuid.New(),
		Hub:    hub,
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		rooms:  make(map[uuid.UUID]bool),
	}
}

// ReadPump pumps frames from the websocket connection into the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket read error", "connectionId", c.ID, "userId", c.UserID, "error", err)
			}
			break
		}
		c.handleFrame(message)
	}
}

// handleFrame processes one inbound client event. Room membership and
// typing indicators never touch storage, so they are handled here
// instead of going through the engine.
func (c *Client) handleFrame(message []byte) {
	var frame clientFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		slog.Warn("Discarding malformed websocket frame", "connectionId", c.ID, "error", err)
		return
	}

	chatID, err := uuid.Parse(frame.ChatID)
	if err != nil {
		slog.Warn("Discarding websocket frame with bad chat ID",
			"connectionId", c.ID, "event", frame.Event)
		return
	}

	switch frame.Event {
	case eventJoinChat:
		c.Hub.JoinRoom(chatID, c)
	case eventLeaveChat:
		c.Hub.LeaveRoom(chatID, c)
	case EventTyping, EventStopTyping:
		// Ephemeral passthrough to everyone else in the room.
		c.Hub.EmitToRoomExcept(chatID, c.UserID, frame.Event, map[string]string{
			"chatId": chatID.String(),
			"userId": c.UserID.String(),
		})
	default:
		slog.Warn("Unknown websocket event", "connectionId", c.ID, "event", frame.Event)
	}
}

// WritePump pumps payloads from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Warn("WebSocket write error", "connectionId", c.ID, "userId", c.UserID, "error", err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
