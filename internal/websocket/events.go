// internal/websocket/events.go
package websocket

import (
	"encoding/json"
	"log/slog"
)

// Event names pushed to connected clients.
const (
	EventNewMessage      = "new message"
	EventNewMessageAlert = "new message alert"
	EventMessageRead     = "message read"
	EventTyping          = "typing"
	EventStopTyping      = "stop typing"
	EventUserOnline      = "user online"
	EventUserOffline     = "user offline"
	EventInvitesUpdated  = "invites updated"
	EventUserBlocked     = "user blocked"
	EventUserUnblocked   = "user unblocked"
	EventChatUpdated     = "chat updated"
	EventChatDeleted     = "chat deleted"
)

// Inbound event names accepted from clients.
const (
	eventJoinChat  = "join chat"
	eventLeaveChat = "leave chat"
)

// Envelope is the wire format for every outbound event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

func encodeEvent(event string, data interface{}) []byte {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		slog.Error("Failed to encode websocket event", "event", event, "error", err)
		return nil
	}
	return payload
}

// clientFrame is the wire format for inbound client events.
type clientFrame struct {
	Event  string `json:"event"`
	ChatID string `json:"chatId,omitempty"`
}
