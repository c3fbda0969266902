// internal/engine/actors/dispatcher.go
package actors

import "github.com/google/uuid"

// Dispatcher is the realtime fan-out surface the actors push events
// through. The websocket hub implements it in production; tests use a
// recording fake. Delivery is best-effort: implementations never block
// and never return errors.
type Dispatcher interface {
	EmitToUser(userID uuid.UUID, event string, data interface{})
	EmitToUsers(userIDs []uuid.UUID, event string, data interface{})
	EmitToRoom(chatID uuid.UUID, event string, data interface{})
	Broadcast(event string, data interface{})
}
