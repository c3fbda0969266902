// internal/engine/engine.go
package engine

import (
	"chat-hive/internal/database"
	"chat-hive/internal/engine/actors"
	"chat-hive/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine spawns the core actors and hands their PIDs to the HTTP layer.
type Engine struct {
	userActor         *actor.PID
	relationshipActor *actor.PID
	inviteActor       *actor.PID
	chatActor         *actor.PID
	messageActor      *actor.PID
}

func NewEngine(system *actor.ActorSystem, store database.Store, dispatcher actors.Dispatcher, metrics *utils.MetricsCollector) *Engine {
	context := system.Root

	userPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserActor(store, metrics)
	}))
	relationshipPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewRelationshipActor(store, dispatcher, metrics)
	}))
	invitePID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewInviteActor(store, dispatcher, metrics)
	}))
	chatPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewChatActor(store, dispatcher, metrics)
	}))
	messagePID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewMessageActor(store, dispatcher, metrics)
	}))

	return &Engine{
		userActor:         userPID,
		relationshipActor: relationshipPID,
		inviteActor:       invitePID,
		chatActor:         chatPID,
		messageActor:      messagePID,
	}
}

// GetUserActor returns the PID of the user actor
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}

// GetRelationshipActor returns the PID of the relationship actor
func (e *Engine) GetRelationshipActor() *actor.PID {
	return e.relationshipActor
}

// GetInviteActor returns the PID of the invite actor
func (e *Engine) GetInviteActor() *actor.PID {
	return e.inviteActor
}

// GetChatActor returns the PID of the chat actor
func (e *Engine) GetChatActor() *actor.PID {
	return e.chatActor
}

// GetMessageActor returns the PID of the message actor
func (e *Engine) GetMessageActor() *actor.PID {
	return e.messageActor
}
