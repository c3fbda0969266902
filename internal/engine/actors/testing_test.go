package actors

import (
	"context"
	"sync"
	"testing"
	"time"

	"chat-hive/internal/database"
	"chat-hive/internal/models"
	"chat-hive/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// recordedEvent captures one dispatcher emission for assertions.
type recordedEvent struct {
	Event string
	Data  interface{}
	Users []uuid.UUID
	Room  uuid.UUID
}

// recordingDispatcher is the Dispatcher fake the actor tests observe
// fan-out through.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (d *recordingDispatcher) EmitToUser(userID uuid.UUID, event string, data interface{}) {
	d.record(recordedEvent{Event: event, Data: data, Users: []uuid.UUID{userID}})
}

func (d *recordingDispatcher) EmitToUsers(userIDs []uuid.UUID, event string, data interface{}) {
	d.record(recordedEvent{Event: event, Data: data, Users: userIDs})
}

func (d *recordingDispatcher) EmitToRoom(chatID uuid.UUID, event string, data interface{}) {
	d.record(recordedEvent{Event: event, Data: data, Room: chatID})
}

func (d *recordingDispatcher) Broadcast(event string, data interface{}) {
	d.record(recordedEvent{Event: event, Data: data})
}

func (d *recordingDispatcher) record(e recordedEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

func (d *recordingDispatcher) named(event string) []recordedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []recordedEvent
	for _, e := range d.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// testEnv spawns the full actor set against a memory store.
type testEnv struct {
	t          *testing.T
	system     *actor.ActorSystem
	store      *database.MemoryStore
	dispatcher *recordingDispatcher

	users         *actor.PID
	relationships *actor.PID
	invites       *actor.PID
	chats         *actor.PID
	messages      *actor.PID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	system := actor.NewActorSystem()
	store := database.NewMemoryStore()
	dispatcher := &recordingDispatcher{}
	metrics := utils.NewMetricsCollector()

	spawn := func(producer func() actor.Actor) *actor.PID {
		return system.Root.Spawn(actor.PropsFromProducer(producer))
	}

	return &testEnv{
		t:          t,
		system:     system,
		store:      store,
		dispatcher: dispatcher,
		users: spawn(func() actor.Actor {
			return NewUserActor(store, metrics)
		}),
		relationships: spawn(func() actor.Actor {
			return NewRelationshipActor(store, dispatcher, metrics)
		}),
		invites: spawn(func() actor.Actor {
			return NewInviteActor(store, dispatcher, metrics)
		}),
		chats: spawn(func() actor.Actor {
			return NewChatActor(store, dispatcher, metrics)
		}),
		messages: spawn(func() actor.Actor {
			return NewMessageActor(store, dispatcher, metrics)
		}),
	}
}

// ask sends msg and returns the raw response; transport failures abort
// the test.
func (e *testEnv) ask(pid *actor.PID, msg interface{}) interface{} {
	e.t.Helper()
	future := e.system.Root.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	if err != nil {
		e.t.Fatalf("actor request failed: %v", err)
	}
	return result
}

// askErr sends msg and requires an AppError response.
func (e *testEnv) askErr(pid *actor.PID, msg interface{}) *utils.AppError {
	e.t.Helper()
	result := e.ask(pid, msg)
	appErr, ok := result.(*utils.AppError)
	if !ok {
		e.t.Fatalf("expected AppError, got %T", result)
	}
	return appErr
}

// seedUser writes a user straight into the store, bypassing the
// registration flow.
func (e *testEnv) seedUser(username string) *models.User {
	e.t.Helper()
	user := &models.User{
		ID:         uuid.New(),
		Username:   username,
		Name:       username,
		Email:      username + "@test.com",
		Visibility: models.VisibilityPublic,
		CreatedAt:  time.Now(),
	}
	if err := e.store.SaveUser(context.Background(), user); err != nil {
		e.t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// freshUser re-reads a user so assertions see current store state.
func (e *testEnv) freshUser(id uuid.UUID) *models.User {
	e.t.Helper()
	user, err := e.store.GetUser(context.Background(), id)
	if err != nil {
		e.t.Fatalf("failed to reload user: %v", err)
	}
	return user
}

// freshChat re-reads a chat from the store.
func (e *testEnv) freshChat(id uuid.UUID) *models.Chat {
	e.t.Helper()
	chat, err := e.store.GetChat(context.Background(), id)
	if err != nil {
		e.t.Fatalf("failed to reload chat: %v", err)
	}
	return chat
}
