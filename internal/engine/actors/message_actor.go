// internal/engine/actors/message_actor.go
package actors

import (
	stdctx "context"
	"log/slog"
	"strings"
	"time"

	"chat-hive/internal/database"
	"chat-hive/internal/models"
	"chat-hive/internal/utils"
	"chat-hive/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for MessageActor
type (
	SendMessageMsg struct {
		SenderID    uuid.UUID
		ChatID      uuid.UUID
		Content     string
		Attachments []models.Attachment
	}

	ListMessagesMsg struct {
		ChatID uuid.UUID
		UserID uuid.UUID
	}

	MarkChatReadMsg struct {
		ChatID uuid.UUID
		UserID uuid.UUID
	}

	DeleteOwnMessageMsg struct {
		MessageID uuid.UUID
		UserID    uuid.UUID
	}
)

// MarkReadResult reports how many messages a read sweep touched.
type MarkReadResult struct {
	Updated int64 `json:"updated"`
}

// MessageActor owns the delivery pipeline: relationship and membership
// gates, persistence, the resurfacing rule, and realtime fan-out.
type MessageActor struct {
	store      database.Store
	dispatcher Dispatcher
	metrics    *utils.MetricsCollector
}

func NewMessageActor(store database.Store, dispatcher Dispatcher, metrics *utils.MetricsCollector) actor.Actor {
	return &MessageActor{store: store, dispatcher: dispatcher, metrics: metrics}
}

func (a *MessageActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *SendMessageMsg:
		a.handleSend(context, msg)
	case *ListMessagesMsg:
		a.handleList(context, msg)
	case *MarkChatReadMsg:
		a.handleMarkRead(context, msg)
	case *DeleteOwnMessageMsg:
		a.handleDeleteOwn(context, msg)
	}
}

func (a *MessageActor) handleSend(context actor.Context, msg *SendMessageMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	chat, err := a.store.GetChat(ctx, msg.ChatID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch chat"))
		return
	}
	if !chat.HasMember(msg.SenderID) {
		context.Respond(utils.NewForbiddenError("not a member of this chat"))
		return
	}
	if !chat.IsActive {
		context.Respond(utils.NewInvalidStateError("chat is archived"))
		return
	}

	sender, err := a.store.GetUser(ctx, msg.SenderID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch sender"))
		return
	}

	// Direct chats re-check the relationship on every send: a block or
	// a privacy change after the chat was opened still stops delivery.
	if !chat.IsGroup {
		other, err := a.store.GetUser(ctx, chat.OtherMember(msg.SenderID))
		if err != nil {
			context.Respond(wrapStoreError(err, "Failed to fetch recipient"))
			return
		}
		if appErr := evaluateCanMessage(sender, other); appErr != nil {
			context.Respond(appErr)
			return
		}
	}

	message := &models.Message{
		ID:          uuid.New(),
		ChatID:      chat.ID,
		SenderID:    msg.SenderID,
		Content:     strings.TrimSpace(msg.Content),
		Attachments: msg.Attachments,
		CreatedAt:   time.Now(),
	}
	if message.IsEmpty() {
		context.Respond(utils.NewInvalidInputError("message needs content or attachments"))
		return
	}
	for _, attachment := range message.Attachments {
		if !attachment.Kind.Valid() {
			context.Respond(utils.NewInvalidInputError("unknown attachment kind"))
			return
		}
	}

	if err := a.store.SaveMessage(ctx, message); err != nil {
		context.Respond(wrapStoreError(err, "Failed to save message"))
		return
	}

	// Everything after persistence is best effort: the message exists
	// even if bookkeeping or fan-out fails.
	if err := a.store.SetLatestMessage(ctx, chat.ID, message.ID); err != nil {
		slog.Warn("Failed to update latest message pointer", "chatId", chat.ID, "error", err)
	}
	// A new message resurfaces the chat for every member who had
	// deleted it.
	if len(chat.DeletedBy) > 0 {
		if err := a.store.ClearChatDeletions(ctx, chat.ID); err != nil {
			slog.Warn("Failed to resurface chat", "chatId", chat.ID, "error", err)
		}
	}

	// Every member gets the alert, muted or not; mute lives on the chat
	// document and notification suppression is the client's job.
	payload := message.Payload(sender.Summary())
	a.dispatcher.EmitToRoom(chat.ID, websocket.EventNewMessage, payload)
	a.dispatcher.EmitToUsers(chat.MembersExcept(msg.SenderID), websocket.EventNewMessageAlert, payload)

	a.metrics.AddOperationLatency("send_message", time.Since(startTime))
	context.Respond(payload)
}

func (a *MessageActor) handleList(context actor.Context, msg *ListMessagesMsg) {
	ctx := stdctx.Background()

	chat, err := a.store.GetChat(ctx, msg.ChatID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch chat"))
		return
	}
	if !chat.HasMember(msg.UserID) {
		context.Respond(utils.NewForbiddenError("not a member of this chat"))
		return
	}

	messages, err := a.store.ListMessagesFor(ctx, msg.ChatID, msg.UserID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to list messages"))
		return
	}

	// Resolve each distinct sender once.
	summaries := make(map[uuid.UUID]models.Summary)
	payloads := make([]*models.MessagePayload, 0, len(messages))
	for _, message := range messages {
		summary, ok := summaries[message.SenderID]
		if !ok {
			if sender, err := a.store.GetUser(ctx, message.SenderID); err == nil {
				summary = sender.Summary()
			} else {
				summary = models.Summary{ID: message.SenderID}
			}
			summaries[message.SenderID] = summary
		}
		payloads = append(payloads, message.Payload(summary))
	}
	context.Respond(payloads)
}

func (a *MessageActor) handleMarkRead(context actor.Context, msg *MarkChatReadMsg) {
	ctx := stdctx.Background()

	chat, err := a.store.GetChat(ctx, msg.ChatID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch chat"))
		return
	}
	if !chat.HasMember(msg.UserID) {
		context.Respond(utils.NewForbiddenError("not a member of this chat"))
		return
	}

	updated, err := a.store.MarkMessagesRead(ctx, msg.ChatID, msg.UserID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to mark messages read"))
		return
	}
	if updated > 0 {
		a.dispatcher.EmitToRoom(chat.ID, websocket.EventMessageRead, map[string]string{
			"chatId": chat.ID.String(),
			"userId": msg.UserID.String(),
		})
	}
	context.Respond(&MarkReadResult{Updated: updated})
}

func (a *MessageActor) handleDeleteOwn(context actor.Context, msg *DeleteOwnMessageMsg) {
	ctx := stdctx.Background()

	message, err := a.store.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch message"))
		return
	}
	if message.SenderID != msg.UserID {
		context.Respond(utils.NewForbiddenError("only the sender can delete a message"))
		return
	}
	if err := a.store.DeleteMessage(ctx, msg.MessageID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to delete message"))
		return
	}

	slog.Info("Message deleted", "messageId", msg.MessageID, "userId", msg.UserID)
	a.dispatcher.EmitToRoom(message.ChatID, websocket.EventChatUpdated, map[string]string{
		"chatId":    message.ChatID.String(),
		"messageId": msg.MessageID.String(),
	})
	context.Respond(true)
}
