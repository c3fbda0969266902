package actors

import (
	"testing"

	"chat-hive/internal/models"
	"chat-hive/internal/utils"
	"chat-hive/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func (e *testEnv) sendMessage(senderID, chatID uuid.UUID, content string) *models.MessagePayload {
	e.t.Helper()
	result := e.ask(e.messages, &SendMessageMsg{SenderID: senderID, ChatID: chatID, Content: content})
	payload, ok := result.(*models.MessagePayload)
	if !ok {
		e.t.Fatalf("expected *models.MessagePayload, got %T", result)
	}
	return payload
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")
	chat := env.createDirectChat(alice.ID, bob.ID)

	payload := env.sendMessage(alice.ID, chat.ID, "  hello bob  ")

	assert.Equal(t, "hello bob", payload.Content)
	assert.Equal(t, chat.ID, payload.ChatID)
	assert.Equal(t, alice.ID, payload.Sender.ID)
	assert.Equal(t, "alice", payload.Sender.Username)

	// The chat's latest-message pointer followed the send.
	fresh := env.freshChat(chat.ID)
	if assert.NotNil(t, fresh.LatestMessageID) {
		assert.Equal(t, payload.ID, *fresh.LatestMessageID)
	}

	// Room delivery plus the out-of-room alert for the other member.
	roomEvents := env.dispatcher.named(websocket.EventNewMessage)
	assert.Len(t, roomEvents, 1)
	assert.Equal(t, chat.ID, roomEvents[0].Room)
	alerts := env.dispatcher.named(websocket.EventNewMessageAlert)
	assert.Len(t, alerts, 1)
	assert.Equal(t, []uuid.UUID{bob.ID}, alerts[0].Users)
}

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")
	outsider := env.seedUser("outsider")
	chat := env.createDirectChat(alice.ID, bob.ID)

	appErr := env.askErr(env.messages, &SendMessageMsg{SenderID: outsider.ID, ChatID: chat.ID, Content: "hi"})
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	appErr = env.askErr(env.messages, &SendMessageMsg{SenderID: alice.ID, ChatID: chat.ID, Content: "   "})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	appErr = env.askErr(env.messages, &SendMessageMsg{
		SenderID: alice.ID,
		ChatID:   chat.ID,
		Attachments: []models.Attachment{
			{Kind: "hologram", URL: "https://cdn.test/x"},
		},
	})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	// An attachment alone carries the message.
	result := env.ask(env.messages, &SendMessageMsg{
		SenderID: alice.ID,
		ChatID:   chat.ID,
		Attachments: []models.Attachment{
			{Kind: models.AttachmentImage, URL: "https://cdn.test/pic.png"},
		},
	})
	payload, ok := result.(*models.MessagePayload)
	if !ok {
		t.Fatalf("expected *models.MessagePayload, got %T", result)
	}
	assert.Len(t, payload.Attachments, 1)
}

func TestSendRechecksRelationshipEveryTime(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")
	chat := env.createDirectChat(alice.ID, bob.ID)
	env.sendMessage(alice.ID, chat.ID, "first")

	// Step 1: A block after the chat was opened stops delivery
	env.ask(env.relationships, &BlockUserMsg{UserID: bob.ID, TargetID: alice.ID})
	appErr := env.askErr(env.messages, &SendMessageMsg{SenderID: alice.ID, ChatID: chat.ID, Content: "still there?"})
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// Step 2: Going private mid-conversation re-raises the invite gate
	env.ask(env.relationships, &UnblockUserMsg{UserID: bob.ID, TargetID: alice.ID})
	env.ask(env.users, &SetVisibilityMsg{UserID: bob.ID, Visibility: models.VisibilityPrivate})
	appErr = env.askErr(env.messages, &SendMessageMsg{SenderID: alice.ID, ChatID: chat.ID, Content: "hello?"})
	assert.Equal(t, utils.ErrRequiresInvite, appErr.Code)
	assert.Equal(t, bob.ID, appErr.Target)
}

func TestSendResurfacesDeletedChat(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")
	chat := env.createDirectChat(alice.ID, bob.ID)

	env.sendMessage(alice.ID, chat.ID, "before the delete")
	env.ask(env.chats, &DeleteChatForMeMsg{ChatID: chat.ID, UserID: bob.ID})
	assert.True(t, env.freshChat(chat.ID).IsDeletedFor(bob.ID))

	env.sendMessage(alice.ID, chat.ID, "knock knock")

	// The chat is back on Bob's list, but messages he deleted stay gone.
	assert.False(t, env.freshChat(chat.ID).IsDeletedFor(bob.ID))
	result := env.ask(env.messages, &ListMessagesMsg{ChatID: chat.ID, UserID: bob.ID})
	payloads, ok := result.([]*models.MessagePayload)
	if !ok {
		t.Fatalf("expected []*models.MessagePayload, got %T", result)
	}
	assert.Len(t, payloads, 1)
	assert.Equal(t, "knock knock", payloads[0].Content)
}

func TestMuteDoesNotStopDelivery(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser("admin")
	member := env.seedUser("member")
	muter := env.seedUser("muter")

	group := env.createGroupChat(admin.ID, "book club", member.ID, muter.ID)
	env.ask(env.chats, &MuteChatMsg{ChatID: group.ID, UserID: muter.ID, Muted: true})

	env.sendMessage(admin.ID, group.ID, "meeting moved to friday")

	// The muted member still receives the message event; their client
	// reads mutedBy off the chat and suppresses the notification.
	alerts := env.dispatcher.named(websocket.EventNewMessageAlert)
	assert.Len(t, alerts, 1)
	assert.ElementsMatch(t, []uuid.UUID{member.ID, muter.ID}, alerts[0].Users)
	assert.True(t, env.freshChat(group.ID).IsMutedBy(muter.ID))
}

func TestListMessagesOrderAndAccess(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")
	outsider := env.seedUser("outsider")
	chat := env.createDirectChat(alice.ID, bob.ID)

	env.sendMessage(alice.ID, chat.ID, "one")
	env.sendMessage(bob.ID, chat.ID, "two")
	env.sendMessage(alice.ID, chat.ID, "three")

	result := env.ask(env.messages, &ListMessagesMsg{ChatID: chat.ID, UserID: bob.ID})
	payloads, ok := result.([]*models.MessagePayload)
	if !ok {
		t.Fatalf("expected []*models.MessagePayload, got %T", result)
	}
	assert.Len(t, payloads, 3)
	assert.Equal(t, "one", payloads[0].Content)
	assert.Equal(t, "two", payloads[1].Content)
	assert.Equal(t, "three", payloads[2].Content)
	assert.Equal(t, "alice", payloads[0].Sender.Username)
	assert.Equal(t, "bob", payloads[1].Sender.Username)

	appErr := env.askErr(env.messages, &ListMessagesMsg{ChatID: chat.ID, UserID: outsider.ID})
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
}

func TestMarkChatRead(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")
	chat := env.createDirectChat(alice.ID, bob.ID)

	env.sendMessage(alice.ID, chat.ID, "one")
	env.sendMessage(alice.ID, chat.ID, "two")
	env.sendMessage(bob.ID, chat.ID, "reply")

	// Step 1: Bob's sweep covers Alice's two messages, never his own
	result := env.ask(env.messages, &MarkChatReadMsg{ChatID: chat.ID, UserID: bob.ID})
	marked, ok := result.(*MarkReadResult)
	if !ok {
		t.Fatalf("expected *MarkReadResult, got %T", result)
	}
	assert.Equal(t, int64(2), marked.Updated)
	assert.Len(t, env.dispatcher.named(websocket.EventMessageRead), 1)

	// Step 2: Repeating the sweep touches nothing and stays silent
	result = env.ask(env.messages, &MarkChatReadMsg{ChatID: chat.ID, UserID: bob.ID})
	marked = result.(*MarkReadResult)
	assert.Equal(t, int64(0), marked.Updated)
	assert.Len(t, env.dispatcher.named(websocket.EventMessageRead), 1)
}

func TestDeleteOwnMessage(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")
	chat := env.createDirectChat(alice.ID, bob.ID)

	payload := env.sendMessage(alice.ID, chat.ID, "typo everywhere")

	appErr := env.askErr(env.messages, &DeleteOwnMessageMsg{MessageID: payload.ID, UserID: bob.ID})
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	result := env.ask(env.messages, &DeleteOwnMessageMsg{MessageID: payload.ID, UserID: alice.ID})
	assert.Equal(t, true, result)

	// Gone for both members.
	listed := env.ask(env.messages, &ListMessagesMsg{ChatID: chat.ID, UserID: bob.ID})
	assert.Empty(t, listed.([]*models.MessagePayload))
}
