// internal/engine/actors/chat_actor.go
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

// Message types for ChatActor
type (
	CreateDirectChatMsg struct {
		UserID  uuid.UUID
		OtherID uuid.UUID
	}

	CreateGroupChatMsg struct {
		CreatorID   uuid.UUID
		Name        string
		Description string
		MemberIDs   []uuid.UUID
	}

	GetChatMsg struct {
		ChatID uuid.UUID
		UserID uuid.UUID
	}

	ListChatsMsg struct {
		UserID uuid.UUID
	}

	RenameChatMsg struct {
		ChatID uuid.UUID
		UserID uuid.UUID
		Name   string
	}

	SetChatDescriptionMsg struct {
		ChatID      uuid.UUID
		UserID      uuid.UUID
		Description string
	}

	SetChatIconMsg struct {
		ChatID  uuid.UUID
		UserID  uuid.UUID
		IconURL string
	}

	AddChatMemberMsg struct {
		ChatID   uuid.UUID
		UserID   uuid.UUID
		MemberID uuid.UUID
	}

	RemoveChatMemberMsg struct {
		ChatID   uuid.UUID
		UserID   uuid.UUID
		MemberID uuid.UUID
	}

	PromoteAdminMsg struct {
		ChatID   uuid.UUID
		UserID   uuid.UUID
		MemberID uuid.UUID
	}

	DemoteAdminMsg struct {
		ChatID   uuid.UUID
		UserID   uuid.UUID
		MemberID uuid.UUID
	}

	LeaveChatMsg struct {
		ChatID uuid.UUID
		UserID uuid.UUID
	}

	MuteChatMsg struct {
		ChatID uuid.UUID
		UserID uuid.UUID
		Muted  bool
	}

	// ClearChatMsg hides the chat's current messages for one member
	// while keeping the chat on their list.
	ClearChatMsg struct {
		ChatID uuid.UUID
		UserID uuid.UUID
	}

	// DeleteChatForMeMsg removes the chat and its messages from one
	// member's view. A later message resurfaces the chat.
	DeleteChatForMeMsg struct {
		ChatID uuid.UUID
		UserID uuid.UUID
	}

	// DeleteGroupChatMsg hard-deletes a group and its messages for
	// everyone. Admin only.
	DeleteGroupChatMsg struct {
		ChatID uuid.UUID
		UserID uuid.UUID
	}
)

// ChatView pairs a chat with its latest message still visible to the
// viewer, the shape the conversation list renders from.
type ChatView struct {
	*models.Chat
	LatestMessage *models.Message `json:"latestMessage,omitempty"`
}

// ChatActor owns the conversation roster: direct find-or-create, group
// lifecycle, membership and admin rules, mute and per-viewer soft
// delete.
type ChatActor struct {
	store      database.Store
	dispatcher Dispatcher
	metrics    *utils.MetricsCollector
}

func NewChatActor(store database.Store, dispatcher Dispatcher, metrics *utils.MetricsCollector) actor.Actor {
	return &ChatActor{store: store, dispatcher: dispatcher, metrics: metrics}
}

func (a *ChatActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *CreateDirectChatMsg:
		a.handleCreateDirect(context, msg)
	case *CreateGroupChatMsg:
		a.handleCreateGroup(context, msg)
	case *GetChatMsg:
		a.handleGet(context, msg)
	case *ListChatsMsg:
		a.handleList(context, msg)
	case *RenameChatMsg:
		a.handleAdminEdit(context, msg.ChatID, msg.UserID, func(ctx stdctx.Context) error {
			return a.store.RenameChat(ctx, msg.ChatID, strings.TrimSpace(msg.Name))
		})
	case *SetChatDescriptionMsg:
		a.handleAdminEdit(context, msg.ChatID, msg.UserID, func(ctx stdctx.Context) error {
			return a.store.SetChatDescription(ctx, msg.ChatID, msg.Description)
		})
	case *SetChatIconMsg:
		a.handleAdminEdit(context, msg.ChatID, msg.UserID, func(ctx stdctx.Context) error {
			return a.store.SetChatIcon(ctx, msg.ChatID, msg.IconURL)
		})
	case *AddChatMemberMsg:
		a.handleAddMember(context, msg)
	case *RemoveChatMemberMsg:
		a.handleRemoveMember(context, msg)
	case *PromoteAdminMsg:
		a.handlePromoteAdmin(context, msg)
	case *DemoteAdminMsg:
		a.handleDemoteAdmin(context, msg)
	case *LeaveChatMsg:
		a.handleLeave(context, msg)
	case *MuteChatMsg:
		a.handleMute(context, msg)
	case *ClearChatMsg:
		a.handleClear(context, msg)
	case *DeleteChatForMeMsg:
		a.handleDeleteForMe(context, msg)
	case *DeleteGroupChatMsg:
		a.handleDeleteGroup(context, msg)
	}
}

func (a *ChatActor) handleCreateDirect(context actor.Context, msg *CreateDirectChatMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if msg.UserID == msg.OtherID {
		context.Respond(utils.NewInvalidInputError("cannot open a chat with yourself"))
		return
	}

	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch user"))
		return
	}
	other, err := a.store.GetUser(ctx, msg.OtherID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch user"))
		return
	}

	// Opening a direct chat is gated the same way sending is, so a
	// private peer surfaces the invite requirement up front.
	if appErr := evaluateCanMessage(user, other); appErr != nil {
		context.Respond(appErr)
		return
	}

	chat, err := a.store.FindOrCreateDirectChat(ctx, msg.UserID, msg.OtherID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to open direct chat"))
		return
	}

	// Re-opening a chat the caller had deleted brings it back for them
	// only; the other member's soft delete stands until a new message.
	if chat.IsDeletedFor(msg.UserID) {
		if err := a.store.ClearChatDeletionFor(ctx, chat.ID, msg.UserID); err != nil {
			slog.Warn("Failed to resurface direct chat", "chatId", chat.ID, "error", err)
		} else {
			chat.DeletedBy = pullFromSet(chat.DeletedBy, msg.UserID)
		}
	}

	a.metrics.AddOperationLatency("create_direct_chat", time.Since(startTime))
	context.Respond(chat)
}

func (a *ChatActor) handleCreateGroup(context actor.Context, msg *CreateGroupChatMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	name := strings.TrimSpace(msg.Name)
	if name == "" {
		context.Respond(utils.NewInvalidInputError("group name is required"))
		return
	}

	members := []uuid.UUID{msg.CreatorID}
	for _, id := range msg.MemberIDs {
		if id == msg.CreatorID {
			continue
		}
		if _, err := a.store.GetUser(ctx, id); err != nil {
			context.Respond(wrapStoreError(err, "Failed to fetch member"))
			return
		}
		members = addToSet(members, id)
	}

	now := time.Now()
	chat := &models.Chat{
		ID:          uuid.New(),
		Name:        name,
		Description: msg.Description,
		IsGroup:     true,
		CreatorID:   msg.CreatorID,
		Members:     members,
		Admins:      []uuid.UUID{msg.CreatorID},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := a.store.CreateChat(ctx, chat); err != nil {
		context.Respond(wrapStoreError(err, "Failed to create group"))
		return
	}

	slog.Info("Group created", "chatId", chat.ID, "creatorId", msg.CreatorID, "members", len(members))
	a.dispatcher.EmitToUsers(chat.MembersExcept(msg.CreatorID), websocket.EventChatUpdated, chat)
	a.metrics.AddOperationLatency("create_group_chat", time.Since(startTime))
	context.Respond(chat)
}

// loadForMember fetches the chat and verifies the caller belongs to it.
func (a *ChatActor) loadForMember(ctx stdctx.Context, chatID, userID uuid.UUID) (*models.Chat, *utils.AppError) {
	chat, err := a.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, wrapStoreError(err, "Failed to fetch chat")
	}
	if !chat.HasMember(userID) {
		return nil, utils.NewForbiddenError("not a member of this chat")
	}
	return chat, nil
}

// loadForAdmin additionally requires a group chat and admin role.
func (a *ChatActor) loadForAdmin(ctx stdctx.Context, chatID, userID uuid.UUID) (*models.Chat, *utils.AppError) {
	chat, appErr := a.loadForMember(ctx, chatID, userID)
	if appErr != nil {
		return nil, appErr
	}
	if !chat.IsGroup {
		return nil, utils.NewInvalidStateError("direct chats have no settings to manage")
	}
	if !chat.HasAdmin(userID) {
		return nil, utils.NewForbiddenError("admin role required")
	}
	return chat, nil
}

func (a *ChatActor) handleGet(context actor.Context, msg *GetChatMsg) {
	chat, appErr := a.loadForMember(stdctx.Background(), msg.ChatID, msg.UserID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}
	context.Respond(chat)
}

func (a *ChatActor) handleList(context actor.Context, msg *ListChatsMsg) {
	ctx := stdctx.Background()

	chats, err := a.store.ListChatsFor(ctx, msg.UserID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to list chats"))
		return
	}

	views := make([]*ChatView, 0, len(chats))
	for _, chat := range chats {
		view := &ChatView{Chat: chat}
		if chat.LatestMessageID != nil {
			// The pointer may name a message this viewer soft-deleted
			// or the sender removed; the listing just goes without.
			if latest, err := a.store.GetMessage(ctx, *chat.LatestMessageID); err == nil && !latest.IsDeletedFor(msg.UserID) {
				view.LatestMessage = latest
			}
		}
		views = append(views, view)
	}
	context.Respond(views)
}

// handleAdminEdit runs an admin-gated settings mutation and notifies the
// members of the refreshed chat.
func (a *ChatActor) handleAdminEdit(context actor.Context, chatID, userID uuid.UUID, mutate func(stdctx.Context) error) {
	ctx := stdctx.Background()

	if _, appErr := a.loadForAdmin(ctx, chatID, userID); appErr != nil {
		context.Respond(appErr)
		return
	}
	if err := mutate(ctx); err != nil {
		context.Respond(wrapStoreError(err, "Failed to update chat"))
		return
	}
	a.notifyChatUpdated(ctx, chatID)
	context.Respond(true)
}

func (a *ChatActor) notifyChatUpdated(ctx stdctx.Context, chatID uuid.UUID) {
	chat, err := a.store.GetChat(ctx, chatID)
	if err != nil {
		return
	}
	a.dispatcher.EmitToUsers(chat.Members, websocket.EventChatUpdated, chat)
}

func (a *ChatActor) handleAddMember(context actor.Context, msg *AddChatMemberMsg) {
	ctx := stdctx.Background()

	chat, appErr := a.loadForAdmin(ctx, msg.ChatID, msg.UserID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}
	if chat.HasMember(msg.MemberID) {
		context.Respond(utils.NewInvalidStateError("user is already a member"))
		return
	}
	if _, err := a.store.GetUser(ctx, msg.MemberID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch member"))
		return
	}
	if err := a.store.AddChatMember(ctx, msg.ChatID, msg.MemberID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to add member"))
		return
	}
	slog.Info("Member added", "chatId", msg.ChatID, "memberId", msg.MemberID, "byId", msg.UserID)
	a.notifyChatUpdated(ctx, msg.ChatID)
	context.Respond(true)
}

func (a *ChatActor) handleRemoveMember(context actor.Context, msg *RemoveChatMemberMsg) {
	ctx := stdctx.Background()

	chat, appErr := a.loadForAdmin(ctx, msg.ChatID, msg.UserID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}
	if !chat.HasMember(msg.MemberID) {
		context.Respond(utils.NewNotFoundError("member"))
		return
	}
	if err := a.store.RemoveChatMember(ctx, msg.ChatID, msg.MemberID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to remove member"))
		return
	}
	a.deactivateIfAdminless(ctx, msg.ChatID)

	slog.Info("Member removed", "chatId", msg.ChatID, "memberId", msg.MemberID, "byId", msg.UserID)
	a.dispatcher.EmitToUser(msg.MemberID, websocket.EventChatDeleted, map[string]string{
		"chatId": msg.ChatID.String(),
	})
	a.notifyChatUpdated(ctx, msg.ChatID)
	context.Respond(true)
}

// deactivateIfAdminless flips the group inactive when its admin set has
// emptied. Members are kept; the group becomes a read-only archive.
func (a *ChatActor) deactivateIfAdminless(ctx stdctx.Context, chatID uuid.UUID) {
	chat, err := a.store.GetChat(ctx, chatID)
	if err != nil || !chat.IsGroup || len(chat.Admins) > 0 || !chat.IsActive {
		return
	}
	if err := a.store.SetChatActive(ctx, chatID, false); err != nil {
		slog.Error("Failed to deactivate adminless group", "chatId", chatID, "error", err)
		return
	}
	slog.Warn("Group lost its last admin and was deactivated", "chatId", chatID)
}

func (a *ChatActor) handlePromoteAdmin(context actor.Context, msg *PromoteAdminMsg) {
	ctx := stdctx.Background()

	chat, appErr := a.loadForAdmin(ctx, msg.ChatID, msg.UserID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}
	if !chat.HasMember(msg.MemberID) {
		context.Respond(utils.NewNotFoundError("member"))
		return
	}
	if err := a.store.AddChatAdmin(ctx, msg.ChatID, msg.MemberID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to promote admin"))
		return
	}
	a.notifyChatUpdated(ctx, msg.ChatID)
	context.Respond(true)
}

func (a *ChatActor) handleDemoteAdmin(context actor.Context, msg *DemoteAdminMsg) {
	ctx := stdctx.Background()

	chat, appErr := a.loadForAdmin(ctx, msg.ChatID, msg.UserID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}
	if !chat.HasAdmin(msg.MemberID) {
		context.Respond(utils.NewNotFoundError("admin"))
		return
	}
	if err := a.store.RemoveChatAdmin(ctx, msg.ChatID, msg.MemberID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to demote admin"))
		return
	}
	a.deactivateIfAdminless(ctx, msg.ChatID)
	a.notifyChatUpdated(ctx, msg.ChatID)
	context.Respond(true)
}

func (a *ChatActor) handleLeave(context actor.Context, msg *LeaveChatMsg) {
	ctx := stdctx.Background()

	chat, appErr := a.loadForMember(ctx, msg.ChatID, msg.UserID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}

	if !chat.IsGroup {
		// Leaving a direct chat just hides it for the caller.
		if err := a.store.SoftDeleteChatFor(ctx, msg.ChatID, msg.UserID); err != nil {
			context.Respond(wrapStoreError(err, "Failed to leave chat"))
			return
		}
		context.Respond(true)
		return
	}

	if err := a.store.RemoveChatMember(ctx, msg.ChatID, msg.UserID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to leave chat"))
		return
	}
	a.deactivateIfAdminless(ctx, msg.ChatID)

	slog.Info("Member left group", "chatId", msg.ChatID, "userId", msg.UserID)
	a.notifyChatUpdated(ctx, msg.ChatID)
	context.Respond(true)
}

func (a *ChatActor) handleMute(context actor.Context, msg *MuteChatMsg) {
	ctx := stdctx.Background()

	if _, appErr := a.loadForMember(ctx, msg.ChatID, msg.UserID); appErr != nil {
		context.Respond(appErr)
		return
	}
	if err := a.store.SetChatMuted(ctx, msg.ChatID, msg.UserID, msg.Muted); err != nil {
		context.Respond(wrapStoreError(err, "Failed to update mute"))
		return
	}
	context.Respond(true)
}

func (a *ChatActor) handleClear(context actor.Context, msg *ClearChatMsg) {
	ctx := stdctx.Background()

	if _, appErr := a.loadForMember(ctx, msg.ChatID, msg.UserID); appErr != nil {
		context.Respond(appErr)
		return
	}
	if err := a.store.SoftDeleteMessagesFor(ctx, msg.ChatID, msg.UserID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to clear chat"))
		return
	}
	context.Respond(true)
}

func (a *ChatActor) handleDeleteForMe(context actor.Context, msg *DeleteChatForMeMsg) {
	ctx := stdctx.Background()

	if _, appErr := a.loadForMember(ctx, msg.ChatID, msg.UserID); appErr != nil {
		context.Respond(appErr)
		return
	}
	if err := a.store.SoftDeleteMessagesFor(ctx, msg.ChatID, msg.UserID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to delete chat"))
		return
	}
	if err := a.store.SoftDeleteChatFor(ctx, msg.ChatID, msg.UserID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to delete chat"))
		return
	}
	context.Respond(true)
}

func (a *ChatActor) handleDeleteGroup(context actor.Context, msg *DeleteGroupChatMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	chat, appErr := a.loadForAdmin(ctx, msg.ChatID, msg.UserID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}

	if err := a.store.DeleteChatMessages(ctx, msg.ChatID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to delete group messages"))
		return
	}
	if err := a.store.DeleteChat(ctx, msg.ChatID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to delete group"))
		return
	}

	slog.Info("Group deleted", "chatId", msg.ChatID, "byId", msg.UserID)
	a.dispatcher.EmitToUsers(chat.Members, websocket.EventChatDeleted, map[string]string{
		"chatId": msg.ChatID.String(),
	})
	a.metrics.AddOperationLatency("delete_group_chat", time.Since(startTime))
	context.Respond(true)
}

func addToSet(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func pullFromSet(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
