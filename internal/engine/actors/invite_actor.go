// internal/engine/actors/invite_actor.go
package actors

import (
	stdctx "context"
	"log/slog"
	"time"

	"chat-hive/internal/database"
	"chat-hive/internal/models"
	"chat-hive/internal/utils"
	"chat-hive/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for InviteActor
type (
	CreateInviteMsg struct {
		FromID  uuid.UUID
		ToID    uuid.UUID
		Kind    models.InviteKind
		GroupID *uuid.UUID
		Note    string
	}

	AcceptInviteMsg struct {
		InviteID uuid.UUID
		UserID   uuid.UUID
	}

	DeclineInviteMsg struct {
		InviteID uuid.UUID
		UserID   uuid.UUID
	}

	MarkInviteReadMsg struct {
		InviteID uuid.UUID
		UserID   uuid.UUID
	}

	ListInvitesMsg struct {
		UserID uuid.UUID
	}
)

// InviteListing is the response to ListInvitesMsg.
type InviteListing struct {
	Received []*models.Invite `json:"received"`
	Sent     []*models.Invite `json:"sent"`
}

// InviteActor owns the invite workflow: creation with duplicate
// collapsing, the pending → accepted/declined state machine, and the
// side effects an acceptance carries.
type InviteActor struct {
	store      database.Store
	dispatcher Dispatcher
	metrics    *utils.MetricsCollector
}

func NewInviteActor(store database.Store, dispatcher Dispatcher, metrics *utils.MetricsCollector) actor.Actor {
	return &InviteActor{store: store, dispatcher: dispatcher, metrics: metrics}
}

func (a *InviteActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *CreateInviteMsg:
		a.handleCreate(context, msg)
	case *AcceptInviteMsg:
		a.handleAccept(context, msg)
	case *DeclineInviteMsg:
		a.handleDecline(context, msg)
	case *MarkInviteReadMsg:
		a.handleMarkRead(context, msg)
	case *ListInvitesMsg:
		a.handleList(context, msg)
	}
}

func (a *InviteActor) notifyInvitesUpdated(userIDs ...uuid.UUID) {
	a.dispatcher.EmitToUsers(userIDs, websocket.EventInvitesUpdated, nil)
}

func (a *InviteActor) handleCreate(context actor.Context, msg *CreateInviteMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if !msg.Kind.Valid() {
		context.Respond(utils.NewInvalidInputError("unknown invite kind"))
		return
	}
	if msg.FromID == msg.ToID {
		context.Respond(utils.NewInvalidInputError("cannot invite yourself"))
		return
	}

	from, err := a.store.GetUser(ctx, msg.FromID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch sender"))
		return
	}
	to, err := a.store.GetUser(ctx, msg.ToID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to fetch recipient"))
		return
	}

	// A block in either direction rules out any invite.
	if from.HasBlocked(to.ID) || to.HasBlocked(from.ID) {
		context.Respond(utils.NewForbiddenError("cannot invite this user"))
		return
	}

	switch msg.Kind {
	case models.InviteGroup:
		if msg.GroupID == nil {
			context.Respond(utils.NewInvalidInputError("group invite requires a group"))
			return
		}
		chat, err := a.store.GetChat(ctx, *msg.GroupID)
		if err != nil {
			context.Respond(wrapStoreError(err, "Failed to fetch group"))
			return
		}
		if !chat.IsGroup {
			context.Respond(utils.NewInvalidInputError("invite target is not a group chat"))
			return
		}
		if !chat.HasAdmin(msg.FromID) {
			context.Respond(utils.NewForbiddenError("only group admins can invite members"))
			return
		}
		if chat.HasMember(msg.ToID) {
			context.Respond(utils.NewInvalidStateError("user is already a member of the group"))
			return
		}
	case models.InviteMessage:
		if msg.GroupID != nil {
			context.Respond(utils.NewInvalidInputError("message invite cannot reference a group"))
			return
		}
	}

	// A duplicate pending invite collapses onto the existing record.
	existing, err := a.store.FindPendingInvite(ctx, msg.FromID, msg.ToID, msg.Kind, msg.GroupID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to check pending invites"))
		return
	}
	if existing != nil {
		context.Respond(existing)
		return
	}

	now := time.Now()
	invite := &models.Invite{
		ID:        uuid.New(),
		Kind:      msg.Kind,
		FromID:    msg.FromID,
		ToID:      msg.ToID,
		GroupID:   msg.GroupID,
		Status:    models.InvitePending,
		Note:      msg.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := a.store.CreateInvite(ctx, invite); err != nil {
		context.Respond(wrapStoreError(err, "Failed to create invite"))
		return
	}

	slog.Info("Invite created",
		"inviteId", invite.ID,
		"kind", invite.Kind,
		"fromId", invite.FromID,
		"toId", invite.ToID)
	a.notifyInvitesUpdated(invite.FromID, invite.ToID)
	a.metrics.AddOperationLatency("create_invite", time.Since(startTime))
	context.Respond(invite)
}

// loadForRecipient fetches the invite and verifies the caller is its
// recipient. A foreign invite reads as NotFound so probing reveals
// nothing.
func (a *InviteActor) loadForRecipient(ctx stdctx.Context, inviteID, userID uuid.UUID) (*models.Invite, *utils.AppError) {
	invite, err := a.store.GetInvite(ctx, inviteID)
	if err != nil {
		return nil, wrapStoreError(err, "Failed to fetch invite")
	}
	if invite.ToID != userID {
		return nil, utils.NewNotFoundError("invite")
	}
	return invite, nil
}

func (a *InviteActor) resolve(context actor.Context, msg *AcceptInviteMsg, status models.InviteStatus) {
	ctx := stdctx.Background()

	invite, appErr := a.loadForRecipient(ctx, msg.InviteID, msg.UserID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}
	if !invite.Status.CanTransitionTo(status) {
		context.Respond(utils.NewInvalidStateError("invite is already " + string(invite.Status)))
		return
	}

	if status == models.InviteAccepted {
		switch invite.Kind {
		case models.InviteMessage:
			// Acceptance makes the pair friends, which lifts the
			// privacy gate in both directions.
			if err := a.store.AddFriendPair(ctx, invite.FromID, invite.ToID); err != nil {
				context.Respond(wrapStoreError(err, "Failed to add friendship"))
				return
			}
		case models.InviteGroup:
			if err := a.store.AddChatMember(ctx, *invite.GroupID, invite.ToID); err != nil {
				context.Respond(wrapStoreError(err, "Failed to join group"))
				return
			}
			if chat, err := a.store.GetChat(ctx, *invite.GroupID); err == nil {
				a.dispatcher.EmitToUsers(chat.Members, websocket.EventChatUpdated, chat)
			}
		}
	}

	if err := a.store.SetInviteStatus(ctx, invite.ID, status); err != nil {
		context.Respond(wrapStoreError(err, "Failed to update invite"))
		return
	}
	invite.Status = status
	invite.UpdatedAt = time.Now()

	slog.Info("Invite resolved", "inviteId", invite.ID, "status", status)
	a.notifyInvitesUpdated(invite.FromID, invite.ToID)
	context.Respond(invite)
}

func (a *InviteActor) handleAccept(context actor.Context, msg *AcceptInviteMsg) {
	a.resolve(context, msg, models.InviteAccepted)
}

func (a *InviteActor) handleDecline(context actor.Context, msg *DeclineInviteMsg) {
	a.resolve(context, &AcceptInviteMsg{InviteID: msg.InviteID, UserID: msg.UserID}, models.InviteDeclined)
}

func (a *InviteActor) handleMarkRead(context actor.Context, msg *MarkInviteReadMsg) {
	ctx := stdctx.Background()

	invite, appErr := a.loadForRecipient(ctx, msg.InviteID, msg.UserID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}
	if err := a.store.SetInviteRead(ctx, invite.ID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to mark invite read"))
		return
	}
	context.Respond(true)
}

func (a *InviteActor) handleList(context actor.Context, msg *ListInvitesMsg) {
	ctx := stdctx.Background()

	received, err := a.store.ListPendingReceived(ctx, msg.UserID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to list invites"))
		return
	}
	sent, err := a.store.ListPendingSent(ctx, msg.UserID)
	if err != nil {
		context.Respond(wrapStoreError(err, "Failed to list invites"))
		return
	}
	context.Respond(&InviteListing{Received: received, Sent: sent})
}
