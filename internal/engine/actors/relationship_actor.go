// internal/engine/actors/relationship_actor.go
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

// Message types for RelationshipActor
type (
	BlockUserMsg struct {
		UserID   uuid.UUID
		TargetID uuid.UUID
	}

	UnblockUserMsg struct {
		UserID   uuid.UUID
		TargetID uuid.UUID
	}

	AddFriendMsg struct {
		UserID   uuid.UUID
		TargetID uuid.UUID
	}

	RemoveFriendMsg struct {
		UserID   uuid.UUID
		TargetID uuid.UUID
	}

	CanMessageMsg struct {
		SenderID    uuid.UUID
		RecipientID uuid.UUID
	}
)

// RelationshipActor owns the social graph: friendship, blocking and the
// gate deciding whether one user may open a direct conversation with
// another.
type RelationshipActor struct {
	store      database.Store
	dispatcher Dispatcher
	metrics    *utils.MetricsCollector
}

func NewRelationshipActor(store database.Store, dispatcher Dispatcher, metrics *utils.MetricsCollector) actor.Actor {
	return &RelationshipActor{store: store, dispatcher: dispatcher, metrics: metrics}
}

// evaluateCanMessage decides whether sender may message recipient
// directly. A block in either direction hides behind Forbidden; a
// private recipient who has not friended the sender yields the
// REQUIRES_INVITE soft failure carrying the recipient's identity.
// Group conversations never reach this check; membership covers them.
func evaluateCanMessage(sender, recipient *models.User) *utils.AppError {
	if sender.HasBlocked(recipient.ID) || recipient.HasBlocked(sender.ID) {
		return utils.NewForbiddenError("messaging is not available between these users")
	}
	if recipient.Visibility == models.VisibilityPrivate && !recipient.IsFriend(sender.ID) {
		return utils.NewRequiresInviteError(recipient.ID)
	}
	return nil
}

func (a *RelationshipActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *BlockUserMsg:
		a.handleBlock(context, msg)
	case *UnblockUserMsg:
		a.handleUnblock(context, msg)
	case *AddFriendMsg:
		a.handleAddFriend(context, msg)
	case *RemoveFriendMsg:
		a.handleRemoveFriend(context, msg)
	case *CanMessageMsg:
		a.handleCanMessage(context, msg)
	}
}

// loadPair fetches both sides of a relationship operation, rejecting
// self-targeting first.
func (a *RelationshipActor) loadPair(ctx stdctx.Context, userID, targetID uuid.UUID) (*models.User, *models.User, *utils.AppError) {
	if userID == targetID {
		return nil, nil, utils.NewInvalidInputError("cannot target yourself")
	}
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, wrapStoreError(err, "Failed to fetch user")
	}
	target, err := a.store.GetUser(ctx, targetID)
	if err != nil {
		return nil, nil, wrapStoreError(err, "Failed to fetch user")
	}
	return user, target, nil
}

func (a *RelationshipActor) handleBlock(context actor.Context, msg *BlockUserMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if _, _, appErr := a.loadPair(ctx, msg.UserID, msg.TargetID); appErr != nil {
		context.Respond(appErr)
		return
	}

	// Blocking leaves the friend lists alone so an unblock restores
	// messaging without re-friending.
	if err := a.store.BlockUser(ctx, msg.UserID, msg.TargetID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to block user"))
		return
	}

	slog.Info("User blocked", "userId", msg.UserID, "targetId", msg.TargetID)
	a.dispatcher.EmitToUser(msg.TargetID, websocket.EventUserBlocked, map[string]string{
		"userId": msg.UserID.String(),
	})
	a.metrics.AddOperationLatency("block_user", time.Since(startTime))
	context.Respond(true)
}

func (a *RelationshipActor) handleUnblock(context actor.Context, msg *UnblockUserMsg) {
	ctx := stdctx.Background()

	if _, _, appErr := a.loadPair(ctx, msg.UserID, msg.TargetID); appErr != nil {
		context.Respond(appErr)
		return
	}

	if err := a.store.UnblockUser(ctx, msg.UserID, msg.TargetID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to unblock user"))
		return
	}

	slog.Info("User unblocked", "userId", msg.UserID, "targetId", msg.TargetID)
	a.dispatcher.EmitToUser(msg.TargetID, websocket.EventUserUnblocked, map[string]string{
		"userId": msg.UserID.String(),
	})
	context.Respond(true)
}

func (a *RelationshipActor) handleAddFriend(context actor.Context, msg *AddFriendMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if _, _, appErr := a.loadPair(ctx, msg.UserID, msg.TargetID); appErr != nil {
		context.Respond(appErr)
		return
	}

	// Both directions land or neither does.
	if err := a.store.AddFriendPair(ctx, msg.UserID, msg.TargetID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to add friend"))
		return
	}

	slog.Info("Friendship added", "userId", msg.UserID, "targetId", msg.TargetID)
	a.metrics.AddOperationLatency("add_friend", time.Since(startTime))
	context.Respond(true)
}

func (a *RelationshipActor) handleRemoveFriend(context actor.Context, msg *RemoveFriendMsg) {
	ctx := stdctx.Background()

	if _, _, appErr := a.loadPair(ctx, msg.UserID, msg.TargetID); appErr != nil {
		context.Respond(appErr)
		return
	}

	// Removal is one-directional: only the caller's list changes.
	if err := a.store.RemoveFriend(ctx, msg.UserID, msg.TargetID); err != nil {
		context.Respond(wrapStoreError(err, "Failed to remove friend"))
		return
	}

	slog.Info("Friendship removed", "userId", msg.UserID, "targetId", msg.TargetID)
	context.Respond(true)
}

func (a *RelationshipActor) handleCanMessage(context actor.Context, msg *CanMessageMsg) {
	ctx := stdctx.Background()

	sender, recipient, appErr := a.loadPair(ctx, msg.SenderID, msg.RecipientID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}

	if appErr := evaluateCanMessage(sender, recipient); appErr != nil {
		context.Respond(appErr)
		return
	}
	context.Respond(true)
}
