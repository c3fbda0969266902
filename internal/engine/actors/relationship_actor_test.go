package actors

import (
	"testing"

	"chat-hive/internal/models"
	"chat-hive/internal/utils"
	"chat-hive/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBlockIsStoredOneWayButGatesBothWays(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")

	// Step 1: Alice blocks Bob
	result := env.ask(env.relationships, &BlockUserMsg{UserID: alice.ID, TargetID: bob.ID})
	assert.Equal(t, true, result)

	// Only Alice's block list records it
	assert.True(t, env.freshUser(alice.ID).HasBlocked(bob.ID))
	assert.False(t, env.freshUser(bob.ID).HasBlocked(alice.ID))

	// Step 2: Neither direction may message while the block stands
	appErr := env.askErr(env.relationships, &CanMessageMsg{SenderID: alice.ID, RecipientID: bob.ID})
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
	appErr = env.askErr(env.relationships, &CanMessageMsg{SenderID: bob.ID, RecipientID: alice.ID})
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// Step 3: The blocked user is notified
	events := env.dispatcher.named(websocket.EventUserBlocked)
	assert.Len(t, events, 1)
	assert.Equal(t, []uuid.UUID{bob.ID}, events[0].Users)

	// Step 4: Unblock restores messaging with no re-friending needed
	result = env.ask(env.relationships, &UnblockUserMsg{UserID: alice.ID, TargetID: bob.ID})
	assert.Equal(t, true, result)
	result = env.ask(env.relationships, &CanMessageMsg{SenderID: bob.ID, RecipientID: alice.ID})
	assert.Equal(t, true, result)
}

func TestBlockingKeepsFriendship(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")

	env.ask(env.relationships, &AddFriendMsg{UserID: alice.ID, TargetID: bob.ID})
	env.ask(env.relationships, &BlockUserMsg{UserID: alice.ID, TargetID: bob.ID})

	// Blocking and friendship are independent relations.
	assert.True(t, env.freshUser(alice.ID).IsFriend(bob.ID))
	assert.True(t, env.freshUser(alice.ID).HasBlocked(bob.ID))
}

func TestFriendPairIsSymmetric(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")

	result := env.ask(env.relationships, &AddFriendMsg{UserID: alice.ID, TargetID: bob.ID})
	assert.Equal(t, true, result)

	assert.True(t, env.freshUser(alice.ID).IsFriend(bob.ID))
	assert.True(t, env.freshUser(bob.ID).IsFriend(alice.ID))

	// Removal only touches the caller's list.
	env.ask(env.relationships, &RemoveFriendMsg{UserID: alice.ID, TargetID: bob.ID})
	assert.False(t, env.freshUser(alice.ID).IsFriend(bob.ID))
	assert.True(t, env.freshUser(bob.ID).IsFriend(alice.ID))
}

func TestCanMessagePrivacyGate(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	priya := env.seedUser("priya")
	env.ask(env.users, &SetVisibilityMsg{UserID: priya.ID, Visibility: models.VisibilityPrivate})

	// Step 1: A private recipient requires an invite, and the error names
	// who to invite.
	appErr := env.askErr(env.relationships, &CanMessageMsg{SenderID: alice.ID, RecipientID: priya.ID})
	assert.Equal(t, utils.ErrRequiresInvite, appErr.Code)
	assert.Equal(t, priya.ID, appErr.Target)

	// Step 2: The gate is one-directional; the private user can reach out.
	result := env.ask(env.relationships, &CanMessageMsg{SenderID: priya.ID, RecipientID: alice.ID})
	assert.Equal(t, true, result)

	// Step 3: Friendship lifts the gate.
	env.ask(env.relationships, &AddFriendMsg{UserID: alice.ID, TargetID: priya.ID})
	result = env.ask(env.relationships, &CanMessageMsg{SenderID: alice.ID, RecipientID: priya.ID})
	assert.Equal(t, true, result)
}

func TestRelationshipRejectsSelfTarget(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")

	appErr := env.askErr(env.relationships, &BlockUserMsg{UserID: alice.ID, TargetID: alice.ID})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	appErr = env.askErr(env.relationships, &AddFriendMsg{UserID: alice.ID, TargetID: alice.ID})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}
