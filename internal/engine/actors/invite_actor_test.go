package actors

import (
	"testing"

	"chat-hive/internal/models"
	"chat-hive/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func (e *testEnv) createMessageInvite(from, to uuid.UUID) *models.Invite {
	e.t.Helper()
	result := e.ask(e.invites, &CreateInviteMsg{
		FromID: from,
		ToID:   to,
		Kind:   models.InviteMessage,
	})
	invite, ok := result.(*models.Invite)
	if !ok {
		e.t.Fatalf("expected *models.Invite, got %T", result)
	}
	return invite
}

func TestDuplicatePendingInviteCollapses(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")

	first := env.createMessageInvite(alice.ID, bob.ID)
	second := env.createMessageInvite(alice.ID, bob.ID)

	// The repeat returns the existing record instead of a new one.
	assert.Equal(t, first.ID, second.ID)

	// The reverse direction is a distinct invite.
	reverse := env.createMessageInvite(bob.ID, alice.ID)
	assert.NotEqual(t, first.ID, reverse.ID)
}

func TestAcceptMessageInviteMakesFriends(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	priya := env.seedUser("priya")
	env.ask(env.users, &SetVisibilityMsg{UserID: priya.ID, Visibility: models.VisibilityPrivate})

	// Step 1: Alice cannot reach the private recipient yet
	appErr := env.askErr(env.relationships, &CanMessageMsg{SenderID: alice.ID, RecipientID: priya.ID})
	assert.Equal(t, utils.ErrRequiresInvite, appErr.Code)

	// Step 2: Alice invites, Priya accepts
	invite := env.createMessageInvite(alice.ID, priya.ID)
	result := env.ask(env.invites, &AcceptInviteMsg{InviteID: invite.ID, UserID: priya.ID})
	accepted, ok := result.(*models.Invite)
	if !ok {
		t.Fatalf("expected *models.Invite, got %T", result)
	}
	assert.Equal(t, models.InviteAccepted, accepted.Status)

	// Step 3: Acceptance installed the friendship in both directions and
	// lifted the gate
	assert.True(t, env.freshUser(alice.ID).IsFriend(priya.ID))
	assert.True(t, env.freshUser(priya.ID).IsFriend(alice.ID))
	canNow := env.ask(env.relationships, &CanMessageMsg{SenderID: alice.ID, RecipientID: priya.ID})
	assert.Equal(t, true, canNow)
}

func TestDeclineInviteLeavesNoFriendship(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")

	invite := env.createMessageInvite(alice.ID, bob.ID)
	result := env.ask(env.invites, &DeclineInviteMsg{InviteID: invite.ID, UserID: bob.ID})
	declined := result.(*models.Invite)
	assert.Equal(t, models.InviteDeclined, declined.Status)
	assert.False(t, env.freshUser(alice.ID).IsFriend(bob.ID))

	// A declined invite does not block a fresh one.
	fresh := env.createMessageInvite(alice.ID, bob.ID)
	assert.NotEqual(t, invite.ID, fresh.ID)
}

func TestInviteTerminalStatesAreFinal(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")

	invite := env.createMessageInvite(alice.ID, bob.ID)
	env.ask(env.invites, &AcceptInviteMsg{InviteID: invite.ID, UserID: bob.ID})

	// Neither accept nor decline may touch it again.
	appErr := env.askErr(env.invites, &AcceptInviteMsg{InviteID: invite.ID, UserID: bob.ID})
	assert.Equal(t, utils.ErrInvalidState, appErr.Code)
	appErr = env.askErr(env.invites, &DeclineInviteMsg{InviteID: invite.ID, UserID: bob.ID})
	assert.Equal(t, utils.ErrInvalidState, appErr.Code)
}

func TestForeignInviteReadsAsNotFound(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")
	mallory := env.seedUser("mallory")

	invite := env.createMessageInvite(alice.ID, bob.ID)

	// Only the recipient may resolve it; others learn nothing.
	appErr := env.askErr(env.invites, &AcceptInviteMsg{InviteID: invite.ID, UserID: mallory.ID})
	assert.Equal(t, utils.ErrNotFound, appErr.Code)
	appErr = env.askErr(env.invites, &AcceptInviteMsg{InviteID: invite.ID, UserID: alice.ID})
	assert.Equal(t, utils.ErrNotFound, appErr.Code)
}

func TestInviteRejectsBlockedPair(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")
	env.ask(env.relationships, &BlockUserMsg{UserID: bob.ID, TargetID: alice.ID})

	appErr := env.askErr(env.invites, &CreateInviteMsg{
		FromID: alice.ID,
		ToID:   bob.ID,
		Kind:   models.InviteMessage,
	})
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
}

func TestGroupInviteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser("admin")
	member := env.seedUser("member")
	newcomer := env.seedUser("newcomer")

	created := env.ask(env.chats, &CreateGroupChatMsg{
		CreatorID: admin.ID,
		Name:      "book club",
		MemberIDs: []uuid.UUID{member.ID},
	})
	group, ok := created.(*models.Chat)
	if !ok {
		t.Fatalf("expected *models.Chat, got %T", created)
	}

	// Step 1: Non-admin members may not invite
	appErr := env.askErr(env.invites, &CreateInviteMsg{
		FromID:  member.ID,
		ToID:    newcomer.ID,
		Kind:    models.InviteGroup,
		GroupID: &group.ID,
	})
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// Step 2: The admin invites and the newcomer accepts
	result := env.ask(env.invites, &CreateInviteMsg{
		FromID:  admin.ID,
		ToID:    newcomer.ID,
		Kind:    models.InviteGroup,
		GroupID: &group.ID,
	})
	invite, ok := result.(*models.Invite)
	if !ok {
		t.Fatalf("expected *models.Invite, got %T", result)
	}
	env.ask(env.invites, &AcceptInviteMsg{InviteID: invite.ID, UserID: newcomer.ID})

	// Step 3: Acceptance joined the group, not the friend graph
	assert.True(t, env.freshChat(group.ID).HasMember(newcomer.ID))
	assert.False(t, env.freshUser(admin.ID).IsFriend(newcomer.ID))

	// Step 4: Inviting an existing member is rejected
	appErr = env.askErr(env.invites, &CreateInviteMsg{
		FromID:  admin.ID,
		ToID:    newcomer.ID,
		Kind:    models.InviteGroup,
		GroupID: &group.ID,
	})
	assert.Equal(t, utils.ErrInvalidState, appErr.Code)
}

func TestGroupInviteValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")

	// Group invites need a group; message invites must not carry one.
	appErr := env.askErr(env.invites, &CreateInviteMsg{
		FromID: alice.ID,
		ToID:   bob.ID,
		Kind:   models.InviteGroup,
	})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	bogus := uuid.New()
	appErr = env.askErr(env.invites, &CreateInviteMsg{
		FromID:  alice.ID,
		ToID:    bob.ID,
		Kind:    models.InviteMessage,
		GroupID: &bogus,
	})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	appErr = env.askErr(env.invites, &CreateInviteMsg{
		FromID: alice.ID,
		ToID:   alice.ID,
		Kind:   models.InviteMessage,
	})
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}

func TestListInvitesSplitsDirections(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")
	carol := env.seedUser("carol")

	sent := env.createMessageInvite(alice.ID, bob.ID)
	received := env.createMessageInvite(carol.ID, alice.ID)

	result := env.ask(env.invites, &ListInvitesMsg{UserID: alice.ID})
	listing, ok := result.(*InviteListing)
	if !ok {
		t.Fatalf("expected *InviteListing, got %T", result)
	}
	assert.Len(t, listing.Sent, 1)
	assert.Equal(t, sent.ID, listing.Sent[0].ID)
	assert.Len(t, listing.Received, 1)
	assert.Equal(t, received.ID, listing.Received[0].ID)

	// Resolved invites drop out of the pending listing.
	env.ask(env.invites, &AcceptInviteMsg{InviteID: received.ID, UserID: alice.ID})
	result = env.ask(env.invites, &ListInvitesMsg{UserID: alice.ID})
	listing = result.(*InviteListing)
	assert.Empty(t, listing.Received)
}

func TestMarkInviteRead(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")

	invite := env.createMessageInvite(alice.ID, bob.ID)
	result := env.ask(env.invites, &MarkInviteReadMsg{InviteID: invite.ID, UserID: bob.ID})
	assert.Equal(t, true, result)

	// Read is advisory; the invite is still pending and resolvable.
	listing := env.ask(env.invites, &ListInvitesMsg{UserID: bob.ID}).(*InviteListing)
	assert.Len(t, listing.Received, 1)
	assert.True(t, listing.Received[0].Read)
}
