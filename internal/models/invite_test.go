package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestInviteStatusTransitions(t *testing.T) {
	cases := []struct {
		from    InviteStatus
		to      InviteStatus
		allowed bool
	}{
		{InvitePending, InviteAccepted, true},
		{InvitePending, InviteDeclined, true},
		{InvitePending, InvitePending, false},
		{InviteAccepted, InviteDeclined, false},
		{InviteAccepted, InvitePending, false},
		{InviteDeclined, InviteAccepted, false},
		{InviteDeclined, InvitePending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestInviteSameTarget(t *testing.T) {
	from := uuid.New()
	to := uuid.New()
	group := uuid.New()

	message := &Invite{FromID: from, ToID: to, Kind: InviteMessage}
	assert.True(t, message.SameTarget(from, to, InviteMessage, nil))
	assert.False(t, message.SameTarget(to, from, InviteMessage, nil))
	assert.False(t, message.SameTarget(from, to, InviteGroup, nil))
	assert.False(t, message.SameTarget(from, to, InviteMessage, &group))

	grouped := &Invite{FromID: from, ToID: to, Kind: InviteGroup, GroupID: &group}
	assert.True(t, grouped.SameTarget(from, to, InviteGroup, &group))
	other := uuid.New()
	assert.False(t, grouped.SameTarget(from, to, InviteGroup, &other))
	assert.False(t, grouped.SameTarget(from, to, InviteGroup, nil))
}

func TestDirectKeyIsOrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	assert.Equal(t, DirectKey(a, b), DirectKey(b, a))
	assert.NotEqual(t, DirectKey(a, b), DirectKey(a, uuid.New()))
}
