package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteKind distinguishes message invites (first contact with a private
// or unconnected user) from group-join invites.
type InviteKind string

const (
	InviteMessage InviteKind = "message"
	InviteGroup   InviteKind = "group"
)

func (k InviteKind) Valid() bool {
	return k == InviteMessage || k == InviteGroup
}

// InviteStatus is the closed state set of an invite. Accepted and
// declined are terminal.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

// CanTransitionTo reports whether the status may move to next. Only
// pending → accepted and pending → declined are legal; terminal states
// never transition.
func (s InviteStatus) CanTransitionTo(next InviteStatus) bool {
	if s != InvitePending {
		return false
	}
	return next == InviteAccepted || next == InviteDeclined
}

// Invite is a directed request from one user to another. At most one
// pending invite may exist per (from, to, kind, group) tuple.
type Invite struct {
	ID      uuid.UUID    `json:"id"`
	Kind    InviteKind   `json:"kind"`
	FromID  uuid.UUID    `json:"fromId"`
	ToID    uuid.UUID    `json:"toId"`
	GroupID *uuid.UUID   `json:"groupId,omitempty"`
	Status  InviteStatus `json:"status"`
	Note    string       `json:"note,omitempty"`
	// Read is advisory only and does not affect the state machine.
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SameTarget reports whether the invite addresses the given (from, to,
// kind, group) tuple, the duplicate-pending identity.
func (i *Invite) SameTarget(from, to uuid.UUID, kind InviteKind, group *uuid.UUID) bool {
	if i.FromID != from || i.ToID != to || i.Kind != kind {
		return false
	}
	if (i.GroupID == nil) != (group == nil) {
		return false
	}
	return i.GroupID == nil || *i.GroupID == *group
}
