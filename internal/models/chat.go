package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Chat is a conversation: direct (exactly two members, no admins) or
// group (N members, creator, admin set).
type Chat struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	IconURL     string      `json:"iconUrl,omitempty"`
	IsGroup     bool        `json:"isGroup"`
	CreatorID   uuid.UUID   `json:"creatorId,omitempty"`
	Members     []uuid.UUID `json:"members"`
	Admins      []uuid.UUID `json:"admins,omitempty"`
	MutedBy     []uuid.UUID `json:"mutedBy,omitempty"`
	DeletedBy   []uuid.UUID `json:"-"`
	// IsActive goes false when a group loses its last admin. The group is
	// then eligible for cleanup but is never deleted automatically.
	IsActive        bool       `json:"isActive"`
	LatestMessageID *uuid.UUID `json:"latestMessageId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (c *Chat) HasMember(id uuid.UUID) bool {
	return containsID(c.Members, id)
}

func (c *Chat) HasAdmin(id uuid.UUID) bool {
	return containsID(c.Admins, id)
}

func (c *Chat) IsMutedBy(id uuid.UUID) bool {
	return containsID(c.MutedBy, id)
}

// IsDeletedFor reports whether the chat is soft-deleted for the given
// viewer. Presence in DeletedBy hides the chat for that viewer only.
func (c *Chat) IsDeletedFor(id uuid.UUID) bool {
	return containsID(c.DeletedBy, id)
}

// OtherMember returns the peer of a direct chat from one member's
// perspective. Returns uuid.Nil for group chats.
func (c *Chat) OtherMember(me uuid.UUID) uuid.UUID {
	if c.IsGroup {
		return uuid.Nil
	}
	for _, m := range c.Members {
		if m != me {
			return m
		}
	}
	return uuid.Nil
}

// MembersExcept returns the member set minus the given identity, the
// fan-out target set for a new message.
func (c *Chat) MembersExcept(id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(c.Members))
	for _, m := range c.Members {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}

// DirectKey builds the canonical identifier for the unordered pair of a
// direct chat. Both argument orders yield the same key, which backs the
// find-or-create idempotency of direct conversations.
func DirectKey(a, b uuid.UUID) string {
	pair := []string{a.String(), b.String()}
	sort.Strings(pair)
	return pair[0] + ":" + pair[1]
}
