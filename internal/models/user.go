package models

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls who may open a direct conversation with a user
// without an accepted invite.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

type User struct {
	ID             uuid.UUID   `json:"id"`
	Username       string      `json:"username"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	HashedPassword string      `json:"-"`
	Bio            string      `json:"bio,omitempty"`
	AvatarURL      string      `json:"avatarUrl,omitempty"`
	Visibility     Visibility  `json:"visibility"`
	Friends        []uuid.UUID `json:"friends"`
	Blocked        []uuid.UUID `json:"blocked"`
	IsOnline       bool        `json:"isOnline"`
	LastSeen       time.Time   `json:"lastSeen"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// IsFriend reports whether other is on the user's friend list. Friendship
// is stored per-direction; a blocked user may still appear here (blocking
// and friendship are independent relations).
func (u *User) IsFriend(other uuid.UUID) bool {
	return containsID(u.Friends, other)
}

// HasBlocked reports whether the user has blocked other.
func (u *User) HasBlocked(other uuid.UUID) bool {
	return containsID(u.Blocked, other)
}

// Summary is the public projection of a user embedded in message payloads
// and membership listings.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
}

func (u *User) Summary() Summary {
	return Summary{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
	}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
