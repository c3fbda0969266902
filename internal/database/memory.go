// internal/database/memory.go
package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"chat-hive/internal/models"
	"chat-hive/internal/utils"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and the simulator.
// A single mutex guards every map, so multi-document operations such as
// the friend pair-add are naturally atomic.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*models.User
	chats    map[uuid.UUID]*models.Chat
	messages map[uuid.UUID]*models.Message
	invites  map[uuid.UUID]*models.Invite
	// direct chat lookup by canonical pair key
	directKeys map[string]uuid.UUID
	// message insertion counter, preserves append order within a chat
	seq       uint64
	msgOrder  map[uuid.UUID]uint64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uuid.UUID]*models.User),
		chats:      make(map[uuid.UUID]*models.Chat),
		messages:   make(map[uuid.UUID]*models.Message),
		invites:    make(map[uuid.UUID]*models.Invite),
		directKeys: make(map[string]uuid.UUID),
		msgOrder:   make(map[uuid.UUID]uint64),
	}
}

func copyIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Friends = copyIDs(u.Friends)
	c.Blocked = copyIDs(u.Blocked)
	return &c
}

func copyChat(ch *models.Chat) *models.Chat {
	c := *ch
	c.Members = copyIDs(ch.Members)
	c.Admins = copyIDs(ch.Admins)
	c.MutedBy = copyIDs(ch.MutedBy)
	c.DeletedBy = copyIDs(ch.DeletedBy)
	if ch.LatestMessageID != nil {
		id := *ch.LatestMessageID
		c.LatestMessageID = &id
	}
	return &c
}

func copyMessage(m *models.Message) *models.Message {
	c := *m
	c.ReadBy = copyIDs(m.ReadBy)
	c.DeletedBy = copyIDs(m.DeletedBy)
	if m.Attachments != nil {
		c.Attachments = make([]models.Attachment, len(m.Attachments))
		copy(c.Attachments, m.Attachments)
	}
	return &c
}

func copyInvite(i *models.Invite) *models.Invite {
	c := *i
	if i.GroupID != nil {
		id := *i.GroupID
		c.GroupID = &id
	}
	return &c
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
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Users

func (s *MemoryStore) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, utils.NewNotFoundError("user")
	}
	return copyUser(user), nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, utils.NewNotFoundError("user")
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return copyUser(user), nil
		}
	}
	return nil, utils.NewNotFoundError("user")
}

func (s *MemoryStore) SearchUsers(_ context.Context, query string, exclude uuid.UUID) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []*models.User
	for _, user := range s.users {
		if user.ID == exclude {
			continue
		}
		if q == "" ||
			strings.Contains(strings.ToLower(user.Name), q) ||
			strings.Contains(strings.ToLower(user.Username), q) {
			out = append(out, copyUser(user))
		}
	}
	return out, nil
}

func (s *MemoryStore) mutateUser(id uuid.UUID, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return utils.NewNotFoundError("user")
	}
	fn(user)
	return nil
}

func (s *MemoryStore) SetVisibility(_ context.Context, id uuid.UUID, visibility models.Visibility) error {
	return s.mutateUser(id, func(u *models.User) { u.Visibility = visibility })
}

func (s *MemoryStore) SetUserPresence(_ context.Context, id uuid.UUID, online bool) error {
	return s.mutateUser(id, func(u *models.User) {
		u.IsOnline = online
		u.LastSeen = time.Now()
	})
}

func (s *MemoryStore) BlockUser(_ context.Context, actor, target uuid.UUID) error {
	return s.mutateUser(actor, func(u *models.User) { u.Blocked = addToSet(u.Blocked, target) })
}

func (s *MemoryStore) UnblockUser(_ context.Context, actor, target uuid.UUID) error {
	return s.mutateUser(actor, func(u *models.User) { u.Blocked = pullFromSet(u.Blocked, target) })
}

func (s *MemoryStore) AddFriendPair(_ context.Context, a, b uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ua, ok := s.users[a]
	if !ok {
		return utils.NewNotFoundError("user")
	}
	ub, ok := s.users[b]
	if !ok {
		return utils.NewNotFoundError("user")
	}
	ua.Friends = addToSet(ua.Friends, b)
	ub.Friends = addToSet(ub.Friends, a)
	return nil
}

func (s *MemoryStore) RemoveFriend(_ context.Context, actor, target uuid.UUID) error {
	return s.mutateUser(actor, func(u *models.User) { u.Friends = pullFromSet(u.Friends, target) })
}

// Chats

func (s *MemoryStore) FindOrCreateDirectChat(_ context.Context, a, b uuid.UUID) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.DirectKey(a, b)
	if id, ok := s.directKeys[key]; ok {
		return copyChat(s.chats[id]), nil
	}
	now := time.Now()
	chat := &models.Chat{
		ID:        uuid.New(),
		IsGroup:   false,
		Members:   []uuid.UUID{a, b},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.chats[chat.ID] = chat
	s.directKeys[key] = chat.ID
	return copyChat(chat), nil
}

func (s *MemoryStore) CreateChat(_ context.Context, chat *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chat.ID] = copyChat(chat)
	if !chat.IsGroup && len(chat.Members) == 2 {
		s.directKeys[models.DirectKey(chat.Members[0], chat.Members[1])] = chat.ID
	}
	return nil
}

func (s *MemoryStore) GetChat(_ context.Context, id uuid.UUID) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.chats[id]
	if !ok {
		return nil, utils.NewNotFoundError("chat")
	}
	return copyChat(chat), nil
}

func (s *MemoryStore) ListChatsFor(_ context.Context, userID uuid.UUID) ([]*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Chat
	for _, chat := range s.chats {
		if chat.HasMember(userID) && !chat.IsDeletedFor(userID) {
			out = append(out, copyChat(chat))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) mutateChat(id uuid.UUID, fn func(*models.Chat)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[id]
	if !ok {
		return utils.NewNotFoundError("chat")
	}
	fn(chat)
	chat.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) RenameChat(_ context.Context, chatID uuid.UUID, name string) error {
	return s.mutateChat(chatID, func(c *models.Chat) { c.Name = name })
}

func (s *MemoryStore) SetChatDescription(_ context.Context, chatID uuid.UUID, description string) error {
	return s.mutateChat(chatID, func(c *models.Chat) { c.Description = description })
}

func (s *MemoryStore) SetChatIcon(_ context.Context, chatID uuid.UUID, iconURL string) error {
	return s.mutateChat(chatID, func(c *models.Chat) { c.IconURL = iconURL })
}

func (s *MemoryStore) AddChatMember(_ context.Context, chatID, userID uuid.UUID) error {
	return s.mutateChat(chatID, func(c *models.Chat) { c.Members = addToSet(c.Members, userID) })
}

func (s *MemoryStore) RemoveChatMember(_ context.Context, chatID, userID uuid.UUID) error {
	return s.mutateChat(chatID, func(c *models.Chat) {
		c.Members = pullFromSet(c.Members, userID)
		c.Admins = pullFromSet(c.Admins, userID)
		c.MutedBy = pullFromSet(c.MutedBy, userID)
	})
}

func (s *MemoryStore) AddChatAdmin(_ context.Context, chatID, userID uuid.UUID) error {
	return s.mutateChat(chatID, func(c *models.Chat) { c.Admins = addToSet(c.Admins, userID) })
}

func (s *MemoryStore) RemoveChatAdmin(_ context.Context, chatID, userID uuid.UUID) error {
	return s.mutateChat(chatID, func(c *models.Chat) { c.Admins = pullFromSet(c.Admins, userID) })
}

func (s *MemoryStore) SetChatActive(_ context.Context, chatID uuid.UUID, active bool) error {
	return s.mutateChat(chatID, func(c *models.Chat) { c.IsActive = active })
}

func (s *MemoryStore) SetChatMuted(_ context.Context, chatID, userID uuid.UUID, muted bool) error {
	return s.mutateChat(chatID, func(c *models.Chat) {
		if muted {
			c.MutedBy = addToSet(c.MutedBy, userID)
		} else {
			c.MutedBy = pullFromSet(c.MutedBy, userID)
		}
	})
}

func (s *MemoryStore) SoftDeleteChatFor(_ context.Context, chatID, userID uuid.UUID) error {
	return s.mutateChat(chatID, func(c *models.Chat) { c.DeletedBy = addToSet(c.DeletedBy, userID) })
}

func (s *MemoryStore) ClearChatDeletionFor(_ context.Context, chatID, userID uuid.UUID) error {
	return s.mutateChat(chatID, func(c *models.Chat) { c.DeletedBy = pullFromSet(c.DeletedBy, userID) })
}

func (s *MemoryStore) ClearChatDeletions(_ context.Context, chatID uuid.UUID) error {
	return s.mutateChat(chatID, func(c *models.Chat) { c.DeletedBy = nil })
}

func (s *MemoryStore) SetLatestMessage(_ context.Context, chatID, messageID uuid.UUID) error {
	return s.mutateChat(chatID, func(c *models.Chat) {
		id := messageID
		c.LatestMessageID = &id
	})
}

func (s *MemoryStore) DeleteChat(_ context.Context, chatID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return utils.NewNotFoundError("chat")
	}
	if !chat.IsGroup && len(chat.Members) == 2 {
		delete(s.directKeys, models.DirectKey(chat.Members[0], chat.Members[1]))
	}
	delete(s.chats, chatID)
	return nil
}

// Messages

func (s *MemoryStore) SaveMessage(_ context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.msgOrder[message.ID] = s.seq
	s.messages[message.ID] = copyMessage(message)
	return nil
}

func (s *MemoryStore) GetMessage(_ context.Context, id uuid.UUID) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	message, ok := s.messages[id]
	if !ok {
		return nil, utils.NewNotFoundError("message")
	}
	return copyMessage(message), nil
}

func (s *MemoryStore) ListMessagesFor(_ context.Context, chatID, viewer uuid.UUID) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Message
	for _, message := range s.messages {
		if message.ChatID == chatID && !message.IsDeletedFor(viewer) {
			out = append(out, copyMessage(message))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.msgOrder[out[i].ID] < s.msgOrder[out[j].ID]
	})
	return out, nil
}

func (s *MemoryStore) MarkMessagesRead(_ context.Context, chatID, reader uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var modified int64
	for _, message := range s.messages {
		if message.ChatID != chatID || message.SenderID == reader || message.ReadBySet(reader) {
			continue
		}
		message.ReadBy = append(message.ReadBy, reader)
		modified++
	}
	return modified, nil
}

func (s *MemoryStore) SoftDeleteMessagesFor(_ context.Context, chatID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, message := range s.messages {
		if message.ChatID == chatID {
			message.DeletedBy = addToSet(message.DeletedBy, userID)
		}
	}
	return nil
}

func (s *MemoryStore) DeleteMessage(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return utils.NewNotFoundError("message")
	}
	delete(s.messages, id)
	delete(s.msgOrder, id)
	return nil
}

func (s *MemoryStore) DeleteChatMessages(_ context.Context, chatID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, message := range s.messages {
		if message.ChatID == chatID {
			delete(s.messages, id)
			delete(s.msgOrder, id)
		}
	}
	return nil
}

// Invites

func (s *MemoryStore) CreateInvite(_ context.Context, invite *models.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[invite.ID] = copyInvite(invite)
	return nil
}

func (s *MemoryStore) GetInvite(_ context.Context, id uuid.UUID) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invite, ok := s.invites[id]
	if !ok {
		return nil, utils.NewNotFoundError("invite")
	}
	return copyInvite(invite), nil
}

func (s *MemoryStore) FindPendingInvite(_ context.Context, from, to uuid.UUID, kind models.InviteKind, group *uuid.UUID) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, invite := range s.invites {
		if invite.Status == models.InvitePending && invite.SameTarget(from, to, kind, group) {
			return copyInvite(invite), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) mutateInvite(id uuid.UUID, fn func(*models.Invite)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	invite, ok := s.invites[id]
	if !ok {
		return utils.NewNotFoundError("invite")
	}
	fn(invite)
	invite.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetInviteStatus(_ context.Context, id uuid.UUID, status models.InviteStatus) error {
	return s.mutateInvite(id, func(i *models.Invite) { i.Status = status })
}

func (s *MemoryStore) SetInviteRead(_ context.Context, id uuid.UUID) error {
	return s.mutateInvite(id, func(i *models.Invite) { i.Read = true })
}

func (s *MemoryStore) listPending(match func(*models.Invite) bool) []*models.Invite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Invite
	for _, invite := range s.invites {
		if invite.Status == models.InvitePending && match(invite) {
			out = append(out, copyInvite(invite))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) ListPendingReceived(_ context.Context, userID uuid.UUID) ([]*models.Invite, error) {
	return s.listPending(func(i *models.Invite) bool { return i.ToID == userID }), nil
}

func (s *MemoryStore) ListPendingSent(_ context.Context, userID uuid.UUID) ([]*models.Invite, error) {
	return s.listPending(func(i *models.Invite) bool { return i.FromID == userID }), nil
}

// Counts

func (s *MemoryStore) CountUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *MemoryStore) CountChats(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.chats)), nil
}

func (s *MemoryStore) CountMessages(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.messages)), nil
}
