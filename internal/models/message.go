package models

import (
	"time"

	"github.com/google/uuid"
)

// AttachmentKind classifies an attachment for client rendering.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentAudio    AttachmentKind = "audio"
	AttachmentDocument AttachmentKind = "document"
)

func (k AttachmentKind) Valid() bool {
	switch k {
	case AttachmentImage, AttachmentVideo, AttachmentAudio, AttachmentDocument:
		return true
	}
	return false
}

// Attachment references an object held by external media storage. The
// core never touches the bytes, only the descriptor.
type Attachment struct {
	StorageID string         `json:"storageId"`
	URL       string         `json:"url"`
	Kind      AttachmentKind `json:"kind"`
}

type Message struct {
	ID          uuid.UUID    `json:"id"`
	ChatID      uuid.UUID    `json:"chatId"`
	SenderID    uuid.UUID    `json:"senderId"`
	Content     string       `json:"content,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	// ReadBy holds read receipts; DeletedBy hides the message for exactly
	// those viewers (clear/delete-conversation), never globally.
	ReadBy    []uuid.UUID `json:"readBy"`
	DeletedBy []uuid.UUID `json:"-"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (m *Message) ReadBySet(id uuid.UUID) bool {
	return containsID(m.ReadBy, id)
}

func (m *Message) IsDeletedFor(id uuid.UUID) bool {
	return containsID(m.DeletedBy, id)
}

// IsEmpty reports whether the message carries neither text nor attachments.
func (m *Message) IsEmpty() bool {
	return m.Content == "" && len(m.Attachments) == 0
}

// MessagePayload is the wire shape of a message with its sender resolved
// to a public summary.
type MessagePayload struct {
	ID          uuid.UUID    `json:"id"`
	ChatID      uuid.UUID    `json:"chatId"`
	Sender      Summary      `json:"sender"`
	Content     string       `json:"content,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ReadBy      []uuid.UUID  `json:"readBy"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func (m *Message) Payload(sender Summary) *MessagePayload {
	readBy := m.ReadBy
	if readBy == nil {
		readBy = []uuid.UUID{}
	}
	return &MessagePayload{
		ID:          m.ID,
		ChatID:      m.ChatID,
		Sender:      sender,
		Content:     m.Content,
		Attachments: m.Attachments,
		ReadBy:      readBy,
		CreatedAt:   m.CreatedAt,
	}
}
