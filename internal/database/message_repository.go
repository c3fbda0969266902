// internal/database/message_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"chat-hive/internal/models"
	"chat-hive/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AttachmentDocument is the embedded descriptor for a stored attachment
type AttachmentDocument struct {
	StorageID string `bson:"storageId"`
	URL       string `bson:"url"`
	Kind      string `bson:"kind"`
}

// MessageDocument represents the MongoDB schema for a message
type MessageDocument struct {
	ID          string               `bson:"_id"`
	ChatID      string               `bson:"chatId"`
	SenderID    string               `bson:"senderId"`
	Content     string               `bson:"content,omitempty"`
	Attachments []AttachmentDocument `bson:"attachments,omitempty"`
	ReadBy      []string             `bson:"readBy"`
	DeletedBy   []string             `bson:"deletedBy"`
	CreatedAt   time.Time            `bson:"createdAt"`
}

func messageToDocument(message *models.Message) MessageDocument {
	attachments := make([]AttachmentDocument, len(message.Attachments))
	for i, a := range message.Attachments {
		attachments[i] = AttachmentDocument{
			StorageID: a.StorageID,
			URL:       a.URL,
			Kind:      string(a.Kind),
		}
	}
	return MessageDocument{
		ID:          message.ID.String(),
		ChatID:      message.ChatID.String(),
		SenderID:    message.SenderID.String(),
		Content:     message.Content,
		Attachments: attachments,
		ReadBy:      idsToStrings(message.ReadBy),
		DeletedBy:   idsToStrings(message.DeletedBy),
		CreatedAt:   message.CreatedAt,
	}
}

func documentToMessage(doc *MessageDocument) (*models.Message, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid message ID in database: %v", err)
	}
	chatID, err := uuid.Parse(doc.ChatID)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID in database: %v", err)
	}
	senderID, err := uuid.Parse(doc.SenderID)
	if err != nil {
		return nil, fmt.Errorf("invalid sender ID in database: %v", err)
	}
	readBy, err := stringsToIDs(doc.ReadBy)
	if err != nil {
		return nil, err
	}
	deletedBy, err := stringsToIDs(doc.DeletedBy)
	if err != nil {
		return nil, err
	}

	attachments := make([]models.Attachment, len(doc.Attachments))
	for i, a := range doc.Attachments {
		attachments[i] = models.Attachment{
			StorageID: a.StorageID,
			URL:       a.URL,
			Kind:      models.AttachmentKind(a.Kind),
		}
	}
	if len(attachments) == 0 {
		attachments = nil
	}

	return &models.Message{
		ID:          id,
		ChatID:      chatID,
		SenderID:    senderID,
		Content:     doc.Content,
		Attachments: attachments,
		ReadBy:      readBy,
		DeletedBy:   deletedBy,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

// SaveMessage inserts a new message document
func (m *MongoDB) SaveMessage(ctx context.Context, message *models.Message) error {
	_, err := m.Messages.InsertOne(ctx, messageToDocument(message))
	if err != nil {
		return fmt.Errorf("failed to save message: %v", err)
	}
	return nil
}

// GetMessage retrieves a message by its ID
func (m *MongoDB) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var doc MessageDocument
	err := m.Messages.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("message")
	}
	if err != nil {
		return nil, err
	}
	return documentToMessage(&doc)
}

// ListMessagesFor returns the chat's messages visible to the viewer in
// insertion order, hiding messages the viewer has soft-deleted.
func (m *MongoDB) ListMessagesFor(ctx context.Context, chatID, viewer uuid.UUID) ([]*models.Message, error) {
	filter := bson.M{
		"chatId":    chatID.String(),
		"deletedBy": bson.M{"$ne": viewer.String()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := m.Messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	for cursor.Next(ctx) {
		var doc MessageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode message: %v", err)
		}
		message, err := documentToMessage(&doc)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, cursor.Err()
}

// MarkMessagesRead appends the reader to the read set of every message in
// the chat authored by someone else that they have not read yet. Calling
// it again is a no-op.
func (m *MongoDB) MarkMessagesRead(ctx context.Context, chatID, reader uuid.UUID) (int64, error) {
	filter := bson.M{
		"chatId":   chatID.String(),
		"senderId": bson.M{"$ne": reader.String()},
		"readBy":   bson.M{"$ne": reader.String()},
	}
	update := bson.M{"$addToSet": bson.M{"readBy": reader.String()}}

	result, err := m.Messages.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// SoftDeleteMessagesFor hides all of a chat's messages for one viewer
func (m *MongoDB) SoftDeleteMessagesFor(ctx context.Context, chatID, userID uuid.UUID) error {
	filter := bson.M{
		"chatId":    chatID.String(),
		"deletedBy": bson.M{"$ne": userID.String()},
	}
	update := bson.M{"$addToSet": bson.M{"deletedBy": userID.String()}}

	_, err := m.Messages.UpdateMany(ctx, filter, update)
	return err
}

// DeleteMessage permanently removes one message
func (m *MongoDB) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	result, err := m.Messages.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete message: %v", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewNotFoundError("message")
	}
	return nil
}

// DeleteChatMessages permanently removes every message in a chat
func (m *MongoDB) DeleteChatMessages(ctx context.Context, chatID uuid.UUID) error {
	_, err := m.Messages.DeleteMany(ctx, bson.M{"chatId": chatID.String()})
	return err
}
