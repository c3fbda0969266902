// internal/database/chat_repository.go
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

// ChatDocument represents the MongoDB schema for a conversation
type ChatDocument struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name,omitempty"`
	Description string    `bson:"description,omitempty"`
	IconURL     string    `bson:"iconUrl,omitempty"`
	IsGroup     bool      `bson:"isGroup"`
	CreatorID   string    `bson:"creatorId,omitempty"`
	DirectKey   string    `bson:"directKey,omitempty"`
	Members     []string  `bson:"members"`
	Admins      []string  `bson:"admins"`
	MutedBy     []string  `bson:"mutedBy"`
	DeletedBy   []string  `bson:"deletedBy"`
	IsActive    bool      `bson:"isActive"`
	LatestMsgID string    `bson:"latestMessageId,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func chatToDocument(chat *models.Chat) ChatDocument {
	doc := ChatDocument{
		ID:          chat.ID.String(),
		Name:        chat.Name,
		Description: chat.Description,
		IconURL:     chat.IconURL,
		IsGroup:     chat.IsGroup,
		Members:     idsToStrings(chat.Members),
		Admins:      idsToStrings(chat.Admins),
		MutedBy:     idsToStrings(chat.MutedBy),
		DeletedBy:   idsToStrings(chat.DeletedBy),
		IsActive:    chat.IsActive,
		CreatedAt:   chat.CreatedAt,
		UpdatedAt:   chat.UpdatedAt,
	}
	if chat.CreatorID != uuid.Nil {
		doc.CreatorID = chat.CreatorID.String()
	}
	if !chat.IsGroup && len(chat.Members) == 2 {
		doc.DirectKey = models.DirectKey(chat.Members[0], chat.Members[1])
	}
	if chat.LatestMessageID != nil {
		doc.LatestMsgID = chat.LatestMessageID.String()
	}
	return doc
}

func documentToChat(doc *ChatDocument) (*models.Chat, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID in database: %v", err)
	}
	members, err := stringsToIDs(doc.Members)
	if err != nil {
		return nil, err
	}
	admins, err := stringsToIDs(doc.Admins)
	if err != nil {
		return nil, err
	}
	mutedBy, err := stringsToIDs(doc.MutedBy)
	if err != nil {
		return nil, err
	}
	deletedBy, err := stringsToIDs(doc.DeletedBy)
	if err != nil {
		return nil, err
	}

	chat := &models.Chat{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		IconURL:     doc.IconURL,
		IsGroup:     doc.IsGroup,
		Members:     members,
		Admins:      admins,
		MutedBy:     mutedBy,
		DeletedBy:   deletedBy,
		IsActive:    doc.IsActive,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if doc.CreatorID != "" {
		creatorID, err := uuid.Parse(doc.CreatorID)
		if err != nil {
			return nil, fmt.Errorf("invalid creator ID in database: %v", err)
		}
		chat.CreatorID = creatorID
	}
	if doc.LatestMsgID != "" {
		msgID, err := uuid.Parse(doc.LatestMsgID)
		if err != nil {
			return nil, fmt.Errorf("invalid message ID in database: %v", err)
		}
		chat.LatestMessageID = &msgID
	}
	return chat, nil
}

// FindOrCreateDirectChat returns the direct conversation for the
// unordered pair, creating it on first access. The upsert keys on the
// canonical direct key, so concurrent calls and both argument orders
// converge on one document.
func (m *MongoDB) FindOrCreateDirectChat(ctx context.Context, a, b uuid.UUID) (*models.Chat, error) {
	now := time.Now()
	newDoc := chatToDocument(&models.Chat{
		ID:        uuid.New(),
		IsGroup:   false,
		Members:   []uuid.UUID{a, b},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})

	filter := bson.M{"directKey": models.DirectKey(a, b), "isGroup": false}
	update := bson.M{"$setOnInsert": newDoc}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc ChatDocument
	if err := m.Chats.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to access direct chat: %v", err)
	}
	return documentToChat(&doc)
}

// CreateChat inserts a new conversation document
func (m *MongoDB) CreateChat(ctx context.Context, chat *models.Chat) error {
	_, err := m.Chats.InsertOne(ctx, chatToDocument(chat))
	if err != nil {
		return fmt.Errorf("failed to create chat: %v", err)
	}
	return nil
}

// GetChat retrieves a conversation by its ID
func (m *MongoDB) GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	var doc ChatDocument
	err := m.Chats.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("chat")
	}
	if err != nil {
		return nil, err
	}
	return documentToChat(&doc)
}

// ListChatsFor returns the conversations the user is a member of and has
// not soft-deleted, most recently updated first.
func (m *MongoDB) ListChatsFor(ctx context.Context, userID uuid.UUID) ([]*models.Chat, error) {
	filter := bson.M{
		"members":   userID.String(),
		"deletedBy": bson.M{"$ne": userID.String()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

	cursor, err := m.Chats.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chats []*models.Chat
	for cursor.Next(ctx) {
		var doc ChatDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode chat: %v", err)
		}
		chat, err := documentToChat(&doc)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, cursor.Err()
}

func (m *MongoDB) updateChat(ctx context.Context, chatID uuid.UUID, update bson.M) error {
	set, ok := update["$set"].(bson.M)
	if !ok {
		set = bson.M{}
		update["$set"] = set
	}
	set["updatedAt"] = time.Now()

	result, err := m.Chats.UpdateOne(ctx, bson.M{"_id": chatID.String()}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("chat")
	}
	return nil
}

func (m *MongoDB) RenameChat(ctx context.Context, chatID uuid.UUID, name string) error {
	return m.updateChat(ctx, chatID, bson.M{"$set": bson.M{"name": name}})
}

func (m *MongoDB) SetChatDescription(ctx context.Context, chatID uuid.UUID, description string) error {
	return m.updateChat(ctx, chatID, bson.M{"$set": bson.M{"description": description}})
}

func (m *MongoDB) SetChatIcon(ctx context.Context, chatID uuid.UUID, iconURL string) error {
	return m.updateChat(ctx, chatID, bson.M{"$set": bson.M{"iconUrl": iconURL}})
}

func (m *MongoDB) AddChatMember(ctx context.Context, chatID, userID uuid.UUID) error {
	return m.updateChat(ctx, chatID, bson.M{"$addToSet": bson.M{"members": userID.String()}})
}

func (m *MongoDB) RemoveChatMember(ctx context.Context, chatID, userID uuid.UUID) error {
	return m.updateChat(ctx, chatID, bson.M{"$pull": bson.M{
		"members": userID.String(),
		"admins":  userID.String(),
		"mutedBy": userID.String(),
	}})
}

func (m *MongoDB) AddChatAdmin(ctx context.Context, chatID, userID uuid.UUID) error {
	return m.updateChat(ctx, chatID, bson.M{"$addToSet": bson.M{"admins": userID.String()}})
}

func (m *MongoDB) RemoveChatAdmin(ctx context.Context, chatID, userID uuid.UUID) error {
	return m.updateChat(ctx, chatID, bson.M{"$pull": bson.M{"admins": userID.String()}})
}

func (m *MongoDB) SetChatActive(ctx context.Context, chatID uuid.UUID, active bool) error {
	return m.updateChat(ctx, chatID, bson.M{"$set": bson.M{"isActive": active}})
}

func (m *MongoDB) SetChatMuted(ctx context.Context, chatID, userID uuid.UUID, muted bool) error {
	if muted {
		return m.updateChat(ctx, chatID, bson.M{"$addToSet": bson.M{"mutedBy": userID.String()}})
	}
	return m.updateChat(ctx, chatID, bson.M{"$pull": bson.M{"mutedBy": userID.String()}})
}

func (m *MongoDB) SoftDeleteChatFor(ctx context.Context, chatID, userID uuid.UUID) error {
	return m.updateChat(ctx, chatID, bson.M{"$addToSet": bson.M{"deletedBy": userID.String()}})
}

func (m *MongoDB) ClearChatDeletionFor(ctx context.Context, chatID, userID uuid.UUID) error {
	return m.updateChat(ctx, chatID, bson.M{"$pull": bson.M{"deletedBy": userID.String()}})
}

func (m *MongoDB) ClearChatDeletions(ctx context.Context, chatID uuid.UUID) error {
	return m.updateChat(ctx, chatID, bson.M{"$set": bson.M{"deletedBy": []string{}}})
}

func (m *MongoDB) SetLatestMessage(ctx context.Context, chatID, messageID uuid.UUID) error {
	return m.updateChat(ctx, chatID, bson.M{"$set": bson.M{"latestMessageId": messageID.String()}})
}

// DeleteChat permanently removes the conversation document
func (m *MongoDB) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	result, err := m.Chats.DeleteOne(ctx, bson.M{"_id": chatID.String()})
	if err != nil {
		return fmt.Errorf("failed to delete chat: %v", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewNotFoundError("chat")
	}
	return nil
}
