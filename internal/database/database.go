// internal/database/database.go
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-hive/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the document-style persistence contract the core depends on.
// Implemented by MongoDB for production and MemoryStore for tests and the
// simulator. Every method that mutates a single document must be atomic
// at document granularity.
type Store interface {
	// Users
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SearchUsers(ctx context.Context, query string, exclude uuid.UUID) ([]*models.User, error)
	SetVisibility(ctx context.Context, id uuid.UUID, visibility models.Visibility) error
	SetUserPresence(ctx context.Context, id uuid.UUID, online bool) error
	BlockUser(ctx context.Context, actor, target uuid.UUID) error
	UnblockUser(ctx context.Context, actor, target uuid.UUID) error
	// AddFriendPair adds each user to the other's friend list; both writes
	// commit or neither does.
	AddFriendPair(ctx context.Context, a, b uuid.UUID) error
	// RemoveFriend removes target from actor's list only.
	RemoveFriend(ctx context.Context, actor, target uuid.UUID) error

	// Chats
	FindOrCreateDirectChat(ctx context.Context, a, b uuid.UUID) (*models.Chat, error)
	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	ListChatsFor(ctx context.Context, userID uuid.UUID) ([]*models.Chat, error)
	RenameChat(ctx context.Context, chatID uuid.UUID, name string) error
	SetChatDescription(ctx context.Context, chatID uuid.UUID, description string) error
	SetChatIcon(ctx context.Context, chatID uuid.UUID, iconURL string) error
	AddChatMember(ctx context.Context, chatID, userID uuid.UUID) error
	// RemoveChatMember pulls the user from members, admins and mutedBy in
	// one document update.
	RemoveChatMember(ctx context.Context, chatID, userID uuid.UUID) error
	AddChatAdmin(ctx context.Context, chatID, userID uuid.UUID) error
	RemoveChatAdmin(ctx context.Context, chatID, userID uuid.UUID) error
	SetChatActive(ctx context.Context, chatID uuid.UUID, active bool) error
	SetChatMuted(ctx context.Context, chatID, userID uuid.UUID, muted bool) error
	SoftDeleteChatFor(ctx context.Context, chatID, userID uuid.UUID) error
	// ClearChatDeletionFor removes one member's deletedBy marker; other
	// members' markers are untouched.
	ClearChatDeletionFor(ctx context.Context, chatID, userID uuid.UUID) error
	// ClearChatDeletions empties the chat's deletedBy set so the chat
	// resurfaces for every member who had hidden it.
	ClearChatDeletions(ctx context.Context, chatID uuid.UUID) error
	SetLatestMessage(ctx context.Context, chatID, messageID uuid.UUID) error
	DeleteChat(ctx context.Context, chatID uuid.UUID) error

	// Messages
	SaveMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListMessagesFor(ctx context.Context, chatID, viewer uuid.UUID) ([]*models.Message, error)
	// MarkMessagesRead appends reader to every message in the chat that was
	// authored by someone else and not yet read by them. Idempotent.
	MarkMessagesRead(ctx context.Context, chatID, reader uuid.UUID) (int64, error)
	SoftDeleteMessagesFor(ctx context.Context, chatID, userID uuid.UUID) error
	DeleteMessage(ctx context.Context, id uuid.UUID) error
	DeleteChatMessages(ctx context.Context, chatID uuid.UUID) error

	// Invites
	CreateInvite(ctx context.Context, invite *models.Invite) error
	GetInvite(ctx context.Context, id uuid.UUID) (*models.Invite, error)
	// FindPendingInvite returns nil, nil when no pending invite matches the
	// (from, to, kind, group) tuple.
	FindPendingInvite(ctx context.Context, from, to uuid.UUID, kind models.InviteKind, group *uuid.UUID) (*models.Invite, error)
	SetInviteStatus(ctx context.Context, id uuid.UUID, status models.InviteStatus) error
	SetInviteRead(ctx context.Context, id uuid.UUID) error
	ListPendingReceived(ctx context.Context, userID uuid.UUID) ([]*models.Invite, error)
	ListPendingSent(ctx context.Context, userID uuid.UUID) ([]*models.Invite, error)

	// Counts for the health endpoint
	CountUsers(ctx context.Context) (int64, error)
	CountChats(ctx context.Context) (int64, error)
	CountMessages(ctx context.Context) (int64, error)
}

type MongoDB struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Chats    *mongo.Collection
	Messages *mongo.Collection
	Invites  *mongo.Collection
}

var _ Store = (*MongoDB)(nil)

func NewMongoDB(uri, dbName string) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	slog.Info("connected to MongoDB", "database", dbName)

	db := client.Database(dbName)
	return &MongoDB{
		Client:   client,
		Users:    db.Collection("users"),
		Chats:    db.Collection("chats"),
		Messages: db.Collection("messages"),
		Invites:  db.Collection("invites"),
	}, nil
}

// EnsureIndexes creates the indexes the query paths rely on.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	if _, err := m.Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create user indexes: %v", err)
	}
	if _, err := m.Chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "directKey", Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.M{"isGroup": false}),
	}); err != nil {
		return fmt.Errorf("failed to create chat indexes: %v", err)
	}
	if _, err := m.Messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chatId", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create message indexes: %v", err)
	}
	if _, err := m.Invites.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "toId", Value: 1}, {Key: "status", Value: 1}, {Key: "kind", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create invite indexes: %v", err)
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func (m *MongoDB) CountUsers(ctx context.Context) (int64, error) {
	return m.Users.CountDocuments(ctx, bson.M{})
}

func (m *MongoDB) CountChats(ctx context.Context) (int64, error) {
	return m.Chats.CountDocuments(ctx, bson.M{})
}

func (m *MongoDB) CountMessages(ctx context.Context) (int64, error) {
	return m.Messages.CountDocuments(ctx, bson.M{})
}

// idsToStrings converts entity references for document storage; IDs are
// stored as their string form, matching the _id convention.
func idsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringsToIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid ID in database: %v", err)
		}
		out[i] = id
	}
	return out, nil
}
