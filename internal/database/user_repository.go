// internal/database/user_repository.go
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

// UserDocument represents the MongoDB schema for a user
type UserDocument struct {
	ID             string    `bson:"_id"`
	Username       string    `bson:"username"`
	Name           string    `bson:"name"`
	Email          string    `bson:"email"`
	HashedPassword string    `bson:"hashedPassword"`
	Bio            string    `bson:"bio,omitempty"`
	AvatarURL      string    `bson:"avatarUrl,omitempty"`
	Visibility     string    `bson:"visibility"`
	Friends        []string  `bson:"friends"`
	Blocked        []string  `bson:"blocked"`
	IsOnline       bool      `bson:"isOnline"`
	LastSeen       time.Time `bson:"lastSeen"`
	CreatedAt      time.Time `bson:"createdAt"`
}

func userToDocument(user *models.User) UserDocument {
	return UserDocument{
		ID:             user.ID.String(),
		Username:       user.Username,
		Name:           user.Name,
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		Bio:            user.Bio,
		AvatarURL:      user.AvatarURL,
		Visibility:     string(user.Visibility),
		Friends:        idsToStrings(user.Friends),
		Blocked:        idsToStrings(user.Blocked),
		IsOnline:       user.IsOnline,
		LastSeen:       user.LastSeen,
		CreatedAt:      user.CreatedAt,
	}
}

func documentToUser(doc *UserDocument) (*models.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %v", err)
	}
	friends, err := stringsToIDs(doc.Friends)
	if err != nil {
		return nil, err
	}
	blocked, err := stringsToIDs(doc.Blocked)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:             id,
		Username:       doc.Username,
		Name:           doc.Name,
		Email:          doc.Email,
		HashedPassword: doc.HashedPassword,
		Bio:            doc.Bio,
		AvatarURL:      doc.AvatarURL,
		Visibility:     models.Visibility(doc.Visibility),
		Friends:        friends,
		Blocked:        blocked,
		IsOnline:       doc.IsOnline,
		LastSeen:       doc.LastSeen,
		CreatedAt:      doc.CreatedAt,
	}, nil
}

// SaveUser creates or updates a user in MongoDB
func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	doc := userToDocument(user)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": user.ID.String()}
	update := bson.M{"$set": doc}

	_, err := m.Users.UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("user")
	}
	if err != nil {
		return nil, err
	}
	return documentToUser(&doc)
}

// GetUser retrieves a user from MongoDB by their ID
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id.String()})
}

// GetUserByEmail retrieves a user from MongoDB by their email address
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

// GetUserByUsername retrieves a user from MongoDB by their handle
func (m *MongoDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"username": username})
}

// SearchUsers finds users whose name or username matches the query,
// excluding the searching user.
func (m *MongoDB) SearchUsers(ctx context.Context, query string, exclude uuid.UUID) ([]*models.User, error) {
	filter := bson.M{"_id": bson.M{"$ne": exclude.String()}}
	if query != "" {
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": query, "$options": "i"}},
			bson.M{"username": bson.M{"$regex": query, "$options": "i"}},
		}
	}

	cursor, err := m.Users.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %v", err)
		}
		user, err := documentToUser(&doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, cursor.Err()
}

func (m *MongoDB) updateUser(ctx context.Context, id uuid.UUID, update bson.M) error {
	result, err := m.Users.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("user")
	}
	return nil
}

// SetVisibility updates a user's privacy setting
func (m *MongoDB) SetVisibility(ctx context.Context, id uuid.UUID, visibility models.Visibility) error {
	return m.updateUser(ctx, id, bson.M{"$set": bson.M{"visibility": string(visibility)}})
}

// SetUserPresence updates a user's online flag and last-seen time
func (m *MongoDB) SetUserPresence(ctx context.Context, id uuid.UUID, online bool) error {
	return m.updateUser(ctx, id, bson.M{"$set": bson.M{
		"isOnline": online,
		"lastSeen": time.Now(),
	}})
}

// BlockUser adds target to actor's blocked set. The friend list is left
// untouched so unblocking restores messaging without re-friending.
func (m *MongoDB) BlockUser(ctx context.Context, actor, target uuid.UUID) error {
	return m.updateUser(ctx, actor, bson.M{"$addToSet": bson.M{"blocked": target.String()}})
}

// UnblockUser removes target from actor's blocked set
func (m *MongoDB) UnblockUser(ctx context.Context, actor, target uuid.UUID) error {
	return m.updateUser(ctx, actor, bson.M{"$pull": bson.M{"blocked": target.String()}})
}

// AddFriendPair adds both directions of a friendship inside one
// transaction, so either both lists gain the entry or neither does.
func (m *MongoDB) AddFriendPair(ctx context.Context, a, b uuid.UUID) error {
	session, err := m.Client.StartSession()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := m.updateUser(sc, a, bson.M{"$addToSet": bson.M{"friends": b.String()}}); err != nil {
			return nil, err
		}
		if err := m.updateUser(sc, b, bson.M{"$addToSet": bson.M{"friends": a.String()}}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// RemoveFriend removes target from actor's friend list only. Removal is
// deliberately one-directional.
func (m *MongoDB) RemoveFriend(ctx context.Context, actor, target uuid.UUID) error {
	return m.updateUser(ctx, actor, bson.M{"$pull": bson.M{"friends": target.String()}})
}
