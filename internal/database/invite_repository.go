// internal/database/invite_repository.go
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

// InviteDocument represents the MongoDB schema for an invite
type InviteDocument struct {
	ID        string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	FromID    string    `bson:"fromId"`
	ToID      string    `bson:"toId"`
	GroupID   string    `bson:"groupId,omitempty"`
	Status    string    `bson:"status"`
	Note      string    `bson:"note,omitempty"`
	Read      bool      `bson:"read"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func inviteToDocument(invite *models.Invite) InviteDocument {
	doc := InviteDocument{
		ID:        invite.ID.String(),
		Kind:      string(invite.Kind),
		FromID:    invite.FromID.String(),
		ToID:      invite.ToID.String(),
		Status:    string(invite.Status),
		Note:      invite.Note,
		Read:      invite.Read,
		CreatedAt: invite.CreatedAt,
		UpdatedAt: invite.UpdatedAt,
	}
	if invite.GroupID != nil {
		doc.GroupID = invite.GroupID.String()
	}
	return doc
}

func documentToInvite(doc *InviteDocument) (*models.Invite, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid invite ID in database: %v", err)
	}
	fromID, err := uuid.Parse(doc.FromID)
	if err != nil {
		return nil, fmt.Errorf("invalid sender ID in database: %v", err)
	}
	toID, err := uuid.Parse(doc.ToID)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient ID in database: %v", err)
	}

	invite := &models.Invite{
		ID:        id,
		Kind:      models.InviteKind(doc.Kind),
		FromID:    fromID,
		ToID:      toID,
		Status:    models.InviteStatus(doc.Status),
		Note:      doc.Note,
		Read:      doc.Read,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if doc.GroupID != "" {
		groupID, err := uuid.Parse(doc.GroupID)
		if err != nil {
			return nil, fmt.Errorf("invalid group ID in database: %v", err)
		}
		invite.GroupID = &groupID
	}
	return invite, nil
}

// CreateInvite inserts a new invite document
func (m *MongoDB) CreateInvite(ctx context.Context, invite *models.Invite) error {
	_, err := m.Invites.InsertOne(ctx, inviteToDocument(invite))
	if err != nil {
		return fmt.Errorf("failed to create invite: %v", err)
	}
	return nil
}

// GetInvite retrieves an invite by its ID
func (m *MongoDB) GetInvite(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	var doc InviteDocument
	err := m.Invites.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("invite")
	}
	if err != nil {
		return nil, err
	}
	return documentToInvite(&doc)
}

// FindPendingInvite looks up the pending invite for the exact
// (from, to, kind, group) tuple; nil, nil when none exists.
func (m *MongoDB) FindPendingInvite(ctx context.Context, from, to uuid.UUID, kind models.InviteKind, group *uuid.UUID) (*models.Invite, error) {
	filter := bson.M{
		"fromId": from.String(),
		"toId":   to.String(),
		"kind":   string(kind),
		"status": string(models.InvitePending),
	}
	if group != nil {
		filter["groupId"] = group.String()
	} else {
		filter["groupId"] = bson.M{"$exists": false}
	}

	var doc InviteDocument
	err := m.Invites.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return documentToInvite(&doc)
}

func (m *MongoDB) updateInvite(ctx context.Context, id uuid.UUID, update bson.M) error {
	set, ok := update["$set"].(bson.M)
	if !ok {
		set = bson.M{}
		update["$set"] = set
	}
	set["updatedAt"] = time.Now()

	result, err := m.Invites.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("invite")
	}
	return nil
}

// SetInviteStatus records a state-machine transition; transition
// validation happens in the invite actor.
func (m *MongoDB) SetInviteStatus(ctx context.Context, id uuid.UUID, status models.InviteStatus) error {
	return m.updateInvite(ctx, id, bson.M{"$set": bson.M{"status": string(status)}})
}

// SetInviteRead marks the invite read; advisory only
func (m *MongoDB) SetInviteRead(ctx context.Context, id uuid.UUID) error {
	return m.updateInvite(ctx, id, bson.M{"$set": bson.M{"read": true}})
}

func (m *MongoDB) listPendingInvites(ctx context.Context, filter bson.M) ([]*models.Invite, error) {
	filter["status"] = string(models.InvitePending)
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := m.Invites.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var invites []*models.Invite
	for cursor.Next(ctx) {
		var doc InviteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode invite: %v", err)
		}
		invite, err := documentToInvite(&doc)
		if err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, cursor.Err()
}

// ListPendingReceived returns pending invites addressed to the user,
// newest first.
func (m *MongoDB) ListPendingReceived(ctx context.Context, userID uuid.UUID) ([]*models.Invite, error) {
	return m.listPendingInvites(ctx, bson.M{"toId": userID.String()})
}

// ListPendingSent returns pending invites the user has sent, newest first.
func (m *MongoDB) ListPendingSent(ctx context.Context, userID uuid.UUID) ([]*models.Invite, error) {
	return m.listPendingInvites(ctx, bson.M{"fromId": userID.String()})
}
