package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fuellog/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FamilyCollection defines the interface for family data operations.
type FamilyCollection interface {
	InsertFamily(ctx context.Context, family models.Family) error
	FindFamilyByID(ctx context.Context, id string) (*models.Family, error)
	FindFamilyByInviteToken(ctx context.Context, token string) (*models.Family, error)
	UpdateFamily(ctx context.Context, id string, fields bson.M) error
	ConsumeInvite(ctx context.Context, token string, now time.Time) (*models.Family, error)
	DeleteFamily(ctx context.Context, id string) error
}

// MemberCollection defines the interface for family membership operations.
type MemberCollection interface {
	InsertMember(ctx context.Context, member models.FamilyMember) error
	FindMembers(ctx context.Context, familyID string) ([]models.FamilyMember, error)
	FindMembership(ctx context.Context, familyID, userID string) (*models.FamilyMember, error)
	FindMembershipsByUser(ctx context.Context, userID string) ([]models.FamilyMember, error)
	DeleteMember(ctx context.Context, familyID, userID string) error
	DeleteMembers(ctx context.Context, familyID string) error
}

// MongoFamilyCollection implements FamilyCollection for MongoDB.
type MongoFamilyCollection struct {
	Collection *mongo.Collection
}

// InsertFamily inserts a family into the collection.
func (c *MongoFamilyCollection) InsertFamily(ctx context.Context, family models.Family) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	_, err := c.Collection.InsertOne(ctx, family)
	return err
}

// FindFamilyByID finds a family by its ID.
func (c *MongoFamilyCollection) FindFamilyByID(ctx context.Context, id string) (*models.Family, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Family](ctx, c.Collection, bson.M{"_id": oid})
}

// FindFamilyByInviteToken finds the family an invite token belongs to.
func (c *MongoFamilyCollection) FindFamilyByInviteToken(ctx context.Context, token string) (*models.Family, error) {
	return findOne[models.Family](ctx, c.Collection, bson.M{"invite_token": token})
}

// UpdateFamily sets the given fields on a family.
func (c *MongoFamilyCollection) UpdateFamily(ctx context.Context, id string, fields bson.M) error {
	return setByID(ctx, c.Collection, id, fields)
}

// ConsumeInvite removes an invite token that is still valid at now and returns
// the family it belonged to. Only one caller can consume a given token; the
// others get ErrNotFound.
func (c *MongoFamilyCollection) ConsumeInvite(ctx context.Context, token string, now time.Time) (*models.Family, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	filter := bson.M{
		"invite_token":      token,
		"invite_expires_at": bson.M{"$gt": now},
	}
	update := bson.M{"$unset": bson.M{"invite_token": "", "invite_expires_at": ""}}
	var family models.Family
	err := c.Collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&family)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &family, nil
}

// DeleteFamily deletes a family by its ID.
func (c *MongoFamilyCollection) DeleteFamily(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// MongoMemberCollection implements MemberCollection for MongoDB.
type MongoMemberCollection struct {
	Collection *mongo.Collection
}

// InsertMember adds a membership. A second membership of the same user in the
// same family fails with ErrDuplicate.
func (c *MongoMemberCollection) InsertMember(ctx context.Context, member models.FamilyMember) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	_, err := c.Collection.InsertOne(ctx, member)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// FindMembers lists the members of a family in joining order.
func (c *MongoMemberCollection) FindMembers(ctx context.Context, familyID string) ([]models.FamilyMember, error) {
	return findAll[models.FamilyMember](ctx, c.Collection, bson.M{"family_id": familyID},
		options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}}))
}

// FindMembership returns a user's membership of a family.
func (c *MongoMemberCollection) FindMembership(ctx context.Context, familyID, userID string) (*models.FamilyMember, error) {
	return findOne[models.FamilyMember](ctx, c.Collection, bson.M{"family_id": familyID, "user_id": userID})
}

// FindMembershipsByUser lists every family a user belongs to.
func (c *MongoMemberCollection) FindMembershipsByUser(ctx context.Context, userID string) ([]models.FamilyMember, error) {
	return findAll[models.FamilyMember](ctx, c.Collection, bson.M{"user_id": userID})
}

// DeleteMember removes a user from a family.
func (c *MongoMemberCollection) DeleteMember(ctx context.Context, familyID, userID string) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"family_id": familyID, "user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMembers removes every membership of a family.
func (c *MongoMemberCollection) DeleteMembers(ctx context.Context, familyID string) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	_, err := c.Collection.DeleteMany(ctx, bson.M{"family_id": familyID})
	return err
}
