package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for ids that are not valid object ids.
	ErrInvalidID = errors.New("invalid id")
	// ErrNilCollection is returned when a store was built without a collection.
	ErrNilCollection = errors.New("mongo collection is nil")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("duplicate key")
)

// Collection names.
const (
	UsersCollection    = "users"
	VehiclesCollection = "vehicles"
	FillsCollection    = "fills"
	FamiliesCollection = "families"
	MembersCollection  = "family_members"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Stores groups every collection the API works with.
type Stores struct {
	Users    *MongoUserCollection
	Vehicles *MongoVehicleCollection
	Fills    *MongoFillCollection
	Families *MongoFamilyCollection
	Members  *MongoMemberCollection
}

// NewStores binds the stores to the collections of database.
func NewStores(database *mongo.Database) *Stores {
	return &Stores{
		Users:    &MongoUserCollection{Collection: database.Collection(UsersCollection)},
		Vehicles: &MongoVehicleCollection{Collection: database.Collection(VehiclesCollection)},
		Fills:    &MongoFillCollection{Collection: database.Collection(FillsCollection)},
		Families: &MongoFamilyCollection{Collection: database.Collection(FamiliesCollection)},
		Members:  &MongoMemberCollection{Collection: database.Collection(MembersCollection)},
	}
}

// EnsureIndexes creates the indexes the queries rely on. It is safe to call
// on every start.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		VehiclesCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		},
		FillsCollection: {
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "date", Value: -1}}},
		},
		FamiliesCollection: {
			{Keys: bson.D{{Key: "invite_token", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		MembersCollection: {
			{Keys: bson.D{{Key: "family_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

// findAll runs a query and decodes every document into a slice.
func findAll[T any](ctx context.Context, c *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	if c == nil {
		return nil, ErrNilCollection
	}
	cursor, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// findOne decodes a single document, mapping a missing one to ErrNotFound.
func findOne[T any](ctx context.Context, c *mongo.Collection, filter interface{}, opts ...*options.FindOneOptions) (*T, error) {
	if c == nil {
		return nil, ErrNilCollection
	}
	var out T
	if err := c.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// setByID applies a $set update to the document with the given id.
func setByID(ctx context.Context, c *mongo.Collection, id string, fields bson.M) error {
	if c == nil {
		return ErrNilCollection
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := c.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteByID removes the document with the given id.
func deleteByID(ctx context.Context, c *mongo.Collection, id string) error {
	if c == nil {
		return ErrNilCollection
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := c.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
