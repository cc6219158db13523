package db

import (
	"context"
	"errors"

	"github.com/ukydev/fuellog/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FillCollection defines the interface for fill data operations.
type FillCollection interface {
	InsertFill(ctx context.Context, fill models.Fill) error
	FindFills(ctx context.Context, filter bson.M) ([]models.Fill, error)
	FindFillByID(ctx context.Context, id string) (*models.Fill, error)
	UpdateFill(ctx context.Context, id string, fields bson.M) error
	DeleteFill(ctx context.Context, id string) error
	DeleteFillsByVehicle(ctx context.Context, vehicleID string) (int64, error)
	LatestFill(ctx context.Context, vehicleID string) (*models.Fill, error)
}

// MongoFillCollection implements FillCollection for MongoDB.
type MongoFillCollection struct {
	Collection *mongo.Collection
}

// InsertFill inserts a fill record into the collection.
func (c *MongoFillCollection) InsertFill(ctx context.Context, fill models.Fill) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	_, err := c.Collection.InsertOne(ctx, fill)
	return err
}

// FindFills queries fill records, most recent first.
func (c *MongoFillCollection) FindFills(ctx context.Context, filter bson.M) ([]models.Fill, error) {
	return findAll[models.Fill](ctx, c.Collection, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}

// FindFillByID finds a fill by its ID.
func (c *MongoFillCollection) FindFillByID(ctx context.Context, id string) (*models.Fill, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Fill](ctx, c.Collection, bson.M{"_id": oid})
}

// UpdateFill sets the given fields on a fill.
func (c *MongoFillCollection) UpdateFill(ctx context.Context, id string, fields bson.M) error {
	return setByID(ctx, c.Collection, id, fields)
}

// DeleteFill deletes a fill by its ID.
func (c *MongoFillCollection) DeleteFill(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id)
}

// DeleteFillsByVehicle removes every fill of a vehicle and reports how many
// were deleted.
func (c *MongoFillCollection) DeleteFillsByVehicle(ctx context.Context, vehicleID string) (int64, error) {
	if c.Collection == nil {
		return 0, ErrNilCollection
	}
	result, err := c.Collection.DeleteMany(ctx, bson.M{"vehicle_id": vehicleID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// LatestFill returns the most recent fill of a vehicle, or nil when the
// vehicle has none.
func (c *MongoFillCollection) LatestFill(ctx context.Context, vehicleID string) (*models.Fill, error) {
	fill, err := findOne[models.Fill](ctx, c.Collection, bson.M{"vehicle_id": vehicleID},
		options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}}))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return fill, err
}
