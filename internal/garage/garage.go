// Package garage owns vehicles and their fills: it enforces who may read or
// change them and keeps each vehicle's denormalized fill markers current.
package garage

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/fuellog/internal/db"
	"github.com/ukydev/fuellog/internal/events"
	"github.com/ukydev/fuellog/internal/fills"
	"github.com/ukydev/fuellog/internal/models"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidFill = errors.New("invalid fill")
)

// DefaultPublishTimeout bounds how long a write waits on the event broker.
const DefaultPublishTimeout = 3 * time.Second

// Service implements vehicle and fill operations for one user at a time.
type Service struct {
	vehicles  db.VehicleCollection
	fills     db.FillCollection
	members   db.MemberCollection
	publisher events.Publisher
	// publishTimeout bounds each event publish.
	publishTimeout time.Duration
	now            func() time.Time
}

// NewService creates a garage service. A nil publisher discards events.
func NewService(vehicles db.VehicleCollection, fillStore db.FillCollection, members db.MemberCollection, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		vehicles:  vehicles,
		fills:     fillStore,
		members:   members,
		publisher:      publisher,
		publishTimeout: DefaultPublishTimeout,
		now:            time.Now,
	}
}

// familyIDs returns the ids of every family userID belongs to.
func (s *Service) familyIDs(ctx context.Context, userID string) ([]string, error) {
	memberships, err := s.members.FindMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.FamilyID)
	}
	return ids, nil
}

// canRead reports whether userID may see the vehicle: it is theirs, or it is
// shared with a family they belong to.
func (s *Service) canRead(ctx context.Context, userID string, v *models.Vehicle) (bool, error) {
	if v.OwnerID == userID {
		return true, nil
	}
	if v.FamilyID == "" {
		return false, nil
	}
	return s.memberMay(ctx, v.FamilyID, userID, "view_vehicles")
}

// memberMay reports whether userID holds a valid role in familyID that allows
// action.
func (s *Service) memberMay(ctx context.Context, familyID, userID, action string) (bool, error) {
	m, err := s.members.FindMembership(ctx, familyID, userID)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return models.IsValidFamilyRole(m.Role) && m.Role.Allows(action), nil
}

// publish sends e without letting a slow broker hold up the caller.
func (s *Service) publish(ctx context.Context, e events.Event) {
	e.At = s.now().UTC()
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"type":       e.Type,
			"vehicle_id": e.VehicleID,
		}).Warn("Failed to publish event")
	}
}

// refreshVehicle recomputes the fill-derived fields of a vehicle after its
// fills changed.
func (s *Service) refreshVehicle(ctx context.Context, v *models.Vehicle) error {
	vehicleID := v.ID.Hex()
	history, err := s.fills.FindFills(ctx, bson.M{"vehicle_id": vehicleID})
	if err != nil {
		return fmt.Errorf("failed to load vehicle fills: %w", err)
	}
	latest, err := s.fills.LatestFill(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("failed to load latest fill: %w", err)
	}

	odometer := v.Odometer
	for _, f := range history {
		if f.Odometer != nil && *f.Odometer > odometer {
			odometer = *f.Odometer
		}
	}

	fields := bson.M{
		"odometer":             odometer,
		"computed_consumption": fills.VehicleConsumption(history),
		"last_fill_at":         nil,
	}
	if latest != nil {
		date := latest.Date
		fields["last_fill_at"] = &date
	}

	if err := s.vehicles.UpdateVehicle(ctx, vehicleID, fields); err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	return nil
}
