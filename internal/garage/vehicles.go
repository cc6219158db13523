package garage

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fuellog/internal/db"
	"github.com/ukydev/fuellog/internal/events"
	"github.com/ukydev/fuellog/internal/models"
)

// ListVehicles returns the user's own vehicles and those shared with any
// family they belong to.
func (s *Service) ListVehicles(ctx context.Context, userID string) ([]models.Vehicle, error) {
	familyIDs, err := s.familyIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"owner_id": userID}
	if len(familyIDs) > 0 {
		filter = bson.M{"$or": bson.A{
			bson.M{"owner_id": userID},
			bson.M{"family_id": bson.M{"$in": familyIDs}},
		}}
	}
	return s.vehicles.FindVehicles(ctx, filter)
}

// VehiclesOf returns the vehicles a dashboard covers: the user's own, or with
// a familyID the vehicles shared with that family.
func (s *Service) VehiclesOf(ctx context.Context, userID, familyID string) ([]models.Vehicle, error) {
	if familyID == "" {
		return s.vehicles.FindVehicles(ctx, bson.M{"owner_id": userID})
	}
	return s.sharedVehicles(ctx, userID, familyID, "view_vehicles")
}

// sharedVehicles lists the vehicles shared with familyID once the user's role
// there is checked for action.
func (s *Service) sharedVehicles(ctx context.Context, userID, familyID, action string) ([]models.Vehicle, error) {
	ok, err := s.memberMay(ctx, familyID, userID, action)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.vehicles.FindVehicles(ctx, bson.M{"family_id": familyID})
}

// GetVehicle returns a vehicle the user may see.
func (s *Service) GetVehicle(ctx context.Context, userID, id string) (*models.Vehicle, error) {
	v, err := s.vehicles.FindVehicleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.canRead(ctx, userID, v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return v, nil
}

// ownedVehicle loads a vehicle and checks that userID owns it.
func (s *Service) ownedVehicle(ctx context.Context, userID, id string) (*models.Vehicle, error) {
	v, err := s.vehicles.FindVehicleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.OwnerID != userID {
		return nil, ErrForbidden
	}
	return v, nil
}

// checkFamily verifies the user belongs to the family a vehicle is shared with.
func (s *Service) checkFamily(ctx context.Context, userID, familyID string) error {
	if familyID == "" {
		return nil
	}
	_, err := s.members.FindMembership(ctx, familyID, userID)
	if errors.Is(err, db.ErrNotFound) {
		return ErrForbidden
	}
	return err
}

// CreateVehicle adds a vehicle to the user's garage.
func (s *Service) CreateVehicle(ctx context.Context, userID string, req models.VehicleRequest) (*models.Vehicle, error) {
	if err := s.checkFamily(ctx, userID, req.FamilyID); err != nil {
		return nil, err
	}

	v := models.Vehicle{
		ID:                primitive.NewObjectID(),
		OwnerID:           userID,
		FamilyID:          req.FamilyID,
		Name:              req.Name,
		Make:              req.Make,
		Model:             req.Model,
		Year:              req.Year,
		FuelType:          req.FuelType,
		StatedConsumption: req.StatedConsumption,
		Odometer:          req.Odometer,
		Plate:             req.Plate,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.vehicles.InsertVehicle(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	log.WithFields(log.Fields{
		"vehicle_id": v.ID.Hex(),
		"owner_id":   userID,
	}).Info("Vehicle created")
	return &v, nil
}

// UpdateVehicle replaces the editable fields of an owned vehicle. The
// odometer never moves backwards.
func (s *Service) UpdateVehicle(ctx context.Context, userID, id string, req models.VehicleRequest) (*models.Vehicle, error) {
	v, err := s.ownedVehicle(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkFamily(ctx, userID, req.FamilyID); err != nil {
		return nil, err
	}

	odometer := v.Odometer
	if req.Odometer > odometer {
		odometer = req.Odometer
	}
	fields := bson.M{
		"name":               req.Name,
		"make":               req.Make,
		"model":              req.Model,
		"year":               req.Year,
		"fuel_type":          req.FuelType,
		"stated_consumption": req.StatedConsumption,
		"odometer":           odometer,
		"plate":              req.Plate,
		"family_id":          req.FamilyID,
	}
	if err := s.vehicles.UpdateVehicle(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	v.Name = req.Name
	v.Make = req.Make
	v.Model = req.Model
	v.Year = req.Year
	v.FuelType = req.FuelType
	v.StatedConsumption = req.StatedConsumption
	v.Odometer = odometer
	v.Plate = req.Plate
	v.FamilyID = req.FamilyID
	return v, nil
}

// DeleteVehicle removes an owned vehicle together with all of its fills and
// reports how many fills were removed.
func (s *Service) DeleteVehicle(ctx context.Context, userID, id string) (int64, error) {
	v, err := s.ownedVehicle(ctx, userID, id)
	if err != nil {
		return 0, err
	}

	removed, err := s.fills.DeleteFillsByVehicle(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete vehicle fills: %w", err)
	}
	if err := s.vehicles.DeleteVehicle(ctx, id); err != nil {
		return removed, fmt.Errorf("failed to delete vehicle: %w", err)
	}

	log.WithFields(log.Fields{
		"vehicle_id": id,
		"fills":      removed,
	}).Info("Vehicle deleted")
	s.publish(ctx, events.Event{
		Type:      events.VehicleDeleted,
		VehicleID: id,
		OwnerID:   userID,
		FamilyID:  v.FamilyID,
	})
	return removed, nil
}
