package garage

import (
	"context"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fuellog/internal/events"
	"github.com/ukydev/fuellog/internal/models"
)

// FillsOf returns the fills a listing covers, newest first: the user's own,
// or with a familyID the fills of the vehicles shared with that family.
func (s *Service) FillsOf(ctx context.Context, userID, familyID string) ([]models.Fill, error) {
	if familyID == "" {
		return s.fills.FindFills(ctx, bson.M{"owner_id": userID})
	}
	shared, err := s.sharedVehicles(ctx, userID, familyID, "view_fills")
	if err != nil {
		return nil, err
	}
	if len(shared) == 0 {
		return []models.Fill{}, nil
	}
	ids := make([]string, 0, len(shared))
	for _, v := range shared {
		ids = append(ids, v.ID.Hex())
	}
	return s.fills.FindFills(ctx, bson.M{"vehicle_id": bson.M{"$in": ids}})
}

// GetFill returns a fill the user may see: their own, or one recorded for a
// vehicle shared with their family.
func (s *Service) GetFill(ctx context.Context, userID, id string) (*models.Fill, error) {
	f, err := s.fills.FindFillByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.OwnerID == userID {
		return f, nil
	}
	if _, err := s.GetVehicle(ctx, userID, f.VehicleID); err != nil {
		return nil, ErrForbidden
	}
	return f, nil
}

// AddFill records a fill against one of the user's vehicles.
func (s *Service) AddFill(ctx context.Context, userID string, req models.FillRequest) (*models.Fill, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if req.Liters <= 0 {
		return nil, fmt.Errorf("%w: liters must be positive", ErrInvalidFill)
	}

	v, err := s.ownedVehicle(ctx, userID, req.VehicleID)
	if err != nil {
		return nil, err
	}

	amount, price := completePrice(req.Amount, req.PricePerLiter, req.Liters)
	f := models.Fill{
		ID:            primitive.NewObjectID(),
		VehicleID:     v.ID.Hex(),
		OwnerID:       userID,
		Date:          date,
		Odometer:      req.Odometer,
		Liters:        req.Liters,
		Amount:        amount,
		PricePerLiter: price,
		Notes:         req.Notes,
		CreatedAt:     s.now().UTC(),
		VehicleName:   v.Name,
	}
	if err := s.fills.InsertFill(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to create fill: %w", err)
	}
	if err := s.refreshVehicle(ctx, v); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"fill_id":    f.ID.Hex(),
		"vehicle_id": f.VehicleID,
		"liters":     f.Liters,
	}).Info("Fill recorded")
	s.publish(ctx, events.Event{
		Type:      events.FillCreated,
		FillID:    f.ID.Hex(),
		VehicleID: f.VehicleID,
		OwnerID:   userID,
		FamilyID:  v.FamilyID,
	})
	return &f, nil
}

// UpdateFill replaces the provided fields of one of the user's fills.
func (s *Service) UpdateFill(ctx context.Context, userID, id string, patch models.FillPatch) (*models.Fill, error) {
	f, err := s.fills.FindFillByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.OwnerID != userID {
		return nil, ErrForbidden
	}
	v, err := s.ownedVehicle(ctx, userID, f.VehicleID)
	if err != nil {
		return nil, err
	}

	if patch.Date != nil {
		date, err := parseDate(*patch.Date)
		if err != nil {
			return nil, err
		}
		f.Date = date
	}
	if patch.Liters != nil {
		if *patch.Liters <= 0 {
			return nil, fmt.Errorf("%w: liters must be positive", ErrInvalidFill)
		}
		f.Liters = *patch.Liters
	}
	if patch.Odometer != nil {
		f.Odometer = patch.Odometer
	}
	if patch.Notes != nil {
		f.Notes = *patch.Notes
	}
	switch {
	case patch.Amount != nil || patch.PricePerLiter != nil:
		f.Amount, f.PricePerLiter = completePrice(patch.Amount, patch.PricePerLiter, f.Liters)
	case patch.Liters != nil && f.Amount != nil:
		// Keep the amount paid and re-derive the price for the new volume.
		f.Amount, f.PricePerLiter = completePrice(f.Amount, nil, f.Liters)
	}

	fields := bson.M{
		"date":            f.Date,
		"odometer":        f.Odometer,
		"liters":          f.Liters,
		"amount":          f.Amount,
		"price_per_liter": f.PricePerLiter,
		"notes":           f.Notes,
	}
	if err := s.fills.UpdateFill(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update fill: %w", err)
	}
	if err := s.refreshVehicle(ctx, v); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.FillUpdated,
		FillID:    id,
		VehicleID: f.VehicleID,
		OwnerID:   userID,
		FamilyID:  v.FamilyID,
	})
	return f, nil
}

// DeleteFill removes one of the user's fills and recomputes the vehicle's
// fill markers from what remains.
func (s *Service) DeleteFill(ctx context.Context, userID, id string) error {
	f, err := s.fills.FindFillByID(ctx, id)
	if err != nil {
		return err
	}
	if f.OwnerID != userID {
		return ErrForbidden
	}
	v, err := s.ownedVehicle(ctx, userID, f.VehicleID)
	if err != nil {
		return err
	}

	if err := s.fills.DeleteFill(ctx, id); err != nil {
		return fmt.Errorf("failed to delete fill: %w", err)
	}
	if err := s.refreshVehicle(ctx, v); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:      events.FillDeleted,
		FillID:    id,
		VehicleID: f.VehicleID,
		OwnerID:   userID,
		FamilyID:  v.FamilyID,
	})
	return nil
}

func parseDate(s string) (time.Time, error) {
	date, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidFill)
	}
	return date, nil
}

// completePrice fills in whichever of amount and price per liter is missing
// when the other one is known.
func completePrice(amount, price *float64, liters float64) (*float64, *float64) {
	switch {
	case amount != nil && price == nil && liters > 0:
		p := round(*amount/liters, 3)
		price = &p
	case amount == nil && price != nil:
		a := round(*price*liters, 2)
		amount = &a
	}
	return amount, price
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
