package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the calendar date format fills are submitted with.
const DateLayout = "2006-01-02"

// Fill represents one fuel purchase for one vehicle.
type Fill struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID     string             `bson:"vehicle_id" json:"vehicle_id"`
	OwnerID       string             `bson:"owner_id" json:"owner_id"`
	Date          time.Time          `bson:"date" json:"date"`
	Odometer      *float64           `bson:"odometer,omitempty" json:"odometer"` // in kilometers
	Liters        float64            `bson:"liters" json:"liters"`
	Amount        *float64           `bson:"amount,omitempty" json:"amount"` // total paid
	PricePerLiter *float64           `bson:"price_per_liter,omitempty" json:"price_per_liter"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	VehicleName   string             `bson:"vehicle_name,omitempty" json:"vehicle_name,omitempty"`
}

// AmountOrZero returns the amount paid, treating a missing amount as zero.
func (f Fill) AmountOrZero() float64 {
	if f.Amount == nil {
		return 0
	}
	return *f.Amount
}

// PriceOrZero returns the price per liter, treating a missing price as zero.
func (f Fill) PriceOrZero() float64 {
	if f.PricePerLiter == nil {
		return 0
	}
	return *f.PricePerLiter
}

// FillRequest is the body accepted when recording a fill. On update every
// field is optional and only the provided ones are replaced.
type FillRequest struct {
	VehicleID     string   `json:"vehicle_id" validate:"required"`
	Date          string   `json:"date" validate:"required,datetime=2006-01-02"`
	Odometer      *float64 `json:"odometer" validate:"omitempty,gte=0"`
	Liters        float64  `json:"liters" validate:"gt=0"`
	Amount        *float64 `json:"amount" validate:"omitempty,gte=0"`
	PricePerLiter *float64 `json:"price_per_liter" validate:"omitempty,gte=0"`
	Notes         string   `json:"notes" validate:"max=500"`
}

// FillPatch carries a partial fill update.
type FillPatch struct {
	Date          *string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Odometer      *float64 `json:"odometer" validate:"omitempty,gte=0"`
	Liters        *float64 `json:"liters" validate:"omitempty,gt=0"`
	Amount        *float64 `json:"amount" validate:"omitempty,gte=0"`
	PricePerLiter *float64 `json:"price_per_liter" validate:"omitempty,gte=0"`
	Notes         *string  `json:"notes" validate:"omitempty,max=500"`
}
