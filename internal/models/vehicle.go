package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a car in a user's garage.
type Vehicle struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID             string             `bson:"owner_id" json:"owner_id"`
	FamilyID            string             `bson:"family_id,omitempty" json:"family_id,omitempty"`
	Name                string             `bson:"name" json:"name"`
	Make                string             `bson:"make" json:"make"`
	Model               string             `bson:"model" json:"model"`
	Year                int                `bson:"year" json:"year"`
	FuelType            string             `bson:"fuel_type" json:"fuel_type"`                                       // "petrol", "diesel", "lpg", "hybrid"
	StatedConsumption   *float64           `bson:"stated_consumption,omitempty" json:"stated_consumption,omitempty"` // L/100km
	Odometer            float64            `bson:"odometer" json:"odometer"`                                         // in kilometers
	Plate               string             `bson:"plate" json:"plate"`
	CreatedAt           time.Time          `bson:"created_at" json:"created_at"`
	LastFillAt          *time.Time         `bson:"last_fill_at" json:"last_fill_at"`
	ComputedConsumption *float64           `bson:"computed_consumption" json:"computed_consumption"`
}

// VehicleRequest is the body accepted when creating or editing a vehicle.
type VehicleRequest struct {
	Name              string   `json:"name" validate:"required,max=100"`
	Make              string   `json:"make" validate:"max=100"`
	Model             string   `json:"model" validate:"max=100"`
	Year              int      `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	FuelType          string   `json:"fuel_type" validate:"omitempty,oneof=petrol diesel lpg cng hybrid electric"`
	StatedConsumption *float64 `json:"stated_consumption" validate:"omitempty,gte=0"`
	Odometer          float64  `json:"odometer" validate:"gte=0"`
	Plate             string   `json:"plate" validate:"max=20"`
	FamilyID          string   `json:"family_id"`
}
