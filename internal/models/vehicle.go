package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VehicleType string

const (
	VehicleTypeCar     VehicleType = "Car"
	VehicleTypeMinibus VehicleType = "Minibus"
	VehicleTypeBus     VehicleType = "Bus"
)

func (t VehicleType) IsValid() bool {
	switch t {
	case VehicleTypeCar, VehicleTypeMinibus, VehicleTypeBus:
		return true
	}
	return false
}

// Vehicle belongs to exactly one driver. At most one of a driver's vehicles
// has IsDefault set.
type Vehicle struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DriverID  string             `json:"driver_id" bson:"driver_id"`
	Type      VehicleType        `json:"type" bson:"type"`
	Color     string             `json:"color" bson:"color"`
	Seats     int                `json:"seats" bson:"seats"`
	ImageURL  string             `json:"image_url" bson:"image_url"`
	IsDefault bool               `json:"is_default" bson:"is_default"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
