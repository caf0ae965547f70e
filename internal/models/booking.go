package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "ACTIVE"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is a passenger's hold on SeatsBooked seats of one trip.
type Booking struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TripID        primitive.ObjectID `json:"trip_id" bson:"trip_id"`
	PassengerID   string             `json:"passenger_id" bson:"passenger_id"`
	PassengerName string             `json:"passenger_name" bson:"passenger_name"`
	SeatsBooked   int                `json:"seats_booked" bson:"seats_booked"`
	Status        BookingStatus      `json:"status" bson:"status"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}
