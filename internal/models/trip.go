package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripStatus string

const (
	TripStatusNotStarted TripStatus = "NOT_STARTED"
	TripStatusOnRoute    TripStatus = "ON_ROUTE"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
)

// ActiveTripStatuses are the non-terminal statuses. A driver has at most one
// trip in either of them.
var ActiveTripStatuses = []TripStatus{TripStatusNotStarted, TripStatusOnRoute}

var tripTransitions = map[TripStatus][]TripStatus{
	TripStatusNotStarted: {TripStatusOnRoute, TripStatusCancelled},
	TripStatusOnRoute:    {TripStatusCompleted, TripStatusCancelled},
}

func (s TripStatus) IsValid() bool {
	switch s {
	case TripStatusNotStarted, TripStatusOnRoute, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

func (s TripStatus) IsActive() bool {
	return s == TripStatusNotStarted || s == TripStatusOnRoute
}

func (s TripStatus) IsTerminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	for _, allowed := range tripTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PreferredGender string

const (
	PreferredGenderAny    PreferredGender = "ANY"
	PreferredGenderMale   PreferredGender = "MALE"
	PreferredGenderFemale PreferredGender = "FEMALE"
)

func (g PreferredGender) IsValid() bool {
	switch g {
	case PreferredGenderAny, PreferredGenderMale, PreferredGenderFemale:
		return true
	}
	return false
}

// Trip carries snapshots of the driver, vehicle and route as they were at
// creation time; later edits to those records do not change the trip.
type Trip struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DriverID   string             `json:"driver_id" bson:"driver_id"`
	DriverName string             `json:"driver_name" bson:"driver_name"`

	VehicleID    primitive.ObjectID `json:"vehicle_id" bson:"vehicle_id"`
	VehicleType  VehicleType        `json:"vehicle_type" bson:"vehicle_type"`
	VehicleColor string             `json:"vehicle_color" bson:"vehicle_color"`
	VehicleImage string             `json:"vehicle_image" bson:"vehicle_image"`

	RouteID   string `json:"route_id" bson:"route_id"`
	RouteName string `json:"route_name" bson:"route_name"`
	RouteFrom string `json:"route_from" bson:"route_from"`
	RouteTo   string `json:"route_to" bson:"route_to"`

	DepartureTime time.Time `json:"departure_time" bson:"departure_time"`
	WaitingPlace  string    `json:"waiting_place" bson:"waiting_place"`
	EndingPlace   *string   `json:"ending_place" bson:"ending_place"`

	PricePerSeat   float64 `json:"price_per_seat" bson:"price_per_seat"`
	TotalSeats     int     `json:"total_seats" bson:"total_seats"`
	AvailableSeats int     `json:"available_seats" bson:"available_seats"`

	PreferredGender PreferredGender `json:"preferred_gender" bson:"preferred_gender"`
	Status          TripStatus      `json:"status" bson:"status"`
	MilestoneIndex  int             `json:"milestone_index" bson:"milestone_index"`
	Notes           *string         `json:"notes" bson:"notes"`

	// IsActive mirrors Status.IsActive() so a unique partial index can
	// enforce one active trip per driver.
	IsActive bool `json:"-" bson:"is_active"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// CurrentMilestone returns the pickup point the driver last reached, or ""
// when the index is outside the route.
func (t *Trip) CurrentMilestone(route *Route) string {
	if route == nil || t.MilestoneIndex < 0 || t.MilestoneIndex >= len(route.PickupPoints) {
		return ""
	}
	return route.PickupPoints[t.MilestoneIndex]
}
