package interfaces

import (
	"context"

	"tiyeni/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripRepository interface {
	// Create returns ErrActiveTripExists if the driver already has an
	// active trip.
	Create(ctx context.Context, trip *models.Trip) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error)
	FindActiveByDriver(ctx context.Context, driverID string) (*models.Trip, error)
	ListByDriver(ctx context.Context, driverID string, limit int64) ([]*models.Trip, error)
	// ListAvailable returns active trips on routeID with free seats,
	// earliest departure first.
	ListAvailable(ctx context.Context, routeID string) ([]*models.Trip, error)

	// Conditional updates. Each returns the updated trip, ErrNotFound when
	// the trip is missing, or ErrConditionFailed when its state has moved on.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.TripStatus) (*models.Trip, error)
	AdvanceMilestone(ctx context.Context, id primitive.ObjectID, lastIndex int) (*models.Trip, error)
	ReserveSeats(ctx context.Context, id primitive.ObjectID, seats int) (*models.Trip, error)
	// ReleaseSeats returns seats to an active trip, capped at total_seats.
	ReleaseSeats(ctx context.Context, id primitive.ObjectID, seats int) (*models.Trip, error)
}
