package interfaces

import (
	"context"
	"time"

	"tiyeni/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, tripID, id primitive.ObjectID) (*models.Booking, error)
	// ListByTrip returns bookings in creation order.
	ListByTrip(ctx context.Context, tripID primitive.ObjectID) ([]*models.Booking, error)
	// Cancel moves an ACTIVE booking to CANCELLED.
	Cancel(ctx context.Context, tripID, id primitive.ObjectID, at time.Time) (*models.Booking, error)
}
