package interfaces

import (
	"context"

	"tiyeni/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VehicleRepository interface {
	// Create returns ErrDuplicate when vehicle.IsDefault is set and the
	// driver already has a default vehicle.
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error)
	// Delete removes the vehicle only if driverID owns it.
	Delete(ctx context.Context, driverID string, id primitive.ObjectID) error

	// ListByDriver returns the driver's vehicles, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*models.Vehicle, error)
	CountByDriver(ctx context.Context, driverID string) (int64, error)
	GetDefault(ctx context.Context, driverID string) (*models.Vehicle, error)
	// SetDefault sets is_default = (_id == id) on every vehicle of driverID,
	// or returns ErrNotFound. Run it in a transaction.
	SetDefault(ctx context.Context, driverID string, id primitive.ObjectID) error
}
