package interfaces

import (
	"context"

	"tiyeni/internal/models"
)

type DriverRepository interface {
	// Upsert writes the whole profile, replacing any earlier registration.
	Upsert(ctx context.Context, driver *models.Driver) error
	GetByUID(ctx context.Context, uid string) (*models.Driver, error)
}
