package interfaces

import (
	"context"

	"tiyeni/internal/models"
)

type UserRepository interface {
	// Create returns ErrDuplicate when the email or uid is taken.
	Create(ctx context.Context, user *models.User) error
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRole(ctx context.Context, uid string, role models.UserRole) error
}
