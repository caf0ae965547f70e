package services

import (
	"context"
	"errors"
	"time"

	"tiyeni/internal/models"
	"tiyeni/internal/repositories/interfaces"
	"tiyeni/internal/utils"
	"tiyeni/internal/validators"
	"tiyeni/pkg/logger"
	"tiyeni/pkg/pubsub"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

// Deps bundles what every service needs besides its repositories.
type Deps struct {
	Tx      interfaces.Transactor
	Bus     pubsub.Bus
	Logger  *logger.Logger
	Clock   Clock
	Timeout time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = SystemClock
	}
	if d.Timeout <= 0 {
		d.Timeout = utils.DefaultBackendTimeout
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	return d
}

// backend bounds a store call so a network stall cannot hang the caller.
func (d Deps) backend(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.Timeout)
}

func (d Deps) publish(ctx context.Context, topics ...string) {
	if d.Bus == nil || len(topics) == 0 {
		return
	}
	if err := d.Bus.Publish(ctx, topics...); err != nil {
		d.Logger.WithError(err).WithField("topics", topics).Warn("failed to publish change notification")
	}
}

func requireSession(session *models.Session) error {
	if session == nil || session.UID == "" {
		return utils.NewAuthRequiredError()
	}
	return nil
}

func validate(request interface{}) error {
	if errs := validators.ValidateStruct(request); len(errs) > 0 {
		return utils.NewValidationErrorWithDetails(errs.Map())
	}
	return nil
}

func parseID(raw, notFoundMessage string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, utils.NewNotFoundError(notFoundMessage)
	}
	return id, nil
}

// readError maps a repository read failure to the service error space.
func readError(err error, notFoundMessage string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, interfaces.ErrNotFound) {
		return utils.NewNotFoundError(notFoundMessage)
	}
	if _, ok := utils.AsAppError(err); ok {
		return err
	}
	return utils.NewBackendReadError("failed to read from store", err)
}

// writeError maps a repository write failure; AppErrors pass through so a
// transaction body can return typed errors.
func writeError(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := utils.AsAppError(err); ok {
		return err
	}
	return utils.NewBackendWriteError(message, err)
}
