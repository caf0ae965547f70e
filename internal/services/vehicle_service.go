package services

import (
	"context"
	"errors"
	"strings"

	"tiyeni/internal/models"
	"tiyeni/internal/repositories/interfaces"
	"tiyeni/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VehicleService interface {
	AddVehicle(ctx context.Context, session *models.Session, request *AddVehicleRequest) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, session *models.Session) ([]*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, session *models.Session, vehicleID string) error
	SetDefaultVehicle(ctx context.Context, session *models.Session, vehicleID string) error
	GetDefaultVehicle(ctx context.Context, session *models.Session) (*models.Vehicle, error)
}

type AddVehicleRequest struct {
	Type  models.VehicleType `json:"type" validate:"vehicle_type"`
	Color string             `json:"color" validate:"not_blank,max=40"`
	Seats int                `json:"seats" validate:"gt=0,max=100"`
	// Image is a base64 string or data URI.
	Image string `json:"image"`
}

type vehicleService struct {
	Deps
	vehicles interfaces.VehicleRepository
	images   ImageService
}

func NewVehicleService(deps Deps, vehicles interfaces.VehicleRepository, images ImageService) VehicleService {
	return &vehicleService{
		Deps:     deps.withDefaults(),
		vehicles: vehicles,
		images:   images,
	}
}

func (s *vehicleService) AddVehicle(ctx context.Context, session *models.Session, request *AddVehicleRequest) (*models.Vehicle, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := validate(request); err != nil {
		return nil, err
	}

	var imageURL string
	if strings.TrimSpace(request.Image) != "" {
		url, err := s.images.UploadBase64(ctx, "vehicles/"+session.UID, request.Image)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	vehicle := &models.Vehicle{
		DriverID:  session.UID,
		Type:      request.Type,
		Color:     strings.TrimSpace(request.Color),
		Seats:     request.Seats,
		ImageURL:  imageURL,
		CreatedAt: s.Clock(),
	}

	txCtx, cancel := s.backend(ctx)
	defer cancel()

	err := s.insertVehicle(txCtx, vehicle)
	if err != nil {
		if imageURL != "" {
			if delErr := s.images.Delete(context.WithoutCancel(ctx), imageURL); delErr != nil {
				s.Logger.WithError(delErr).Warn("failed to remove orphaned vehicle image")
			}
		}
		return nil, writeError(err, "failed to save vehicle")
	}

	s.Logger.LogVehicleEvent(session.UID, vehicle.ID.Hex(), "vehicle_added")
	return vehicle, nil
}

// insertVehicle makes the vehicle default iff the driver has none yet. A
// concurrent first insert loses on the unique default index and is retried
// as a non-default vehicle.
func (s *vehicleService) insertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	for attempt := 0; attempt < 2; attempt++ {
		err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
			vehicle.ID = primitive.NilObjectID

			count, err := s.vehicles.CountByDriver(txCtx, vehicle.DriverID)
			if err != nil {
				return err
			}
			vehicle.IsDefault = attempt == 0 && count == 0
			return s.vehicles.Create(txCtx, vehicle)
		})
		if errors.Is(err, interfaces.ErrDuplicate) && vehicle.IsDefault {
			continue
		}
		return err
	}
	return interfaces.ErrDuplicate
}

func (s *vehicleService) ListVehicles(ctx context.Context, session *models.Session) ([]*models.Vehicle, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	vehicles, err := s.vehicles.ListByDriver(ctx, session.UID)
	if err != nil {
		return nil, readError(err, utils.ErrVehicleNotFound)
	}
	return vehicles, nil
}

func (s *vehicleService) GetDefaultVehicle(ctx context.Context, session *models.Session) (*models.Vehicle, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	vehicle, err := s.vehicles.GetDefault(ctx, session.UID)
	if err != nil {
		return nil, readError(err, "no default vehicle")
	}
	return vehicle, nil
}

func (s *vehicleService) DeleteVehicle(ctx context.Context, session *models.Session, vehicleID string) error {
	if err := requireSession(session); err != nil {
		return err
	}
	id, err := parseID(vehicleID, utils.ErrVehicleNotFound)
	if err != nil {
		return err
	}

	txCtx, cancel := s.backend(ctx)
	defer cancel()

	var deleted *models.Vehicle
	err = s.Tx.WithTransaction(txCtx, func(txCtx context.Context) error {
		vehicle, err := s.vehicles.GetByID(txCtx, id)
		if err != nil {
			return readError(err, utils.ErrVehicleNotFound)
		}
		if vehicle.DriverID != session.UID {
			return utils.NewAuthorizationError("vehicle belongs to another driver")
		}
		if err := s.vehicles.Delete(txCtx, session.UID, id); err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return utils.NewNotFoundError(utils.ErrVehicleNotFound)
			}
			return err
		}
		deleted = vehicle

		if !vehicle.IsDefault {
			return nil
		}
		remaining, err := s.vehicles.ListByDriver(txCtx, session.UID)
		if err != nil || len(remaining) == 0 {
			return err
		}
		return s.vehicles.SetDefault(txCtx, session.UID, remaining[0].ID)
	})
	if err != nil {
		return writeError(err, "failed to delete vehicle")
	}

	if deleted.ImageURL != "" {
		if err := s.images.Delete(ctx, deleted.ImageURL); err != nil {
			s.Logger.WithError(err).WithField("vehicle_id", vehicleID).Warn("failed to delete vehicle image")
		}
	}
	s.Logger.LogVehicleEvent(session.UID, vehicleID, "vehicle_deleted")
	return nil
}

func (s *vehicleService) SetDefaultVehicle(ctx context.Context, session *models.Session, vehicleID string) error {
	if err := requireSession(session); err != nil {
		return err
	}
	id, err := parseID(vehicleID, utils.ErrVehicleNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	err = s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		err := s.vehicles.SetDefault(txCtx, session.UID, id)
		if errors.Is(err, interfaces.ErrNotFound) {
			return utils.NewNotFoundError(utils.ErrVehicleNotFound)
		}
		return err
	})
	if err != nil {
		return writeError(err, "failed to set default vehicle")
	}

	s.Logger.LogVehicleEvent(session.UID, vehicleID, "vehicle_set_default")
	return nil
}
