package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"tiyeni/internal/models"
	"tiyeni/internal/repositories/interfaces"
	"tiyeni/internal/utils"
)

type DriverService interface {
	RegisterDriver(ctx context.Context, session *models.Session, request *RegisterDriverRequest) (*models.Driver, error)
	GetDriver(ctx context.Context, session *models.Session) (*models.Driver, error)
}

type RegisterDriverRequest struct {
	FullName       string                `json:"full_name" validate:"not_blank,max=80"`
	Gender         string                `json:"gender" validate:"required,oneof=male female other"`
	DriverCategory models.DriverCategory `json:"driver_category" validate:"driver_category"`
	CompanyName    string                `json:"company_name" validate:"max=120"`
	VehicleType    models.VehicleType    `json:"vehicle_type" validate:"vehicle_type"`
	Seats          int                   `json:"seats" validate:"gt=0,max=100"`
	Color          string                `json:"color" validate:"not_blank,max=40"`

	// Base64 images or data URIs.
	ProfilePhoto string `json:"profile_photo" validate:"required"`
	PlateImage   string `json:"plate_image" validate:"required"`
	LicenseImage string `json:"license_image" validate:"required"`
	CarImage     string `json:"car_image" validate:"required"`
}

type driverService struct {
	Deps
	drivers interfaces.DriverRepository
	users   interfaces.UserRepository
	images  ImageService
}

func NewDriverService(deps Deps, drivers interfaces.DriverRepository, users interfaces.UserRepository, images ImageService) DriverService {
	return &driverService{
		Deps:    deps.withDefaults(),
		drivers: drivers,
		users:   users,
		images:  images,
	}
}

func (s *driverService) RegisterDriver(ctx context.Context, session *models.Session, request *RegisterDriverRequest) (*models.Driver, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := validate(request); err != nil {
		return nil, err
	}
	companyName := strings.TrimSpace(request.CompanyName)
	if request.DriverCategory == models.DriverCategoryCompany && companyName == "" {
		return nil, utils.NewValidationErrorWithDetails(map[string]string{"company_name": "Company name is required"})
	}

	prefix := "drivers/" + session.UID
	uploads := []struct {
		data string
		url  *string
	}{
		{request.ProfilePhoto, new(string)},
		{request.PlateImage, new(string)},
		{request.LicenseImage, new(string)},
		{request.CarImage, new(string)},
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, upload := range uploads {
		group.Go(func() error {
			url, err := s.images.UploadBase64(groupCtx, prefix, upload.data)
			if err != nil {
				return err
			}
			*upload.url = url
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		s.discard(ctx, uploads[0].url, uploads[1].url, uploads[2].url, uploads[3].url)
		return nil, err
	}

	driver := &models.Driver{
		UID:             session.UID,
		FullName:        strings.TrimSpace(request.FullName),
		Gender:          request.Gender,
		DriverCategory:  request.DriverCategory,
		ProfilePhotoURL: *uploads[0].url,
		Vehicle: models.DriverVehicle{
			Type:         request.VehicleType,
			Seats:        request.Seats,
			Color:        strings.TrimSpace(request.Color),
			PlateImage:   *uploads[1].url,
			LicenseImage: *uploads[2].url,
			CarImage:     *uploads[3].url,
		},
		Verified:  true,
		CreatedAt: s.Clock(),
	}
	if request.DriverCategory == models.DriverCategoryCompany {
		driver.CompanyName = companyName
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	if err := s.drivers.Upsert(ctx, driver); err != nil {
		s.Logger.WithError(err).WithUserID(session.UID).Error("failed to save driver profile")
		return nil, writeError(err, "failed to register driver")
	}
	if err := s.users.UpdateRole(ctx, session.UID, models.UserRoleDriver); err != nil {
		return nil, writeError(err, "failed to register driver")
	}

	s.Logger.WithUserID(session.UID).WithField("category", driver.DriverCategory).Info("driver registered")
	return driver, nil
}

// discard removes images already uploaded by a failed registration.
func (s *driverService) discard(ctx context.Context, urls ...*string) {
	ctx = context.WithoutCancel(ctx)
	for _, url := range urls {
		if *url == "" {
			continue
		}
		if err := s.images.Delete(ctx, *url); err != nil {
			s.Logger.WithError(err).Warn("failed to remove orphaned driver image")
		}
	}
}

func (s *driverService) GetDriver(ctx context.Context, session *models.Session) (*models.Driver, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	driver, err := s.drivers.GetByUID(ctx, session.UID)
	if err != nil {
		return nil, readError(err, utils.ErrDriverNotFound)
	}
	return driver, nil
}
