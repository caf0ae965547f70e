package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"tiyeni/internal/models"
	"tiyeni/internal/repositories/interfaces"
	"tiyeni/internal/utils"
	"tiyeni/pkg/pubsub"
)

type TripService interface {
	// CreateTrip returns the driver's existing active trip with created=false
	// instead of creating a second one.
	CreateTrip(ctx context.Context, session *models.Session, request *CreateTripRequest) (trip *models.Trip, created bool, err error)
	AdvanceStatus(ctx context.Context, session *models.Session, tripID string, requested models.TripStatus) (*models.Trip, error)
	AdvanceMilestone(ctx context.Context, session *models.Session, tripID string) (*models.Trip, error)
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	ListDriverTrips(ctx context.Context, session *models.Session) ([]*models.Trip, error)
	ListAvailableTrips(ctx context.Context, routeID, pickupPoint string) ([]*models.Trip, error)
	WatchAvailableTrips(ctx context.Context, routeID string) (*Watch[[]*models.Trip], error)
	WatchTrip(ctx context.Context, session *models.Session, tripID string) (*Watch[*models.Trip], error)
}

type CreateTripRequest struct {
	VehicleID       string                 `json:"vehicle_id" validate:"required,object_id"`
	RouteID         string                 `json:"route_id" validate:"required"`
	DepartureTime   time.Time              `json:"departure_time" validate:"required"`
	WaitingPlace    string                 `json:"waiting_place" validate:"not_blank,max=120"`
	EndingPlace     string                 `json:"ending_place" validate:"max=120"`
	PricePerSeat    float64                `json:"price_per_seat" validate:"gt=0"`
	Seats           int                    `json:"seats" validate:"gt=0"`
	PreferredGender models.PreferredGender `json:"preferred_gender" validate:"preferred_gender"`
	Notes           string                 `json:"notes" validate:"max=500"`
}

const driverTripHistoryLimit = 50

type tripService struct {
	Deps
	trips    interfaces.TripRepository
	vehicles interfaces.VehicleRepository
	drivers  interfaces.DriverRepository
	users    interfaces.UserRepository
	routes   RouteService
}

func NewTripService(
	deps Deps,
	trips interfaces.TripRepository,
	vehicles interfaces.VehicleRepository,
	drivers interfaces.DriverRepository,
	users interfaces.UserRepository,
	routes RouteService,
) TripService {
	return &tripService{
		Deps:     deps.withDefaults(),
		trips:    trips,
		vehicles: vehicles,
		drivers:  drivers,
		users:    users,
		routes:   routes,
	}
}

func (s *tripService) CreateTrip(ctx context.Context, session *models.Session, request *CreateTripRequest) (*models.Trip, bool, error) {
	if err := requireSession(session); err != nil {
		return nil, false, err
	}
	if err := validate(request); err != nil {
		return nil, false, err
	}

	route, err := s.routes.GetRoute(request.RouteID)
	if err != nil {
		return nil, false, utils.NewValidationErrorWithDetails(map[string]string{"route_id": "Unknown route"})
	}
	if !request.DepartureTime.After(s.Clock()) {
		return nil, false, utils.NewValidationErrorWithDetails(map[string]string{"departure_time": "Departure time must be in the future"})
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	vehicleID, _ := parseID(request.VehicleID, utils.ErrVehicleNotFound)
	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, false, readError(err, utils.ErrVehicleNotFound)
	}
	if vehicle == nil || vehicle.DriverID != session.UID {
		return nil, false, utils.NewValidationErrorWithDetails(map[string]string{"vehicle_id": "Select one of your vehicles"})
	}
	if request.Seats > vehicle.Seats {
		return nil, false, utils.NewValidationErrorWithDetails(map[string]string{"seats": "Seats exceed vehicle capacity"})
	}

	existing, err := s.trips.FindActiveByDriver(ctx, session.UID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, false, readError(err, utils.ErrTripNotFound)
	}

	now := s.Clock()
	trip := &models.Trip{
		DriverID:        session.UID,
		DriverName:      s.driverName(ctx, session.UID),
		VehicleID:       vehicle.ID,
		VehicleType:     vehicle.Type,
		VehicleColor:    vehicle.Color,
		VehicleImage:    vehicle.ImageURL,
		RouteID:         route.ID,
		RouteName:       route.Name,
		RouteFrom:       route.From,
		RouteTo:         route.To,
		DepartureTime:   request.DepartureTime.UTC(),
		WaitingPlace:    strings.TrimSpace(request.WaitingPlace),
		EndingPlace:     optionalString(request.EndingPlace),
		PricePerSeat:    request.PricePerSeat,
		TotalSeats:      vehicle.Seats,
		AvailableSeats:  request.Seats,
		PreferredGender: request.PreferredGender,
		Status:          models.TripStatusNotStarted,
		MilestoneIndex:  0,
		Notes:           optionalString(request.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if trip.PreferredGender == "" {
		trip.PreferredGender = models.PreferredGenderAny
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		if errors.Is(err, interfaces.ErrActiveTripExists) {
			// Lost a race with a concurrent create for the same driver.
			existing, findErr := s.trips.FindActiveByDriver(ctx, session.UID)
			if findErr == nil {
				return existing, false, nil
			}
			return nil, false, readError(findErr, utils.ErrTripNotFound)
		}
		s.Logger.WithError(err).WithUserID(session.UID).Error("failed to create trip")
		return nil, false, utils.NewBackendWriteError("failed to create trip", err)
	}

	s.Logger.LogTripEvent(trip.ID.Hex(), "trip_created", map[string]interface{}{
		"driver_id": trip.DriverID,
		"route_id":  trip.RouteID,
		"seats":     trip.AvailableSeats,
	})
	s.publish(ctx, tripTopics(trip)...)
	return trip, true, nil
}

// driverName prefers the driver profile and falls back to the account name.
func (s *tripService) driverName(ctx context.Context, uid string) string {
	if driver, err := s.drivers.GetByUID(ctx, uid); err == nil && driver.FullName != "" {
		return driver.FullName
	}
	if user, err := s.users.GetByUID(ctx, uid); err == nil {
		return user.FullName
	}
	return ""
}

func (s *tripService) AdvanceStatus(ctx context.Context, session *models.Session, tripID string, requested models.TripStatus) (*models.Trip, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if !requested.IsValid() {
		return nil, utils.NewValidationError(utils.ErrInvalidTransition)
	}
	id, err := parseID(tripID, utils.ErrTripNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	// A lost race re-reads the trip and re-checks the transition; a legal
	// move can lose at most once per intermediate state.
	for attempt := 0; attempt < 3; attempt++ {
		trip, err := s.trips.GetByID(ctx, id)
		if err != nil {
			return nil, readError(err, utils.ErrTripNotFound)
		}
		if trip.DriverID != session.UID {
			return nil, utils.NewAuthorizationError("only the trip's driver can change its status")
		}
		if !trip.Status.CanTransitionTo(requested) {
			return nil, utils.NewValidationError(utils.ErrInvalidTransition)
		}

		updated, err := s.trips.TransitionStatus(ctx, id, trip.Status, requested)
		if errors.Is(err, interfaces.ErrConditionFailed) {
			continue
		}
		if err != nil {
			s.Logger.WithError(err).WithTripID(tripID).Error("failed to update trip status")
			return nil, writeError(err, "failed to update trip status")
		}

		s.Logger.LogTripEvent(tripID, "trip_status_changed", map[string]interface{}{
			"from": trip.Status,
			"to":   requested,
		})
		s.publish(ctx, tripTopics(updated)...)
		return updated, nil
	}
	return nil, utils.NewConflictError("trip was modified concurrently, retry")
}

func (s *tripService) AdvanceMilestone(ctx context.Context, session *models.Session, tripID string) (*models.Trip, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	id, err := parseID(tripID, utils.ErrTripNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, readError(err, utils.ErrTripNotFound)
	}
	if trip.DriverID != session.UID {
		return nil, utils.NewAuthorizationError("only the trip's driver can advance it")
	}
	if trip.Status != models.TripStatusOnRoute {
		return nil, utils.NewValidationError("trip must be on route to advance")
	}
	route, err := s.routes.GetRoute(trip.RouteID)
	if err != nil {
		return nil, err
	}
	if trip.MilestoneIndex >= route.LastMilestone() {
		return nil, utils.NewValidationError("trip is already at the last pickup point")
	}

	updated, err := s.trips.AdvanceMilestone(ctx, id, route.LastMilestone())
	if errors.Is(err, interfaces.ErrConditionFailed) {
		return nil, utils.NewConflictError("trip was modified concurrently, retry")
	}
	if err != nil {
		return nil, writeError(err, "failed to advance milestone")
	}

	s.Logger.LogTripEvent(tripID, "trip_milestone_reached", map[string]interface{}{
		"milestone_index": updated.MilestoneIndex,
		"pickup_point":    updated.CurrentMilestone(route),
	})
	s.publish(ctx, tripTopics(updated)...)
	return updated, nil
}

func (s *tripService) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	id, err := parseID(tripID, utils.ErrTripNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, readError(err, utils.ErrTripNotFound)
	}
	return trip, nil
}

func (s *tripService) ListDriverTrips(ctx context.Context, session *models.Session) ([]*models.Trip, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	trips, err := s.trips.ListByDriver(ctx, session.UID, driverTripHistoryLimit)
	if err != nil {
		return nil, readError(err, utils.ErrTripNotFound)
	}
	return trips, nil
}

func (s *tripService) ListAvailableTrips(ctx context.Context, routeID, pickupPoint string) ([]*models.Trip, error) {
	route, err := s.routes.GetRoute(routeID)
	if err != nil {
		return nil, err
	}
	if pickupPoint != "" && !route.HasPickupPoint(pickupPoint) {
		return nil, utils.NewValidationErrorWithDetails(map[string]string{"pickup": "Pickup point is not on this route"})
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()
	return s.loadAvailable(ctx, routeID)
}

func (s *tripService) loadAvailable(ctx context.Context, routeID string) ([]*models.Trip, error) {
	trips, err := s.trips.ListAvailable(ctx, routeID)
	if err != nil {
		return nil, readError(err, utils.ErrTripNotFound)
	}

	// The store filters on seats too; keep the guard for any backend that
	// only filters on route and status.
	out := trips[:0]
	for _, t := range trips {
		if t.Status.IsActive() && t.AvailableSeats > 0 {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *tripService) WatchAvailableTrips(ctx context.Context, routeID string) (*Watch[[]*models.Trip], error) {
	if _, err := s.routes.GetRoute(routeID); err != nil {
		return nil, err
	}

	load := func(ctx context.Context) ([]*models.Trip, error) {
		ctx, cancel := s.backend(ctx)
		defer cancel()
		return s.loadAvailable(ctx, routeID)
	}
	return StartWatch(ctx, s.Bus, pubsub.RouteTopic(routeID), load, s.Logger)
}

func (s *tripService) WatchTrip(ctx context.Context, session *models.Session, tripID string) (*Watch[*models.Trip], error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != session.UID {
		return nil, utils.NewAuthorizationError("only the trip's driver can watch it")
	}

	load := func(ctx context.Context) (*models.Trip, error) {
		return s.GetTrip(ctx, tripID)
	}
	return StartWatch(ctx, s.Bus, pubsub.TripTopic(tripID), load, s.Logger)
}

func tripTopics(trip *models.Trip) []string {
	id := trip.ID.Hex()
	return []string{pubsub.RouteTopic(trip.RouteID), pubsub.TripTopic(id)}
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
