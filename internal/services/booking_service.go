package services

import (
	"context"
	"errors"
	"strings"

	"tiyeni/internal/models"
	"tiyeni/internal/repositories/interfaces"
	"tiyeni/internal/utils"
	"tiyeni/pkg/pubsub"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingService interface {
	BookSeats(ctx context.Context, session *models.Session, tripID string, request *BookSeatsRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, session *models.Session, tripID, bookingID string) (*models.Booking, error)
	ListBookings(ctx context.Context, session *models.Session, tripID string) ([]*models.Booking, error)
	WatchBookings(ctx context.Context, session *models.Session, tripID string) (*Watch[[]*models.Booking], error)
}

type BookSeatsRequest struct {
	PassengerName string `json:"passenger_name" validate:"max=80"`
	Seats         int    `json:"seats" validate:"gt=0"`
}

type bookingService struct {
	Deps
	bookings interfaces.BookingRepository
	trips    interfaces.TripRepository
	users    interfaces.UserRepository
}

func NewBookingService(
	deps Deps,
	bookings interfaces.BookingRepository,
	trips interfaces.TripRepository,
	users interfaces.UserRepository,
) BookingService {
	return &bookingService{
		Deps:     deps.withDefaults(),
		bookings: bookings,
		trips:    trips,
		users:    users,
	}
}

func (s *bookingService) BookSeats(ctx context.Context, session *models.Session, tripID string, request *BookSeatsRequest) (*models.Booking, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := validate(request); err != nil {
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
	if trip.DriverID == session.UID {
		return nil, utils.NewValidationError("drivers cannot book their own trip")
	}

	booking := &models.Booking{
		TripID:        id,
		PassengerID:   session.UID,
		PassengerName: s.passengerName(ctx, session.UID, request.PassengerName),
		SeatsBooked:   request.Seats,
		Status:        models.BookingStatusActive,
		CreatedAt:     s.Clock(),
	}

	var reserved *models.Trip
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		// Reset in case the transaction body is retried.
		booking.ID = primitive.NilObjectID

		updated, err := s.trips.ReserveSeats(ctx, id, request.Seats)
		if errors.Is(err, interfaces.ErrConditionFailed) {
			return utils.NewSeatsUnavailableError()
		}
		if errors.Is(err, interfaces.ErrNotFound) {
			return utils.NewNotFoundError(utils.ErrTripNotFound)
		}
		if err != nil {
			return err
		}
		reserved = updated
		return s.bookings.Create(ctx, booking)
	})
	if err != nil {
		if !utils.HasCode(err, utils.CodeSeatsUnavailable) {
			s.Logger.WithError(err).WithTripID(tripID).WithUserID(session.UID).Error("failed to book seats")
		}
		return nil, writeError(err, "failed to book seats")
	}

	s.Logger.LogBookingEvent(tripID, booking.ID.Hex(), "booking_created", booking.SeatsBooked)
	s.publish(ctx, bookingTopics(reserved)...)
	return booking, nil
}

func (s *bookingService) passengerName(ctx context.Context, uid, requested string) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}
	if user, err := s.users.GetByUID(ctx, uid); err == nil {
		return user.FullName
	}
	return ""
}

func (s *bookingService) CancelBooking(ctx context.Context, session *models.Session, tripID, bookingID string) (*models.Booking, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	tid, err := parseID(tripID, utils.ErrTripNotFound)
	if err != nil {
		return nil, err
	}
	bid, err := parseID(bookingID, utils.ErrBookingNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	trip, err := s.trips.GetByID(ctx, tid)
	if err != nil {
		return nil, readError(err, utils.ErrTripNotFound)
	}
	booking, err := s.bookings.GetByID(ctx, tid, bid)
	if err != nil {
		return nil, readError(err, utils.ErrBookingNotFound)
	}
	if booking.PassengerID != session.UID && trip.DriverID != session.UID {
		return nil, utils.NewAuthorizationError("only the passenger or the driver can cancel this booking")
	}

	var cancelled *models.Booking
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		updated, err := s.bookings.Cancel(ctx, tid, bid, s.Clock())
		if errors.Is(err, interfaces.ErrConditionFailed) {
			return utils.NewConflictError("booking already cancelled")
		}
		if errors.Is(err, interfaces.ErrNotFound) {
			return utils.NewNotFoundError(utils.ErrBookingNotFound)
		}
		if err != nil {
			return err
		}
		cancelled = updated

		// A finished or cancelled trip keeps its seat count.
		_, err = s.trips.ReleaseSeats(ctx, tid, updated.SeatsBooked)
		if errors.Is(err, interfaces.ErrConditionFailed) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, writeError(err, "failed to cancel booking")
	}

	s.Logger.LogBookingEvent(tripID, bookingID, "booking_cancelled", cancelled.SeatsBooked)
	s.publish(ctx, bookingTopics(trip)...)
	return cancelled, nil
}

func (s *bookingService) ListBookings(ctx context.Context, session *models.Session, tripID string) ([]*models.Booking, error) {
	id, err := s.authorizeDriver(ctx, session, tripID)
	if err != nil {
		return nil, err
	}
	return s.loadBookings(ctx, id)
}

func (s *bookingService) WatchBookings(ctx context.Context, session *models.Session, tripID string) (*Watch[[]*models.Booking], error) {
	id, err := s.authorizeDriver(ctx, session, tripID)
	if err != nil {
		return nil, err
	}
	load := func(ctx context.Context) ([]*models.Booking, error) {
		return s.loadBookings(ctx, id)
	}
	return StartWatch(ctx, s.Bus, pubsub.BookingsTopic(tripID), load, s.Logger)
}

func (s *bookingService) authorizeDriver(ctx context.Context, session *models.Session, tripID string) (primitive.ObjectID, error) {
	if err := requireSession(session); err != nil {
		return primitive.NilObjectID, err
	}
	id, err := parseID(tripID, utils.ErrTripNotFound)
	if err != nil {
		return primitive.NilObjectID, err
	}

	ctx, cancel := s.backend(ctx)
	defer cancel()

	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return primitive.NilObjectID, readError(err, utils.ErrTripNotFound)
	}
	if trip.DriverID != session.UID {
		return primitive.NilObjectID, utils.NewAuthorizationError("only the trip's driver can see its bookings")
	}
	return id, nil
}

func (s *bookingService) loadBookings(ctx context.Context, tripID primitive.ObjectID) ([]*models.Booking, error) {
	ctx, cancel := s.backend(ctx)
	defer cancel()

	bookings, err := s.bookings.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, readError(err, utils.ErrTripNotFound)
	}
	return bookings, nil
}

func bookingTopics(trip *models.Trip) []string {
	return append(tripTopics(trip), pubsub.BookingsTopic(trip.ID.Hex()))
}
