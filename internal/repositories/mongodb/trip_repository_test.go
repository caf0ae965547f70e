package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"tiyeni/internal/models"
	"tiyeni/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func tripDoc(id primitive.ObjectID, status models.TripStatus, available int) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "driver_id", Value: "driver-1"},
		{Key: "route_id", Value: "zm-bt"},
		{Key: "status", Value: status},
		{Key: "total_seats", Value: 4},
		{Key: "available_seats", Value: available},
		{Key: "is_active", Value: status.IsActive()},
		{Key: "departure_time", Value: time.Date(2030, 1, 1, 7, 0, 0, 0, time.UTC)},
	}
}

func TestTripRepositoryCreate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sets active flag", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewTripRepository(mt.DB)

		trip := &models.Trip{DriverID: "driver-1", Status: models.TripStatusNotStarted}
		if err := repo.Create(context.Background(), trip); err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if trip.ID.IsZero() || !trip.IsActive {
			mt.Fatalf("trip not initialised: %+v", trip)
		}
	})

	mt.Run("duplicate active trip", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: tiyeni.trips index: uniq_active_trip_per_driver",
		}))
		repo := NewTripRepository(mt.DB)

		err := repo.Create(context.Background(), &models.Trip{DriverID: "driver-1", Status: models.TripStatusNotStarted})
		if !errors.Is(err, interfaces.ErrActiveTripExists) {
			mt.Fatalf("err = %v, want ErrActiveTripExists", err)
		}
	})
}

func TestTripRepositoryReserveSeats(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()

	mt.Run("decrements", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: tripDoc(id, models.TripStatusNotStarted, 1)},
		))
		repo := NewTripRepository(mt.DB)

		trip, err := repo.ReserveSeats(context.Background(), id, 3)
		if err != nil {
			mt.Fatalf("ReserveSeats: %v", err)
		}
		if trip.AvailableSeats != 1 {
			mt.Fatalf("available = %d", trip.AvailableSeats)
		}
	})

	mt.Run("not enough seats", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "tiyeni.trips", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)
		repo := NewTripRepository(mt.DB)

		_, err := repo.ReserveSeats(context.Background(), id, 5)
		if !errors.Is(err, interfaces.ErrConditionFailed) {
			mt.Fatalf("err = %v, want ErrConditionFailed", err)
		}
	})

	mt.Run("missing trip", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "tiyeni.trips", mtest.FirstBatch),
		)
		repo := NewTripRepository(mt.DB)

		_, err := repo.ReserveSeats(context.Background(), id, 1)
		if !errors.Is(err, interfaces.ErrNotFound) {
			mt.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestTripRepositoryListAvailable(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes batch", func(mt *mtest.T) {
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tiyeni.trips", mtest.FirstBatch,
			tripDoc(a, models.TripStatusNotStarted, 2),
			tripDoc(b, models.TripStatusOnRoute, 1),
		))
		repo := NewTripRepository(mt.DB)

		trips, err := repo.ListAvailable(context.Background(), "zm-bt")
		if err != nil {
			mt.Fatalf("ListAvailable: %v", err)
		}
		if len(trips) != 2 || trips[0].ID != a || trips[1].Status != models.TripStatusOnRoute {
			mt.Fatalf("unexpected trips: %+v", trips)
		}
	})
}

func TestTripRepositoryTransitionStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()

	mt.Run("stale status", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "tiyeni.trips", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)
		repo := NewTripRepository(mt.DB)

		_, err := repo.TransitionStatus(context.Background(), id, models.TripStatusNotStarted, models.TripStatusOnRoute)
		if !errors.Is(err, interfaces.ErrConditionFailed) {
			mt.Fatalf("err = %v", err)
		}
	})

	mt.Run("applied", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: tripDoc(id, models.TripStatusCompleted, 0)},
		))
		repo := NewTripRepository(mt.DB)

		trip, err := repo.TransitionStatus(context.Background(), id, models.TripStatusOnRoute, models.TripStatusCompleted)
		if err != nil {
			mt.Fatalf("TransitionStatus: %v", err)
		}
		if trip.Status != models.TripStatusCompleted || trip.IsActive {
			mt.Fatalf("unexpected trip %+v", trip)
		}
	})
}
