package mongodb

import (
	"context"
	"fmt"
	"time"

	"tiyeni/internal/models"
	"tiyeni/internal/repositories/interfaces"
	"tiyeni/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) interfaces.BookingRepository {
	return &bookingRepository{
		collection: db.Collection(database.CollectionBookings),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, tripID, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "trip_id": tripID}).Decode(&booking)
	if isNoDocuments(err) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) ListByTrip(ctx context.Context, tripID primitive.ObjectID) ([]*models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"trip_id": tripID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	bookings, err := decodeAll[models.Booking](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) Cancel(ctx context.Context, tripID, id primitive.ObjectID, at time.Time) (*models.Booking, error) {
	filter := bson.M{"_id": id, "trip_id": tripID, "status": models.BookingStatusActive}
	update := bson.M{"$set": bson.M{
		"status":       models.BookingStatusCancelled,
		"cancelled_at": at,
	}}

	var booking models.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&booking)
	if isNoDocuments(err) {
		return nil, classifyMiss(ctx, r.collection, bson.M{"_id": id, "trip_id": tripID})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return &booking, nil
}
