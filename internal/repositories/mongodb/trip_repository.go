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

type tripRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewTripRepository(db *mongo.Database) interfaces.TripRepository {
	return &tripRepository{
		collection: db.Collection(database.CollectionTrips),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) error {
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	now := r.now()
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = now
	}
	trip.UpdatedAt = now
	trip.IsActive = trip.Status.IsActive()

	_, err := r.collection.InsertOne(ctx, trip)
	if mongo.IsDuplicateKeyError(err) {
		return interfaces.ErrActiveTripExists
	}
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	return r.findOne(ctx, byID(id), nil)
}

func (r *tripRepository) FindActiveByDriver(ctx context.Context, driverID string) (*models.Trip, error) {
	filter := bson.M{
		"driver_id": driverID,
		"status":    bson.M{"$in": models.ActiveTripStatuses},
	}
	return r.findOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *tripRepository) ListByDriver(ctx context.Context, driverID string, limit int64) ([]*models.Trip, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"driver_id": driverID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find driver trips: %w", err)
	}
	trips, err := decodeAll[models.Trip](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}
	return trips, nil
}

func (r *tripRepository) ListAvailable(ctx context.Context, routeID string) ([]*models.Trip, error) {
	filter := bson.M{
		"route_id":        routeID,
		"status":          bson.M{"$in": models.ActiveTripStatuses},
		"available_seats": bson.M{"$gt": 0},
	}
	opts := options.Find().SetSort(bson.D{{Key: "departure_time", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find available trips: %w", err)
	}
	trips, err := decodeAll[models.Trip](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}
	return trips, nil
}

func (r *tripRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.TripStatus) (*models.Trip, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{
		"status":     to,
		"is_active":  to.IsActive(),
		"updated_at": r.now(),
	}}
	return r.conditionalUpdate(ctx, id, filter, update)
}

func (r *tripRepository) AdvanceMilestone(ctx context.Context, id primitive.ObjectID, lastIndex int) (*models.Trip, error) {
	filter := bson.M{
		"_id":             id,
		"status":          models.TripStatusOnRoute,
		"milestone_index": bson.M{"$lt": lastIndex},
	}
	update := bson.M{
		"$inc": bson.M{"milestone_index": 1},
		"$set": bson.M{"updated_at": r.now()},
	}
	return r.conditionalUpdate(ctx, id, filter, update)
}

func (r *tripRepository) ReserveSeats(ctx context.Context, id primitive.ObjectID, seats int) (*models.Trip, error) {
	filter := bson.M{
		"_id":             id,
		"is_active":       true,
		"available_seats": bson.M{"$gte": seats},
	}
	update := bson.M{
		"$inc": bson.M{"available_seats": -seats},
		"$set": bson.M{"updated_at": r.now()},
	}
	return r.conditionalUpdate(ctx, id, filter, update)
}

func (r *tripRepository) ReleaseSeats(ctx context.Context, id primitive.ObjectID, seats int) (*models.Trip, error) {
	filter := bson.M{"_id": id, "is_active": true}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "available_seats", Value: bson.D{{Key: "$min", Value: bson.A{
				bson.D{{Key: "$add", Value: bson.A{"$available_seats", seats}}},
				"$total_seats",
			}}}},
			{Key: "updated_at", Value: r.now()},
		}}},
	}
	return r.conditionalUpdate(ctx, id, filter, update)
}

func (r *tripRepository) conditionalUpdate(ctx context.Context, id primitive.ObjectID, filter bson.M, update interface{}) (*models.Trip, error) {
	var trip models.Trip
	err := r.collection.FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&trip)
	if isNoDocuments(err) {
		return nil, classifyMiss(ctx, r.collection, byID(id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update trip: %w", err)
	}
	return &trip, nil
}

func (r *tripRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.Trip, error) {
	var trip models.Trip
	var err error
	if opts != nil {
		err = r.collection.FindOne(ctx, filter, opts).Decode(&trip)
	} else {
		err = r.collection.FindOne(ctx, filter).Decode(&trip)
	}
	if isNoDocuments(err) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}
