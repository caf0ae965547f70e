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

type vehicleRepository struct {
	collection *mongo.Collection
}

func NewVehicleRepository(db *mongo.Database) interfaces.VehicleRepository {
	return &vehicleRepository{
		collection: db.Collection(database.CollectionVehicles),
	}
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, vehicle)
	if mongo.IsDuplicateKeyError(err) {
		return interfaces.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.collection.FindOne(ctx, byID(id)).Decode(&vehicle)
	if isNoDocuments(err) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return &vehicle, nil
}

func (r *vehicleRepository) Delete(ctx context.Context, driverID string, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "driver_id": driverID})
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	if res.DeletedCount == 0 {
		return classifyMiss(ctx, r.collection, byID(id))
	}
	return nil
}

func (r *vehicleRepository) ListByDriver(ctx context.Context, driverID string) ([]*models.Vehicle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"driver_id": driverID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicles by driver: %w", err)
	}
	vehicles, err := decodeAll[models.Vehicle](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode vehicles: %w", err)
	}
	return vehicles, nil
}

func (r *vehicleRepository) CountByDriver(ctx context.Context, driverID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"driver_id": driverID})
	if err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return count, nil
}

func (r *vehicleRepository) GetDefault(ctx context.Context, driverID string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.collection.FindOne(ctx, bson.M{"driver_id": driverID, "is_default": true}).Decode(&vehicle)
	if isNoDocuments(err) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default vehicle: %w", err)
	}
	return &vehicle, nil
}

func (r *vehicleRepository) SetDefault(ctx context.Context, driverID string, id primitive.ObjectID) error {
	// Clear first so the unique default index never sees two defaults.
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"driver_id": driverID, "_id": bson.M{"$ne": id}, "is_default": true},
		bson.M{"$set": bson.M{"is_default": false}},
	)
	if err != nil {
		return fmt.Errorf("failed to clear default vehicle: %w", err)
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"driver_id": driverID, "_id": id},
		bson.M{"$set": bson.M{"is_default": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to set default vehicle: %w", err)
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
