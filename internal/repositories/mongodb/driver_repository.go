package mongodb

import (
	"context"
	"fmt"

	"tiyeni/internal/models"
	"tiyeni/internal/repositories/interfaces"
	"tiyeni/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type driverRepository struct {
	collection *mongo.Collection
}

func NewDriverRepository(db *mongo.Database) interfaces.DriverRepository {
	return &driverRepository{
		collection: db.Collection(database.CollectionDrivers),
	}
}

func (r *driverRepository) Upsert(ctx context.Context, driver *models.Driver) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": driver.UID}, driver, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save driver: %w", err)
	}
	return nil
}

func (r *driverRepository) GetByUID(ctx context.Context, uid string) (*models.Driver, error) {
	var driver models.Driver
	err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&driver)
	if isNoDocuments(err) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return &driver, nil
}
