package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tiyeni/pkg/logger"
)

const migrationsCollection = "migrations"

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
	Down        func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logger     *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: Migrations(),
		logger:     log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.currentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}
		m.logger.WithField("version", migration.Version).Info("running migration: " + migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.currentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}
		m.logger.WithField("version", migration.Version).Info("reverting migration: " + migration.Description)

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}
		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) currentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(migrationsCollection).FindOne(ctx, bson.D{}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(migrationsCollection).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now().UTC()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

// Migrations returns the index migrations in version order.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "users indexes",
			Up:          indexUp(CollectionUsers, usersIndexes()),
			Down:        indexDown(CollectionUsers),
		},
		{
			Version:     2,
			Description: "vehicles indexes and single default vehicle per driver",
			Up:          indexUp(CollectionVehicles, vehiclesIndexes()),
			Down:        indexDown(CollectionVehicles),
		},
		{
			Version:     3,
			Description: "trips indexes and single active trip per driver",
			Up:          indexUp(CollectionTrips, tripsIndexes()),
			Down:        indexDown(CollectionTrips),
		},
		{
			Version:     4,
			Description: "bookings indexes",
			Up:          indexUp(CollectionBookings, bookingsIndexes()),
			Down:        indexDown(CollectionBookings),
		},
	}
}

func indexUp(collection string, models []mongo.IndexModel) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		return err
	}
}

func indexDown(collection string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collection).Indexes().DropAll(ctx)
		return err
	}
}

func usersIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "uid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
}

// VehiclesDefaultIndex enforces at most one default vehicle per driver.
const VehiclesDefaultIndex = "uniq_default_vehicle_per_driver"

func vehiclesIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys: bson.D{{Key: "driver_id", Value: 1}},
			Options: options.Index().
				SetName(VehiclesDefaultIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_default": true}),
		},
	}
}

// TripsActiveDriverIndex enforces at most one active trip per driver.
const TripsActiveDriverIndex = "uniq_active_trip_per_driver"

func tripsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "driver_id", Value: 1}},
			Options: options.Index().
				SetName(TripsActiveDriverIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
		{Keys: bson.D{{Key: "route_id", Value: 1}, {Key: "status", Value: 1}, {Key: "departure_time", Value: 1}}},
		{Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
}

func bookingsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "trip_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "passenger_id", Value: 1}}},
	}
}
