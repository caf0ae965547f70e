package mongodb

import (
	"context"
	"errors"
	"fmt"

	"tiyeni/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// classifyMiss tells a missing document apart from one whose state no
// longer matched a conditional filter.
func classifyMiss(ctx context.Context, coll *mongo.Collection, filter bson.M) error {
	count, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", coll.Name(), err)
	}
	if count == 0 {
		return interfaces.ErrNotFound
	}
	return interfaces.ErrConditionFailed
}

func byID(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id}
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]*T, error) {
	defer cursor.Close(ctx)

	items := make([]*T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, cursor.Err()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
