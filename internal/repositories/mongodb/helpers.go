package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/utils"
	"pawtraits/pkg/cache"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// findPaginated runs a paged Find and a CountDocuments for the same filter.
func findPaginated[T any](ctx context.Context, collection *mongo.Collection, filter bson.M, params *utils.PaginationParams) ([]*T, int64, error) {
	if params == nil {
		params = utils.DefaultPaginationParams()
	}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", collection.Name(), err)
	}

	cursor, err := collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find %s: %w", collection.Name(), err)
	}
	defer cursor.Close(ctx)

	items := make([]*T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", collection.Name(), err)
	}

	return items, total, nil
}

func findAll[T any](ctx context.Context, collection *mongo.Collection, filter bson.M) ([]*T, error) {
	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", collection.Name(), err)
	}
	defer cursor.Close(ctx)

	items := make([]*T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection.Name(), err)
	}
	return items, nil
}

func findOne[T any](ctx context.Context, collection *mongo.Collection, filter bson.M) (*T, error) {
	var item T
	err := collection.FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", collection.Name(), err)
	}
	return &item, nil
}

func wrapWriteError(action string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to %s: %w", action, interfaces.ErrDuplicateKey)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func cacheGet(ctx context.Context, c *cache.RedisCache, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	return c.Get(ctx, key, dest) == nil
}

func cacheSet(ctx context.Context, c *cache.RedisCache, key string, value interface{}, ttl time.Duration) {
	if c == nil {
		return
	}
	_ = c.Set(ctx, key, value, ttl)
}

func cacheDelete(ctx context.Context, c *cache.RedisCache, keys ...string) {
	if c == nil {
		return
	}
	_ = c.Delete(ctx, keys...)
}

func dateRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	r := bson.M{}
	if from != nil {
		r["$gte"] = *from
	}
	if to != nil {
		r["$lte"] = *to
	}
	return r
}
