package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"trendhub/internal/store"
)

func ensure(db *mongo.Database, collection string, models []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		zap.L().Error("index creation failed", zap.String("collection", collection), zap.Error(err))
		return err
	}
	zap.L().Info("indexes ready", zap.String("collection", collection), zap.Strings("indexes", names))
	return nil
}

func EnsureProductIndexes(db *mongo.Database) error {
	return ensure(db, store.ProductsCollection, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}, {Key: "tags", Value: "text"}},
			Options: options.Index().SetName("product_text"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("category_status"),
		},
		{
			Keys:    bson.D{{Key: "trending.score", Value: -1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("trending_score"),
		},
		{
			Keys:    bson.D{{Key: "prices.site", Value: 1}},
			Options: options.Index().SetName("prices_site"),
		},
	})
}

func EnsureSiteIndexes(db *mongo.Database) error {
	return ensure(db, store.SitesCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_unique").SetUnique(true),
		},
	})
}

func EnsureAdIndexes(db *mongo.Database) error {
	return ensure(db, store.AdsCollection, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "position", Value: 1},
				{Key: "status", Value: 1},
				{Key: "schedule.startDate", Value: 1},
				{Key: "schedule.endDate", Value: 1},
			},
			Options: options.Index().SetName("position_status_schedule"),
		},
		{
			Keys:    bson.D{{Key: "priority", Value: -1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("priority_recency"),
		},
	})
}

func EnsureAdminIndexes(db *mongo.Database) error {
	return ensure(db, store.AdminsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
	})
}

// EnsureIndexes bootstraps every collection, logging and continuing past
// failures so a bad index never blocks startup. It returns the first error.
func EnsureIndexes(db *mongo.Database) error {
	var first error
	for _, fn := range []func(*mongo.Database) error{
		EnsureProductIndexes,
		EnsureSiteIndexes,
		EnsureAdIndexes,
		EnsureAdminIndexes,
	} {
		if err := fn(db); err != nil && first == nil {
			first = err
		}
	}
	return first
}
