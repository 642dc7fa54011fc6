package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
)

type SiteStore struct {
	coll *mongo.Collection
}

// List returns sites ordered by name; activeOnly keeps status active.
func (s *SiteStore) List(ctx context.Context, activeOnly bool) ([]models.EcommerceSite, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["status"] = models.SiteActive
	}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, translate(err, "find sites")
	}
	sites := make([]models.EcommerceSite, 0)
	if err := cursor.All(ctx, &sites); err != nil {
		return nil, translate(err, "decode sites")
	}
	return sites, nil
}

func (s *SiteStore) Get(ctx context.Context, id primitive.ObjectID) (models.EcommerceSite, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var site models.EcommerceSite
	err := s.coll.FindOne(ctx, byID(id)).Decode(&site)
	return site, translate(err, "site "+id.Hex())
}

func (s *SiteStore) GetByName(ctx context.Context, name string) (models.EcommerceSite, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	name = strings.ToLower(strings.TrimSpace(name))
	var site models.EcommerceSite
	err := s.coll.FindOne(ctx, bson.M{"name": name}).Decode(&site)
	return site, translate(err, "site "+name)
}

func (s *SiteStore) Create(ctx context.Context, site *models.EcommerceSite) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	site.ID = primitive.NewObjectID()
	site.Name = strings.ToLower(strings.TrimSpace(site.Name))
	site.CreatedAt, site.UpdatedAt = now, now
	site.ApplyDefaults()

	_, err := s.coll.InsertOne(ctx, site)
	return translate(err, "insert site "+site.Name)
}

// UpsertByName inserts the site or replaces the configuration of the
// existing one with the same name, keeping its id, sync stats and creation
// time. It reports whether a new document was created.
func (s *SiteStore) UpsertByName(ctx context.Context, site models.EcommerceSite) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	site.Name = strings.ToLower(strings.TrimSpace(site.Name))
	site.ApplyDefaults()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"name": site.Name},
		bson.M{
			"$set": bson.M{
				"displayName": site.DisplayName,
				"baseUrl":     site.BaseURL,
				"color":       site.Color,
				"logo":        site.Logo,
				"apiConfig":   site.APIConfig,
				"scraping":    site.Scraping,
				"features":    site.Features,
				"affiliate":   site.Affiliate,
				"status":      site.Status,
				"updatedAt":   now,
			},
			"$setOnInsert": bson.M{
				"syncStats": models.SyncStats{},
				"createdAt": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, translate(err, "upsert site "+site.Name)
	}
	return res.UpsertedCount > 0, nil
}

func (s *SiteStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.EcommerceSite, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	fields["updatedAt"] = time.Now().UTC()
	var site models.EcommerceSite
	err := s.coll.FindOneAndUpdate(ctx, byID(id), bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&site)
	return site, translate(err, "update site "+id.Hex())
}

func (s *SiteStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return translate(err, "delete site")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("site %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}

// RecordSync counts one product sync against the site. A non-nil syncErr is
// counted as a failure and kept as lastError.
func (s *SiteStore) RecordSync(ctx context.Context, id primitive.ObjectID, syncErr error, now time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	inc := bson.M{"syncStats.totalProducts": 1}
	set := bson.M{"lastSync": now}
	if syncErr != nil {
		inc["syncStats.failedSyncs"] = 1
		set["syncStats.lastError"] = syncErr.Error()
	} else {
		inc["syncStats.successfulSyncs"] = 1
	}

	res, err := s.coll.UpdateOne(ctx, byID(id), bson.M{"$inc": inc, "$set": set})
	if err != nil {
		return translate(err, "record sync")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("site %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}

func (s *SiteStore) Count(ctx context.Context, activeOnly bool) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["status"] = models.SiteActive
	}
	n, err := s.coll.CountDocuments(ctx, filter)
	return n, translate(err, "count sites")
}
