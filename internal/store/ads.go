package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
)

type AdStore struct {
	coll *mongo.Collection
}

// activeWindow matches the stored flag: status active and now within the
// schedule dates. Day and hour filters are left to the selector.
func activeWindow(now time.Time) bson.M {
	return bson.M{
		"status":             models.AdActive,
		"schedule.startDate": bson.M{"$lte": now},
		"schedule.endDate":   bson.M{"$gte": now},
	}
}

// ListActive returns currently active ads, optionally for one position.
func (s *AdStore) ListActive(ctx context.Context, position models.AdPosition, now time.Time) ([]models.Advertisement, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := activeWindow(now)
	if position != "" {
		filter["position"] = position
	}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{
		{Key: "priority", Value: -1},
		{Key: "createdAt", Value: -1},
	}))
	if err != nil {
		return nil, translate(err, "find ads")
	}
	ads := make([]models.Advertisement, 0)
	if err := cursor.All(ctx, &ads); err != nil {
		return nil, translate(err, "decode ads")
	}
	return ads, nil
}

// List returns every ad for the admin views, newest first.
func (s *AdStore) List(ctx context.Context, status models.AdStatus, page Page) ([]models.Advertisement, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "count ads")
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if page.Limit > 0 {
		opts.SetSkip(page.skip()).SetLimit(page.Limit)
	}
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, translate(err, "find ads")
	}
	ads := make([]models.Advertisement, 0)
	if err := cursor.All(ctx, &ads); err != nil {
		return nil, 0, translate(err, "decode ads")
	}
	return ads, total, nil
}

func (s *AdStore) Get(ctx context.Context, id primitive.ObjectID) (models.Advertisement, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var ad models.Advertisement
	err := s.coll.FindOne(ctx, byID(id)).Decode(&ad)
	return ad, translate(err, "advertisement "+id.Hex())
}

func (s *AdStore) Create(ctx context.Context, ad *models.Advertisement) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	ad.ID = primitive.NewObjectID()
	ad.CreatedAt, ad.UpdatedAt = now, now
	ad.Analytics = models.AdAnalytics{}
	ad.ApplyDefaults()

	_, err := s.coll.InsertOne(ctx, ad)
	return translate(err, "insert advertisement")
}

// Replace overwrites the editable parts of an ad, keeping its analytics and
// creation metadata.
func (s *AdStore) Replace(ctx context.Context, ad models.Advertisement) (models.Advertisement, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	ad.ApplyDefaults()
	set := bson.M{
		"title":       ad.Title,
		"description": ad.Description,
		"image":       ad.Image,
		"link":        ad.Link,
		"position":    ad.Position,
		"dimensions":  ad.Dimensions,
		"targeting":   ad.Targeting,
		"schedule":    ad.Schedule,
		"budget":      ad.Budget,
		"status":      ad.Status,
		"priority":    ad.Priority,
		"advertiser":  ad.Advertiser,
		"updatedAt":   time.Now().UTC(),
	}
	if ad.ApprovedBy != nil {
		set["approvedBy"] = ad.ApprovedBy
		set["approvedAt"] = ad.ApprovedAt
	}

	var out models.Advertisement
	err := s.coll.FindOneAndUpdate(ctx, byID(ad.ID), bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	return out, translate(err, "update advertisement "+ad.ID.Hex())
}

func (s *AdStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return translate(err, "delete advertisement")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("advertisement %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}

// ToggleStatus flips active to paused and anything else to active in one
// update.
func (s *AdStore) ToggleStatus(ctx context.Context, id primitive.ObjectID) (models.Advertisement, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.AdActive}},
				models.AdPaused,
				models.AdActive,
			}},
			"updatedAt": time.Now().UTC(),
		}}},
	}
	var ad models.Advertisement
	err := s.coll.FindOneAndUpdate(ctx, byID(id), pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ad)
	return ad, translate(err, "toggle advertisement "+id.Hex())
}

// trackPipeline increments one analytics counter and recomputes ctr from
// the post-increment counters inside the same single-document update.
func trackPipeline(counter string, now time.Time) mongo.Pipeline {
	impressions := bson.M{"$ifNull": bson.A{"$analytics.impressions", 0}}
	clicks := bson.M{"$ifNull": bson.A{"$analytics.clicks", 0}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"analytics." + counter: bson.M{"$add": bson.A{
				bson.M{"$ifNull": bson.A{"$analytics." + counter, 0}}, 1,
			}},
			"analytics.lastTracked": now,
		}}},
		{{Key: "$set", Value: bson.M{
			"analytics.ctr": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{impressions, 0}},
				bson.M{"$multiply": bson.A{bson.M{"$divide": bson.A{clicks, impressions}}, 100}},
				0,
			}},
		}}},
	}
}

// TrackImpression counts one impression atomically and returns the updated
// analytics.
func (s *AdStore) TrackImpression(ctx context.Context, id primitive.ObjectID, now time.Time) (models.AdAnalytics, error) {
	return s.track(ctx, id, "impressions", now)
}

// TrackClick counts one click atomically and returns the updated analytics.
func (s *AdStore) TrackClick(ctx context.Context, id primitive.ObjectID, now time.Time) (models.AdAnalytics, error) {
	return s.track(ctx, id, "clicks", now)
}

func (s *AdStore) track(ctx context.Context, id primitive.ObjectID, counter string, now time.Time) (models.AdAnalytics, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var ad models.Advertisement
	err := s.coll.FindOneAndUpdate(ctx, byID(id), trackPipeline(counter, now),
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"analytics": 1}),
	).Decode(&ad)
	if err != nil {
		return models.AdAnalytics{}, translate(err, "track advertisement "+id.Hex())
	}
	return ad.Analytics, nil
}

// TrackImpressions counts one impression on each of ids.
func (s *AdStore) TrackImpressions(ctx context.Context, ids []primitive.ObjectID, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.coll.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, trackPipeline("impressions", now))
	return translate(err, "track impressions")
}

type AdTotals struct {
	Total       int64 `json:"total" bson:"total"`
	Active      int64 `json:"active" bson:"active"`
	Impressions int64 `json:"impressions" bson:"impressions"`
	Clicks      int64 `json:"clicks" bson:"clicks"`
}

func (s *AdStore) Totals(ctx context.Context, now time.Time) (AdTotals, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"total":       bson.M{"$sum": 1},
			"impressions": bson.M{"$sum": "$analytics.impressions"},
			"clicks":      bson.M{"$sum": "$analytics.clicks"},
		}}},
	})
	if err != nil {
		return AdTotals{}, translate(err, "ad totals")
	}
	var rows []AdTotals
	if err := cursor.All(ctx, &rows); err != nil {
		return AdTotals{}, translate(err, "decode ad totals")
	}
	var totals AdTotals
	if len(rows) > 0 {
		totals = rows[0]
	}
	totals.Active, err = s.coll.CountDocuments(ctx, activeWindow(now))
	if err != nil {
		return AdTotals{}, translate(err, "count active ads")
	}
	return totals, nil
}
