package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
	"trendhub/internal/trending"
)

type ProductStore struct {
	coll *mongo.Collection
}

// ProductFilter narrows product listings. Zero values do not filter, except
// Status: public listings pass models.ProductActive explicitly.
type ProductFilter struct {
	Status   models.ProductStatus
	Category models.Category
	Brand    string
	Featured *bool
	Search   string
	MinScore *float64
	MinPrice *float64
	MaxPrice *float64
	Sort     string
}

const (
	SortTrending = "trending"
	SortNewest   = "newest"
	SortName     = "name"
)

func (f ProductFilter) query() bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Brand != "" {
		filter["brand"] = bson.M{"$regex": "^" + regexp.QuoteMeta(f.Brand) + "$", "$options": "i"}
	}
	if f.Featured != nil {
		filter["featured"] = *f.Featured
	}
	if f.Search != "" {
		pattern := regexp.QuoteMeta(f.Search)
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": pattern, "$options": "i"}},
			{"brand": bson.M{"$regex": pattern, "$options": "i"}},
			{"tags": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	if f.MinScore != nil {
		filter["trending.score"] = bson.M{"$gte": *f.MinScore}
	}
	return filter
}

func (f ProductFilter) sort() bson.D {
	switch f.Sort {
	case SortTrending:
		return bson.D{{Key: "trending.score", Value: -1}, {Key: "createdAt", Value: -1}}
	case SortName:
		return bson.D{{Key: "name", Value: 1}}
	}
	return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
}

func (f ProductFilter) hasPriceBounds() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}

// List returns one page of products and the total matching count. Price
// bounds apply to the aggregated minimum price and go through a pipeline.
func (s *ProductStore) List(ctx context.Context, f ProductFilter, page Page) ([]models.Product, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if f.hasPriceBounds() {
		return s.listByPrice(ctx, f, page)
	}

	filter := f.query()
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "count products")
	}

	opts := options.Find().SetSort(f.sort())
	if page.Limit > 0 {
		opts.SetSkip(page.skip()).SetLimit(page.Limit)
	}
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, translate(err, "find products")
	}
	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, translate(err, "decode products")
	}
	return products, total, nil
}

func (s *ProductStore) listByPrice(ctx context.Context, f ProductFilter, page Page) ([]models.Product, int64, error) {
	bounds := bson.M{}
	if f.MinPrice != nil {
		bounds["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		bounds["$lte"] = *f.MaxPrice
	}

	facetData := bson.A{bson.M{"$sort": f.sort()}}
	if page.Limit > 0 {
		facetData = append(facetData, bson.M{"$skip": page.skip()}, bson.M{"$limit": page.Limit})
	}
	facetData = append(facetData, bson.M{"$unset": "minPrice"})

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: f.query()}},
		{{Key: "$addFields", Value: bson.M{"minPrice": bson.M{"$min": "$prices.price"}}}},
		{{Key: "$match", Value: bson.M{"minPrice": bounds}}},
		{{Key: "$facet", Value: bson.M{
			"data":  facetData,
			"total": bson.A{bson.M{"$count": "n"}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, translate(err, "search products")
	}
	var out []struct {
		Data  []models.Product `bson:"data"`
		Total []struct {
			N int64 `bson:"n"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, translate(err, "decode products")
	}
	if len(out) == 0 {
		return []models.Product{}, 0, nil
	}
	var total int64
	if len(out[0].Total) > 0 {
		total = out[0].Total[0].N
	}
	if out[0].Data == nil {
		out[0].Data = []models.Product{}
	}
	return out[0].Data, total, nil
}

// Trending returns active products ordered by score, newest first on ties.
func (s *ProductStore) Trending(ctx context.Context, category models.Category, minScore *float64, limit int64) ([]models.Product, error) {
	products, _, err := s.List(ctx, ProductFilter{
		Status:   models.ProductActive,
		Category: category,
		MinScore: minScore,
		Sort:     SortTrending,
	}, Page{Page: 1, Limit: limit})
	return products, err
}

func (s *ProductStore) Get(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var p models.Product
	err := s.coll.FindOne(ctx, byID(id)).Decode(&p)
	return p, translate(err, "product "+id.Hex())
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Status == "" {
		p.Status = models.ProductActive
	}
	if p.Prices == nil {
		p.Prices = []models.PriceEntry{}
	}
	if err := trending.Refresh(&p.Trending, now); err != nil {
		return err
	}

	_, err := s.coll.InsertOne(ctx, p)
	return translate(err, "insert product")
}

// Update applies a $set of the given fields and returns the updated product.
func (s *ProductStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	fields["updatedAt"] = time.Now().UTC()
	var p models.Product
	err := s.coll.FindOneAndUpdate(ctx, byID(id), bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	return p, translate(err, "update product "+id.Hex())
}

func (s *ProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return translate(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}

// TrackView counts one view and refreshes the trending score.
func (s *ProductStore) TrackView(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	return s.track(ctx, id, "trending.views")
}

// TrackClick counts one click and refreshes the trending score.
func (s *ProductStore) TrackClick(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	return s.track(ctx, id, "trending.clicks")
}

// track increments the counter in place, then writes the score computed from
// the post-increment counters. The score write is guarded on those counters
// so a concurrent tracker with newer counts always wins.
func (s *ProductStore) track(ctx context.Context, id primitive.ObjectID, counter string) (models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var p models.Product
	err := s.coll.FindOneAndUpdate(ctx, byID(id),
		bson.M{"$inc": bson.M{counter: 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return models.Product{}, translate(err, "track product "+id.Hex())
	}

	now := time.Now().UTC()
	if err := trending.Refresh(&p.Trending, now); err != nil {
		return models.Product{}, err
	}
	_, err = s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "trending.views": p.Trending.Views, "trending.clicks": p.Trending.Clicks},
		bson.M{"$set": bson.M{
			"trending.score":              p.Trending.Score,
			"trending.lastTrendingUpdate": now,
		}},
	)
	if err != nil {
		return models.Product{}, translate(err, "score product "+id.Hex())
	}
	return p, nil
}

// RecomputeTrending rewrites the score of every product from its stored
// counters and returns how many were updated.
func (s *ProductStore) RecomputeTrending(ctx context.Context) (int, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"trending": 1}))
	if err != nil {
		return 0, translate(err, "find products")
	}
	defer cursor.Close(ctx)

	updated := 0
	for cursor.Next(ctx) {
		var doc struct {
			ID       primitive.ObjectID `bson:"_id"`
			Trending models.Trending    `bson:"trending"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return updated, translate(err, "decode product")
		}
		now := time.Now().UTC()
		if err := trending.Refresh(&doc.Trending, now); err != nil {
			return updated, fmt.Errorf("product %s: %w", doc.ID.Hex(), err)
		}
		_, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": doc.ID, "trending.views": doc.Trending.Views, "trending.clicks": doc.Trending.Clicks},
			bson.M{"$set": bson.M{
				"trending.score":              doc.Trending.Score,
				"trending.lastTrendingUpdate": now,
			}},
		)
		if err != nil {
			return updated, translate(err, "score product "+doc.ID.Hex())
		}
		updated++
	}
	return updated, translate(cursor.Err(), "iterate products")
}

// UpsertSitePrice replaces the first stored entry for entry.Site or appends
// a new one when the product has none for that site.
func (s *ProductStore) UpsertSitePrice(ctx context.Context, productID primitive.ObjectID, entry models.PriceEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": productID, "prices.site": entry.Site},
		bson.M{"$set": bson.M{"prices.$": entry, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return translate(err, "update price")
	}
	if res.MatchedCount > 0 {
		return nil
	}

	res, err = s.coll.UpdateOne(ctx,
		bson.M{"_id": productID, "prices.site": bson.M{"$ne": entry.Site}},
		bson.M{
			"$push": bson.M{"prices": entry},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return translate(err, "append price")
	}
	if res.MatchedCount == 0 {
		// Either the product is gone or a concurrent sync appended first.
		if _, err := s.Get(ctx, productID); err != nil {
			return err
		}
		return s.UpsertSitePrice(ctx, productID, entry)
	}
	return nil
}

// ActiveIDs lists the ids of every active product, used by full syncs.
func (s *ProductStore) ActiveIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"status": models.ProductActive}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, translate(err, "find products")
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode products")
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// CountByCategory counts active products per category.
func (s *ProductStore) CountByCategory(ctx context.Context) (map[models.Category]int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.ProductActive}}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, translate(err, "count categories")
	}
	var rows []struct {
		Category models.Category `bson:"_id"`
		Count    int64           `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translate(err, "decode categories")
	}
	counts := make(map[models.Category]int64, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.Count
	}
	return counts, nil
}

type ProductStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Featured int64 `json:"featured"`
}

func (s *ProductStore) Stats(ctx context.Context) (ProductStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var stats ProductStats
	var err error
	if stats.Total, err = s.coll.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, translate(err, "count products")
	}
	if stats.Active, err = s.coll.CountDocuments(ctx, bson.M{"status": models.ProductActive}); err != nil {
		return stats, translate(err, "count products")
	}
	if stats.Featured, err = s.coll.CountDocuments(ctx, bson.M{"featured": true}); err != nil {
		return stats, translate(err, "count products")
	}
	return stats, nil
}
