// Package store is the mongo persistence layer. Every repository holds the
// database handle it was built with; nothing reaches for a global client.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"trendhub/internal/apperr"
)

const (
	ProductsCollection = "products"
	SitesCollection    = "ecommercesites"
	AdsCollection      = "advertisements"
	AdminsCollection   = "admins"

	opTimeout = 5 * time.Second
)

type Store struct {
	db *mongo.Database

	Products *ProductStore
	Sites    *SiteStore
	Ads      *AdStore
	Admins   *AdminStore
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:       db,
		Products: &ProductStore{coll: db.Collection(ProductsCollection)},
		Sites:    &SiteStore{coll: db.Collection(SitesCollection)},
		Ads:      &AdStore{coll: db.Collection(AdsCollection)},
		Admins:   &AdminStore{coll: db.Collection(AdminsCollection)},
	}
}

func (s *Store) Database() *mongo.Database { return s.db }

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.Client().Ping(checkCtx, readpref.Primary())
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// translate maps driver errors onto the apperr taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", what, apperr.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// ParseID converts a hex id from a path or body.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id %q", apperr.ErrInvalidArgument, hex)
	}
	return id, nil
}

func byID(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id}
}

// Page is a 1-based page request.
type Page struct {
	Page  int64
	Limit int64
}

func (p Page) skip() int64 {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
