package handlers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trendhub/internal/events"
	"trendhub/internal/models"
	"trendhub/internal/pricing"
	"trendhub/internal/service"
	"trendhub/internal/store"
)

// The repositories below are satisfied by the store package; handlers only
// name the methods they call.

type ProductRepository interface {
	List(ctx context.Context, f store.ProductFilter, page store.Page) ([]models.Product, int64, error)
	Trending(ctx context.Context, category models.Category, minScore *float64, limit int64) ([]models.Product, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	TrackView(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	TrackClick(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	CountByCategory(ctx context.Context) (map[models.Category]int64, error)
	Stats(ctx context.Context) (store.ProductStats, error)
}

type SiteRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.EcommerceSite, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.EcommerceSite, error)
	GetByName(ctx context.Context, name string) (models.EcommerceSite, error)
	Create(ctx context.Context, site *models.EcommerceSite) error
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.EcommerceSite, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context, activeOnly bool) (int64, error)
}

type AdRepository interface {
	ListActive(ctx context.Context, position models.AdPosition, now time.Time) ([]models.Advertisement, error)
	List(ctx context.Context, status models.AdStatus, page store.Page) ([]models.Advertisement, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Advertisement, error)
	Create(ctx context.Context, ad *models.Advertisement) error
	Replace(ctx context.Context, ad models.Advertisement) (models.Advertisement, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ToggleStatus(ctx context.Context, id primitive.ObjectID) (models.Advertisement, error)
	TrackClick(ctx context.Context, id primitive.ObjectID, now time.Time) (models.AdAnalytics, error)
	TrackImpressions(ctx context.Context, ids []primitive.ObjectID, now time.Time) error
	Totals(ctx context.Context, now time.Time) (store.AdTotals, error)
}

type AdminRepository interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, a *models.Admin) error
	Get(ctx context.Context, id primitive.ObjectID) (models.Admin, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Admin, error)
}

// LoginGuard is the lockout-aware credential check.
type LoginGuard interface {
	Login(ctx context.Context, login, password string) (models.Admin, error)
}

type LivePriceFetcher interface {
	FetchLive(ctx context.Context, product models.Product, sites []models.EcommerceSite) pricing.LiveResult
}

type LivePriceCache interface {
	Get(ctx context.Context, productID primitive.ObjectID) (pricing.LiveResult, bool, error)
	Set(ctx context.Context, result pricing.LiveResult) error
}

type PriceSyncer interface {
	SyncProduct(ctx context.Context, productID primitive.ObjectID) (service.ProductSync, error)
	SyncAll(ctx context.Context) (service.SyncReport, error)
}

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventPublisher never fails a request; delivery problems are logged by the
// implementation.
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.Event)
}
