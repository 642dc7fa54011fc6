package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"trendhub/internal/events"
	"trendhub/internal/models"
)

type ProductStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	ActiveIDs(ctx context.Context) ([]primitive.ObjectID, error)
	UpsertSitePrice(ctx context.Context, productID primitive.ObjectID, entry models.PriceEntry) error
}

type SiteStore interface {
	List(ctx context.Context, activeOnly bool) ([]models.EcommerceSite, error)
	RecordSync(ctx context.Context, id primitive.ObjectID, syncErr error, now time.Time) error
}

type PriceCache interface {
	Invalidate(ctx context.Context, productID primitive.ObjectID) error
}

type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.Event)
}
