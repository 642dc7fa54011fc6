// Package service runs stored price syncs: live-fetch every tracking site
// for a product, write the results back as price entries and keep each
// site's sync statistics.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trendhub/internal/events"
	"trendhub/internal/pricing"
	"trendhub/internal/telemetry"
)

const DefaultSyncConcurrency = 4

type PriceSyncService struct {
	products    ProductStore
	sites       SiteStore
	aggregator  *pricing.Aggregator
	cache       PriceCache
	publisher   EventPublisher
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

func NewPriceSyncService(
	products ProductStore,
	sites SiteStore,
	aggregator *pricing.Aggregator,
	cache PriceCache,
	publisher EventPublisher,
	concurrency int,
) *PriceSyncService {
	if concurrency <= 0 {
		concurrency = DefaultSyncConcurrency
	}
	return &PriceSyncService{
		products:    products,
		sites:       sites,
		aggregator:  aggregator,
		cache:       cache,
		publisher:   publisher,
		concurrency: concurrency,
		logger:      zap.L().Named("price-sync"),
		now:         time.Now,
	}
}

// ProductSync is the outcome for one product.
type ProductSync struct {
	ProductID primitive.ObjectID    `json:"productId"`
	Updated   int                   `json:"updated"`
	Failed    []pricing.SiteFailure `json:"failed"`
	pricing.Summary
}

// SyncReport summarises a run over many products.
type SyncReport struct {
	Products    int           `json:"products"`
	Updated     int           `json:"updated"`
	SiteErrors  int           `json:"siteErrors"`
	ProductErrs int           `json:"productErrors"`
	Duration    time.Duration `json:"duration"`
}

// SyncProduct refreshes the stored price entries of one product. Individual
// site failures are recorded on the site and reported, never returned.
func (s *PriceSyncService) SyncProduct(ctx context.Context, productID primitive.ObjectID) (ProductSync, error) {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return ProductSync{}, err
	}
	sites, err := s.sites.List(ctx, true)
	if err != nil {
		return ProductSync{}, fmt.Errorf("list sites: %w", err)
	}

	live := s.aggregator.FetchLive(ctx, product, sites)
	out := ProductSync{ProductID: productID, Failed: live.Failed}
	now := s.now().UTC()

	for _, entry := range live.Entries() {
		if err := s.products.UpsertSitePrice(ctx, productID, entry); err != nil {
			s.recordSite(ctx, entry.Site, fmt.Errorf("store price: %w", err), now)
			out.Failed = append(out.Failed, pricing.SiteFailure{Site: entry.Site, Error: err.Error()})
			continue
		}
		s.recordSite(ctx, entry.Site, nil, now)
		out.Updated++
	}
	for _, f := range live.Failed {
		s.recordSite(ctx, f.Site, errors.New(f.Error), now)
	}

	stored, err := s.products.Get(ctx, productID)
	if err == nil {
		out.Summary = pricing.Aggregate(stored.Prices)
	} else {
		out.Summary = live.Summary
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, productID); err != nil {
			s.logger.Warn("price cache invalidation failed", zap.String("product", productID.Hex()), zap.Error(err))
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(ctx, events.New(events.PriceSynced, productID.Hex(), map[string]string{
			"updated": strconv.Itoa(out.Updated),
			"failed":  strconv.Itoa(len(out.Failed)),
		}))
	}

	s.logger.Info("product prices synced",
		zap.String("product", productID.Hex()),
		zap.Int("updated", out.Updated),
		zap.Int("failed", len(out.Failed)),
	)
	return out, nil
}

func (s *PriceSyncService) recordSite(ctx context.Context, siteID primitive.ObjectID, syncErr error, now time.Time) {
	outcome := "ok"
	if syncErr != nil {
		outcome = "error"
	}
	telemetry.SyncRunsTotal.WithLabelValues(siteID.Hex(), outcome).Inc()

	if err := s.sites.RecordSync(ctx, siteID, syncErr, now); err != nil {
		s.logger.Warn("recording site sync failed", zap.String("site", siteID.Hex()), zap.Error(err))
	}
}

// SyncAll syncs every active product with bounded concurrency. A product
// that fails is counted and skipped; only cancellation aborts the run.
func (s *PriceSyncService) SyncAll(ctx context.Context) (SyncReport, error) {
	started := time.Now()
	ids, err := s.products.ActiveIDs(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("list products: %w", err)
	}

	var (
		mu     sync.Mutex
		report = SyncReport{Products: len(ids)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.SyncProduct(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.ProductErrs++
				s.logger.Warn("product sync failed", zap.String("product", id.Hex()), zap.Error(err))
				return nil
			}
			report.Updated += res.Updated
			report.SiteErrors += len(res.Failed)
			return nil
		})
	}
	err = g.Wait()
	report.Duration = time.Since(started)

	s.logger.Info("price sync completed",
		zap.Int("products", report.Products),
		zap.Int("updated", report.Updated),
		zap.Int("siteErrors", report.SiteErrors),
		zap.Int("productErrors", report.ProductErrs),
		zap.Duration("duration", report.Duration),
	)
	return report, err
}
