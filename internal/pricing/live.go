package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
	"trendhub/internal/telemetry"
)

//go:generate mockgen -source=live.go -destination=mocks/mocks.go -package=mocks

// SitePriceProvider fetches one site's current offer for a product. Failures
// should wrap apperr.ErrSiteUnavailable.
type SitePriceProvider interface {
	Fetch(ctx context.Context, site models.EcommerceSite, productRef string) (models.PriceEntry, error)
}

const DefaultSiteTimeout = 5 * time.Second

type LivePrice struct {
	Site         primitive.ObjectID  `json:"site"`
	SiteName     string              `json:"siteName"`
	DisplayName  string              `json:"displayName"`
	Price        float64             `json:"price"`
	Currency     string              `json:"currency"`
	URL          string              `json:"url"`
	Availability models.Availability `json:"availability"`
	FetchedAt    time.Time           `json:"fetchedAt"`
}

type SiteFailure struct {
	Site     primitive.ObjectID `json:"site"`
	SiteName string             `json:"siteName"`
	Error    string             `json:"error"`
}

type LiveResult struct {
	ProductID primitive.ObjectID `json:"productId"`
	Prices    []LivePrice        `json:"prices"`
	Failed    []SiteFailure      `json:"failed"`
	Summary
}

// Entries converts the successful live prices back into price entries.
func (r LiveResult) Entries() []models.PriceEntry {
	out := make([]models.PriceEntry, 0, len(r.Prices))
	for _, p := range r.Prices {
		out = append(out, models.PriceEntry{
			Site:         p.Site,
			Price:        p.Price,
			Currency:     p.Currency,
			URL:          p.URL,
			LastUpdated:  p.FetchedAt,
			Availability: p.Availability,
		})
	}
	return out
}

// Aggregator fans a product out to every price-tracking site, one call per
// site in parallel, and merges whatever comes back inside the timeout.
type Aggregator struct {
	provider SitePriceProvider
	timeout  time.Duration
	now      func() time.Time
}

func NewAggregator(provider SitePriceProvider, timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultSiteTimeout
	}
	return &Aggregator{provider: provider, timeout: timeout, now: time.Now}
}

type fetchOutcome struct {
	index int
	entry models.PriceEntry
	err   error
}

// FetchLive never fails as a whole: sites that error or miss the timeout are
// reported in Failed and left out of the summary. Calls still running when
// the window closes are not cancelled; their results are dropped.
func (a *Aggregator) FetchLive(ctx context.Context, product models.Product, sites []models.EcommerceSite) LiveResult {
	ctx, span := telemetry.StartSpan(ctx, "pricing.FetchLive",
		attribute.String("product.id", product.ID.Hex()),
		attribute.Int("sites", len(sites)),
	)
	defer span.End()

	eligible := make([]models.EcommerceSite, 0, len(sites))
	for _, site := range sites {
		if site.TracksPrices() {
			eligible = append(eligible, site)
		}
	}

	result := LiveResult{
		ProductID: product.ID,
		Prices:    make([]LivePrice, 0, len(eligible)),
		Failed:    make([]SiteFailure, 0),
	}
	if len(eligible) == 0 {
		return result
	}

	// Buffered so late goroutines never block once we stop listening.
	outcomes := make(chan fetchOutcome, len(eligible))
	callCtx := context.WithoutCancel(ctx)

	for i, site := range eligible {
		go func(i int, site models.EcommerceSite) {
			fetchCtx, cancel := context.WithTimeout(callCtx, a.timeout)
			defer cancel()

			started := time.Now()
			entry, err := a.provider.Fetch(fetchCtx, site, ProductRef(product, site.ID))
			telemetry.SiteFetchLatency.WithLabelValues(site.Name).Observe(time.Since(started).Seconds())
			outcomes <- fetchOutcome{index: i, entry: entry, err: err}
		}(i, site)
	}

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	done := make([]bool, len(eligible))
	entries := make([]*models.PriceEntry, len(eligible))
	errs := make([]error, len(eligible))

collect:
	for received := 0; received < len(eligible); {
		select {
		case out := <-outcomes:
			received++
			done[out.index] = true
			if out.err != nil {
				errs[out.index] = out.err
				continue
			}
			entry := out.entry
			entries[out.index] = &entry
		case <-timer.C:
			break collect
		case <-ctx.Done():
			break collect
		}
	}

	for i, site := range eligible {
		switch {
		case !done[i]:
			telemetry.SiteFetchTotal.WithLabelValues(site.Name, "timeout").Inc()
			result.Failed = append(result.Failed, failure(site, fmt.Errorf("%w: no response within %s", apperr.ErrSiteUnavailable, a.timeout)))
		case errs[i] != nil:
			telemetry.SiteFetchTotal.WithLabelValues(site.Name, "error").Inc()
			result.Failed = append(result.Failed, failure(site, errs[i]))
		default:
			telemetry.SiteFetchTotal.WithLabelValues(site.Name, "ok").Inc()
			result.Prices = append(result.Prices, a.livePrice(site, *entries[i]))
		}
	}

	for _, f := range result.Failed {
		zap.L().Warn("site price fetch failed",
			zap.String("product", product.ID.Hex()),
			zap.String("site", f.SiteName),
			zap.String("error", f.Error),
		)
	}

	result.Summary = Aggregate(result.Entries())
	span.SetAttributes(
		attribute.Int("prices", len(result.Prices)),
		attribute.Int("failed", len(result.Failed)),
	)
	return result
}

func (a *Aggregator) livePrice(site models.EcommerceSite, entry models.PriceEntry) LivePrice {
	fetched := entry.LastUpdated
	if fetched.IsZero() {
		fetched = a.now()
	}
	currency := entry.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}
	availability := entry.Availability
	if availability == "" {
		availability = models.InStock
	}
	return LivePrice{
		Site:         site.ID,
		SiteName:     site.Name,
		DisplayName:  site.DisplayName,
		Price:        entry.Price,
		Currency:     currency,
		URL:          entry.URL,
		Availability: availability,
		FetchedAt:    fetched,
	}
}

func failure(site models.EcommerceSite, err error) SiteFailure {
	if !errors.Is(err, apperr.ErrSiteUnavailable) {
		err = fmt.Errorf("%w: %v", apperr.ErrSiteUnavailable, err)
	}
	return SiteFailure{Site: site.ID, SiteName: site.Name, Error: err.Error()}
}

// ProductRef is the identifier handed to a provider: the URL of the stored
// entry for that site when one exists, otherwise the product name.
func ProductRef(product models.Product, site primitive.ObjectID) string {
	if entry, ok := product.PriceFor(site); ok && entry.URL != "" {
		return entry.URL
	}
	return product.Name
}
