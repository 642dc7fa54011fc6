package sources

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
)

const defaultRateLimitPerHour = 100

// Limiters keeps one token bucket per site, sized from rateLimitPerHour.
// A changed limit replaces the site's bucket.
type Limiters struct {
	mu      sync.Mutex
	buckets map[primitive.ObjectID]*siteBucket
}

type siteBucket struct {
	perHour int
	limiter *rate.Limiter
}

func NewLimiters() *Limiters {
	return &Limiters{buckets: make(map[primitive.ObjectID]*siteBucket)}
}

func newBucket(perHour int) *siteBucket {
	burst := perHour / 10
	if burst < 1 {
		burst = 1
	}
	return &siteBucket{
		perHour: perHour,
		limiter: rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), burst),
	}
}

func (l *Limiters) For(site models.EcommerceSite) *rate.Limiter {
	perHour := site.APIConfig.RateLimitPerHour
	if perHour <= 0 {
		perHour = defaultRateLimitPerHour
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[site.ID]
	if !ok || b.perHour != perHour {
		b = newBucket(perHour)
		l.buckets[site.ID] = b
	}
	return b.limiter
}

// Wait blocks for a token of site's bucket. A wait that cannot finish before
// ctx ends is reported as the site being unavailable.
func (l *Limiters) Wait(ctx context.Context, site models.EcommerceSite) error {
	if err := l.For(site).Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s rate limit: %v", apperr.ErrSiteUnavailable, site.Name, err)
	}
	return nil
}
