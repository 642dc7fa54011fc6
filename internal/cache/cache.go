// Package cache keeps recent live price comparisons in redis so repeated
// page loads do not fan out to every site again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"trendhub/internal/pricing"
	"trendhub/internal/telemetry"
)

const DefaultTTL = 5 * time.Minute

type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient dials redis and pings it.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func NewPriceCache(rdb *redis.Client, ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PriceCache{rdb: rdb, ttl: ttl}
}

func liveKey(productID primitive.ObjectID) string {
	return "prices:live:" + productID.Hex()
}

// Get returns the cached comparison for productID. A miss is (zero, false, nil).
func (c *PriceCache) Get(ctx context.Context, productID primitive.ObjectID) (pricing.LiveResult, bool, error) {
	raw, err := c.rdb.Get(ctx, liveKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		telemetry.PriceCacheTotal.WithLabelValues("miss").Inc()
		return pricing.LiveResult{}, false, nil
	}
	if err != nil {
		telemetry.PriceCacheTotal.WithLabelValues("error").Inc()
		return pricing.LiveResult{}, false, fmt.Errorf("redis get: %w", err)
	}

	var result pricing.LiveResult
	if err := json.Unmarshal(raw, &result); err != nil {
		telemetry.PriceCacheTotal.WithLabelValues("error").Inc()
		zap.L().Warn("dropping undecodable cached prices", zap.String("product", productID.Hex()), zap.Error(err))
		_ = c.rdb.Del(ctx, liveKey(productID)).Err()
		return pricing.LiveResult{}, false, nil
	}
	telemetry.PriceCacheTotal.WithLabelValues("hit").Inc()
	return result, true, nil
}

// Set stores result. Comparisons where every site failed are not cached.
func (c *PriceCache) Set(ctx context.Context, result pricing.LiveResult) error {
	if len(result.Prices) == 0 {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode prices: %w", err)
	}
	if err := c.rdb.Set(ctx, liveKey(result.ProductID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate drops the cached comparison, used after a price sync.
func (c *PriceCache) Invalidate(ctx context.Context, productID primitive.ObjectID) error {
	if err := c.rdb.Del(ctx, liveKey(productID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
