package cmd

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"trendhub/internal/cache"
	"trendhub/internal/database"
	"trendhub/internal/events"
	"trendhub/internal/handlers"
	"trendhub/internal/pricing"
	"trendhub/internal/service"
	"trendhub/internal/sources"
	"trendhub/internal/store"
)

// openStore connects to mongo, makes sure indexes exist and returns the
// repositories. The returned func disconnects.
func openStore(ctx context.Context) (*store.Store, func(), error) {
	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	db := client.Database(cfg.DBName)
	zap.L().Info("mongodb connected", zap.String("db", db.Name()))

	if err := database.EnsureIndexes(db); err != nil {
		zap.L().Warn("index bootstrap incomplete", zap.Error(err))
	}
	return store.New(db), func() { disconnect(client) }, nil
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		zap.L().Warn("mongodb disconnect failed", zap.Error(err))
	}
}

// pricingRuntime is the price fetching stack shared by serve and sync-prices.
// liveCache stays a nil interface when redis is not configured.
type pricingRuntime struct {
	aggregator *pricing.Aggregator
	syncer     *service.PriceSyncService
	liveCache  handlers.LivePriceCache
	publisher  events.Publisher
	closers    []func()
}

func newPricingRuntime(st *store.Store) *pricingRuntime {
	rt := &pricingRuntime{publisher: events.Nop{}}

	var syncCache service.PriceCache
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			zap.L().Warn("redis unavailable, live prices are not cached", zap.Error(err))
		} else {
			pc := cache.NewPriceCache(rdb, cfg.PriceCacheTTL)
			rt.liveCache, syncCache = pc, pc
			rt.closers = append(rt.closers, func() { _ = rdb.Close() })
			zap.L().Info("redis connected", zap.String("addr", cfg.RedisAddr))
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		rt.publisher = kp
		rt.closers = append(rt.closers, func() {
			if err := kp.Close(); err != nil {
				zap.L().Warn("kafka writer close failed", zap.Error(err))
			}
		})
		zap.L().Info("kafka publisher enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	router := sources.NewRouter(sources.NewHTTPClient(), sources.Options{
		UserAgent:     cfg.ScraperUserAgent,
		RespectRobots: cfg.RespectRobots,
	})
	rt.aggregator = pricing.NewAggregator(router, cfg.SiteFetchTimeout)
	rt.syncer = service.NewPriceSyncService(st.Products, st.Sites, rt.aggregator, syncCache, rt.publisher, service.DefaultSyncConcurrency)
	return rt
}

func (rt *pricingRuntime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}
