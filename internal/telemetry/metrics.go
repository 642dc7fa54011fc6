package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SiteFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendhub_site_fetch_total",
		Help: "Live price fetches per site and outcome (ok, error, timeout)",
	}, []string{"site", "outcome"})

	SiteFetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trendhub_site_fetch_latency_seconds",
		Help:    "Latency of live price fetches per site",
		Buckets: prometheus.DefBuckets,
	}, []string{"site"})

	PriceCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendhub_price_cache_total",
		Help: "Live price cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	AdImpressionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendhub_ad_impressions_total",
		Help: "Advertisement impressions served per position",
	}, []string{"position"})

	AdClicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trendhub_ad_clicks_total",
		Help: "Advertisement clicks tracked",
	})

	ProductEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendhub_product_events_total",
		Help: "Product views and clicks tracked",
	}, []string{"kind"})

	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendhub_admin_login_attempts_total",
		Help: "Admin login attempts by outcome (success, invalid, locked)",
	}, []string{"outcome"})

	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendhub_price_sync_total",
		Help: "Stored price sync results per site",
	}, []string{"site", "outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
