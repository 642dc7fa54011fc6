// Package sources implements pricing.SitePriceProvider against real
// e-commerce sites: a JSON API client and an HTML scraper behind a router
// that applies each site's outbound rate limit.
package sources

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
)

const (
	DefaultUserAgent = "TrendHubBot/1.0 (+https://trendhub.example/bot)"

	maxBodyBytes = 4 << 20
)

// NewHTTPClient returns a client tuned for many short calls to a handful of
// hosts. Per-call deadlines come from the request context.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 30 * time.Second,
	}
}

func browserHeaders(h http.Header) {
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-IN,en;q=0.9")
	h.Set("Accept-Encoding", "gzip, br")
}

// readBody reads and decompresses a response body, capped at maxBodyBytes.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	default:
		reader = resp.Body
	}
	return io.ReadAll(io.LimitReader(reader, maxBodyBytes))
}
