package sources

import (
	"context"
	"fmt"
	"net/http"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
)

// Router picks the API provider for sites that have one and the scraper
// otherwise, after taking a token from the site's rate limit.
type Router struct {
	api      *APIProvider
	scrape   *ScrapeProvider
	limiters *Limiters
}

type Options struct {
	UserAgent     string
	RespectRobots bool
}

// NewRouter wires both providers around one shared HTTP client.
func NewRouter(client *http.Client, opts Options) *Router {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Router{
		api:      NewAPIProvider(client),
		scrape:   NewScrapeProvider(client, NewRobotsChecker(client, opts.RespectRobots), opts.UserAgent),
		limiters: NewLimiters(),
	}
}

func (r *Router) Fetch(ctx context.Context, site models.EcommerceSite, productRef string) (models.PriceEntry, error) {
	if !site.APIConfig.HasAPI && !site.Scraping.Enabled {
		return models.PriceEntry{}, fmt.Errorf("%w: %s has neither API nor scraping configured", apperr.ErrSiteUnavailable, site.Name)
	}
	if err := r.limiters.Wait(ctx, site); err != nil {
		return models.PriceEntry{}, err
	}
	if site.APIConfig.HasAPI {
		return r.api.Fetch(ctx, site, productRef)
	}
	return r.scrape.Fetch(ctx, site, productRef)
}
