package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
)

// APIProvider asks a site's partner API for the current offer:
// GET {apiUrl}?product={ref} with the site's key as a bearer token.
type APIProvider struct {
	client *http.Client
	now    func() time.Time
}

func NewAPIProvider(client *http.Client) *APIProvider {
	return &APIProvider{client: client, now: time.Now}
}

type apiOffer struct {
	Price        *float64 `json:"price"`
	Currency     string   `json:"currency"`
	URL          string   `json:"url"`
	Availability string   `json:"availability"`
}

func (p *APIProvider) Fetch(ctx context.Context, site models.EcommerceSite, productRef string) (models.PriceEntry, error) {
	if !site.APIConfig.HasAPI || site.APIConfig.APIURL == "" {
		return models.PriceEntry{}, fmt.Errorf("%w: %s has no API configured", apperr.ErrSiteUnavailable, site.Name)
	}

	endpoint, err := url.Parse(site.APIConfig.APIURL)
	if err != nil {
		return models.PriceEntry{}, fmt.Errorf("%w: %s api url: %v", apperr.ErrSiteUnavailable, site.Name, err)
	}
	q := endpoint.Query()
	q.Set("product", productRef)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return models.PriceEntry{}, fmt.Errorf("%w: %v", apperr.ErrSiteUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")
	if site.APIConfig.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+site.APIConfig.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return models.PriceEntry{}, fmt.Errorf("%w: %s: %v", apperr.ErrSiteUnavailable, site.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PriceEntry{}, fmt.Errorf("%w: %s answered %d", apperr.ErrSiteUnavailable, site.Name, resp.StatusCode)
	}
	body, err := readBody(resp)
	if err != nil {
		return models.PriceEntry{}, fmt.Errorf("%w: %s: %v", apperr.ErrSiteUnavailable, site.Name, err)
	}

	var offer apiOffer
	if err := json.Unmarshal(body, &offer); err != nil {
		return models.PriceEntry{}, fmt.Errorf("%w: %s: decode offer: %v", apperr.ErrSiteUnavailable, site.Name, err)
	}
	if offer.Price == nil {
		return models.PriceEntry{}, fmt.Errorf("%w: %s returned no price", apperr.ErrSiteUnavailable, site.Name)
	}

	entry := models.PriceEntry{
		Site:         site.ID,
		Price:        *offer.Price,
		Currency:     strings.ToUpper(offer.Currency),
		URL:          offer.URL,
		LastUpdated:  p.now().UTC(),
		Availability: parseAvailability(offer.Availability),
	}
	if entry.URL == "" && isAbsoluteURL(productRef) {
		entry.URL = productRef
	}
	return entry, nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}
