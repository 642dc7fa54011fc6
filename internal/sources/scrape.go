package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
)

// ScrapeProvider reads a product page: schema.org JSON-LD offers first, then
// the site's configured CSS selectors.
type ScrapeProvider struct {
	client    *http.Client
	robots    *RobotsChecker
	userAgent string
	now       func() time.Time
}

func NewScrapeProvider(client *http.Client, robots *RobotsChecker, userAgent string) *ScrapeProvider {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &ScrapeProvider{client: client, robots: robots, userAgent: userAgent, now: time.Now}
}

func (p *ScrapeProvider) Fetch(ctx context.Context, site models.EcommerceSite, productRef string) (models.PriceEntry, error) {
	if !site.Scraping.Enabled {
		return models.PriceEntry{}, fmt.Errorf("%w: %s has scraping disabled", apperr.ErrSiteUnavailable, site.Name)
	}
	pageURL, err := resolvePageURL(site.BaseURL, productRef)
	if err != nil {
		return models.PriceEntry{}, fmt.Errorf("%w: %s: %v", apperr.ErrSiteUnavailable, site.Name, err)
	}

	userAgent := p.userAgent
	if site.Scraping.Headers.UserAgent != "" {
		userAgent = site.Scraping.Headers.UserAgent
	}
	if p.robots != nil {
		allowed, err := p.robots.Allowed(ctx, userAgent, pageURL)
		if err != nil {
			return models.PriceEntry{}, fmt.Errorf("%w: %s: %v", apperr.ErrSiteUnavailable, site.Name, err)
		}
		if !allowed {
			return models.PriceEntry{}, fmt.Errorf("%w: %s disallows %s in robots.txt", apperr.ErrSiteUnavailable, site.Name, pageURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return models.PriceEntry{}, fmt.Errorf("%w: %v", apperr.ErrSiteUnavailable, err)
	}
	browserHeaders(req.Header)
	req.Header.Set("User-Agent", userAgent)
	if site.Scraping.Headers.Referer != "" {
		req.Header.Set("Referer", site.Scraping.Headers.Referer)
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

	offer, err := extractOffer(body, site.Scraping.Selectors)
	if err != nil {
		return models.PriceEntry{}, fmt.Errorf("%w: %s: %v", apperr.ErrSiteUnavailable, site.Name, err)
	}
	return models.PriceEntry{
		Site:         site.ID,
		Price:        offer.price,
		Currency:     offer.currency,
		URL:          pageURL,
		LastUpdated:  p.now().UTC(),
		Availability: offer.availability,
	}, nil
}

// resolvePageURL accepts an absolute product URL or a path on the site.
// Anything else (a bare product name) has no page to scrape.
func resolvePageURL(baseURL, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if isAbsoluteURL(ref) {
		return ref, nil
	}
	if strings.HasPrefix(ref, "/") && baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return "", fmt.Errorf("base url: %w", err)
		}
		rel, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("product path: %w", err)
		}
		return base.ResolveReference(rel).String(), nil
	}
	return "", fmt.Errorf("no product page known for %q", ref)
}

type scrapedOffer struct {
	price        float64
	currency     string
	availability models.Availability
}

func extractOffer(body []byte, selectors models.ScrapeSelectors) (scrapedOffer, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return scrapedOffer{}, fmt.Errorf("parse html: %w", err)
	}

	if offer, ok := offerFromJSONLD(doc); ok {
		return offer, nil
	}

	if selectors.Price == "" {
		return scrapedOffer{}, fmt.Errorf("no JSON-LD offer and no price selector")
	}
	sel, err := compileSelector(selectors.Price)
	if err != nil {
		return scrapedOffer{}, err
	}
	node := sel.MatchFirst(doc)
	if node == nil {
		return scrapedOffer{}, fmt.Errorf("price selector %q matched nothing", selectors.Price)
	}
	price, ok := parsePrice(nodeValue(node))
	if !ok {
		return scrapedOffer{}, fmt.Errorf("price selector %q has no number", selectors.Price)
	}

	offer := scrapedOffer{price: price, availability: models.InStock}
	if selectors.Availability != "" {
		if sel, err := compileSelector(selectors.Availability); err == nil {
			if n := sel.MatchFirst(doc); n != nil {
				offer.availability = parseAvailability(nodeValue(n))
			}
		}
	}
	return offer, nil
}

func offerFromJSONLD(doc *html.Node) (scrapedOffer, bool) {
	var found scrapedOffer
	ok := false
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "script" || attr(n, "type") != "application/ld+json" {
			return true
		}
		if n.FirstChild == nil {
			return true
		}
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(n.FirstChild.Data)), &data); err != nil {
			return true
		}
		found, ok = productOffer(data)
		return !ok
	})
	return found, ok
}

// productOffer searches decoded JSON-LD for a Product node and reads its
// offers. Offers may be a single Offer, an AggregateOffer or a list.
func productOffer(data any) (scrapedOffer, bool) {
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			if offer, ok := productOffer(item); ok {
				return offer, true
			}
		}
	case map[string]any:
		if isType(v["@type"], "Product") {
			if offer, ok := readOffers(v["offers"]); ok {
				return offer, true
			}
		}
		if graph, ok := v["@graph"]; ok {
			return productOffer(graph)
		}
	}
	return scrapedOffer{}, false
}

func readOffers(raw any) (scrapedOffer, bool) {
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if offer, ok := readOffers(item); ok {
				return offer, true
			}
		}
	case map[string]any:
		price, ok := jsonPrice(v["price"])
		if !ok {
			price, ok = jsonPrice(v["lowPrice"])
		}
		if !ok {
			return scrapedOffer{}, false
		}
		currency, _ := v["priceCurrency"].(string)
		availability, _ := v["availability"].(string)
		return scrapedOffer{
			price:        price,
			currency:     strings.ToUpper(currency),
			availability: parseAvailability(availability),
		}, true
	}
	return scrapedOffer{}, false
}

func jsonPrice(v any) (float64, bool) {
	switch p := v.(type) {
	case float64:
		return p, true
	case string:
		return parsePrice(p)
	}
	return 0, false
}

func isType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return t == want
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// ValidateSelectors compiles the configured price and availability
// selectors so a broken one is caught when the site is saved.
func ValidateSelectors(sel models.ScrapeSelectors) error {
	fields := []struct{ name, raw string }{
		{"price", sel.Price},
		{"availability", sel.Availability},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		if _, err := cascadia.Compile(f.raw); err != nil {
			return fmt.Errorf("%w: %s selector %q: %v", apperr.ErrInvalidArgument, f.name, f.raw, err)
		}
	}
	return nil
}

func compileSelector(raw string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", raw, err)
	}
	return sel, nil
}

// walk visits nodes depth first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// nodeValue prefers a content attribute (meta and microdata tags) over the
// element's text.
func nodeValue(n *html.Node) string {
	if v, ok := attrOK(n, "content"); ok {
		return v
	}
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
