package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trendhub/internal/apperr"
	"trendhub/internal/events"
	"trendhub/internal/models"
	"trendhub/internal/store"
	"trendhub/internal/telemetry"
)

func GetSites(sites SiteRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/ecommerce/sites"
		defer handlePanic(c, route)

		list, err := sites.List(c.Request.Context(), true)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": list})
	}
}

// GetLivePrices fetches current offers from every price-tracking site. A
// cached comparison is served when one exists; cache is optional.
func GetLivePrices(products ProductRepository, sites SiteRepository, fetcher LivePriceFetcher, cache LivePriceCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/ecommerce/prices/:productId"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "productId")
		if !ok {
			return
		}
		ctx := c.Request.Context()

		product, ok := publicProduct(c, route, products, id)
		if !ok {
			return
		}

		if cache != nil {
			cached, hit, err := cache.Get(ctx, id)
			switch {
			case err != nil:
				telemetry.PriceCacheTotal.WithLabelValues("error").Inc()
				zap.L().Warn("price cache read failed", zap.String("product", id.Hex()), zap.Error(err))
			case hit:
				telemetry.PriceCacheTotal.WithLabelValues("hit").Inc()
				c.Header("X-Cache", "HIT")
				c.JSON(http.StatusOK, cached)
				return
			default:
				telemetry.PriceCacheTotal.WithLabelValues("miss").Inc()
			}
		}

		active, err := sites.List(ctx, true)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}

		result := fetcher.FetchLive(ctx, product, active)
		if cache != nil {
			if err := cache.Set(ctx, result); err != nil {
				zap.L().Warn("price cache write failed", zap.String("product", id.Hex()), zap.Error(err))
			}
			c.Header("X-Cache", "MISS")
		}
		c.JSON(http.StatusOK, result)
	}
}

type syncRequest struct {
	ProductID string `json:"productId"`
}

// SyncPrices refreshes stored price entries for one product or, without a
// productId, for every active product.
func SyncPrices(syncer PriceSyncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/ecommerce/sync"
		defer handlePanic(c, route)

		var req syncRequest
		if c.Request.ContentLength != 0 && !bindJSON(c, route, &req) {
			return
		}

		if req.ProductID != "" {
			id, err := store.ParseID(req.ProductID)
			if err != nil {
				respondWithAppError(c, route, err)
				return
			}
			res, err := syncer.SyncProduct(c.Request.Context(), id)
			if err != nil {
				respondWithAppError(c, route, err)
				return
			}
			c.JSON(http.StatusOK, res)
			return
		}

		report, err := syncer.SyncAll(c.Request.Context())
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// RedirectToSite sends the visitor to the product's page on a site, tagged
// with the affiliate id when the site has an affiliate program. The redirect
// counts as a product click.
func RedirectToSite(products ProductRepository, sites SiteRepository, publisher EventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/ecommerce/:site/:productId"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "productId")
		if !ok {
			return
		}
		ctx := c.Request.Context()

		site, err := sites.GetByName(ctx, c.Param("site"))
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		if site.Status != models.SiteActive {
			respondWithError(c, http.StatusNotFound, route, "site not available")
			return
		}
		product, ok := publicProduct(c, route, products, id)
		if !ok {
			return
		}

		entry, ok := product.PriceFor(site.ID)
		if !ok || entry.URL == "" {
			respondWithError(c, http.StatusNotFound, route, "product is not listed on "+site.Name)
			return
		}
		target, err := affiliateURL(entry.URL, site.Affiliate)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}

		if _, err := products.TrackClick(ctx, id); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			zap.L().Warn("tracking redirect click failed", zap.String("product", id.Hex()), zap.Error(err))
		} else if err == nil {
			recordProductEvent(ctx, publisher, events.ProductClick, id)
		}
		c.Redirect(http.StatusFound, target)
	}
}

func affiliateURL(raw string, affiliate models.SiteAffiliate) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errInvalid("stored product url is not absolute")
	}
	if affiliate.Enabled && affiliate.AffiliateID != "" {
		q := u.Query()
		q.Set("tag", affiliate.AffiliateID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
