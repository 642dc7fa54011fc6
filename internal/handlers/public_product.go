package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"trendhub/internal/events"
	"trendhub/internal/models"
	"trendhub/internal/pricing"
	"trendhub/internal/store"
	"trendhub/internal/telemetry"
)

// productView is a product plus its derived price fields.
type productView struct {
	models.Product
	pricing.Summary
}

func viewOf(p models.Product) productView {
	return productView{Product: p, Summary: pricing.Aggregate(p.Prices)}
}

func viewsOf(products []models.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, viewOf(p))
	}
	return out
}

// productFilterFromQuery reads the public listing filters. Unknown categories
// and sort keys are rejected rather than ignored.
func productFilterFromQuery(c *gin.Context) (store.ProductFilter, error) {
	f := store.ProductFilter{
		Status: models.ProductActive,
		Brand:  strings.TrimSpace(c.Query("brand")),
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   store.SortNewest,
	}
	if raw := c.Query("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			return f, err
		}
		f.Category = category
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errInvalid("featured must be boolean")
		}
		f.Featured = &featured
	}
	switch sort := c.Query("sort"); sort {
	case "":
	case store.SortTrending, store.SortNewest, store.SortName:
		f.Sort = sort
	default:
		return f, errInvalid("sort must be one of trending, newest, name")
	}
	return f, nil
}

func GetProducts(products ProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		filter, err := productFilterFromQuery(c)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		page, err := pageFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		list, total, err := products.List(c.Request.Context(), filter, page)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, paginated(viewsOf(list), page, total))
	}
}

func GetTrendingProducts(products ProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/trending"
		defer handlePanic(c, route)

		limit := int64(defaultPageLimit)
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed < 1 {
				respondWithError(c, http.StatusBadRequest, route, "limit must be a positive integer")
				return
			}
			limit = min(parsed, maxPageLimit)
		}

		var category models.Category
		if raw := c.Query("category"); raw != "" {
			parsed, err := models.ParseCategory(raw)
			if err != nil {
				respondWithAppError(c, route, err)
				return
			}
			category = parsed
		}

		var minScore *float64
		if raw := c.Query("minScore"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil || parsed < 0 {
				respondWithError(c, http.StatusBadRequest, route, "minScore must be a non-negative number")
				return
			}
			minScore = &parsed
		}

		list, err := products.Trending(c.Request.Context(), category, minScore, limit)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": viewsOf(list)})
	}
}

func GetProductsByCategory(products ProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/category/:category"
		defer handlePanic(c, route)

		category, err := models.ParseCategory(c.Param("category"))
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		page, err := pageFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := store.ProductFilter{Status: models.ProductActive, Category: category, Sort: store.SortTrending}
		list, total, err := products.List(c.Request.Context(), filter, page)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, paginated(viewsOf(list), page, total))
	}
}

// GetProduct returns one active product and counts a view.
// publicProduct loads a product for an anonymous caller. Anything not active
// is reported as not found.
func publicProduct(c *gin.Context, route string, products ProductRepository, id primitive.ObjectID) (models.Product, bool) {
	product, err := products.Get(c.Request.Context(), id)
	if err != nil {
		respondWithAppError(c, route, err)
		return models.Product{}, false
	}
	if product.Status != models.ProductActive {
		respondWithError(c, http.StatusNotFound, route, "product not found")
		return models.Product{}, false
	}
	return product, true
}

func GetProduct(products ProductRepository, publisher EventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()

		product, ok := publicProduct(c, route, products, id)
		if !ok {
			return
		}

		tracked, err := products.TrackView(ctx, id)
		if err != nil {
			zap.L().Warn("tracking product view failed", zap.String("product", id.Hex()), zap.Error(err))
		} else {
			product = tracked
			recordProductEvent(ctx, publisher, events.ProductView, id)
		}
		c.JSON(http.StatusOK, viewOf(product))
	}
}

func TrackProductClick(products ProductRepository, publisher EventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products/:id/click"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		product, err := products.TrackClick(c.Request.Context(), id)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		recordProductEvent(c.Request.Context(), publisher, events.ProductClick, id)
		c.JSON(http.StatusOK, gin.H{"trending": product.Trending})
	}
}

func recordProductEvent(ctx context.Context, publisher EventPublisher, kind events.Type, id primitive.ObjectID) {
	label := "view"
	if kind == events.ProductClick {
		label = "click"
	}
	telemetry.ProductEventsTotal.WithLabelValues(label).Inc()
	if publisher != nil {
		publisher.Publish(ctx, events.New(kind, id.Hex(), nil))
	}
}

type storedPrice struct {
	models.PriceEntry
	SiteName    string `json:"siteName,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// GetProductPrices compares the stored price entries of a product.
func GetProductPrices(products ProductRepository, sites SiteRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id/prices"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()

		product, ok := publicProduct(c, route, products, id)
		if !ok {
			return
		}

		names := map[primitive.ObjectID]models.EcommerceSite{}
		if all, err := sites.List(ctx, false); err == nil {
			for _, s := range all {
				names[s.ID] = s
			}
		} else {
			zap.L().Warn("listing sites for price labels failed", zap.Error(err))
		}

		prices := make([]storedPrice, 0, len(product.Prices))
		for _, entry := range product.Prices {
			site := names[entry.Site]
			prices = append(prices, storedPrice{PriceEntry: entry, SiteName: site.Name, DisplayName: site.DisplayName})
		}

		summary := pricing.Aggregate(product.Prices)
		c.JSON(http.StatusOK, gin.H{
			"productId":  product.ID,
			"minPrice":   summary.MinPrice,
			"priceRange": summary.PriceRange,
			"prices":     prices,
		})
	}
}

type searchRequest struct {
	Query    string   `json:"query" binding:"max=200"`
	Category string   `json:"category"`
	MinPrice *float64 `json:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice *float64 `json:"maxPrice" binding:"omitempty,gte=0"`
	Page     int64    `json:"page" binding:"omitempty,min=1"`
	Limit    int64    `json:"limit" binding:"omitempty,min=1,max=100"`
}

// SearchProducts filters active products; price bounds apply to each
// product's lowest stored price.
func SearchProducts(products ProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products/search"
		defer handlePanic(c, route)

		var req searchRequest
		if !bindJSON(c, route, &req) {
			return
		}
		if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
			respondWithError(c, http.StatusBadRequest, route, "minPrice must not exceed maxPrice")
			return
		}

		filter := store.ProductFilter{
			Status:   models.ProductActive,
			Search:   strings.TrimSpace(req.Query),
			MinPrice: req.MinPrice,
			MaxPrice: req.MaxPrice,
			Sort:     store.SortTrending,
		}
		if req.Category != "" {
			category, err := models.ParseCategory(req.Category)
			if err != nil {
				respondWithAppError(c, route, err)
				return
			}
			filter.Category = category
		}

		page := store.Page{Page: req.Page, Limit: req.Limit}
		if page.Page == 0 {
			page.Page = 1
		}
		if page.Limit == 0 {
			page.Limit = defaultPageLimit
		}
		if err := checkPageRange(page.Page, page.Limit); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		list, total, err := products.List(c.Request.Context(), filter, page)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, paginated(viewsOf(list), page, total))
	}
}
