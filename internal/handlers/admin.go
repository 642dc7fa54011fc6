package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"trendhub/internal/models"
	"trendhub/internal/sources"
	"trendhub/internal/store"
)

// siteAPIInput carries the api key, which is never rendered back.
type siteAPIInput struct {
	HasAPI           bool   `json:"hasApi"`
	APIURL           string `json:"apiUrl" binding:"omitempty,url"`
	APIKey           string `json:"apiKey"`
	RateLimitPerHour int    `json:"rateLimitPerHour" binding:"omitempty,min=1"`
}

type SiteRequest struct {
	Name        string               `json:"name" binding:"required,max=50"`
	DisplayName string               `json:"displayName" binding:"required,max=100"`
	BaseURL     string               `json:"baseUrl" binding:"required,url"`
	Color       string               `json:"color"`
	Logo        models.SiteLogo      `json:"logo"`
	APIConfig   siteAPIInput         `json:"apiConfig"`
	Scraping    models.SiteScraping  `json:"scraping"`
	Features    models.SiteFeatures  `json:"features"`
	Affiliate   models.SiteAffiliate `json:"affiliate"`
	Status      models.SiteStatus    `json:"status"`
}

func (r SiteRequest) site() models.EcommerceSite {
	return models.EcommerceSite{
		Name:        r.Name,
		DisplayName: strings.TrimSpace(r.DisplayName),
		BaseURL:     strings.TrimRight(r.BaseURL, "/"),
		Color:       r.Color,
		Logo:        r.Logo,
		APIConfig: models.SiteAPIConfig{
			HasAPI:           r.APIConfig.HasAPI,
			APIURL:           r.APIConfig.APIURL,
			APIKey:           r.APIConfig.APIKey,
			RateLimitPerHour: r.APIConfig.RateLimitPerHour,
		},
		Scraping:  r.Scraping,
		Features:  r.Features,
		Affiliate: r.Affiliate,
		Status:    r.Status,
	}
}

/* =======================
   SITES
======================= */

// GetAllSites lists sites in every status.
func GetAllSites(sites SiteRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/sites"
		defer handlePanic(c, route)

		list, err := sites.List(c.Request.Context(), false)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": list})
	}
}

func CreateSite(sites SiteRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/sites"
		defer handlePanic(c, route)

		var req SiteRequest
		if !bindJSON(c, route, &req) {
			return
		}
		if err := sources.ValidateSelectors(req.Scraping.Selectors); err != nil {
			respondWithAppError(c, route, err)
			return
		}
		site := req.site()
		if err := sites.Create(c.Request.Context(), &site); err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, site)
	}
}

// UpdateSite replaces the site configuration. Name, sync stats and the
// stored api key survive; a new key is written only when one is sent.
func UpdateSite(sites SiteRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/sites/:id"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		var req SiteRequest
		if !bindJSON(c, route, &req) {
			return
		}
		if err := sources.ValidateSelectors(req.Scraping.Selectors); err != nil {
			respondWithAppError(c, route, err)
			return
		}
		ctx := c.Request.Context()

		existing, err := sites.Get(ctx, id)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		next := req.site()
		if next.APIConfig.APIKey == "" {
			next.APIConfig.APIKey = existing.APIConfig.APIKey
		}
		if next.Status == "" {
			next.Status = existing.Status
		}
		next.ApplyDefaults()

		updated, err := sites.Update(ctx, id, bson.M{
			"displayName": next.DisplayName,
			"baseUrl":     next.BaseURL,
			"color":       next.Color,
			"logo":        next.Logo,
			"apiConfig":   next.APIConfig,
			"scraping":    next.Scraping,
			"features":    next.Features,
			"affiliate":   next.Affiliate,
			"status":      next.Status,
		})
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func DeleteSite(sites SiteRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/sites/:id"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		if err := sites.Delete(c.Request.Context(), id); err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "site deleted"})
	}
}

/* =======================
   DASHBOARD
======================= */

const dashboardTrendingLimit = 5

type dashboardSites struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

// DashboardStats gathers the admin overview in parallel; any failing query
// fails the whole response.
func DashboardStats(products ProductRepository, adStore AdRepository, sites SiteRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/dashboard/stats"
		defer handlePanic(c, route)

		var (
			productStats store.ProductStats
			adTotals     store.AdTotals
			siteCounts   dashboardSites
			byCategory   map[models.Category]int64
			trending     []models.Product
		)

		g, ctx := errgroup.WithContext(c.Request.Context())
		g.Go(func() (err error) {
			productStats, err = products.Stats(ctx)
			return err
		})
		g.Go(func() (err error) {
			adTotals, err = adStore.Totals(ctx, time.Now().UTC())
			return err
		})
		g.Go(func() (err error) {
			if siteCounts.Total, err = sites.Count(ctx, false); err != nil {
				return err
			}
			siteCounts.Active, err = sites.Count(ctx, true)
			return err
		})
		g.Go(func() (err error) {
			byCategory, err = products.CountByCategory(ctx)
			return err
		})
		g.Go(func() (err error) {
			trending, err = products.Trending(ctx, "", nil, dashboardTrendingLimit)
			return err
		})
		if err := g.Wait(); err != nil {
			respondWithAppError(c, route, err)
			return
		}

		categories := make([]categoryCount, 0, len(models.Categories))
		for _, category := range models.Categories {
			categories = append(categories, categoryCount{Category: category, Count: byCategory[category]})
		}

		c.JSON(http.StatusOK, gin.H{
			"products":   productStats,
			"ads":        adTotals,
			"sites":      siteCounts,
			"categories": categories,
			"trending":   viewsOf(trending),
		})
	}
}
