package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"trendhub/internal/auth"
	"trendhub/internal/middleware"
)

// Deps is everything the HTTP surface needs. Cache and Publisher are
// optional and must be left nil, not typed nil pointers, when disabled.
type Deps struct {
	Products  ProductRepository
	Sites     SiteRepository
	Ads       AdRepository
	Admins    AdminRepository
	Guard     LoginGuard
	Tokens    *auth.Tokens
	Live      LivePriceFetcher
	Cache     LivePriceCache
	Syncer    PriceSyncer
	Publisher EventPublisher
	Pinger    Pinger
	Started   time.Time
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	authed := middleware.AuthGuard(d.Tokens)
	can := func(resource, action string) gin.HandlerFunc {
		return middleware.RequirePermission(d.Admins, resource, action)
	}

	api := r.Group("/api")
	api.GET("/health", Health(d.Pinger, d.Started))

	products := api.Group("/products")
	{
		products.GET("", GetProducts(d.Products))
		products.GET("/trending", GetTrendingProducts(d.Products))
		products.GET("/category/:category", GetProductsByCategory(d.Products))
		products.POST("/search", SearchProducts(d.Products))
		products.GET("/:id", GetProduct(d.Products, d.Publisher))
		products.POST("/:id/click", TrackProductClick(d.Products, d.Publisher))
		products.GET("/:id/prices", GetProductPrices(d.Products, d.Sites))
	}

	api.GET("/categories", GetCategories(d.Products))

	ecommerce := api.Group("/ecommerce")
	{
		ecommerce.GET("/sites", GetSites(d.Sites))
		ecommerce.GET("/prices/:productId", GetLivePrices(d.Products, d.Sites, d.Live, d.Cache))
		ecommerce.POST("/sync", authed, can("products", "update"), SyncPrices(d.Syncer))
		ecommerce.GET("/:site/:productId", RedirectToSite(d.Products, d.Sites, d.Publisher))
	}

	ads := api.Group("/ads")
	{
		ads.GET("", GetActiveAds(d.Ads))
		ads.GET("/position/:position", GetAdsForPosition(d.Ads, d.Publisher))
		ads.POST("/:id/click", TrackAdClick(d.Ads, d.Publisher))

		ads.POST("", authed, can("ads", "create"), CreateAd(d.Ads))
		ads.PUT("/:id", authed, can("ads", "update"), UpdateAd(d.Ads))
		ads.DELETE("/:id", authed, can("ads", "delete"), DeleteAd(d.Ads))
		ads.PUT("/:id/toggle", authed, can("ads", "update"), ToggleAd(d.Ads))
		ads.GET("/:id/stats", authed, can("ads", "read"), GetAdStats(d.Ads))
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", Register(d.Admins, d.Tokens))
		authGroup.POST("/login", Login(d.Guard, d.Tokens))

		me := middleware.CurrentAdmin(d.Admins)
		authGroup.GET("/me", authed, me, GetMe())
		authGroup.POST("/logout", authed, Logout())
		authGroup.PUT("/change-password", authed, me, ChangePassword(d.Admins))
		authGroup.PUT("/profile", authed, me, UpdateProfile(d.Admins))
	}

	admin := api.Group("/admin")
	admin.Use(authed)
	{
		admin.GET("/dashboard/stats", can("products", "read"), DashboardStats(d.Products, d.Ads, d.Sites))

		admin.GET("/products", can("products", "read"), GetAllProducts(d.Products))
		admin.POST("/products", can("products", "create"), CreateProduct(d.Products))
		admin.POST("/products/bulk", can("products", "create"), BulkCreateProducts(d.Products))
		admin.PUT("/products/:id", can("products", "update"), UpdateProduct(d.Products))
		admin.DELETE("/products/:id", can("products", "delete"), DeleteProduct(d.Products))

		admin.GET("/ads", can("ads", "read"), ListAds(d.Ads))

		admin.GET("/sites", can("settings", "read"), GetAllSites(d.Sites))
		admin.POST("/sites", can("settings", "create"), CreateSite(d.Sites))
		admin.PUT("/sites/:id", can("settings", "update"), UpdateSite(d.Sites))
		admin.DELETE("/sites/:id", can("settings", "delete"), DeleteSite(d.Sites))
	}
}
