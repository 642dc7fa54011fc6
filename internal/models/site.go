package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SiteLogo struct {
	URL     string `bson:"url,omitempty" json:"url,omitempty" yaml:"url"`
	AltText string `bson:"altText,omitempty" json:"altText,omitempty" yaml:"altText"`
}

type SiteAPIConfig struct {
	HasAPI           bool   `bson:"hasApi" json:"hasApi" yaml:"hasApi"`
	APIURL           string `bson:"apiUrl,omitempty" json:"apiUrl,omitempty" yaml:"apiUrl"`
	APIKey           string `bson:"apiKey,omitempty" json:"-" yaml:"apiKey"`
	RateLimitPerHour int    `bson:"rateLimitPerHour" json:"rateLimitPerHour" yaml:"rateLimitPerHour"`
}

type ScrapeSelectors struct {
	Price        string `bson:"price,omitempty" json:"price,omitempty" yaml:"price"`
	Availability string `bson:"availability,omitempty" json:"availability,omitempty" yaml:"availability"`
	Title        string `bson:"title,omitempty" json:"title,omitempty" yaml:"title"`
	Image        string `bson:"image,omitempty" json:"image,omitempty" yaml:"image"`
}

type ScrapeHeaders struct {
	UserAgent string `bson:"userAgent,omitempty" json:"userAgent,omitempty" yaml:"userAgent"`
	Referer   string `bson:"referer,omitempty" json:"referer,omitempty" yaml:"referer"`
}

type SiteScraping struct {
	Enabled   bool            `bson:"enabled" json:"enabled" yaml:"enabled"`
	Selectors ScrapeSelectors `bson:"selectors" json:"selectors" yaml:"selectors"`
	Headers   ScrapeHeaders   `bson:"headers" json:"headers" yaml:"headers"`
}

type SiteFeatures struct {
	PriceTracking     bool `bson:"priceTracking" json:"priceTracking" yaml:"priceTracking"`
	AvailabilityCheck bool `bson:"availabilityCheck" json:"availabilityCheck" yaml:"availabilityCheck"`
	ReviewSync        bool `bson:"reviewSync" json:"reviewSync" yaml:"reviewSync"`
}

type SiteAffiliate struct {
	Enabled        bool    `bson:"enabled" json:"enabled" yaml:"enabled"`
	AffiliateID    string  `bson:"affiliateId,omitempty" json:"affiliateId,omitempty" yaml:"affiliateId"`
	CommissionRate float64 `bson:"commissionRate,omitempty" json:"commissionRate,omitempty" yaml:"commissionRate"`
}

type SyncStats struct {
	TotalProducts   int64  `bson:"totalProducts" json:"totalProducts"`
	SuccessfulSyncs int64  `bson:"successfulSyncs" json:"successfulSyncs"`
	FailedSyncs     int64  `bson:"failedSyncs" json:"failedSyncs"`
	LastError       string `bson:"lastError,omitempty" json:"lastError,omitempty"`
}

// EcommerceSite is admin-managed reference data describing one price source.
type EcommerceSite struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name" yaml:"name"`
	DisplayName string             `bson:"displayName" json:"displayName" yaml:"displayName"`
	BaseURL     string             `bson:"baseUrl" json:"baseUrl" yaml:"baseUrl"`
	Color       string             `bson:"color,omitempty" json:"color,omitempty" yaml:"color"`
	Logo        SiteLogo           `bson:"logo" json:"logo" yaml:"logo"`
	APIConfig   SiteAPIConfig      `bson:"apiConfig" json:"apiConfig" yaml:"apiConfig"`
	Scraping    SiteScraping       `bson:"scraping" json:"scraping" yaml:"scraping"`
	Features    SiteFeatures       `bson:"features" json:"features" yaml:"features"`
	Affiliate   SiteAffiliate      `bson:"affiliate" json:"affiliate" yaml:"affiliate"`
	Status      SiteStatus         `bson:"status" json:"status" yaml:"status"`
	LastSync    *time.Time         `bson:"lastSync,omitempty" json:"lastSync,omitempty" yaml:"-"`
	SyncStats   SyncStats          `bson:"syncStats" json:"syncStats" yaml:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}

// TracksPrices reports whether live price fetches should include this site.
func (s EcommerceSite) TracksPrices() bool {
	return s.Status == SiteActive && s.Features.PriceTracking && (s.APIConfig.HasAPI || s.Scraping.Enabled)
}

// ApplyDefaults fills the defaults a freshly created site document carries.
func (s *EcommerceSite) ApplyDefaults() {
	if s.Status == "" {
		s.Status = SiteActive
	}
	if s.APIConfig.RateLimitPerHour <= 0 {
		s.APIConfig.RateLimitPerHour = 100
	}
}
