package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductImage struct {
	URL       string `bson:"url" json:"url"`
	AltText   string `bson:"altText,omitempty" json:"altText,omitempty"`
	IsPrimary bool   `bson:"isPrimary" json:"isPrimary"`
}

// PriceEntry is one site's offer for a product. Entries live inside the
// product document; nothing enforces one entry per site.
type PriceEntry struct {
	Site         primitive.ObjectID `bson:"site" json:"site"`
	Price        float64            `bson:"price" json:"price"`
	Currency     string             `bson:"currency" json:"currency"`
	URL          string             `bson:"url" json:"url"`
	LastUpdated  time.Time          `bson:"lastUpdated" json:"lastUpdated"`
	Availability Availability       `bson:"availability" json:"availability"`
}

type Trending struct {
	Score              float64   `bson:"score" json:"score"`
	Views              int64     `bson:"views" json:"views"`
	Clicks             int64     `bson:"clicks" json:"clicks"`
	LastTrendingUpdate time.Time `bson:"lastTrendingUpdate" json:"lastTrendingUpdate"`
}

type SEO struct {
	Title       string     `bson:"title,omitempty" json:"title,omitempty"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Keywords    StringList `bson:"keywords,omitempty" json:"keywords,omitempty"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Category    Category           `bson:"category" json:"category"`
	Brand       string             `bson:"brand" json:"brand"`
	Images      []ProductImage     `bson:"images" json:"images"`
	Prices      []PriceEntry       `bson:"prices" json:"prices"`
	Tags        StringList         `bson:"tags" json:"tags"`
	Trending    Trending           `bson:"trending" json:"trending"`
	SEO         SEO                `bson:"seo" json:"seo"`
	Status      ProductStatus      `bson:"status" json:"status"`
	Featured    bool               `bson:"featured" json:"featured"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PrimaryImage returns the first image flagged primary, falling back to the
// first image. The flag is not enforced to be unique.
func (p Product) PrimaryImage() (ProductImage, bool) {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img, true
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0], true
	}
	return ProductImage{}, false
}

// PriceFor returns the first stored entry for site.
func (p Product) PriceFor(site primitive.ObjectID) (PriceEntry, bool) {
	for _, entry := range p.Prices {
		if entry.Site == site {
			return entry, true
		}
	}
	return PriceEntry{}, false
}
