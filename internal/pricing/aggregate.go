// Package pricing merges per-site price entries into a comparison summary,
// both for stored entries and for live fetches against registered sites.
package pricing

import "trendhub/internal/models"

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Summary is absent (nil fields) when there is nothing to compare.
type Summary struct {
	MinPrice   *float64    `json:"minPrice"`
	PriceRange *PriceRange `json:"priceRange"`
}

// Aggregate computes the minimum and range over every entry. Duplicate site
// entries all contribute; currencies are not normalized and zero or negative
// prices are taken as stored.
func Aggregate(entries []models.PriceEntry) Summary {
	if len(entries) == 0 {
		return Summary{}
	}

	min, max := entries[0].Price, entries[0].Price
	for _, entry := range entries[1:] {
		if entry.Price < min {
			min = entry.Price
		}
		if entry.Price > max {
			max = entry.Price
		}
	}

	return Summary{
		MinPrice:   &min,
		PriceRange: &PriceRange{Min: min, Max: max},
	}
}

// MinPrice is the derived accessor behind a product's minPrice field.
func MinPrice(p models.Product) (float64, bool) {
	s := Aggregate(p.Prices)
	if s.MinPrice == nil {
		return 0, false
	}
	return *s.MinPrice, true
}
