package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trendhub/internal/models"
)

func entries(prices ...float64) []models.PriceEntry {
	out := make([]models.PriceEntry, 0, len(prices))
	for _, p := range prices {
		out = append(out, models.PriceEntry{Site: primitive.NewObjectID(), Price: p})
	}
	return out
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	assert.Nil(t, s.MinPrice)
	assert.Nil(t, s.PriceRange)

	s = Aggregate([]models.PriceEntry{})
	assert.Nil(t, s.MinPrice)
	assert.Nil(t, s.PriceRange)
}

func TestAggregateMinAndRange(t *testing.T) {
	s := Aggregate(entries(500, 300, 800))
	require.NotNil(t, s.MinPrice)
	require.NotNil(t, s.PriceRange)
	assert.Equal(t, 300.0, *s.MinPrice)
	assert.Equal(t, PriceRange{Min: 300, Max: 800}, *s.PriceRange)
}

func TestAggregateToleratesDuplicateSites(t *testing.T) {
	site := primitive.NewObjectID()
	s := Aggregate([]models.PriceEntry{
		{Site: site, Price: 450},
		{Site: site, Price: 420},
		{Site: primitive.NewObjectID(), Price: 999},
	})
	require.NotNil(t, s.MinPrice)
	assert.Equal(t, 420.0, *s.MinPrice)
	assert.Equal(t, 999.0, s.PriceRange.Max)
}

func TestAggregateKeepsZeroAndNegativePrices(t *testing.T) {
	s := Aggregate(entries(0, -10, 25))
	require.NotNil(t, s.MinPrice)
	assert.Equal(t, -10.0, *s.MinPrice)
	assert.Equal(t, PriceRange{Min: -10, Max: 25}, *s.PriceRange)
}

func TestMinPriceAccessor(t *testing.T) {
	_, ok := MinPrice(models.Product{})
	assert.False(t, ok)

	min, ok := MinPrice(models.Product{Prices: entries(12, 7)})
	assert.True(t, ok)
	assert.Equal(t, 7.0, min)
}
