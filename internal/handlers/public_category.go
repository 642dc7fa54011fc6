package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trendhub/internal/models"
)

type categoryCount struct {
	Category models.Category `json:"category"`
	Count    int64           `json:"count"`
}

// GetCategories lists every category in display order with its number of
// active products; empty categories are included with a zero count.
func GetCategories(products ProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/categories"
		defer handlePanic(c, route)

		counts, err := products.CountByCategory(c.Request.Context())
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}

		out := make([]categoryCount, 0, len(models.Categories))
		for _, category := range models.Categories {
			out = append(out, categoryCount{Category: category, Count: counts[category]})
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
	}
}
