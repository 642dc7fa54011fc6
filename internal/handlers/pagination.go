package handlers

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"trendhub/internal/store"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func parsePaginationParams(pageStr, limitStr string) (int64, int64, error) {
	page := int64(1)
	limit := int64(defaultPageLimit)

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, fmt.Errorf("limit must be a positive integer")
		}
		limit = l
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if err := checkPageRange(page, limit); err != nil {
		return 0, 0, err
	}

	return page, limit, nil
}

// checkPageRange rejects pages whose offset would overflow int64.
func checkPageRange(page, limit int64) error {
	if limit > 0 && page-1 > math.MaxInt64/limit {
		return fmt.Errorf("page is out of range")
	}
	return nil
}

func pageFromQuery(c *gin.Context) (store.Page, error) {
	page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
	if err != nil {
		return store.Page{}, err
	}
	return store.Page{Page: page, Limit: limit}, nil
}

func paginated(data any, page store.Page, total int64) gin.H {
	totalPages := int64(0)
	if total > 0 && page.Limit > 0 {
		totalPages = int64(math.Ceil(float64(total) / float64(page.Limit)))
	}
	return gin.H{
		"data": data,
		"pagination": gin.H{
			"page":       page.Page,
			"limit":      page.Limit,
			"total":      total,
			"totalPages": totalPages,
		},
	}
}
