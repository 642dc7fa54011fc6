package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"trendhub/internal/middleware"
	"trendhub/internal/models"
)

/* =======================
   REQUEST MODELS
======================= */

type ProductCreateRequest struct {
	Name        string                `json:"name" binding:"required,max=200"`
	Description string                `json:"description" binding:"required,max=2000"`
	Category    models.Category       `json:"category" binding:"required"`
	Brand       string                `json:"brand" binding:"required,max=100"`
	Images      []models.ProductImage `json:"images"`
	Prices      []models.PriceEntry   `json:"prices"`
	Tags        []string              `json:"tags"`
	SEO         models.SEO            `json:"seo"`
	Status      models.ProductStatus  `json:"status"`
	Featured    bool                  `json:"featured"`
}

type ProductUpdateRequest struct {
	Name        *string                `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string                `json:"description" binding:"omitempty,max=2000"`
	Category    *models.Category       `json:"category"`
	Brand       *string                `json:"brand" binding:"omitempty,min=1,max=100"`
	Images      *[]models.ProductImage `json:"images"`
	Prices      *[]models.PriceEntry   `json:"prices"`
	Tags        *[]string              `json:"tags"`
	SEO         *models.SEO            `json:"seo"`
	Status      *models.ProductStatus  `json:"status"`
	Featured    *bool                  `json:"featured"`
}

/* =======================
   HELPERS
======================= */

// normalizePrices fills entry defaults and rejects entries an aggregation
// could not use.
func normalizePrices(entries []models.PriceEntry) ([]models.PriceEntry, error) {
	out := make([]models.PriceEntry, 0, len(entries))
	for i, entry := range entries {
		if entry.Site.IsZero() {
			return nil, errInvalid(fmt.Sprintf("prices[%d].site is required", i))
		}
		if entry.Price < 0 {
			return nil, errInvalid(fmt.Sprintf("prices[%d].price must not be negative", i))
		}
		if entry.Currency == "" {
			entry.Currency = models.DefaultCurrency
		}
		if entry.Availability == "" {
			entry.Availability = models.InStock
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r ProductCreateRequest) product(createdBy primitive.ObjectID) (models.Product, error) {
	prices, err := normalizePrices(r.Prices)
	if err != nil {
		return models.Product{}, err
	}
	return models.Product{
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Category:    r.Category,
		Brand:       strings.TrimSpace(r.Brand),
		Images:      r.Images,
		Prices:      prices,
		Tags:        models.NormalizeTags(r.Tags),
		SEO:         r.SEO,
		Status:      r.Status,
		Featured:    r.Featured,
		CreatedBy:   createdBy,
	}, nil
}

func (r ProductUpdateRequest) fields() (bson.M, error) {
	set := bson.M{}
	if r.Name != nil {
		set["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		set["description"] = strings.TrimSpace(*r.Description)
	}
	if r.Category != nil {
		set["category"] = *r.Category
	}
	if r.Brand != nil {
		set["brand"] = strings.TrimSpace(*r.Brand)
	}
	if r.Images != nil {
		set["images"] = *r.Images
	}
	if r.Prices != nil {
		prices, err := normalizePrices(*r.Prices)
		if err != nil {
			return nil, err
		}
		set["prices"] = prices
	}
	if r.Tags != nil {
		set["tags"] = models.NormalizeTags(*r.Tags)
	}
	if r.SEO != nil {
		set["seo"] = *r.SEO
	}
	if r.Status != nil {
		set["status"] = *r.Status
	}
	if r.Featured != nil {
		set["featured"] = *r.Featured
	}
	return set, nil
}

/* =======================
   GET (ADMIN) – LIST
======================= */

// GetAllProducts lists products in every status unless ?status is given.
func GetAllProducts(products ProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products"
		defer handlePanic(c, route)

		filter, err := productFilterFromQuery(c)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		filter.Status = ""
		if raw := c.Query("status"); raw != "" {
			status, err := models.ParseProductStatus(raw)
			if err != nil {
				respondWithAppError(c, route, err)
				return
			}
			filter.Status = status
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

/* =======================
   CREATE
======================= */

func CreateProduct(products ProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/products"
		defer handlePanic(c, route)

		var req ProductCreateRequest
		if !bindJSON(c, route, &req) {
			return
		}
		adminID, _ := middleware.AdminID(c)
		product, err := req.product(adminID)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}

		if err := products.Create(c.Request.Context(), &product); err != nil {
			respondWithAppError(c, route, err)
			return
		}
		zap.L().Info("product created", zap.String("product", product.ID.Hex()), zap.String("admin", adminID.Hex()))
		c.JSON(http.StatusCreated, viewOf(product))
	}
}

type bulkResult struct {
	Index int                 `json:"index"`
	ID    *primitive.ObjectID `json:"id,omitempty"`
	Error string              `json:"error,omitempty"`
}

type bulkRequest struct {
	Products []json.RawMessage `json:"products" binding:"required,min=1,max=100"`
}

// BulkCreateProducts inserts each item independently; an invalid item is
// reported in its result and does not stop the others.
func BulkCreateProducts(products ProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/products/bulk"
		defer handlePanic(c, route)

		var req bulkRequest
		if !bindJSON(c, route, &req) {
			return
		}
		adminID, _ := middleware.AdminID(c)
		ctx := c.Request.Context()

		results := make([]bulkResult, 0, len(req.Products))
		created := 0
		for i, raw := range req.Products {
			res := bulkResult{Index: i}

			var item ProductCreateRequest
			if err := json.Unmarshal(raw, &item); err != nil {
				res.Error = "invalid item: " + err.Error()
				results = append(results, res)
				continue
			}
			if err := binding.Validator.ValidateStruct(&item); err != nil {
				res.Error = err.Error()
				results = append(results, res)
				continue
			}
			product, err := item.product(adminID)
			if err == nil {
				err = products.Create(ctx, &product)
			}
			if err != nil {
				if statusFor(err) == http.StatusInternalServerError {
					zap.L().Error("bulk product insert failed", zap.Int("index", i), zap.Error(err))
					res.Error = "internal server error"
				} else {
					res.Error = err.Error()
				}
				results = append(results, res)
				continue
			}
			id := product.ID
			res.ID = &id
			created++
			results = append(results, res)
		}

		zap.L().Info("bulk product import",
			zap.Int("items", len(req.Products)),
			zap.Int("created", created),
			zap.String("admin", adminID.Hex()),
		)
		c.JSON(http.StatusOK, gin.H{
			"created": created,
			"failed":  len(req.Products) - created,
			"results": results,
		})
	}
}

/* =======================
   UPDATE
======================= */

func UpdateProduct(products ProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/products/:id"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		var req ProductUpdateRequest
		if !bindJSON(c, route, &req) {
			return
		}
		fields, err := req.fields()
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		if len(fields) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		updated, err := products.Update(c.Request.Context(), id, fields)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, viewOf(updated))
	}
}

/* =======================
   DELETE
======================= */

func DeleteProduct(products ProductRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/products/:id"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		if err := products.Delete(c.Request.Context(), id); err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}
