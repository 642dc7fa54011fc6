package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"trendhub/internal/ads"
	"trendhub/internal/events"
	"trendhub/internal/middleware"
	"trendhub/internal/models"
	"trendhub/internal/telemetry"
)

// GetActiveAds lists every ad whose status and date window make it live,
// across all positions. Nothing is tracked.
func GetActiveAds(adStore AdRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/ads"
		defer handlePanic(c, route)

		list, err := adStore.ListActive(c.Request.Context(), "", time.Now().UTC())
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		ads.Rank(list)
		c.JSON(http.StatusOK, gin.H{"data": list})
	}
}

// deviceFromUserAgent is a coarse sniff used when the client does not say
// which device it is. An empty agent stays unknown.
func deviceFromUserAgent(ua string) models.Device {
	ua = strings.ToLower(ua)
	switch {
	case ua == "":
		return ""
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"),
		strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		return models.DeviceTablet
	case strings.Contains(ua, "mobi"), strings.Contains(ua, "iphone"), strings.Contains(ua, "android"):
		return models.DeviceMobile
	}
	return models.DeviceDesktop
}

func selectionContext(c *gin.Context, now time.Time) (ads.Context, error) {
	ctx := ads.Context{
		Location: strings.TrimSpace(c.Query("location")),
		Now:      now,
	}
	if raw := c.Query("device"); raw != "" {
		device, err := models.ParseDevice(raw)
		if err != nil {
			return ctx, err
		}
		ctx.Device = device
	} else {
		ctx.Device = deviceFromUserAgent(c.GetHeader("User-Agent"))
	}
	if raw := c.Query("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			return ctx, err
		}
		ctx.Category = category
	}
	return ctx, nil
}

// GetAdsForPosition returns the ranked ads for a slot and counts one
// impression for each ad returned.
func GetAdsForPosition(adStore AdRepository, publisher EventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/ads/position/:position"
		defer handlePanic(c, route)

		position, err := models.ParseAdPosition(c.Param("position"))
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		now := time.Now().UTC()
		selCtx, err := selectionContext(c, now)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		candidates, err := adStore.ListActive(ctx, position, now)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		selected := ads.Select(candidates, position, selCtx)

		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 {
				respondWithError(c, http.StatusBadRequest, route, "limit must be a positive integer")
				return
			}
			if limit < len(selected) {
				selected = selected[:limit]
			}
		}

		if len(selected) > 0 {
			ids := make([]primitive.ObjectID, 0, len(selected))
			evts := make([]events.Event, 0, len(selected))
			for i := range selected {
				ids = append(ids, selected[i].ID)
				evts = append(evts, events.New(events.AdImpression, selected[i].ID.Hex(), map[string]string{
					"position": string(position),
					"device":   string(selCtx.Device),
				}))
			}
			if err := adStore.TrackImpressions(ctx, ids, now); err != nil {
				zap.L().Warn("tracking ad impressions failed", zap.String("position", string(position)), zap.Error(err))
			} else {
				for i := range selected {
					ads.TrackImpression(&selected[i].Analytics, now)
				}
				telemetry.AdImpressionsTotal.WithLabelValues(string(position)).Add(float64(len(selected)))
				if publisher != nil {
					publisher.Publish(ctx, evts...)
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"data": selected})
	}
}

func TrackAdClick(adStore AdRepository, publisher EventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/ads/:id/click"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		analytics, err := adStore.TrackClick(c.Request.Context(), id, time.Now().UTC())
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		telemetry.AdClicksTotal.Inc()
		if publisher != nil {
			publisher.Publish(c.Request.Context(), events.New(events.AdClick, id.Hex(), nil))
		}
		c.JSON(http.StatusOK, gin.H{"analytics": analytics})
	}
}

type adRequest struct {
	Title       string              `json:"title" binding:"required,max=100"`
	Description string              `json:"description" binding:"max=500"`
	Image       models.AdImage      `json:"image"`
	Link        models.AdLink       `json:"link"`
	Position    models.AdPosition   `json:"position" binding:"required"`
	Dimensions  models.AdDimensions `json:"dimensions"`
	Targeting   models.Targeting    `json:"targeting"`
	Schedule    models.Schedule     `json:"schedule"`
	Budget      models.Budget       `json:"budget"`
	Status      models.AdStatus     `json:"status"`
	Priority    int                 `json:"priority"`
	Advertiser  models.Advertiser   `json:"advertiser"`
}

func (r adRequest) validate() error {
	if r.Priority != 0 {
		if err := ads.ValidatePriority(r.Priority); err != nil {
			return err
		}
	}
	return ads.ValidateSchedule(r.Schedule)
}

func (r adRequest) apply(ad *models.Advertisement, by primitive.ObjectID, now time.Time) {
	ad.Title = strings.TrimSpace(r.Title)
	ad.Description = strings.TrimSpace(r.Description)
	ad.Image = r.Image
	ad.Link = r.Link
	ad.Position = r.Position
	ad.Dimensions = r.Dimensions
	ad.Targeting = r.Targeting
	ad.Schedule = r.Schedule
	ad.Budget = r.Budget
	ad.Priority = r.Priority
	ad.Advertiser = r.Advertiser

	if r.Status != "" {
		if r.Status == models.AdActive && ad.Status != models.AdActive {
			ad.ApprovedBy = &by
			ad.ApprovedAt = &now
		}
		ad.Status = r.Status
	}
}

func CreateAd(adStore AdRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/ads"
		defer handlePanic(c, route)

		var req adRequest
		if !bindJSON(c, route, &req) {
			return
		}
		if err := req.validate(); err != nil {
			respondWithAppError(c, route, err)
			return
		}

		adminID, _ := middleware.AdminID(c)
		var ad models.Advertisement
		req.apply(&ad, adminID, time.Now().UTC())
		ad.CreatedBy = adminID

		if err := adStore.Create(c.Request.Context(), &ad); err != nil {
			respondWithAppError(c, route, err)
			return
		}
		zap.L().Info("advertisement created", zap.String("ad", ad.ID.Hex()), zap.String("admin", adminID.Hex()))
		c.JSON(http.StatusCreated, ad)
	}
}

func UpdateAd(adStore AdRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/ads/:id"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		var req adRequest
		if !bindJSON(c, route, &req) {
			return
		}
		if err := req.validate(); err != nil {
			respondWithAppError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		existing, err := adStore.Get(ctx, id)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		adminID, _ := middleware.AdminID(c)
		req.apply(&existing, adminID, time.Now().UTC())

		updated, err := adStore.Replace(ctx, existing)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func DeleteAd(adStore AdRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/ads/:id"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		if err := adStore.Delete(c.Request.Context(), id); err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "advertisement deleted"})
	}
}

// ToggleAd flips an active ad to paused and anything else to active.
func ToggleAd(adStore AdRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/ads/:id/toggle"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		ad, err := adStore.ToggleStatus(c.Request.Context(), id)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": ad.ID, "status": ad.Status})
	}
}

func GetAdStats(adStore AdRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/ads/:id/stats"
		defer handlePanic(c, route)

		id, ok := idParam(c, route, "id")
		if !ok {
			return
		}
		ad, err := adStore.Get(c.Request.Context(), id)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		now := time.Now().UTC()
		c.JSON(http.StatusOK, gin.H{
			"id":                ad.ID,
			"title":             ad.Title,
			"position":          ad.Position,
			"status":            ad.Status,
			"analytics":         ad.Analytics,
			"isCurrentlyActive": ad.IsCurrentlyActive(now),
		})
	}
}

// ListAds is the admin view over every ad, optionally filtered by status.
func ListAds(adStore AdRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/ads"
		defer handlePanic(c, route)

		var status models.AdStatus
		if raw := c.Query("status"); raw != "" {
			parsed, err := models.ParseAdStatus(raw)
			if err != nil {
				respondWithAppError(c, route, err)
				return
			}
			status = parsed
		}
		page, err := pageFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		list, total, err := adStore.List(c.Request.Context(), status, page)
		if err != nil {
			respondWithAppError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, paginated(list, page, total))
	}
}
