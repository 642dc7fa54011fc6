package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trendhub/internal/apperr"
	"trendhub/internal/auth"
	"trendhub/internal/events"
	"trendhub/internal/models"
	"trendhub/internal/pricing"
	"trendhub/internal/store"
)

type harness struct {
	products  *fakeProducts
	sites     *fakeSites
	ads       *fakeAds
	admins    *fakeAdmins
	guard     *fakeGuard
	fetcher   *fakeFetcher
	cache     *fakeCache
	syncer    *fakeSyncer
	publisher *recordingPublisher
	tokens    *auth.Tokens
	router    *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &harness{
		products:  newFakeProducts(),
		sites:     &fakeSites{},
		ads:       &fakeAds{},
		admins:    newFakeAdmins(),
		guard:     &fakeGuard{},
		fetcher:   &fakeFetcher{},
		cache:     &fakeCache{},
		syncer:    &fakeSyncer{},
		publisher: &recordingPublisher{},
		tokens:    auth.NewTokens("test-secret", time.Hour),
	}
	h.router = gin.New()
	RegisterRoutes(h.router, Deps{
		Products:  h.products,
		Sites:     h.sites,
		Ads:       h.ads,
		Admins:    h.admins,
		Guard:     h.guard,
		Tokens:    h.tokens,
		Live:      h.fetcher,
		Cache:     h.cache,
		Syncer:    h.syncer,
		Publisher: h.publisher,
		Pinger:    fakePinger{},
		Started:   time.Now(),
	})
	return h
}

func (h *harness) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// login registers admin with the fake store and returns an Authorization
// header pair for it.
func (h *harness) login(t *testing.T, role models.AdminRole) []string {
	t.Helper()
	admin := models.Admin{
		ID:          primitive.NewObjectID(),
		Role:        role,
		Status:      models.AdminActive,
		Permissions: models.DefaultPermissions(role),
	}
	h.admins.mu.Lock()
	h.admins.items[admin.ID] = admin
	h.admins.mu.Unlock()
	token, _, err := h.tokens.Issue(admin, time.Now())
	require.NoError(t, err)
	return []string{"Authorization", "Bearer " + token}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func activeProduct(name string, prices ...float64) models.Product {
	p := models.Product{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Category:  models.CategoryShoes,
		Brand:     "Acme",
		Status:    models.ProductActive,
		CreatedAt: time.Now().UTC(),
	}
	for _, price := range prices {
		p.Prices = append(p.Prices, models.PriceEntry{
			Site:     primitive.NewObjectID(),
			Price:    price,
			Currency: "INR",
			URL:      "https://shop.example/p/" + name,
		})
	}
	return p
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.ErrInvalidArgument, http.StatusBadRequest},
		{apperr.ErrInvalidCredentials, http.StatusUnauthorized},
		{apperr.ErrPermissionDenied, http.StatusForbidden},
		{fmt.Errorf("ad x: %w", apperr.ErrNotFound), http.StatusNotFound},
		{apperr.ErrConflict, http.StatusConflict},
		{fmt.Errorf("%w until tomorrow", apperr.ErrAccountLocked), http.StatusLocked},
		{apperr.ErrSiteUnavailable, http.StatusBadGateway},
		{errors.New("socket closed"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestParsePaginationParams(t *testing.T) {
	cases := []struct {
		page, limit         string
		wantPage, wantLimit int64
		wantErr             bool
	}{
		{"", "", 1, 20, false},
		{"3", "10", 3, 10, false},
		{"1", "500", 1, 100, false},
		{"0", "", 0, 0, true},
		{"", "-1", 0, 0, true},
		{"abc", "", 0, 0, true},
		{"92233720368547759", "100", 92233720368547759, 100, false},
		{"92233720368547760", "100", 0, 0, true},
		{"100000000000000000", "", 100000000000000000, 20, false},
		{"100000000000000000", "100", 0, 0, true},
	}
	for _, tc := range cases {
		page, limit, err := parsePaginationParams(tc.page, tc.limit)
		if tc.wantErr {
			assert.Error(t, err, "page=%q limit=%q", tc.page, tc.limit)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.wantPage, page)
		assert.Equal(t, tc.wantLimit, limit)
	}
}

func TestGetProductsAppliesFiltersAndPagination(t *testing.T) {
	h := newHarness(t)
	p := activeProduct("runner", 120, 80)
	h.products.items[p.ID] = p

	w := h.do(http.MethodGet, "/api/products?page=2&limit=5&category=Shoes&sort=name&featured=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, models.CategoryShoes, h.products.lastFilter.Category)
	assert.Equal(t, models.ProductActive, h.products.lastFilter.Status)
	assert.Equal(t, store.SortName, h.products.lastFilter.Sort)
	require.NotNil(t, h.products.lastFilter.Featured)
	assert.True(t, *h.products.lastFilter.Featured)
	assert.Equal(t, store.Page{Page: 2, Limit: 5}, h.products.lastPage)

	body := decode(t, w)
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 2, pagination["page"])
	assert.EqualValues(t, 1, pagination["total"])
	assert.EqualValues(t, 1, pagination["totalPages"])

	data := body["data"].([]any)
	require.Len(t, data, 1)
	item := data[0].(map[string]any)
	assert.EqualValues(t, 80, item["minPrice"])
	assert.Equal(t, map[string]any{"min": 80.0, "max": 120.0}, item["priceRange"])
}

func TestGetProductsRejectsBadQuery(t *testing.T) {
	h := newHarness(t)
	for _, q := range []string{"category=toys", "sort=price", "limit=0", "featured=maybe", "page=100000000000000000&limit=100"} {
		w := h.do(http.MethodGet, "/api/products?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestGetProductCountsViewAndPublishes(t *testing.T) {
	h := newHarness(t)
	p := activeProduct("runner", 100)
	h.products.items[p.ID] = p

	w := h.do(http.MethodGet, "/api/products/"+p.ID.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	trending := body["trending"].(map[string]any)
	assert.EqualValues(t, 1, trending["views"])
	assert.Equal(t, []events.Type{events.ProductView}, h.publisher.types())
}

func TestGetProductHidesInactive(t *testing.T) {
	h := newHarness(t)
	p := activeProduct("draft")
	p.Status = models.ProductDraft
	h.products.items[p.ID] = p

	w := h.do(http.MethodGet, "/api/products/"+p.ID.Hex(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, h.products.items[p.ID].Trending.Views)

	w = h.do(http.MethodGet, "/api/products/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrackProductClick(t *testing.T) {
	h := newHarness(t)
	p := activeProduct("runner")
	h.products.items[p.ID] = p

	w := h.do(http.MethodPost, "/api/products/"+p.ID.Hex()+"/click", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, h.products.items[p.ID].Trending.Clicks)

	w = h.do(http.MethodPost, "/api/products/"+primitive.NewObjectID().Hex()+"/click", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProductPricesLabelsSites(t *testing.T) {
	h := newHarness(t)
	p := activeProduct("runner", 150, 90)
	h.products.items[p.ID] = p
	h.sites.items = []models.EcommerceSite{{ID: p.Prices[1].Site, Name: "flipkart", DisplayName: "Flipkart", Status: models.SiteActive}}

	w := h.do(http.MethodGet, "/api/products/"+p.ID.Hex()+"/prices", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 90, body["minPrice"])
	prices := body["prices"].([]any)
	require.Len(t, prices, 2)
	assert.Equal(t, "flipkart", prices[1].(map[string]any)["siteName"])
	assert.Nil(t, prices[0].(map[string]any)["siteName"])
}

func TestSearchRejectsInvertedPriceBounds(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/products/search", `{"query":"shoe","minPrice":500,"maxPrice":100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/products/search", `{"query":"shoe","minPrice":100,"maxPrice":500}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, h.products.lastFilter.MinPrice)
	assert.Equal(t, 100.0, *h.products.lastFilter.MinPrice)
	assert.Equal(t, "shoe", h.products.lastFilter.Search)

	w = h.do(http.MethodPost, "/api/products/search", `{"query":"shoe","page":100000000000000000,"limit":100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCategoriesListsEveryCategory(t *testing.T) {
	h := newHarness(t)
	h.products.counts = map[models.Category]int64{models.CategoryShoes: 3}

	w := h.do(http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].([]any)
	require.Len(t, data, len(models.Categories))
	for _, raw := range data {
		entry := raw.(map[string]any)
		if entry["category"] == string(models.CategoryShoes) {
			assert.EqualValues(t, 3, entry["count"])
		} else {
			assert.EqualValues(t, 0, entry["count"])
		}
	}
}

func liveAd(position models.AdPosition, priority int) models.Advertisement {
	now := time.Now().UTC()
	return models.Advertisement{
		ID:        primitive.NewObjectID(),
		Title:     fmt.Sprintf("%s-%d", position, priority),
		Position:  position,
		Status:    models.AdActive,
		Priority:  priority,
		CreatedAt: now.Add(-time.Hour),
		Schedule: models.Schedule{
			StartDate: now.Add(-24 * time.Hour),
			EndDate:   now.Add(24 * time.Hour),
			Timezone:  "UTC",
		},
	}
}

func TestAdsForPositionRanksAndCountsImpressions(t *testing.T) {
	h := newHarness(t)
	low := liveAd(models.PositionBanner, 3)
	high := liveAd(models.PositionBanner, 8)
	other := liveAd(models.PositionSidebarLeft, 10)
	paused := liveAd(models.PositionBanner, 10)
	paused.Status = models.AdPaused
	h.ads.items = []models.Advertisement{low, high, other, paused}

	w := h.do(http.MethodGet, "/api/ads/position/banner?device=desktop", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.Equal(t, high.ID.Hex(), first["id"])
	assert.EqualValues(t, 1, first["analytics"].(map[string]any)["impressions"])

	assert.Equal(t, []primitive.ObjectID{high.ID, low.ID}, h.ads.tracked)
	assert.Equal(t, []events.Type{events.AdImpression, events.AdImpression}, h.publisher.types())
}

func TestAdsForPositionLimitAndUnknownPosition(t *testing.T) {
	h := newHarness(t)
	low := liveAd(models.PositionBanner, 3)
	high := liveAd(models.PositionBanner, 8)
	h.ads.items = []models.Advertisement{low, high}

	w := h.do(http.MethodGet, "/api/ads/position/banner?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []primitive.ObjectID{high.ID}, h.ads.tracked)

	w = h.do(http.MethodGet, "/api/ads/position/nowhere", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdsForPositionDeviceTargetingFromUserAgent(t *testing.T) {
	h := newHarness(t)
	mobileOnly := liveAd(models.PositionPopup, 5)
	mobileOnly.Targeting.Devices = []models.Device{models.DeviceMobile}
	h.ads.items = []models.Advertisement{mobileOnly}

	iphone := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148"
	w := h.do(http.MethodGet, "/api/ads/position/popup", "", "User-Agent", iphone)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	desktop := "Mozilla/5.0 (X11; Linux x86_64) Firefox/125.0"
	w = h.do(http.MethodGet, "/api/ads/position/popup", "", "User-Agent", desktop)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 0)
}

func TestAdsForPositionKeepsServingWhenTrackingFails(t *testing.T) {
	h := newHarness(t)
	h.ads.items = []models.Advertisement{liveAd(models.PositionBanner, 5)}
	h.ads.trackErr = errors.New("write conflict")

	w := h.do(http.MethodGet, "/api/ads/position/banner", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)
	assert.Empty(t, h.publisher.types())
}

func TestDeviceFromUserAgent(t *testing.T) {
	cases := map[string]models.Device{
		"": "",
		"Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X)":                  models.DeviceTablet,
		"Mozilla/5.0 (Linux; Android 13; SM-X700) Safari/537.36":         models.DeviceTablet,
		"Mozilla/5.0 (Linux; Android 13; Pixel 7) Mobile Safari/537.36": models.DeviceMobile,
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)":         models.DeviceMobile,
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/124.0":         models.DeviceDesktop,
	}
	for ua, want := range cases {
		assert.Equal(t, want, deviceFromUserAgent(ua), ua)
	}
}

func TestTrackAdClick(t *testing.T) {
	h := newHarness(t)
	ad := liveAd(models.PositionBanner, 5)
	h.ads.items = []models.Advertisement{ad}

	w := h.do(http.MethodPost, "/api/ads/"+ad.ID.Hex()+"/click", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["analytics"].(map[string]any)["clicks"])
	assert.Equal(t, []events.Type{events.AdClick}, h.publisher.types())

	w = h.do(http.MethodPost, "/api/ads/"+primitive.NewObjectID().Hex()+"/click", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdAdminRoutesEnforcePermissions(t *testing.T) {
	h := newHarness(t)
	ad := liveAd(models.PositionBanner, 5)
	h.ads.items = []models.Advertisement{ad}

	w := h.do(http.MethodDelete, "/api/ads/"+ad.ID.Hex(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	editor := h.login(t, models.RoleEditor)
	w = h.do(http.MethodDelete, "/api/ads/"+ad.ID.Hex(), "", editor...)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPut, "/api/ads/"+ad.ID.Hex()+"/toggle", "", editor...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.AdPaused), decode(t, w)["status"])

	admin := h.login(t, models.RoleAdmin)
	w = h.do(http.MethodDelete, "/api/ads/"+ad.ID.Hex(), "", admin...)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, h.ads.items)
}

func TestCreateAdValidatesScheduleAndPriority(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.RoleAdmin)
	base := `"title":"Sale","image":{"url":"https://img.example/a.png"},"link":{"url":"https://shop.example"},"position":"banner","advertiser":{"name":"Acme"}`

	w := h.do(http.MethodPost, "/api/ads", `{`+base+`,"priority":11,"schedule":{"startDate":"2026-01-01T00:00:00Z","endDate":"2026-02-01T00:00:00Z"}}`, admin...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/ads", `{`+base+`,"schedule":{"startDate":"2026-02-01T00:00:00Z","endDate":"2026-01-01T00:00:00Z"}}`, admin...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/ads", `{`+base+`,"status":"active","schedule":{"startDate":"2026-01-01T00:00:00Z","endDate":"2026-02-01T00:00:00Z"}}`, admin...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, h.ads.items, 1)
	created := h.ads.items[0]
	assert.Equal(t, models.DefaultAdPriority, created.Priority)
	require.NotNil(t, created.ApprovedBy)
	assert.False(t, created.CreatedBy.IsZero())
}

func TestRedirectToSiteAddsAffiliateTag(t *testing.T) {
	h := newHarness(t)
	site := models.EcommerceSite{
		ID:        primitive.NewObjectID(),
		Name:      "amazon",
		Status:    models.SiteActive,
		Affiliate: models.SiteAffiliate{Enabled: true, AffiliateID: "trendhub-21"},
	}
	h.sites.items = []models.EcommerceSite{site}
	p := activeProduct("runner")
	p.Prices = []models.PriceEntry{{Site: site.ID, Price: 999, URL: "https://www.amazon.in/dp/B0TEST?ref=home"}}
	h.products.items[p.ID] = p

	w := h.do(http.MethodGet, "/api/ecommerce/Amazon/"+p.ID.Hex(), "")
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "www.amazon.in", loc.Host)
	assert.Equal(t, "trendhub-21", loc.Query().Get("tag"))
	assert.Equal(t, "home", loc.Query().Get("ref"))
	assert.EqualValues(t, 1, h.products.items[p.ID].Trending.Clicks)
	assert.Equal(t, []events.Type{events.ProductClick}, h.publisher.types())
}

func TestRedirectToSiteNotListed(t *testing.T) {
	h := newHarness(t)
	h.sites.items = []models.EcommerceSite{{ID: primitive.NewObjectID(), Name: "myntra", Status: models.SiteActive}}
	p := activeProduct("runner", 100)
	h.products.items[p.ID] = p

	w := h.do(http.MethodGet, "/api/ecommerce/myntra/"+p.ID.Hex(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/api/ecommerce/unknown/"+p.ID.Hex(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, h.products.items[p.ID].Trending.Clicks)
}

func TestAffiliateURL(t *testing.T) {
	got, err := affiliateURL("https://shop.example/p/1", models.SiteAffiliate{Enabled: false, AffiliateID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/p/1", got)

	_, err = affiliateURL("/p/1", models.SiteAffiliate{})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestLivePricesUseCache(t *testing.T) {
	h := newHarness(t)
	p := activeProduct("runner", 100)
	h.products.items[p.ID] = p
	lowest := 95.0
	h.fetcher.result = pricing.LiveResult{
		Prices:  []pricing.LivePrice{{SiteName: "amazon", Price: 95}},
		Summary: pricing.Summary{MinPrice: &lowest},
	}

	w := h.do(http.MethodGet, "/api/ecommerce/prices/"+p.ID.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.EqualValues(t, 95, decode(t, w)["minPrice"])

	w = h.do(http.MethodGet, "/api/ecommerce/prices/"+p.ID.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, 1, h.fetcher.calls)
	assert.Equal(t, 1, h.cache.sets)
}

func TestLivePricesWithoutCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	products := newFakeProducts()
	p := activeProduct("runner")
	products.items[p.ID] = p
	fetcher := &fakeFetcher{}

	r := gin.New()
	r.GET("/prices/:productId", GetLivePrices(products, &fakeSites{}, fetcher, nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/prices/"+p.ID.Hex(), nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Equal(t, 1, fetcher.calls)
}

func TestPriceRoutesHideNonActiveProducts(t *testing.T) {
	h := newHarness(t)
	site := models.EcommerceSite{ID: primitive.NewObjectID(), Name: "amazon", Status: models.SiteActive}
	h.sites.items = []models.EcommerceSite{site}

	for _, status := range []models.ProductStatus{models.ProductDraft, models.ProductInactive} {
		p := activeProduct("hidden", 100)
		p.Status = status
		p.Prices[0].Site = site.ID
		h.products.items[p.ID] = p
		h.cache.entries = map[primitive.ObjectID]pricing.LiveResult{p.ID: {ProductID: p.ID}}

		for _, path := range []string{
			"/api/products/" + p.ID.Hex() + "/prices",
			"/api/ecommerce/prices/" + p.ID.Hex(),
			"/api/ecommerce/amazon/" + p.ID.Hex(),
		} {
			w := h.do(http.MethodGet, path, "")
			assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", status, path)
			assert.Empty(t, w.Header().Get("X-Cache"), path)
		}
		assert.Zero(t, h.products.items[p.ID].Trending.Clicks)
	}
	assert.Zero(t, h.fetcher.calls)
	assert.Zero(t, h.cache.sets)
}

func TestSyncPricesRequiresUpdatePermission(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/ecommerce/sync", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	editor := h.login(t, models.RoleEditor)
	w = h.do(http.MethodPost, "/api/ecommerce/sync", "", editor...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, h.syncer.allCalls)

	id := primitive.NewObjectID()
	w = h.do(http.MethodPost, "/api/ecommerce/sync", `{"productId":"`+id.Hex()+`"}`, editor...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, h.syncer.product)

	w = h.do(http.MethodPost, "/api/ecommerce/sync", `{"productId":"nope"}`, editor...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterOnlyWhileNoAdminExists(t *testing.T) {
	h := newHarness(t)
	body := `{"username":"root","email":"root@example.com","password":"secret1","firstName":"Ada","lastName":"Lovelace"}`

	w := h.do(http.MethodPost, "/api/auth/register", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.NotEmpty(t, resp["token"])
	require.Len(t, h.admins.created, 1)
	assert.Equal(t, models.RoleSuperAdmin, h.admins.created[0].Role)
	assert.NotEqual(t, "secret1", h.admins.created[0].PasswordHash)

	w = h.do(http.MethodPost, "/api/auth/register", body)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginMapsGuardErrors(t *testing.T) {
	h := newHarness(t)

	h.guard.err = fmt.Errorf("%w until 2026-10-19T10:00:00Z", apperr.ErrAccountLocked)
	w := h.do(http.MethodPost, "/api/auth/login", `{"username":"root","password":"bad"}`)
	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Equal(t, "root", h.guard.login)

	h.guard.err = apperr.ErrInvalidCredentials
	w = h.do(http.MethodPost, "/api/auth/login", `{"email":"root@example.com","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "root@example.com", h.guard.login)

	h.guard.err = nil
	h.guard.admin = models.Admin{ID: primitive.NewObjectID(), Role: models.RoleAdmin, Status: models.AdminActive}
	w = h.do(http.MethodPost, "/api/auth/login", `{"email":"root@example.com","password":"good"}`)
	require.Equal(t, http.StatusOK, w.Code)

	claims, err := h.tokens.Parse(decode(t, w)["token"].(string))
	require.NoError(t, err)
	id, err := claims.AdminID()
	require.NoError(t, err)
	assert.Equal(t, h.guard.admin.ID, id)
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	hash, err := auth.HashPassword("old-secret")
	require.NoError(t, err)
	admin := models.Admin{ID: primitive.NewObjectID(), Role: models.RoleAdmin, Status: models.AdminActive, PasswordHash: hash}
	h.admins.items[admin.ID] = admin
	token, _, err := h.tokens.Issue(admin, time.Now())
	require.NoError(t, err)
	header := []string{"Authorization", "Bearer " + token}

	w := h.do(http.MethodPut, "/api/auth/change-password", `{"currentPassword":"wrong","newPassword":"new-secret"}`, header...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, "/api/auth/change-password", `{"currentPassword":"old-secret","newPassword":"new-secret"}`, header...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, auth.CheckPassword(h.admins.items[admin.ID].PasswordHash, "new-secret"))
}

func TestBulkCreateReportsInvalidItems(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.RoleAdmin)
	site := primitive.NewObjectID().Hex()

	body := `{"products":[
		{"name":"Runner","description":"Light shoe","category":"shoes","brand":"Acme","prices":[{"site":"` + site + `","price":99}]},
		{"description":"no name","category":"shoes","brand":"Acme"},
		{"name":"Robot","description":"d","category":"toys","brand":"Acme"},
		{"name":"Cheap","description":"d","category":"bags","brand":"Acme","prices":[{"site":"` + site + `","price":-1}]}
	]}`
	w := h.do(http.MethodPost, "/api/admin/products/bulk", body, admin...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.EqualValues(t, 1, resp["created"])
	assert.EqualValues(t, 3, resp["failed"])
	results := resp["results"].([]any)
	require.Len(t, results, 4)
	assert.NotEmpty(t, results[0].(map[string]any)["id"])
	for _, r := range results[1:] {
		assert.NotEmpty(t, r.(map[string]any)["error"])
	}

	require.Len(t, h.products.items, 1)
	for _, p := range h.products.items {
		assert.Equal(t, "INR", p.Prices[0].Currency)
		assert.Equal(t, models.InStock, p.Prices[0].Availability)
	}
}

func TestAdminProductCRUD(t *testing.T) {
	h := newHarness(t)
	editor := h.login(t, models.RoleEditor)

	w := h.do(http.MethodPost, "/api/admin/products",
		`{"name":" Runner ","description":"Light","category":"shoes","brand":"Acme","tags":["Run","run"," Sport "]}`, editor...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	oid, err := primitive.ObjectIDFromHex(id)
	require.NoError(t, err)
	assert.Equal(t, "Runner", h.products.items[oid].Name)

	w = h.do(http.MethodPut, "/api/admin/products/"+id, `{}`, editor...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, "/api/admin/products/"+id, `{"name":"Racer","featured":true}`, editor...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Racer", h.products.items[oid].Name)
	assert.Equal(t, true, h.products.lastFields["featured"])

	w = h.do(http.MethodDelete, "/api/admin/products/"+id, "", editor...)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := h.login(t, models.RoleAdmin)
	w = h.do(http.MethodDelete, "/api/admin/products/"+id, "", admin...)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, h.products.items)
}

func TestAdminProductListIncludesAllStatuses(t *testing.T) {
	h := newHarness(t)
	admin := h.login(t, models.RoleAdmin)

	w := h.do(http.MethodGet, "/api/admin/products", "", admin...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ProductStatus(""), h.products.lastFilter.Status)

	w = h.do(http.MethodGet, "/api/admin/products?status=draft", "", admin...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ProductDraft, h.products.lastFilter.Status)
}

func TestSiteAdminRequiresSettingsPermission(t *testing.T) {
	h := newHarness(t)
	body := `{"name":"Amazon","displayName":"Amazon India","baseUrl":"https://www.amazon.in/","apiConfig":{"hasApi":true,"apiUrl":"https://api.amazon.example/price","apiKey":"k1"}}`

	admin := h.login(t, models.RoleAdmin)
	w := h.do(http.MethodPost, "/api/admin/sites", body, admin...)
	assert.Equal(t, http.StatusForbidden, w.Code)

	super := h.login(t, models.RoleSuperAdmin)
	w = h.do(http.MethodPost, "/api/admin/sites", body, super...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "k1")
	require.Len(t, h.sites.items, 1)
	assert.Equal(t, "amazon", h.sites.items[0].Name)
	assert.Equal(t, "https://www.amazon.in", h.sites.items[0].BaseURL)
	assert.Equal(t, "k1", h.sites.items[0].APIConfig.APIKey)

	w = h.do(http.MethodPost, "/api/admin/sites", body, super...)
	assert.Equal(t, http.StatusConflict, w.Code)

	update := strings.Replace(body, `,"apiKey":"k1"`, "", 1)
	w = h.do(http.MethodPut, "/api/admin/sites/"+h.sites.items[0].ID.Hex(), update, super...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "k1", h.sites.items[0].APIConfig.APIKey)
	assert.Equal(t, models.SiteActive, h.sites.lastFields["status"])
}

func TestSiteSelectorsValidatedOnWrite(t *testing.T) {
	h := newHarness(t)
	super := h.login(t, models.RoleSuperAdmin)
	site := func(price string) string {
		return `{"name":"amazon","displayName":"Amazon India","baseUrl":"https://www.amazon.in","scraping":{"enabled":true,"selectors":{"price":"` + price + `"}}}`
	}

	w := h.do(http.MethodPost, "/api/admin/sites", site("span[data-price"), super...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "price selector")
	assert.Empty(t, h.sites.items)

	w = h.do(http.MethodPost, "/api/admin/sites", site("#corePrice_feature_div .a-offscreen"), super...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, h.sites.items, 1)
	assert.Equal(t, "#corePrice_feature_div .a-offscreen", h.sites.items[0].Scraping.Selectors.Price)

	w = h.do(http.MethodPut, "/api/admin/sites/"+h.sites.items[0].ID.Hex(), site("li[data-state"), super...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, h.sites.lastFields)
}

func TestDashboardStats(t *testing.T) {
	h := newHarness(t)
	h.products.items[primitive.NewObjectID()] = activeProduct("a", 10)
	h.products.stats = store.ProductStats{Total: 4, Active: 3, Featured: 1}
	h.products.counts = map[models.Category]int64{models.CategoryBags: 2}
	h.ads.totals = store.AdTotals{Total: 5, Active: 2, Impressions: 100, Clicks: 7}
	h.sites.items = []models.EcommerceSite{
		{ID: primitive.NewObjectID(), Name: "a", Status: models.SiteActive},
		{ID: primitive.NewObjectID(), Name: "b", Status: models.SiteMaintenance},
	}

	editor := h.login(t, models.RoleEditor)
	w := h.do(http.MethodGet, "/api/admin/dashboard/stats", "", editor...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.EqualValues(t, 3, body["products"].(map[string]any)["active"])
	assert.EqualValues(t, 7, body["ads"].(map[string]any)["clicks"])
	assert.Equal(t, map[string]any{"total": 2.0, "active": 1.0}, body["sites"])
	assert.Len(t, body["categories"], len(models.Categories))
	assert.Len(t, body["trending"], 1)
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/up", Health(fakePinger{}, time.Now().Add(-time.Minute)))
	r.GET("/down", Health(fakePinger{err: errors.New("no reachable servers")}, time.Now()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/up", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "down", decode(t, w)["database"])
}

func TestRespondWithAppErrorHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondWithAppError(c, "GET /test", fmt.Errorf("find products: %w", errors.New("connection reset")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
	assert.True(t, c.IsAborted())
}

func TestGetMeWithoutLoadedAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)

	GetMe()(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
