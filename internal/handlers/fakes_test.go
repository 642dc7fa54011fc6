package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trendhub/internal/apperr"
	"trendhub/internal/events"
	"trendhub/internal/models"
	"trendhub/internal/pricing"
	"trendhub/internal/service"
	"trendhub/internal/store"
)

type fakeProducts struct {
	mu         sync.Mutex
	items      map[primitive.ObjectID]models.Product
	lastFilter store.ProductFilter
	lastPage   store.Page
	lastFields bson.M
	counts     map[models.Category]int64
	stats      store.ProductStats
}

func newFakeProducts(items ...models.Product) *fakeProducts {
	f := &fakeProducts{items: map[primitive.ObjectID]models.Product{}}
	for _, p := range items {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProducts) List(_ context.Context, filter store.ProductFilter, page store.Page) ([]models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter, f.lastPage = filter, page
	var out []models.Product
	for _, p := range f.items {
		if filter.Status == "" || p.Status == filter.Status {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeProducts) Trending(_ context.Context, _ models.Category, _ *float64, limit int64) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.items {
		if int64(len(out)) == limit {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) Get(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return p, nil
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID()
	if p.Status == "" {
		p.Status = models.ProductActive
	}
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFields = fields
	p, ok := f.items[id]
	if !ok {
		return models.Product{}, apperr.ErrNotFound
	}
	if name, ok := fields["name"].(string); ok {
		p.Name = name
	}
	f.items[id] = p
	return p, nil
}

func (f *fakeProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeProducts) TrackView(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	return f.track(id, func(t *models.Trending) { t.Views++ })
}

func (f *fakeProducts) TrackClick(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	return f.track(id, func(t *models.Trending) { t.Clicks++ })
}

func (f *fakeProducts) track(id primitive.ObjectID, bump func(*models.Trending)) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return models.Product{}, apperr.ErrNotFound
	}
	bump(&p.Trending)
	f.items[id] = p
	return p, nil
}

func (f *fakeProducts) CountByCategory(context.Context) (map[models.Category]int64, error) {
	return f.counts, nil
}

func (f *fakeProducts) Stats(context.Context) (store.ProductStats, error) {
	return f.stats, nil
}

type fakeSites struct {
	mu         sync.Mutex
	items      []models.EcommerceSite
	lastFields bson.M
}

func (f *fakeSites) List(_ context.Context, activeOnly bool) ([]models.EcommerceSite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.EcommerceSite
	for _, s := range f.items {
		if !activeOnly || s.Status == models.SiteActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSites) Get(_ context.Context, id primitive.ObjectID) (models.EcommerceSite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.items {
		if s.ID == id {
			return s, nil
		}
	}
	return models.EcommerceSite{}, apperr.ErrNotFound
}

func (f *fakeSites) GetByName(_ context.Context, name string) (models.EcommerceSite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.items {
		if s.Name == strings.ToLower(name) {
			return s, nil
		}
	}
	return models.EcommerceSite{}, fmt.Errorf("site %s: %w", name, apperr.ErrNotFound)
}

func (f *fakeSites) Create(_ context.Context, site *models.EcommerceSite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	site.Name = strings.ToLower(site.Name)
	for _, s := range f.items {
		if s.Name == site.Name {
			return fmt.Errorf("insert site %s: %w", site.Name, apperr.ErrConflict)
		}
	}
	site.ID = primitive.NewObjectID()
	site.ApplyDefaults()
	f.items = append(f.items, *site)
	return nil
}

func (f *fakeSites) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (models.EcommerceSite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFields = fields
	for i, s := range f.items {
		if s.ID == id {
			if cfg, ok := fields["apiConfig"].(models.SiteAPIConfig); ok {
				f.items[i].APIConfig = cfg
			}
			return f.items[i], nil
		}
	}
	return models.EcommerceSite{}, apperr.ErrNotFound
}

func (f *fakeSites) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.items {
		if s.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (f *fakeSites) Count(ctx context.Context, activeOnly bool) (int64, error) {
	list, err := f.List(ctx, activeOnly)
	return int64(len(list)), err
}

type fakeAds struct {
	mu         sync.Mutex
	items      []models.Advertisement
	tracked    []primitive.ObjectID
	trackErr   error
	totals     store.AdTotals
	lastStatus models.AdStatus
}

func (f *fakeAds) ListActive(_ context.Context, position models.AdPosition, now time.Time) ([]models.Advertisement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Advertisement
	for _, ad := range f.items {
		if position != "" && ad.Position != position {
			continue
		}
		if ad.IsCurrentlyActive(now) {
			out = append(out, ad)
		}
	}
	return out, nil
}

func (f *fakeAds) List(_ context.Context, status models.AdStatus, _ store.Page) ([]models.Advertisement, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastStatus = status
	return f.items, int64(len(f.items)), nil
}

func (f *fakeAds) Get(_ context.Context, id primitive.ObjectID) (models.Advertisement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ad := range f.items {
		if ad.ID == id {
			return ad, nil
		}
	}
	return models.Advertisement{}, apperr.ErrNotFound
}

func (f *fakeAds) Create(_ context.Context, ad *models.Advertisement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ad.ID = primitive.NewObjectID()
	ad.ApplyDefaults()
	f.items = append(f.items, *ad)
	return nil
}

func (f *fakeAds) Replace(_ context.Context, ad models.Advertisement) (models.Advertisement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == ad.ID {
			f.items[i] = ad
			return ad, nil
		}
	}
	return models.Advertisement{}, apperr.ErrNotFound
}

func (f *fakeAds) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (f *fakeAds) ToggleStatus(_ context.Context, id primitive.ObjectID) (models.Advertisement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			if f.items[i].Status == models.AdActive {
				f.items[i].Status = models.AdPaused
			} else {
				f.items[i].Status = models.AdActive
			}
			return f.items[i], nil
		}
	}
	return models.Advertisement{}, apperr.ErrNotFound
}

func (f *fakeAds) TrackClick(_ context.Context, id primitive.ObjectID, now time.Time) (models.AdAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Analytics.Clicks++
			f.items[i].Analytics.LastTracked = now
			return f.items[i].Analytics, nil
		}
	}
	return models.AdAnalytics{}, apperr.ErrNotFound
}

func (f *fakeAds) TrackImpressions(_ context.Context, ids []primitive.ObjectID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trackErr != nil {
		return f.trackErr
	}
	f.tracked = append(f.tracked, ids...)
	return nil
}

func (f *fakeAds) Totals(context.Context, time.Time) (store.AdTotals, error) {
	return f.totals, nil
}

type fakeAdmins struct {
	mu      sync.Mutex
	items   map[primitive.ObjectID]models.Admin
	created []models.Admin
}

func newFakeAdmins(items ...models.Admin) *fakeAdmins {
	f := &fakeAdmins{items: map[primitive.ObjectID]models.Admin{}}
	for _, a := range items {
		f.items[a.ID] = a
	}
	return f
}

func (f *fakeAdmins) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.items)), nil
}

func (f *fakeAdmins) Create(_ context.Context, a *models.Admin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = primitive.NewObjectID()
	a.Status = models.AdminActive
	f.items[a.ID] = *a
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeAdmins) Get(_ context.Context, id primitive.ObjectID) (models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return models.Admin{}, apperr.ErrNotFound
	}
	return a, nil
}

func (f *fakeAdmins) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return apperr.ErrNotFound
	}
	a.PasswordHash = hash
	f.items[id] = a
	return nil
}

func (f *fakeAdmins) UpdateProfile(_ context.Context, id primitive.ObjectID, fields bson.M) (models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return models.Admin{}, apperr.ErrNotFound
	}
	if v, ok := fields["firstName"].(string); ok {
		a.FirstName = v
	}
	f.items[id] = a
	return a, nil
}

type fakeGuard struct {
	admin models.Admin
	err   error
	login string
}

func (g *fakeGuard) Login(_ context.Context, login, _ string) (models.Admin, error) {
	g.login = login
	return g.admin, g.err
}

type fakeFetcher struct {
	calls  int
	result pricing.LiveResult
}

func (f *fakeFetcher) FetchLive(_ context.Context, product models.Product, _ []models.EcommerceSite) pricing.LiveResult {
	f.calls++
	res := f.result
	res.ProductID = product.ID
	return res
}

type fakeCache struct {
	entries map[primitive.ObjectID]pricing.LiveResult
	sets    int
}

func (f *fakeCache) Get(_ context.Context, id primitive.ObjectID) (pricing.LiveResult, bool, error) {
	res, ok := f.entries[id]
	return res, ok, nil
}

func (f *fakeCache) Set(_ context.Context, res pricing.LiveResult) error {
	f.sets++
	if f.entries == nil {
		f.entries = map[primitive.ObjectID]pricing.LiveResult{}
	}
	f.entries[res.ProductID] = res
	return nil
}

type fakeSyncer struct {
	allCalls int
	product  primitive.ObjectID
}

func (f *fakeSyncer) SyncProduct(_ context.Context, id primitive.ObjectID) (service.ProductSync, error) {
	f.product = id
	return service.ProductSync{ProductID: id, Updated: 1}, nil
}

func (f *fakeSyncer) SyncAll(context.Context) (service.SyncReport, error) {
	f.allCalls++
	return service.SyncReport{}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }
