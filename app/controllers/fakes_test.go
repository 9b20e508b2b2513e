package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/zipcode"
)

// fakeRegions is an in-memory RegionRepository. Embedding the interface
// leaves unused methods unimplemented.
type fakeRegions struct {
	repository.RegionRepository
	mu     sync.Mutex
	byID   map[uint]*models.Region
	nextID uint
	// createErrs are returned by successive Create calls before storing
	createErrs []error
}

func newFakeRegions(regions ...models.Region) *fakeRegions {
	f := &fakeRegions{byID: map[uint]*models.Region{}}
	for i := range regions {
		r := regions[i]
		f.nextID++
		if r.ID == 0 {
			r.ID = f.nextID
		}
		f.byID[r.ID] = &r
	}
	return f
}

func (f *fakeRegions) Create(_ context.Context, region *models.Region) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, r := range f.byID {
		if r.Slug == region.Slug {
			return repository.ErrDuplicateSlug
		}
		if r.Code == region.Code {
			return repository.ErrDuplicateCode
		}
	}
	f.nextID++
	region.ID = f.nextID
	stored := *region
	f.byID[region.ID] = &stored
	return nil
}

func (f *fakeRegions) GetByID(_ context.Context, id uint) (*models.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRegions) GetBySlug(_ context.Context, slug string) (*models.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byID {
		if r.Slug == slug {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRegions) Update(_ context.Context, region *models.Region) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *region
	f.byID[region.ID] = &stored
	return nil
}

func (f *fakeRegions) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRegions) ListWithZipCounts(_ context.Context) ([]models.RegionWithZipCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RegionWithZipCount
	for _, r := range f.byID {
		out = append(out, models.RegionWithZipCount{Region: *r})
	}
	return out, nil
}

func (f *fakeRegions) SlugExistsExceptID(_ context.Context, slug string, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byID {
		if r.Slug == slug && r.ID != id {
			return true, nil
		}
	}
	return false, nil
}

// fakeMappings holds zip -> region id assignments and doubles as ZipAssigner.
type fakeMappings struct {
	repository.ZipRegionMappingRepository
	regions *fakeRegions
	zips    map[string]uint
}

func newFakeMappings(regions *fakeRegions) *fakeMappings {
	return &fakeMappings{regions: regions, zips: map[string]uint{}}
}

func (f *fakeMappings) GetRegionForZip(ctx context.Context, value string) (*models.Region, error) {
	id, ok := f.zips[value]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f.regions.GetByID(ctx, id)
}

func (f *fakeMappings) ZipValuesForRegion(_ context.Context, regionID uint) ([]string, error) {
	var out []string
	for zip, id := range f.zips {
		if id == regionID {
			out = append(out, zip)
		}
	}
	return out, nil
}

func (f *fakeMappings) Assign(_ context.Context, rawZip string, regionID uint) (*models.ZipCode, error) {
	zip, err := zipcode.Parse(rawZip)
	if err != nil {
		return nil, err
	}
	f.zips[zip] = regionID
	return &models.ZipCode{Value: zip}, nil
}

func (f *fakeMappings) Unassign(_ context.Context, rawZip string) (bool, error) {
	zip, err := zipcode.Parse(rawZip)
	if err != nil {
		return false, err
	}
	_, ok := f.zips[zip]
	delete(f.zips, zip)
	return ok, nil
}

// fakeArticles is an in-memory ArticleRepository
type fakeArticles struct {
	byID   map[uint64]*models.Article
	nextID uint64
}

func newFakeArticles(articles ...models.Article) *fakeArticles {
	f := &fakeArticles{byID: map[uint64]*models.Article{}}
	for i := range articles {
		a := articles[i]
		f.nextID++
		a.ID = f.nextID
		f.byID[a.ID] = &a
	}
	return f
}

func (f *fakeArticles) Create(article *models.Article) error {
	f.nextID++
	article.ID = f.nextID
	stored := *article
	f.byID[article.ID] = &stored
	return nil
}

func (f *fakeArticles) GetByID(id uint) (*models.Article, error) {
	a, ok := f.byID[uint64(id)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeArticles) GetBySlug(slug string) (*models.Article, error) {
	for _, a := range f.byID {
		if a.Slug == slug {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeArticles) GetPublished(offset, limit int) ([]models.Article, error) {
	var out []models.Article
	for _, a := range f.byID {
		if a.Published {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeArticles) GetAll(offset, limit int) ([]models.Article, error) {
	var out []models.Article
	for _, a := range f.byID {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeArticles) Update(article *models.Article) error {
	stored := *article
	f.byID[article.ID] = &stored
	return nil
}

func (f *fakeArticles) Delete(id uint) error {
	delete(f.byID, uint64(id))
	return nil
}

func (f *fakeArticles) Count() (int64, error) {
	return int64(len(f.byID)), nil
}

func (f *fakeArticles) SlugExists(slug string) (bool, error) {
	return f.SlugExistsExceptID(slug, 0)
}

func (f *fakeArticles) SlugExistsExceptID(slug string, id uint) (bool, error) {
	for _, a := range f.byID {
		if a.Slug == slug && a.ID != uint64(id) {
			return true, nil
		}
	}
	return false, nil
}

// doJSON sends body as JSON (or no body when empty) and decodes the response.
func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// fakeFirms is an in-memory LawFirmRepository
type fakeFirms struct {
	mu     sync.Mutex
	byID   map[uint]*models.LawFirm
	nextID uint
}

func newFakeFirms(firms ...models.LawFirm) *fakeFirms {
	f := &fakeFirms{byID: map[uint]*models.LawFirm{}}
	for i := range firms {
		firm := firms[i]
		f.nextID++
		firm.ID = f.nextID
		f.byID[firm.ID] = &firm
	}
	return f
}

func (f *fakeFirms) Create(_ context.Context, firm *models.LawFirm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	firm.ID = f.nextID
	stored := *firm
	f.byID[firm.ID] = &stored
	return nil
}

func (f *fakeFirms) GetByID(_ context.Context, id uint) (*models.LawFirm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	firm, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *firm
	return &cp, nil
}

func (f *fakeFirms) GetBySlug(_ context.Context, slug string) (*models.LawFirm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, firm := range f.byID {
		if firm.Slug == slug {
			cp := *firm
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeFirms) Update(_ context.Context, firm *models.LawFirm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *firm
	f.byID[firm.ID] = &stored
	return nil
}

func (f *fakeFirms) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeFirms) List(_ context.Context, offset, limit int) ([]models.LawFirm, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LawFirm
	for id := uint(1); id <= f.nextID; id++ {
		if firm, ok := f.byID[id]; ok {
			out = append(out, *firm)
		}
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (f *fakeFirms) SlugExistsExceptID(_ context.Context, slug string, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, firm := range f.byID {
		if firm.Slug == slug && firm.ID != id {
			return true, nil
		}
	}
	return false, nil
}

// fakeLawyers is an in-memory LawyerRepository. Zip filters see firm zips
// through firms.
type fakeLawyers struct {
	mu     sync.Mutex
	byID   map[uint]*models.Lawyer
	nextID uint
	firms  *fakeFirms
}

func newFakeLawyers(firms *fakeFirms, lawyers ...models.Lawyer) *fakeLawyers {
	f := &fakeLawyers{byID: map[uint]*models.Lawyer{}, firms: firms}
	for i := range lawyers {
		l := lawyers[i]
		f.nextID++
		l.ID = f.nextID
		f.byID[l.ID] = &l
	}
	return f
}

func (f *fakeLawyers) Create(_ context.Context, lawyer *models.Lawyer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.byID {
		if l.Slug == lawyer.Slug {
			return repository.ErrDuplicateSlug
		}
	}
	f.nextID++
	lawyer.ID = f.nextID
	stored := *lawyer
	f.byID[lawyer.ID] = &stored
	return nil
}

func (f *fakeLawyers) GetByID(_ context.Context, id uint) (*models.Lawyer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLawyers) GetBySlug(_ context.Context, slug string) (*models.Lawyer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.byID {
		if l.Slug == slug {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLawyers) Update(_ context.Context, lawyer *models.Lawyer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *lawyer
	f.byID[lawyer.ID] = &stored
	return nil
}

func (f *fakeLawyers) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeLawyers) List(ctx context.Context, filter repository.LawyerFilter, offset, limit int) ([]models.Lawyer, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Lawyer
	for id := uint(1); id <= f.nextID; id++ {
		l, ok := f.byID[id]
		if !ok || !f.matches(ctx, l, filter) {
			continue
		}
		out = append(out, *l)
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (f *fakeLawyers) matches(ctx context.Context, l *models.Lawyer, filter repository.LawyerFilter) bool {
	if filter.Tier != "" && l.Tier != filter.Tier {
		return false
	}
	if filter.LawFirmID != 0 && (l.LawFirmID == nil || *l.LawFirmID != filter.LawFirmID) {
		return false
	}
	if len(filter.ZipCodes) == 0 {
		return true
	}
	var firmZip *string
	if l.LawFirmID != nil && f.firms != nil {
		if firm, err := f.firms.GetByID(ctx, *l.LawFirmID); err == nil {
			firmZip = firm.ZipCode
		}
	}
	for _, zip := range filter.ZipCodes {
		if (l.OfficeZipCode != nil && *l.OfficeZipCode == zip) || (firmZip != nil && *firmZip == zip) {
			return true
		}
	}
	return false
}

func (f *fakeLawyers) SlugExistsExceptID(_ context.Context, slug string, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.byID {
		if l.Slug == slug && l.ID != id {
			return true, nil
		}
	}
	return false, nil
}

// fakeCities is an in-memory CityRepository; zips maps zip value to city id.
type fakeCities struct {
	mu     sync.Mutex
	byID   map[uint]*models.City
	nextID uint
	zips   map[string]uint
}

func newFakeCities(cities ...models.City) *fakeCities {
	f := &fakeCities{byID: map[uint]*models.City{}, zips: map[string]uint{}}
	for i := range cities {
		city := cities[i]
		f.nextID++
		city.ID = f.nextID
		f.byID[city.ID] = &city
	}
	return f
}

func (f *fakeCities) Create(_ context.Context, city *models.City) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	city.ID = f.nextID
	stored := *city
	f.byID[city.ID] = &stored
	return nil
}

func (f *fakeCities) GetByID(_ context.Context, id uint) (*models.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	city, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *city
	return &cp, nil
}

func (f *fakeCities) GetBySlug(_ context.Context, slug string) (*models.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, city := range f.byID {
		if city.Slug == slug {
			cp := *city
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCities) Update(_ context.Context, city *models.City) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *city
	f.byID[city.ID] = &stored
	return nil
}

func (f *fakeCities) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.byID, id)
	for zip, cityID := range f.zips {
		if cityID == id {
			delete(f.zips, zip)
		}
	}
	return nil
}

func (f *fakeCities) List(_ context.Context, stateCode string) ([]models.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.City
	for id := uint(1); id <= f.nextID; id++ {
		city, ok := f.byID[id]
		if ok && (stateCode == "" || strings.EqualFold(city.StateCode, stateCode)) {
			out = append(out, *city)
		}
	}
	return out, nil
}

func (f *fakeCities) SlugExistsExceptID(_ context.Context, slug string, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, city := range f.byID {
		if city.Slug == slug && city.ID != id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCities) ZipValues(_ context.Context, cityID uint) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for zip, id := range f.zips {
		if id == cityID {
			out = append(out, zip)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeCities) AssignZip(_ context.Context, cityID uint, zip string) (*models.ZipCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.zips[zip] = cityID
	return &models.ZipCode{Value: zip, CityID: &cityID}, nil
}

func (f *fakeCities) UnassignZip(_ context.Context, zip string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.zips[zip]
	delete(f.zips, zip)
	return ok, nil
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func strPtr(s string) *string { return &s }
