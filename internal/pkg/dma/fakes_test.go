package dma

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"gorm.io/gorm"
)

type fakeRegions struct {
	mu      sync.Mutex
	nextID  uint
	byID    map[uint]*models.Region
	creates int
	updates int
}

func newFakeRegions() *fakeRegions {
	return &fakeRegions{byID: make(map[uint]*models.Region)}
}

func (f *fakeRegions) GetByCode(_ context.Context, code int) (*models.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byID {
		if r.Code == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRegions) slugTaken(slug string, except uint) bool {
	for id, r := range f.byID {
		if id != except && r.Slug == slug {
			return true
		}
	}
	return false
}

func (f *fakeRegions) Create(_ context.Context, region *models.Region) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slugTaken(region.Slug, 0) {
		return repository.ErrDuplicateSlug
	}
	f.nextID++
	region.ID = f.nextID
	cp := *region
	f.byID[region.ID] = &cp
	f.creates++
	return nil
}

func (f *fakeRegions) Update(_ context.Context, region *models.Region) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[region.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if f.slugTaken(region.Slug, region.ID) {
		return repository.ErrDuplicateSlug
	}
	cp := *region
	f.byID[region.ID] = &cp
	f.updates++
	return nil
}

func (f *fakeRegions) List(_ context.Context) ([]models.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Region, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
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

func (f *fakeRegions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeZips struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.ZipCode
}

func (f *fakeZips) seed(values ...string) {
	for _, v := range values {
		f.nextID++
		f.rows = append(f.rows, models.ZipCode{ID: f.nextID, Value: v})
	}
}

func (f *fakeZips) find(value string) *models.ZipCode {
	for i := range f.rows {
		if f.rows[i].Value == value {
			return &f.rows[i]
		}
	}
	return nil
}

func (f *fakeZips) GetByValue(_ context.Context, value string) (*models.ZipCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if z := f.find(value); z != nil {
		cp := *z
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeZips) ListPage(_ context.Context, afterID uint, limit int) ([]models.ZipCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ZipCode
	for _, z := range f.rows {
		if z.ID > afterID && len(out) < limit {
			out = append(out, z)
		}
	}
	return out, nil
}

func (f *fakeZips) CreateBatch(_ context.Context, values []string) ([]models.ZipCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ZipCode
	for _, v := range values {
		if f.find(v) == nil {
			f.nextID++
			f.rows = append(f.rows, models.ZipCode{ID: f.nextID, Value: v})
		}
		out = append(out, *f.find(v))
	}
	return out, nil
}

func (f *fakeZips) GetOrCreate(ctx context.Context, value string) (*models.ZipCode, bool, error) {
	if z, err := f.GetByValue(ctx, value); err == nil {
		return z, false, nil
	}
	created, err := f.CreateBatch(ctx, []string{value})
	if err != nil {
		return nil, false, err
	}
	return &created[0], true, nil
}

type fakeMappings struct {
	mu         sync.Mutex
	nextID     uint
	rows       []models.ZipRegionMapping
	zips       *fakeZips
	regions    *fakeRegions
	failAfter  int
	replaceErr error
	replaces   int
}

func newFakeMappings(zips *fakeZips, regions *fakeRegions) *fakeMappings {
	return &fakeMappings{zips: zips, regions: regions, failAfter: -1}
}

func (f *fakeMappings) ListPage(_ context.Context, afterID uint, limit int) ([]models.ZipRegionMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sorted := append([]models.ZipRegionMapping(nil), f.rows...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	var out []models.ZipRegionMapping
	for _, m := range sorted {
		if m.ID > afterID && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMappings) Replace(_ context.Context, zipCodeID, regionID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter >= 0 && f.replaces >= f.failAfter {
		return f.replaceErr
	}
	f.replaces++
	kept := f.rows[:0]
	for _, m := range f.rows {
		if m.ZipCodeID != zipCodeID {
			kept = append(kept, m)
		}
	}
	f.nextID++
	f.rows = append(kept, models.ZipRegionMapping{ID: f.nextID, ZipCodeID: zipCodeID, RegionID: regionID})
	return nil
}

func (f *fakeMappings) DeleteByZipCodeID(_ context.Context, zipCodeID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	kept := f.rows[:0]
	for _, m := range f.rows {
		if m.ZipCodeID == zipCodeID {
			n++
			continue
		}
		kept = append(kept, m)
	}
	f.rows = kept
	return n, nil
}

func (f *fakeMappings) DeleteAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.rows))
	f.rows = nil
	return n, nil
}

func (f *fakeMappings) ListDetailed(ctx context.Context) ([]repository.MappingExport, error) {
	f.mu.Lock()
	rows := append([]models.ZipRegionMapping(nil), f.rows...)
	f.mu.Unlock()

	var out []repository.MappingExport
	for _, m := range rows {
		export := repository.MappingExport{RegionID: m.RegionID}
		for _, z := range f.zips.rows {
			if z.ID == m.ZipCodeID {
				export.ZipCode = z.Value
			}
		}
		if r, ok := f.regions.byID[m.RegionID]; ok {
			export.RegionCode = r.Code
			export.RegionName = r.Name
		}
		out = append(out, export)
	}
	return out, nil
}

// regionCodesFor returns the codes of every region a zip value is mapped to.
func (f *fakeMappings) regionCodesFor(value string) []int {
	z := f.zips.find(value)
	if z == nil {
		return nil
	}
	var codes []int
	for _, m := range f.rows {
		if m.ZipCodeID == z.ID {
			codes = append(codes, f.regions.byID[m.RegionID].Code)
		}
	}
	return codes
}

type fakeLock struct {
	held *bool
	err  error
}

func (l *fakeLock) Acquire(context.Context) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if *l.held {
		return false, nil
	}
	*l.held = true
	return true, nil
}

func (l *fakeLock) Release(context.Context) error {
	*l.held = false
	return nil
}

type fakeRuns struct {
	created []*models.ImportRun
	updated []models.ImportRun
}

func (f *fakeRuns) Create(_ context.Context, run *models.ImportRun) error {
	run.ID = uint(len(f.created) + 1)
	f.created = append(f.created, run)
	return nil
}

func (f *fakeRuns) Update(_ context.Context, run *models.ImportRun) error {
	f.updated = append(f.updated, *run)
	return nil
}

type fakeArchiver struct {
	kinds []string
	names []string
	err   error
}

func (f *fakeArchiver) Archive(_ context.Context, kind, filename string, _ []byte) (string, error) {
	f.kinds = append(f.kinds, kind)
	f.names = append(f.names, filename)
	if f.err != nil {
		return "", f.err
	}
	return kind + "/" + filename, nil
}

var errConnection = errors.New("connection lost")

type store struct {
	regions  *fakeRegions
	zips     *fakeZips
	mappings *fakeMappings
}

func newStore() *store {
	regions := newFakeRegions()
	zips := &fakeZips{}
	return &store{regions: regions, zips: zips, mappings: newFakeMappings(zips, regions)}
}

func (s *store) importer(newLock LockFactory) *Importer {
	return NewImporter(NewResolver(s.regions), NewMapper(s.zips, s.mappings), newLock)
}
