package dma

import (
	"context"
	"errors"
	"fmt"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/internal/pkg/zipcode"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

const (
	// DefaultPageSize is how many rows are read per page when loading zip
	// codes and mappings.
	DefaultPageSize = 1000
	// DefaultCreateBatchSize is how many zip codes are inserted per statement.
	DefaultCreateBatchSize = 500
)

// ZipStore is the subset of the zip code repository the mapper needs.
type ZipStore interface {
	GetByValue(ctx context.Context, value string) (*models.ZipCode, error)
	ListPage(ctx context.Context, afterID uint, limit int) ([]models.ZipCode, error)
	CreateBatch(ctx context.Context, values []string) ([]models.ZipCode, error)
	GetOrCreate(ctx context.Context, value string) (*models.ZipCode, bool, error)
}

// MappingStore is the subset of the mapping repository the mapper needs.
type MappingStore interface {
	ListPage(ctx context.Context, afterID uint, limit int) ([]models.ZipRegionMapping, error)
	Replace(ctx context.Context, zipCodeID, regionID uint) error
	DeleteByZipCodeID(ctx context.Context, zipCodeID uint) (int64, error)
}

// Mapper writes zip-to-region assignments. Each zip maps to at most one
// region: every write removes the previous mapping before inserting.
type Mapper struct {
	zips            ZipStore
	mappings        MappingStore
	pageSize        int
	createBatchSize int
}

func NewMapper(zips ZipStore, mappings MappingStore) *Mapper {
	return &Mapper{
		zips:            zips,
		mappings:        mappings,
		pageSize:        DefaultPageSize,
		createBatchSize: DefaultCreateBatchSize,
	}
}

// Apply writes a whole plan. regionIDs maps region codes to stored IDs; zips
// whose code is missing from it are left untouched. Mappings that already
// point at the right region are not rewritten. Any store error aborts the
// rest of the plan, leaving what was already written in place.
func (m *Mapper) Apply(ctx context.Context, plan *Plan, regionIDs map[int]uint, issues *ImportIssues) error {
	zipIDs, err := m.loadZipIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load zip codes: %w", err)
	}

	var missing []string
	for _, zip := range plan.Zips() {
		if _, ok := zipIDs[zip]; !ok {
			missing = append(missing, zip)
		}
	}
	if len(missing) > 0 {
		log.Infof("[DMAImport] Creating %d new zip codes", len(missing))
	}
	for _, batch := range zipcode.Chunk(missing, m.createBatchSize) {
		created, err := m.zips.CreateBatch(ctx, batch)
		if err != nil {
			issues.persistenceError("create_zip_codes", fmt.Sprintf("%s..%s", batch[0], batch[len(batch)-1]), err)
			return fmt.Errorf("failed to create zip codes: %w", err)
		}
		for _, z := range created {
			zipIDs[z.Value] = z.ID
		}
		issues.NewZipCodes = append(issues.NewZipCodes, batch...)
	}

	current, err := m.loadMappings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load mappings: %w", err)
	}

	for _, zip := range plan.Zips() {
		if err := ctx.Err(); err != nil {
			return err
		}
		regionID, ok := regionIDs[plan.Assignments[zip]]
		if !ok {
			continue
		}
		zipID, ok := zipIDs[zip]
		if !ok {
			return fmt.Errorf("zip code %s missing after create", zip)
		}
		if current[zipID] == regionID {
			issues.MappingsUnchanged++
			continue
		}
		if err := m.mappings.Replace(ctx, zipID, regionID); err != nil {
			issues.persistenceError("write_mapping", zip, err)
			return fmt.Errorf("failed to map zip %s: %w", zip, err)
		}
		issues.MappingsWritten++
	}
	return nil
}

func (m *Mapper) loadZipIDs(ctx context.Context) (map[string]uint, error) {
	ids := make(map[string]uint)
	var after uint
	for {
		page, err := m.zips.ListPage(ctx, after, m.pageSize)
		if err != nil {
			return nil, err
		}
		for _, z := range page {
			ids[z.Value] = z.ID
			after = z.ID
		}
		if len(page) < m.pageSize {
			return ids, nil
		}
	}
}

func (m *Mapper) loadMappings(ctx context.Context) (map[uint]uint, error) {
	current := make(map[uint]uint)
	var after uint
	for {
		page, err := m.mappings.ListPage(ctx, after, m.pageSize)
		if err != nil {
			return nil, err
		}
		for _, mp := range page {
			current[mp.ZipCodeID] = mp.RegionID
			after = mp.ID
		}
		if len(page) < m.pageSize {
			return current, nil
		}
	}
}

// Assign maps a single zip code to a region, creating the zip code if needed.
func (m *Mapper) Assign(ctx context.Context, rawZip string, regionID uint) (*models.ZipCode, error) {
	zip, err := zipcode.Parse(rawZip)
	if err != nil {
		return nil, err
	}
	zc, _, err := m.zips.GetOrCreate(ctx, zip)
	if err != nil {
		return nil, fmt.Errorf("failed to load zip code %s: %w", zip, err)
	}
	if err := m.mappings.Replace(ctx, zc.ID, regionID); err != nil {
		return nil, fmt.Errorf("failed to map zip %s: %w", zip, err)
	}
	return zc, nil
}

// Unassign removes a zip code's region, reporting whether one was removed.
func (m *Mapper) Unassign(ctx context.Context, rawZip string) (bool, error) {
	zip, err := zipcode.Parse(rawZip)
	if err != nil {
		return false, err
	}
	zc, err := m.zips.GetByValue(ctx, zip)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	n, err := m.mappings.DeleteByZipCodeID(ctx, zc.ID)
	return n > 0, err
}
