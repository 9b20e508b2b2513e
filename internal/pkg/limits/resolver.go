package limits

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

var (
	// ErrGlobalLimitDelete is returned when asked to delete the global limits.
	ErrGlobalLimitDelete = errors.New("global subscription limits cannot be deleted")
	// ErrUnknownTier is returned for a tier outside the fixed tier set.
	ErrUnknownTier = errors.New("unknown subscription tier")
	// ErrRegionNotFound is returned when a region-scoped write names no region.
	ErrRegionNotFound = errors.New("region not found")
)

// Limit is a resolved maximum headcount. A nil Max means unlimited.
type Limit struct {
	Max *int `json:"max"`
	// Scope is where the value came from; empty when no row applied.
	Scope models.LimitScope `json:"scope,omitempty"`
	// Warning is set when not even a global row exists for the tier.
	Warning bool `json:"warning,omitempty"`
}

// Bounded reports whether the limit caps headcount.
func (l Limit) Bounded() bool {
	return l.Max != nil
}

// Store is the subscription limit persistence the resolver needs.
type Store interface {
	List(ctx context.Context) ([]models.SubscriptionLimit, error)
	Find(ctx context.Context, scope models.LimitScope, location string, tier models.Tier) (*models.SubscriptionLimit, error)
	ReplaceLocation(ctx context.Context, scope models.LimitScope, location string, rows []models.SubscriptionLimit) error
	DeleteLocation(ctx context.Context, scope models.LimitScope, location string) (int64, error)
}

// RegionLookup checks that a region exists.
type RegionLookup interface {
	GetByID(ctx context.Context, id uint) (*models.Region, error)
}

// Resolver answers "how many of tier may a region hold" with a two level
// lookup: a region override first, then the global default.
type Resolver struct {
	store   Store
	regions RegionLookup
}

func NewResolver(store Store, regions RegionLookup) *Resolver {
	return &Resolver{store: store, regions: regions}
}

// NewResolverFromRepositories wires a resolver to the GORM repositories.
func NewResolverFromRepositories(repos *repository.Repositories) *Resolver {
	return NewResolver(repos.SubscriptionLimit, repos.Region)
}

// Resolve returns the effective limit for a region and tier. A region row
// wins even when its max is null. With no row at either level the limit is
// unlimited and flagged as a warning.
func (r *Resolver) Resolve(ctx context.Context, regionID uint, tier models.Tier) (Limit, error) {
	row, err := r.store.Find(ctx, models.ScopeRegion, models.RegionLocation(regionID), tier)
	if err == nil {
		return Limit{Max: row.MaxCount, Scope: models.ScopeRegion}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Limit{}, fmt.Errorf("failed to load region limit: %w", err)
	}

	row, err = r.store.Find(ctx, models.ScopeGlobal, models.GlobalLocation, tier)
	if err == nil {
		return Limit{Max: row.MaxCount, Scope: models.ScopeGlobal}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Limit{}, fmt.Errorf("failed to load global limit: %w", err)
	}

	log.Warnf("[Limits] No global limit row for tier %s, treating as unlimited", tier)
	return Limit{Warning: true}, nil
}

// Snapshot loads every limit row once so a scan resolves from memory.
func (r *Resolver) Snapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription limits: %w", err)
	}
	return NewSnapshot(rows), nil
}

// ReplaceLocation writes a full tier set for one location: every existing
// row for the location is removed and one row per tier inserted. Tiers
// missing from values are stored as unlimited.
func (r *Resolver) ReplaceLocation(ctx context.Context, scope models.LimitScope, location string, values map[models.Tier]*int) error {
	for tier := range values {
		if _, err := models.ParseTier(string(tier)); err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownTier, tier)
		}
	}

	switch scope {
	case models.ScopeGlobal:
		location = models.GlobalLocation
	case models.ScopeRegion:
		if err := r.checkRegion(ctx, location); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown limit scope %q", scope)
	}

	rows := make([]models.SubscriptionLimit, 0, len(models.AllTiers))
	for _, tier := range models.AllTiers {
		row := models.SubscriptionLimit{
			Scope:         scope,
			LocationValue: location,
			Tier:          tier,
			MaxCount:      values[tier],
		}
		if err := row.Validate(); err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return r.store.ReplaceLocation(ctx, scope, location, rows)
}

// DeleteLocation removes a region's overrides. Global rows are never deleted.
func (r *Resolver) DeleteLocation(ctx context.Context, scope models.LimitScope, location string) (int64, error) {
	if scope != models.ScopeRegion {
		return 0, ErrGlobalLimitDelete
	}
	return r.store.DeleteLocation(ctx, scope, location)
}

func (r *Resolver) checkRegion(ctx context.Context, location string) error {
	id, err := strconv.ParseUint(location, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("%w: %q", ErrRegionNotFound, location)
	}
	if r.regions == nil {
		return nil
	}
	if _, err := r.regions.GetByID(ctx, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrRegionNotFound, id)
		}
		return err
	}
	return nil
}

// LocationLimits is the full tier set stored for one location.
type LocationLimits struct {
	Scope         models.LimitScope    `json:"scope"`
	LocationValue string               `json:"location_value"`
	Limits        map[models.Tier]*int `json:"limits"`
}

// Grouped lists stored limits one entry per location, global first.
func (r *Resolver) Grouped(ctx context.Context) ([]LocationLimits, error) {
	rows, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByLocation(rows), nil
}

// GroupByLocation folds limit rows into one entry per location.
func GroupByLocation(rows []models.SubscriptionLimit) []LocationLimits {
	index := make(map[string]int)
	var out []LocationLimits
	for _, row := range rows {
		key := string(row.Scope) + "|" + row.LocationValue
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, LocationLimits{
				Scope:         row.Scope,
				LocationValue: row.LocationValue,
				Limits:        make(map[models.Tier]*int),
			})
		}
		out[i].Limits[row.Tier] = row.MaxCount
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope == models.ScopeGlobal
		}
		return out[i].LocationValue < out[j].LocationValue
	})
	return out
}

// Snapshot is an in-memory copy of the limit table.
type Snapshot struct {
	rows map[snapshotKey]*int
}

type snapshotKey struct {
	scope    models.LimitScope
	location string
	tier     models.Tier
}

func NewSnapshot(rows []models.SubscriptionLimit) *Snapshot {
	s := &Snapshot{rows: make(map[snapshotKey]*int, len(rows))}
	for _, row := range rows {
		s.rows[snapshotKey{row.Scope, row.LocationValue, row.Tier}] = row.MaxCount
	}
	return s
}

// Resolve applies the same region-then-global rule as Resolver.Resolve.
func (s *Snapshot) Resolve(regionID uint, tier models.Tier) Limit {
	if v, ok := s.rows[snapshotKey{models.ScopeRegion, models.RegionLocation(regionID), tier}]; ok {
		return Limit{Max: v, Scope: models.ScopeRegion}
	}
	if v, ok := s.rows[snapshotKey{models.ScopeGlobal, models.GlobalLocation, tier}]; ok {
		return Limit{Max: v, Scope: models.ScopeGlobal}
	}
	return Limit{Warning: true}
}
