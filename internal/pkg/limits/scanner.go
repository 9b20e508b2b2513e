package limits

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/zipcode"
	"github.com/gofiber/fiber/v2/log"
)

const (
	DefaultWorkers   = 4
	DefaultBatchSize = 1000
)

// Status labels shown next to each region/tier pair.
const (
	StatusUnderLimit = "Under Limit"
	StatusAtLimit    = "At Limit"
	StatusUnlimited  = "Unlimited"
)

// RegionTierStatus is the occupancy of one tier in one region.
type RegionTierStatus struct {
	RegionID     uint              `json:"region_id"`
	RegionCode   int               `json:"region_code"`
	RegionName   string            `json:"region_name"`
	Tier         models.Tier       `json:"tier"`
	CurrentCount int               `json:"current_count"`
	Limit        *int              `json:"limit"`
	LimitScope   models.LimitScope `json:"limit_scope,omitempty"`
	IsViolation  bool              `json:"is_violation"`
	OverBy       int               `json:"over_by"`
	Status       string            `json:"status"`
}

// PairError is a region/tier pair that could not be counted.
type PairError struct {
	RegionID   uint        `json:"region_id"`
	RegionName string      `json:"region_name"`
	Tier       models.Tier `json:"tier,omitempty"`
	Error      string      `json:"error"`
}

// ScanResult is the outcome of one scan. A cancelled scan carries whatever
// pairs finished before cancellation.
type ScanResult struct {
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	NothingToCheck bool               `json:"nothing_to_check"`
	RegionsChecked int                `json:"regions_checked"`
	Violations     int                `json:"violations"`
	Statuses       []RegionTierStatus `json:"statuses"`
	Errors         []PairError        `json:"errors"`
	Warnings       []string           `json:"warnings"`
}

// EligibleRegionSource lists regions with their mapped zip counts.
type EligibleRegionSource interface {
	ListWithZipCounts(ctx context.Context) ([]models.RegionWithZipCount, error)
}

// RegionZipSource lists the zip codes mapped to a region.
type RegionZipSource interface {
	ZipValuesForRegion(ctx context.Context, regionID uint) ([]string, error)
}

// OccupantSource returns lawyer IDs of a tier located in a zip set via path.
type OccupantSource interface {
	OccupantIDs(ctx context.Context, path repository.OccupancyPath, tier models.Tier, zips []string) ([]uint, error)
}

// LimitSource loads the limit table for a scan.
type LimitSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Options tunes a Scanner.
type Options struct {
	Workers   int
	BatchSize int
	// OnStatus, when set, receives every reported pair as soon as it is
	// computed. It may be called from several goroutines at once.
	OnStatus func(RegionTierStatus)
}

// Scanner checks every region with mapped zips against every tier limit.
type Scanner struct {
	regions   EligibleRegionSource
	zips      RegionZipSource
	occupants OccupantSource
	limits    LimitSource
	opts      Options
}

func NewScanner(regions EligibleRegionSource, zips RegionZipSource, occupants OccupantSource, limits LimitSource, opts Options) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Scanner{regions: regions, zips: zips, occupants: occupants, limits: limits, opts: opts}
}

// NewScannerFromRepositories wires a scanner to the GORM repositories.
func NewScannerFromRepositories(repos *repository.Repositories, opts Options) *Scanner {
	return NewScanner(repos.Region, repos.ZipRegionMapping, repos.Occupant, NewResolverFromRepositories(repos), opts)
}

// Scan computes the occupancy report. Pairs with a bounded limit are always
// reported; unlimited pairs never are. A failed pair is recorded in Errors
// and skipped. The returned error is non-nil only when the scan could not
// start or was cancelled, and in the latter case the result is still
// populated with the pairs that finished.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{
		StartedAt: time.Now().UTC(),
		Statuses:  []RegionTierStatus{},
		Errors:    []PairError{},
		Warnings:  []string{},
	}

	snapshot, err := s.limits.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.regions.ListWithZipCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}

	var eligible []models.Region
	for _, r := range all {
		if r.ZipCount > 0 {
			eligible = append(eligible, r.Region)
		}
	}
	if len(eligible) == 0 {
		log.Infof("[LimitScan] No regions with mapped zip codes, nothing to check")
		result.NothingToCheck = true
		result.FinishedAt = time.Now().UTC()
		return result, nil
	}
	log.Infof("[LimitScan] Checking %d regions with %d workers", len(eligible), s.opts.Workers)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		warned = make(map[models.Tier]bool)
	)
	record := func(st *RegionTierStatus, perr *PairError, warnTier models.Tier) {
		mu.Lock()
		defer mu.Unlock()
		if perr != nil {
			result.Errors = append(result.Errors, *perr)
		}
		if warnTier != "" && !warned[warnTier] {
			warned[warnTier] = true
			result.Warnings = append(result.Warnings, fmt.Sprintf("no global limit for tier %s, treated as unlimited", warnTier))
		}
		if st != nil {
			result.Statuses = append(result.Statuses, *st)
			if st.IsViolation {
				result.Violations++
			}
		}
	}

	pool := make(chan struct{}, s.opts.Workers)
	for _, region := range eligible {
		if ctx.Err() != nil {
			break
		}
		pool <- struct{}{}
		wg.Add(1)
		go func(region models.Region) {
			defer wg.Done()
			defer func() { <-pool }()
			s.scanRegion(ctx, region, snapshot, record)
		}(region)
	}
	wg.Wait()

	result.RegionsChecked = len(eligible)
	result.FinishedAt = time.Now().UTC()
	sort.SliceStable(result.Statuses, func(i, j int) bool {
		a, b := result.Statuses[i], result.Statuses[j]
		if a.RegionName != b.RegionName {
			return a.RegionName < b.RegionName
		}
		if a.RegionID != b.RegionID {
			return a.RegionID < b.RegionID
		}
		return a.Tier.Rank() < b.Tier.Rank()
	})

	if err := ctx.Err(); err != nil {
		log.Warnf("[LimitScan] Scan interrupted after %d pairs: %v", len(result.Statuses), err)
		return result, err
	}
	log.Infof("[LimitScan] Completed: %d pairs reported, %d violations, %d errors",
		len(result.Statuses), result.Violations, len(result.Errors))
	return result, nil
}

func (s *Scanner) scanRegion(ctx context.Context, region models.Region, snapshot *Snapshot, record func(*RegionTierStatus, *PairError, models.Tier)) {
	zips, err := s.zips.ZipValuesForRegion(ctx, region.ID)
	if err != nil {
		log.Errorf("[LimitScan] Failed to load zip codes for region %d: %v", region.Code, err)
		record(nil, &PairError{RegionID: region.ID, RegionName: region.Name, Error: err.Error()}, "")
		return
	}

	for _, tier := range models.AllTiers {
		if ctx.Err() != nil {
			return
		}
		count, err := s.countOccupants(ctx, tier, zips)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorf("[LimitScan] Failed to count %s occupants for region %d: %v", tier, region.Code, err)
			record(nil, &PairError{RegionID: region.ID, RegionName: region.Name, Tier: tier, Error: err.Error()}, "")
			continue
		}

		limit := snapshot.Resolve(region.ID, tier)
		var warnTier models.Tier
		if limit.Warning {
			warnTier = tier
		}
		st := NewStatus(region, tier, count, limit)
		if st.Limit == nil && !st.IsViolation {
			record(nil, nil, warnTier)
			continue
		}
		record(&st, nil, warnTier)
		if s.opts.OnStatus != nil {
			s.opts.OnStatus(st)
		}
	}
}

// countOccupants unions both occupancy paths over a chunked zip filter, so a
// lawyer found through their office and their firm counts once.
func (s *Scanner) countOccupants(ctx context.Context, tier models.Tier, zips []string) (int, error) {
	seen := make(map[uint]struct{})
	for _, path := range []repository.OccupancyPath{repository.PathDirect, repository.PathParent} {
		for _, chunk := range zipcode.Chunk(zips, s.opts.BatchSize) {
			ids, err := s.occupants.OccupantIDs(ctx, path, tier, chunk)
			if err != nil {
				return 0, fmt.Errorf("%s path: %w", path, err)
			}
			for _, id := range ids {
				seen[id] = struct{}{}
			}
		}
	}
	return len(seen), nil
}

// NewStatus evaluates one pair. Reaching the limit is not a violation;
// exceeding it is.
func NewStatus(region models.Region, tier models.Tier, count int, limit Limit) RegionTierStatus {
	st := RegionTierStatus{
		RegionID:     region.ID,
		RegionCode:   region.Code,
		RegionName:   region.Name,
		Tier:         tier,
		CurrentCount: count,
		Limit:        limit.Max,
		LimitScope:   limit.Scope,
	}
	switch {
	case limit.Max == nil:
		st.Status = StatusUnlimited
	case count > *limit.Max:
		st.IsViolation = true
		st.OverBy = count - *limit.Max
		st.Status = fmt.Sprintf("%d over", st.OverBy)
	case count == *limit.Max:
		st.Status = StatusAtLimit
	default:
		st.Status = StatusUnderLimit
	}
	return st
}
