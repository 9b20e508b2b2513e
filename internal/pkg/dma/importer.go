package dma

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/distlock"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrImportInProgress is returned when another import holds the lock.
	ErrImportInProgress = errors.New("another DMA import is already running")
	// ErrLockLost stops a run whose import lock could not be renewed.
	ErrLockLost = errors.New("DMA import lock was lost")
)

// LockKey names the single-writer lock shared by imports and clears.
const LockKey = "dma-import"

// LockTTL bounds how long a crashed importer can block the next run.
const LockTTL = 30 * time.Minute

// LockRenewInterval is how often a held import lock is extended.
const LockRenewInterval = LockTTL / 3

// LockFactory returns a fresh lock instance for one run.
type LockFactory func() distlock.DistLock

// NewLockFactory returns fresh instances of the shared import lock, Redis
// backed when redisClient is set and a MySQL named lock otherwise.
func NewLockFactory(redisClient *redis.Client, db *sql.DB) LockFactory {
	return func() distlock.DistLock {
		return distlock.NewLock(redisClient, db, LockKey, LockTTL)
	}
}

// Importer runs one source through plan, region resolution and mapping.
// Runs are serialized because last-write-wins only holds within one ordered
// input.
type Importer struct {
	resolver   *Resolver
	mapper     *Mapper
	newLock    LockFactory
	renewEvery time.Duration
}

func NewImporter(resolver *Resolver, mapper *Mapper, newLock LockFactory) *Importer {
	return &Importer{resolver: resolver, mapper: mapper, newLock: newLock, renewEvery: LockRenewInterval}
}

// NewImporterFromRepositories wires an importer to the GORM repositories.
func NewImporterFromRepositories(repos *repository.Repositories, newLock LockFactory) *Importer {
	return NewImporter(
		NewResolver(repos.Region),
		NewMapper(repos.ZipCode, repos.ZipRegionMapping),
		newLock,
	)
}

// Run imports src. The returned issues are never nil: on error they hold
// everything recorded up to the failure, and rows already written stay
// written. Re-running the same input converges to the same stored state.
func (im *Importer) Run(ctx context.Context, src Source) (*ImportIssues, error) {
	issues := NewImportIssues(src.Name(), src.Ref())
	defer func() { issues.FinishedAt = time.Now().UTC() }()

	runCtx, release, err := acquire(ctx, im.newLock, im.renewEvery)
	if err != nil {
		return issues, err
	}
	defer release()

	err = im.run(runCtx, src, issues)
	if err != nil && errors.Is(context.Cause(runCtx), ErrLockLost) {
		return issues, fmt.Errorf("%w: %v", ErrLockLost, err)
	}
	return issues, err
}

func (im *Importer) run(ctx context.Context, src Source, issues *ImportIssues) error {
	log.Infof("[DMAImport] Starting %s import from %s", src.Name(), src.Ref())

	rows, err := src.Rows(ctx, issues)
	if err != nil {
		return fmt.Errorf("failed to read %s source: %w", src.Name(), err)
	}
	log.Infof("[DMAImport] Read %d rows, %d usable, %d skipped", issues.RowsRead, len(rows), len(issues.SkippedRows))

	plan := BuildPlan(rows)
	issues.ZipConflicts = append(issues.ZipConflicts, plan.ZipConflicts...)
	issues.NameConflicts = append(issues.NameConflicts, plan.NameConflicts...)
	if len(plan.ZipConflicts) > 0 {
		log.Warnf("[DMAImport] Found %d zip codes with conflicting region assignments", len(plan.ZipConflicts))
	}
	if len(plan.NameConflicts) > 0 {
		log.Warnf("[DMAImport] Found %d regions with inconsistent names in the input", len(plan.NameConflicts))
	}

	regionIDs := make(map[int]uint, len(plan.Names))
	for _, code := range plan.Codes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		id, err := im.resolver.Resolve(ctx, code, plan.Names[code], plan.NameLines[code], plan.Placeholder[code], issues)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			issues.persistenceError("resolve_region", fmt.Sprint(code), err)
			log.Errorf("[DMAImport] %v", err)
			continue
		}
		regionIDs[code] = id
	}

	if err := im.mapper.Apply(ctx, plan, regionIDs, issues); err != nil {
		log.Errorf("[DMAImport] Import aborted: %v", err)
		return err
	}

	s := issues.Summary()
	log.Infof("[DMAImport] Completed: %d regions created, %d renamed, %d zip codes created, %d mappings written, %d unchanged",
		s.RegionsCreated, s.RegionsRenamed, s.NewZipCodes, s.MappingsWritten, s.MappingsUnchanged)
	return nil
}

// renewer is implemented by locks that expire unless extended.
type renewer interface {
	Extend(ctx context.Context, ttl time.Duration) (bool, error)
}

// acquire takes the import lock and returns the context the locked work must
// use, plus the release func. Expiring locks are extended every renewEvery;
// if that fails the context is cancelled with ErrLockLost. A nil factory
// means the caller serializes runs itself.
func acquire(ctx context.Context, newLock LockFactory, renewEvery time.Duration) (context.Context, func(), error) {
	if newLock == nil {
		return ctx, func() {}, nil
	}
	lock := newLock()
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if !ok {
		return nil, nil, ErrImportInProgress
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	var wg sync.WaitGroup
	if r, ok := lock.(renewer); ok && renewEvery > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keepAlive(runCtx, r, renewEvery, done, cancel)
		}()
	}

	return runCtx, func() {
		close(done)
		wg.Wait()
		cancel(nil)
		releaseCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := lock.Release(releaseCtx); err != nil {
			log.Errorf("[DMAImport] Failed to release import lock: %v", err)
		}
	}, nil
}

func keepAlive(ctx context.Context, lock renewer, every time.Duration, done <-chan struct{}, cancel context.CancelCauseFunc) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			extendCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			owned, err := lock.Extend(extendCtx, LockTTL)
			stop()
			if err != nil || !owned {
				log.Errorf("[DMAImport] Failed to renew import lock (owned=%t): %v", owned, err)
				cancel(ErrLockLost)
				return
			}
		}
	}
}
