package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/internal/pkg/dma"
	"github.com/gofiber/fiber/v2/log"
)

// ImportRunner runs one DMA source. *dma.Importer implements it.
type ImportRunner interface {
	Run(ctx context.Context, src dma.Source) (*dma.ImportIssues, error)
}

// RunRecorder tracks the import run row. *dma.ReportWriter implements it.
type RunRecorder interface {
	MarkRunning(ctx context.Context, run *models.ImportRun) error
	MarkQueued(ctx context.Context, run *models.ImportRun, reason string) error
	Finish(ctx context.Context, run *models.ImportRun, issues *dma.ImportIssues, runErr error) error
}

// RunLoader loads an import run by id.
type RunLoader interface {
	GetByID(ctx context.Context, id uint) (*models.ImportRun, error)
}

// ImportDeps is what the DMA import handler needs.
type ImportDeps struct {
	Importer ImportRunner
	Reports  RunRecorder
	Runs     RunLoader
	Zips     dma.ZipLister
	// Lookup is nil when no lookup service is configured.
	Lookup      dma.LookupFunc
	ErrorLogCap func() int
}

// NewDMAImportHandler returns the handler for JobTypeDMAImport. A busy
// import lock fails the job so it is retried later; every other outcome is
// recorded on the run and completes the job.
//
// A job can be delivered more than once (retries, the stuck sweeper). Runs
// that already finished are left alone, and a run that is still running
// under another delivery is never marked queued or finished from here.
func NewDMAImportHandler(deps ImportDeps) Handler {
	return func(ctx context.Context, job *Job) error {
		payload, err := DMAImportJobPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("invalid dma import payload: %w", err)
		}

		run, err := deps.Runs.GetByID(ctx, payload.RunID)
		if err != nil {
			return fmt.Errorf("failed to load import run %d: %w", payload.RunID, err)
		}
		if runFinished(run) {
			log.Infof("[DMAImport] Run %s is already %s, ignoring delivery of job %s", run.UUID, run.Status, job.ID)
			return nil
		}

		// A running run was picked up by an earlier delivery. That delivery
		// either still holds the import lock or died without finishing.
		resumed := run.Status == models.ImportStatusRunning
		if !resumed {
			if err := deps.Reports.MarkRunning(ctx, run); err != nil {
				return fmt.Errorf("failed to mark import run %s running: %w", run.UUID, err)
			}
		}

		src, err := openSource(deps, payload)
		if err != nil {
			if resumed {
				// The earlier delivery may have finished and removed the upload.
				return fmt.Errorf("run %s cannot resume: %w", run.UUID, err)
			}
			log.Errorf("[DMAImport] Run %s cannot start: %v", run.UUID, err)
			issues := dma.NewImportIssues(payload.Source, payload.FilePath)
			return deps.Reports.Finish(ctx, run, issues, err)
		}

		issues, runErr := deps.Importer.Run(ctx, src)
		if errors.Is(runErr, dma.ErrImportInProgress) {
			if resumed {
				log.Infof("[DMAImport] Run %s is still running under another delivery", run.UUID)
				return runErr
			}
			if err := deps.Reports.MarkQueued(ctx, run, runErr.Error()); err != nil {
				log.Errorf("[DMAImport] Failed to requeue run %s: %v", run.UUID, err)
			}
			return runErr
		}

		current, err := deps.Runs.GetByID(ctx, run.ID)
		if err != nil {
			return fmt.Errorf("failed to reload import run %s: %w", run.UUID, err)
		}
		if runFinished(current) {
			log.Warnf("[DMAImport] Run %s was finished by another delivery, keeping its report", run.UUID)
			return nil
		}
		if err := deps.Reports.Finish(ctx, run, issues, runErr); err != nil {
			return err
		}

		if runErr == nil && payload.FilePath != "" {
			if err := os.Remove(payload.FilePath); err != nil && !os.IsNotExist(err) {
				log.Warnf("[DMAImport] Failed to remove uploaded file %s: %v", payload.FilePath, err)
			}
		}
		return nil
	}
}

func runFinished(run *models.ImportRun) bool {
	return run.Status == models.ImportStatusCompleted || run.Status == models.ImportStatusFailed
}

func openSource(deps ImportDeps, payload *DMAImportJobPayload) (dma.Source, error) {
	switch payload.Source {
	case dma.SourceCSV:
		return dma.OpenDelimitedFile(payload.FilePath)
	case dma.SourceLookup:
		if deps.Lookup == nil {
			return nil, errors.New("no zip-to-DMA lookup service configured")
		}
		errorCap := 10
		if deps.ErrorLogCap != nil {
			errorCap = deps.ErrorLogCap()
		}
		return dma.NewLookupSource(deps.Zips, deps.Lookup, "lookup", errorCap), nil
	default:
		return nil, fmt.Errorf("unknown import source %q", payload.Source)
	}
}

const (
	// ImportMaxRetries bounds how often an import waits for a busy lock.
	ImportMaxRetries = 5
	// ImportStuckAfter is twice the import lock TTL, so a crashed run's lock
	// has expired by the time the sweeper hands the job to another worker.
	ImportStuckAfter = 2 * dma.LockTTL
)

// EnqueueDMAImport queues the import of a recorded run
func (q *Queue) EnqueueDMAImport(run *models.ImportRun, filePath string) (*Job, error) {
	payload := DMAImportJobPayload{
		RunID:    run.ID,
		RunUUID:  run.UUID,
		Source:   run.Source,
		FilePath: filePath,
	}
	job, err := q.EnqueueJobWithRetries(JobTypeDMAImport, payload.ToMap(), ImportMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue import run %s: %w", run.UUID, err)
	}
	log.Infof("[DMAImport] Enqueued run %s as job %s", run.UUID, job.ID)
	return job, nil
}
