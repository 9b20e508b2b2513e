package dma

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/internal/pkg/s3backup"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DefaultReportDir is where issues reports are written.
const DefaultReportDir = "data/reports"

// Archiver copies artifacts to object storage. *s3backup.Client implements it.
type Archiver interface {
	Archive(ctx context.Context, kind, filename string, body []byte) (string, error)
}

// RunStore persists import runs.
type RunStore interface {
	Create(ctx context.Context, run *models.ImportRun) error
	Update(ctx context.Context, run *models.ImportRun) error
}

// Report is the document written after each run.
type Report struct {
	Summary Summary `json:"summary"`
	*ImportIssues
}

// ReportWriter records import runs: a row in import_runs, a JSON file on
// disk and, when configured, an archived copy.
type ReportWriter struct {
	runs     RunStore
	dir      string
	archiver Archiver
}

// NewReportWriter creates a writer. archiver may be nil.
func NewReportWriter(runs RunStore, dir string, archiver Archiver) *ReportWriter {
	if dir == "" {
		dir = DefaultReportDir
	}
	return &ReportWriter{runs: runs, dir: dir, archiver: archiver}
}

// Begin records a queued run.
func (w *ReportWriter) Begin(ctx context.Context, source, ref string) (*models.ImportRun, error) {
	run := &models.ImportRun{
		UUID:      uuid.New().String(),
		Source:    source,
		SourceRef: ref,
		Status:    models.ImportStatusQueued,
	}
	if err := w.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record import run: %w", err)
	}
	return run, nil
}

// MarkRunning flags a run as started.
func (w *ReportWriter) MarkRunning(ctx context.Context, run *models.ImportRun) error {
	now := time.Now().UTC()
	run.Status = models.ImportStatusRunning
	run.StartedAt = &now
	return w.runs.Update(ctx, run)
}

// MarkQueued puts a run back in the queue, e.g. while another import holds
// the lock.
func (w *ReportWriter) MarkQueued(ctx context.Context, run *models.ImportRun, reason string) error {
	run.Status = models.ImportStatusQueued
	run.Error = reason
	return w.runs.Update(ctx, run)
}

// Finish stores the outcome of a run. The report is written even when the
// run failed so partial counts are never lost.
func (w *ReportWriter) Finish(ctx context.Context, run *models.ImportRun, issues *ImportIssues, runErr error) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = models.ImportStatusCompleted
	run.Error = ""
	if runErr != nil {
		run.Status = models.ImportStatusFailed
		run.Error = runErr.Error()
	}

	if issues != nil {
		report, err := json.MarshalIndent(Report{Summary: issues.Summary(), ImportIssues: issues}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		summary, err := json.Marshal(issues.Summary())
		if err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		run.Report = datatypes.JSON(report)
		run.Summary = datatypes.JSON(summary)

		path, err := writeFile(w.dir, fmt.Sprintf("dma-import-issues-%s.json", stamp(now)), report)
		if err != nil {
			log.Errorf("[DMAImport] Failed to write report file: %v", err)
		} else {
			run.ReportPath = path
			log.Infof("[DMAImport] Issues report written to %s", path)
			w.archive(ctx, s3backup.KindImportReport, path, report)
		}
	}

	if err := w.runs.Update(ctx, run); err != nil {
		return fmt.Errorf("failed to update import run %s: %w", run.UUID, err)
	}
	return nil
}

func (w *ReportWriter) archive(ctx context.Context, kind, path string, body []byte) {
	if w.archiver == nil {
		return
	}
	if _, err := w.archiver.Archive(ctx, kind, filepath.Base(path), body); err != nil {
		log.Warnf("[DMAImport] Failed to archive %s: %v", path, err)
	}
}

func writeFile(dir, name string, body []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func stamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15-04-05.000Z")
}
