package controllers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/dma"
	"github.com/attorneymap/attorneymap/internal/pkg/jobqueue"
)

const maxImportUploadBytes = 50 << 20

// ImportRunRecorder records queued runs. *dma.ReportWriter implements it.
type ImportRunRecorder interface {
	Begin(ctx context.Context, source, ref string) (*models.ImportRun, error)
	Finish(ctx context.Context, run *models.ImportRun, issues *dma.ImportIssues, runErr error) error
}

// ImportEnqueuer queues import runs. *jobqueue.Queue implements it.
type ImportEnqueuer interface {
	EnqueueDMAImport(run *models.ImportRun, filePath string) (*jobqueue.Job, error)
}

// AdminImportController starts DMA imports and serves their reports
type AdminImportController struct {
	runs          repository.ImportRunRepository
	recorder      ImportRunRecorder
	queue         ImportEnqueuer
	uploadDir     string
	lookupEnabled bool
}

// NewAdminImportController creates a new import controller
func NewAdminImportController(runs repository.ImportRunRepository, recorder ImportRunRecorder, queue ImportEnqueuer, uploadDir string, lookupEnabled bool) *AdminImportController {
	if uploadDir == "" {
		uploadDir = "data/uploads"
	}
	return &AdminImportController{
		runs:          runs,
		recorder:      recorder,
		queue:         queue,
		uploadDir:     uploadDir,
		lookupEnabled: lookupEnabled,
	}
}

// HandleUploadCSV stores an uploaded delimited file and queues its import
func (ic *AdminImportController) HandleUploadCSV(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Missing file upload")
	}
	if file.Size == 0 {
		return badRequest(c, "Uploaded file is empty")
	}
	if file.Size > maxImportUploadBytes {
		return jsonError(c, fiber.StatusRequestEntityTooLarge, "too_large", "Uploaded file is too large")
	}

	if err := os.MkdirAll(ic.uploadDir, 0755); err != nil {
		return internalError(c, "Failed to prepare upload directory", err)
	}
	path := filepath.Join(ic.uploadDir, uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveFile(file, path); err != nil {
		return internalError(c, "Failed to store upload", err)
	}

	return ic.start(c, dma.SourceCSV, file.Filename, path)
}

// HandleStartLookup queues an import that asks the lookup service for every known zip
func (ic *AdminImportController) HandleStartLookup(c *fiber.Ctx) error {
	if !ic.lookupEnabled {
		return badRequest(c, "No zip-to-DMA lookup service is configured")
	}
	return ic.start(c, dma.SourceLookup, "lookup", "")
}

func (ic *AdminImportController) start(c *fiber.Ctx, source, ref, path string) error {
	ctx := c.UserContext()
	run, err := ic.recorder.Begin(ctx, source, ref)
	if err != nil {
		return internalError(c, "Failed to record import run", err)
	}

	job, err := ic.queue.EnqueueDMAImport(run, path)
	if err != nil {
		if ferr := ic.recorder.Finish(ctx, run, nil, err); ferr != nil {
			return internalError(c, "Failed to record import failure", ferr)
		}
		return internalError(c, "Failed to queue import", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"run_id":   run.ID,
		"run_uuid": run.UUID,
		"job_id":   job.ID,
		"status":   run.Status,
	})
}

// HandleList returns recent import runs without their reports
func (ic *AdminImportController) HandleList(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	runs, err := ic.runs.List(c.UserContext(), offset, limit)
	if err != nil {
		return internalError(c, "Failed to load import runs", err)
	}
	if runs == nil {
		runs = []models.ImportRun{}
	}
	return c.JSON(fiber.Map{"runs": runs})
}

// HandleGet returns one run, by numeric id or uuid, including its issues report
func (ic *AdminImportController) HandleGet(c *fiber.Ctx) error {
	ref := c.Params("id")
	ctx := c.UserContext()

	var (
		run *models.ImportRun
		err error
	)
	if id, perr := strconv.ParseUint(ref, 10, 32); perr == nil {
		run, err = ic.runs.GetByID(ctx, uint(id))
	} else if _, perr := uuid.Parse(ref); perr == nil {
		run, err = ic.runs.GetByUUID(ctx, ref)
	} else {
		return badRequest(c, fmt.Sprintf("Invalid import run reference %q", ref))
	}
	if err != nil {
		return lookupError(c, "Import run", err)
	}
	return c.JSON(run)
}
