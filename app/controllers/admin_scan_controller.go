package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/attorneymap/attorneymap/internal/pkg/jobqueue"
	"github.com/attorneymap/attorneymap/internal/pkg/limits"
)

// ScanQueue runs scans in the background. *jobqueue.Manager and *jobqueue.Queue cover it.
type ScanQueue interface {
	EnqueueLimitScan(trigger string) (*jobqueue.Job, error)
	LatestScan(ctx context.Context) (*jobqueue.StoredScan, error)
	ScanProgress(ctx context.Context) (*jobqueue.ScanProgress, error)
}

// AdminScanController runs limit-violation scans
type AdminScanController struct {
	newScanner func() jobqueue.LimitScanner
	queue      ScanQueue
	timeout    time.Duration
}

// NewAdminScanController creates a new scan controller. timeout bounds
// synchronous scans; zero means no bound.
func NewAdminScanController(newScanner func() jobqueue.LimitScanner, queue ScanQueue, timeout time.Duration) *AdminScanController {
	return &AdminScanController{newScanner: newScanner, queue: queue, timeout: timeout}
}

func (sc *AdminScanController) scan(c *fiber.Ctx) (*limits.ScanResult, error) {
	ctx := c.UserContext()
	if sc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sc.timeout)
		defer cancel()
	}
	return sc.newScanner().Scan(ctx)
}

// HandleScan runs a scan and returns the structured result. An interrupted
// scan still returns the pairs that finished, flagged as partial.
func (sc *AdminScanController) HandleScan(c *fiber.Ctx) error {
	result, err := sc.scan(c)
	if result == nil {
		return internalError(c, "Limit scan failed", err)
	}

	status := fiber.StatusOK
	body := fiber.Map{"result": result, "partial": false}
	if err != nil {
		status = fiber.StatusPartialContent
		body["partial"] = true
		body["message"] = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			body["message"] = "Scan timed out; showing pairs checked so far"
		}
	}
	return c.Status(status).JSON(body)
}

// HandleExport runs a scan and returns it as a spreadsheet
func (sc *AdminScanController) HandleExport(c *fiber.Ctx) error {
	result, err := sc.scan(c)
	if result == nil {
		return internalError(c, "Limit scan failed", err)
	}
	sheet, err := limits.ExportXLSX(result)
	if err != nil {
		return internalError(c, "Failed to render spreadsheet", err)
	}

	name := fmt.Sprintf("limit-scan-%s.xlsx", result.StartedAt.UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(sheet)
}

// HandleEnqueue queues a background scan
func (sc *AdminScanController) HandleEnqueue(c *fiber.Ctx) error {
	job, err := sc.queue.EnqueueLimitScan("admin")
	if err != nil {
		return internalError(c, "Failed to queue limit scan", err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": job.ID})
}

// HandleLatest returns the most recent background scan
func (sc *AdminScanController) HandleLatest(c *fiber.Ctx) error {
	stored, err := sc.queue.LatestScan(c.UserContext())
	if err != nil {
		return internalError(c, "Failed to load latest scan", err)
	}
	if stored == nil {
		return notFound(c, "No background scan has completed yet")
	}
	return c.JSON(stored)
}

// HandleProgress returns the pairs the current or last background scan has
// finished, including those of a scan that never completed
func (sc *AdminScanController) HandleProgress(c *fiber.Ctx) error {
	progress, err := sc.queue.ScanProgress(c.UserContext())
	if err != nil {
		return internalError(c, "Failed to load scan progress", err)
	}
	if progress == nil {
		return notFound(c, "No background scan has started yet")
	}
	return c.JSON(progress)
}
