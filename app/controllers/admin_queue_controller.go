package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/attorneymap/attorneymap/internal/pkg/jobqueue"
)

// QueueInspector reads job queue state. *jobqueue.Queue implements it.
type QueueInspector interface {
	GetJob(ctx context.Context, jobID string) (*jobqueue.Job, error)
	GetJobStats(ctx context.Context) (map[jobqueue.JobStatus]int64, error)
	GetQueueSize(ctx context.Context) (int64, error)
	GetProcessingSize(ctx context.Context) (int64, error)
}

// AdminQueueController is the job queue monitor
type AdminQueueController struct {
	queue QueueInspector
}

// NewAdminQueueController creates a new queue monitor controller
func NewAdminQueueController(queue QueueInspector) *AdminQueueController {
	return &AdminQueueController{queue: queue}
}

// HandleStats returns queue depth and per-status job counters
func (qc *AdminQueueController) HandleStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	stats, err := qc.queue.GetJobStats(ctx)
	if err != nil {
		return internalError(c, "Failed to load job stats", err)
	}
	pending, err := qc.queue.GetQueueSize(ctx)
	if err != nil {
		return internalError(c, "Failed to load queue size", err)
	}
	processing, err := qc.queue.GetProcessingSize(ctx)
	if err != nil {
		return internalError(c, "Failed to load processing size", err)
	}
	return c.JSON(fiber.Map{"pending": pending, "processing": processing, "stats": stats})
}

// HandleGetJob returns one job. Finished jobs expire after a day.
func (qc *AdminQueueController) HandleGetJob(c *fiber.Ctx) error {
	job, err := qc.queue.GetJob(c.UserContext(), c.Params("id"))
	if errors.Is(err, redis.Nil) {
		return notFound(c, "Job not found")
	}
	if err != nil {
		return internalError(c, "Failed to load job", err)
	}
	return c.JSON(job)
}
