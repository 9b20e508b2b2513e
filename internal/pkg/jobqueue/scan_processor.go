package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/attorneymap/attorneymap/internal/pkg/limits"
	"github.com/attorneymap/attorneymap/internal/pkg/s3backup"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	// LatestScanKey holds the most recent background scan result
	LatestScanKey = "limit_scan:latest"
	LatestScanTTL = 7 * 24 * time.Hour
	// ScanStuckAfter covers full scans over large directories.
	ScanStuckAfter = time.Hour

	// ScanProgressKey lists the pairs the current or last background scan
	// has finished; ScanProgressJobKey names that scan's job.
	ScanProgressKey    = "limit_scan:progress"
	ScanProgressJobKey = "limit_scan:progress:job"
)

// LimitScanner runs one limit scan. *limits.Scanner implements it.
type LimitScanner interface {
	Scan(ctx context.Context) (*limits.ScanResult, error)
}

// Archiver copies artifacts to object storage. *s3backup.Client implements it.
type Archiver interface {
	Archive(ctx context.Context, kind, filename string, body []byte) (string, error)
}

// ScannerBuilder builds a scanner that reports every finished pair to
// onStatus. onStatus may be nil.
type ScannerBuilder func(onStatus func(limits.RegionTierStatus)) LimitScanner

// ScanDeps is what the limit scan handler needs.
type ScanDeps struct {
	// NewScanner builds a scanner per run so settings changes apply.
	NewScanner ScannerBuilder
	ReportDir  string
	// Archiver may be nil.
	Archiver Archiver
}

// StoredScan is the latest background scan as kept in Redis.
type StoredScan struct {
	JobID      string             `json:"job_id"`
	Trigger    string             `json:"trigger"`
	ReportPath string             `json:"report_path,omitempty"`
	ArchiveKey string             `json:"archive_key,omitempty"`
	Partial    bool               `json:"partial"`
	Result     *limits.ScanResult `json:"result"`
}

// EnqueueLimitScan queues a background limit scan. Scans are read-only, so
// they are never retried automatically.
func (q *Queue) EnqueueLimitScan(trigger string) (*Job, error) {
	payload := LimitScanJobPayload{Trigger: trigger, Archive: true}
	return q.EnqueueJobWithRetries(JobTypeLimitScan, payload.ToMap(), 0)
}

// NewLimitScanHandler returns the handler for JobTypeLimitScan. The result is
// stored under LatestScanKey and written as a spreadsheet under ReportDir.
func (q *Queue) NewLimitScanHandler(deps ScanDeps) Handler {
	return func(ctx context.Context, job *Job) error {
		payload, err := LimitScanJobPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("invalid limit scan payload: %w", err)
		}

		q.resetScanProgress(ctx, job.ID)
		// Progress is written even after ctx is cancelled so the pairs that
		// finished are not lost.
		progressCtx := context.WithoutCancel(ctx)
		result, scanErr := deps.NewScanner(func(st limits.RegionTierStatus) {
			q.appendScanProgress(progressCtx, st)
		}).Scan(ctx)
		if result == nil {
			return fmt.Errorf("limit scan failed: %w", scanErr)
		}

		stored := &StoredScan{
			JobID:   job.ID,
			Trigger: payload.Trigger,
			Partial: scanErr != nil,
			Result:  result,
		}

		sheet, err := limits.ExportXLSX(result)
		if err != nil {
			log.Errorf("[LimitScan] Failed to render spreadsheet: %v", err)
		} else {
			dir := deps.ReportDir
			if dir == "" {
				dir = "data/reports"
			}
			name := fmt.Sprintf("limit-scan-%s.xlsx", result.StartedAt.UTC().Format("2006-01-02T15-04-05Z"))
			if err := os.MkdirAll(dir, 0755); err != nil {
				log.Errorf("[LimitScan] Failed to create report dir: %v", err)
			} else {
				path := filepath.Join(dir, name)
				if err := os.WriteFile(path, sheet, 0644); err != nil {
					log.Errorf("[LimitScan] Failed to write %s: %v", path, err)
				} else {
					stored.ReportPath = path
				}
			}
			if payload.Archive && deps.Archiver != nil {
				key, err := deps.Archiver.Archive(ctx, s3backup.KindLimitScan, name, sheet)
				if err != nil {
					log.Warnf("[LimitScan] Failed to archive spreadsheet: %v", err)
				} else {
					stored.ArchiveKey = key
				}
			}
		}

		if err := q.SaveLatestScan(ctx, stored); err != nil {
			return err
		}
		log.Infof("[LimitScan] Background scan %s stored: %d pairs, %d violations", job.ID, len(result.Statuses), result.Violations)
		return nil
	}
}

// ScanProgress is what a background scan has finished so far. It survives
// a crashed or cancelled scan until the next one starts.
type ScanProgress struct {
	JobID    string                    `json:"job_id"`
	Statuses []limits.RegionTierStatus `json:"statuses"`
}

func (q *Queue) resetScanProgress(ctx context.Context, jobID string) {
	pipe := q.client.TxPipeline()
	pipe.Del(ctx, ScanProgressKey)
	pipe.Set(ctx, ScanProgressJobKey, jobID, LatestScanTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warnf("[LimitScan] Failed to reset scan progress: %v", err)
	}
}

func (q *Queue) appendScanProgress(ctx context.Context, st limits.RegionTierStatus) {
	data, err := json.Marshal(st)
	if err != nil {
		log.Warnf("[LimitScan] Failed to encode progress for region %d: %v", st.RegionID, err)
		return
	}
	pipe := q.client.Pipeline()
	pipe.RPush(ctx, ScanProgressKey, data)
	pipe.Expire(ctx, ScanProgressKey, LatestScanTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warnf("[LimitScan] Failed to record progress for region %d: %v", st.RegionID, err)
	}
}

// ScanProgress returns the pairs finished by the current or last background
// scan, or nil when no scan has started.
func (q *Queue) ScanProgress(ctx context.Context) (*ScanProgress, error) {
	jobID, err := q.client.Get(ctx, ScanProgressJobKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	items, err := q.client.LRange(ctx, ScanProgressKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	progress := &ScanProgress{JobID: jobID, Statuses: make([]limits.RegionTierStatus, 0, len(items))}
	for _, item := range items {
		var st limits.RegionTierStatus
		if err := json.Unmarshal([]byte(item), &st); err != nil {
			return nil, fmt.Errorf("failed to decode scan progress: %w", err)
		}
		progress.Statuses = append(progress.Statuses, st)
	}
	return progress, nil
}

// SaveLatestScan replaces the stored background scan
func (q *Queue) SaveLatestScan(ctx context.Context, scan *StoredScan) error {
	data, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("failed to marshal scan result: %w", err)
	}
	if err := q.client.Set(ctx, LatestScanKey, data, LatestScanTTL).Err(); err != nil {
		return fmt.Errorf("failed to store scan result: %w", err)
	}
	return nil
}

// LatestScan returns the stored background scan, or nil when there is none
func (q *Queue) LatestScan(ctx context.Context) (*StoredScan, error) {
	data, err := q.client.Get(ctx, LatestScanKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var scan StoredScan
	if err := json.Unmarshal(data, &scan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan result: %w", err)
	}
	return &scan, nil
}
