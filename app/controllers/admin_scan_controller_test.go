package controllers

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/internal/pkg/jobqueue"
	"github.com/attorneymap/attorneymap/internal/pkg/limits"
)

type fakeScanner struct {
	result *limits.ScanResult
	err    error
}

func (f *fakeScanner) Scan(context.Context) (*limits.ScanResult, error) {
	return f.result, f.err
}

type fakeScanQueue struct {
	enqueued []string
	latest   *jobqueue.StoredScan
	progress *jobqueue.ScanProgress
}

func (f *fakeScanQueue) EnqueueLimitScan(trigger string) (*jobqueue.Job, error) {
	f.enqueued = append(f.enqueued, trigger)
	return &jobqueue.Job{ID: "scan-1", Type: jobqueue.JobTypeLimitScan}, nil
}

func (f *fakeScanQueue) LatestScan(context.Context) (*jobqueue.StoredScan, error) {
	return f.latest, nil
}

func (f *fakeScanQueue) ScanProgress(context.Context) (*jobqueue.ScanProgress, error) {
	return f.progress, nil
}

func sampleScan() *limits.ScanResult {
	limit := 3
	return &limits.ScanResult{
		StartedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FinishedAt:     time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC),
		RegionsChecked: 1,
		Violations:     1,
		Statuses: []limits.RegionTierStatus{
			limits.NewStatus(models.Region{ID: 1, Code: 523, Name: "Burlington"}, models.TierPremium, 4, limits.Limit{Max: &limit, Scope: models.ScopeGlobal}),
		},
	}
}

func newScanApp(scanner *fakeScanner, queue *fakeScanQueue) *fiber.App {
	sc := NewAdminScanController(func() jobqueue.LimitScanner { return scanner }, queue, time.Second)
	app := fiber.New()
	app.Post("/limits/scan", sc.HandleScan)
	app.Get("/limits/scan.xlsx", sc.HandleExport)
	app.Post("/limits/scan/jobs", sc.HandleEnqueue)
	app.Get("/limits/scan/latest", sc.HandleLatest)
	app.Get("/limits/scan/progress", sc.HandleProgress)
	return app
}

func TestAdminScan_ReturnsResult(t *testing.T) {
	app := newScanApp(&fakeScanner{result: sampleScan()}, &fakeScanQueue{})

	status, body := doJSON(t, app, fiber.MethodPost, "/limits/scan", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["partial"])
	result := body["result"].(map[string]any)
	assert.EqualValues(t, 1, result["violations"])
	statuses := result["statuses"].([]any)
	require.Len(t, statuses, 1)
	assert.EqualValues(t, 1, statuses[0].(map[string]any)["over_by"])
}

func TestAdminScan_PartialOnTimeout(t *testing.T) {
	app := newScanApp(&fakeScanner{result: sampleScan(), err: context.DeadlineExceeded}, &fakeScanQueue{})

	status, body := doJSON(t, app, fiber.MethodPost, "/limits/scan", "")
	assert.Equal(t, fiber.StatusPartialContent, status)
	assert.Equal(t, true, body["partial"])
	assert.Contains(t, body["message"], "timed out")
}

func TestAdminScan_FailedWithoutResult(t *testing.T) {
	app := newScanApp(&fakeScanner{err: context.Canceled}, &fakeScanQueue{})

	status, _ := doJSON(t, app, fiber.MethodPost, "/limits/scan", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestAdminScan_ExportXLSX(t *testing.T) {
	app := newScanApp(&fakeScanner{result: sampleScan()}, &fakeScanQueue{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/limits/scan.xlsx", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "limit-scan-2026-01-02.xlsx")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]), "xlsx is a zip container")
}

func TestAdminScan_BackgroundJob(t *testing.T) {
	queue := &fakeScanQueue{}
	app := newScanApp(&fakeScanner{}, queue)

	status, _ := doJSON(t, app, fiber.MethodGet, "/limits/scan/latest", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body := doJSON(t, app, fiber.MethodPost, "/limits/scan/jobs", "")
	require.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, "scan-1", body["job_id"])
	assert.Equal(t, []string{"admin"}, queue.enqueued)

	queue.latest = &jobqueue.StoredScan{JobID: "scan-1", Trigger: "admin", Result: sampleScan()}
	status, body = doJSON(t, app, fiber.MethodGet, "/limits/scan/latest", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "scan-1", body["job_id"])
}

func TestAdminScan_Progress(t *testing.T) {
	queue := &fakeScanQueue{}
	app := newScanApp(&fakeScanner{}, queue)

	status, _ := doJSON(t, app, fiber.MethodGet, "/limits/scan/progress", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	queue.progress = &jobqueue.ScanProgress{JobID: "scan-1", Statuses: sampleScan().Statuses}
	status, body := doJSON(t, app, fiber.MethodGet, "/limits/scan/progress", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "scan-1", body["job_id"])
	assert.Len(t, body["statuses"], 1)
}
