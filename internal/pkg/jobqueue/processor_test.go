package jobqueue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/internal/pkg/dma"
	"github.com/attorneymap/attorneymap/internal/pkg/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	err    error
	source dma.Source
	rows   []dma.Row
	calls  int
	// during runs inside Run, e.g. to simulate another delivery.
	during func()
}

func (f *fakeRunner) Run(ctx context.Context, src dma.Source) (*dma.ImportIssues, error) {
	f.calls++
	if f.during != nil {
		f.during()
	}
	f.source = src
	issues := dma.NewImportIssues(src.Name(), src.Ref())
	rows, err := src.Rows(ctx, issues)
	if err != nil {
		return issues, err
	}
	f.rows = rows
	return issues, f.err
}

type fakeRecorder struct {
	statuses []models.ImportStatus
	finished *dma.ImportIssues
	finalErr error
}

func (f *fakeRecorder) MarkRunning(_ context.Context, run *models.ImportRun) error {
	run.Status = models.ImportStatusRunning
	f.statuses = append(f.statuses, run.Status)
	return nil
}

func (f *fakeRecorder) MarkQueued(_ context.Context, run *models.ImportRun, reason string) error {
	run.Status = models.ImportStatusQueued
	run.Error = reason
	f.statuses = append(f.statuses, run.Status)
	return nil
}

func (f *fakeRecorder) Finish(_ context.Context, run *models.ImportRun, issues *dma.ImportIssues, runErr error) error {
	run.Status = models.ImportStatusCompleted
	if runErr != nil {
		run.Status = models.ImportStatusFailed
	}
	f.statuses = append(f.statuses, run.Status)
	f.finished = issues
	f.finalErr = runErr
	return nil
}

type fakeRunLoader map[uint]*models.ImportRun

func (f fakeRunLoader) GetByID(_ context.Context, id uint) (*models.ImportRun, error) {
	run, ok := f[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return run, nil
}

type fakeZipLister []models.ZipCode

func (f fakeZipLister) ListPage(_ context.Context, afterID uint, limit int) ([]models.ZipCode, error) {
	var out []models.ZipCode
	for _, z := range f {
		if z.ID > afterID && len(out) < limit {
			out = append(out, z)
		}
	}
	return out, nil
}

func importJob(run *models.ImportRun, path string) *Job {
	return &Job{
		ID:      "job-1",
		Type:    JobTypeDMAImport,
		Payload: DMAImportJobPayload{RunID: run.ID, RunUUID: run.UUID, Source: run.Source, FilePath: path}.ToMap(),
	}
}

func writeUpload(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dma.tsv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDMAImportHandler_CSVCompletesAndRemovesUpload(t *testing.T) {
	path := writeUpload(t, "zip\tcode\tname\n10001\t501\tNew York\n")
	run := &models.ImportRun{ID: 1, UUID: "run-1", Source: dma.SourceCSV}
	runner := &fakeRunner{}
	recorder := &fakeRecorder{}

	handler := NewDMAImportHandler(ImportDeps{Importer: runner, Reports: recorder, Runs: fakeRunLoader{1: run}})
	require.NoError(t, handler(context.Background(), importJob(run, path)))

	assert.Equal(t, []models.ImportStatus{models.ImportStatusRunning, models.ImportStatusCompleted}, recorder.statuses)
	require.Len(t, runner.rows, 1)
	assert.Equal(t, "10001", runner.rows[0].Zip)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "upload should be removed after a successful run")
}

func TestDMAImportHandler_BusyLockRequeues(t *testing.T) {
	path := writeUpload(t, "zip\tcode\tname\n10001\t501\tNew York\n")
	run := &models.ImportRun{ID: 1, UUID: "run-1", Source: dma.SourceCSV}
	recorder := &fakeRecorder{}

	handler := NewDMAImportHandler(ImportDeps{
		Importer: &fakeRunner{err: dma.ErrImportInProgress},
		Reports:  recorder,
		Runs:     fakeRunLoader{1: run},
	})
	err := handler(context.Background(), importJob(run, path))

	assert.ErrorIs(t, err, dma.ErrImportInProgress)
	assert.Equal(t, models.ImportStatusQueued, run.Status)
	assert.Nil(t, recorder.finished)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "upload must survive until the run completes")
}

func TestDMAImportHandler_RedeliveryKeepsFinishedRun(t *testing.T) {
	path := writeUpload(t, "zip\tcode\tname\n10001\t501\tNew York\n")
	run := &models.ImportRun{ID: 1, UUID: "run-1", Source: dma.SourceCSV}
	runner := &fakeRunner{}
	recorder := &fakeRecorder{}
	handler := NewDMAImportHandler(ImportDeps{Importer: runner, Reports: recorder, Runs: fakeRunLoader{1: run}})
	job := importJob(run, path)

	require.NoError(t, handler(context.Background(), job))
	report := recorder.finished
	require.NotNil(t, report)

	// The upload is gone now; a second delivery must not fail the run.
	require.NoError(t, handler(context.Background(), job))

	assert.Equal(t, models.ImportStatusCompleted, run.Status)
	assert.Equal(t, []models.ImportStatus{models.ImportStatusRunning, models.ImportStatusCompleted}, recorder.statuses)
	assert.Same(t, report, recorder.finished)
	assert.Equal(t, 1, runner.calls)
}

func TestDMAImportHandler_RedeliveryWhileRunningLeavesRunAlone(t *testing.T) {
	path := writeUpload(t, "zip\tcode\tname\n10001\t501\tNew York\n")
	run := &models.ImportRun{ID: 1, UUID: "run-1", Source: dma.SourceCSV, Status: models.ImportStatusRunning}
	recorder := &fakeRecorder{}

	handler := NewDMAImportHandler(ImportDeps{
		Importer: &fakeRunner{err: dma.ErrImportInProgress},
		Reports:  recorder,
		Runs:     fakeRunLoader{1: run},
	})
	err := handler(context.Background(), importJob(run, path))

	assert.ErrorIs(t, err, dma.ErrImportInProgress)
	assert.Equal(t, models.ImportStatusRunning, run.Status)
	assert.Empty(t, recorder.statuses, "the live run must not be requeued or finished")
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestDMAImportHandler_ResumesAbandonedRun(t *testing.T) {
	path := writeUpload(t, "zip\tcode\tname\n10001\t501\tNew York\n")
	run := &models.ImportRun{ID: 1, UUID: "run-1", Source: dma.SourceCSV, Status: models.ImportStatusRunning}
	recorder := &fakeRecorder{}

	handler := NewDMAImportHandler(ImportDeps{Importer: &fakeRunner{}, Reports: recorder, Runs: fakeRunLoader{1: run}})
	require.NoError(t, handler(context.Background(), importJob(run, path)))

	assert.Equal(t, []models.ImportStatus{models.ImportStatusCompleted}, recorder.statuses)
}

func TestDMAImportHandler_ResumedRunWithoutUploadRetries(t *testing.T) {
	run := &models.ImportRun{ID: 1, UUID: "run-1", Source: dma.SourceCSV, Status: models.ImportStatusRunning}
	recorder := &fakeRecorder{}

	handler := NewDMAImportHandler(ImportDeps{Importer: &fakeRunner{}, Reports: recorder, Runs: fakeRunLoader{1: run}})
	err := handler(context.Background(), importJob(run, filepath.Join(t.TempDir(), "gone.tsv")))

	assert.Error(t, err)
	assert.Equal(t, models.ImportStatusRunning, run.Status)
	assert.Empty(t, recorder.statuses)
}

func TestDMAImportHandler_FinishedElsewhereDuringRun(t *testing.T) {
	path := writeUpload(t, "zip\tcode\tname\n10001\t501\tNew York\n")
	run := &models.ImportRun{ID: 1, UUID: "run-1", Source: dma.SourceCSV, Status: models.ImportStatusRunning}
	recorder := &fakeRecorder{}
	runner := &fakeRunner{during: func() { run.Status = models.ImportStatusCompleted }}

	handler := NewDMAImportHandler(ImportDeps{Importer: runner, Reports: recorder, Runs: fakeRunLoader{1: run}})
	require.NoError(t, handler(context.Background(), importJob(run, path)))

	assert.Equal(t, models.ImportStatusCompleted, run.Status)
	assert.Nil(t, recorder.finished)
}

func TestDMAImportHandler_PersistenceFailureIsRecorded(t *testing.T) {
	path := writeUpload(t, "zip\tcode\tname\n10001\t501\tNew York\n")
	run := &models.ImportRun{ID: 1, UUID: "run-1", Source: dma.SourceCSV}
	recorder := &fakeRecorder{}

	handler := NewDMAImportHandler(ImportDeps{
		Importer: &fakeRunner{err: errors.New("connection reset")},
		Reports:  recorder,
		Runs:     fakeRunLoader{1: run},
	})
	require.NoError(t, handler(context.Background(), importJob(run, path)))

	assert.Equal(t, models.ImportStatusFailed, run.Status)
	require.NotNil(t, recorder.finished)
	assert.EqualError(t, recorder.finalErr, "connection reset")
}

func TestDMAImportHandler_LookupWithoutServiceFails(t *testing.T) {
	run := &models.ImportRun{ID: 2, UUID: "run-2", Source: dma.SourceLookup}
	recorder := &fakeRecorder{}

	handler := NewDMAImportHandler(ImportDeps{Importer: &fakeRunner{}, Reports: recorder, Runs: fakeRunLoader{2: run}})
	require.NoError(t, handler(context.Background(), importJob(run, "")))

	assert.Equal(t, models.ImportStatusFailed, run.Status)
	require.NotNil(t, recorder.finished, "a report is written even when the run cannot start")
	assert.Error(t, recorder.finalErr)
}

func TestDMAImportHandler_LookupSource(t *testing.T) {
	run := &models.ImportRun{ID: 3, UUID: "run-3", Source: dma.SourceLookup}
	runner := &fakeRunner{}
	lookup := func(_ context.Context, zip string) (int, error) {
		if zip == "10001" {
			return 501, nil
		}
		return 0, dma.ErrNoRegion
	}

	handler := NewDMAImportHandler(ImportDeps{
		Importer:    runner,
		Reports:     &fakeRecorder{},
		Runs:        fakeRunLoader{3: run},
		Zips:        fakeZipLister{{ID: 1, Value: "10001"}, {ID: 2, Value: "99999"}},
		Lookup:      lookup,
		ErrorLogCap: func() int { return 1 },
	})
	require.NoError(t, handler(context.Background(), importJob(run, "")))

	assert.Equal(t, dma.SourceLookup, runner.source.Name())
	require.Len(t, runner.rows, 1)
	assert.Equal(t, 501, runner.rows[0].RegionCode)
	assert.True(t, runner.rows[0].Placeholder)
}

type fakeScanner struct {
	result *limits.ScanResult
	err    error
}

func (f fakeScanner) Scan(context.Context) (*limits.ScanResult, error) {
	return f.result, f.err
}

type recordingArchiver struct {
	kinds []string
}

func (a *recordingArchiver) Archive(_ context.Context, kind, filename string, _ []byte) (string, error) {
	a.kinds = append(a.kinds, kind)
	return kind + "/" + filename, nil
}

func TestLimitScanHandler_StoresLatest(t *testing.T) {
	q, _ := newTestQueue(t, 1)
	ctx := context.Background()
	limit := 3
	result := &limits.ScanResult{
		StartedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		Statuses: []limits.RegionTierStatus{
			limits.NewStatus(models.Region{ID: 1, Code: 501, Name: "New York"}, models.TierPremium, 4, limits.Limit{Max: &limit, Scope: models.ScopeGlobal}),
		},
		Violations: 1,
	}
	archiver := &recordingArchiver{}
	dir := t.TempDir()

	handler := q.NewLimitScanHandler(ScanDeps{
		NewScanner: func(func(limits.RegionTierStatus)) LimitScanner { return fakeScanner{result: result} },
		ReportDir:  dir,
		Archiver:   archiver,
	})
	job := &Job{ID: "scan-1", Type: JobTypeLimitScan, Payload: LimitScanJobPayload{Trigger: "admin", Archive: true}.ToMap()}
	require.NoError(t, handler(ctx, job))

	stored, err := q.LatestScan(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "scan-1", stored.JobID)
	assert.False(t, stored.Partial)
	assert.Equal(t, 1, stored.Result.Violations)
	assert.FileExists(t, stored.ReportPath)
	assert.Equal(t, filepath.Join(dir, "limit-scan-2026-10-18T09-00-00Z.xlsx"), stored.ReportPath)
	assert.Equal(t, []string{"reports/limit-scan"}, archiver.kinds)
}

func TestLimitScanHandler_PartialAndFailedScans(t *testing.T) {
	q, _ := newTestQueue(t, 1)
	ctx := context.Background()

	partial := q.NewLimitScanHandler(ScanDeps{
		NewScanner: func(func(limits.RegionTierStatus)) LimitScanner {
			return fakeScanner{result: &limits.ScanResult{StartedAt: time.Now()}, err: context.Canceled}
		},
		ReportDir: t.TempDir(),
	})
	require.NoError(t, partial(ctx, &Job{ID: "scan-2", Payload: LimitScanJobPayload{}.ToMap()}))
	stored, err := q.LatestScan(ctx)
	require.NoError(t, err)
	assert.True(t, stored.Partial)

	failed := q.NewLimitScanHandler(ScanDeps{
		NewScanner: func(func(limits.RegionTierStatus)) LimitScanner { return fakeScanner{err: errors.New("db down")} },
	})
	assert.Error(t, failed(ctx, &Job{ID: "scan-3", Payload: LimitScanJobPayload{}.ToMap()}))
}

type streamingScanner struct {
	statuses []limits.RegionTierStatus
	onStatus func(limits.RegionTierStatus)
	err      error
}

func (f streamingScanner) Scan(context.Context) (*limits.ScanResult, error) {
	for _, st := range f.statuses {
		f.onStatus(st)
	}
	return &limits.ScanResult{StartedAt: time.Now(), Statuses: f.statuses}, f.err
}

func TestLimitScanHandler_RecordsProgress(t *testing.T) {
	q, _ := newTestQueue(t, 1)
	ctx := context.Background()
	limit := 3
	statuses := []limits.RegionTierStatus{
		limits.NewStatus(models.Region{ID: 1, Code: 501, Name: "New York"}, models.TierPremium, 4, limits.Limit{Max: &limit, Scope: models.ScopeGlobal}),
		limits.NewStatus(models.Region{ID: 2, Code: 803, Name: "Los Angeles"}, models.TierPremium, 1, limits.Limit{Max: &limit, Scope: models.ScopeGlobal}),
	}

	progress, err := q.ScanProgress(ctx)
	require.NoError(t, err)
	assert.Nil(t, progress)

	handler := q.NewLimitScanHandler(ScanDeps{
		NewScanner: func(onStatus func(limits.RegionTierStatus)) LimitScanner {
			return streamingScanner{statuses: statuses, onStatus: onStatus, err: context.Canceled}
		},
		ReportDir: t.TempDir(),
	})
	require.NoError(t, handler(ctx, &Job{ID: "scan-4", Payload: LimitScanJobPayload{}.ToMap()}))

	progress, err = q.ScanProgress(ctx)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, "scan-4", progress.JobID)
	require.Len(t, progress.Statuses, 2)
	assert.Equal(t, "New York", progress.Statuses[0].RegionName)
	assert.True(t, progress.Statuses[0].IsViolation)

	// The next scan starts from an empty list.
	next := q.NewLimitScanHandler(ScanDeps{
		NewScanner: func(onStatus func(limits.RegionTierStatus)) LimitScanner {
			return streamingScanner{statuses: statuses[:1], onStatus: onStatus}
		},
		ReportDir: t.TempDir(),
	})
	require.NoError(t, next(ctx, &Job{ID: "scan-5", Payload: LimitScanJobPayload{}.ToMap()}))
	progress, err = q.ScanProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, "scan-5", progress.JobID)
	assert.Len(t, progress.Statuses, 1)
}

func TestLatestScan_Empty(t *testing.T) {
	q, _ := newTestQueue(t, 1)
	stored, err := q.LatestScan(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)
}
