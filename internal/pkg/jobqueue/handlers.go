package jobqueue

import (
	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/dma"
	"github.com/attorneymap/attorneymap/internal/pkg/limits"
)

// RegisterDefaultHandlers wires the import and scan handlers to the GORM
// repositories. archiver and lookup may be nil.
func RegisterDefaultHandlers(q *Queue, repos *repository.Repositories, archiver Archiver, lookup dma.LookupFunc, newLock dma.LockFactory) {
	var reportArchiver dma.Archiver
	if archiver != nil {
		reportArchiver = archiver
	}

	q.SetStuckAfter(JobTypeDMAImport, ImportStuckAfter)
	q.SetStuckAfter(JobTypeLimitScan, ScanStuckAfter)

	q.Handle(JobTypeDMAImport, NewDMAImportHandler(ImportDeps{
		Importer:    dma.NewImporterFromRepositories(repos, newLock),
		Reports:     dma.NewReportWriter(repos.ImportRun, dma.DefaultReportDir, reportArchiver),
		Runs:        repos.ImportRun,
		Zips:        repos.ZipCode,
		Lookup:      lookup,
		ErrorLogCap: func() int { return models.GetAppSettings().GetLookupErrorLogCap() },
	}))

	q.Handle(JobTypeLimitScan, q.NewLimitScanHandler(ScanDeps{
		NewScanner: ProgressScannerFactory(repos),
		ReportDir:  dma.DefaultReportDir,
		Archiver:   archiver,
	}))
}

// ScannerFactory builds scanners from the current worker and batch settings,
// so settings changes apply to the next scan.
func ScannerFactory(repos *repository.Repositories) func() LimitScanner {
	build := ProgressScannerFactory(repos)
	return func() LimitScanner { return build(nil) }
}

// ProgressScannerFactory is ScannerFactory for scans that report each
// finished pair as it completes.
func ProgressScannerFactory(repos *repository.Repositories) ScannerBuilder {
	return func(onStatus func(limits.RegionTierStatus)) LimitScanner {
		settings := models.GetAppSettings()
		return limits.NewScannerFromRepositories(repos, limits.Options{
			Workers:   settings.GetLimitScanWorkers(),
			BatchSize: settings.GetLimitScanBatchSize(),
			OnStatus:  onStatus,
		})
	}
}
