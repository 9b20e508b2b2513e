package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/internal/pkg/bootstrap"
	"github.com/attorneymap/attorneymap/internal/pkg/dma"
	"github.com/attorneymap/attorneymap/internal/pkg/jobqueue"
	"github.com/attorneymap/attorneymap/internal/pkg/limits"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	switch command {
	case "csv", "lookup", "backup", "clear", "scan":
	default:
		printUsage()
		os.Exit(1)
	}

	services := bootstrap.Setup(ctx)
	repos := services.Repos

	var err error
	switch command {
	case "csv":
		if len(os.Args) < 3 {
			log.Fatalf("Please pass the path of the CSV file")
		}
		var src *dma.DelimitedSource
		src, err = dma.OpenDelimitedFile(os.Args[2])
		if err != nil {
			log.Fatalf("Failed to open %s: %v", os.Args[2], err)
		}
		err = runImport(ctx, services, src)

	case "lookup":
		if services.Lookup == nil {
			log.Fatalf("DMA_LOOKUP_URL is not set")
		}
		src := dma.NewLookupSource(repos.ZipCode, services.Lookup, "lookup", models.GetAppSettings().GetLookupErrorLogCap())
		err = runImport(ctx, services, src)

	case "backup":
		maintenance := dma.NewMaintenance(repos.Region, repos.ZipRegionMapping, dma.DefaultBackupDir, services.Archiver(), services.NewLock)
		var path string
		var snap *dma.Snapshot
		path, snap, err = maintenance.Backup(ctx)
		if err == nil {
			printJSON(map[string]any{"backup_path": path, "regions": len(snap.Regions), "mappings": len(snap.Mappings)})
		}

	case "clear":
		maintenance := dma.NewMaintenance(repos.Region, repos.ZipRegionMapping, dma.DefaultBackupDir, services.Archiver(), services.NewLock)
		var result *dma.ClearResult
		result, err = maintenance.Clear(ctx)
		if result != nil {
			printJSON(result)
		}

	case "scan":
		out := ""
		if len(os.Args) >= 3 {
			out = os.Args[2]
		}
		err = runScan(ctx, jobqueue.ScannerFactory(repos)(), out)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}
}

// runImport runs src synchronously and records it like a queued run.
func runImport(ctx context.Context, services *bootstrap.Services, src dma.Source) error {
	repos := services.Repos
	reports := dma.NewReportWriter(repos.ImportRun, dma.DefaultReportDir, services.Archiver())

	run, err := reports.Begin(ctx, src.Name(), src.Ref())
	if err != nil {
		return err
	}
	if err := reports.MarkRunning(ctx, run); err != nil {
		return err
	}

	importer := dma.NewImporterFromRepositories(repos, services.NewLock)
	issues, runErr := importer.Run(ctx, src)
	if err := reports.Finish(ctx, run, issues, runErr); err != nil {
		log.Printf("Failed to record import run %s: %v", run.UUID, err)
	}

	printJSON(map[string]any{"run_id": run.ID, "run_uuid": run.UUID, "status": run.Status, "report_path": run.ReportPath, "summary": issues.Summary()})
	return runErr
}

// runScan prints the scan result and writes the spreadsheet to out if given.
// An interrupted scan still prints the pairs checked so far.
func runScan(ctx context.Context, scanner jobqueue.LimitScanner, out string) error {
	result, scanErr := scanner.Scan(ctx)
	if result == nil {
		return scanErr
	}
	printJSON(result)

	if out != "" {
		sheet, err := limits.ExportXLSX(result)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(out, sheet, 0o644); err != nil {
			return err
		}
		log.Printf("Spreadsheet written to %s", out)
	}
	return scanErr
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Failed to encode output: %v", err)
		return
	}
	fmt.Println(string(data))
}

func printUsage() {
	fmt.Println("Usage: go run ./cmd/dmaimport [command]")
	fmt.Println("Commands:")
	fmt.Println("  csv <path>       - import a DMA CSV/TSV file")
	fmt.Println("  lookup           - resolve every known zip code via DMA_LOOKUP_URL")
	fmt.Println("  backup           - write a JSON snapshot of regions and mappings")
	fmt.Println("  clear            - back up, then delete all mappings and regions")
	fmt.Println("  scan [out.xlsx]  - report subscription limit violations")
}
