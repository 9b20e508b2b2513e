package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	apiv1 "github.com/attorneymap/attorneymap/internal/api/v1"
	"github.com/attorneymap/attorneymap/internal/pkg/bootstrap"
	"github.com/attorneymap/attorneymap/internal/pkg/dma"
	"github.com/attorneymap/attorneymap/internal/pkg/env"
	"github.com/attorneymap/attorneymap/internal/pkg/jobqueue"
	"github.com/attorneymap/attorneymap/internal/pkg/limits"
	"github.com/attorneymap/attorneymap/internal/pkg/metrics/counter"
	"github.com/attorneymap/attorneymap/internal/pkg/router"
)

const counterFlushInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, manager := NewApplication(ctx)
	go flushCounters(ctx)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		manager.Stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication(ctx context.Context) (*fiber.App, *jobqueue.Manager) {
	services := bootstrap.Setup(ctx)
	repos := services.Repos

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/attorneymap to project root
		"../../../", // Fallback
	}

	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	openAPIPath := basePath + "public/docs/v1/openapi.yml"
	if _, err := apiv1.LoadSpec(ctx, openAPIPath); err != nil {
		log.Printf("Warning: %v", err)
	}

	// background jobs
	manager := jobqueue.GetManager()
	jobqueue.RegisterDefaultHandlers(manager.GetQueue(), repos, services.Archiver(), services.Lookup, services.NewLock)
	manager.Start()

	app := fiber.New(fiber.Config{
		BodyLimit: 64 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: openAPIPath,
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	scanTimeout, err := time.ParseDuration(env.GetEnv("LIMIT_SCAN_TIMEOUT", "60s"))
	if err != nil {
		scanTimeout = 60 * time.Second
	}

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Repos:         repos,
		Assigner:      dma.NewMapper(repos.ZipCode, repos.ZipRegionMapping),
		Limits:        limits.NewResolverFromRepositories(repos),
		Recorder:      dma.NewReportWriter(repos.ImportRun, dma.DefaultReportDir, services.Archiver()),
		Imports:       manager.GetQueue(),
		Scans:         manager,
		Jobs:          manager.GetQueue(),
		NewScanner:    jobqueue.ScannerFactory(repos),
		OnArticleView: counter.AddArticleView,
		UploadDir:     env.GetEnv("UPLOAD_DIR", "data/uploads"),
		LookupEnabled: services.Lookup != nil,
		AdminKeyHash:  env.GetEnv("ADMIN_API_KEY_HASH", ""),
		ScanTimeout:   scanTimeout,
	})

	return app, manager
}

// flushCounters writes buffered article views to MySQL until ctx ends.
func flushCounters(ctx context.Context) {
	ticker := time.NewTicker(counterFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := counter.FlushAll(context.Background()); err != nil {
				log.Printf("Failed to flush counters: %v", err)
			}
			return
		case <-ticker.C:
			if err := counter.FlushAll(ctx); err != nil {
				log.Printf("Failed to flush counters: %v", err)
			}
		}
	}
}
