package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/cache"
	"github.com/attorneymap/attorneymap/internal/pkg/database"
	"github.com/attorneymap/attorneymap/internal/pkg/dma"
	"github.com/attorneymap/attorneymap/internal/pkg/env"
	"github.com/attorneymap/attorneymap/internal/pkg/s3backup"
)

// Services are the process-wide dependencies shared by the server and the
// operator CLI.
type Services struct {
	Repos   *repository.Repositories
	S3      *s3backup.Client
	Lookup  dma.LookupFunc
	NewLock dma.LockFactory
}

// Setup loads the env file and connects MySQL, Redis and, when configured,
// S3 and the zip lookup service.
func Setup(ctx context.Context) *Services {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())

	if err := models.LoadSettings(database.GetDB()); err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
	}

	cache.SetupCache()

	s := &Services{
		Repos:   repository.GetGlobalRepositories(),
		NewLock: dma.NewLockFactory(cache.ReachableClient(), database.SQLDB()),
	}

	s3Config, err := s3backup.LoadConfig()
	if err != nil {
		log.Printf("Invalid S3 configuration, archiving disabled: %v", err)
	} else if s3Config.IsEnabled() {
		client, err := s3backup.NewClient(ctx, s3Config)
		if err != nil {
			log.Printf("Failed to initialize S3 client, archiving disabled: %v", err)
		} else {
			s.S3 = client
		}
	}

	if url := env.GetEnv("DMA_LOOKUP_URL", ""); url != "" {
		timeout, err := time.ParseDuration(env.GetEnv("DMA_LOOKUP_TIMEOUT", "10s"))
		if err != nil {
			timeout = 10 * time.Second
		}
		s.Lookup = dma.NewHTTPLookup(url, timeout).Lookup
		log.Printf("Zip lookup service configured: %s", url)
	}

	return s
}

// Archiver returns the S3 client as an archiver, or a nil interface when
// archiving is disabled.
func (s *Services) Archiver() dma.Archiver {
	if s.S3 == nil {
		return nil
	}
	return s.S3
}
