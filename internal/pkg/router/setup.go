package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/attorneymap/attorneymap/app/controllers"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/jobqueue"
)

// Router installs a group of routes on the app
type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies carries the services the routes are wired to
type Dependencies struct {
	Repos         *repository.Repositories
	Assigner      controllers.ZipAssigner
	Limits        controllers.LimitAdmin
	Recorder      controllers.ImportRunRecorder
	Imports       controllers.ImportEnqueuer
	Scans         controllers.ScanQueue
	Jobs          controllers.QueueInspector
	NewScanner    func() jobqueue.LimitScanner
	OnArticleView func(articleID uint64) error
	UploadDir     string
	LookupEnabled bool
	AdminKeyHash  string
	ScanTimeout   time.Duration
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewApiRouter(deps), NewAdminRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
