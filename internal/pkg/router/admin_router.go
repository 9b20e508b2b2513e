package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/attorneymap/attorneymap/app/controllers"
	"github.com/attorneymap/attorneymap/internal/pkg/middleware"
)

type AdminRouter struct {
	deps Dependencies
}

func (h AdminRouter) InstallRouter(app *fiber.App) {
	d := h.deps
	regions := controllers.NewAdminRegionController(d.Repos.Region, d.Repos.ZipRegionMapping, d.Assigner)
	imports := controllers.NewAdminImportController(d.Repos.ImportRun, d.Recorder, d.Imports, d.UploadDir, d.LookupEnabled)
	limits := controllers.NewAdminLimitController(d.Limits)
	scans := controllers.NewAdminScanController(d.NewScanner, d.Scans, d.ScanTimeout)
	lawyers := controllers.NewAdminLawyerController(d.Repos.Lawyer, d.Repos.LawFirm)
	firms := controllers.NewAdminLawFirmController(d.Repos.LawFirm)
	cities := controllers.NewAdminCityController(d.Repos.City)
	articles := controllers.NewAdminArticleController(d.Repos.Article)
	settings := controllers.NewAdminSettingsController(d.Repos.Setting)
	jobs := controllers.NewAdminQueueController(d.Jobs)

	adminGroup := app.Group("/admin/api", middleware.AdminKeyMiddleware(d.AdminKeyHash))

	// Regions and zip assignment
	adminGroup.Get("/regions", regions.HandleList)
	adminGroup.Post("/regions", regions.HandleCreate)
	adminGroup.Get("/regions/:id", regions.HandleGet)
	adminGroup.Put("/regions/:id", regions.HandleUpdate)
	adminGroup.Delete("/regions/:id", regions.HandleDelete)
	adminGroup.Get("/regions/:id/zip-codes", regions.HandleListZips)
	adminGroup.Post("/regions/:id/zip-codes", regions.HandleAssignZip)
	adminGroup.Delete("/zip-codes/:zip/region", regions.HandleUnassignZip)

	// Directory: lawyers, law firms, cities
	adminGroup.Get("/lawyers", lawyers.HandleList)
	adminGroup.Post("/lawyers", lawyers.HandleCreate)
	adminGroup.Get("/lawyers/:id", lawyers.HandleGet)
	adminGroup.Put("/lawyers/:id", lawyers.HandleUpdate)
	adminGroup.Delete("/lawyers/:id", lawyers.HandleDelete)
	adminGroup.Get("/law-firms", firms.HandleList)
	adminGroup.Post("/law-firms", firms.HandleCreate)
	adminGroup.Get("/law-firms/:id", firms.HandleGet)
	adminGroup.Put("/law-firms/:id", firms.HandleUpdate)
	adminGroup.Delete("/law-firms/:id", firms.HandleDelete)
	adminGroup.Get("/cities", cities.HandleList)
	adminGroup.Post("/cities", cities.HandleCreate)
	adminGroup.Get("/cities/:id", cities.HandleGet)
	adminGroup.Put("/cities/:id", cities.HandleUpdate)
	adminGroup.Delete("/cities/:id", cities.HandleDelete)
	adminGroup.Post("/cities/:id/zip-codes", cities.HandleAssignZip)
	adminGroup.Delete("/zip-codes/:zip/city", cities.HandleUnassignZip)

	// DMA imports
	adminGroup.Post("/imports/csv", imports.HandleUploadCSV)
	adminGroup.Post("/imports/lookup", imports.HandleStartLookup)
	adminGroup.Get("/imports", imports.HandleList)
	adminGroup.Get("/imports/:id", imports.HandleGet)

	// Subscription limits
	adminGroup.Get("/subscription-limits", limits.HandleList)
	adminGroup.Get("/subscription-limits/resolve", limits.HandleResolve)
	adminGroup.Put("/subscription-limits/global", limits.HandleReplaceGlobal)
	adminGroup.Delete("/subscription-limits/global", limits.HandleDeleteGlobal)
	adminGroup.Put("/subscription-limits/region/:id", limits.HandleReplaceRegion)
	adminGroup.Delete("/subscription-limits/region/:id", limits.HandleDeleteRegion)

	// Limit-violation scans
	adminGroup.Post("/limits/scan", scans.HandleScan)
	adminGroup.Get("/limits/scan.xlsx", scans.HandleExport)
	adminGroup.Post("/limits/scan/jobs", scans.HandleEnqueue)
	adminGroup.Get("/limits/scan/latest", scans.HandleLatest)
	adminGroup.Get("/limits/scan/progress", scans.HandleProgress)

	// Job queue monitor
	adminGroup.Get("/jobs", jobs.HandleStats)
	adminGroup.Get("/jobs/:id", jobs.HandleGetJob)

	// Articles
	adminGroup.Get("/articles", articles.HandleList)
	adminGroup.Post("/articles", articles.HandleCreate)
	adminGroup.Get("/articles/:id", articles.HandleGet)
	adminGroup.Put("/articles/:id", articles.HandleUpdate)
	adminGroup.Delete("/articles/:id", articles.HandleDelete)

	// Settings
	adminGroup.Get("/settings", settings.HandleGet)
	adminGroup.Put("/settings", settings.HandleUpdate)
}

func NewAdminRouter(deps Dependencies) *AdminRouter {
	return &AdminRouter{deps: deps}
}
