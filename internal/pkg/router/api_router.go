package router

import (
	apiv1 "github.com/attorneymap/attorneymap/internal/api/v1"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/attorneymap/attorneymap/app/controllers"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	public := controllers.NewPublicController(h.deps.Repos.Region, h.deps.Repos.ZipRegionMapping, h.deps.Repos.Article, h.deps.OnArticleView)
	directory := controllers.NewDirectoryController(h.deps.Repos)
	apiServer := apiv1.NewAPIServer(public, directory)
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
