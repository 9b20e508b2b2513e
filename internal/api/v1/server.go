package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// Pong defines model for Pong.
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface represents all server handlers of the public v1 API.
// Paths and parameters mirror public/docs/v1/openapi.yml.
type ServerInterface interface {
	// (GET /ping)
	GetPing(c *fiber.Ctx) error
	// (GET /regions/{slug})
	GetRegion(c *fiber.Ctx, slug string) error
	// (GET /zip-codes/{zip}/region)
	GetZipRegion(c *fiber.Ctx, zip string) error
	// (GET /articles)
	ListArticles(c *fiber.Ctx) error
	// (GET /articles/{slug})
	GetArticle(c *fiber.Ctx, slug string) error
	// (GET /regions/{slug}/lawyers)
	ListRegionLawyers(c *fiber.Ctx, slug string) error
	// (GET /lawyers)
	ListLawyers(c *fiber.Ctx) error
	// (GET /lawyers/{slug})
	GetLawyer(c *fiber.Ctx, slug string) error
	// (GET /law-firms)
	ListLawFirms(c *fiber.Ctx) error
	// (GET /law-firms/{slug})
	GetLawFirm(c *fiber.Ctx, slug string) error
	// (GET /cities)
	ListCities(c *fiber.Ctx) error
	// (GET /cities/{slug})
	GetCity(c *fiber.Ctx, slug string) error
}

// ServerInterfaceWrapper converts route parameters to handler arguments.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

type MiddlewareFunc fiber.Handler

func requiredParam(c *fiber.Ctx, name string) (string, error) {
	value := c.Params(name)
	if value == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "Missing required parameter "+name)
	}
	return value, nil
}

// GetPing operation middleware
func (siw *ServerInterfaceWrapper) GetPing(c *fiber.Ctx) error {
	return siw.Handler.GetPing(c)
}

// GetRegion operation middleware
func (siw *ServerInterfaceWrapper) GetRegion(c *fiber.Ctx) error {
	slug, err := requiredParam(c, "slug")
	if err != nil {
		return err
	}
	return siw.Handler.GetRegion(c, slug)
}

// GetZipRegion operation middleware
func (siw *ServerInterfaceWrapper) GetZipRegion(c *fiber.Ctx) error {
	zip, err := requiredParam(c, "zip")
	if err != nil {
		return err
	}
	return siw.Handler.GetZipRegion(c, zip)
}

// ListArticles operation middleware
func (siw *ServerInterfaceWrapper) ListArticles(c *fiber.Ctx) error {
	return siw.Handler.ListArticles(c)
}

// GetArticle operation middleware
func (siw *ServerInterfaceWrapper) GetArticle(c *fiber.Ctx) error {
	slug, err := requiredParam(c, "slug")
	if err != nil {
		return err
	}
	return siw.Handler.GetArticle(c, slug)
}

// ListRegionLawyers operation middleware
func (siw *ServerInterfaceWrapper) ListRegionLawyers(c *fiber.Ctx) error {
	slug, err := requiredParam(c, "slug")
	if err != nil {
		return err
	}
	return siw.Handler.ListRegionLawyers(c, slug)
}

// ListLawyers operation middleware
func (siw *ServerInterfaceWrapper) ListLawyers(c *fiber.Ctx) error {
	return siw.Handler.ListLawyers(c)
}

// GetLawyer operation middleware
func (siw *ServerInterfaceWrapper) GetLawyer(c *fiber.Ctx) error {
	slug, err := requiredParam(c, "slug")
	if err != nil {
		return err
	}
	return siw.Handler.GetLawyer(c, slug)
}

// ListLawFirms operation middleware
func (siw *ServerInterfaceWrapper) ListLawFirms(c *fiber.Ctx) error {
	return siw.Handler.ListLawFirms(c)
}

// GetLawFirm operation middleware
func (siw *ServerInterfaceWrapper) GetLawFirm(c *fiber.Ctx) error {
	slug, err := requiredParam(c, "slug")
	if err != nil {
		return err
	}
	return siw.Handler.GetLawFirm(c, slug)
}

// ListCities operation middleware
func (siw *ServerInterfaceWrapper) ListCities(c *fiber.Ctx) error {
	return siw.Handler.ListCities(c)
}

// GetCity operation middleware
func (siw *ServerInterfaceWrapper) GetCity(c *fiber.Ctx) error {
	slug, err := requiredParam(c, "slug")
	if err != nil {
		return err
	}
	return siw.Handler.GetCity(c, slug)
}

// FiberServerOptions provides options for the Fiber server.
type FiberServerOptions struct {
	BaseURL     string
	Middlewares []MiddlewareFunc
}

// RegisterHandlers registers the v1 routes on router.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, FiberServerOptions{})
}

// RegisterHandlersWithOptions registers the v1 routes with extra middlewares.
func RegisterHandlersWithOptions(router fiber.Router, si ServerInterface, options FiberServerOptions) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	for _, m := range options.Middlewares {
		router.Use(fiber.Handler(m))
	}

	router.Get(options.BaseURL+"/ping", wrapper.GetPing)
	router.Get(options.BaseURL+"/regions/:slug", wrapper.GetRegion)
	router.Get(options.BaseURL+"/zip-codes/:zip/region", wrapper.GetZipRegion)
	router.Get(options.BaseURL+"/articles", wrapper.ListArticles)
	router.Get(options.BaseURL+"/articles/:slug", wrapper.GetArticle)
	router.Get(options.BaseURL+"/regions/:slug/lawyers", wrapper.ListRegionLawyers)
	router.Get(options.BaseURL+"/lawyers", wrapper.ListLawyers)
	router.Get(options.BaseURL+"/lawyers/:slug", wrapper.GetLawyer)
	router.Get(options.BaseURL+"/law-firms", wrapper.ListLawFirms)
	router.Get(options.BaseURL+"/law-firms/:slug", wrapper.GetLawFirm)
	router.Get(options.BaseURL+"/cities", wrapper.ListCities)
	router.Get(options.BaseURL+"/cities/:slug", wrapper.GetCity)
}
