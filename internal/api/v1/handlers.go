package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to the controllers to keep response shapes in one place
	"github.com/attorneymap/attorneymap/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct {
	public    *controllers.PublicController
	directory *controllers.DirectoryController
}

// NewAPIServer creates a new API server instance
func NewAPIServer(public *controllers.PublicController, directory *controllers.DirectoryController) *APIServer {
	return &APIServer{public: public, directory: directory}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetRegion returns a region and its zip codes by slug
func (s *APIServer) GetRegion(c *fiber.Ctx, slug string) error {
	return s.public.HandleRegion(c, slug)
}

// GetZipRegion returns the region a zip code is assigned to
func (s *APIServer) GetZipRegion(c *fiber.Ctx, zip string) error {
	return s.public.HandleZipRegion(c, zip)
}

// ListArticles returns published articles
func (s *APIServer) ListArticles(c *fiber.Ctx) error {
	return s.public.HandleArticles(c)
}

// GetArticle returns a published article by slug
func (s *APIServer) GetArticle(c *fiber.Ctx, slug string) error {
	return s.public.HandleArticle(c, slug)
}

// ListRegionLawyers returns the lawyers located in a region
func (s *APIServer) ListRegionLawyers(c *fiber.Ctx, slug string) error {
	return s.directory.HandleRegionLawyers(c, slug)
}

// ListLawyers returns one page of lawyers
func (s *APIServer) ListLawyers(c *fiber.Ctx) error {
	return s.directory.HandleLawyers(c)
}

// GetLawyer returns a lawyer by slug
func (s *APIServer) GetLawyer(c *fiber.Ctx, slug string) error {
	return s.directory.HandleLawyer(c, slug)
}

// ListLawFirms returns one page of law firms
func (s *APIServer) ListLawFirms(c *fiber.Ctx) error {
	return s.directory.HandleLawFirms(c)
}

// GetLawFirm returns a law firm and its lawyers by slug
func (s *APIServer) GetLawFirm(c *fiber.Ctx, slug string) error {
	return s.directory.HandleLawFirm(c, slug)
}

// ListCities returns cities
func (s *APIServer) ListCities(c *fiber.Ctx) error {
	return s.directory.HandleCities(c)
}

// GetCity returns a city and its zip codes by slug
func (s *APIServer) GetCity(c *fiber.Ctx, slug string) error {
	return s.directory.HandleCity(c, slug)
}
