package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/slug"
	"github.com/attorneymap/attorneymap/internal/pkg/zipcode"
)

// AdminCityController handles city CRUD and which city owns a zip code
type AdminCityController struct {
	cities repository.CityRepository
}

// NewAdminCityController creates a new city controller
func NewAdminCityController(cities repository.CityRepository) *AdminCityController {
	return &AdminCityController{cities: cities}
}

type cityRequest struct {
	Name      string `json:"name"`
	StateCode string `json:"state_code"`
	Slug      string `json:"slug"`
}

// HandleList returns all cities, optionally only those of ?state=
func (cc *AdminCityController) HandleList(c *fiber.Ctx) error {
	cities, err := cc.cities.List(c.UserContext(), c.Query("state"))
	if err != nil {
		return internalError(c, "Failed to load cities", err)
	}
	if cities == nil {
		cities = []models.City{}
	}
	return c.JSON(fiber.Map{"cities": cities, "total": len(cities)})
}

// HandleGet returns a city and its zip codes
func (cc *AdminCityController) HandleGet(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid city id")
	}
	ctx := c.UserContext()
	city, err := cc.cities.GetByID(ctx, id)
	if err != nil {
		return lookupError(c, "City", err)
	}
	zips, err := cc.cities.ZipValues(ctx, id)
	if err != nil {
		return internalError(c, "Failed to load zip codes", err)
	}
	if zips == nil {
		zips = []string{}
	}
	return c.JSON(fiber.Map{"city": city, "zip_codes": zips})
}

// HandleCreate stores a city. The default slug is name plus state, so
// "Springfield, IL" and "Springfield, MO" do not collide.
func (cc *AdminCityController) HandleCreate(c *fiber.Ctx) error {
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	city := &models.City{
		Name:      strings.TrimSpace(req.Name),
		StateCode: strings.ToUpper(strings.TrimSpace(req.StateCode)),
	}
	ctx := c.UserContext()
	base := slug.Generate(req.Slug)
	if base == "" {
		base = slug.WithSuffix(slug.Generate(city.Name), city.StateCode)
	}
	citySlug, err := freeSlug(base, func(candidate string) (bool, error) {
		return cc.cities.SlugExistsExceptID(ctx, candidate, 0)
	})
	if err != nil {
		return internalError(c, "Failed to check slug", err)
	}
	city.Slug = citySlug

	if err := city.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := cc.cities.Create(ctx, city); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return conflict(c, "Slug is already taken")
		}
		return internalError(c, "Failed to create city", err)
	}

	log.Infof("[Admin] Created city %d %q, %s", city.ID, city.Name, city.StateCode)
	return c.Status(fiber.StatusCreated).JSON(city)
}

// HandleUpdate changes a city's name, state or slug
func (cc *AdminCityController) HandleUpdate(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid city id")
	}
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx := c.UserContext()
	city, err := cc.cities.GetByID(ctx, id)
	if err != nil {
		return lookupError(c, "City", err)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		city.Name = name
	}
	if state := strings.TrimSpace(req.StateCode); state != "" {
		city.StateCode = strings.ToUpper(state)
	}
	if req.Slug != "" {
		wanted := slug.Generate(req.Slug)
		taken, err := cc.cities.SlugExistsExceptID(ctx, wanted, id)
		if err != nil {
			return internalError(c, "Failed to check slug", err)
		}
		if taken {
			return conflict(c, fmt.Sprintf("Slug %q is already taken", wanted))
		}
		city.Slug = wanted
	}

	if err := city.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := cc.cities.Update(ctx, city); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return conflict(c, "Slug is already taken")
		}
		return internalError(c, "Failed to update city", err)
	}
	return c.JSON(city)
}

// HandleDelete removes a city. Its zip codes stay, without a city.
func (cc *AdminCityController) HandleDelete(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid city id")
	}
	if err := cc.cities.Delete(c.UserContext(), id); err != nil {
		return lookupError(c, "City", err)
	}
	log.Infof("[Admin] Deleted city %d", id)
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAssignZip makes the city the owner of a zip code, replacing any
// previous owner. Unknown zip codes are created.
func (cc *AdminCityController) HandleAssignZip(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid city id")
	}
	var req zipAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	zip, err := zipcode.Parse(req.ZipCode)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.UserContext()
	if _, err := cc.cities.GetByID(ctx, id); err != nil {
		return lookupError(c, "City", err)
	}
	zc, err := cc.cities.AssignZip(ctx, id, zip)
	if err != nil {
		return internalError(c, "Failed to assign zip code", err)
	}
	return c.JSON(fiber.Map{"zip_code": zc.Value, "city_id": id})
}

// HandleUnassignZip clears a zip code's city
func (cc *AdminCityController) HandleUnassignZip(c *fiber.Ctx) error {
	zip, err := zipcode.Parse(c.Params("zip"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	removed, err := cc.cities.UnassignZip(c.UserContext(), zip)
	if err != nil {
		return internalError(c, "Failed to unassign zip code", err)
	}
	if !removed {
		return notFound(c, "Zip code has no city")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
