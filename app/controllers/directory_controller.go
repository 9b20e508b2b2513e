package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
)

// DirectoryController serves the public lawyer, law firm and city listings
type DirectoryController struct {
	lawyers  repository.LawyerRepository
	firms    repository.LawFirmRepository
	cities   repository.CityRepository
	regions  repository.RegionRepository
	mappings repository.ZipRegionMappingRepository
}

// NewDirectoryController creates a new directory controller
func NewDirectoryController(repos *repository.Repositories) *DirectoryController {
	return &DirectoryController{
		lawyers:  repos.Lawyer,
		firms:    repos.LawFirm,
		cities:   repos.City,
		regions:  repos.Region,
		mappings: repos.ZipRegionMapping,
	}
}

// HandleLawyers lists lawyers by name, filtered by ?tier=, ?zip= and ?law_firm_id=
func (dc *DirectoryController) HandleLawyers(c *fiber.Ctx) error {
	filter, err := lawyerFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	offset, limit := pagination(c)
	lawyers, total, err := dc.lawyers.List(c.UserContext(), filter, offset, limit)
	if err != nil {
		return internalError(c, "Failed to load lawyers", err)
	}
	if lawyers == nil {
		lawyers = []models.Lawyer{}
	}
	return c.JSON(fiber.Map{"lawyers": lawyers, "total": total})
}

// HandleLawyer returns one lawyer by slug
func (dc *DirectoryController) HandleLawyer(c *fiber.Ctx, lawyerSlug string) error {
	lawyer, err := dc.lawyers.GetBySlug(c.UserContext(), lawyerSlug)
	if err != nil {
		return lookupError(c, "Lawyer", err)
	}
	return c.JSON(lawyer)
}

// HandleRegionLawyers lists the lawyers located in a region, either by their
// own office zip or by their firm's zip. ?tier= narrows the list.
func (dc *DirectoryController) HandleRegionLawyers(c *fiber.Ctx, regionSlug string) error {
	filter, err := lawyerFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.UserContext()
	region, err := dc.regions.GetBySlug(ctx, regionSlug)
	if err != nil {
		return lookupError(c, "Region", err)
	}
	zips, err := dc.mappings.ZipValuesForRegion(ctx, region.ID)
	if err != nil {
		return internalError(c, "Failed to load zip codes", err)
	}

	lawyers, total := []models.Lawyer{}, int64(0)
	if len(zips) > 0 {
		filter.ZipCodes = zips
		offset, limit := pagination(c)
		lawyers, total, err = dc.lawyers.List(ctx, filter, offset, limit)
		if err != nil {
			return internalError(c, "Failed to load lawyers", err)
		}
		if lawyers == nil {
			lawyers = []models.Lawyer{}
		}
	}
	return c.JSON(fiber.Map{"region": region, "lawyers": lawyers, "total": total})
}

// HandleLawFirms lists law firms by name
func (dc *DirectoryController) HandleLawFirms(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	firms, total, err := dc.firms.List(c.UserContext(), offset, limit)
	if err != nil {
		return internalError(c, "Failed to load law firms", err)
	}
	if firms == nil {
		firms = []models.LawFirm{}
	}
	return c.JSON(fiber.Map{"law_firms": firms, "total": total})
}

// HandleLawFirm returns a law firm by slug with its first page of lawyers
func (dc *DirectoryController) HandleLawFirm(c *fiber.Ctx, firmSlug string) error {
	ctx := c.UserContext()
	firm, err := dc.firms.GetBySlug(ctx, firmSlug)
	if err != nil {
		return lookupError(c, "Law firm", err)
	}
	offset, limit := pagination(c)
	lawyers, total, err := dc.lawyers.List(ctx, repository.LawyerFilter{LawFirmID: firm.ID}, offset, limit)
	if err != nil {
		return internalError(c, "Failed to load lawyers", err)
	}
	if lawyers == nil {
		lawyers = []models.Lawyer{}
	}
	return c.JSON(fiber.Map{"law_firm": firm, "lawyers": lawyers, "lawyer_count": total})
}

// HandleCities lists cities, optionally only those of ?state=
func (dc *DirectoryController) HandleCities(c *fiber.Ctx) error {
	cities, err := dc.cities.List(c.UserContext(), c.Query("state"))
	if err != nil {
		return internalError(c, "Failed to load cities", err)
	}
	if cities == nil {
		cities = []models.City{}
	}
	return c.JSON(fiber.Map{"cities": cities, "total": len(cities)})
}

// HandleCity returns a city by slug with its zip codes
func (dc *DirectoryController) HandleCity(c *fiber.Ctx, citySlug string) error {
	ctx := c.UserContext()
	city, err := dc.cities.GetBySlug(ctx, citySlug)
	if err != nil {
		return lookupError(c, "City", err)
	}
	zips, err := dc.cities.ZipValues(ctx, city.ID)
	if err != nil {
		return internalError(c, "Failed to load zip codes", err)
	}
	if zips == nil {
		zips = []string{}
	}
	return c.JSON(fiber.Map{"city": city, "zip_codes": zips, "zip_count": len(zips)})
}
