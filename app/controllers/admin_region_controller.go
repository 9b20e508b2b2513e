package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/slug"
	"github.com/attorneymap/attorneymap/internal/pkg/zipcode"
)

// ZipAssigner assigns and unassigns single zip codes. *dma.Mapper implements it.
type ZipAssigner interface {
	Assign(ctx context.Context, rawZip string, regionID uint) (*models.ZipCode, error)
	Unassign(ctx context.Context, rawZip string) (bool, error)
}

// AdminRegionController handles region (DMA) CRUD and manual zip assignment
type AdminRegionController struct {
	regions  repository.RegionRepository
	mappings repository.ZipRegionMappingRepository
	assigner ZipAssigner
}

// NewAdminRegionController creates a new region controller
func NewAdminRegionController(regions repository.RegionRepository, mappings repository.ZipRegionMappingRepository, assigner ZipAssigner) *AdminRegionController {
	return &AdminRegionController{regions: regions, mappings: mappings, assigner: assigner}
}

type regionRequest struct {
	Code        int     `json:"code"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
}

type zipAssignRequest struct {
	ZipCode string `json:"zip_code"`
}

// HandleList returns all regions with their mapped zip counts
func (rc *AdminRegionController) HandleList(c *fiber.Ctx) error {
	regions, err := rc.regions.ListWithZipCounts(c.UserContext())
	if err != nil {
		return internalError(c, "Failed to load regions", err)
	}
	if regions == nil {
		regions = []models.RegionWithZipCount{}
	}
	return c.JSON(fiber.Map{"regions": regions, "total": len(regions)})
}

// HandleGet returns one region
func (rc *AdminRegionController) HandleGet(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid region id")
	}
	region, err := rc.regions.GetByID(c.UserContext(), id)
	if err != nil {
		return lookupError(c, "Region", err)
	}
	return c.JSON(region)
}

// HandleCreate creates a region. The slug is derived from the name unless
// given; a derived slug that is taken gets the code appended once.
func (rc *AdminRegionController) HandleCreate(c *fiber.Ctx) error {
	var req regionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	region := &models.Region{
		Code:        req.Code,
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug.Generate(req.Slug),
		Description: req.Description,
	}
	derived := region.Slug == ""
	if derived {
		region.Slug = slug.Generate(region.Name)
	}
	if err := region.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.UserContext()
	err := rc.regions.Create(ctx, region)
	if errors.Is(err, repository.ErrDuplicateSlug) && derived {
		region.ID = 0
		region.Slug = slug.WithSuffix(region.Slug, region.Code)
		err = rc.regions.Create(ctx, region)
	}
	if err != nil {
		return rc.writeError(c, err)
	}

	log.Infof("[Admin] Created region %d %q", region.Code, region.Name)
	return c.Status(fiber.StatusCreated).JSON(region)
}

// HandleUpdate edits a region. Renaming keeps the slug unless a new one is sent.
func (rc *AdminRegionController) HandleUpdate(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid region id")
	}
	var req regionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx := c.UserContext()
	region, err := rc.regions.GetByID(ctx, id)
	if err != nil {
		return lookupError(c, "Region", err)
	}

	if req.Code != 0 {
		region.Code = req.Code
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		region.Name = name
	}
	if req.Slug != "" {
		region.Slug = slug.Generate(req.Slug)
		taken, err := rc.regions.SlugExistsExceptID(ctx, region.Slug, region.ID)
		if err != nil {
			return internalError(c, "Failed to check slug", err)
		}
		if taken {
			return conflict(c, "Slug is already used by another region")
		}
	}
	if req.Description != nil {
		region.Description = req.Description
	}
	if err := region.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := rc.regions.Update(ctx, region); err != nil {
		return rc.writeError(c, err)
	}
	return c.JSON(region)
}

// HandleDelete deletes a region with its mappings and region limits
func (rc *AdminRegionController) HandleDelete(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid region id")
	}
	if err := rc.regions.Delete(c.UserContext(), id); err != nil {
		return lookupError(c, "Region", err)
	}
	log.Infof("[Admin] Deleted region %d", id)
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListZips returns the zip codes mapped to a region
func (rc *AdminRegionController) HandleListZips(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid region id")
	}
	ctx := c.UserContext()
	if _, err := rc.regions.GetByID(ctx, id); err != nil {
		return lookupError(c, "Region", err)
	}
	zips, err := rc.mappings.ZipValuesForRegion(ctx, id)
	if err != nil {
		return internalError(c, "Failed to load zip codes", err)
	}
	if zips == nil {
		zips = []string{}
	}
	return c.JSON(fiber.Map{"region_id": id, "zip_codes": zips, "total": len(zips)})
}

// HandleAssignZip maps a zip code to the region, replacing any previous region
func (rc *AdminRegionController) HandleAssignZip(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid region id")
	}
	var req zipAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx := c.UserContext()
	if _, err := rc.regions.GetByID(ctx, id); err != nil {
		return lookupError(c, "Region", err)
	}
	zc, err := rc.assigner.Assign(ctx, req.ZipCode, id)
	if errors.Is(err, zipcode.ErrInvalidZip) {
		return badRequest(c, err.Error())
	}
	if err != nil {
		return internalError(c, "Failed to assign zip code", err)
	}
	return c.JSON(fiber.Map{"zip_code": zc.Value, "region_id": id})
}

// HandleUnassignZip removes a zip code's region
func (rc *AdminRegionController) HandleUnassignZip(c *fiber.Ctx) error {
	removed, err := rc.assigner.Unassign(c.UserContext(), c.Params("zip"))
	if errors.Is(err, zipcode.ErrInvalidZip) {
		return badRequest(c, err.Error())
	}
	if err != nil {
		return internalError(c, "Failed to unassign zip code", err)
	}
	if !removed {
		return notFound(c, "Zip code has no region")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (rc *AdminRegionController) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateCode):
		return conflict(c, "A region with this code already exists")
	case errors.Is(err, repository.ErrDuplicateSlug):
		return conflict(c, "Slug is already used by another region")
	default:
		return internalError(c, "Failed to save region", err)
	}
}
