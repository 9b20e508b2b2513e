package controllers

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/internal/pkg/limits"
)

// LimitAdmin manages subscription limits. *limits.Resolver implements it.
type LimitAdmin interface {
	Resolve(ctx context.Context, regionID uint, tier models.Tier) (limits.Limit, error)
	Grouped(ctx context.Context) ([]limits.LocationLimits, error)
	ReplaceLocation(ctx context.Context, scope models.LimitScope, location string, values map[models.Tier]*int) error
	DeleteLocation(ctx context.Context, scope models.LimitScope, location string) (int64, error)
}

// AdminLimitController edits subscription limits, always as a full tier set per location
type AdminLimitController struct {
	limits LimitAdmin
}

// NewAdminLimitController creates a new subscription limit controller
func NewAdminLimitController(limits LimitAdmin) *AdminLimitController {
	return &AdminLimitController{limits: limits}
}

type limitSetRequest struct {
	Limits map[models.Tier]*int `json:"limits"`
}

// HandleList returns stored limits grouped by location, global first
func (lc *AdminLimitController) HandleList(c *fiber.Ctx) error {
	grouped, err := lc.limits.Grouped(c.UserContext())
	if err != nil {
		return internalError(c, "Failed to load subscription limits", err)
	}
	if grouped == nil {
		grouped = []limits.LocationLimits{}
	}
	return c.JSON(fiber.Map{"locations": grouped, "tiers": models.AllTiers})
}

// HandleReplaceGlobal replaces the global default tier set
func (lc *AdminLimitController) HandleReplaceGlobal(c *fiber.Ctx) error {
	return lc.replace(c, models.ScopeGlobal, models.GlobalLocation)
}

// HandleReplaceRegion replaces a region's override tier set
func (lc *AdminLimitController) HandleReplaceRegion(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid region id")
	}
	return lc.replace(c, models.ScopeRegion, models.RegionLocation(id))
}

func (lc *AdminLimitController) replace(c *fiber.Ctx, scope models.LimitScope, location string) error {
	var req limitSetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	err := lc.limits.ReplaceLocation(c.UserContext(), scope, location, req.Limits)
	var invalid validator.ValidationErrors
	switch {
	case errors.Is(err, limits.ErrUnknownTier), errors.As(err, &invalid):
		return badRequest(c, err.Error())
	case errors.Is(err, limits.ErrRegionNotFound):
		return notFound(c, "Region not found")
	case err != nil:
		return internalError(c, "Failed to save subscription limits", err)
	}

	log.Infof("[Limits] Replaced %s limits for %q", scope, location)
	return c.JSON(fiber.Map{"scope": scope, "location_value": location, "limits": req.Limits})
}

// HandleDeleteRegion removes a region's overrides so the global defaults apply
func (lc *AdminLimitController) HandleDeleteRegion(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid region id")
	}
	deleted, err := lc.limits.DeleteLocation(c.UserContext(), models.ScopeRegion, models.RegionLocation(id))
	if err != nil {
		return internalError(c, "Failed to delete subscription limits", err)
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}

// HandleDeleteGlobal always refuses; global limits are only editable
func (lc *AdminLimitController) HandleDeleteGlobal(c *fiber.Ctx) error {
	_, err := lc.limits.DeleteLocation(c.UserContext(), models.ScopeGlobal, models.GlobalLocation)
	if errors.Is(err, limits.ErrGlobalLimitDelete) {
		return badRequest(c, err.Error())
	}
	if err != nil {
		return internalError(c, "Failed to delete subscription limits", err)
	}
	return badRequest(c, limits.ErrGlobalLimitDelete.Error())
}

// HandleResolve answers the effective limit for ?region_id= and ?tier=
func (lc *AdminLimitController) HandleResolve(c *fiber.Ctx) error {
	regionID := c.QueryInt("region_id", 0)
	if regionID <= 0 {
		return badRequest(c, "region_id is required")
	}
	tier, err := models.ParseTier(c.Query("tier"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	limit, err := lc.limits.Resolve(c.UserContext(), uint(regionID), tier)
	if err != nil {
		return internalError(c, "Failed to resolve subscription limit", err)
	}
	return c.JSON(fiber.Map{"region_id": regionID, "tier": tier, "limit": limit})
}
