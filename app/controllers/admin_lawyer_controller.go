package controllers

import (
	"context"
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

// AdminLawyerController handles lawyer CRUD. Tier, office zip and firm are
// the inputs of the subscription limit scan.
type AdminLawyerController struct {
	lawyers repository.LawyerRepository
	firms   repository.LawFirmRepository
}

// NewAdminLawyerController creates a new lawyer controller
func NewAdminLawyerController(lawyers repository.LawyerRepository, firms repository.LawFirmRepository) *AdminLawyerController {
	return &AdminLawyerController{lawyers: lawyers, firms: firms}
}

type lawyerRequest struct {
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Tier          string  `json:"tier"`
	OfficeZipCode *string `json:"office_zip_code"`
	LawFirmID     *uint   `json:"law_firm_id"`
}

// lawyerFilter reads ?tier=, ?zip= and ?law_firm_id=.
func lawyerFilter(c *fiber.Ctx) (repository.LawyerFilter, error) {
	var filter repository.LawyerFilter
	if raw := c.Query("tier"); raw != "" {
		tier, err := models.ParseTier(raw)
		if err != nil {
			return filter, err
		}
		filter.Tier = tier
	}
	if raw := c.Query("zip"); raw != "" {
		zip, err := zipcode.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.ZipCodes = []string{zip}
	}
	if id := c.QueryInt("law_firm_id"); id > 0 {
		filter.LawFirmID = uint(id)
	}
	return filter, nil
}

// HandleList returns one page of lawyers
func (lc *AdminLawyerController) HandleList(c *fiber.Ctx) error {
	filter, err := lawyerFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	offset, limit := pagination(c)
	lawyers, total, err := lc.lawyers.List(c.UserContext(), filter, offset, limit)
	if err != nil {
		return internalError(c, "Failed to load lawyers", err)
	}
	if lawyers == nil {
		lawyers = []models.Lawyer{}
	}
	return c.JSON(fiber.Map{"lawyers": lawyers, "total": total})
}

// HandleGet returns one lawyer with their firm
func (lc *AdminLawyerController) HandleGet(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid lawyer id")
	}
	lawyer, err := lc.lawyers.GetByID(c.UserContext(), id)
	if err != nil {
		return lookupError(c, "Lawyer", err)
	}
	return c.JSON(lawyer)
}

// HandleCreate stores a new lawyer on the free tier unless a tier is given.
// An empty slug is derived from the name; a taken slug gets -2, -3, ... appended.
func (lc *AdminLawyerController) HandleCreate(c *fiber.Ctx) error {
	var req lawyerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx := c.UserContext()
	lawyer := &models.Lawyer{Tier: models.TierFree}
	if err := lc.apply(ctx, lawyer, req); err != nil {
		return saveError(c, "lawyer", err)
	}

	base := slug.Generate(req.Slug)
	if base == "" {
		base = slug.Generate(lawyer.Name)
	}
	lawyerSlug, err := freeSlug(base, func(candidate string) (bool, error) {
		return lc.lawyers.SlugExistsExceptID(ctx, candidate, 0)
	})
	if err != nil {
		return internalError(c, "Failed to check slug", err)
	}
	lawyer.Slug = lawyerSlug

	if err := lawyer.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := lc.lawyers.Create(ctx, lawyer); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return conflict(c, "Slug is already taken")
		}
		return internalError(c, "Failed to create lawyer", err)
	}

	log.Infof("[Admin] Created lawyer %d %q (%s)", lawyer.ID, lawyer.Name, lawyer.Tier)
	return c.Status(fiber.StatusCreated).JSON(lawyer)
}

// HandleUpdate changes a lawyer. Omitted fields stay as they are; an empty
// office_zip_code or a law_firm_id of 0 clears the value.
func (lc *AdminLawyerController) HandleUpdate(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid lawyer id")
	}
	var req lawyerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx := c.UserContext()
	lawyer, err := lc.lawyers.GetByID(ctx, id)
	if err != nil {
		return lookupError(c, "Lawyer", err)
	}
	if err := lc.apply(ctx, lawyer, req); err != nil {
		return saveError(c, "lawyer", err)
	}
	if req.Slug != "" {
		wanted := slug.Generate(req.Slug)
		taken, err := lc.lawyers.SlugExistsExceptID(ctx, wanted, id)
		if err != nil {
			return internalError(c, "Failed to check slug", err)
		}
		if taken {
			return conflict(c, fmt.Sprintf("Slug %q is already taken", wanted))
		}
		lawyer.Slug = wanted
	}

	if err := lawyer.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := lc.lawyers.Update(ctx, lawyer); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return conflict(c, "Slug is already taken")
		}
		return internalError(c, "Failed to update lawyer", err)
	}
	return c.JSON(lawyer)
}

// HandleDelete removes a lawyer
func (lc *AdminLawyerController) HandleDelete(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid lawyer id")
	}
	if err := lc.lawyers.Delete(c.UserContext(), id); err != nil {
		return lookupError(c, "Lawyer", err)
	}
	log.Infof("[Admin] Deleted lawyer %d", id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (lc *AdminLawyerController) apply(ctx context.Context, lawyer *models.Lawyer, req lawyerRequest) error {
	if name := strings.TrimSpace(req.Name); name != "" {
		lawyer.Name = name
	}
	if req.Tier != "" {
		tier, err := models.ParseTier(req.Tier)
		if err != nil {
			return inputError(err.Error())
		}
		lawyer.Tier = tier
	}
	if req.OfficeZipCode != nil {
		zip, err := optionalZip(*req.OfficeZipCode)
		if err != nil {
			return err
		}
		lawyer.OfficeZipCode = zip
	}
	if req.LawFirmID != nil {
		if *req.LawFirmID == 0 {
			lawyer.LawFirmID, lawyer.LawFirm = nil, nil
			return nil
		}
		firm, err := lc.firms.GetByID(ctx, *req.LawFirmID)
		if repository.IsNotFound(err) {
			return inputError(fmt.Sprintf("Law firm %d does not exist", *req.LawFirmID))
		}
		if err != nil {
			return err
		}
		lawyer.LawFirmID, lawyer.LawFirm = &firm.ID, firm
	}
	return nil
}
