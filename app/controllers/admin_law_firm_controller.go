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
)

// AdminLawFirmController handles law firm CRUD
type AdminLawFirmController struct {
	firms repository.LawFirmRepository
}

// NewAdminLawFirmController creates a new law firm controller
func NewAdminLawFirmController(firms repository.LawFirmRepository) *AdminLawFirmController {
	return &AdminLawFirmController{firms: firms}
}

type lawFirmRequest struct {
	Name    string  `json:"name"`
	Slug    string  `json:"slug"`
	ZipCode *string `json:"zip_code"`
}

// HandleList returns one page of law firms
func (fc *AdminLawFirmController) HandleList(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	firms, total, err := fc.firms.List(c.UserContext(), offset, limit)
	if err != nil {
		return internalError(c, "Failed to load law firms", err)
	}
	if firms == nil {
		firms = []models.LawFirm{}
	}
	return c.JSON(fiber.Map{"law_firms": firms, "total": total})
}

// HandleGet returns one law firm
func (fc *AdminLawFirmController) HandleGet(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid law firm id")
	}
	firm, err := fc.firms.GetByID(c.UserContext(), id)
	if err != nil {
		return lookupError(c, "Law firm", err)
	}
	return c.JSON(firm)
}

// HandleCreate stores a new law firm
func (fc *AdminLawFirmController) HandleCreate(c *fiber.Ctx) error {
	var req lawFirmRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	firm := &models.LawFirm{Name: strings.TrimSpace(req.Name)}
	if req.ZipCode != nil {
		zip, err := optionalZip(*req.ZipCode)
		if err != nil {
			return saveError(c, "law firm", err)
		}
		firm.ZipCode = zip
	}

	ctx := c.UserContext()
	base := slug.Generate(req.Slug)
	if base == "" {
		base = slug.Generate(firm.Name)
	}
	firmSlug, err := freeSlug(base, func(candidate string) (bool, error) {
		return fc.firms.SlugExistsExceptID(ctx, candidate, 0)
	})
	if err != nil {
		return internalError(c, "Failed to check slug", err)
	}
	firm.Slug = firmSlug

	if err := firm.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := fc.firms.Create(ctx, firm); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return conflict(c, "Slug is already taken")
		}
		return internalError(c, "Failed to create law firm", err)
	}

	log.Infof("[Admin] Created law firm %d %q", firm.ID, firm.Name)
	return c.Status(fiber.StatusCreated).JSON(firm)
}

// HandleUpdate changes a law firm. Moving the firm moves every lawyer counted
// through it on the next limit scan.
func (fc *AdminLawFirmController) HandleUpdate(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid law firm id")
	}
	var req lawFirmRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx := c.UserContext()
	firm, err := fc.firms.GetByID(ctx, id)
	if err != nil {
		return lookupError(c, "Law firm", err)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		firm.Name = name
	}
	if req.ZipCode != nil {
		zip, err := optionalZip(*req.ZipCode)
		if err != nil {
			return saveError(c, "law firm", err)
		}
		firm.ZipCode = zip
	}
	if req.Slug != "" {
		wanted := slug.Generate(req.Slug)
		taken, err := fc.firms.SlugExistsExceptID(ctx, wanted, id)
		if err != nil {
			return internalError(c, "Failed to check slug", err)
		}
		if taken {
			return conflict(c, fmt.Sprintf("Slug %q is already taken", wanted))
		}
		firm.Slug = wanted
	}

	if err := firm.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := fc.firms.Update(ctx, firm); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return conflict(c, "Slug is already taken")
		}
		return internalError(c, "Failed to update law firm", err)
	}
	return c.JSON(firm)
}

// HandleDelete removes a law firm. Its lawyers stay, without a firm.
func (fc *AdminLawFirmController) HandleDelete(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid law firm id")
	}
	if err := fc.firms.Delete(c.UserContext(), id); err != nil {
		return lookupError(c, "Law firm", err)
	}
	log.Infof("[Admin] Deleted law firm %d", id)
	return c.SendStatus(fiber.StatusNoContent)
}
