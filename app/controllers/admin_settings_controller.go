package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
)

// AdminSettingsController reads and writes the runtime settings
type AdminSettingsController struct {
	settings repository.SettingRepository
}

// NewAdminSettingsController creates a new settings controller
func NewAdminSettingsController(settings repository.SettingRepository) *AdminSettingsController {
	return &AdminSettingsController{settings: settings}
}

// HandleGet returns the stored settings
func (sc *AdminSettingsController) HandleGet(c *fiber.Ctx) error {
	settings, err := sc.settings.Get()
	if err != nil {
		return internalError(c, "Failed to load settings", err)
	}
	return c.JSON(settings)
}

// HandleUpdate validates and stores the full settings object. Fields left
// out of the body keep their current value.
func (sc *AdminSettingsController) HandleUpdate(c *fiber.Ctx) error {
	current, err := sc.settings.Get()
	if err != nil {
		return internalError(c, "Failed to load settings", err)
	}
	data, err := current.ToJSON()
	if err != nil {
		return internalError(c, "Failed to load settings", err)
	}

	// Decode onto a copy; the live settings change only after a successful save.
	settings := models.DefaultAppSettings()
	if err := settings.FromJSON(data); err != nil {
		return internalError(c, "Failed to load settings", err)
	}
	if err := settings.FromJSON(c.Body()); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := settings.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := sc.settings.Save(settings); err != nil {
		return internalError(c, "Failed to save settings", err)
	}

	log.Infof("[Admin] Settings updated: workers=%d scan_workers=%d scan_interval=%dh",
		settings.JobQueueWorkers, settings.LimitScanWorkers, settings.LimitScanInterval)
	return c.JSON(settings)
}
