package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/attorneymap/attorneymap/internal/pkg/slug"
	"github.com/attorneymap/attorneymap/internal/pkg/zipcode"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	maxSlugAttempts = 50
)

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusBadRequest, "bad_request", message)
}

func notFound(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusNotFound, "not_found", message)
}

func conflict(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusConflict, "conflict", message)
}

// internalError logs err and hides it from the client.
func internalError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("[API] %s %s: %s: %v", c.Method(), c.Path(), message, err)
	return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", message)
}

// lookupError maps a repository error to 404 or 500.
func lookupError(c *fiber.Ctx, what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(c, what+" not found")
	}
	return internalError(c, "Failed to load "+what, err)
}

// parseIDParam reads a positive numeric route parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// pagination reads ?page= and ?per_page= and returns offset and limit.
func pagination(c *fiber.Ctx) (int, int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", defaultPageSize)
	if perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}
	return (page - 1) * perPage, perPage
}

// inputError is a client mistake found while applying a request body.
type inputError string

func (e inputError) Error() string { return string(e) }

// saveError answers 400 for input errors and 500 for anything else.
func saveError(c *fiber.Ctx, what string, err error) error {
	var ie inputError
	if errors.As(err, &ie) {
		return badRequest(c, ie.Error())
	}
	return internalError(c, "Failed to save "+what, err)
}

// freeSlug returns base, or base-N for the first free N >= 2.
func freeSlug(base string, taken func(candidate string) (bool, error)) (string, error) {
	candidate := base
	for n := 2; n <= maxSlugAttempts+1; n++ {
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
		candidate = slug.WithSuffix(base, n)
	}
	return slug.WithSuffix(base, time.Now().Unix()), nil
}

// optionalZip normalizes a nullable zip field. A blank value clears it.
func optionalZip(raw string) (*string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	zip, err := zipcode.Parse(raw)
	if err != nil {
		return nil, inputError(err.Error())
	}
	return &zip, nil
}
