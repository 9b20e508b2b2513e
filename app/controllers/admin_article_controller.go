package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/slug"
)

// AdminArticleController handles article CRUD
type AdminArticleController struct {
	articles repository.ArticleRepository
}

// NewAdminArticleController creates a new article controller
func NewAdminArticleController(articles repository.ArticleRepository) *AdminArticleController {
	return &AdminArticleController{articles: articles}
}

type articleRequest struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Content   string `json:"content"`
	Excerpt   string `json:"excerpt"`
	Published bool   `json:"published"`
}

// HandleList returns all articles, newest first
func (ac *AdminArticleController) HandleList(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	articles, err := ac.articles.GetAll(offset, limit)
	if err != nil {
		return internalError(c, "Failed to load articles", err)
	}
	total, err := ac.articles.Count()
	if err != nil {
		return internalError(c, "Failed to count articles", err)
	}
	if articles == nil {
		articles = []models.Article{}
	}
	return c.JSON(fiber.Map{"articles": articles, "total": total})
}

// HandleGet returns one article
func (ac *AdminArticleController) HandleGet(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid article id")
	}
	article, err := ac.articles.GetByID(id)
	if err != nil {
		return lookupError(c, "Article", err)
	}
	return c.JSON(article)
}

// HandleCreate stores a new article. An empty slug is derived from the
// title; a taken slug gets -2, -3, ... appended.
func (ac *AdminArticleController) HandleCreate(c *fiber.Ctx) error {
	var req articleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	base := slug.Generate(req.Slug)
	if base == "" {
		base = slug.Generate(req.Title)
	}
	articleSlug, err := ac.uniqueSlug(base, 0)
	if err != nil {
		return internalError(c, "Failed to check slug", err)
	}

	article := &models.Article{
		Title:     strings.TrimSpace(req.Title),
		Slug:      articleSlug,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Published: req.Published,
	}
	setPublishedAt(article)
	if err := article.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := ac.articles.Create(article); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return conflict(c, "Slug is already taken")
		}
		return internalError(c, "Failed to create article", err)
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// HandleUpdate changes an article. The slug only changes when one is given.
func (ac *AdminArticleController) HandleUpdate(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid article id")
	}
	article, err := ac.articles.GetByID(id)
	if err != nil {
		return lookupError(c, "Article", err)
	}

	var req articleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Slug != "" {
		wanted := slug.Generate(req.Slug)
		taken, err := ac.articles.SlugExistsExceptID(wanted, id)
		if err != nil {
			return internalError(c, "Failed to check slug", err)
		}
		if taken {
			return conflict(c, fmt.Sprintf("Slug %q is already taken", wanted))
		}
		article.Slug = wanted
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		article.Title = title
	}
	if req.Content != "" {
		article.Content = req.Content
	}
	article.Excerpt = req.Excerpt
	article.Published = req.Published
	setPublishedAt(article)

	if err := article.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := ac.articles.Update(article); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return conflict(c, "Slug is already taken")
		}
		return internalError(c, "Failed to update article", err)
	}
	return c.JSON(article)
}

// HandleDelete soft deletes an article
func (ac *AdminArticleController) HandleDelete(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid article id")
	}
	if _, err := ac.articles.GetByID(id); err != nil {
		return lookupError(c, "Article", err)
	}
	if err := ac.articles.Delete(id); err != nil {
		return internalError(c, "Failed to delete article", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// uniqueSlug returns base, or base-N for the first free N >= 2. exceptID
// excludes the article being edited.
func (ac *AdminArticleController) uniqueSlug(base string, exceptID uint) (string, error) {
	if base == "" {
		base = "article"
	}
	return freeSlug(base, func(candidate string) (bool, error) {
		return ac.articles.SlugExistsExceptID(candidate, exceptID)
	})
}

func setPublishedAt(article *models.Article) {
	if !article.Published {
		article.PublishedAt = nil
		return
	}
	if article.PublishedAt == nil {
		now := time.Now().UTC()
		article.PublishedAt = &now
	}
}
