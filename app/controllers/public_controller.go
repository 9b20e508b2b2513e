package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/zipcode"
)

// PublicController serves the read-only directory API
type PublicController struct {
	regions  repository.RegionRepository
	mappings repository.ZipRegionMappingRepository
	articles repository.ArticleRepository
	onView   func(articleID uint64) error
}

// NewPublicController creates a new public controller. onView, if set, is
// called for every article served by slug.
func NewPublicController(regions repository.RegionRepository, mappings repository.ZipRegionMappingRepository, articles repository.ArticleRepository, onView func(uint64) error) *PublicController {
	return &PublicController{regions: regions, mappings: mappings, articles: articles, onView: onView}
}

// HandleRegion returns a region by slug together with its zip codes
func (pc *PublicController) HandleRegion(c *fiber.Ctx, regionSlug string) error {
	ctx := c.UserContext()
	region, err := pc.regions.GetBySlug(ctx, regionSlug)
	if err != nil {
		return lookupError(c, "Region", err)
	}
	zips, err := pc.zipsFor(ctx, region.ID)
	if err != nil {
		return internalError(c, "Failed to load zip codes", err)
	}
	return c.JSON(fiber.Map{"region": region, "zip_codes": zips, "zip_count": len(zips)})
}

func (pc *PublicController) zipsFor(ctx context.Context, regionID uint) ([]string, error) {
	zips, err := pc.mappings.ZipValuesForRegion(ctx, regionID)
	if zips == nil {
		zips = []string{}
	}
	return zips, err
}

// HandleZipRegion answers which region a zip code belongs to
func (pc *PublicController) HandleZipRegion(c *fiber.Ctx, rawZip string) error {
	zip, err := zipcode.Parse(rawZip)
	if err != nil {
		return badRequest(c, err.Error())
	}

	region, err := pc.mappings.GetRegionForZip(c.UserContext(), zip)
	if err != nil {
		return lookupError(c, "Region for zip "+zip, err)
	}
	return c.JSON(fiber.Map{"zip_code": zip, "region": region})
}

// HandleArticles returns published articles, newest first
func (pc *PublicController) HandleArticles(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	articles, err := pc.articles.GetPublished(offset, limit)
	if err != nil {
		return internalError(c, "Failed to load articles", err)
	}
	if articles == nil {
		articles = []models.Article{}
	}
	return c.JSON(fiber.Map{"articles": articles})
}

// HandleArticle returns one published article by slug
func (pc *PublicController) HandleArticle(c *fiber.Ctx, articleSlug string) error {
	article, err := pc.articles.GetBySlug(articleSlug)
	if err != nil {
		return lookupError(c, "Article", err)
	}
	if !article.Published {
		return notFound(c, "Article not found")
	}
	if pc.onView != nil {
		if err := pc.onView(article.ID); err != nil {
			log.Warnf("[API] Failed to count view for article %d: %v", article.ID, err)
		}
	}
	return c.JSON(article)
}
