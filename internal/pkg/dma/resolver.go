package dma

import (
	"context"
	"errors"
	"fmt"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/slug"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// RegionStore is the subset of the region repository the resolver needs.
type RegionStore interface {
	GetByCode(ctx context.Context, code int) (*models.Region, error)
	Create(ctx context.Context, region *models.Region) error
	Update(ctx context.Context, region *models.Region) error
}

// Resolver turns a (code, name) pair into a persisted region ID.
type Resolver struct {
	regions RegionStore
}

func NewResolver(regions RegionStore) *Resolver {
	return &Resolver{regions: regions}
}

// Resolve returns the ID of the region with code, creating it when missing.
// A differing stored name is overwritten and recorded as a conflict, unless
// name is a placeholder, which never replaces a stored name. Calling Resolve
// again with the same pair changes nothing and records nothing.
func (r *Resolver) Resolve(ctx context.Context, code int, name string, line int, placeholder bool, issues *ImportIssues) (uint, error) {
	if code <= 0 {
		return 0, fmt.Errorf("invalid region code %d", code)
	}

	region, err := r.regions.GetByCode(ctx, code)
	switch {
	case err == nil:
		return r.rename(ctx, region, name, line, placeholder, issues)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.create(ctx, code, name, issues)
	default:
		return 0, fmt.Errorf("failed to look up region %d: %w", code, err)
	}
}

func (r *Resolver) rename(ctx context.Context, region *models.Region, name string, line int, placeholder bool, issues *ImportIssues) (uint, error) {
	if placeholder || region.Name == name {
		return region.ID, nil
	}

	issues.NameConflicts = append(issues.NameConflicts, NameConflict{
		Code:    region.Code,
		OldName: region.Name,
		NewName: name,
		Line:    line,
		Against: ConflictStored,
	})
	log.Infof("[DMAImport] Region %d renamed %q -> %q (line %d)", region.Code, region.Name, name, line)

	region.Name = name
	region.Slug = slug.Generate(name)
	err := r.regions.Update(ctx, region)
	if errors.Is(err, repository.ErrDuplicateSlug) {
		region.Slug = slug.WithSuffix(region.Slug, region.Code)
		err = r.regions.Update(ctx, region)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to rename region %d: %w", region.Code, err)
	}
	issues.RegionsRenamed++
	return region.ID, nil
}

func (r *Resolver) create(ctx context.Context, code int, name string, issues *ImportIssues) (uint, error) {
	region := &models.Region{Code: code, Name: name, Slug: slug.Generate(name)}
	if region.Slug == "" {
		region.Slug = slug.WithSuffix("dma", code)
	}
	if err := region.Validate(); err != nil {
		return 0, fmt.Errorf("invalid region %d: %w", code, err)
	}

	err := r.regions.Create(ctx, region)
	if errors.Is(err, repository.ErrDuplicateSlug) {
		region.ID = 0
		region.Slug = slug.WithSuffix(region.Slug, code)
		err = r.regions.Create(ctx, region)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create region %d: %w", code, err)
	}
	issues.RegionsCreated++
	log.Infof("[DMAImport] Created region %d %q (%s)", code, name, region.Slug)
	return region.ID, nil
}
