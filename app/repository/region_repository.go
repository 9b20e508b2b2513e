package repository

import (
	"context"

	"github.com/attorneymap/attorneymap/app/models"
	"gorm.io/gorm"
)

// regionRepository implements the RegionRepository interface
type regionRepository struct {
	db *gorm.DB
}

// NewRegionRepository creates a new region repository instance
func NewRegionRepository(db *gorm.DB) RegionRepository {
	return &regionRepository{db: db}
}

// Create creates a new region in the database
func (r *regionRepository) Create(ctx context.Context, region *models.Region) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(region).Error)
}

// GetByID retrieves a region by its ID
func (r *regionRepository) GetByID(ctx context.Context, id uint) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).First(&region, id).Error
	if err != nil {
		return nil, err
	}
	return &region, nil
}

// GetByCode retrieves a region by its external DMA code
func (r *regionRepository) GetByCode(ctx context.Context, code int) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&region).Error
	if err != nil {
		return nil, err
	}
	return &region, nil
}

// GetBySlug retrieves a region by its slug
func (r *regionRepository) GetBySlug(ctx context.Context, slug string) (*models.Region, error) {
	return models.FindRegionBySlug(r.db.WithContext(ctx), slug)
}

// Update updates an existing region in the database
func (r *regionRepository) Update(ctx context.Context, region *models.Region) error {
	return translateDuplicate(r.db.WithContext(ctx).Save(region).Error)
}

// Delete removes a region together with its zip mappings and region-scoped limits
func (r *regionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("region_id = ?", id).Delete(&models.ZipRegionMapping{}).Error; err != nil {
			return err
		}
		if err := tx.Where("scope = ? AND location_value = ?", models.ScopeRegion, models.RegionLocation(id)).
			Delete(&models.SubscriptionLimit{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Region{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List retrieves all regions ordered by name
func (r *regionRepository) List(ctx context.Context) ([]models.Region, error) {
	var regions []models.Region
	err := r.db.WithContext(ctx).Order("name ASC").Find(&regions).Error
	return regions, err
}

// ListWithZipCounts retrieves all regions with the number of zips mapped to each
func (r *regionRepository) ListWithZipCounts(ctx context.Context) ([]models.RegionWithZipCount, error) {
	var rows []models.RegionWithZipCount
	err := r.db.WithContext(ctx).
		Table("regions").
		Select("regions.*, COUNT(zip_region_mappings.id) AS zip_count").
		Joins("LEFT JOIN zip_region_mappings ON zip_region_mappings.region_id = regions.id").
		Group("regions.id").
		Order("regions.name ASC").
		Scan(&rows).Error
	return rows, err
}

// SlugExistsExceptID checks if a slug exists excluding a specific region ID
func (r *regionRepository) SlugExistsExceptID(ctx context.Context, slug string, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Region{}).
		Where("slug = ? AND id != ?", slug, id).Count(&count).Error
	return count > 0, err
}
