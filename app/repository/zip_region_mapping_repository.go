package repository

import (
	"context"

	"github.com/attorneymap/attorneymap/app/models"
	"gorm.io/gorm"
)

// zipRegionMappingRepository implements the ZipRegionMappingRepository interface
type zipRegionMappingRepository struct {
	db *gorm.DB
}

// NewZipRegionMappingRepository creates a new mapping repository instance
func NewZipRegionMappingRepository(db *gorm.DB) ZipRegionMappingRepository {
	return &zipRegionMappingRepository{db: db}
}

// ListPage returns up to limit mappings with an ID greater than afterID
func (r *zipRegionMappingRepository) ListPage(ctx context.Context, afterID uint, limit int) ([]models.ZipRegionMapping, error) {
	var mappings []models.ZipRegionMapping
	err := r.db.WithContext(ctx).Where("id > ?", afterID).
		Order("id ASC").Limit(limit).Find(&mappings).Error
	return mappings, err
}

// Replace assigns a zip code to a region, dropping any previous assignment.
// Both steps run in one transaction so a zip never ends up with two regions
// or, on failure, with none.
func (r *zipRegionMappingRepository) Replace(ctx context.Context, zipCodeID, regionID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("zip_code_id = ?", zipCodeID).Delete(&models.ZipRegionMapping{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.ZipRegionMapping{ZipCodeID: zipCodeID, RegionID: regionID}).Error
	})
}

// DeleteByZipCodeID removes the assignment of a zip code, if any
func (r *zipRegionMappingRepository) DeleteByZipCodeID(ctx context.Context, zipCodeID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("zip_code_id = ?", zipCodeID).Delete(&models.ZipRegionMapping{})
	return result.RowsAffected, result.Error
}

// DeleteAll removes every zip-to-region assignment
func (r *zipRegionMappingRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ZipRegionMapping{})
	return result.RowsAffected, result.Error
}

// GetRegionForZip returns the region a zip value is assigned to
func (r *zipRegionMappingRepository) GetRegionForZip(ctx context.Context, value string) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).
		Joins("JOIN zip_region_mappings ON zip_region_mappings.region_id = regions.id").
		Joins("JOIN zip_codes ON zip_codes.id = zip_region_mappings.zip_code_id").
		Where("zip_codes.value = ?", value).
		First(&region).Error
	if err != nil {
		return nil, err
	}
	return &region, nil
}

// ZipValuesForRegion returns the zip values assigned to a region
func (r *zipRegionMappingRepository) ZipValuesForRegion(ctx context.Context, regionID uint) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).Model(&models.ZipCode{}).
		Joins("JOIN zip_region_mappings ON zip_region_mappings.zip_code_id = zip_codes.id").
		Where("zip_region_mappings.region_id = ?", regionID).
		Order("zip_codes.value ASC").
		Pluck("zip_codes.value", &values).Error
	return values, err
}

// ListDetailed returns every assignment flattened with its region details
func (r *zipRegionMappingRepository) ListDetailed(ctx context.Context) ([]MappingExport, error) {
	var rows []MappingExport
	err := r.db.WithContext(ctx).Table("zip_region_mappings").
		Select("zip_codes.value AS zip_code, regions.id AS region_id, regions.code AS region_code, regions.name AS region_name").
		Joins("JOIN zip_codes ON zip_codes.id = zip_region_mappings.zip_code_id").
		Joins("JOIN regions ON regions.id = zip_region_mappings.region_id").
		Order("zip_codes.value ASC").
		Scan(&rows).Error
	return rows, err
}
