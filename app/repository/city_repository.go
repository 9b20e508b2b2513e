package repository

import (
	"context"
	"strings"

	"github.com/attorneymap/attorneymap/app/models"
	"gorm.io/gorm"
)

// cityRepository implements the CityRepository interface
type cityRepository struct {
	db   *gorm.DB
	zips ZipCodeRepository
}

// NewCityRepository creates a new city repository instance
func NewCityRepository(db *gorm.DB) CityRepository {
	return &cityRepository{db: db, zips: NewZipCodeRepository(db)}
}

func (r *cityRepository) Create(ctx context.Context, city *models.City) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(city).Error)
}

func (r *cityRepository) GetByID(ctx context.Context, id uint) (*models.City, error) {
	var city models.City
	err := r.db.WithContext(ctx).First(&city, id).Error
	if err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *cityRepository) GetBySlug(ctx context.Context, slug string) (*models.City, error) {
	var city models.City
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&city).Error
	if err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *cityRepository) Update(ctx context.Context, city *models.City) error {
	return translateDuplicate(r.db.WithContext(ctx).Save(city).Error)
}

// Delete releases the city's zip codes, then removes the city
func (r *cityRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ZipCode{}).Where("city_id = ?", id).
			Update("city_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.City{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List returns cities ordered by name, limited to one state when stateCode is set
func (r *cityRepository) List(ctx context.Context, stateCode string) ([]models.City, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if stateCode != "" {
		query = query.Where("state_code = ?", strings.ToUpper(stateCode))
	}
	var cities []models.City
	err := query.Find(&cities).Error
	return cities, err
}

func (r *cityRepository) SlugExistsExceptID(ctx context.Context, slug string, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.City{}).
		Where("slug = ? AND id != ?", slug, id).Count(&count).Error
	return count > 0, err
}

// ZipValues returns the zip codes owned by a city in ascending order
func (r *cityRepository) ZipValues(ctx context.Context, cityID uint) ([]string, error) {
	var zips []string
	err := r.db.WithContext(ctx).Model(&models.ZipCode{}).
		Where("city_id = ?", cityID).Order("value ASC").Pluck("value", &zips).Error
	return zips, err
}

// AssignZip makes cityID the owner of zip, creating the zip code row when
// it does not exist yet. zip must already be normalized.
func (r *cityRepository) AssignZip(ctx context.Context, cityID uint, zip string) (*models.ZipCode, error) {
	zc, _, err := r.zips.GetOrCreate(ctx, zip)
	if err != nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).Model(&models.ZipCode{}).
		Where("id = ?", zc.ID).Update("city_id", cityID).Error
	if err != nil {
		return nil, err
	}
	zc.CityID = &cityID
	return zc, nil
}

// UnassignZip clears the owning city of zip. It reports whether the zip had one.
func (r *cityRepository) UnassignZip(ctx context.Context, zip string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ZipCode{}).
		Where("value = ? AND city_id IS NOT NULL", zip).Update("city_id", nil)
	return result.RowsAffected > 0, result.Error
}
