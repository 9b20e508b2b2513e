package repository

import (
	"context"
	"errors"

	"github.com/attorneymap/attorneymap/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// zipCodeRepository implements the ZipCodeRepository interface
type zipCodeRepository struct {
	db *gorm.DB
}

// NewZipCodeRepository creates a new zip code repository instance
func NewZipCodeRepository(db *gorm.DB) ZipCodeRepository {
	return &zipCodeRepository{db: db}
}

// GetByValue retrieves a zip code by its canonical five digit value
func (r *zipCodeRepository) GetByValue(ctx context.Context, value string) (*models.ZipCode, error) {
	var zip models.ZipCode
	err := r.db.WithContext(ctx).Where("value = ?", value).First(&zip).Error
	if err != nil {
		return nil, err
	}
	return &zip, nil
}

// ListPage returns up to limit zip codes with an ID greater than afterID
func (r *zipCodeRepository) ListPage(ctx context.Context, afterID uint, limit int) ([]models.ZipCode, error) {
	var zips []models.ZipCode
	err := r.db.WithContext(ctx).Where("id > ?", afterID).
		Order("id ASC").Limit(limit).Find(&zips).Error
	return zips, err
}

// CreateBatch inserts the given values, skipping any that already exist, and
// returns the stored rows for all of them.
func (r *zipCodeRepository) CreateBatch(ctx context.Context, values []string) ([]models.ZipCode, error) {
	if len(values) == 0 {
		return nil, nil
	}
	rows := make([]models.ZipCode, 0, len(values))
	for _, v := range values {
		rows = append(rows, models.ZipCode{Value: v})
	}

	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return nil, err
	}

	var stored []models.ZipCode
	err := db.Where("value IN ?", values).Find(&stored).Error
	return stored, err
}

// GetOrCreate returns the zip code row for value, creating it when missing.
// The bool result reports whether a new row was inserted.
func (r *zipCodeRepository) GetOrCreate(ctx context.Context, value string) (*models.ZipCode, bool, error) {
	zip, err := r.GetByValue(ctx, value)
	if err == nil {
		return zip, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	zip = &models.ZipCode{Value: value}
	if err := r.db.WithContext(ctx).Create(zip).Error; err != nil {
		if _, dup := duplicateKey(err); dup {
			// Lost a race with a concurrent insert.
			existing, getErr := r.GetByValue(ctx, value)
			return existing, false, getErr
		}
		return nil, false, err
	}
	return zip, true, nil
}
