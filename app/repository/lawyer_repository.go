package repository

import (
	"context"

	"github.com/attorneymap/attorneymap/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lawyerRepository implements the LawyerRepository interface
type lawyerRepository struct {
	db *gorm.DB
}

// NewLawyerRepository creates a new lawyer repository instance
func NewLawyerRepository(db *gorm.DB) LawyerRepository {
	return &lawyerRepository{db: db}
}

// Create creates a new lawyer in the database
func (r *lawyerRepository) Create(ctx context.Context, lawyer *models.Lawyer) error {
	return translateDuplicate(r.db.WithContext(ctx).Omit(clause.Associations).Create(lawyer).Error)
}

// GetByID retrieves a lawyer with their firm
func (r *lawyerRepository) GetByID(ctx context.Context, id uint) (*models.Lawyer, error) {
	var lawyer models.Lawyer
	err := r.db.WithContext(ctx).Preload("LawFirm").First(&lawyer, id).Error
	if err != nil {
		return nil, err
	}
	return &lawyer, nil
}

// GetBySlug retrieves a lawyer with their firm by slug
func (r *lawyerRepository) GetBySlug(ctx context.Context, slug string) (*models.Lawyer, error) {
	var lawyer models.Lawyer
	err := r.db.WithContext(ctx).Preload("LawFirm").Where("slug = ?", slug).First(&lawyer).Error
	if err != nil {
		return nil, err
	}
	return &lawyer, nil
}

// Update saves a lawyer without touching the firm row
func (r *lawyerRepository) Update(ctx context.Context, lawyer *models.Lawyer) error {
	return translateDuplicate(r.db.WithContext(ctx).Omit(clause.Associations).Save(lawyer).Error)
}

// Delete removes a lawyer
func (r *lawyerRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Lawyer{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of lawyers matching filter, ordered by name, and the
// total number of matches.
func (r *lawyerRepository) List(ctx context.Context, filter LawyerFilter, offset, limit int) ([]models.Lawyer, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.Lawyer{}, 0, nil
	}

	var lawyers []models.Lawyer
	err := r.filtered(ctx, filter).
		Select("lawyers.*").
		Preload("LawFirm").
		Order("lawyers.name ASC").
		Offset(offset).Limit(limit).
		Find(&lawyers).Error
	return lawyers, total, err
}

func (r *lawyerRepository) filtered(ctx context.Context, filter LawyerFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Lawyer{})
	if filter.Tier != "" {
		query = query.Where("lawyers.tier = ?", filter.Tier)
	}
	if filter.LawFirmID != 0 {
		query = query.Where("lawyers.law_firm_id = ?", filter.LawFirmID)
	}
	if len(filter.ZipCodes) > 0 {
		query = query.
			Joins("LEFT JOIN law_firms ON law_firms.id = lawyers.law_firm_id").
			Where("lawyers.office_zip_code IN ? OR law_firms.zip_code IN ?", filter.ZipCodes, filter.ZipCodes)
	}
	return query
}

// SlugExistsExceptID checks if a slug exists excluding a specific lawyer ID
func (r *lawyerRepository) SlugExistsExceptID(ctx context.Context, slug string, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Lawyer{}).
		Where("slug = ? AND id != ?", slug, id).Count(&count).Error
	return count > 0, err
}
