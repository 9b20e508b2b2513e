package repository

import (
	"context"

	"github.com/attorneymap/attorneymap/app/models"
	"gorm.io/gorm"
)

// lawFirmRepository implements the LawFirmRepository interface
type lawFirmRepository struct {
	db *gorm.DB
}

// NewLawFirmRepository creates a new law firm repository instance
func NewLawFirmRepository(db *gorm.DB) LawFirmRepository {
	return &lawFirmRepository{db: db}
}

func (r *lawFirmRepository) Create(ctx context.Context, firm *models.LawFirm) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(firm).Error)
}

func (r *lawFirmRepository) GetByID(ctx context.Context, id uint) (*models.LawFirm, error) {
	var firm models.LawFirm
	err := r.db.WithContext(ctx).First(&firm, id).Error
	if err != nil {
		return nil, err
	}
	return &firm, nil
}

func (r *lawFirmRepository) GetBySlug(ctx context.Context, slug string) (*models.LawFirm, error) {
	var firm models.LawFirm
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&firm).Error
	if err != nil {
		return nil, err
	}
	return &firm, nil
}

func (r *lawFirmRepository) Update(ctx context.Context, firm *models.LawFirm) error {
	return translateDuplicate(r.db.WithContext(ctx).Save(firm).Error)
}

// Delete detaches the firm's lawyers, then removes the firm
func (r *lawFirmRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Lawyer{}).Where("law_firm_id = ?", id).
			Update("law_firm_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.LawFirm{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List returns one page of firms ordered by name and the total count
func (r *lawFirmRepository) List(ctx context.Context, offset, limit int) ([]models.LawFirm, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.LawFirm{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var firms []models.LawFirm
	err := r.db.WithContext(ctx).Order("name ASC").Offset(offset).Limit(limit).Find(&firms).Error
	return firms, total, err
}

func (r *lawFirmRepository) SlugExistsExceptID(ctx context.Context, slug string, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LawFirm{}).
		Where("slug = ? AND id != ?", slug, id).Count(&count).Error
	return count > 0, err
}
