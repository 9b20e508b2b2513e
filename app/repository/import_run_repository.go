package repository

import (
	"context"

	"github.com/attorneymap/attorneymap/app/models"
	"gorm.io/gorm"
)

// importRunRepository implements the ImportRunRepository interface
type importRunRepository struct {
	db *gorm.DB
}

// NewImportRunRepository creates a new import run repository instance
func NewImportRunRepository(db *gorm.DB) ImportRunRepository {
	return &importRunRepository{db: db}
}

// Create creates a new import run in the database
func (r *importRunRepository) Create(ctx context.Context, run *models.ImportRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update saves an existing import run
func (r *importRunRepository) Update(ctx context.Context, run *models.ImportRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// GetByID retrieves an import run by its ID
func (r *importRunRepository) GetByID(ctx context.Context, id uint) (*models.ImportRun, error) {
	var run models.ImportRun
	err := r.db.WithContext(ctx).First(&run, id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetByUUID retrieves an import run by its UUID
func (r *importRunRepository) GetByUUID(ctx context.Context, uuid string) (*models.ImportRun, error) {
	var run models.ImportRun
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List retrieves import runs newest first, without their full reports
func (r *importRunRepository) List(ctx context.Context, offset, limit int) ([]models.ImportRun, error) {
	var runs []models.ImportRun
	err := r.db.WithContext(ctx).Omit("report").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&runs).Error
	return runs, err
}
