package repository

import (
	"context"

	"github.com/attorneymap/attorneymap/app/models"
	"gorm.io/gorm"
)

// subscriptionLimitRepository implements the SubscriptionLimitRepository interface
type subscriptionLimitRepository struct {
	db *gorm.DB
}

// NewSubscriptionLimitRepository creates a new subscription limit repository instance
func NewSubscriptionLimitRepository(db *gorm.DB) SubscriptionLimitRepository {
	return &subscriptionLimitRepository{db: db}
}

// List retrieves all limit rows, global rows first
func (r *subscriptionLimitRepository) List(ctx context.Context) ([]models.SubscriptionLimit, error) {
	var rows []models.SubscriptionLimit
	err := r.db.WithContext(ctx).Order("scope ASC, location_value ASC, tier ASC").Find(&rows).Error
	return rows, err
}

// Find retrieves the limit row for one (scope, location, tier) key
func (r *subscriptionLimitRepository) Find(ctx context.Context, scope models.LimitScope, location string, tier models.Tier) (*models.SubscriptionLimit, error) {
	var row models.SubscriptionLimit
	err := r.db.WithContext(ctx).
		Where("scope = ? AND location_value = ? AND tier = ?", scope, location, tier).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByLocation retrieves all tier rows stored for one location
func (r *subscriptionLimitRepository) ListByLocation(ctx context.Context, scope models.LimitScope, location string) ([]models.SubscriptionLimit, error) {
	var rows []models.SubscriptionLimit
	err := r.db.WithContext(ctx).
		Where("scope = ? AND location_value = ?", scope, location).
		Find(&rows).Error
	return rows, err
}

// ReplaceLocation deletes every row for a location and inserts rows in its
// place inside a single transaction.
func (r *subscriptionLimitRepository) ReplaceLocation(ctx context.Context, scope models.LimitScope, location string, rows []models.SubscriptionLimit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scope = ? AND location_value = ?", scope, location).
			Delete(&models.SubscriptionLimit{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].ID = 0
			rows[i].Scope = scope
			rows[i].LocationValue = location
		}
		return tx.Create(&rows).Error
	})
}

// DeleteLocation removes every row for a location
func (r *subscriptionLimitRepository) DeleteLocation(ctx context.Context, scope models.LimitScope, location string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("scope = ? AND location_value = ?", scope, location).
		Delete(&models.SubscriptionLimit{})
	return result.RowsAffected, result.Error
}
