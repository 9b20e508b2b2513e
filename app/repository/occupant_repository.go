package repository

import (
	"context"
	"fmt"

	"github.com/attorneymap/attorneymap/app/models"
	"gorm.io/gorm"
)

// OccupancyPath names one way a lawyer can be located inside a zip code.
type OccupancyPath string

const (
	// PathDirect locates a lawyer by their own office zip code.
	PathDirect OccupancyPath = "direct"
	// PathParent locates a lawyer by the zip code of their law firm.
	PathParent OccupancyPath = "parent"
)

// occupantRepository implements the OccupantRepository interface
type occupantRepository struct {
	db *gorm.DB
}

// NewOccupantRepository creates a new occupant repository instance
func NewOccupantRepository(db *gorm.DB) OccupantRepository {
	return &occupantRepository{db: db}
}

// OccupantIDs returns the IDs of lawyers with the given tier located in any
// of zips via path. Callers chunk zips to keep the IN list bounded.
func (r *occupantRepository) OccupantIDs(ctx context.Context, path OccupancyPath, tier models.Tier, zips []string) ([]uint, error) {
	if len(zips) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Lawyer{}).Where("lawyers.tier = ?", tier)
	switch path {
	case PathDirect:
		query = query.Where("lawyers.office_zip_code IN ?", zips)
	case PathParent:
		query = query.
			Joins("JOIN law_firms ON law_firms.id = lawyers.law_firm_id").
			Where("law_firms.zip_code IN ?", zips)
	default:
		return nil, fmt.Errorf("unknown occupancy path %q", path)
	}

	var ids []uint
	err := query.Distinct().Pluck("lawyers.id", &ids).Error
	return ids, err
}
