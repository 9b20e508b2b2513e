package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Region is a designated market area (DMA). Code is the external Nielsen
// identifier; Slug is derived from Name when the region is first created.
type Region struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        int       `gorm:"uniqueIndex;not null" json:"code" validate:"required,gt=0"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	Slug        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug" validate:"required,min=1,max=255"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Region model
func (Region) TableName() string {
	return "regions"
}

func (r *Region) Validate() error {
	v := validator.New()
	return v.Struct(r)
}

// RegionWithZipCount is a region plus the number of zip codes mapped to it.
type RegionWithZipCount struct {
	Region
	ZipCount int64 `json:"zip_count"`
}

func FindRegionBySlug(db *gorm.DB, slug string) (*Region, error) {
	var region Region
	err := db.Where("slug = ?", slug).First(&region).Error
	if err != nil {
		return nil, err
	}
	return &region, nil
}
