package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Lawyer is an individual directory listing and the occupant counted by
// the subscription limit scan.
type Lawyer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	Slug          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug" validate:"required,min=1,max=255"`
	Tier          Tier      `gorm:"type:varchar(16);not null;default:'free';index" json:"tier" validate:"required,oneof=free basic enhanced premium"`
	OfficeZipCode *string   `gorm:"type:char(5);index" json:"office_zip_code,omitempty" validate:"omitempty,len=5,numeric"`
	LawFirmID     *uint     `gorm:"index" json:"law_firm_id,omitempty"`
	LawFirm       *LawFirm  `gorm:"foreignKey:LawFirmID" json:"law_firm,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Lawyer model
func (Lawyer) TableName() string {
	return "lawyers"
}

func (l *Lawyer) Validate() error {
	v := validator.New()
	return v.Struct(l)
}
