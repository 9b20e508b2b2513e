package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// LawFirm is a directory organization. The limit scan counts a lawyer in a
// region through their own office zip and through their firm's zip; a lawyer
// reached both ways is counted once.
type LawFirm struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	Slug      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug" validate:"required,min=1,max=255"`
	ZipCode   *string   `gorm:"type:char(5);index" json:"zip_code,omitempty" validate:"omitempty,len=5,numeric"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the LawFirm model
func (LawFirm) TableName() string {
	return "law_firms"
}

func (f *LawFirm) Validate() error {
	v := validator.New()
	return v.Struct(f)
}
