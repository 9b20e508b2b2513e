package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Article represents an editorial article in the directory
type Article struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"type:varchar(255)" json:"title" validate:"required,min=3,max=255"`
	Content     string         `gorm:"type:text" json:"content" validate:"required"`
	Slug        string         `gorm:"uniqueIndex;type:varchar(255)" json:"slug" validate:"required,min=1,max=255"`
	Excerpt     string         `gorm:"type:varchar(500)" json:"excerpt" validate:"max=500"`
	Published   bool           `gorm:"type:tinyint(1);default:0" json:"published"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	ViewCount   uint64         `gorm:"default:0" json:"view_count"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Article model
func (Article) TableName() string {
	return "articles"
}

func (a *Article) Validate() error {
	v := validator.New()
	return v.Struct(a)
}
