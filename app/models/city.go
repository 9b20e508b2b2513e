package models

import "github.com/go-playground/validator/v10"

// City is the owning city of zip codes in the location taxonomy.
type City struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	StateCode string `gorm:"type:char(2);index;not null" json:"state_code" validate:"required,len=2,alpha"`
	Slug      string `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug" validate:"required,min=1,max=255"`
}

// TableName specifies the table name for the City model
func (City) TableName() string {
	return "cities"
}

func (c *City) Validate() error {
	v := validator.New()
	return v.Struct(c)
}

