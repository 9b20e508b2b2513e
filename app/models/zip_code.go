package models

// ZipCode is a canonical five digit US zip code, optionally owned by a city.
type ZipCode struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Value  string `gorm:"type:char(5);uniqueIndex;not null" json:"value"`
	CityID *uint  `gorm:"index" json:"city_id,omitempty"`
	City   *City  `gorm:"foreignKey:CityID" json:"city,omitempty"`
}

// TableName specifies the table name for the ZipCode model
func (ZipCode) TableName() string {
	return "zip_codes"
}

// ZipRegionMapping assigns a zip code to a region. The unique index on
// ZipCodeID keeps the relation functional: a zip belongs to at most one region.
type ZipRegionMapping struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ZipCodeID uint    `gorm:"uniqueIndex;not null" json:"zip_code_id"`
	ZipCode   ZipCode `gorm:"foreignKey:ZipCodeID" json:"zip_code"`
	RegionID  uint    `gorm:"index;not null" json:"region_id"`
	Region    Region  `gorm:"foreignKey:RegionID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for the ZipRegionMapping model
func (ZipRegionMapping) TableName() string {
	return "zip_region_mappings"
}
