package repository

import (
	"context"

	"github.com/attorneymap/attorneymap/app/models"
	"gorm.io/gorm"
)

// RegionRepository defines the interface for region (DMA) database operations
type RegionRepository interface {
	Create(ctx context.Context, region *models.Region) error
	GetByID(ctx context.Context, id uint) (*models.Region, error)
	GetByCode(ctx context.Context, code int) (*models.Region, error)
	GetBySlug(ctx context.Context, slug string) (*models.Region, error)
	Update(ctx context.Context, region *models.Region) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]models.Region, error)
	ListWithZipCounts(ctx context.Context) ([]models.RegionWithZipCount, error)
	SlugExistsExceptID(ctx context.Context, slug string, id uint) (bool, error)
}

// ZipCodeRepository defines the interface for zip code database operations
type ZipCodeRepository interface {
	GetByValue(ctx context.Context, value string) (*models.ZipCode, error)
	ListPage(ctx context.Context, afterID uint, limit int) ([]models.ZipCode, error)
	CreateBatch(ctx context.Context, values []string) ([]models.ZipCode, error)
	GetOrCreate(ctx context.Context, value string) (*models.ZipCode, bool, error)
}

// ZipRegionMappingRepository defines the interface for zip-to-region assignments
type ZipRegionMappingRepository interface {
	ListPage(ctx context.Context, afterID uint, limit int) ([]models.ZipRegionMapping, error)
	Replace(ctx context.Context, zipCodeID, regionID uint) error
	DeleteByZipCodeID(ctx context.Context, zipCodeID uint) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	GetRegionForZip(ctx context.Context, value string) (*models.Region, error)
	ZipValuesForRegion(ctx context.Context, regionID uint) ([]string, error)
	ListDetailed(ctx context.Context) ([]MappingExport, error)
}

// SubscriptionLimitRepository defines the interface for subscription limit rows
type SubscriptionLimitRepository interface {
	List(ctx context.Context) ([]models.SubscriptionLimit, error)
	Find(ctx context.Context, scope models.LimitScope, location string, tier models.Tier) (*models.SubscriptionLimit, error)
	ListByLocation(ctx context.Context, scope models.LimitScope, location string) ([]models.SubscriptionLimit, error)
	ReplaceLocation(ctx context.Context, scope models.LimitScope, location string, rows []models.SubscriptionLimit) error
	DeleteLocation(ctx context.Context, scope models.LimitScope, location string) (int64, error)
}

// OccupantRepository answers which lawyers of a tier are located in a zip set
type OccupantRepository interface {
	OccupantIDs(ctx context.Context, path OccupancyPath, tier models.Tier, zips []string) ([]uint, error)
}

// LawyerFilter narrows a lawyer listing. Zero fields match every lawyer.
type LawyerFilter struct {
	Tier      models.Tier
	LawFirmID uint
	// ZipCodes matches lawyers whose office or whose firm is in any of these zips
	ZipCodes  []string
}

// LawyerRepository defines the interface for lawyer listings
type LawyerRepository interface {
	Create(ctx context.Context, lawyer *models.Lawyer) error
	GetByID(ctx context.Context, id uint) (*models.Lawyer, error)
	GetBySlug(ctx context.Context, slug string) (*models.Lawyer, error)
	Update(ctx context.Context, lawyer *models.Lawyer) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter LawyerFilter, offset, limit int) ([]models.Lawyer, int64, error)
	SlugExistsExceptID(ctx context.Context, slug string, id uint) (bool, error)
}

// LawFirmRepository defines the interface for law firm listings
type LawFirmRepository interface {
	Create(ctx context.Context, firm *models.LawFirm) error
	GetByID(ctx context.Context, id uint) (*models.LawFirm, error)
	GetBySlug(ctx context.Context, slug string) (*models.LawFirm, error)
	Update(ctx context.Context, firm *models.LawFirm) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]models.LawFirm, int64, error)
	SlugExistsExceptID(ctx context.Context, slug string, id uint) (bool, error)
}

// CityRepository defines the interface for cities and their zip codes
type CityRepository interface {
	Create(ctx context.Context, city *models.City) error
	GetByID(ctx context.Context, id uint) (*models.City, error)
	GetBySlug(ctx context.Context, slug string) (*models.City, error)
	Update(ctx context.Context, city *models.City) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, stateCode string) ([]models.City, error)
	SlugExistsExceptID(ctx context.Context, slug string, id uint) (bool, error)
	ZipValues(ctx context.Context, cityID uint) ([]string, error)
	AssignZip(ctx context.Context, cityID uint, zip string) (*models.ZipCode, error)
	UnassignZip(ctx context.Context, zip string) (bool, error)
}

// ImportRunRepository defines the interface for persisted import reports
type ImportRunRepository interface {
	Create(ctx context.Context, run *models.ImportRun) error
	Update(ctx context.Context, run *models.ImportRun) error
	GetByID(ctx context.Context, id uint) (*models.ImportRun, error)
	GetByUUID(ctx context.Context, uuid string) (*models.ImportRun, error)
	List(ctx context.Context, offset, limit int) ([]models.ImportRun, error)
}

// ArticleRepository defines the interface for article-related operations
type ArticleRepository interface {
	Create(article *models.Article) error
	GetByID(id uint) (*models.Article, error)
	GetBySlug(slug string) (*models.Article, error)
	GetPublished(offset, limit int) ([]models.Article, error)
	GetAll(offset, limit int) ([]models.Article, error)
	Update(article *models.Article) error
	Delete(id uint) error
	Count() (int64, error)
	SlugExists(slug string) (bool, error)
	SlugExistsExceptID(slug string, id uint) (bool, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// MappingExport is a flattened zip-to-region row used for backups
type MappingExport struct {
	ZipCode    string `json:"zip_code"`
	RegionID   uint   `json:"region_id"`
	RegionCode int    `json:"region_code"`
	RegionName string `json:"region_name"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	Region            RegionRepository
	ZipCode           ZipCodeRepository
	ZipRegionMapping  ZipRegionMappingRepository
	SubscriptionLimit SubscriptionLimitRepository
	Occupant          OccupantRepository
	Lawyer            LawyerRepository
	LawFirm           LawFirmRepository
	City              CityRepository
	ImportRun         ImportRunRepository
	Article           ArticleRepository
	Setting           SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Region:            NewRegionRepository(db),
		ZipCode:           NewZipCodeRepository(db),
		ZipRegionMapping:  NewZipRegionMappingRepository(db),
		SubscriptionLimit: NewSubscriptionLimitRepository(db),
		Occupant:          NewOccupantRepository(db),
		Lawyer:            NewLawyerRepository(db),
		LawFirm:           NewLawFirmRepository(db),
		City:              NewCityRepository(db),
		ImportRun:         NewImportRunRepository(db),
		Article:           NewArticleRepository(db),
		Setting:           NewSettingRepository(db),
	}
}
