package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// DB exposes the connection the repositories were built on
func (f *Factory) DB() *gorm.DB {
	return f.db
}

func (f *Factory) GetRegionRepository() RegionRepository {
	return f.GetRepositories().Region
}

func (f *Factory) GetZipCodeRepository() ZipCodeRepository {
	return f.GetRepositories().ZipCode
}

func (f *Factory) GetZipRegionMappingRepository() ZipRegionMappingRepository {
	return f.GetRepositories().ZipRegionMapping
}

func (f *Factory) GetSubscriptionLimitRepository() SubscriptionLimitRepository {
	return f.GetRepositories().SubscriptionLimit
}

func (f *Factory) GetOccupantRepository() OccupantRepository {
	return f.GetRepositories().Occupant
}

func (f *Factory) GetLawyerRepository() LawyerRepository {
	return f.GetRepositories().Lawyer
}

func (f *Factory) GetLawFirmRepository() LawFirmRepository {
	return f.GetRepositories().LawFirm
}

func (f *Factory) GetCityRepository() CityRepository {
	return f.GetRepositories().City
}

func (f *Factory) GetImportRunRepository() ImportRunRepository {
	return f.GetRepositories().ImportRun
}

// GetArticleRepository returns the article repository instance
func (f *Factory) GetArticleRepository() ArticleRepository {
	return f.GetRepositories().Article
}

// GetSettingRepository returns the setting repository instance
func (f *Factory) GetSettingRepository() SettingRepository {
	return f.GetRepositories().Setting
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
