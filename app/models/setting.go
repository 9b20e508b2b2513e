package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings represents the application settings structure
type AppSettings struct {
	SiteTitle          string `json:"site_title" validate:"required,min=1,max=255"`
	SiteDescription    string `json:"site_description" validate:"max=500"`
	JobQueueWorkers    int    `json:"job_queue_workers" validate:"min=1,max=16"`
	LimitScanWorkers   int    `json:"limit_scan_workers" validate:"min=1,max=32"`
	LimitScanBatchSize int    `json:"limit_scan_batch_size" validate:"min=1,max=5000"`
	LookupErrorLogCap  int    `json:"lookup_error_log_cap" validate:"min=0,max=1000"`
	LimitScanInterval  int    `json:"limit_scan_interval_hours" validate:"min=0,max=168"`
	mu                 sync.RWMutex
}

// Global settings instance
var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// DefaultAppSettings returns the settings used before anything is stored.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		SiteTitle:          "AttorneyMap",
		SiteDescription:    "Find law firms and lawyers near you",
		JobQueueWorkers:    1,
		LimitScanWorkers:   4,
		LimitScanBatchSize: 1000,
		LookupErrorLogCap:  10,
		LimitScanInterval:  0,
	}
}

// GetAppSettings returns the current application settings
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	if appSettings == nil {
		return DefaultAppSettings()
	}
	return appSettings
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	loaded := DefaultAppSettings()

	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			loaded.SiteTitle = setting.Value
		case "site_description":
			loaded.SiteDescription = setting.Value
		case "job_queue_workers":
			loaded.JobQueueWorkers = atoiOr(setting.Value, loaded.JobQueueWorkers)
		case "limit_scan_workers":
			loaded.LimitScanWorkers = atoiOr(setting.Value, loaded.LimitScanWorkers)
		case "limit_scan_batch_size":
			loaded.LimitScanBatchSize = atoiOr(setting.Value, loaded.LimitScanBatchSize)
		case "lookup_error_log_cap":
			loaded.LookupErrorLogCap = atoiOr(setting.Value, loaded.LookupErrorLogCap)
		case "limit_scan_interval_hours":
			loaded.LimitScanInterval = atoiOr(setting.Value, loaded.LimitScanInterval)
		}
	}

	appSettings = loaded
	return nil
}

// SaveSettings saves current settings to database
func SaveSettings(db *gorm.DB, settings *AppSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settingsMu.Lock()
	defer settingsMu.Unlock()

	for key, value := range settings.toMap() {
		var setting Setting
		result := db.Where("setting_key = ?", key).First(&setting)

		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				setting = Setting{
					Key:   key,
					Value: value,
					Type:  getSettingType(key),
				}
				if err := db.Create(&setting).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", key, err)
				}
			} else {
				return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
			}
		} else {
			setting.Value = value
			if err := db.Save(&setting).Error; err != nil {
				return fmt.Errorf("failed to update setting %s: %w", key, err)
			}
		}
	}

	appSettings = settings
	return nil
}

func (s *AppSettings) toMap() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]string{
		"site_title":                s.SiteTitle,
		"site_description":          s.SiteDescription,
		"job_queue_workers":         strconv.Itoa(s.JobQueueWorkers),
		"limit_scan_workers":        strconv.Itoa(s.LimitScanWorkers),
		"limit_scan_batch_size":     strconv.Itoa(s.LimitScanBatchSize),
		"lookup_error_log_cap":      strconv.Itoa(s.LookupErrorLogCap),
		"limit_scan_interval_hours": strconv.Itoa(s.LimitScanInterval),
	}
}

// getSettingType returns the type of a setting based on its key
func getSettingType(key string) string {
	switch key {
	case "job_queue_workers", "limit_scan_workers", "limit_scan_batch_size", "lookup_error_log_cap", "limit_scan_interval_hours":
		return "integer"
	default:
		return "string"
	}
}

func atoiOr(value string, def int) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}

// Validate validates the settings
func (s *AppSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// ToJSON converts settings to JSON
func (s *AppSettings) ToJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s)
}

// FromJSON loads settings from JSON
func (s *AppSettings) FromJSON(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, s)
}

// GetSiteTitle returns the site title
func (s *AppSettings) GetSiteTitle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SiteTitle
}

// GetJobQueueWorkerCount returns the number of job queue workers
func (s *AppSettings) GetJobQueueWorkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.JobQueueWorkers <= 0 {
		return 1
	}
	return s.JobQueueWorkers
}

// GetLimitScanWorkers returns how many regions the limit scan checks in parallel
func (s *AppSettings) GetLimitScanWorkers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LimitScanWorkers <= 0 {
		return 1
	}
	return s.LimitScanWorkers
}

// GetLimitScanBatchSize returns the zip filter chunk size used by the limit scan
func (s *AppSettings) GetLimitScanBatchSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LimitScanBatchSize <= 0 {
		return 1000
	}
	return s.LimitScanBatchSize
}

// GetLookupErrorLogCap returns how many lookup failures are itemized per import
func (s *AppSettings) GetLookupErrorLogCap() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LookupErrorLogCap
}

// GetLimitScanInterval returns how often the scheduled limit scan runs; zero disables it
func (s *AppSettings) GetLimitScanInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LimitScanInterval <= 0 {
		return 0
	}
	return time.Duration(s.LimitScanInterval) * time.Hour
}
