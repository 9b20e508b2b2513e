package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/internal/pkg/env"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

// DB is the process-wide connection, set by SetupDatabase.
var DB *gorm.DB

// GetDB returns the process-wide connection (nil before SetupDatabase).
func GetDB() *gorm.DB {
	return DB
}

// SQLDB returns the pooled *sql.DB behind DB, used for MySQL named locks.
func SQLDB() *sql.DB {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return nil
	}
	return sqlDB
}

// DSN builds the MySQL data source name from the environment.
func DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)
}

func SetupDatabase() {
	var err error
	gormLogger := logger.Default.LogMode(logger.Warn)
	if env.IsDev() {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       DSN(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{Logger: gormLogger})
		if err == nil {
			// Schema is owned by cmd/migrate; AutoMigrate only fills gaps in dev.
			if env.IsDev() && env.GetEnv("DB_AUTOMIGRATE", "false") == "true" {
				if err := AutoMigrate(DB); err != nil {
					log.Printf("AutoMigrate failed: %v", err)
				}
			}
			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retry in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// AutoMigrate creates or updates every table the application uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Region{},
		&models.ZipCode{},
		&models.ZipRegionMapping{},
		&models.City{},
		&models.LawFirm{},
		&models.Lawyer{},
		&models.SubscriptionLimit{},
		&models.ImportRun{},
		&models.Article{},
		&models.Setting{},
	)
}
