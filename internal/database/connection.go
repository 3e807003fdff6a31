package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minhwang72/monsil-wedding/internal/config"
	"github.com/minhwang72/monsil-wedding/internal/models"
	"github.com/minhwang72/monsil-wedding/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database

	logLevel := logger.Warn
	if dbCfg.LogSQL {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	var dialector gorm.Dialector
	switch dbCfg.Driver {
	case "mysql":
		logrus.WithFields(logrus.Fields{
			"host":   dbCfg.Host,
			"dbname": dbCfg.DBName,
		}).Info("using MySQL database")
		dialector = mysql.Open(cfg.GetDSN())
	case "sqlite":
		if dir := filepath.Dir(dbCfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		logrus.WithField("path", dbCfg.SQLitePath).Info("using SQLite database")
		dialector = sqlite.Open(dbCfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbCfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("database connected")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.GalleryImage{},
		&models.GuestbookEntry{},
		&models.Contact{},
		&models.Admin{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	logrus.Info("database migration complete")
	return nil
}

// EnsureAdmin seeds the configured admin account when the admin table is empty.
func EnsureAdmin(db *gorm.DB, cfg config.AdminConfig) error {
	var count int64
	if err := db.Model(&models.Admin{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.Password == "" {
		return errors.New("admin table is empty and ADMIN_PASSWORD is not set")
	}

	hash, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	admin := models.Admin{
		Username:     cfg.Username,
		PasswordHash: hash,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin %s: %w", cfg.Username, err)
	}
	logrus.WithField("username", cfg.Username).Info("default admin account created")
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
