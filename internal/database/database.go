// Package database opens the relational store and keeps its schema current.
package database

import (
	"fmt"
	"time"

	"penloft/internal/config"
	"penloft/internal/middleware"
	"penloft/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// PersistentModels returns the schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
	}
}

// Dialector picks the GORM driver for cfg.StorageDriver.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		sslMode := cfg.DBSSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, sslMode,
		)
		return postgres.Open(dsn), nil
	case config.StorageSQLite:
		return sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("storage driver %q has no SQL dialector", cfg.StorageDriver)
	}
}

// Connect opens the database described by cfg and migrates it.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := Open(dialector)
	if err != nil {
		return nil, err
	}
	middleware.Logger.Info("Database connected successfully", "driver", cfg.StorageDriver)

	if cfg.StorageDriver == config.StoragePostgres {
		configurePool(db)
	}
	return db, nil
}

// Open connects through dialector with the slog-backed logger and runs
// AutoMigrate.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(middleware.Logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func configurePool(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
}
