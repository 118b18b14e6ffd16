package database

import (
	"fmt"
	"time"

	"condo-whatsapp/internal/config"
	"condo-whatsapp/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// InitGorm opens the configured database and runs the auto migration.
func InitGorm(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, fmt.Errorf("gorm tracing: %w", err)
		}
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto migration: %w", err)
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("database migration completed")
	return db, nil
}

// Open connects without migrating. The maintenance tools use it directly.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DBPath), gcfg)
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// SyncConfig seeds the whatsapp_config table from the environment when no
// active configuration exists yet. An existing row always wins.
func SyncConfig(db *gorm.DB, cfg *config.Config) error {
	if cfg.WhatsAppProvider == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.WhatsAppConfig{}).Where("is_active = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Debug().Msg("whatsapp config already present in database")
		return nil
	}

	row := models.WhatsAppConfig{
		Provider:   cfg.WhatsAppProvider,
		APIURL:     cfg.WhatsAppAPIURL,
		APIKey:     cfg.WhatsAppToken,
		InstanceID: cfg.PhoneNumberID,
		IsActive:   true,
	}
	if row.Provider == models.ProviderMeta {
		row.UseOfficialAPI = true
		row.UseWabaTemplates = true
	}
	if err := db.Create(&row).Error; err != nil {
		return err
	}
	log.Info().Str("provider", row.Provider).Msg("whatsapp config seeded from environment")
	return nil
}
