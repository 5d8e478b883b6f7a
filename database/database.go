package database

import (
	"fmt"
	"log/slog"

	"parity-app/internal/domain/billing"
	"parity-app/internal/domain/countries"
	"parity-app/internal/domain/products"
	"parity-app/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB connects to Postgres, prepares extensions and enum types, and migrates all models.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return nil, fmt.Errorf("enable pgcrypto extension: %w", err)
	}

	if err := db.Exec(`
		DO $$ BEGIN
			CREATE TYPE tier AS ENUM ('Free', 'Basic', 'Standard', 'Premium');
		EXCEPTION
			WHEN duplicate_object THEN NULL;
		END $$;`).Error; err != nil {
		return nil, fmt.Errorf("create tier enum: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	slog.Info("connected and migrated database")
	return db, nil
}

// Migrate creates or updates every table. Parents come before children so
// foreign keys resolve.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// countries
		&countries.CountryGroup{},
		&countries.Country{},

		// products
		&products.Product{},
		&products.ProductCustomization{},
		&products.ProductView{},
		&products.CountryGroupDiscount{},

		// users
		&users.UserSubscription{},

		// webhook log
		&billing.WebhookEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
