package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	statdomain "github.com/aptrend/aptrend/internal/statistic/domain"
	tradedomain "github.com/aptrend/aptrend/internal/trade/domain"
)

//go:embed sql/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "sql"

// RunMigrations applies the embedded SQL against postgres. Versioned SQL
// keeps the partial unique index on apartments, which AutoMigrate cannot
// express on every dialect.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate is the fallback for non-postgres dialects (sqlite and mysql
// in dev setups) where the embedded SQL does not apply.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&regiondomain.Region{},
		&aptdomain.Apartment{},
		&aptdomain.Detail{},
		&tradedomain.SaleTransaction{},
		&tradedomain.RentTransaction{},
		&statdomain.PriceIndex{},
		&statdomain.TradingVolume{},
	)
}
