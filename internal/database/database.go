package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"retracker/server/config"
	"retracker/server/internal/models"
)

type Database struct {
	db *gorm.DB
}

// NewDatabase opens the PostgreSQL connection pool. Pool limits are fixed
// once here; exhaustion later surfaces to callers as a storage failure,
// never a crash. TranslateError turns driver unique-key violations into
// gorm.ErrDuplicatedKey so the store can classify them.
func NewDatabase(cfg *config.Config) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) DB() *gorm.DB {
	return d.db
}

// RunMigrations creates the properties table and, on PostgreSQL, the GIN
// index backing containment lookups on the enrichment document.
func (d *Database) RunMigrations() error {
	return MigrateSchema(d.db)
}

// MigrateSchema applies the schema to any gorm connection (the test helper
// uses it against SQLite, where the GIN index is skipped).
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Property{}); err != nil {
		return fmt.Errorf("failed to migrate properties table: %w", err)
	}
	if db.Dialector.Name() == "postgres" {
		err := db.Exec(`
			CREATE INDEX IF NOT EXISTS idx_properties_rentcast_data
			ON properties USING GIN (rentcast_data)
		`).Error
		if err != nil {
			return fmt.Errorf("failed to create rentcast_data index: %w", err)
		}
	}
	return nil
}

// Ping checks storage connectivity for the health endpoint.
func (d *Database) Ping() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
