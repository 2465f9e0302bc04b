package persistence

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // PostgreSQL driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // File source driver
)

// MigrationStatus reports the schema version recorded by migrate
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

func newMigrate(databaseURL, migrationsPath string) (*migrate.Migrate, error) {
	if migrationsPath == "" {
		return nil, errors.New("migrations path cannot be empty")
	}
	if databaseURL == "" {
		return nil, errors.New("database URL cannot be empty")
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate) error {
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}
	return nil
}

// RunMigrations applies all pending up migrations from migrationsPath (e.g. ./migrations/postgres)
func RunMigrations(databaseURL string, migrationsPath string) error {
	m, err := newMigrate(databaseURL, migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_ = closeMigrate(m)
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return closeMigrate(m)
}

// RollbackMigrations reverts the given number of applied migrations
func RollbackMigrations(databaseURL string, migrationsPath string, steps int) error {
	if steps <= 0 {
		return errors.New("rollback steps must be positive")
	}
	m, err := newMigrate(databaseURL, migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_ = closeMigrate(m)
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	return closeMigrate(m)
}

// MigrationVersion reads the current schema version; a fresh database reports version 0
func MigrationVersion(databaseURL string, migrationsPath string) (MigrationStatus, error) {
	m, err := newMigrate(databaseURL, migrationsPath)
	if err != nil {
		return MigrationStatus{}, err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		_ = closeMigrate(m)
		return MigrationStatus{}, fmt.Errorf("failed to read migration version: %w", err)
	}

	return MigrationStatus{Version: version, Dirty: dirty}, closeMigrate(m)
}
