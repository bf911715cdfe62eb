package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
)

// RunMigrations brings the ledger schema in dir up to date. A database left
// dirty by an interrupted run is reported instead of migrated further.
func RunMigrations(databaseURL, dir string, logger zerolog.Logger) error {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return fmt.Errorf("open migrations in %s: %w", dir, err)
	}
	defer m.Close()

	before, dirty, err := schemaVersion(m)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("schema is dirty at version %d, fix it by hand before starting", before)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info().Uint("version", before).Msg("schema up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	after, _, err := schemaVersion(m)
	if err != nil {
		return err
	}
	logger.Info().Uint("from", before).Uint("to", after).Msg("schema migrated")
	return nil
}

// schemaVersion reports version 0 for a database that was never migrated.
func schemaVersion(m *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}
