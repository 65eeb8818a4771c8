package postgres

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

// RunMigrations applies every pending up migration found in fsys.
func RunMigrations(fsys fs.FS, dsn string) error {
	const op = "postgres.RunMigrations"

	m, err := newMigrate(fsys, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return nil
}

// RollbackMigrations reverts every applied migration.
func RollbackMigrations(fsys fs.FS, dsn string) error {
	const op = "postgres.RollbackMigrations"

	m, err := newMigrate(fsys, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to rollback migrations: %w", op, err)
	}

	return nil
}

func newMigrate(fsys fs.FS, dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithSourceInstance("iofs", src, dsn)
}
