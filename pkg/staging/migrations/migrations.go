package migrations

import (
	"embed"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Migrator applies the embedded schema for one warehouse.
type Migrator struct {
	m *migrate.Migrate
}

// New accepts a postgres:// DSN for Postgres and a file path for SQLite.
func New(warehouse, dsn string) (*Migrator, error) {
	dir, dbURL, err := target(warehouse, dsn)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(files, dir)
	if err != nil {
		return nil, errors.Wrap(err, "[storage error] unable to open embedded migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, errors.Wrap(err, "[storage error] unable to create migrator")
	}
	return &Migrator{m: m}, nil
}

func target(warehouse, dsn string) (string, string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", "", errors.Errorf("[storage error] missing dsn for %s warehouse", warehouse)
	}
	switch warehouse {
	case Postgres:
		for _, scheme := range []string{"postgresql://", "postgres://"} {
			if strings.HasPrefix(dsn, scheme) {
				return "postgres", "pgx://" + strings.TrimPrefix(dsn, scheme), nil
			}
		}
		return "", "", errors.Errorf("[storage error] unsupported postgres dsn %q", dsn)
	case SQLite:
		return "sqlite", "sqlite://" + strings.TrimPrefix(dsn, "sqlite://"), nil
	default:
		return "", "", errors.Errorf("[storage error] unknown warehouse %q", warehouse)
	}
}

// Up applies every pending migration. Being already current is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "[storage error] unable to apply migrations")
	}
	return nil
}

func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return errors.Errorf("[storage error] down steps must be > 0, got %d", steps)
	}
	if err := m.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrapf(err, "[storage error] unable to roll back %d migration(s)", steps)
	}
	return nil
}

// Version reports 0 when nothing has been applied yet.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "[storage error] unable to read migration version")
	}
	return version, dirty, nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		return errors.Wrap(srcErr, "[storage error] unable to close migration source")
	}
	if dbErr != nil {
		return errors.Wrap(dbErr, "[storage error] unable to close migration database")
	}
	return nil
}
