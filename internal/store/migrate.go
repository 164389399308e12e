package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL database/sql driver
)

const (
	settingsTable   = "kscore_settings"
	migrationsTable = "kscore_schema_migrations"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the settings schema of a SQL backend up to date.
func Migrate(backend Backend, dsn string) error {
	db, err := sql.Open(driverName(backend), dsn)
	if err != nil {
		return fmt.Errorf("open %s database: %w", backend, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping %s database: %w", backend, err)
	}
	return migrateDB(backend, db)
}

func migrateDB(backend Backend, db *sql.DB) error {
	var (
		driver database.Driver
		err    error
	)
	switch backend {
	case BackendPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	case BackendSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: migrationsTable})
	case BackendMySQL:
		driver, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: migrationsTable})
	default:
		return fmt.Errorf("migrations not supported for %s backend", backend)
	}
	if err != nil {
		return fmt.Errorf("create %s migrate driver: %w", backend, err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(backend), driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", backend, err)
	}
	return nil
}

func driverName(backend Backend) string {
	switch backend {
	case BackendPostgres:
		return "pgx"
	case BackendSQLite:
		return "sqlite"
	default:
		return string(backend)
	}
}
