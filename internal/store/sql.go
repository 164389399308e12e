package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// SQLStore keeps settings in SQLite or MySQL through database/sql.
type SQLStore struct {
	db      *sql.DB
	backend Backend
	upsert  string
}

// NewSQLStore opens a SQLite or MySQL settings store. The schema must already
// be migrated.
func NewSQLStore(ctx context.Context, backend Backend, dsn string) (*SQLStore, error) {
	var upsert string
	switch backend {
	case BackendSQLite:
		upsert = `INSERT INTO ` + settingsTable + ` (name, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	case BackendMySQL:
		upsert = `INSERT INTO ` + settingsTable + ` (name, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = CURRENT_TIMESTAMP`
	default:
		return nil, fmt.Errorf("unsupported sql backend: %s", backend)
	}

	db, err := sql.Open(driverName(backend), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", backend, err)
	}
	if backend == BackendSQLite {
		// Avoid "database is locked" under concurrent writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", backend, err)
	}
	return &SQLStore{db: db, backend: backend, upsert: upsert}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM `+settingsTable+` WHERE name = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.upsert, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
