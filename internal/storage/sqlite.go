package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteMedium stores each record kind in its own table of JSON blobs
// keyed by a string.
type SQLiteMedium struct {
	db            *sql.DB
	schemaVersion uint
}

func NewSQLiteMedium(dbPath string) (*SQLiteMedium, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateUp(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteMedium{db: db, schemaVersion: version}, nil
}

// SchemaVersion is the migration version the database was brought to.
func (s *SQLiteMedium) SchemaVersion() uint { return s.schemaVersion }

func (s *SQLiteMedium) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteMedium) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Table names come from the Kind allow-list, never from user input.
func (s *SQLiteMedium) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE key = ?", kind), key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", kind, key, err)
	}
	return []byte(data), nil
}

func (s *SQLiteMedium) Set(ctx context.Context, kind Kind, key string, data []byte) error {
	if err := validateKind(kind); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT OR REPLACE INTO %s (key, data, updated_at) VALUES (?, ?, ?)", kind),
		key, string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store %s/%s: %w", kind, key, err)
	}
	return nil
}

func (s *SQLiteMedium) Delete(ctx context.Context, kind Kind, key string) error {
	if err := validateKind(kind); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE key = ?", kind), key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", kind, key, err)
	}
	return nil
}

func (s *SQLiteMedium) ListKeys(ctx context.Context, kind Kind) ([]string, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT key FROM %s ORDER BY key", kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan %s key: %w", kind, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return keys, nil
}
