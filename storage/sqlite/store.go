// Package sqlite persists game data in a single SQLite file: the TTL
// key-value table, player wallets, and the word dictionary.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/wricardo/roomgames/storage/sqlite/migrations"
)

// Store owns the database handle. It implements ttl.Backend and
// ttl.ExpiredDeleter; Ledger and Dictionary expose the other tables.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT store_value FROM kv WHERE store_key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select kv: %w", err)
	}
	return []byte(value), true, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, expiresAt int64) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO kv (store_key, store_value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(store_key) DO UPDATE SET
		   store_value = excluded.store_value,
		   expires_at = excluded.expires_at`,
		key, string(data), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert kv: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM kv WHERE store_key = ?`, key); err != nil {
		return fmt.Errorf("delete kv: %w", err)
	}
	return nil
}

func (s *Store) DeleteIf(ctx context.Context, key string, expected []byte) (bool, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM kv WHERE store_key = ? AND store_value = ?`, key, string(expected))
	if err != nil {
		return false, fmt.Errorf("delete kv: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("count deleted kv: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT store_key FROM kv ORDER BY store_key`)
	if err != nil {
		return nil, fmt.Errorf("list kv: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan kv key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// DeleteExpired removes every row with 0 < expires_at <= now using the
// expires_at index.
func (s *Store) DeleteExpired(ctx context.Context, now int64) (int, error) {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM kv WHERE expires_at > 0 AND expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired kv: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count expired kv: %w", err)
	}
	return int(n), nil
}
