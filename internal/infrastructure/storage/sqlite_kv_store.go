package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"defect-bot/internal/domain/port"

	_ "modernc.org/sqlite"
)

// SQLiteKVStore хранилище блобов в SQLite.
// Set выполняется одним UPSERT, поэтому замена значения атомарна.
type SQLiteKVStore struct {
	db *sql.DB
}

// NewSQLiteKVStore открывает или создаёт базу по пути path
func NewSQLiteKVStore(path string) (*SQLiteKVStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL, чтобы чтение не блокировалось записью
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteKVStore{db: db}, nil
}

// Close закрывает соединение с базой
func (s *SQLiteKVStore) Close() error {
	return s.db.Close()
}

// Get возвращает значение ключа
func (s *SQLiteKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

// Set вставляет или заменяет значение ключа
func (s *SQLiteKVStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

var _ port.KeyValueStore = (*SQLiteKVStore)(nil)
