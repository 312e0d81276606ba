package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the roster as a single named record in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (ss *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := ss.db.Exec(schema)
	return err
}

func (ss *SQLiteStore) LoadRoster() ([]Session, error) {
	var data []byte
	err := ss.db.QueryRow(`SELECT value FROM records WHERE key = ?`, RecordKey).Scan(&data)
	if err == sql.ErrNoRows {
		return []Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history record: %w", err)
	}

	return decodeRoster(data)
}

func (ss *SQLiteStore) SaveRoster(roster []Session) error {
	data, err := encodeRoster(roster)
	if err != nil {
		return err
	}

	upsertSQL := `
	INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := ss.db.Exec(upsertSQL, RecordKey, data, time.Now()); err != nil {
		return fmt.Errorf("failed to write history record: %w", err)
	}

	return nil
}

func (ss *SQLiteStore) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}
