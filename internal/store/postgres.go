package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresBackend keeps the blob in a single keyed row. The whole state is
// one value, matching the persisted-blob contract, so no schema migration
// beyond the bootstrap table is ever needed.
type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(dbURL string) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	const create = `
CREATE TABLE IF NOT EXISTS comicforge_state (
    key        TEXT PRIMARY KEY,
    data       JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	if _, err := db.Exec(create); err != nil {
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}

	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) Load() ([]byte, error) {
	var data []byte
	err := b.db.QueryRow(`SELECT data FROM comicforge_state WHERE key = $1`, StorageKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state row: %w", err)
	}
	return data, nil
}

func (b *PostgresBackend) Save(data []byte) error {
	const upsert = `
INSERT INTO comicforge_state (key, data, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now();`
	if _, err := b.db.Exec(upsert, StorageKey, data); err != nil {
		return fmt.Errorf("failed to save state row: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
