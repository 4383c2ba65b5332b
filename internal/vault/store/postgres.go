package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"covault/pkg/platform/sentinel"
)

// Schema creates the single-table layout used by PostgresBlobStore.
const Schema = `
CREATE TABLE IF NOT EXISTS vault_blobs (
	key        TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresBlobStore persists blobs as JSONB rows.
type PostgresBlobStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresBlobStore {
	return &PostgresBlobStore{db: db}
}

// EnsureSchema creates the vault_blobs table if it does not exist.
func (s *PostgresBlobStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure vault_blobs schema: %w", classifyPQ(err))
	}
	return nil
}

func (s *PostgresBlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM vault_blobs WHERE key = $1`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load blob %s: %w", key, classifyPQ(err))
	}
	return payload, nil
}

func (s *PostgresBlobStore) Save(ctx context.Context, key string, blob []byte) error {
	// jsonb parameters are sent as text; lib/pq would encode []byte as bytea.
	query := `
		INSERT INTO vault_blobs (key, payload, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, string(blob)); err != nil {
		return fmt.Errorf("save blob %s: %w", key, classifyPQ(err))
	}
	return nil
}

// classifyPQ marks connection-class failures as unavailable.
func classifyPQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && strings.HasPrefix(string(pqErr.Code), "08") {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	return err
}
