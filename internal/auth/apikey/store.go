package apikey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS api_keys (
	id          BIGSERIAL PRIMARY KEY,
	key_hash    TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	rate_limit  INTEGER NOT NULL DEFAULT 0,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at  TIMESTAMPTZ
)`

// PostgresStore keeps key hashes in the api_keys table.
type PostgresStore struct {
	db *postgres.Client
}

func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating api_keys table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Lookup(ctx context.Context, hash string) (*KeyInfo, error) {
	row := s.db.DB.QueryRowContext(ctx,
		`SELECT id, name, rate_limit, is_active, created_at, expires_at
		 FROM api_keys WHERE key_hash = $1 AND is_active`, hash)
	info, err := scanKey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("querying api key: %w", err)
	}
	return info, nil
}

// Create stores a new key and returns the raw value, which is not kept.
func (s *PostgresStore) Create(ctx context.Context, name string, rateLimit int, expiresAt *time.Time) (string, error) {
	raw, err := GenerateKey()
	if err != nil {
		return "", err
	}
	var expiry sql.NullTime
	if expiresAt != nil {
		expiry = sql.NullTime{Time: *expiresAt, Valid: true}
	}
	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, name, rate_limit, expires_at) VALUES ($1, $2, $3, $4)`,
		HashKey(raw), name, rateLimit, expiry)
	if err != nil {
		return "", fmt.Errorf("creating api key: %w", err)
	}
	return raw, nil
}

// Revoke deactivates the key. Unknown keys yield ErrInvalidKey.
func (s *PostgresStore) Revoke(ctx context.Context, rawKey string) error {
	res, err := s.db.DB.ExecContext(ctx,
		`UPDATE api_keys SET is_active = FALSE WHERE key_hash = $1 AND is_active`, HashKey(rawKey))
	if err != nil {
		return fmt.Errorf("revoking api key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidKey
	}
	return nil
}

// List returns active keys, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]KeyInfo, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, name, rate_limit, is_active, created_at, expires_at
		 FROM api_keys WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()
	var keys []KeyInfo
	for rows.Next() {
		info, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning api key: %w", err)
		}
		keys = append(keys, *info)
	}
	return keys, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanKey(row scanner) (*KeyInfo, error) {
	var info KeyInfo
	var expiresAt sql.NullTime
	if err := row.Scan(&info.ID, &info.Name, &info.RateLimit, &info.IsActive, &info.CreatedAt, &expiresAt); err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		info.ExpiresAt = &expiresAt.Time
	}
	return &info, nil
}
