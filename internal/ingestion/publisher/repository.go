package publisher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/postgres"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
	id              BIGSERIAL PRIMARY KEY,
	title           TEXT NOT NULL,
	body            TEXT NOT NULL,
	link            TEXT NOT NULL DEFAULT '',
	content_hash    TEXT NOT NULL,
	idempotency_key TEXT UNIQUE,
	status          TEXT NOT NULL DEFAULT 'PENDING',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	indexed_at      TIMESTAMPTZ
)`

// Record is a document row about to be inserted. A nil ID lets the database
// assign one.
type Record struct {
	ID             *int
	Title          string
	Body           string
	Link           string
	ContentHash    string
	IdempotencyKey string
}

// Repository persists ingested documents.
type Repository interface {
	FindByIdempotencyKey(ctx context.Context, key string) (*ingestion.IngestResponse, error)
	Insert(ctx context.Context, rec Record) (int, error)
}

// advanceSerial moves the id sequence past an explicitly inserted id so that
// later inserts without an id do not collide with it. It never moves the
// sequence backwards.
const advanceSerial = `SELECT setval(pg_get_serial_sequence('documents', 'id'), $1)
	WHERE $1 > COALESCE(pg_sequence_last_value(pg_get_serial_sequence('documents', 'id')::regclass), 0)`

// PostgresRepository stores documents in the documents table.
type PostgresRepository struct {
	db        *postgres.Client
	advanceID func(ctx context.Context, tx *sql.Tx, id int) error
}

func NewPostgresRepository(db *postgres.Client) *PostgresRepository {
	return &PostgresRepository{db: db, advanceID: advanceSequence}
}

func advanceSequence(ctx context.Context, tx *sql.Tx, id int) error {
	if _, err := tx.ExecContext(ctx, advanceSerial, id); err != nil {
		return fmt.Errorf("advancing document id sequence: %w", err)
	}
	return nil
}

// EnsureSchema creates the documents table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// FindByIdempotencyKey returns the earlier response for key, or nil when the
// key is unused.
func (r *PostgresRepository) FindByIdempotencyKey(ctx context.Context, key string) (*ingestion.IngestResponse, error) {
	var resp ingestion.IngestResponse
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT id, status FROM documents WHERE idempotency_key=$1`, key).Scan(&resp.DocumentID, &resp.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying by idempotency key: %w", err)
	}
	return &resp, nil
}

// Insert writes rec and returns its id. A conflicting id or idempotency key
// yields ErrIdempotencyConflict.
func (r *PostgresRepository) Insert(ctx context.Context, rec Record) (int, error) {
	var id int
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		var row *sql.Row
		if rec.ID != nil {
			row = tx.QueryRowContext(ctx,
				`INSERT INTO documents (id, title, body, link, content_hash, idempotency_key, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'PENDING')
			ON CONFLICT DO NOTHING
			RETURNING id`, *rec.ID, rec.Title, rec.Body, rec.Link, rec.ContentHash, nullableString(rec.IdempotencyKey))
		} else {
			row = tx.QueryRowContext(ctx,
				`INSERT INTO documents (title, body, link, content_hash, idempotency_key, status)
			VALUES ($1, $2, $3, $4, $5, 'PENDING')
			ON CONFLICT DO NOTHING
			RETURNING id`, rec.Title, rec.Body, rec.Link, rec.ContentHash, nullableString(rec.IdempotencyKey))
		}
		err := row.Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.New(apperrors.ErrIdempotencyConflict, 409, "document id or idempotency key already in use")
		}
		if err != nil || rec.ID == nil {
			return err
		}
		return r.advanceID(ctx, tx, id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// nullableString treats the empty string as NULL so that the UNIQUE
// constraint only applies to supplied keys.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// MarkIndexed flags the document as picked up by a searcher.
func (r *PostgresRepository) MarkIndexed(ctx context.Context, docID int) error {
	_, err := r.db.DB.ExecContext(ctx,
		`UPDATE documents SET status = 'INDEXED', indexed_at = NOW() WHERE id = $1`, docID)
	if err != nil {
		return fmt.Errorf("marking document %d indexed: %w", docID, err)
	}
	return nil
}
