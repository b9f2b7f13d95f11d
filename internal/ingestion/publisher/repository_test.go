package publisher

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/postgres"
	_ "github.com/glebarez/sqlite"
)

// newSQLiteRepository backs the repository with sqlite. The sequence step is
// Postgres-specific, so it is replaced by a recorder.
func newSQLiteRepository(t *testing.T) (*PostgresRepository, *[]int) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "documents.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`CREATE TABLE documents (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		link TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL,
		idempotency_key TEXT UNIQUE,
		status TEXT NOT NULL DEFAULT 'PENDING'
	)`)
	if err != nil {
		t.Fatalf("creating table: %v", err)
	}
	repo := NewPostgresRepository(&postgres.Client{DB: db})
	var advanced []int
	repo.advanceID = func(ctx context.Context, tx *sql.Tx, id int) error {
		advanced = append(advanced, id)
		return nil
	}
	return repo, &advanced
}

func TestInsertExplicitIDAdvancesSequence(t *testing.T) {
	repo, advanced := newSQLiteRepository(t)
	ctx := context.Background()

	id := 10
	got, err := repo.Insert(ctx, Record{ID: &id, Title: "Qt Tutorial", Body: "GUI", ContentHash: "h1"})
	if err != nil || got != 10 {
		t.Fatalf("Insert explicit = (%d, %v)", got, err)
	}
	if _, err := repo.Insert(ctx, Record{Title: "Algorithms", Body: "sorting", ContentHash: "h2"}); err != nil {
		t.Fatalf("Insert auto: %v", err)
	}
	if len(*advanced) != 1 || (*advanced)[0] != 10 {
		t.Errorf("sequence advanced for %v, want [10]", *advanced)
	}
}

func TestInsertDuplicateIDConflictsWithoutAdvancing(t *testing.T) {
	repo, advanced := newSQLiteRepository(t)
	ctx := context.Background()

	id := 3
	if _, err := repo.Insert(ctx, Record{ID: &id, Title: "a", Body: "b", ContentHash: "h"}); err != nil {
		t.Fatal(err)
	}
	_, err := repo.Insert(ctx, Record{ID: &id, Title: "c", Body: "d", ContentHash: "h"})
	if !errors.Is(err, apperrors.ErrIdempotencyConflict) {
		t.Fatalf("err = %v, want ErrIdempotencyConflict", err)
	}
	if len(*advanced) != 1 {
		t.Errorf("sequence advanced %d times, want 1", len(*advanced))
	}
}

func TestInsertRollsBackWhenSequenceFails(t *testing.T) {
	repo, _ := newSQLiteRepository(t)
	ctx := context.Background()
	repo.advanceID = func(ctx context.Context, tx *sql.Tx, id int) error {
		return errors.New("sequence unavailable")
	}

	id := 4
	if _, err := repo.Insert(ctx, Record{ID: &id, Title: "a", Body: "b", ContentHash: "h"}); err == nil {
		t.Fatal("expected the insert to fail")
	}
	var n int
	if err := repo.db.DB.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("row count = %d, want 0 after rollback", n)
	}
}
