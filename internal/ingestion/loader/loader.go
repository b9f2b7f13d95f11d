// Package loader reads startup document sets from a YAML seed file, a SQLite
// file or the Postgres catalogue and adds them to the engine.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/glebarez/sqlite"
	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer"
)

const (
	selectDocuments = `SELECT id, title, body, link FROM documents ORDER BY id`
	sqliteSchema    = `CREATE TABLE IF NOT EXISTS documents (
		id    INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		body  TEXT NOT NULL,
		link  TEXT
	)`
)

// Document is one record of a seed source.
type Document struct {
	ID    int    `yaml:"id"`
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
	Link  string `yaml:"link"`
}

type seedFile struct {
	Documents []Document `yaml:"documents"`
}

// LoadYAML reads a file of the form
//
//	documents:
//	  - id: 1
//	    title: ...
//	    body: ...
//	    link: ...
func LoadYAML(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return f.Documents, nil
}

// OpenSQLite opens a SQLite database file holding a documents table.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	return db, nil
}

// WriteSQLite stores docs in a SQLite documents table, creating it if
// needed. Rows with an existing id are replaced.
func WriteSQLite(ctx context.Context, db *sql.DB, docs []Document) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO documents (id, title, body, link) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d.ID, d.Title, d.Body, d.Link); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting document %d: %w", d.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing documents: %w", err)
	}
	return nil
}

// LoadSQL reads every row of the documents table in id order. NULL links
// load as empty strings.
func LoadSQL(ctx context.Context, db *sql.DB) ([]Document, error) {
	rows, err := db.QueryContext(ctx, selectDocuments)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var link sql.NullString
		if err := rows.Scan(&d.ID, &d.Title, &d.Body, &link); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.Link = link.String
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Into adds docs to engine in order and returns how many were added.
func Into(engine *indexer.Engine, source string, docs []Document) int {
	for _, d := range docs {
		engine.AddDocument(d.ID, d.Title, d.Body, d.Link)
	}
	slog.Default().With("component", "loader").Info("documents loaded",
		"source", source,
		"count", len(docs),
	)
	return len(docs)
}
