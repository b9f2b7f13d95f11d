package postgres

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "catalogue.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(`CREATE TABLE documents (id INTEGER PRIMARY KEY, title TEXT)`); err != nil {
		t.Fatalf("creating table: %v", err)
	}
	return &Client{DB: db, name: "catalogue"}
}

func TestInTxRollsBackOnError(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	errAbort := errors.New("abort")

	err := c.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO documents (id, title) VALUES (1, 'Binary Tree')`); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("InTx error = %v, want abort", err)
	}

	var n int
	if err := c.DB.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		t.Fatalf("counting: %v", err)
	}
	if n != 0 {
		t.Fatalf("rows after rollback = %d, want 0", n)
	}

	if err := c.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO documents (id, title) VALUES (2, 'Top View')`)
		return err
	}); err != nil {
		t.Fatalf("InTx commit: %v", err)
	}
	if err := c.DB.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		t.Fatalf("counting: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows after commit = %d, want 1", n)
	}
}

func TestPingAndRegisterStats(t *testing.T) {
	c := newTestClient(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	reg := prometheus.NewRegistry()
	if err := c.RegisterStats(reg); err != nil {
		t.Fatalf("RegisterStats: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "go_sql_max_open_connections" {
			found = true
		}
	}
	if !found {
		t.Fatal("pool metrics not exported")
	}
	if err := c.RegisterStats(reg); err == nil {
		t.Fatal("registering the same pool twice should fail")
	}
}
