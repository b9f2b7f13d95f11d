// Command indexer builds an index offline from the configured document
// sources and prints its vocabulary statistics. With -sqlite it also writes
// the loaded documents to a SQLite file the searcher can start from.
//
// Usage:
//
//	go run ./cmd/indexer [-config configs/development.yaml] [-sqlite documents.db] [-top 10]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	exportPath := flag.String("sqlite", "", "write the loaded documents to this SQLite file")
	top := flag.Int("top", 10, "number of most frequent terms to print")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	ctx := context.Background()

	var docs []loader.Document
	if cfg.Documents.SeedFile != "" {
		seed, err := loader.LoadYAML(cfg.Documents.SeedFile)
		if err != nil {
			slog.Error("failed to load seed file", "error", err)
			os.Exit(1)
		}
		docs = append(docs, seed...)
	}
	if cfg.Documents.SQLitePath != "" {
		db, err := loader.OpenSQLite(cfg.Documents.SQLitePath)
		if err != nil {
			slog.Error("failed to open sqlite", "error", err)
			os.Exit(1)
		}
		rows, err := loader.LoadSQL(ctx, db)
		db.Close()
		if err != nil {
			slog.Error("failed to load sqlite documents", "error", err)
			os.Exit(1)
		}
		docs = append(docs, rows...)
	}

	engine := indexer.NewEngine(config.IndexerConfig{PrecomputeVectors: cfg.Indexer.PrecomputeVectors}, nil)
	loader.Into(engine, "config", docs)
	snap := engine.BuildIndex()

	fmt.Printf("documents: %d\n", snap.Index.N())
	fmt.Printf("terms:     %d\n", snap.Index.Terms())
	for _, e := range mostFrequent(snap.Index.Snapshot(), *top) {
		fmt.Printf("  %-24s df=%-4d cf=%d\n", e.Term, e.DocFreq, e.Postings.CollectionFrequency())
	}

	if *exportPath != "" {
		db, err := loader.OpenSQLite(*exportPath)
		if err != nil {
			slog.Error("failed to open export file", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := loader.WriteSQLite(ctx, db, docs); err != nil {
			slog.Error("failed to export documents", "error", err)
			os.Exit(1)
		}
		slog.Info("documents exported", "path", *exportPath, "count", len(docs))
	}
}

// mostFrequent orders entries by document frequency, then term.
func mostFrequent(entries []index.TermEntry, n int) []index.TermEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DocFreq != entries[j].DocFreq {
			return entries[i].DocFreq > entries[j].DocFreq
		}
		return entries[i].Term < entries[j].Term
	})
	if n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}
