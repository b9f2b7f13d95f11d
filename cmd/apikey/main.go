// Command apikey manages the keys that guard the ingest and admin routes.
//
// Usage:
//
//	go run ./cmd/apikey [-config configs/development.yaml] create -name crawler [-rate-limit 120] [-expires-in 720h]
//	go run ./cmd/apikey revoke -key <raw-key>
//	go run ./cmd/apikey list
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail("loading config: %v", err)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		fail("connecting to postgres: %v", err)
	}
	defer db.Close()
	store := apikey.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		fail("%v", err)
	}

	args := flag.Args()
	switch args[0] {
	case "create":
		create(ctx, store, args[1:])
	case "revoke":
		revoke(ctx, store, args[1:])
	case "list":
		list(ctx, store)
	default:
		usage()
		os.Exit(2)
	}
}

func create(ctx context.Context, store *apikey.PostgresStore, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "owner of the key")
	rateLimit := fs.Int("rate-limit", 0, "requests per rate window, 0 for the service default")
	expiresIn := fs.Duration("expires-in", 0, "lifetime of the key, 0 for no expiry")
	_ = fs.Parse(args)
	if *name == "" {
		fail("-name is required")
	}
	var expiresAt *time.Time
	if *expiresIn > 0 {
		t := time.Now().Add(*expiresIn)
		expiresAt = &t
	}
	raw, err := store.Create(ctx, *name, *rateLimit, expiresAt)
	if err != nil {
		fail("%v", err)
	}
	fmt.Println("key (shown once, store it now):")
	fmt.Println(raw)
}

func revoke(ctx context.Context, store *apikey.PostgresStore, args []string) {
	fs := flag.NewFlagSet("revoke", flag.ExitOnError)
	key := fs.String("key", "", "raw key to revoke")
	_ = fs.Parse(args)
	if *key == "" {
		fail("-key is required")
	}
	if err := store.Revoke(ctx, *key); err != nil {
		fail("%v", err)
	}
	fmt.Println("revoked")
}

func list(ctx context.Context, store *apikey.PostgresStore) {
	keys, err := store.List(ctx)
	if err != nil {
		fail("%v", err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRATE LIMIT\tCREATED\tEXPIRES")
	for _, k := range keys {
		expires := "never"
		if k.ExpiresAt != nil {
			expires = k.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", k.ID, k.Name, k.RateLimit, k.CreatedAt.Format(time.RFC3339), expires)
	}
	_ = tw.Flush()
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: apikey [-config file] create|revoke|list [flags]")
	flag.PrintDefaults()
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "apikey: "+format+"\n", args...)
	os.Exit(1)
}
