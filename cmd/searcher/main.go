// Command searcher serves lexical search over an in-memory TF-IDF index.
//
// At startup it loads the configured document sources (YAML seed file,
// SQLite file, Postgres catalogue), builds the first index generation and
// starts the HTTP API. Documents published by the ingestion service arrive
// over Kafka and are folded in by the periodic rebuild.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/auth/apikey"
	authmw "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/auth/middleware"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	level := logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go toggleDebugOnSignal(ctx, level, cfg.Logging.Level)

	m := metrics.New()
	if cfg.Metrics.Enabled {
		metrics.StartServer(ctx, cfg.Metrics.Port)
	}

	engine := indexer.NewEngine(cfg.Indexer, m)

	var db *postgres.Client
	if cfg.Postgres.Enabled {
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, document status tracking disabled", "error", err)
			db = nil
		} else {
			defer db.Close()
			if err := db.RegisterStats(prometheus.DefaultRegisterer); err != nil {
				slog.Warn("postgres pool metrics not registered", "error", err)
			}
		}
	}
	if err := loadDocuments(ctx, engine, cfg.Documents, db); err != nil {
		slog.Error("failed to load documents", "error", err)
		os.Exit(1)
	}
	engine.BuildIndex()
	engine.StartRebuildLoop(ctx)

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			breaker := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     10 * time.Second,
				OnStateChange: func(name string, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, breaker, m)
			slog.Info("search cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
			)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	aggregator := analytics.NewAggregator()
	trackers := analytics.Trackers{aggregator}
	if cfg.Kafka.Enabled {
		analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer analyticsProducer.Close()
		collector := analytics.NewCollector(analyticsProducer, 100, 5*time.Second)
		collector.Start(gctx)
		defer collector.Close()
		trackers = append(trackers, collector)
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

		// Every replica needs every document, so each one reads the ingest
		// topic under its own group.
		hostname, _ := os.Hostname()
		group := cfg.Kafka.ConsumerGroup + "-" + hostname
		var status consumer.StatusRecorder
		if db != nil {
			status = publisher.NewPostgresRepository(db)
		}
		ingestConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, group,
			consumer.HandleMessage(engine, status))
		g.Go(func() error {
			if err := ingestConsumer.Start(gctx); err != nil {
				return fmt.Errorf("ingest consumer: %w", err)
			}
			return nil
		})
		slog.Info("ingest consumer started", "topic", cfg.Kafka.Topics.DocumentIngest, "group", group)
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if engine.State() != indexer.StateReady {
			return health.ComponentHealth{Status: health.StatusDown, Message: "index not built"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("generation %d, %d documents", engine.Generation(), engine.DocCount()),
		}
	})
	if redisClient != nil {
		checker.Register("redis", health.PingCheck(redisClient.Ping, health.StatusDegraded))
	}
	if db != nil {
		checker.Register("postgres", health.PingCheck(db.Ping, health.StatusDegraded))
	}

	h := handler.New(executor.New(engine, m), engine, queryCache, trackers, handler.Options{
		Search:  cfg.Search,
		Tracing: cfg.Tracing,
	})
	analyticsH := analytics.NewHandler(aggregator)

	auth := authmw.NewStack(cfg.Auth, apiKeyStore(ctx, cfg.Auth, db))
	g.Go(func() error {
		auth.Limiter.Run(gctx, time.Minute)
		return nil
	})

	mux := http.NewServeMux()
	h.Register(mux, auth.Admin)
	analyticsH.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = auth.Public(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("search service error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

// apiKeyStore returns the Postgres key store when configured and reachable,
// otherwise nil so only static keys are accepted.
func apiKeyStore(ctx context.Context, cfg config.AuthConfig, db *postgres.Client) apikey.Store {
	if !cfg.Enabled || !cfg.FromPostgres || db == nil {
		return nil
	}
	store := apikey.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Warn("api key table unavailable, accepting static keys only", "error", err)
		return nil
	}
	return store
}

// loadDocuments adds every configured startup source to engine in the order
// seed file, SQLite, Postgres.
func loadDocuments(ctx context.Context, engine *indexer.Engine, cfg config.DocumentsConfig, db *postgres.Client) error {
	if cfg.SeedFile != "" {
		docs, err := loader.LoadYAML(cfg.SeedFile)
		if err != nil {
			return err
		}
		loader.Into(engine, "seed", docs)
	}
	if cfg.SQLitePath != "" {
		sqlite, err := loader.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer sqlite.Close()
		docs, err := loader.LoadSQL(ctx, sqlite)
		if err != nil {
			return fmt.Errorf("loading sqlite documents: %w", err)
		}
		loader.Into(engine, "sqlite", docs)
	}
	if cfg.FromPostgres && db != nil {
		docs, err := resilience.RetryValue(ctx, "postgres-load", resilience.RetryConfig{MaxAttempts: 3}, func() ([]loader.Document, error) {
			return loader.LoadSQL(ctx, db.DB)
		})
		if err != nil {
			return fmt.Errorf("loading postgres documents: %w", err)
		}
		loader.Into(engine, "postgres", docs)
	}
	return nil
}

// toggleDebugOnSignal flips between debug and the configured level on each
// SIGUSR1.
func toggleDebugOnSignal(ctx context.Context, level *slog.LevelVar, configured string) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1)
	defer signal.Stop(sig)
	base := logger.ParseLevel(configured)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			next := slog.LevelDebug
			if level.Level() == slog.LevelDebug {
				next = base
			}
			level.Set(next)
			slog.Info("log level changed", "level", next.String())
		}
	}
}
