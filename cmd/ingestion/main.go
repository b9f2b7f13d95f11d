// Command ingestion starts the document ingestion HTTP service.
//
// The service accepts new documents via POST /api/v1/documents, validates
// them (extracting text from HTML bodies), persists them to PostgreSQL, and
// publishes them to a Kafka topic that every searcher consumes.
//
// Usage:
//
//	go run ./cmd/ingestion [-config configs/development.yaml]
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

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/auth/apikey"
	authmw "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/auth/middleware"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ingestion service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.RegisterStats(prometheus.DefaultRegisterer); err != nil {
		slog.Warn("postgres pool metrics not registered", "error", err)
	}
	repo := publisher.NewPostgresRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		slog.Error("failed to prepare schema", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to postgres")

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
	defer producer.Close()
	slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.DocumentIngest)

	m := metrics.New()
	if cfg.Metrics.Enabled {
		metrics.StartServer(ctx, cfg.Metrics.Port)
	}

	checker := health.NewChecker()
	checker.Register("postgres", health.PingCheck(db.Ping, health.StatusDown))

	var keyStore apikey.Store
	if cfg.Auth.Enabled && cfg.Auth.FromPostgres {
		store := apikey.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare api key table", "error", err)
			os.Exit(1)
		}
		keyStore = store
	}
	auth := authmw.NewStack(cfg.Auth, keyStore)
	go auth.Limiter.Run(ctx, time.Minute)

	h := handler.New(publisher.New(repo, producer))
	mux := http.NewServeMux()
	h.Register(mux, auth.Admin)
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

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()
	slog.Info("ingestion service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion service stopped")
}
