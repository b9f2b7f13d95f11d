// Command analytics starts the standalone analytics aggregation service.
//
// It consumes the events every searcher ships to the analytics topic,
// aggregates them across replicas (query volume, latency percentiles, cache
// hit rate, zero-result and fallback queries, index builds) and serves them
// at GET /api/v1/analytics.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml] [-summary-interval 1m]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/middleware"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	summaryEvery := flag.Duration("summary-interval", time.Minute, "how often to log an aggregate summary (0 disables)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := slog.Default().With("component", "analytics-service")
	log.Info("starting analytics service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		metrics.StartServer(ctx, cfg.Metrics.Port)
	}

	aggregator := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents,
		cfg.Kafka.ConsumerGroup+"-analytics", analytics.HandleMessage(aggregator))

	var consuming atomic.Bool
	checker := health.NewChecker()
	checker.Register("kafka", func(context.Context) health.ComponentHealth {
		if !consuming.Load() {
			return health.ComponentHealth{Status: health.StatusDown, Message: "consumer stopped"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: cfg.Kafka.Topics.AnalyticsEvents}
	})

	mux := http.NewServeMux()
	analytics.NewHandler(aggregator).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		consuming.Store(true)
		defer consuming.Store(false)
		log.Info("analytics consumer started", "topic", cfg.Kafka.Topics.AnalyticsEvents)
		return consumer.Start(gctx)
	})
	if *summaryEvery > 0 {
		g.Go(func() error {
			logSummaries(gctx, log, aggregator, *summaryEvery)
			return nil
		})
	}
	g.Go(func() error {
		log.Info("analytics service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("analytics service error", "error", err)
		os.Exit(1)
	}
	log.Info("analytics service stopped")
}

// logSummaries writes one line of aggregate counters per tick, skipping
// ticks in which no search arrived.
func logSummaries(ctx context.Context, log *slog.Logger, agg *analytics.Aggregator, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	var last int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := agg.StatsTop(3)
			if s.TotalSearches == last {
				continue
			}
			last = s.TotalSearches
			log.Info("analytics summary",
				"searches", s.TotalSearches,
				"qpm", s.QueriesPerMinute,
				"p95_ms", s.P95LatencyMs,
				"zero_results", s.ZeroResultCount,
				"fallbacks", s.FallbackCount,
				"index_builds", s.IndexBuilds,
				"top", s.TopQueries,
			)
		}
	}
}
