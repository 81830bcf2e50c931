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
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/reload"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/redis"
)

const redisNamespace = "lemmasearch"

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "index", cfg.Search.IndexPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("search service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New(nil)
	checker := health.NewChecker()

	var remote cache.Remote
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis, redisNamespace)
		if err != nil {
			slog.Warn("redis unavailable, shared cache tier disabled", "error", err)
		} else {
			defer redisClient.Close()
			remote = cache.Guard(redisClient, cfg.Redis)
			checker.Register("redis", health.PingCheck(redisClient.Ping, true))
			slog.Info("shared cache tier enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	queryCache, err := cache.New(cfg.Search.LocalCacheSize, remote, m)
	if err != nil {
		return err
	}

	engines := reload.NewManager(cfg.Search.IndexPath, reload.WithCache(queryCache), reload.WithMetrics(m))
	if _, err := engines.Load(ctx, ""); err != nil {
		return err
	}
	checker.Register("index", engines.Check)

	h := handler.New(engines, normalizer.NewEnglish(cfg.Normalizer), queryCache, m, cfg.Search.DefaultLimit, cfg.Search.MaxResults)
	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return shutdownMetrics(shutdownCtx)
		})
	}

	if cfg.Kafka.Enabled {
		host, _ := os.Hostname()
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete, host, engines.HandleIndexComplete())
		g.Go(func() error {
			return consumer.Start(gctx)
		})
		slog.Info("index reload consumer started", "topic", cfg.Kafka.Topics.IndexComplete)
	}

	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	return g.Wait()
}
