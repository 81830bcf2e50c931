package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/report"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	input := flag.String("input", "", "document directory (overrides indexer.inputDir)")
	output := flag.String("output", "", "index file to write (overrides indexer.outputPath)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *input != "" {
		cfg.Indexer.InputDir = *input
	}
	if *output != "" {
		cfg.Indexer.OutputPath = *output
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting index build",
		"input_dir", cfg.Indexer.InputDir,
		"output", cfg.Indexer.OutputPath,
		"workers", cfg.Indexer.Workers,
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
		shutdown := m.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	builder := indexer.NewBuilder(cfg.Indexer, normalizer.NewEnglish(cfg.Normalizer), indexer.WithMetrics(m))
	res, err := builder.Build(ctx, cfg.Indexer.InputDir)
	if err != nil {
		return err
	}
	rep := res.Report

	writeStart := time.Now()
	hdr, err := segment.WriteFile(cfg.Indexer.OutputPath, res.Index, segment.EncodeOptions{Compress: cfg.Indexer.Compress})
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if m != nil {
		m.BuildDuration.WithLabelValues("write").Observe(time.Since(writeStart).Seconds())
	}
	slog.Info("index written",
		"path", cfg.Indexer.OutputPath,
		"terms", hdr.TermCount,
		"documents", hdr.DocCount,
		"payload_bytes", hdr.PayloadSize,
		"compressed", hdr.Compressed(),
	)
	for _, f := range rep.Failures {
		slog.Warn("document not indexed", "doc_id", f.DocID, "error", f.Error)
	}

	if cfg.Postgres.Enabled {
		saveReport(ctx, cfg.Postgres, cfg.Indexer.OutputPath, rep)
	}
	if cfg.Kafka.Enabled {
		announce(ctx, cfg.Kafka, indexer.NewCompleteEvent(rep, cfg.Indexer.OutputPath, hdr.CreatedAt))
	}

	slog.Info("index build complete",
		"run_id", rep.RunID,
		"documents", rep.Documents,
		"failures", len(rep.Failures),
		"skipped", rep.Skipped,
		"near_duplicates", rep.NearDuplicates,
		"distinct_terms", rep.DistinctTerms,
		"indexed_terms", rep.IndexedTerms,
		"excluded_terms", rep.ExcludedTerms,
		"duration", rep.Duration,
	)
	return nil
}

// saveReport stores the build report. The index file is already written, so
// failures here are logged and do not fail the build.
func saveReport(ctx context.Context, cfg config.PostgresConfig, path string, rep indexer.Report) {
	db, err := postgres.New(cfg)
	if err != nil {
		slog.Warn("postgres unavailable, build report not stored", "error", err)
		return
	}
	defer db.Close()

	store := report.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		slog.Warn("build report migration failed", "error", err)
		return
	}
	if err := store.Save(ctx, path, rep); err != nil {
		slog.Warn("storing build report failed", "error", err)
		return
	}
	slog.Info("build report stored", "run_id", rep.RunID)
}

func announce(ctx context.Context, cfg config.KafkaConfig, event indexer.CompleteEvent) {
	producer := kafka.NewProducer(cfg, cfg.Topics.IndexComplete)
	defer producer.Close()
	if err := producer.Publish(ctx, event.RunID, event); err != nil {
		slog.Warn("publishing index-complete event failed", "error", err)
		return
	}
	slog.Info("index-complete event published", "topic", cfg.Topics.IndexComplete, "run_id", event.RunID)
}
