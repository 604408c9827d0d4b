package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/wolfman30/prospector/internal/app/bootstrap"
	appconfig "github.com/wolfman30/prospector/internal/config"
	"github.com/wolfman30/prospector/internal/observability/metrics"
	"github.com/wolfman30/prospector/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting prospector dashboard",
		"env", cfg.Env,
		"storage", cfg.StorageBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, metrics.NewStoreMetrics(nil), logger, os.Stdout); err != nil {
		logger.Error("dashboard failed", "error", err)
		os.Exit(1)
	}
}

// run loads the dashboard, imports cfg.ImportCSVPath when set and writes the
// resulting view as JSON to out.
func run(ctx context.Context, cfg *appconfig.Config, m *metrics.StoreMetrics, logger *logging.Logger, out io.Writer) error {
	medium, err := bootstrap.BuildMedium(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := medium.Close(); err != nil {
			logger.Warn("failed to close storage", "error", err)
		}
	}()

	session := bootstrap.BuildSession(cfg, medium, m, logger)
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		// Seed data that could not be stored stays visible for this run.
		logger.Warn("dashboard started with storage errors", "error", err)
	}

	if cfg.ImportCSVPath != "" {
		f, err := os.Open(cfg.ImportCSVPath)
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		result, err := session.ImportCSV(ctx, f)
		_ = f.Close()
		if err != nil {
			logger.Warn("imported leads not fully saved", "error", err)
		}
		for _, re := range result.Rejected {
			logger.Warn("skipped csv row", "line", re.Line, "error", re.Error())
		}
	}

	view := session.View()
	logger.Info("dashboard ready",
		"leads", view.Statistics.Total,
		"new_this_week", view.Statistics.NewThisWeek,
		"conversion_rate", view.Statistics.ConversionRate,
		"campaigns", view.CampaignSummary.Total,
	)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		View          any `json:"view"`
		Notifications any `json:"notifications"`
	}{view, session.Notifications()})
}
