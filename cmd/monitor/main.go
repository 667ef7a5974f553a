package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/adapter/hotspotapi"
	httpadapter "github.com/couchcryptid/wildlife-hotspot-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/wildlife-hotspot-service/internal/adapter/kafka"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/adapter/postgres"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/config"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/observability"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/pipeline"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/presenter"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
)

// fallbackCacheSize bounds how many filter combinations keep a stale copy.
const fallbackCacheSize = 16

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Segment source (HOTSPOT_SOURCE=http|postgres).
	var source domain.SegmentSource
	var sourceChecks observability.ReadinessChecks
	switch cfg.HotspotSource {
	case config.SourcePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		pg := postgres.NewSource(pool, logger, metrics)
		source = pg
		sourceChecks = append(sourceChecks, pg)
		logger.Info("segment source: postgres")
	default:
		client := hotspotapi.NewClient(cfg.HotspotAPIURL, cfg.HotspotAPITimeout, logger, metrics)
		source = hotspotapi.NewFallbackSource(client, fallbackCacheSize, logger)
		logger.Info("segment source: hotspot api", "url", cfg.HotspotAPIURL, "timeout", cfg.HotspotAPITimeout)
	}

	clock := clockwork.NewRealClock()
	fleet := domain.NewFleet(clock)
	refresher := pipeline.NewRefresher(source, cfg.SegmentFilter(), fleet, cfg.RefreshInterval, clock, logger, metrics)
	banner := presenter.New(presenter.NewLogDisplay(logger), cfg.AlertDisplayDuration, clock)
	defer banner.Close()

	opts := []pipeline.Option{pipeline.WithPresenter(banner)}

	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts,
			pipeline.WithStream(reader, pipeline.NewDecoder(logger), cfg.BatchSize),
			pipeline.WithLoader(writer),
		)
		logger.Info("kafka enabled",
			"brokers", cfg.KafkaBrokers,
			"position_topic", cfg.KafkaPositionTopic,
			"alert_topic", cfg.KafkaAlertTopic,
		)
	} else {
		logger.Info("kafka disabled, positions accepted over http only")
	}

	tracker := pipeline.NewTracker(fleet, logger, metrics, opts...)

	api := &httpadapter.API{
		Hotspots: fleet,
		Heat:     refresher,
		Reloader: refresher,
		Tracker:  tracker,
		Banner:   banner,
	}
	ready := append(observability.ReadinessChecks{refresher}, sourceChecks...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, api, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start hotspot refresh loop.
	go func() {
		if err := refresher.Run(ctx); err != nil {
			logger.Error("refresher error", "error", err)
		}
	}()

	// Start position tracker.
	go func() {
		if err := tracker.Run(ctx); err != nil {
			logger.Error("tracker error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
