package main

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/tidal-analysis/internal/adapter/kafka"
	"github.com/couchcryptid/tidal-analysis/internal/adapter/mapbox"
	"github.com/couchcryptid/tidal-analysis/internal/adapter/stationfile"
	"github.com/couchcryptid/tidal-analysis/internal/adapter/xlsx"
	"github.com/couchcryptid/tidal-analysis/internal/config"
	"github.com/couchcryptid/tidal-analysis/internal/domain"
	"github.com/couchcryptid/tidal-analysis/internal/observability"
	"github.com/couchcryptid/tidal-analysis/internal/pipeline"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tidal",
		Short: "Tide-gauge gap, trend, and harmonic analysis",
		Long: `Reads every station file in a directory, fuses them into one series,
and reports data gaps, per-year sea level trends, and tidal constituents.

Settings come from the environment (GAP_THRESHOLD, CONSTITUENTS,
KAFKA_*, MAPBOX_*, ...); flags override them where both exist.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd(), newServeCmd())
	return root
}

// app is one pipeline plus the sinks that need closing afterwards.
type app struct {
	pipeline *pipeline.Pipeline
	closers  []interface{ Close() error }
	logger   *slog.Logger
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Error("close sink", "error", err)
		}
	}
}

// buildApp wires the pipeline for dir from cfg.
func buildApp(dir string, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *app {
	a := &app{logger: logger}

	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	}

	var loaders []pipeline.ReportLoader
	if cfg.XLSXOutput != "" {
		loaders = append(loaders, xlsx.NewExporter(cfg.XLSXOutput, logger))
	}
	if cfg.KafkaEnabled {
		w := kafka.NewWriter(cfg, logger)
		loaders = append(loaders, w)
		a.closers = append(a.closers, w)
	}

	a.pipeline = pipeline.New(
		stationfile.NewDirectory(dir),
		geocoder,
		loaders,
		cfg.AnalysisOptions(),
		logger,
		metrics,
	)
	return a
}

func newLogger(cfg *config.Config, verbose bool, quietLevel string) *slog.Logger {
	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quietLevel != "":
		level = quietLevel
	}
	return sharedobs.NewLogger(level, cfg.LogFormat)
}
