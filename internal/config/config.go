package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/tidal-analysis/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir            string
	GapThreshold       time.Duration
	ReportGapThreshold time.Duration
	Constituents       []string
	TrendWorkers       int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Report publishing.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaReportTopic   string
	BatchSize          int
	BatchFlushInterval time.Duration
	XLSXOutput         string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	gapThreshold, err := parsePositiveDuration("GAP_THRESHOLD", "6h")
	if err != nil {
		return nil, err
	}
	reportGapThreshold, err := parsePositiveDuration("REPORT_GAP_THRESHOLD", "24h")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	trendWorkers, err := parseTrendWorkers()
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		DataDir:            sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		GapThreshold:       gapThreshold,
		ReportGapThreshold: reportGapThreshold,
		Constituents:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("CONSTITUENTS", "M2,S2")),
		TrendWorkers:       trendWorkers,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic:   sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "tidal-analysis-reports"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		XLSXOutput:         os.Getenv("XLSX_OUTPUT"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if len(cfg.Constituents) == 0 {
		return nil, errors.New("CONSTITUENTS must name at least one constituent")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// AnalysisOptions returns the analysis settings in domain form.
func (c *Config) AnalysisOptions() domain.AnalysisOptions {
	return domain.AnalysisOptions{
		GapThreshold:       c.GapThreshold,
		ReportGapThreshold: c.ReportGapThreshold,
		Constituents:       slices.Clone(c.Constituents),
		TrendWorkers:       c.TrendWorkers,
	}
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseTrendWorkers() (int, error) {
	s := os.Getenv("TREND_WORKERS")
	if s == "" {
		return runtime.GOMAXPROCS(0), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("invalid TREND_WORKERS: must be a positive integer")
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
