package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker   = "localhost:9092"
	testMapboxToken = "pk.test-token"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 6*time.Hour, cfg.GapThreshold)
	assert.Equal(t, 24*time.Hour, cfg.ReportGapThreshold)
	assert.Equal(t, []string{"M2", "S2"}, cfg.Constituents)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.TrendWorkers)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "tidal-analysis-reports", cfg.KafkaReportTopic)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Empty(t, cfg.XLSXOutput)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/tides/aberdeen")
	t.Setenv("GAP_THRESHOLD", "3h")
	t.Setenv("REPORT_GAP_THRESHOLD", "48h")
	t.Setenv("CONSTITUENTS", "M2, S2 ,K1,O1")
	t.Setenv("TREND_WORKERS", "3")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_REPORT_TOPIC", "custom-reports")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("XLSX_OUTPUT", "/tmp/report.xlsx")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/tides/aberdeen", cfg.DataDir)
	assert.Equal(t, 3*time.Hour, cfg.GapThreshold)
	assert.Equal(t, 48*time.Hour, cfg.ReportGapThreshold)
	assert.Equal(t, []string{"M2", "S2", "K1", "O1"}, cfg.Constituents)
	assert.Equal(t, 3, cfg.TrendWorkers)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-reports", cfg.KafkaReportTopic)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "/tmp/report.xlsx", cfg.XLSXOutput)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		key, value string
		wantInErr  string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"BATCH_SIZE", "0", "BATCH_SIZE"},
		{"BATCH_FLUSH_INTERVAL", "soon", "BATCH_FLUSH_INTERVAL"},
		{"GAP_THRESHOLD", "six hours", "GAP_THRESHOLD"},
		{"GAP_THRESHOLD", "0s", "GAP_THRESHOLD"},
		{"REPORT_GAP_THRESHOLD", "-24h", "REPORT_GAP_THRESHOLD"},
		{"MAPBOX_TIMEOUT", "bad", "MAPBOX_TIMEOUT"},
		{"TREND_WORKERS", "0", "TREND_WORKERS"},
		{"TREND_WORKERS", "many", "TREND_WORKERS"},
		{"CONSTITUENTS", " , ", "CONSTITUENTS"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantInErr)
		})
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", ",")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestConfig_AnalysisOptions(t *testing.T) {
	t.Setenv("CONSTITUENTS", "m2,k1")
	t.Setenv("TREND_WORKERS", "2")
	cfg, err := Load()
	require.NoError(t, err)

	opts := cfg.AnalysisOptions()
	assert.Equal(t, 6*time.Hour, opts.GapThreshold)
	assert.Equal(t, 24*time.Hour, opts.ReportGapThreshold)
	assert.Equal(t, []string{"m2", "k1"}, opts.Constituents)
	assert.Equal(t, 2, opts.TrendWorkers)
}
