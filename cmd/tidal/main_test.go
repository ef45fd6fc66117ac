package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/tidal-analysis/internal/domain"
)

// writeStationDir writes two hourly years of a pure M2 tide into dir/aberdeen,
// with a 30 hour silence in March of the first year.
func writeStationDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "aberdeen")
	require.NoError(t, os.Mkdir(dir, 0o700))

	silenceStart := time.Date(1946, time.March, 10, 0, 0, 0, 0, time.UTC)
	for _, year := range []int{1946, 1947} {
		var records []domain.TideRecord
		for ts := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC); ts.Year() == year; ts = ts.Add(time.Hour) {
			if !ts.Before(silenceStart) && ts.Before(silenceStart.Add(30*time.Hour)) {
				continue
			}
			hours := float64(ts.Unix()) / 3600
			level := 2.5 + 1.1*math.Cos(28.9841042*hours*math.Pi/180)
			records = append(records, domain.TideRecord{Time: ts, SeaLevel: domain.Meters(level), Residual: domain.Meters(0.1)})
		}
		f, err := os.Create(filepath.Join(dir, time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")+"ABE.txt"))
		require.NoError(t, err)
		require.NoError(t, domain.FormatStationRecords(f, domain.StationInfo{Site: "Aberdeen"}, records))
		require.NoError(t, f.Close())
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_FORMAT", "text")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyze_TextReport(t *testing.T) {
	out, err := runCLI(t, "analyze", writeStationDir(t))
	require.NoError(t, err)

	assert.Contains(t, out, "Location:           Aberdeen")
	assert.Contains(t, out, "First measurement:  1946-01-01 00:00:00")
	assert.Contains(t, out, "Last measurement:   1947-12-31 23:00:00")
	assert.Contains(t, out, "---- Gaps longer than 24h ----")
	assert.Contains(t, out, "1946-03-09 23:00:00 to 1946-03-11 06:00:00 (31.00 hours)")
	assert.Contains(t, out, "1946: ")
	assert.Contains(t, out, "1947: ")
	assert.Regexp(t, `M2\s+amplitude 1\.\d{3} m`, out)
	assert.Contains(t, out, "S2   amplitude 0.0")
}

func TestAnalyze_JSON(t *testing.T) {
	out, err := runCLI(t, "analyze", "--json", "--gap-threshold", "48h", writeStationDir(t))
	require.NoError(t, err)

	var report domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Aberdeen", report.Location)
	assert.Empty(t, report.Gaps, "the only gap is shorter than 48h")
	assert.Len(t, report.YearlyTrends, 2)
	assert.Len(t, report.Sources, 2)
}

func TestAnalyze_WritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	_, err := runCLI(t, "analyze", "--xlsx", path, writeStationDir(t))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing argument", []string{"analyze"}, "accepts 1 arg"},
		{"missing directory", []string{"analyze", filepath.Join(t.TempDir(), "nope")}, "list stations"},
		{"empty directory", []string{"analyze", t.TempDir()}, "no station files"},
		{"bad gap threshold", []string{"analyze", "--gap-threshold", "-1h", t.TempDir()}, "invalid --gap-threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAnalyze_InvalidConfig(t *testing.T) {
	t.Setenv("GAP_THRESHOLD", "soon")
	_, err := runCLI(t, "analyze", writeStationDir(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GAP_THRESHOLD")
}

func TestWriteTextReport_NoGaps(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTextReport(&buf, domain.Report{Location: "Dover", GapThreshold: 36 * time.Hour}))
	assert.Contains(t, buf.String(), "---- Gaps longer than 36h ----\nNone.")
	assert.Contains(t, buf.String(), "First measurement:  -")
}

func TestWriteTextReport_SparseStation(t *testing.T) {
	report := domain.Report{
		Location:       "Dover",
		Summary:        domain.Summary{FirstYear: 1946, LastYear: 1947, LastYearMean: domain.Meters(2.5)},
		HarmonicsError: "2 observations for 5 unknowns: insufficient data for harmonic analysis",
	}

	var buf bytes.Buffer
	require.NoError(t, writeTextReport(&buf, report))
	assert.Contains(t, buf.String(), "Mean sea level 1946: n/a")
	assert.Contains(t, buf.String(), "Mean sea level 1947: 2.500 m")
	assert.Contains(t, buf.String(), "Change 1946-1947:    n/a")
	assert.Contains(t, buf.String(), "Not fitted: 2 observations for 5 unknowns")
}

func TestFormatThreshold(t *testing.T) {
	assert.Equal(t, "24h", formatThreshold(24*time.Hour))
	assert.Equal(t, "1h30m0s", formatThreshold(90*time.Minute))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dir := writeStationDir(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve", "--addr", "127.0.0.1:0", dir})
	require.NoError(t, cmd.ExecuteContext(ctx))
}
