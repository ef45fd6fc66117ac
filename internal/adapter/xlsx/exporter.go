// Package xlsx writes analysis reports as Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/tidal-analysis/internal/domain"
)

// Sheet names, in workbook order.
const (
	SheetSummary   = "Summary"
	SheetGaps      = "Gaps"
	SheetTrends    = "Yearly Trends"
	SheetHarmonics = "Harmonics"
)

const timeLayout = "2006-01-02 15:04:05"

// Exporter saves each report to a fixed path, replacing any previous file.
// It implements pipeline.ReportLoader.
type Exporter struct {
	path   string
	logger *slog.Logger
}

func NewExporter(path string, logger *slog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

func (e *Exporter) Name() string { return "xlsx" }

// LoadReport renders the report and saves the workbook.
func (e *Exporter) LoadReport(ctx context.Context, report domain.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := Workbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", e.path, err)
	}
	e.logger.Info("report workbook written", "path", e.path, "report_id", report.ID)
	return nil
}

// Workbook builds an in-memory workbook with one sheet per report section.
func Workbook(report domain.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summaryRows(report)},
		{SheetGaps, gapRows(report.Gaps)},
		{SheetTrends, trendRows(report.YearlyTrends)},
		{SheetHarmonics, harmonicRows(report.Harmonics, report.HarmonicsError)},
	}
	for _, sh := range sheets {
		if _, err := f.NewSheet(sh.name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", sh.name, err)
		}
		if err := writeRows(f, sh.name, sh.rows); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(SheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func summaryRows(r domain.Report) [][]any {
	s := r.Summary
	return [][]any{
		{"Field", "Value"},
		{"Report ID", r.ID},
		{"Generated", formatTime(r.GeneratedAt)},
		{"Location", r.Location},
		{"Site", r.Station.Site},
		{"First observation", formatTime(s.First)},
		{"Last observation", formatTime(s.Last)},
		{"Records", s.Records},
		{"Missing sea level", s.MissingSeaLevel},
		{"Missing residual", s.MissingResidual},
		{"Mean sea level (m)", s.MeanSeaLevel},
		{"Median sea level (m)", s.MedianSeaLevel},
		{"Min sea level (m)", s.MinSeaLevel},
		{"Max sea level (m)", s.MaxSeaLevel},
		{"Longest run start", formatTime(r.LongestRun.Start)},
		{"Longest run end", formatTime(r.LongestRun.End)},
		{"Longest run records", r.LongestRun.Records},
		{"First year mean (m)", levelCell(s.FirstYearMean)},
		{"Last year mean (m)", levelCell(s.LastYearMean)},
		{"Rise (m)", levelCell(s.Rise)},
	}
}

func gapRows(gaps []domain.Gap) [][]any {
	rows := [][]any{{"Start", "End", "Duration (h)"}}
	for _, g := range gaps {
		rows = append(rows, []any{formatTime(g.Start), formatTime(g.End), g.Duration.Hours()})
	}
	return rows
}

func trendRows(trends []domain.YearlyTrend) [][]any {
	rows := [][]any{{"Year", "Rate of change (m/yr)", "p-value"}}
	for _, t := range trends {
		rows = append(rows, []any{t.Year, t.RateOfChange, t.SignificanceLevel})
	}
	return rows
}

// levelCell leaves missing levels as empty cells.
func levelCell(l domain.Level) any {
	if !l.Valid {
		return ""
	}
	return l.Meters
}

func harmonicRows(h domain.HarmonicResult, reason string) [][]any {
	rows := [][]any{{"Constituent", "Amplitude (m)", "Phase (deg)"}}
	if reason != "" {
		rows = append(rows, []any{"Not fitted", reason})
	}
	for i, name := range h.Constituents {
		rows = append(rows, []any{name, h.Amplitudes[i], h.Phases[i]})
	}
	return rows
}
