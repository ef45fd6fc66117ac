package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/tidal-analysis/internal/domain"
)

const reportTimeLayout = "2006-01-02 15:04:05"

func writeJSONReport(w io.Writer, report domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeTextReport prints the report sections in reading order.
func writeTextReport(w io.Writer, r domain.Report) error {
	bw := bufio.NewWriter(w)
	s := r.Summary

	section(bw, "Dataset")
	fmt.Fprintf(bw, "Location:           %s\n", r.Location)
	if r.Station.FormattedAddress != "" {
		fmt.Fprintf(bw, "Place:              %s\n", r.Station.FormattedAddress)
	}
	fmt.Fprintf(bw, "Source files:       %d\n", len(r.Sources))
	fmt.Fprintf(bw, "First measurement:  %s\n", formatTime(s.First))
	fmt.Fprintf(bw, "Last measurement:   %s\n", formatTime(s.Last))
	fmt.Fprintf(bw, "Total measurements: %d (%d sea level missing)\n", s.Records, s.MissingSeaLevel)
	if r.LongestRun.Records > 0 {
		fmt.Fprintf(bw, "Longest contiguous block: %d records from %s to %s\n",
			r.LongestRun.Records, formatTime(r.LongestRun.Start), formatTime(r.LongestRun.End))
	}

	section(bw, fmt.Sprintf("Gaps longer than %s", formatThreshold(r.GapThreshold)))
	if len(r.Gaps) == 0 {
		fmt.Fprintln(bw, "None.")
	}
	for _, g := range r.Gaps {
		fmt.Fprintf(bw, "%s to %s (%.2f hours)\n", formatTime(g.Start), formatTime(g.End), g.Duration.Hours())
	}

	section(bw, "Sea level rise")
	fmt.Fprintf(bw, "Mean sea level %d: %s\n", s.FirstYear, formatLevel(s.FirstYearMean))
	fmt.Fprintf(bw, "Mean sea level %d: %s\n", s.LastYear, formatLevel(s.LastYearMean))
	fmt.Fprintf(bw, "Change %d-%d:    %s\n", s.FirstYear, s.LastYear, formatLevel(s.Rise))

	section(bw, "Rate of change per year")
	for _, t := range r.YearlyTrends {
		fmt.Fprintf(bw, "%d: %+.5f m/yr (p = %.5f)\n", t.Year, t.RateOfChange, t.SignificanceLevel)
	}

	section(bw, "Tidal constituents")
	if r.HarmonicsError != "" {
		fmt.Fprintf(bw, "Not fitted: %s\n", r.HarmonicsError)
	}
	for i, name := range r.Harmonics.Constituents {
		fmt.Fprintf(bw, "%-4s amplitude %.3f m, phase %6.1f deg\n", name, r.Harmonics.Amplitudes[i], r.Harmonics.Phases[i])
	}
	return bw.Flush()
}

func formatLevel(l domain.Level) string {
	if !l.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.3f m", l.Meters)
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n---- %s ----\n", title)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(reportTimeLayout)
}

// formatThreshold renders whole hours as "24h" rather than "24h0m0s".
func formatThreshold(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", d/time.Hour)
	}
	return d.String()
}
