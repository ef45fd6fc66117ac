package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
)

// AnalysisOptions controls Analyze.
type AnalysisOptions struct {
	GapThreshold       time.Duration // separates contiguous runs
	ReportGapThreshold time.Duration // minimum gap listed in the report
	Constituents       []string
	TrendWorkers       int
}

// DefaultAnalysisOptions returns the thresholds and constituents used by the
// command line tools.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		GapThreshold:       DefaultGapThreshold,
		ReportGapThreshold: ReportGapThreshold,
		Constituents:       []string{"M2", "S2"},
		TrendWorkers:       runtime.GOMAXPROCS(0),
	}
}

// ContiguousRun summarizes the longest gap-free block of a series.
type ContiguousRun struct {
	Start   time.Time `json:"start,omitzero"`
	End     time.Time `json:"end,omitzero"`
	Records int       `json:"records"`
}

// Report is the full analysis of a fused series. When the series is too sparse
// for the harmonic fit, Harmonics is left empty and HarmonicsError says why;
// the other sections are still filled in.
type Report struct {
	ID           string         `json:"id"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Location     string         `json:"location"`
	Station      StationInfo    `json:"station"`
	Sources      []string       `json:"sources"`
	Summary      Summary        `json:"summary"`
	LongestRun   ContiguousRun  `json:"longest_run"`
	GapThreshold time.Duration  `json:"-"` // encoded as gap_threshold_seconds
	Gaps         []Gap          `json:"gaps"`
	YearlyTrends []YearlyTrend  `json:"yearly_trends"`
	Harmonics    HarmonicResult `json:"harmonics"`

	HarmonicsError string `json:"harmonics_error,omitempty"`
}

// reportJSON carries the Report fields that encode as-is.
type reportJSON Report

func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		reportJSON
		GapThresholdSeconds float64 `json:"gap_threshold_seconds"`
	}{reportJSON(r), r.GapThreshold.Seconds()})
}

func (r *Report) UnmarshalJSON(data []byte) error {
	aux := struct {
		*reportJSON
		GapThresholdSeconds float64 `json:"gap_threshold_seconds"`
	}{reportJSON: (*reportJSON)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.GapThreshold = time.Duration(aux.GapThresholdSeconds * float64(time.Second))
	return nil
}

// Analyze runs every analysis over s. Harmonic time is measured from the
// first record. An empty series yields ErrNoRecords and an unknown constituent
// a *ConstituentNotFoundError; a series too sparse for the harmonic fit still
// gets a report, with the reason in HarmonicsError.
func Analyze(location string, s TideSeries, opts AnalysisOptions) (Report, error) {
	first, _, ok := s.Span()
	if !ok {
		return Report{}, ErrNoRecords
	}

	var harmonicsErr string
	h, err := Harmonics(s, opts.Constituents, first)
	switch {
	case errors.Is(err, ErrInsufficientData):
		h = HarmonicResult{Start: first.UTC()}
		harmonicsErr = err.Error()
	case err != nil:
		return Report{}, fmt.Errorf("harmonics: %w", err)
	}

	run := LongestContiguousRun(s, opts.GapThreshold)
	var longest ContiguousRun
	if start, end, ok := run.Span(); ok {
		longest = ContiguousRun{Start: start, End: end, Records: run.Len()}
	}

	return Report{
		ID:           uuid.New().String(),
		GeneratedAt:  clock.Now().UTC(),
		Location:     location,
		Station:      s.Station,
		Sources:      slices.Clone(s.Sources),
		Summary:      Summarize(s),
		LongestRun:   longest,
		GapThreshold: opts.ReportGapThreshold,
		Gaps:         FindGaps(s, opts.ReportGapThreshold),
		YearlyTrends: YearlyTrendsWithWorkers(s, opts.TrendWorkers),
		Harmonics:    h,

		HarmonicsError: harmonicsErr,
	}, nil
}
