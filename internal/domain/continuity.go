package domain

import (
	"encoding/json"
	"time"
)

const (
	// DefaultGapThreshold separates contiguous runs.
	DefaultGapThreshold = 6 * time.Hour

	// ReportGapThreshold is the minimum gap listed in reports.
	ReportGapThreshold = 24 * time.Hour
)

// Gap is a silent interval between two consecutive valid observations.
type Gap struct {
	Start    time.Time     // last valid observation before the gap
	End      time.Time     // Start + Duration
	Duration time.Duration // separation of the two observations
}

// Seconds returns the gap duration in seconds.
func (g Gap) Seconds() float64 {
	return g.Duration.Seconds()
}

func (g Gap) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start           time.Time `json:"start"`
		End             time.Time `json:"end"`
		DurationSeconds float64   `json:"duration_seconds"`
	}{g.Start, g.End, g.Seconds()})
}

// FindGaps lists, in chronological order, every separation between consecutive
// valid observations that is strictly longer than threshold. Adjacent gaps are
// not merged.
func FindGaps(s TideSeries, threshold time.Duration) []Gap {
	valid := s.DropMissing()

	var gaps []Gap
	for i := 1; i < len(valid.Records); i++ {
		prev := valid.Records[i-1].Time
		delta := valid.Records[i].Time.Sub(prev)
		if delta > threshold {
			gaps = append(gaps, Gap{Start: prev, End: prev.Add(delta), Duration: delta})
		}
	}
	return gaps
}

// LongestContiguousRun returns the largest block of valid observations in
// which no two consecutive timestamps are more than threshold apart. Ties go
// to the earliest block. Series with fewer than two valid observations are
// returned with missing values dropped.
func LongestContiguousRun(s TideSeries, threshold time.Duration) TideSeries {
	valid := s.DropMissing()
	if len(valid.Records) < 2 {
		return valid
	}

	bestStart, bestLen := 0, 0
	runStart := 0
	for i := 1; i <= len(valid.Records); i++ {
		if i < len(valid.Records) && valid.Records[i].Time.Sub(valid.Records[i-1].Time) <= threshold {
			continue
		}
		if n := i - runStart; n > bestLen {
			bestStart, bestLen = runStart, n
		}
		runStart = i
	}

	run := valid
	run.Records = valid.Records[bestStart : bestStart+bestLen : bestStart+bestLen]
	return run
}
