package domain

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// Summary describes the extent and completeness of a series, plus the change
// in mean sea level between its first and last calendar years. A year with no
// valid sea level leaves its mean missing, and Rise is missing with it.
type Summary struct {
	First           time.Time `json:"first,omitzero"`
	Last            time.Time `json:"last,omitzero"`
	Records         int       `json:"records"`
	MissingSeaLevel int       `json:"missing_sea_level"`
	MissingResidual int       `json:"missing_residual"`

	MeanSeaLevel   float64 `json:"mean_sea_level"`
	MedianSeaLevel float64 `json:"median_sea_level"`
	MinSeaLevel    float64 `json:"min_sea_level"`
	MaxSeaLevel    float64 `json:"max_sea_level"`

	FirstYear     int   `json:"first_year,omitempty"`
	LastYear      int   `json:"last_year,omitempty"`
	FirstYearMean Level `json:"first_year_mean"`
	LastYearMean  Level `json:"last_year_mean"`
	Rise          Level `json:"rise"` // LastYearMean - FirstYearMean
}

// Summarize computes the Summary of s. An empty series gives a zero Summary;
// statistics over no valid values are left at zero.
func Summarize(s TideSeries) Summary {
	var sum Summary
	first, last, ok := s.Span()
	if !ok {
		return sum
	}
	sum.First, sum.Last = first, last
	sum.Records = len(s.Records)
	for _, r := range s.Records {
		if !r.SeaLevel.Valid {
			sum.MissingSeaLevel++
		}
		if !r.Residual.Valid {
			sum.MissingResidual++
		}
	}

	if all := stats.Float64Data(validSeaLevels(s.Records)); all.Len() > 0 {
		sum.MeanSeaLevel = statOrZero(all.Mean)
		sum.MedianSeaLevel = statOrZero(all.Median)
		sum.MinSeaLevel = statOrZero(all.Min)
		sum.MaxSeaLevel = statOrZero(all.Max)
	}

	sum.FirstYear, sum.LastYear = first.Year(), last.Year()
	sum.FirstYearMean = yearMean(s, sum.FirstYear)
	sum.LastYearMean = yearMean(s, sum.LastYear)
	if sum.FirstYearMean.Valid && sum.LastYearMean.Valid {
		sum.Rise = Meters(sum.LastYearMean.Meters - sum.FirstYearMean.Meters)
	}
	return sum
}

func statOrZero(fn func() (float64, error)) float64 {
	v, err := fn()
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

// yearMean is the mean valid sea level of one calendar year, missing when the
// year has none.
func yearMean(s TideSeries, year int) Level {
	in := s.filter(func(r TideRecord) bool { return r.Time.Year() == year })
	mean, err := stats.Mean(validSeaLevels(in.Records))
	if err != nil || math.IsNaN(mean) {
		return Level{}
	}
	return Meters(mean)
}
