package domain

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	secondsPerYear = 365.25 * 24 * 60 * 60

	// minTrendRecords is the smallest sample with a defined slope p-value.
	minTrendRecords = 3
)

// Trend is a least-squares sea level slope and its two-sided p-value.
type Trend struct {
	Slope  float64 // meters per year
	PValue float64
}

// NeutralTrend is returned when there is not enough data to fit a line.
var NeutralTrend = Trend{Slope: 0, PValue: 1}

// YearlyTrend is the trend fitted to one calendar year of mean-removed data.
type YearlyTrend struct {
	Year              int     `json:"year"`
	RateOfChange      float64 `json:"rate_of_change"`
	SignificanceLevel float64 `json:"significance_level"`
}

// LinearTrend fits sea level against elapsed years since the first valid
// observation. Fewer than three valid observations, or observations that all
// share one timestamp, yield NeutralTrend.
func LinearTrend(s TideSeries) Trend {
	valid := s.DropMissing()
	n := len(valid.Records)
	if n < minTrendRecords {
		return NeutralTrend
	}

	origin := valid.Records[0].Time
	x := make([]float64, n)
	y := make([]float64, n)
	for i, r := range valid.Records {
		x[i] = r.Time.Sub(origin).Seconds() / secondsPerYear
		y[i] = r.SeaLevel.Meters
	}
	if x[n-1] == x[0] {
		return NeutralTrend
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return NeutralTrend
	}
	return Trend{Slope: beta, PValue: slopePValue(x, y, alpha, beta)}
}

// slopePValue is the two-sided p-value for the null hypothesis of zero slope,
// using a Student's t distribution with n-2 degrees of freedom.
func slopePValue(x, y []float64, alpha, beta float64) float64 {
	n := len(x)
	xMean := stat.Mean(x, nil)

	var sse, sxx float64
	for i := range x {
		resid := y[i] - (alpha + beta*x[i])
		sse += resid * resid
		dx := x[i] - xMean
		sxx += dx * dx
	}

	if sse == 0 {
		// Exact fit: any non-zero slope is certain.
		if beta == 0 {
			return 1
		}
		return 0
	}

	df := float64(n - 2)
	se := math.Sqrt(sse / df / sxx)
	t := beta / se
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * tDist.Survival(math.Abs(t))
	return math.Min(math.Max(p, 0), 1)
}

// YearlyTrends fits a trend to every calendar year from the series' first to
// last year inclusive. Years with too little data get NeutralTrend, so the
// result always has last-first+1 rows. An empty series yields nil.
func YearlyTrends(s TideSeries) []YearlyTrend {
	return YearlyTrendsWithWorkers(s, runtime.GOMAXPROCS(0))
}

// YearlyTrendsWithWorkers is YearlyTrends with at most workers years fitted
// concurrently. Rows are ordered by year regardless of completion order.
func YearlyTrendsWithWorkers(s TideSeries, workers int) []YearlyTrend {
	start, end, ok := s.YearRange()
	if !ok {
		return nil
	}

	rows := make([]YearlyTrend, end-start+1)
	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i := range rows {
		year := start + i
		g.Go(func() error {
			tr := LinearTrend(SingleYear(year, s))
			rows[i] = YearlyTrend{Year: year, RateOfChange: tr.Slope, SignificanceLevel: tr.PValue}
			return nil
		})
	}
	// The group only bounds concurrency; every fit returns nil.
	_ = g.Wait()
	return rows
}
