package domain

import (
	"io"
	"log/slog"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// hourly builds a series of n hourly records from start, with sea level
// given by level. Residuals are zero.
func hourly(name string, start time.Time, n int, level func(i int) Level) TideSeries {
	records := make([]TideRecord, n)
	for i := range records {
		records[i] = TideRecord{
			Time:     start.Add(time.Duration(i) * time.Hour),
			SeaLevel: level(i),
			Residual: Meters(0),
		}
	}
	return NewSeries(name, records)
}

func constant(v float64) func(int) Level {
	return func(int) Level { return Meters(v) }
}

func utc(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}
