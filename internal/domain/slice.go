package domain

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

const dayLayout = "20060102"

// ParseDay parses a YYYYMMDD day string as UTC midnight.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

// SingleYear returns the records of one calendar year with the year's mean sea
// level subtracted. Missing values stay missing. The input is not modified.
func SingleYear(year int, s TideSeries) TideSeries {
	sub := s.filter(func(r TideRecord) bool { return r.Time.Year() == year })
	removeMean(sub.Records)
	return sub
}

// Range returns the records from start's day at 00:00 through the last instant
// of end's day, with the section mean sea level subtracted. The input is not
// modified.
func Range(start, end time.Time, s TideSeries) TideSeries {
	lo := startOfDay(start)
	hi := startOfDay(end).AddDate(0, 0, 1).Add(-time.Nanosecond)

	sub := s.filter(func(r TideRecord) bool {
		return !r.Time.Before(lo) && !r.Time.After(hi)
	})
	removeMean(sub.Records)
	return sub
}

// removeMean subtracts the mean of the valid sea levels in place. Slices with
// no valid values are left alone.
func removeMean(records []TideRecord) {
	vals := validSeaLevels(records)
	if len(vals) == 0 {
		return
	}
	mean := stat.Mean(vals, nil)
	for i := range records {
		if records[i].SeaLevel.Valid {
			records[i].SeaLevel.Meters -= mean
		}
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
