package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// DefaultColumns is the field schema produced by the station parser.
var DefaultColumns = []string{"Date", "Time", "Sea Level", "Residual"}

// Level is a water level in meters. The zero value is a missing observation.
type Level struct {
	Meters float64
	Valid  bool
}

// Meters returns a valid Level.
func Meters(v float64) Level {
	return Level{Meters: v, Valid: true}
}

// MarshalJSON encodes missing levels as null.
func (l Level) MarshalJSON() ([]byte, error) {
	if !l.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(l.Meters)
}

// UnmarshalJSON decodes null as a missing level.
func (l *Level) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*l = Level{}
		return nil
	}
	*l = Meters(*v)
	return nil
}

// TideRecord is one row of a station file.
type TideRecord struct {
	Time     time.Time `json:"time"`
	SeaLevel Level     `json:"sea_level"`
	Residual Level     `json:"residual"`
}

// StationInfo holds the metadata block at the top of a station file.
// Every field is optional.
type StationInfo struct {
	Port        string    `json:"port,omitempty"`
	Site        string    `json:"site,omitempty"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
	HasCoords   bool      `json:"-"`
	StartDate   time.Time `json:"start_date,omitzero"`
	EndDate     time.Time `json:"end_date,omitzero"`
	Contributor string    `json:"contributor,omitempty"`
	Datum       string    `json:"datum,omitempty"`
	Parameter   string    `json:"parameter,omitempty"`

	// Filled by geocoding enrichment.
	PlaceName        string `json:"place_name,omitempty"`
	FormattedAddress string `json:"formatted_address,omitempty"`
}

// IsZero reports whether no metadata was found.
func (s StationInfo) IsZero() bool {
	return s.Port == "" && s.Site == "" && !s.HasCoords
}

// TideSeries is a time-indexed sequence of records from one or more stations.
// Operations never modify their input; they return a new series.
type TideSeries struct {
	Name    string
	Station StationInfo
	Columns []string
	Records []TideRecord
	Sources []string
}

// EmptySeries returns a series with the default schema and no records. It is
// the seed value when folding station files together.
func EmptySeries() TideSeries {
	return TideSeries{Columns: slices.Clone(DefaultColumns)}
}

// NewSeries builds a series with the default schema. Records are copied and
// sorted by timestamp.
func NewSeries(name string, records []TideRecord) TideSeries {
	recs := slices.Clone(records)
	sortRecords(recs)
	return TideSeries{
		Name:    name,
		Columns: slices.Clone(DefaultColumns),
		Records: recs,
		Sources: []string{name},
	}
}

// Len returns the number of records.
func (s TideSeries) Len() int {
	return len(s.Records)
}

// Clone returns a deep copy.
func (s TideSeries) Clone() TideSeries {
	out := s
	out.Columns = slices.Clone(s.Columns)
	out.Records = slices.Clone(s.Records)
	out.Sources = slices.Clone(s.Sources)
	return out
}

// Timestamps returns the record timestamps in series order.
func (s TideSeries) Timestamps() []time.Time {
	ts := make([]time.Time, len(s.Records))
	for i, r := range s.Records {
		ts[i] = r.Time
	}
	return ts
}

// DropMissing returns the records with a valid sea level, sorted ascending.
func (s TideSeries) DropMissing() TideSeries {
	return s.filter(func(r TideRecord) bool { return r.SeaLevel.Valid })
}

// Span returns the earliest and latest timestamps.
func (s TideSeries) Span() (first, last time.Time, ok bool) {
	if len(s.Records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = s.Records[0].Time, s.Records[0].Time
	for _, r := range s.Records[1:] {
		if r.Time.Before(first) {
			first = r.Time
		}
		if r.Time.After(last) {
			last = r.Time
		}
	}
	return first, last, true
}

// YearRange returns the minimum and maximum calendar year over all records,
// including those with missing values.
func (s TideSeries) YearRange() (start, end int, ok bool) {
	first, last, ok := s.Span()
	if !ok {
		return 0, 0, false
	}
	return first.Year(), last.Year(), true
}

// filter copies the matching records into a new, sorted series that keeps the
// source metadata.
func (s TideSeries) filter(keep func(TideRecord) bool) TideSeries {
	out := TideSeries{
		Name:    s.Name,
		Station: s.Station,
		Columns: slices.Clone(s.Columns),
		Sources: slices.Clone(s.Sources),
	}
	for _, r := range s.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	sortRecords(out.Records)
	return out
}

// validSeaLevels returns the valid sea level values in record order.
func validSeaLevels(records []TideRecord) []float64 {
	vals := make([]float64, 0, len(records))
	for _, r := range records {
		if r.SeaLevel.Valid {
			vals = append(vals, r.SeaLevel.Meters)
		}
	}
	return vals
}

// sortRecords orders records by timestamp. The sort is stable so records that
// share a timestamp keep their relative order.
func sortRecords(records []TideRecord) {
	slices.SortStableFunc(records, func(a, b TideRecord) int {
		return a.Time.Compare(b.Time)
	})
}
