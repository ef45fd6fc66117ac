package domain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// HeaderLines is the number of metadata lines before the tabular block.
	HeaderLines = 10

	// dataFields is the minimum number of whitespace-separated fields in a
	// data row: cycle number, date, time, sea level, residual.
	dataFields = 5

	headerDateLayout = "02Jan2006-15.04.05"
)

// timestampLayouts are tried in order when combining the Date and Time fields.
var timestampLayouts = []string{
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02 15:04",
}

// ParseFile reads one station file. Open failures and layout violations are
// returned as *FormatError.
func ParseFile(path string) (TideSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return TideSeries{}, &FormatError{Path: path, Err: err}
	}
	defer f.Close()

	series, err := ParseStationRecords(f, filepath.Base(path))
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return TideSeries{}, err
	}
	return series, nil
}

// ParseStationRecords parses station text from r. The name labels the
// resulting series and its single source.
//
// The metadata block is parsed leniently into StationInfo. Numeric fields that
// fail to parse become missing levels; only a short row or an unrecognizable
// date/time fails the parse.
func ParseStationRecords(r io.Reader, name string) (TideSeries, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var header headerState
	lineNo := 0
	for lineNo < HeaderLines {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return TideSeries{}, &FormatError{Line: lineNo, Err: err}
			}
			return TideSeries{}, &FormatError{Line: lineNo, Err: ErrTruncatedHeader}
		}
		lineNo++
		header.apply(scanner.Text())
	}

	series := NewSeries(name, nil)
	series.Station = header.station
	series.Station.HasCoords = header.lat && header.lon

	columnHeader := true
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		rec, err := parseRecord(fields)
		// The first non-blank line of the tabular block may carry column units.
		if columnHeader {
			columnHeader = false
			if err != nil {
				continue
			}
		}
		if err != nil {
			return TideSeries{}, &FormatError{Line: lineNo, Err: err}
		}
		series.Records = append(series.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return TideSeries{}, &FormatError{Line: lineNo, Err: err}
	}

	sortRecords(series.Records)
	return series, nil
}

// parseRecord selects Date, Time, Sea Level, and Residual by position,
// discarding the leading cycle number.
func parseRecord(fields []string) (TideRecord, error) {
	if len(fields) < dataFields {
		return TideRecord{}, fmt.Errorf("expected %d columns, got %d", dataFields, len(fields))
	}
	ts, err := parseTimestamp(fields[1], fields[2])
	if err != nil {
		return TideRecord{}, err
	}
	return TideRecord{
		Time:     ts,
		SeaLevel: parseLevel(fields[3]),
		Residual: parseLevel(fields[4]),
	}, nil
}

// parseTimestamp combines date and time strings into a UTC timestamp.
func parseTimestamp(date, timeOfDay string) (time.Time, error) {
	combined := date + " " + timeOfDay
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, combined, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date/time %q", combined)
}

// parseLevel coerces a raw token to a Level. Flagged values ("3.5329M"), bare
// flags, and non-finite numbers are missing.
func parseLevel(token string) Level {
	v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Level{}
	}
	return Meters(v)
}

// headerState accumulates the metadata block.
type headerState struct {
	station  StationInfo
	lat, lon bool
}

// apply parses one "Key: value" metadata line. Unknown keys and unparsable
// values are ignored.
func (h *headerState) apply(line string) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	station := &h.station
	switch key {
	case "port":
		station.Port = value
	case "site":
		station.Site = value
	case "latitude":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			station.Latitude = v
			h.lat = true
		}
	case "longitude":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			station.Longitude = v
			h.lon = true
		}
	case "start date":
		if ts, err := time.ParseInLocation(headerDateLayout, value, time.UTC); err == nil {
			station.StartDate = ts
		}
	case "end date":
		if ts, err := time.ParseInLocation(headerDateLayout, value, time.UTC); err == nil {
			station.EndDate = ts
		}
	case "contributor":
		station.Contributor = value
	case "datum information":
		station.Datum = value
	case "parameter code":
		station.Parameter = value
	}
}
