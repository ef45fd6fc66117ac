// Command genstation writes synthetic station files, one per calendar year,
// in the fixed layout the parser reads. The signal is a mean level plus M2
// and S2 cosines and an optional linear trend; flagged values and a silent
// period can be injected to exercise gap detection. With -report, the files
// are analyzed under a fixed clock and the report is written as a JSON
// fixture.
//
// Usage:
//
//	go run ./cmd/genstation \
//	  -out data/aberdeen -site Aberdeen -from 1946 -years 2 \
//	  -trend 0.003 -flag-every 97 -silence 1946-03-10T00:00:00Z/30h \
//	  -report data/aberdeen_report.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/tidal-analysis/internal/adapter/stationfile"
	"github.com/couchcryptid/tidal-analysis/internal/domain"
)

// Angular speeds in degrees per hour.
const (
	speedM2 = 28.9841042
	speedS2 = 30.0
)

// fixtureTime is the GeneratedAt stamp of -report fixtures.
var fixtureTime = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

type options struct {
	site      string
	code      string
	lat, lon  float64
	from      int
	years     int
	interval  time.Duration
	mean      float64
	m2, s2    float64
	trend     float64 // m/yr
	noise     float64 // standard deviation, m
	seed      uint64
	flagEvery int
	silence   silence
}

// silence is a period with no rows at all.
type silence struct {
	start time.Time
	span  time.Duration
}

func (s silence) covers(t time.Time) bool {
	return s.span > 0 && !t.Before(s.start) && t.Before(s.start.Add(s.span))
}

func parseSilence(v string) (silence, error) {
	if v == "" {
		return silence{}, nil
	}
	start, span, ok := strings.Cut(v, "/")
	if !ok {
		return silence{}, fmt.Errorf("silence %q: want START/DURATION", v)
	}
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return silence{}, fmt.Errorf("silence start: %w", err)
	}
	d, err := time.ParseDuration(span)
	if err != nil || d <= 0 {
		return silence{}, fmt.Errorf("silence duration %q: must be positive", span)
	}
	return silence{start: t.UTC(), span: d}, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("genstation", flag.ContinueOnError)
	var opts options
	out := fs.String("out", "", "output directory (created if missing)")
	reportPath := fs.String("report", "", "optional path for an analyzed JSON report fixture")
	silenceFlag := fs.String("silence", "", "silent period as RFC3339START/DURATION")
	fs.StringVar(&opts.site, "site", "Aberdeen", "site name written to the header")
	fs.StringVar(&opts.code, "code", "ABE", "three letter station code used in file names")
	fs.Float64Var(&opts.lat, "lat", 57.14406, "station latitude")
	fs.Float64Var(&opts.lon, "lon", -2.07792, "station longitude")
	fs.IntVar(&opts.from, "from", 1946, "first year")
	fs.IntVar(&opts.years, "years", 1, "number of yearly files")
	fs.DurationVar(&opts.interval, "interval", time.Hour, "sampling interval")
	fs.Float64Var(&opts.mean, "mean", 3.0, "mean sea level (m)")
	fs.Float64Var(&opts.m2, "m2", 1.2, "M2 amplitude (m)")
	fs.Float64Var(&opts.s2, "s2", 0.4, "S2 amplitude (m)")
	fs.Float64Var(&opts.trend, "trend", 0, "linear trend (m/yr)")
	fs.Float64Var(&opts.noise, "noise", 0, "gaussian noise standard deviation (m)")
	fs.Uint64Var(&opts.seed, "seed", 1, "noise seed")
	fs.IntVar(&opts.flagEvery, "flag-every", 0, "flag every Nth sea level value as improbable (0 disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		fs.Usage()
		return errors.New("missing required flag: -out")
	}
	if opts.years < 1 || opts.interval <= 0 {
		return errors.New("-years must be at least 1 and -interval positive")
	}
	var err error
	if opts.silence, err = parseSilence(*silenceFlag); err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	for year := opts.from; year < opts.from+opts.years; year++ {
		path := filepath.Join(*out, fmt.Sprintf("%d%s.txt", year, opts.code))
		records := generateYear(opts, year)
		if err := writeStation(path, opts, year, records); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("%s: %d records", path, len(records))
	}

	if *reportPath != "" {
		if err := writeReport(*out, *reportPath); err != nil {
			return fmt.Errorf("report fixture: %w", err)
		}
		log.Printf("wrote report fixture: %s", *reportPath)
	}
	return nil
}

// generateYear samples the synthetic tide over one calendar year.
func generateYear(opts options, year int) []domain.TideRecord {
	origin := time.Date(opts.from, time.January, 1, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewPCG(opts.seed, uint64(year)))

	var records []domain.TideRecord
	n := 0
	for ts := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC); ts.Year() == year; ts = ts.Add(opts.interval) {
		if opts.silence.covers(ts) {
			continue
		}
		n++
		hours := float64(ts.Unix()) / 3600
		years := ts.Sub(origin).Hours() / (365.25 * 24)
		level := opts.mean + opts.trend*years +
			opts.m2*math.Cos(speedM2*hours*math.Pi/180) +
			opts.s2*math.Cos(speedS2*hours*math.Pi/180)
		if opts.noise > 0 {
			level += rng.NormFloat64() * opts.noise
		}

		rec := domain.TideRecord{
			Time:     ts,
			SeaLevel: domain.Meters(level),
			Residual: domain.Meters(level - opts.mean),
		}
		if opts.flagEvery > 0 && n%opts.flagEvery == 0 {
			rec.SeaLevel = domain.Level{}
		}
		records = append(records, rec)
	}
	return records
}

func writeStation(path string, opts options, year int, records []domain.TideRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	info := domain.StationInfo{
		Port:        "P" + opts.code,
		Site:        opts.site,
		Latitude:    opts.lat,
		Longitude:   opts.lon,
		HasCoords:   true,
		Contributor: "genstation synthetic data",
		Datum:       "Synthetic datum",
		Parameter:   "ASLVTD02 = Surface elevation (unspecified datum) of the water body",
	}
	if len(records) > 0 {
		info.StartDate = records[0].Time
		info.EndDate = records[len(records)-1].Time
	}
	if err := domain.FormatStationRecords(f, info, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeReport analyzes the generated directory with a fixed clock so the
// fixture is stable apart from its ID.
func writeReport(dir, path string) error {
	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	defer domain.SetClock(nil)

	src := stationfile.NewDirectory(dir)
	paths, err := src.ListStations(context.Background())
	if err != nil {
		return err
	}
	series := make([]domain.TideSeries, 0, len(paths))
	for _, p := range paths {
		s, err := domain.ParseFile(p)
		if err != nil {
			return err
		}
		series = append(series, s)
	}
	fused, rejected := domain.FuseAll(series...)
	if len(rejected) > 0 {
		return fmt.Errorf("fuse: %s", rejected[0].Reason)
	}

	report, err := domain.Analyze(src.Location(), fused, domain.DefaultAnalysisOptions())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
