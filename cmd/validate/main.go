// Command validate checks station files before analysis. For every file it
// reports record counts, missing values, and gaps; it fails when a file does
// not parse, when files cannot be fused together, or when too many sea level
// values are missing.
//
// Usage:
//
//	go run ./cmd/validate -gap 24h -max-missing 0.2 data/aberdeen
//	go run ./cmd/validate data/aberdeen/1946ABE.txt data/aberdeen/1947ABE.txt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/tidal-analysis/internal/adapter/stationfile"
	"github.com/couchcryptid/tidal-analysis/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type settings struct {
	gap        time.Duration
	maxMissing float64 // fraction of sea level values
}

// fileStats is one row of the per-file table.
type fileStats struct {
	name            string
	records         int
	missingSeaLevel int
	missingResidual int
	gaps            int
	first, last     time.Time
}

func main() {
	var s settings
	flag.DurationVar(&s.gap, "gap", domain.ReportGapThreshold, "report gaps longer than this")
	flag.Float64Var(&s.maxMissing, "max-missing", 0.5, "fail when a file's missing sea level fraction exceeds this")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: validate [flags] FILE|DIR...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(os.Stdout, flag.Args(), s))
}

func run(w io.Writer, args []string, s settings) int {
	paths, err := expand(args)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}
	if len(paths) == 0 {
		fmt.Fprintln(w, "FATAL: no station files found")
		return 1
	}

	parsePhase := &phase{name: "Station files parse"}
	fusePhase := &phase{name: "Station columns compatible"}
	missingPhase := &phase{name: fmt.Sprintf("Missing sea level at most %.0f%%", s.maxMissing*100)}

	var (
		series []domain.TideSeries
		rows   []fileStats
	)
	for _, path := range paths {
		ts, err := domain.ParseFile(path)
		if err != nil {
			var fe *domain.FormatError
			if errors.As(err, &fe) && fe.Line > 0 {
				parsePhase.errorf("%s:%d: %v", filepath.Base(fe.Path), fe.Line, fe.Err)
			} else {
				parsePhase.errorf("%s: %v", filepath.Base(path), err)
			}
			continue
		}
		series = append(series, ts)

		row := statsFor(filepath.Base(path), ts, s.gap)
		rows = append(rows, row)
		if row.records > 0 && float64(row.missingSeaLevel)/float64(row.records) > s.maxMissing {
			missingPhase.errorf("%s: %d of %d sea level values missing", row.name, row.missingSeaLevel, row.records)
		}
	}

	_, rejected := domain.FuseAll(series...)
	for _, r := range rejected {
		fusePhase.errorf("%v: %s", r.Offending.Sources, r.Reason)
	}

	writeTable(w, rows, s.gap)

	phases := []*phase{parsePhase, fusePhase, missingPhase}
	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-36s %s\n", p.name, status)
	}
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// expand replaces directory arguments with the station files they contain.
func expand(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := stationfile.NewDirectory(arg).ListStations(context.Background())
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

func statsFor(name string, ts domain.TideSeries, gap time.Duration) fileStats {
	sum := domain.Summarize(ts)
	return fileStats{
		name:            name,
		records:         sum.Records,
		missingSeaLevel: sum.MissingSeaLevel,
		missingResidual: sum.MissingResidual,
		gaps:            len(domain.FindGaps(ts, gap)),
		first:           sum.First,
		last:            sum.Last,
	}
}

func writeTable(w io.Writer, rows []fileStats, gap time.Duration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "FILE\tRECORDS\tMISSING LEVEL\tMISSING RESIDUAL\tGAPS > %s\tFIRST\tLAST\n", gap)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.name, r.records, r.missingSeaLevel, r.missingResidual, r.gaps, stamp(r.first), stamp(r.last))
	}
	tw.Flush()
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}
