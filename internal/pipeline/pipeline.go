package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/tidal-analysis/internal/domain"
	"github.com/couchcryptid/tidal-analysis/internal/observability"
)

const (
	maxLoadAttempts = 3
	initialBackoff  = 200 * time.Millisecond
	maxBackoff      = 5 * time.Second

	// maxParallelParse bounds the number of station files open at once.
	maxParallelParse = 8
)

// StationSource lists the station files of one location.
type StationSource interface {
	ListStations(ctx context.Context) ([]string, error)
	Location() string
}

// ReportLoader delivers a finished report to a sink.
type ReportLoader interface {
	Name() string
	LoadReport(ctx context.Context, report domain.Report) error
}

// Pipeline runs parse, fuse, analyze, and load over one station source.
type Pipeline struct {
	source   StationSource
	geocoder domain.Geocoder
	loaders  []ReportLoader
	opts     domain.AnalysisOptions
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
	latest   atomic.Pointer[domain.Report]
}

// New creates a Pipeline. Pass a nil geocoder to skip station geocoding.
func New(src StationSource, geocoder domain.Geocoder, loaders []ReportLoader, opts domain.AnalysisOptions, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:   src,
		geocoder: geocoder,
		loaders:  loaders,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a report has been produced.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no analysis has completed yet")
	}
	return nil
}

// LatestReport returns the most recent report, if any.
func (p *Pipeline) LatestReport() (domain.Report, bool) {
	r := p.latest.Load()
	if r == nil {
		return domain.Report{}, false
	}
	return *r, true
}

// Run analyzes every station file once. A file that fails to parse aborts the
// run. Series whose columns do not match are skipped with a warning. When a
// loader still fails after retries, the report is returned together with the
// joined loader errors.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	p.metrics.AnalysisRunning.Set(1)
	defer p.metrics.AnalysisRunning.Set(0)

	location := p.source.Location()
	p.logger.Info("analysis started", "location", location)

	stage := time.Now()
	paths, err := p.source.ListStations(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("list stations: %w", err)
	}
	if len(paths) == 0 {
		return domain.Report{}, fmt.Errorf("no station files for %s: %w", location, domain.ErrNoRecords)
	}

	series, err := p.parseAll(ctx, paths)
	if err != nil {
		return domain.Report{}, err
	}
	p.observe("parse", stage)

	stage = time.Now()
	fused := p.fuse(series)
	p.observe("fuse", stage)

	stage = time.Now()
	report, err := domain.Analyze(location, fused, p.opts)
	if err != nil {
		return domain.Report{}, fmt.Errorf("analyze %s: %w", location, err)
	}
	p.metrics.GapsDetected.Set(float64(len(report.Gaps)))
	p.observe("analyze", stage)
	p.logger.Info("analysis complete",
		"location", location,
		"records", report.Summary.Records,
		"gaps", len(report.Gaps),
		"years", len(report.YearlyTrends),
	)
	if report.HarmonicsError != "" {
		p.logger.Warn("harmonic fit skipped",
			"location", location,
			"error", report.HarmonicsError,
		)
	}

	stage = time.Now()
	report = domain.EnrichWithGeocoding(ctx, report, p.geocoder, p.logger)
	p.observe("geocode", stage)

	p.latest.Store(&report)
	p.ready.Store(true)

	stage = time.Now()
	err = p.load(ctx, report)
	p.observe("load", stage)
	return report, err
}

// parseAll parses files concurrently and returns the series in path order.
func (p *Pipeline) parseAll(ctx context.Context, paths []string) ([]domain.TideSeries, error) {
	series := make([]domain.TideSeries, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelParse)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := domain.ParseFile(path)
			if err != nil {
				p.metrics.ParseErrors.Inc()
				p.logger.Error("parse station file failed", "file", path, "error", err)
				return fmt.Errorf("parse %s: %w", path, err)
			}
			p.recordParsed(path, s)
			series[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return series, nil
}

func (p *Pipeline) recordParsed(path string, s domain.TideSeries) {
	var missingSea, missingRes int
	for _, r := range s.Records {
		if !r.SeaLevel.Valid {
			missingSea++
		}
		if !r.Residual.Valid {
			missingRes++
		}
	}
	p.metrics.FilesParsed.Inc()
	p.metrics.RecordsParsed.Add(float64(s.Len()))
	p.metrics.MissingValues.WithLabelValues("sea_level").Add(float64(missingSea))
	p.metrics.MissingValues.WithLabelValues("residual").Add(float64(missingRes))
	p.logger.Debug("parsed station file",
		"file", path,
		"records", s.Len(),
		"missing_sea_level", missingSea,
		"missing_residual", missingRes,
	)
}

// fuse folds the parsed series from the empty series, skipping rejects.
func (p *Pipeline) fuse(series []domain.TideSeries) domain.TideSeries {
	fused, rejected := domain.FuseAll(series...)
	for _, r := range rejected {
		p.metrics.FusionRejections.Inc()
		p.logger.Warn("station file skipped",
			"file", r.Offending.Name,
			"reason", r.Reason,
		)
	}
	return fused
}

// load hands the report to every loader, retrying each with backoff.
func (p *Pipeline) load(ctx context.Context, report domain.Report) error {
	var errs []error
	for _, l := range p.loaders {
		if err := p.loadWithRetry(ctx, l, report); err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", l.Name(), err))
			continue
		}
		p.metrics.ReportsPublished.WithLabelValues(l.Name()).Inc()
		p.logger.Info("report loaded", "sink", l.Name(), "report_id", report.ID)
	}
	return errors.Join(errs...)
}

func (p *Pipeline) loadWithRetry(ctx context.Context, l ReportLoader, report domain.Report) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxLoadAttempts; attempt++ {
		if err = l.LoadReport(ctx, report); err == nil {
			return nil
		}
		p.logger.Warn("load report failed",
			"sink", l.Name(),
			"attempt", attempt,
			"error", err,
		)
		if attempt == maxLoadAttempts || !retry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(err, ctxErr)
	}
	return err
}

func (p *Pipeline) observe(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
