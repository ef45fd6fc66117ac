package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/tidal-analysis/internal/domain"
)

// Analyzer is the pipeline as seen by the HTTP layer.
type Analyzer interface {
	sharedobs.ReadinessChecker
	LatestReport() (domain.Report, bool)
	Run(ctx context.Context) (domain.Report, error)
}

// Server exposes probes, metrics, and the latest analysis report.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	logger     *slog.Logger

	runMu sync.Mutex // one analysis run at a time
}

// NewServer registers /healthz, /readyz, /metrics, GET /report,
// GET /report/gaps, and POST /runs.
func NewServer(addr string, analyzer Analyzer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       60 * time.Second,
		},
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(analyzer))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /report/gaps", s.handleGaps)
	mux.HandleFunc("POST /runs", s.handleRun)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.analyzer.LatestReport()
	if !ok {
		writeNoReport(w)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleGaps(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.analyzer.LatestReport()
	if !ok {
		writeNoReport(w)
		return
	}
	gaps := report.Gaps
	if gaps == nil {
		gaps = []domain.Gap{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"threshold_seconds": report.GapThreshold.Seconds(),
		"gaps":              gaps,
	})
}

// handleRun re-analyzes the station directory. Concurrent requests get 409.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.runMu.TryLock() {
		sharedobs.WriteJSON(w, http.StatusConflict, map[string]string{"error": "analysis already running"})
		return
	}
	defer s.runMu.Unlock()

	report, err := s.analyzer.Run(r.Context())
	if err != nil && report.ID == "" {
		s.logger.Error("analysis run failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	body := map[string]any{"id": report.ID, "generated_at": report.GeneratedAt}
	if err != nil {
		// The report was produced but at least one sink rejected it.
		body["load_error"] = err.Error()
	}
	sharedobs.WriteJSON(w, http.StatusOK, body)
}

func writeNoReport(w http.ResponseWriter) {
	sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no report available"})
}
