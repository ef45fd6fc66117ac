package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/tidal-analysis/internal/adapter/http"
	"github.com/couchcryptid/tidal-analysis/internal/config"
	"github.com/couchcryptid/tidal-analysis/internal/observability"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [DIR]",
		Short: "Analyze once, then serve the report, probes, and metrics",
		Long: `Runs the analysis at startup and serves GET /report, GET /report/gaps,
POST /runs (re-analyze), /healthz, /readyz and /metrics until interrupted.
DIR defaults to DATA_DIR.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.DataDir = args[0]
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}

			logger := newLogger(cfg, false, "")
			metrics := observability.NewMetrics()

			a := buildApp(cfg.DataDir, cfg, logger, metrics)
			defer a.close()

			srv := httpadapter.NewServer(cfg.HTTPAddr, a.pipeline, logger)

			ctx := cmd.Context()
			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			// Readiness flips once the first report exists; a failed first run
			// leaves the service up but not ready.
			if _, err := a.pipeline.Run(ctx); err != nil {
				logger.Error("initial analysis failed", "dir", cfg.DataDir, "error", err)
			}

			select {
			case <-ctx.Done():
			case err := <-errCh:
				logger.Error("http server error", "error", err)
				return err
			}
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
				return err
			}
			logger.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default HTTP_ADDR)")
	return cmd
}
