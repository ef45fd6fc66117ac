package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/tidal-analysis/internal/config"
	"github.com/couchcryptid/tidal-analysis/internal/observability"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		verbose   bool
		xlsxPath  string
		publish   bool
		asJSON    bool
		gapReport string
	)

	cmd := &cobra.Command{
		Use:   "analyze DIR",
		Short: "Analyze a station directory once and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if xlsxPath != "" {
				cfg.XLSXOutput = xlsxPath
			}
			if publish {
				cfg.KafkaEnabled = true
			}
			if gapReport != "" {
				if cfg.ReportGapThreshold, err = parseThreshold(gapReport); err != nil {
					return err
				}
			}

			// Logs go to stdout alongside the report, so keep them to warnings
			// unless asked.
			logger := newLogger(cfg, verbose, "warn")
			metrics := observability.NewMetricsWith(prometheus.NewRegistry())

			a := buildApp(args[0], cfg, logger, metrics)
			defer a.close()

			report, runErr := a.pipeline.Run(cmd.Context())
			if report.ID == "" {
				return runErr
			}

			out := cmd.OutOrStdout()
			if asJSON {
				err = writeJSONReport(out, report)
			} else {
				err = writeTextReport(out, report)
			}
			return errors.Join(err, runErr)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the report to this .xlsx workbook")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the report to Kafka (KAFKA_BROKERS, KAFKA_REPORT_TOPIC)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&gapReport, "gap-threshold", "", "minimum gap listed in the report (default REPORT_GAP_THRESHOLD)")
	return cmd
}

func parseThreshold(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid --gap-threshold %q: must be a positive duration", v)
	}
	return d, nil
}
