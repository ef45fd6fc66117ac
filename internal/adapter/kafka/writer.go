package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/tidal-analysis/internal/config"
	"github.com/couchcryptid/tidal-analysis/internal/domain"
)

const (
	kindReport      = "report"
	kindYearlyTrend = "yearly_trend"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes analysis reports to a Kafka topic: one message with the
// full report followed by one message per yearly trend row.
// It implements pipeline.ReportLoader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// LoadReport publishes the report and its yearly trends in a single
// WriteMessages call. All messages share the location key so they land on
// one partition in order.
func (w *Writer) LoadReport(ctx context.Context, report domain.Report) error {
	msgs, err := serializeReport(report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write report messages: %w", err)
	}
	w.logger.Debug("report published", "report_id", report.ID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeReport(report domain.Report) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, 1+len(report.YearlyTrends))

	msg, err := serializeToMessage(report, kindReport, report)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, msg)

	for _, row := range report.YearlyTrends {
		msg, err := serializeToMessage(report, kindYearlyTrend, row)
		if err != nil {
			return nil, err
		}
		msg.Headers = append(msg.Headers, kafkago.Header{Key: "year", Value: []byte(strconv.Itoa(row.Year))})
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// serializeToMessage marshals v into a message keyed by the report location.
func serializeToMessage(report domain.Report, kind string, v any) (kafkago.Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s: %w", kind, err)
	}
	return kafkago.Message{
		Key:   []byte(report.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(kind)},
			{Key: "report_id", Value: []byte(report.ID)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
