package sink

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dvloznov/sheets-importer/internal/domain"
)

// LogSink logs each batch instead of persisting it. Used when no BigQuery
// project is configured, so the import endpoint still reports counts.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a logging sink.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Save implements Sink.
func (s *LogSink) Save(ctx context.Context, batchID string, records []domain.TransactionRecord) (int, error) {
	s.log.Info().
		Str("batch_id", batchID).
		Int("records", len(records)).
		Msg("No sink configured, batch not persisted")
	return len(records), nil
}

// Ensure LogSink implements the Sink interface.
var _ Sink = (*LogSink)(nil)
