package sink

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/dvloznov/sheets-importer/internal/domain"
)

const transactionsTable = "sheet_transactions"

// transactionRow is the BigQuery schema for one imported transaction.
type transactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	BatchID string `bigquery:"batch_id"` // REQUIRED, one per import call

	// TransactionDate is set when the sheet date parses as YYYY-MM-DD;
	// RawDate always carries the cell verbatim.
	TransactionDate bigquery.NullDate `bigquery:"transaction_date"`
	RawDate         string            `bigquery:"raw_date"`

	Type   string   `bigquery:"type"`   // Income | Expense
	Amount *big.Rat `bigquery:"amount"` // REQUIRED NUMERIC, non-negative

	Category    bigquery.NullString `bigquery:"category"`
	Source      bigquery.NullString `bigquery:"source"`
	Description bigquery.NullString `bigquery:"description"`

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// BigQuerySink inserts imported batches into <dataset>.sheet_transactions.
type BigQuerySink struct {
	client  *bigquery.Client
	dataset string
}

// NewBigQuerySink creates a sink writing to the given project and dataset.
func NewBigQuerySink(ctx context.Context, projectID, dataset string) (*BigQuerySink, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("sink: bigquery client: %w", err)
	}
	return &BigQuerySink{client: client, dataset: dataset}, nil
}

// Close closes the BigQuery client connection.
func (s *BigQuerySink) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Save implements Sink. The insert is all-or-nothing from the caller's
// perspective: any inserter error fails the whole batch.
func (s *BigQuerySink) Save(ctx context.Context, batchID string, records []domain.TransactionRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now()
	rows := make([]*transactionRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, newTransactionRow(batchID, rec, now))
	}

	inserter := s.client.Dataset(s.dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return 0, fmt.Errorf("sink: inserting %d rows: %w", len(rows), err)
	}
	return len(rows), nil
}

func newTransactionRow(batchID string, rec domain.TransactionRecord, now time.Time) *transactionRow {
	row := &transactionRow{
		TransactionID: uuid.New().String(),
		BatchID:       batchID,
		RawDate:       rec.Date,
		Type:          string(rec.Type),
		Amount:        new(big.Rat).SetFloat64(rec.Amount),
		Category:      nullString(rec.Category),
		Source:        nullString(rec.Source),
		Description:   nullString(rec.Description),
		CreatedTS:     now,
	}

	if d, err := time.Parse("2006-01-02", rec.Date); err == nil {
		row.TransactionDate = bigquery.NullDate{Date: civil.DateOf(d), Valid: true}
	}
	return row
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// Ensure BigQuerySink implements the Sink interface.
var _ Sink = (*BigQuerySink)(nil)
