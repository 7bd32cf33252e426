// Package sink persists mapped transaction records.
package sink

import (
	"context"

	"github.com/dvloznov/sheets-importer/internal/domain"
)

// Sink saves one batch of mapped records and returns how many were
// persisted. The import endpoint only depends on this contract.
type Sink interface {
	Save(ctx context.Context, batchID string, records []domain.TransactionRecord) (int, error)
}
