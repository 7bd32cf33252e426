// Package importer contains the pure row-mapping algorithm that turns raw
// sheet rows into normalized transaction records.
package importer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/sheets-importer/internal/domain"
)

// ColumnMapping associates each logical record field with a source column
// index. A nil index means the field is unmapped and yields an empty value.
// Preview and import share this type: preview uses DefaultMapping, import
// uses client-supplied indices.
type ColumnMapping struct {
	Date        *int `json:"date"`
	Type        *int `json:"type"`
	Amount      *int `json:"amount"`
	Category    *int `json:"category"`
	Source      *int `json:"source"`
	Description *int `json:"description"`
}

// DefaultMapping is the positional mapping used for previews:
// date, type, amount, category, source, description in columns 0..5.
func DefaultMapping() ColumnMapping {
	idx := func(i int) *int { return &i }
	return ColumnMapping{
		Date:        idx(0),
		Type:        idx(1),
		Amount:      idx(2),
		Category:    idx(3),
		Source:      idx(4),
		Description: idx(5),
	}
}

// Summary counts the outcome of one mapping pass. Flagged counts rows whose
// amount cell did not parse as a number; those rows are kept (zero amount,
// classified as expense) so the caller can surface them for manual review.
type Summary struct {
	Income  int `json:"income"`
	Expense int `json:"expense"`
	Flagged int `json:"flagged,omitempty"`
}

// Result is the output of MapRows: exactly one record per input body row,
// plus the summary computed over the same pass.
type Result struct {
	Records []domain.TransactionRecord
	Summary Summary
}

// Preview returns at most n records for display.
func (r Result) Preview(n int) []domain.TransactionRecord {
	if len(r.Records) <= n {
		return r.Records
	}
	return r.Records[:n]
}

// MapRows converts body rows into transaction records. Total: every row
// yields a record, blank and short rows included.
//
// The type is always inferred from the sign of the amount cell — negative
// sheet values represent incoming funds, a convention of the source data
// that must not be "corrected". The mapped type column, when present, is
// informational only. Zero classifies as expense. The stored amount is the
// absolute value.
func MapRows(header []string, rows [][]string, mapping ColumnMapping) Result {
	records := make([]domain.TransactionRecord, 0, len(rows))
	var summary Summary

	for _, row := range rows {
		rec := domain.TransactionRecord{
			Date:        cell(row, mapping.Date),
			Category:    cell(row, mapping.Category),
			Source:      cell(row, mapping.Source),
			Description: cell(row, mapping.Description),
		}

		amount, ok := parseAmount(cell(row, mapping.Amount))
		if !ok {
			summary.Flagged++
		}

		if amount.IsNegative() {
			rec.Type = domain.TypeIncome
			summary.Income++
		} else {
			rec.Type = domain.TypeExpense
			summary.Expense++
		}
		rec.Amount = amount.Abs().InexactFloat64()

		records = append(records, rec)
	}

	return Result{Records: records, Summary: summary}
}

// cell reads the mapped cell, tolerating unmapped fields and short rows.
func cell(row []string, idx *int) string {
	if idx == nil || *idx < 0 || *idx >= len(row) {
		return ""
	}
	return row[*idx]
}

// parseAmount parses an amount cell, normalizing a decimal comma. Returns
// zero and false when the cell is blank or not a number.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
