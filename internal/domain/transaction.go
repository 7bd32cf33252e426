package domain

// TransactionType classifies a transaction as money in or money out.
type TransactionType string

const (
	TypeIncome  TransactionType = "Income"
	TypeExpense TransactionType = "Expense"
)

// TransactionRecord is one normalized transaction produced by the row
// mapper. Amount is always non-negative; the sign of the source cell is
// consumed to produce Type and never retained. Date is carried verbatim
// from the sheet cell since source sheets use arbitrary date formats.
type TransactionRecord struct {
	Date        string          `json:"date"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Category    string          `json:"category"`
	Source      string          `json:"source"`
	Description string          `json:"description"`
}

// FileHandle identifies one spreadsheet file in Drive. Transient: refetched
// on every discovery call, never cached.
type FileHandle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SheetHandle identifies one tab within a spreadsheet file.
type SheetHandle struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Index int64  `json:"index"`
}
