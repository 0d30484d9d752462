package extract

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxType is the direction of a transaction.
type TxType string

const (
	TxIncome  TxType = "income"
	TxExpense TxType = "expense"
)

// Transaction is one extracted statement row after normalization. Amount is
// always signed: expenses carry a non-positive amount, income a non-negative
// one. Type is derived from the amount and description once, at finalization,
// and is never re-derived downstream.
type Transaction struct {
	Date          time.Time
	Amount        decimal.Decimal
	Description   string
	Type          TxType
	Category      string
	SummaryLine   bool
	AccountSuffix string
}

// Period is the billing date range a statement covers. Start never exceeds End.
type Period struct {
	Start time.Time
	End   time.Time
}

// SpansYears reports whether the period crosses a calendar-year boundary.
func (p Period) SpansYears() bool {
	return p.Start.Year() != p.End.Year()
}

// Result is the outcome of processing one document end to end.
type Result struct {
	Hash         string
	Duplicate    bool
	Pages        int
	Period       *Period
	Transactions []Transaction
}
