package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitbuddy/internal/balance"
)

// Settlement is a recorded payment from one group member to another
type Settlement struct {
	ID        string
	GroupID   string
	PayerID   string
	PayeeID   string
	Amount    decimal.Decimal
	Method    string
	Note      string
	CreatedBy string
	CreatedAt time.Time
}

// Ledger is everything the balance engine needs for one scope
type Ledger struct {
	Expenses  []balance.Expense
	Splits    []balance.Split
	Transfers []balance.Transfer
}

// Entries runs the balance engine over the ledger
func (l *Ledger) Entries() []balance.Entry {
	return balance.ComputeWithTransfers(l.Expenses, l.Splits, l.Transfers)
}
