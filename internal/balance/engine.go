// Package balance aggregates who paid and who owes across expenses and turns
// the resulting net balances into a short list of suggested transfers.
package balance

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Expense is the part of an expense the engine needs: who paid and how much
type Expense struct {
	ID      string
	PayerID string
	Amount  decimal.Decimal
}

// Split is one user's share of an expense
type Split struct {
	ExpenseID string
	UserID    string
	Amount    decimal.Decimal
}

// Transfer is money already moved between two users (a recorded settlement)
type Transfer struct {
	PayerID string
	PayeeID string
	Amount  decimal.Decimal
}

// Entry is a user's aggregate position. Positive Balance = owed money,
// negative = owes money.
type Entry struct {
	UserID  string
	Paid    decimal.Decimal
	Owed    decimal.Decimal
	Balance decimal.Decimal
}

// Suggestion is a proposed transfer from a debtor to a creditor
type Suggestion struct {
	PayerID string
	PayeeID string
	Amount  decimal.Decimal
}

// settledEpsilon is the remaining amount below which a party counts as settled
var settledEpsilon = decimal.New(1, -4)

// Compute sums paid and owed per user. Entries come back in order of first
// appearance: payers in expense order, then split owners in split order.
// Users that appear nowhere are omitted. The caller decides the scope.
func Compute(expenses []Expense, splits []Split) []Entry {
	return ComputeWithTransfers(expenses, splits, nil)
}

// ComputeWithTransfers is Compute with recorded settlements folded in: the
// transfer payer counts as having paid and the payee as owing the amount.
func ComputeWithTransfers(expenses []Expense, splits []Split, transfers []Transfer) []Entry {
	var entries []Entry
	index := make(map[string]int)

	entry := func(userID string) *Entry {
		i, ok := index[userID]
		if !ok {
			i = len(entries)
			index[userID] = i
			entries = append(entries, Entry{
				UserID: userID,
				Paid:   decimal.Zero,
				Owed:   decimal.Zero,
			})
		}
		return &entries[i]
	}

	for _, e := range expenses {
		p := entry(e.PayerID)
		p.Paid = p.Paid.Add(e.Amount)
	}
	for _, s := range splits {
		o := entry(s.UserID)
		o.Owed = o.Owed.Add(s.Amount)
	}
	for _, t := range transfers {
		p := entry(t.PayerID)
		p.Paid = p.Paid.Add(t.Amount)
		o := entry(t.PayeeID)
		o.Owed = o.Owed.Add(t.Amount)
	}

	for i := range entries {
		entries[i].Balance = entries[i].Paid.Sub(entries[i].Owed).Round(2)
		entries[i].Paid = entries[i].Paid.Round(2)
		entries[i].Owed = entries[i].Owed.Round(2)
	}
	return entries
}

// ByUser indexes entries by user id
func ByUser(entries []Entry) map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.UserID] = e
	}
	return m
}

type party struct {
	userID string
	amount decimal.Decimal
}

// Suggest matches the largest debtors with the largest creditors until one
// side runs out. It never returns more than creditors+debtors-1 transfers.
func Suggest(entries []Entry) []Suggestion {
	var creditors, debtors []party
	for _, e := range entries {
		b := e.Balance.Round(2)
		switch {
		case b.IsPositive():
			creditors = append(creditors, party{userID: e.UserID, amount: b})
		case b.IsNegative():
			debtors = append(debtors, party{userID: e.UserID, amount: b.Neg()})
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool {
		return creditors[i].amount.GreaterThan(creditors[j].amount)
	})
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].amount.GreaterThan(debtors[j].amount)
	})

	suggestions := make([]Suggestion, 0)
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		c, dbt := &creditors[i], &debtors[j]

		pay := decimal.Min(c.amount, dbt.amount).Round(2)
		if pay.IsPositive() {
			suggestions = append(suggestions, Suggestion{
				PayerID: dbt.userID,
				PayeeID: c.userID,
				Amount:  pay,
			})
			c.amount = c.amount.Sub(pay)
			dbt.amount = dbt.amount.Sub(pay)
		}

		moved := false
		if c.amount.LessThanOrEqual(settledEpsilon) {
			i++
			moved = true
		}
		if dbt.amount.LessThanOrEqual(settledEpsilon) {
			j++
			moved = true
		}
		// Unreachable with cent-rounded balances; keeps the loop finite if that changes.
		if !moved {
			if c.amount.LessThan(dbt.amount) {
				i++
			} else {
				j++
			}
		}
	}
	return suggestions
}
