package report

import "github.com/shopspring/decimal"

// Line is one named amount in a breakdown
type Line struct {
	Name   string
	Amount decimal.Decimal
}

// Breakdown accumulates amounts by name, keeping first-seen order
type Breakdown struct {
	lines []Line
	index map[string]int
}

// Add adds amount to name, appending name when it is new
func (b *Breakdown) Add(name string, amount decimal.Decimal) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[name]; ok {
		b.lines[i].Amount = b.lines[i].Amount.Add(amount)
		return
	}
	b.index[name] = len(b.lines)
	b.lines = append(b.lines, Line{Name: name, Amount: amount})
}

// Lines returns the accumulated lines in first-seen order
func (b *Breakdown) Lines() []Line {
	return b.lines
}

// GroupSummary totals a group's expenses by category and by payer
type GroupSummary struct {
	GroupID    string
	Total      decimal.Decimal
	ByCategory Breakdown
	ByPayer    Breakdown
}

// MonthlyTotals is a user's activity in one calendar month
type MonthlyTotals struct {
	UserID string
	Month  string
	Paid   decimal.Decimal
	Owed   decimal.Decimal
}

// Net is what the user paid minus what they owe for the month
func (m *MonthlyTotals) Net() decimal.Decimal {
	return m.Paid.Sub(m.Owed)
}

// UserSummary totals a user's split shares by group and by category
type UserSummary struct {
	UserID     string
	ByGroup    Breakdown
	ByCategory Breakdown
	GroupNames map[string]string
}

// ExpenseRow is the slice of an expense the group summary needs
type ExpenseRow struct {
	Category string
	PaidBy   string
	Amount   decimal.Decimal
}

// ShareRow is one of a user's split shares with its expense's context
type ShareRow struct {
	GroupID   string
	GroupName string
	Category  string
	Amount    decimal.Decimal
}
