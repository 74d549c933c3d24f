package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Repository runs the read-only queries behind reports
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new report repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GroupExpenses lists a group's expenses oldest first
func (r *Repository) GroupExpenses(ctx context.Context, groupID string) ([]ExpenseRow, error) {
	query := `
		SELECT category, paid_by, amount
		FROM expenses
		WHERE group_id = $1
		ORDER BY date, created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group expenses: %w", err)
	}
	defer rows.Close()

	var out []ExpenseRow
	for rows.Next() {
		var e ExpenseRow
		if err := rows.Scan(&e.Category, &e.PaidBy, &e.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MonthlyTotals sums what the user paid and the shares they owe for
// expenses dated in [from, to)
func (r *Repository) MonthlyTotals(ctx context.Context, userID string, from, to time.Time) (paid, owed decimal.Decimal, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE paid_by = $1 AND date >= $2 AND date < $3
	`, userID, from, to).Scan(&paid)
	if err != nil {
		return paid, owed, fmt.Errorf("failed to sum paid: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(s.amount), 0)
		FROM expense_splits s
		JOIN expenses e ON e.id = s.expense_id
		WHERE s.user_id = $1 AND e.date >= $2 AND e.date < $3
	`, userID, from, to).Scan(&owed)
	if err != nil {
		return paid, owed, fmt.Errorf("failed to sum owed: %w", err)
	}
	return paid, owed, nil
}

// UserShares lists every split share the user owes with its group and category
func (r *Repository) UserShares(ctx context.Context, userID string) ([]ShareRow, error) {
	query := `
		SELECT e.group_id, g.name, e.category, s.amount
		FROM expense_splits s
		JOIN expenses e ON e.id = s.expense_id
		JOIN groups g ON g.id = e.group_id
		WHERE s.user_id = $1
		ORDER BY e.date, e.created_at, s.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user shares: %w", err)
	}
	defer rows.Close()

	var out []ShareRow
	for rows.Next() {
		var s ShareRow
		if err := rows.Scan(&s.GroupID, &s.GroupName, &s.Category, &s.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
