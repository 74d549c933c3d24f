package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fkhayef/splitbuddy/internal/balance"
	"github.com/fkhayef/splitbuddy/internal/database"
)

const settlementColumns = `id, group_id, payer_id, payee_id, amount, method, note, created_by, created_at`

// Repository handles settlement data persistence and ledger reads
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type scanner interface{ Scan(...any) error }

func scanSettlement(row scanner) (*Settlement, error) {
	s := &Settlement{}
	err := row.Scan(&s.ID, &s.GroupID, &s.PayerID, &s.PayeeID, &s.Amount, &s.Method, &s.Note, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GroupLedger loads the group's expenses, the splits of those expenses and
// the settlements recorded in the group
func (r *Repository) GroupLedger(ctx context.Context, groupID string) (*Ledger, error) {
	return r.ledger(ctx,
		`SELECT id, paid_by, amount FROM expenses WHERE group_id = $1 ORDER BY date, created_at, id`,
		`SELECT s.expense_id, s.user_id, s.amount
		 FROM expense_splits s
		 JOIN expenses e ON e.id = s.expense_id
		 WHERE e.group_id = $1
		 ORDER BY e.date, e.created_at, s.expense_id, s.created_at, s.id`,
		`SELECT payer_id, payee_id, amount FROM settlements WHERE group_id = $1 ORDER BY created_at, id`,
		groupID,
	)
}

// UserLedger loads only the rows touching userID: expenses they paid, splits
// they owe and settlements they are part of. An empty groupID covers every group.
func (r *Repository) UserLedger(ctx context.Context, userID, groupID string) (*Ledger, error) {
	return r.ledger(ctx,
		`SELECT id, paid_by, amount FROM expenses
		 WHERE paid_by = $1 AND ($2 = '' OR group_id::text = $2)
		 ORDER BY date, created_at, id`,
		`SELECT s.expense_id, s.user_id, s.amount
		 FROM expense_splits s
		 JOIN expenses e ON e.id = s.expense_id
		 WHERE s.user_id = $1 AND ($2 = '' OR e.group_id::text = $2)
		 ORDER BY e.date, e.created_at, s.id`,
		`SELECT payer_id, payee_id, amount FROM settlements
		 WHERE (payer_id = $1 OR payee_id = $1) AND ($2 = '' OR group_id::text = $2)
		 ORDER BY created_at, id`,
		userID, groupID,
	)
}

func (r *Repository) ledger(ctx context.Context, expensesQuery, splitsQuery, transfersQuery string, args ...any) (*Ledger, error) {
	l := &Ledger{}

	rows, err := r.db.QueryContext(ctx, expensesQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	for rows.Next() {
		var e balance.Expense
		if err := rows.Scan(&e.ID, &e.PayerID, &e.Amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		l.Expenses = append(l.Expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, splitsQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load splits: %w", err)
	}
	for rows.Next() {
		var s balance.Split
		if err := rows.Scan(&s.ExpenseID, &s.UserID, &s.Amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		l.Splits = append(l.Splits, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, transfersQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t balance.Transfer
		if err := rows.Scan(&t.PayerID, &t.PayeeID, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		l.Transfers = append(l.Transfers, t)
	}
	return l, rows.Err()
}

// CreateBatch inserts every settlement in one transaction
func (r *Repository) CreateBatch(ctx context.Context, items []*Settlement) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO settlements (id, group_id, payer_id, payee_id, amount, method, note, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at
		`
		for _, s := range items {
			err := tx.QueryRowContext(ctx, query,
				s.ID, s.GroupID, s.PayerID, s.PayeeID, s.Amount, s.Method, s.Note, s.CreatedBy,
			).Scan(&s.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to record settlement: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves a settlement by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = $1`

	s, err := scanSettlement(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return s, nil
}

// ListByGroup retrieves a page of a group's settlements, newest first
func (r *Repository) ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*Settlement, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settlements WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := `
		SELECT ` + settlementColumns + `
		FROM settlements
		WHERE group_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var out []*Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}
