package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fkhayef/splitbuddy/internal/database"
	"github.com/fkhayef/splitbuddy/internal/expense/split"
)

const expenseColumns = `id, group_id, description, amount, currency, category, notes,
	paid_by, created_by, date, created_at, updated_at`

const attachmentColumns = `id, expense_id, filename, content_type, size, object_key, url, uploaded_by, created_at`

// Repository handles expense data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type scanner interface{ Scan(...any) error }

func scanExpense(row scanner) (*Expense, error) {
	e := &Expense{}
	err := row.Scan(
		&e.ID,
		&e.GroupID,
		&e.Description,
		&e.Amount,
		&e.Currency,
		&e.Category,
		&e.Notes,
		&e.PaidBy,
		&e.CreatedBy,
		&e.Date,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func scanAttachment(row scanner) (*Attachment, error) {
	a := &Attachment{}
	err := row.Scan(&a.ID, &a.ExpenseID, &a.Filename, &a.ContentType, &a.Size, &a.ObjectKey, &a.URL, &a.UploadedBy, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new expense
func (r *Repository) Create(ctx context.Context, e *Expense) error {
	query := `
		INSERT INTO expenses (id, group_id, description, amount, currency, category, notes, paid_by, created_by, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		e.ID, e.GroupID, e.Description, e.Amount, e.Currency, e.Category, e.Notes, e.PaidBy, e.CreatedBy, e.Date,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves an expense by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpense(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// Update applies a patch to an expense
func (r *Repository) Update(ctx context.Context, id string, p *Patch) (*Expense, error) {
	query := `
		UPDATE expenses
		SET description = COALESCE($2, description),
		    amount = COALESCE($3, amount),
		    currency = COALESCE($4, currency),
		    category = COALESCE($5, category),
		    notes = COALESCE($6, notes),
		    paid_by = COALESCE($7, paid_by),
		    date = COALESCE($8, date),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + expenseColumns

	var amount any
	if p.Amount != nil {
		amount = *p.Amount
	}

	e, err := scanExpense(r.db.QueryRowContext(ctx, query,
		id, p.Description, amount, p.Currency, p.Category, p.Notes, p.PaidBy, p.Date,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return e, nil
}

// Delete removes an expense; its splits and attachments cascade
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete expense: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ListByGroup retrieves a page of a group's expenses ordered by date
func (r *Repository) ListByGroup(ctx context.Context, groupID string, ascending bool, limit, offset int) ([]*Expense, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM expenses WHERE group_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	order := "date DESC, created_at DESC"
	if ascending {
		order = "date ASC, created_at ASC"
	}
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE group_id = $1
		ORDER BY ` + order + `
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	return expenses, total, rows.Err()
}

// ListSplits retrieves the splits of an expense in insertion order
func (r *Repository) ListSplits(ctx context.Context, expenseID string) ([]*Split, error) {
	query := `
		SELECT id, expense_id, user_id, amount, is_settled, created_at
		FROM expense_splits
		WHERE expense_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []*Split
	for rows.Next() {
		s := &Split{}
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.UserID, &s.Amount, &s.IsSettled, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, s)
	}
	return splits, rows.Err()
}

// ListUserSplits retrieves a page of every split owed by the user, newest expense first
func (r *Repository) ListUserSplits(ctx context.Context, userID string, limit, offset int) ([]*Split, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expense_splits WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count splits: %w", err)
	}

	query := `
		SELECT s.id, s.expense_id, s.user_id, s.amount, s.is_settled, s.created_at, e.group_id, e.description
		FROM expense_splits s
		JOIN expenses e ON e.id = s.expense_id
		WHERE s.user_id = $1
		ORDER BY e.date DESC, s.id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []*Split
	for rows.Next() {
		s := &Split{}
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.UserID, &s.Amount, &s.IsSettled, &s.CreatedAt, &s.GroupID, &s.Description); err != nil {
			return nil, 0, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, s)
	}
	return splits, total, rows.Err()
}

func insertSplit(ctx context.Context, q database.Querier, s *Split) error {
	query := `
		INSERT INTO expense_splits (id, expense_id, user_id, amount, is_settled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	if err := q.QueryRowContext(ctx, query, s.ID, s.ExpenseID, s.UserID, s.Amount, s.IsSettled).Scan(&s.CreatedAt); err != nil {
		return fmt.Errorf("failed to create split: %w", err)
	}
	return nil
}

// AddSplit inserts a single split
func (r *Repository) AddSplit(ctx context.Context, s *Split) error {
	return insertSplit(ctx, r.db, s)
}

// ReplaceSplits deletes every split of the expense and stores allocs instead,
// all in one transaction
func (r *Repository) ReplaceSplits(ctx context.Context, expenseID string, allocs []split.Allocation) ([]*Split, error) {
	var out []*Split
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, expenseID); err != nil {
			return fmt.Errorf("failed to clear splits: %w", err)
		}

		out = make([]*Split, 0, len(allocs))
		for _, a := range allocs {
			s := &Split{ID: uuid.NewString(), ExpenseID: expenseID, UserID: a.UserID, Amount: a.Amount}
			if err := insertSplit(ctx, tx, s); err != nil {
				return err
			}
			out = append(out, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAttachment records a stored receipt
func (r *Repository) CreateAttachment(ctx context.Context, a *Attachment) error {
	query := `
		INSERT INTO attachments (id, expense_id, filename, content_type, size, object_key, url, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.ExpenseID, a.Filename, a.ContentType, a.Size, a.ObjectKey, a.URL, a.UploadedBy,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}
	return nil
}

// ListAttachments retrieves the receipts of an expense
func (r *Repository) ListAttachments(ctx context.Context, expenseID string) ([]*Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE expense_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var out []*Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
