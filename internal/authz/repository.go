package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository answers membership and ownership questions from the database
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new authz repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// IsMember reports whether the user belongs to the group
func (r *Repository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return ok, nil
}

// GroupOwner returns the creator of the group. found is false when the group does not exist.
func (r *Repository) GroupOwner(ctx context.Context, groupID string) (ownerID string, found bool, err error) {
	query := `SELECT created_by FROM groups WHERE id = $1`

	if err := r.db.QueryRowContext(ctx, query, groupID).Scan(&ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get group owner: %w", err)
	}
	return ownerID, true, nil
}

// ExpenseGroup returns the group an expense belongs to
func (r *Repository) ExpenseGroup(ctx context.Context, expenseID string) (groupID string, found bool, err error) {
	query := `SELECT group_id FROM expenses WHERE id = $1`

	if err := r.db.QueryRowContext(ctx, query, expenseID).Scan(&groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get expense group: %w", err)
	}
	return groupID, true, nil
}
