package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fkhayef/splitbuddy/internal/database"
)

const groupColumns = `g.id, g.name, g.description, g.created_by, g.created_at, g.updated_at`

const memberColumns = `gm.group_id, gm.user_id, gm.phone_number, gm.relationship_tag, gm.joined_at,
	u.first_name, u.last_name, u.email`

const inviteColumns = `id, group_id, invited_email, invited_by, status, created_at, updated_at`

// Repository handles group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type scanner interface{ Scan(...any) error }

func scanGroup(row scanner, extra ...any) (*Group, error) {
	g := &Group{}
	dest := append([]any{&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return g, nil
}

func scanMember(row scanner) (*Member, error) {
	m := &Member{}
	err := row.Scan(
		&m.GroupID,
		&m.UserID,
		&m.PhoneNumber,
		&m.RelationshipTag,
		&m.JoinedAt,
		&m.FirstName,
		&m.LastName,
		&m.Email,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func scanInvite(row scanner) (*Invite, error) {
	i := &Invite{}
	err := row.Scan(&i.ID, &i.GroupID, &i.InvitedEmail, &i.InvitedBy, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// Create inserts the group and its creator's membership in one transaction
func (r *Repository) Create(ctx context.Context, g *Group) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO groups (id, name, description, created_by)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at, updated_at
		`
		if err := tx.QueryRowContext(ctx, query, g.ID, g.Name, g.Description, g.CreatedBy).
			Scan(&g.CreatedAt, &g.UpdatedAt); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		member := `INSERT INTO group_members (group_id, user_id, relationship_tag) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, member, g.ID, g.CreatedBy, OwnerTag); err != nil {
			return fmt.Errorf("failed to add group owner: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a group by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g WHERE g.id = $1`

	g, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// ListByUserID retrieves the groups a user belongs to
func (r *Repository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Group, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM group_members WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, total, rows.Err()
}

// Search lists the user's groups filtered by group name and member name,
// both case-insensitive substrings. Empty filters match everything.
func (r *Repository) Search(ctx context.Context, userID, name, member string, limit, offset int) ([]*Summary, int, error) {
	filter := `
		FROM groups g
		JOIN group_members mine ON mine.group_id = g.id AND mine.user_id = $1
		WHERE ($2 = '' OR g.name ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR EXISTS (
			SELECT 1 FROM group_members gm
			JOIN users u ON u.id = gm.user_id
			WHERE gm.group_id = g.id
			  AND (u.first_name || ' ' || u.last_name) ILIKE '%' || $3 || '%'
		  ))
	`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) `+filter, userID, name, member).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT ` + groupColumns + `,
			(SELECT COUNT(*) FROM group_members c WHERE c.group_id = g.id),
			(SELECT COUNT(*) FROM expenses e WHERE e.group_id = g.id)
		` + filter + `
		ORDER BY g.name, g.created_at
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.QueryContext(ctx, query, userID, name, member, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search groups: %w", err)
	}
	defer rows.Close()

	var out []*Summary
	for rows.Next() {
		s := &Summary{}
		g, err := scanGroup(rows, &s.MemberCount, &s.ExpenseCount)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		s.Group = *g
		out = append(out, s)
	}

	return out, total, rows.Err()
}

// Update modifies an existing group
func (r *Repository) Update(ctx context.Context, id string, req *UpdateGroupRequest) (*Group, error) {
	query := `
		UPDATE groups g
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    updated_at = NOW()
		WHERE g.id = $1
		RETURNING ` + groupColumns

	g, err := scanGroup(r.db.QueryRowContext(ctx, query, id, req.Name, req.Description))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return g, nil
}

// Delete removes a group and, by cascade, everything in it
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// AddMember inserts a membership
func (r *Repository) AddMember(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO group_members (group_id, user_id, phone_number, relationship_tag)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at
	`

	err := r.db.QueryRowContext(ctx, query, m.GroupID, m.UserID, m.PhoneNumber, m.RelationshipTag).Scan(&m.JoinedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrMemberAlreadyExists
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// GetMembers retrieves all members of a group
func (r *Repository) GetMembers(ctx context.Context, groupID string) ([]*Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at, gm.user_id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// GetMember retrieves a specific member from a group
func (r *Repository) GetMember(ctx context.Context, groupID, userID string) (*Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1 AND gm.user_id = $2
	`

	m, err := scanMember(r.db.QueryRowContext(ctx, query, groupID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// SetRelationshipTag updates a member's tag. It returns false when the
// membership does not exist.
func (r *Repository) SetRelationshipTag(ctx context.Context, groupID, userID, tag string) (bool, error) {
	query := `UPDATE group_members SET relationship_tag = $3 WHERE group_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, groupID, userID, tag)
	if err != nil {
		return false, fmt.Errorf("failed to update member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// RemoveMember removes a user from a group
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID string) (bool, error) {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove member: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// UpsertInvite creates an invite or reopens an existing one as pending
func (r *Repository) UpsertInvite(ctx context.Context, groupID, email, invitedBy string) (*Invite, error) {
	query := `
		INSERT INTO group_invites (id, group_id, invited_email, invited_by, status)
		VALUES ($1, $2, $3, $4, 'pending')
		ON CONFLICT (group_id, invited_email)
		DO UPDATE SET status = 'pending', invited_by = EXCLUDED.invited_by, updated_at = NOW()
		RETURNING ` + inviteColumns

	inv, err := scanInvite(r.db.QueryRowContext(ctx, query, uuid.NewString(), groupID, email, invitedBy))
	if err != nil {
		return nil, fmt.Errorf("failed to save invite: %w", err)
	}
	return inv, nil
}

// GetInvite retrieves the invite for an email in a group
func (r *Repository) GetInvite(ctx context.Context, groupID, email string) (*Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM group_invites WHERE group_id = $1 AND invited_email = $2`

	inv, err := scanInvite(r.db.QueryRowContext(ctx, query, groupID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return inv, nil
}

// ListInvites lists a group's invites, optionally filtered by status
func (r *Repository) ListInvites(ctx context.Context, groupID string, status InviteStatus) ([]*Invite, error) {
	query := `
		SELECT ` + inviteColumns + `
		FROM group_invites
		WHERE group_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	var invites []*Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// SetInviteStatus records the response to an invite
func (r *Repository) SetInviteStatus(ctx context.Context, id string, status InviteStatus) error {
	query := `UPDATE group_invites SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, string(status)); err != nil {
		return fmt.Errorf("failed to update invite: %w", err)
	}
	return nil
}

// UserByEmail resolves an email to a registered user's ID. found is false
// when nobody has signed up with it.
func (r *Repository) UserByEmail(ctx context.Context, email string) (userID string, found bool, err error) {
	if err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to look up user: %w", err)
	}
	return userID, true, nil
}

// UserExists reports whether a user ID is registered
func (r *Repository) UserExists(ctx context.Context, userID string) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	return ok, nil
}
