package report

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitbuddy/internal/authz"
)

// Common errors
var (
	ErrGroupNotFound = authz.ErrGroupNotFound
	ErrForbidden     = authz.ErrForbidden
	ErrInvalidMonth  = errors.New("month must be formatted as YYYY-MM")
)

const monthLayout = "2006-01"

// Store is the persistence the service needs
type Store interface {
	GroupExpenses(ctx context.Context, groupID string) ([]ExpenseRow, error)
	MonthlyTotals(ctx context.Context, userID string, from, to time.Time) (paid, owed decimal.Decimal, err error)
	UserShares(ctx context.Context, userID string) ([]ShareRow, error)
}

// Access answers membership checks
type Access interface {
	EnsureMember(ctx context.Context, groupID, userID string) error
}

// Service builds group and user reports
type Service struct {
	repo   Store
	access Access
}

// NewService creates a new report service
func NewService(repo Store, access Access) *Service {
	return &Service{repo: repo, access: access}
}

// GroupSummary totals a group's expenses. Only members may read it.
func (s *Service) GroupSummary(ctx context.Context, groupID, userID string) (*GroupSummary, error) {
	if err := s.access.EnsureMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	rows, err := s.repo.GroupExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}

	sum := &GroupSummary{GroupID: groupID}
	for _, e := range rows {
		category := e.Category
		if category == "" {
			category = "uncategorized"
		}
		sum.Total = sum.Total.Add(e.Amount)
		sum.ByCategory.Add(category, e.Amount)
		sum.ByPayer.Add(e.PaidBy, e.Amount)
	}
	return sum, nil
}

// Monthly reports what the user paid and owed in month (YYYY-MM, UTC)
func (s *Service) Monthly(ctx context.Context, callerID, userID, month string) (*MonthlyTotals, error) {
	if callerID != userID {
		return nil, ErrForbidden
	}
	from, err := time.Parse(monthLayout, month)
	if err != nil {
		return nil, ErrInvalidMonth
	}

	paid, owed, err := s.repo.MonthlyTotals(ctx, userID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	return &MonthlyTotals{UserID: userID, Month: month, Paid: paid, Owed: owed}, nil
}

// UserSummary totals the user's shares by group and by category
func (s *Service) UserSummary(ctx context.Context, callerID, userID string) (*UserSummary, error) {
	if callerID != userID {
		return nil, ErrForbidden
	}

	rows, err := s.repo.UserShares(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum := &UserSummary{UserID: userID, GroupNames: make(map[string]string)}
	for _, r := range rows {
		category := r.Category
		if category == "" {
			category = "uncategorized"
		}
		sum.ByGroup.Add(r.GroupID, r.Amount)
		sum.ByCategory.Add(category, r.Amount)
		sum.GroupNames[r.GroupID] = r.GroupName
	}
	return sum, nil
}
