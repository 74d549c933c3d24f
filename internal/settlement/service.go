package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitbuddy/internal/authz"
	"github.com/fkhayef/splitbuddy/internal/balance"
	"github.com/fkhayef/splitbuddy/internal/notification"
)

// Common errors
var (
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrGroupNotFound      = authz.ErrGroupNotFound
	ErrForbidden          = authz.ErrForbidden
	ErrSelfSettlement     = errors.New("payer and payee must be different users")
	ErrNotGroupMember     = errors.New("payer and payee must both be group members")
	ErrInvalidAmount      = errors.New("amount must be greater than 0")
)

// Store is the persistence the service needs
type Store interface {
	GroupLedger(ctx context.Context, groupID string) (*Ledger, error)
	UserLedger(ctx context.Context, userID, groupID string) (*Ledger, error)
	CreateBatch(ctx context.Context, items []*Settlement) error
	GetByID(ctx context.Context, id string) (*Settlement, error)
	ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*Settlement, int, error)
}

// Access answers membership checks
type Access interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	EnsureMember(ctx context.Context, groupID, userID string) error
}

// Notifier delivers in-app notifications
type Notifier interface {
	Notify(ctx context.Context, n notification.Notice)
}

// Service handles balances and settlement business logic
type Service struct {
	repo     Store
	access   Access
	notifier Notifier
}

// NewService creates a new settlement service with dependencies injected
func NewService(repo Store, access Access, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		access:   access,
		notifier: notifier,
	}
}

func pageOffset(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return perPage, (page - 1) * perPage
}

// GroupBalances computes every participant's net position in a group
func (s *Service) GroupBalances(ctx context.Context, groupID, userID string) ([]balance.Entry, error) {
	if err := s.access.EnsureMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	ledger, err := s.repo.GroupLedger(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return ledger.Entries(), nil
}

// Suggest proposes the payments that would bring every balance in the group to zero
func (s *Service) Suggest(ctx context.Context, groupID, userID string) ([]balance.Suggestion, error) {
	entries, err := s.GroupBalances(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	return balance.Suggest(entries), nil
}

// UserBalance computes a user's net position across all groups, or in one
// group when groupID is set. Callers may only read their own balance.
func (s *Service) UserBalance(ctx context.Context, callerID, userID, groupID string) (balance.Entry, error) {
	if callerID != userID {
		return balance.Entry{}, ErrForbidden
	}
	if groupID != "" {
		if err := s.access.EnsureMember(ctx, groupID, userID); err != nil {
			return balance.Entry{}, err
		}
	}

	ledger, err := s.repo.UserLedger(ctx, userID, groupID)
	if err != nil {
		return balance.Entry{}, err
	}
	if e, ok := balance.ByUser(ledger.Entries())[userID]; ok {
		return e, nil
	}
	return balance.Entry{UserID: userID}, nil
}

// Record stores a batch of payments in a group. Either every item is
// stored or none is.
func (s *Service) Record(ctx context.Context, groupID, userID string, req *RecordSettlementsRequest) ([]*Settlement, error) {
	if err := s.access.EnsureMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	items := make([]*Settlement, 0, len(req.Settlements))
	for _, it := range req.Settlements {
		if it.PayerID == it.PayeeID {
			return nil, ErrSelfSettlement
		}
		amount := decimal.NewFromFloat(it.Amount).Round(2)
		if !amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		for _, id := range []string{it.PayerID, it.PayeeID} {
			ok, err := s.access.IsMember(ctx, groupID, id)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrNotGroupMember
			}
		}

		items = append(items, &Settlement{
			ID:        uuid.NewString(),
			GroupID:   groupID,
			PayerID:   it.PayerID,
			PayeeID:   it.PayeeID,
			Amount:    amount,
			Method:    it.Method,
			Note:      it.Note,
			CreatedBy: userID,
		})
	}

	if err := s.repo.CreateBatch(ctx, items); err != nil {
		return nil, err
	}

	for _, it := range items {
		if it.PayeeID == userID {
			continue
		}
		s.notifier.Notify(ctx, notification.Notice{
			RecipientID: it.PayeeID,
			Message:     fmt.Sprintf("A payment of %s to you was recorded", it.Amount.StringFixed(2)),
			EntityType:  notification.EntitySettlement,
			EntityID:    it.ID,
		})
	}
	return items, nil
}

// GetByID retrieves a settlement visible to a member of its group
func (s *Service) GetByID(ctx context.Context, id, userID string) (*Settlement, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrSettlementNotFound
	}
	if err := s.access.EnsureMember(ctx, st.GroupID, userID); err != nil {
		return nil, err
	}
	return st, nil
}

// ListByGroup retrieves a page of the settlements recorded in a group
func (s *Service) ListByGroup(ctx context.Context, groupID, userID string, page, perPage int) ([]*Settlement, int, error) {
	if err := s.access.EnsureMember(ctx, groupID, userID); err != nil {
		return nil, 0, err
	}
	limit, offset := pageOffset(page, perPage)
	return s.repo.ListByGroup(ctx, groupID, limit, offset)
}
