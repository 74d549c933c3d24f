package expense

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitbuddy/internal/authz"
	"github.com/fkhayef/splitbuddy/internal/expense/split"
	"github.com/fkhayef/splitbuddy/internal/notification"
	"github.com/fkhayef/splitbuddy/internal/storage"
)

// Common errors
var (
	ErrExpenseNotFound = authz.ErrExpenseNotFound
	ErrGroupNotFound   = authz.ErrGroupNotFound
	ErrForbidden       = authz.ErrForbidden
	ErrNotGroupMember  = errors.New("user is not a member of the expense's group")
	ErrInvalidCategory = errors.New("unknown category")
	ErrInvalidSort     = errors.New("sort must be date_desc or date_asc")
	ErrEmptyFile       = errors.New("empty file")
)

// Store is the persistence the service needs
type Store interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id string) (*Expense, error)
	Update(ctx context.Context, id string, p *Patch) (*Expense, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByGroup(ctx context.Context, groupID string, ascending bool, limit, offset int) ([]*Expense, int, error)
	ListSplits(ctx context.Context, expenseID string) ([]*Split, error)
	ListUserSplits(ctx context.Context, userID string, limit, offset int) ([]*Split, int, error)
	AddSplit(ctx context.Context, s *Split) error
	ReplaceSplits(ctx context.Context, expenseID string, allocs []split.Allocation) ([]*Split, error)
	CreateAttachment(ctx context.Context, a *Attachment) error
	ListAttachments(ctx context.Context, expenseID string) ([]*Attachment, error)
}

// Access answers membership checks
type Access interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	EnsureMember(ctx context.Context, groupID, userID string) error
	EnsureExpenseMember(ctx context.Context, expenseID, userID string) (string, error)
}

// Notifier delivers in-app notifications
type Notifier interface {
	Notify(ctx context.Context, n notification.Notice)
}

// Service handles expense business logic
type Service struct {
	repo         Store
	access       Access
	splitFactory *split.Factory
	objects      storage.ObjectStore
	notifier     Notifier
	now          func() time.Time
}

// NewService creates a new expense service with dependencies injected
func NewService(repo Store, access Access, splitFactory *split.Factory, objects storage.ObjectStore, notifier Notifier) *Service {
	return &Service{
		repo:         repo,
		access:       access,
		splitFactory: splitFactory,
		objects:      objects,
		notifier:     notifier,
		now:          time.Now,
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

func normalizeCategory(c string) (string, error) {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return DefaultCategory, nil
	}
	if !ValidCategory(c) {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Create records an expense paid by the caller
func (s *Service) Create(ctx context.Context, userID string, req *CreateExpenseRequest) (*Expense, error) {
	if err := s.access.EnsureMember(ctx, req.GroupID, userID); err != nil {
		return nil, err
	}

	category, err := normalizeCategory(req.Category)
	if err != nil {
		return nil, err
	}

	date := s.now().UTC()
	if req.Date != nil {
		date = *req.Date
	}

	e := &Expense{
		ID:          uuid.NewString(),
		GroupID:     req.GroupID,
		Description: strings.TrimSpace(req.Description),
		Amount:      decimal.NewFromFloat(req.Amount).Round(2),
		Currency:    DefaultCurrency,
		Category:    category,
		Notes:       strings.TrimSpace(req.Notes),
		PaidBy:      userID,
		CreatedBy:   userID,
		Date:        date,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Get retrieves an expense with its splits
func (s *Service) Get(ctx context.Context, id, userID string) (*Expense, []*Split, error) {
	if _, err := s.access.EnsureExpenseMember(ctx, id, userID); err != nil {
		return nil, nil, err
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if e == nil {
		return nil, nil, ErrExpenseNotFound
	}

	splits, err := s.repo.ListSplits(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return e, splits, nil
}

// Update changes an expense. A new payer must belong to the group.
func (s *Service) Update(ctx context.Context, id, userID string, req *UpdateExpenseRequest) (*Expense, error) {
	groupID, err := s.access.EnsureExpenseMember(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	p := &Patch{
		Description: req.Description,
		Notes:       req.Notes,
		PaidBy:      req.PaidBy,
		Date:        req.Date,
	}
	if req.Amount != nil {
		amount := decimal.NewFromFloat(*req.Amount).Round(2)
		p.Amount = &amount
	}
	if req.Currency != nil {
		currency := strings.ToUpper(*req.Currency)
		p.Currency = &currency
	}
	if req.Category != nil {
		category, err := normalizeCategory(*req.Category)
		if err != nil {
			return nil, err
		}
		p.Category = &category
	}
	if p.PaidBy != nil {
		if err := s.ensureParticipants(ctx, groupID, []string{*p.PaidBy}); err != nil {
			return nil, err
		}
	}

	if p.Empty() {
		e, _, err := s.Get(ctx, id, userID)
		return e, err
	}

	e, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}
	return e, nil
}

// Delete removes an expense and its splits
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.access.EnsureExpenseMember(ctx, id, userID); err != nil {
		return err
	}

	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrExpenseNotFound
	}
	return nil
}

// ListByGroup retrieves a page of a group's expenses. sort is date_desc
// (the default) or date_asc.
func (s *Service) ListByGroup(ctx context.Context, groupID, userID, sort string, page, perPage int) ([]*Expense, int, error) {
	var ascending bool
	switch sort {
	case "", "date_desc":
	case "date_asc":
		ascending = true
	default:
		return nil, 0, ErrInvalidSort
	}

	if err := s.access.EnsureMember(ctx, groupID, userID); err != nil {
		return nil, 0, err
	}

	limit, offset := pageOffset(page, perPage)
	return s.repo.ListByGroup(ctx, groupID, ascending, limit, offset)
}

// ListUserSplits retrieves a page of the splits the user owes
func (s *Service) ListUserSplits(ctx context.Context, userID string, page, perPage int) ([]*Split, int, error) {
	limit, offset := pageOffset(page, perPage)
	return s.repo.ListUserSplits(ctx, userID, limit, offset)
}

// ListSplits retrieves the splits of an expense
func (s *Service) ListSplits(ctx context.Context, expenseID, userID string) ([]*Split, error) {
	if _, err := s.access.EnsureExpenseMember(ctx, expenseID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListSplits(ctx, expenseID)
}

// AddSplit adds one split line for a member of the expense's group
func (s *Service) AddSplit(ctx context.Context, expenseID, userID string, req *AddSplitRequest) (*Split, error) {
	groupID, err := s.access.EnsureExpenseMember(ctx, expenseID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipants(ctx, groupID, []string{req.UserID}); err != nil {
		return nil, err
	}

	sp := &Split{
		ID:        uuid.NewString(),
		ExpenseID: expenseID,
		UserID:    req.UserID,
		Amount:    decimal.NewFromFloat(req.Amount).Round(2),
		IsSettled: req.IsSettled,
	}
	if err := s.repo.AddSplit(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// splitTotal is the amount to divide: the requested one rounded to cents, or
// the expense amount when none (or zero) was given
func splitTotal(e *Expense, amount *float64) decimal.Decimal {
	if amount == nil || *amount == 0 {
		return e.Amount
	}
	return decimal.NewFromFloat(*amount).Round(2)
}

// Preview computes a split without saving it. The total defaults to the
// expense amount and the mode to equal.
func (s *Service) Preview(ctx context.Context, expenseID, userID string, req *SplitPreviewRequest) (decimal.Decimal, []split.Allocation, error) {
	e, _, err := s.Get(ctx, expenseID, userID)
	if err != nil {
		return decimal.Zero, nil, err
	}

	total := splitTotal(e, req.Amount)
	allocs, err := s.compute(total, req.Mode, req.Participants)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return total, allocs, nil
}

// Commit replaces every split of the expense. When a mode is given the lines
// are computed the same way Preview does; otherwise the given lines are stored.
func (s *Service) Commit(ctx context.Context, expenseID, userID string, req *SplitCommitRequest) ([]*Split, error) {
	e, _, err := s.Get(ctx, expenseID, userID)
	if err != nil {
		return nil, err
	}

	var allocs []split.Allocation
	if req.Mode != "" || len(req.Participants) > 0 {
		if allocs, err = s.compute(splitTotal(e, req.Amount), req.Mode, req.Participants); err != nil {
			return nil, err
		}
	} else {
		allocs = make([]split.Allocation, len(req.Splits))
		for i, item := range req.Splits {
			allocs[i] = split.Allocation{UserID: item.UserID, Amount: decimal.NewFromFloat(item.Amount).Round(2)}
		}
	}

	ids := make([]string, len(allocs))
	for i, a := range allocs {
		ids[i] = a.UserID
	}
	if err := s.ensureParticipants(ctx, e.GroupID, ids); err != nil {
		return nil, err
	}

	splits, err := s.repo.ReplaceSplits(ctx, expenseID, allocs)
	if err != nil {
		return nil, err
	}

	for _, sp := range splits {
		if sp.UserID == userID || sp.Amount.IsZero() {
			continue
		}
		s.notifier.Notify(ctx, notification.Notice{
			RecipientID: sp.UserID,
			Message:     fmt.Sprintf("Your share of %q is %s %s.", e.Description, sp.Amount.StringFixed(2), e.Currency),
			EntityType:  notification.EntityExpense,
			EntityID:    e.ID,
		})
	}
	return splits, nil
}

func (s *Service) compute(total decimal.Decimal, mode split.Mode, participants []ParticipantRequest) ([]split.Allocation, error) {
	if mode == "" {
		mode = split.ModeEqual
	}
	return s.splitFactory.Compute(total, mode, toParticipants(participants))
}

// ensureParticipants fails with ErrNotGroupMember unless every user belongs to the group
func (s *Service) ensureParticipants(ctx context.Context, groupID string, userIDs []string) error {
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		ok, err := s.access.IsMember(ctx, groupID, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotGroupMember, id)
		}
	}
	return nil
}

// Upload stores a receipt for the expense under {expense_id}/{random}{ext}
func (s *Service) Upload(ctx context.Context, expenseID, userID, filename, contentType string, size int64, body io.Reader) (*Attachment, error) {
	if _, err := s.access.EnsureExpenseMember(ctx, expenseID, userID); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, ErrEmptyFile
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := expenseID + "/" + strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ToLower(path.Ext(filename))
	obj, err := s.objects.Put(ctx, key, body, size, contentType)
	if err != nil {
		return nil, err
	}

	a := &Attachment{
		ID:          uuid.NewString(),
		ExpenseID:   expenseID,
		Filename:    filename,
		ContentType: contentType,
		Size:        obj.Size,
		ObjectKey:   obj.Key,
		URL:         obj.URL,
		UploadedBy:  userID,
	}
	if err := s.repo.CreateAttachment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAttachments retrieves the receipts of an expense
func (s *Service) ListAttachments(ctx context.Context, expenseID, userID string) ([]*Attachment, error) {
	if _, err := s.access.EnsureExpenseMember(ctx, expenseID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListAttachments(ctx, expenseID)
}
