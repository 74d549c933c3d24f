package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitbuddy/internal/expense/split"
)

// CreateExpenseRequest represents the request to create an expense. The
// caller is recorded as payer.
type CreateExpenseRequest struct {
	GroupID     string     `json:"group_id" validate:"required,uuid"`
	Description string     `json:"description" validate:"required,max=255"`
	Amount      float64    `json:"amount" validate:"gte=0"`
	Category    string     `json:"category" validate:"omitempty,max=50"`
	Notes       string     `json:"notes" validate:"max=1000"`
	Date        *time.Time `json:"date,omitempty"`
}

// UpdateExpenseRequest represents the request to update an expense
type UpdateExpenseRequest struct {
	Description *string    `json:"description,omitempty" validate:"omitempty,min=1,max=255"`
	Amount      *float64   `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Currency    *string    `json:"currency,omitempty" validate:"omitempty,len=3"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,max=50"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
	PaidBy      *string    `json:"paid_by,omitempty" validate:"omitempty,uuid"`
	Date        *time.Time `json:"date,omitempty"`
}

// AddSplitRequest adds one split row to an expense
type AddSplitRequest struct {
	UserID    string  `json:"user_id" validate:"required,uuid"`
	Amount    float64 `json:"amount" validate:"gte=0"`
	IsSettled bool    `json:"is_settled"`
}

// ParticipantRequest is one participant of a split calculation. Only the
// field matching the mode is read.
type ParticipantRequest struct {
	UserID      string   `json:"user_id" validate:"required,uuid"`
	Percent     *float64 `json:"percent,omitempty"`
	Shares      *float64 `json:"shares,omitempty"`
	ExactAmount *float64 `json:"exact_amount,omitempty"`
}

// SplitPreviewRequest computes a split without saving it. Amount defaults to
// the expense amount.
type SplitPreviewRequest struct {
	Mode         split.Mode           `json:"mode"`
	Amount       *float64             `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Participants []ParticipantRequest `json:"participants" validate:"dive"`
}

// SplitItem is one committed split line
type SplitItem struct {
	UserID string  `json:"user_id" validate:"required,uuid"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// SplitCommitRequest replaces every split of an expense. Either give the
// split lines directly or a mode and participants to compute them.
type SplitCommitRequest struct {
	Splits       []SplitItem          `json:"splits" validate:"dive"`
	Mode         split.Mode           `json:"mode,omitempty"`
	Amount       *float64             `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Participants []ParticipantRequest `json:"participants,omitempty" validate:"dive"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID          string           `json:"id"`
	GroupID     string           `json:"group_id"`
	Description string           `json:"description"`
	Amount      float64          `json:"amount"`
	Currency    string           `json:"currency"`
	Category    string           `json:"category"`
	Notes       string           `json:"notes"`
	PaidBy      string           `json:"paid_by"`
	CreatedBy   string           `json:"created_by"`
	Date        string           `json:"date"`
	CreatedAt   string           `json:"created_at"`
	Splits      []*SplitResponse `json:"splits,omitempty"`
}

// SplitResponse represents the response for a split
type SplitResponse struct {
	ID          string  `json:"id"`
	ExpenseID   string  `json:"expense_id"`
	UserID      string  `json:"user_id"`
	Amount      float64 `json:"amount"`
	IsSettled   bool    `json:"is_settled"`
	GroupID     string  `json:"group_id,omitempty"`
	Description string  `json:"description,omitempty"`
}

// AllocationResponse is one line of a computed split
type AllocationResponse struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

// SplitPreviewResponse is the result of a split calculation
type SplitPreviewResponse struct {
	Total  float64               `json:"total"`
	Splits []*AllocationResponse `json:"splits"`
}

// CommitResponse reports how many splits were stored
type CommitResponse struct {
	Message string `json:"msg"`
	Count   int    `json:"count"`
}

// AttachmentResponse represents a stored receipt
type AttachmentResponse struct {
	ID          string `json:"id"`
	ExpenseID   string `json:"expense_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
	UploadedBy  string `json:"uploaded_by"`
	CreatedAt   string `json:"created_at"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount.InexactFloat64(),
		Currency:    e.Currency,
		Category:    e.Category,
		Notes:       e.Notes,
		PaidBy:      e.PaidBy,
		CreatedBy:   e.CreatedBy,
		Date:        e.Date.UTC().Format(time.RFC3339),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToResponse converts a Split model to a SplitResponse DTO
func (s *Split) ToResponse() *SplitResponse {
	return &SplitResponse{
		ID:          s.ID,
		ExpenseID:   s.ExpenseID,
		UserID:      s.UserID,
		Amount:      s.Amount.InexactFloat64(),
		IsSettled:   s.IsSettled,
		GroupID:     s.GroupID,
		Description: s.Description,
	}
}

// ToResponse converts an Attachment model to an AttachmentResponse DTO
func (a *Attachment) ToResponse() *AttachmentResponse {
	return &AttachmentResponse{
		ID:          a.ID,
		ExpenseID:   a.ExpenseID,
		Filename:    a.Filename,
		ContentType: a.ContentType,
		Size:        a.Size,
		URL:         a.URL,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// toParticipants converts request participants for the split calculator
func toParticipants(in []ParticipantRequest) []split.Participant {
	out := make([]split.Participant, len(in))
	for i, p := range in {
		out[i] = split.Participant{
			UserID:      p.UserID,
			Percent:     optionalDecimal(p.Percent),
			Shares:      optionalDecimal(p.Shares),
			ExactAmount: optionalDecimal(p.ExactAmount),
		}
	}
	return out
}

func optionalDecimal(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}

// toPreviewResponse renders allocations for the API
func toPreviewResponse(total decimal.Decimal, allocs []split.Allocation) *SplitPreviewResponse {
	resp := &SplitPreviewResponse{
		Total:  total.InexactFloat64(),
		Splits: make([]*AllocationResponse, len(allocs)),
	}
	for i, a := range allocs {
		resp.Splits[i] = &AllocationResponse{UserID: a.UserID, Amount: a.Amount.InexactFloat64()}
	}
	return resp
}
