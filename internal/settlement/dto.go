package settlement

import (
	"time"

	"github.com/fkhayef/splitbuddy/internal/balance"
)

// SettlementItem is one payment to record
type SettlementItem struct {
	PayerID string  `json:"payer_id" validate:"required,uuid"`
	PayeeID string  `json:"payee_id" validate:"required,uuid"`
	Amount  float64 `json:"amount" validate:"gt=0"`
	Method  string  `json:"method" validate:"max=50"`
	Note    string  `json:"note" validate:"max=500"`
}

// RecordSettlementsRequest records a batch of payments in a group
type RecordSettlementsRequest struct {
	Settlements []SettlementItem `json:"settlements" validate:"required,min=1,dive"`
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID        string  `json:"id"`
	GroupID   string  `json:"group_id"`
	PayerID   string  `json:"payer_id"`
	PayeeID   string  `json:"payee_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method,omitempty"`
	Note      string  `json:"note,omitempty"`
	CreatedBy string  `json:"created_by"`
	CreatedAt string  `json:"created_at"`
}

// RecordResponse reports how many settlements were stored
type RecordResponse struct {
	Message     string                `json:"msg"`
	Count       int                   `json:"count"`
	Settlements []*SettlementResponse `json:"settlements"`
}

// BalanceResponse is one user's position
type BalanceResponse struct {
	UserID  string  `json:"user_id"`
	Paid    float64 `json:"paid"`
	Owed    float64 `json:"owed"`
	Balance float64 `json:"balance"`
}

// GroupBalancesResponse lists every member's position in a group
type GroupBalancesResponse struct {
	GroupID  string             `json:"group_id"`
	Balances []*BalanceResponse `json:"balances"`
}

// UserBalanceResponse is a user's net position, overall or in one group
type UserBalanceResponse struct {
	UserID  string  `json:"user_id"`
	GroupID string  `json:"group_id,omitempty"`
	Paid    float64 `json:"paid"`
	Owed    float64 `json:"owed"`
	Balance float64 `json:"balance"`
}

// SuggestionResponse is one proposed payment
type SuggestionResponse struct {
	PayerID string  `json:"payer_id"`
	PayeeID string  `json:"payee_id"`
	Amount  float64 `json:"amount"`
}

// SuggestionsResponse lists the payments that would settle a group
type SuggestionsResponse struct {
	GroupID     string                `json:"group_id"`
	Suggestions []*SuggestionResponse `json:"suggestions"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	return &SettlementResponse{
		ID:        s.ID,
		GroupID:   s.GroupID,
		PayerID:   s.PayerID,
		PayeeID:   s.PayeeID,
		Amount:    s.Amount.InexactFloat64(),
		Method:    s.Method,
		Note:      s.Note,
		CreatedBy: s.CreatedBy,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toBalanceResponse(e balance.Entry) *BalanceResponse {
	return &BalanceResponse{
		UserID:  e.UserID,
		Paid:    e.Paid.InexactFloat64(),
		Owed:    e.Owed.InexactFloat64(),
		Balance: e.Balance.InexactFloat64(),
	}
}

func toSuggestionResponse(s balance.Suggestion) *SuggestionResponse {
	return &SuggestionResponse{
		PayerID: s.PayerID,
		PayeeID: s.PayeeID,
		Amount:  s.Amount.InexactFloat64(),
	}
}
