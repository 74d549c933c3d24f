package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assigned to every new expense
const DefaultCurrency = "USD"

// Category is a built-in expense category
type Category struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Categories lists the built-in categories in display order
var Categories = []Category{
	{Key: "food", Label: "Food & Dining", Icon: "🍽️"},
	{Key: "groceries", Label: "Groceries", Icon: "🛒"},
	{Key: "rent", Label: "Rent", Icon: "🏠"},
	{Key: "utilities", Label: "Utilities", Icon: "💡"},
	{Key: "transport", Label: "Transport", Icon: "🚌"},
	{Key: "travel", Label: "Travel", Icon: "✈️"},
	{Key: "entertainment", Label: "Entertainment", Icon: "🎬"},
	{Key: "health", Label: "Health", Icon: "🏥"},
	{Key: "shopping", Label: "Shopping", Icon: "🛍️"},
	{Key: "other", Label: "Other", Icon: "📦"},
}

// DefaultCategory is used when an expense is created without one
const DefaultCategory = "other"

// ValidCategory reports whether key names a built-in category
func ValidCategory(key string) bool {
	for _, c := range Categories {
		if c.Key == key {
			return true
		}
	}
	return false
}

// Expense represents an expense in the system
type Expense struct {
	ID          string
	GroupID     string
	Description string
	Amount      decimal.Decimal
	Currency    string
	Category    string
	Notes       string
	PaidBy      string
	CreatedBy   string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Patch holds the expense fields to change; nil fields are left alone
type Patch struct {
	Description *string
	Amount      *decimal.Decimal
	Currency    *string
	Category    *string
	Notes       *string
	PaidBy      *string
	Date        *time.Time
}

// Empty reports whether the patch changes nothing
func (p *Patch) Empty() bool {
	return p.Description == nil && p.Amount == nil && p.Currency == nil &&
		p.Category == nil && p.Notes == nil && p.PaidBy == nil && p.Date == nil
}

// Split is one user's share of an expense
type Split struct {
	ID        string
	ExpenseID string
	UserID    string
	Amount    decimal.Decimal
	IsSettled bool
	CreatedAt time.Time

	// Populated via JOIN when listing a user's splits
	GroupID     string
	Description string
}

// Attachment is a receipt stored in object storage
type Attachment struct {
	ID          string
	ExpenseID   string
	Filename    string
	ContentType string
	Size        int64
	ObjectKey   string
	URL         string
	UploadedBy  string
	CreatedAt   time.Time
}
