package split

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Mode defines how an expense total is divided among participants
type Mode string

const (
	ModeEqual   Mode = "equal"
	ModePercent Mode = "percent"
	ModeShares  Mode = "shares"
	ModeExact   Mode = "exact"
)

// Participant is one user taking part in a split. Only the field matching the
// mode is read; a missing value counts as zero.
type Participant struct {
	UserID      string
	Percent     decimal.Decimal
	Shares      decimal.Decimal
	ExactAmount decimal.Decimal
}

// Allocation is the amount a single participant owes for the expense
type Allocation struct {
	UserID string
	Amount decimal.Decimal
}

// Strategy is the interface that all split modes implement
type Strategy interface {
	// Mode returns the identifier for this strategy
	Mode() Mode

	// Validate checks the inputs before anything is computed
	Validate(total decimal.Decimal, participants []Participant) error

	// Calculate validates and computes one allocation per participant, in input order
	Calculate(total decimal.Decimal, participants []Participant) ([]Allocation, error)
}

// Factory creates split strategies based on the requested mode
type Factory struct {
	reconcilePercent bool
}

// NewSplitStrategyFactory creates a new factory instance. When reconcilePercent
// is set, percent splits push their rounding remainder onto the last participant.
func NewSplitStrategyFactory(reconcilePercent bool) *Factory {
	return &Factory{reconcilePercent: reconcilePercent}
}

// Create returns the strategy implementation for the mode
func (f *Factory) Create(mode Mode) (Strategy, error) {
	switch mode {
	case ModeEqual:
		return &EqualStrategy{}, nil
	case ModePercent:
		return &PercentStrategy{Reconcile: f.reconcilePercent}, nil
	case ModeShares:
		return &SharesStrategy{}, nil
	case ModeExact:
		return &ExactStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// CreateFromString creates a strategy from a string mode (useful for API requests)
func (f *Factory) CreateFromString(mode string) (Strategy, error) {
	return f.Create(Mode(mode))
}

// Compute runs the strategy for mode over participants
func (f *Factory) Compute(total decimal.Decimal, mode Mode, participants []Participant) ([]Allocation, error) {
	strategy, err := f.Create(mode)
	if err != nil {
		return nil, err
	}
	return strategy.Calculate(total, participants)
}

var (
	ErrNoParticipants    = errors.New("at least one participant is required")
	ErrInvalidPercentSum = errors.New("percentages must sum to 100")
	ErrInvalidShareTotal = errors.New("total shares must be greater than zero")
	ErrSumMismatch       = errors.New("exact amounts must sum to total amount")
	ErrInvalidMode       = errors.New("unknown split mode")
)

var (
	hundred          = decimal.NewFromInt(100)
	percentTolerance = decimal.New(1, -4)
)

// roundCents rounds a value to 2 decimal places (half away from zero)
func roundCents(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}
