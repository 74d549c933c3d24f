package split

import "github.com/shopspring/decimal"

// =============================================================================
// PERCENT SPLIT STRATEGY
// Divides the expense by each participant's percentage of the total
// =============================================================================

// PercentStrategy implements the Strategy interface for percentage splits.
// Without Reconcile the rounded amounts may differ from the total by a few cents.
type PercentStrategy struct {
	Reconcile bool
}

// Mode returns the split mode identifier
func (s *PercentStrategy) Mode() Mode {
	return ModePercent
}

// Validate checks that the percentages sum to 100 within 0.0001
func (s *PercentStrategy) Validate(total decimal.Decimal, participants []Participant) error {
	sum := decimal.Zero
	for _, p := range participants {
		sum = sum.Add(p.Percent)
	}
	if sum.Sub(hundred).Abs().GreaterThan(percentTolerance) {
		return ErrInvalidPercentSum
	}
	return nil
}

// Calculate gives each participant round(total * percent / 100, 2)
func (s *PercentStrategy) Calculate(total decimal.Decimal, participants []Participant) ([]Allocation, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	outputs := make([]Allocation, len(participants))
	allocated := decimal.Zero
	for i, p := range participants {
		amount := roundCents(total.Mul(p.Percent).Div(hundred))
		allocated = allocated.Add(amount)
		outputs[i] = Allocation{UserID: p.UserID, Amount: amount}
	}

	if s.Reconcile && len(outputs) > 0 {
		last := len(outputs) - 1
		outputs[last].Amount = outputs[last].Amount.Add(roundCents(total).Sub(allocated))
	}
	return outputs, nil
}
