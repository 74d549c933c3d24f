package split

import "github.com/shopspring/decimal"

// =============================================================================
// EXACT SPLIT STRATEGY
// Each participant owes an amount given up front
// =============================================================================

// ExactStrategy implements the Strategy interface for exact amount splits
type ExactStrategy struct{}

// Mode returns the split mode identifier
func (s *ExactStrategy) Mode() Mode {
	return ModeExact
}

// Validate requires the amounts to add up to the total once both are rounded to cents
func (s *ExactStrategy) Validate(total decimal.Decimal, participants []Participant) error {
	sum := decimal.Zero
	for _, p := range participants {
		sum = sum.Add(p.ExactAmount)
	}
	if !roundCents(sum).Equal(roundCents(total)) {
		return ErrSumMismatch
	}
	return nil
}

// Calculate returns each participant's amount rounded to cents
func (s *ExactStrategy) Calculate(total decimal.Decimal, participants []Participant) ([]Allocation, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	outputs := make([]Allocation, len(participants))
	for i, p := range participants {
		outputs[i] = Allocation{UserID: p.UserID, Amount: roundCents(p.ExactAmount)}
	}
	return outputs, nil
}
