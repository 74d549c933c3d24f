package split

import "github.com/shopspring/decimal"

// =============================================================================
// EQUAL SPLIT STRATEGY
// Divides the expense equally; the last participant absorbs the rounding remainder
// =============================================================================

// EqualStrategy implements the Strategy interface for equal splits
type EqualStrategy struct{}

// Mode returns the split mode identifier
func (s *EqualStrategy) Mode() Mode {
	return ModeEqual
}

// Validate checks if the inputs are valid for an equal split
func (s *EqualStrategy) Validate(total decimal.Decimal, participants []Participant) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	return nil
}

// Calculate divides the total evenly. For a total in whole cents the amounts
// add up to it exactly because the last participant gets whatever the others did not.
func (s *EqualStrategy) Calculate(total decimal.Decimal, participants []Participant) ([]Allocation, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	n := int64(len(participants))
	share := roundCents(total.Div(decimal.NewFromInt(n)))
	last := roundCents(total.Sub(share.Mul(decimal.NewFromInt(n - 1))))

	outputs := make([]Allocation, len(participants))
	for i, p := range participants {
		amount := share
		if i == len(participants)-1 {
			amount = last
		}
		outputs[i] = Allocation{UserID: p.UserID, Amount: amount}
	}
	return outputs, nil
}
