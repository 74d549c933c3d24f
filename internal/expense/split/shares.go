package split

import "github.com/shopspring/decimal"

// =============================================================================
// SHARES SPLIT STRATEGY
// Divides the expense proportionally to each participant's weight
// =============================================================================

// SharesStrategy implements the Strategy interface for weighted splits
type SharesStrategy struct{}

// Mode returns the split mode identifier
func (s *SharesStrategy) Mode() Mode {
	return ModeShares
}

// Validate requires a positive total weight
func (s *SharesStrategy) Validate(total decimal.Decimal, participants []Participant) error {
	if totalShares(participants).LessThanOrEqual(decimal.Zero) {
		return ErrInvalidShareTotal
	}
	return nil
}

// Calculate gives each participant round(total * shares / totalShares, 2)
func (s *SharesStrategy) Calculate(total decimal.Decimal, participants []Participant) ([]Allocation, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	weight := totalShares(participants)
	outputs := make([]Allocation, len(participants))
	for i, p := range participants {
		outputs[i] = Allocation{
			UserID: p.UserID,
			Amount: roundCents(total.Mul(p.Shares).Div(weight)),
		}
	}
	return outputs, nil
}

func totalShares(participants []Participant) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range participants {
		sum = sum.Add(p.Shares)
	}
	return sum
}
