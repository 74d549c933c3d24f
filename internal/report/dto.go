package report

// GroupSummaryResponse represents the group summary report
type GroupSummaryResponse struct {
	GroupID    string             `json:"group_id"`
	Total      float64            `json:"total"`
	ByCategory map[string]float64 `json:"by_category"`
	ByPayer    map[string]float64 `json:"by_payer"`
}

// MonthlyResponse represents a user's totals for one month
type MonthlyResponse struct {
	UserID string  `json:"user_id"`
	Month  string  `json:"month"`
	Paid   float64 `json:"paid"`
	Owed   float64 `json:"owed"`
	Net    float64 `json:"net"`
}

func toMap(lines []Line) map[string]float64 {
	out := make(map[string]float64, len(lines))
	for _, l := range lines {
		out[l.Name] = l.Amount.Round(2).InexactFloat64()
	}
	return out
}

// ToResponse converts a GroupSummary to its JSON form
func (g *GroupSummary) ToResponse() *GroupSummaryResponse {
	return &GroupSummaryResponse{
		GroupID:    g.GroupID,
		Total:      g.Total.Round(2).InexactFloat64(),
		ByCategory: toMap(g.ByCategory.Lines()),
		ByPayer:    toMap(g.ByPayer.Lines()),
	}
}

// ToResponse converts MonthlyTotals to its JSON form
func (m *MonthlyTotals) ToResponse() *MonthlyResponse {
	return &MonthlyResponse{
		UserID: m.UserID,
		Month:  m.Month,
		Paid:   m.Paid.Round(2).InexactFloat64(),
		Owed:   m.Owed.Round(2).InexactFloat64(),
		Net:    m.Net().Round(2).InexactFloat64(),
	}
}
