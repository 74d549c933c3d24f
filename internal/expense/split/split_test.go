package split

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amounts(allocs []Allocation) []string {
	out := make([]string, len(allocs))
	for i, a := range allocs {
		out[i] = a.Amount.StringFixed(2)
	}
	return out
}

func users(ids ...string) []Participant {
	ps := make([]Participant, len(ids))
	for i, id := range ids {
		ps[i] = Participant{UserID: id}
	}
	return ps
}

func TestEqualSplit(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
		want  []string
	}{
		{"three ways", "100", 3, []string{"33.33", "33.33", "33.34"}},
		{"single", "42.17", 1, []string{"42.17"}},
		{"even cents", "90", 2, []string{"45.00", "45.00"}},
		{"remainder below half cent", "10", 7, []string{"1.43", "1.43", "1.43", "1.43", "1.43", "1.43", "1.42"}},
		{"zero total", "0", 2, []string{"0.00", "0.00"}},
		{"sub-cent total", "10.005", 2, []string{"5.00", "5.01"}},
	}

	f := NewSplitStrategyFactory(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]string, tt.n)
			for i := range ids {
				ids[i] = fmt.Sprintf("u%d", i)
			}
			got, err := f.Compute(d(tt.total), ModeEqual, users(ids...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, amounts(got))
			assert.Equal(t, "u0", got[0].UserID)
			for _, a := range got {
				assert.Truef(t, a.Amount.Equal(a.Amount.Round(2)), "%s got %s", a.UserID, a.Amount)
			}
		})
	}
}

func TestEqualSplitNoParticipants(t *testing.T) {
	_, err := NewSplitStrategyFactory(false).Compute(d("10"), ModeEqual, nil)
	assert.ErrorIs(t, err, ErrNoParticipants)
}

func TestEqualSplitAlwaysSumsToTotal(t *testing.T) {
	totals := []string{"0.01", "1", "9.99", "100", "1234.56", "99999.99"}
	s := &EqualStrategy{}
	for _, total := range totals {
		for n := 1; n <= 1000; n++ {
			ps := make([]Participant, n)
			for i := range ps {
				ps[i] = Participant{UserID: fmt.Sprintf("u%d", i)}
			}
			got, err := s.Calculate(d(total), ps)
			require.NoError(t, err)
			require.Len(t, got, n)

			sum := decimal.Zero
			for _, a := range got {
				sum = sum.Add(a.Amount)
			}
			require.Truef(t, sum.Equal(d(total)), "total %s n %d: sum %s", total, n, sum)
		}
	}
}

func TestPercentSplit(t *testing.T) {
	f := NewSplitStrategyFactory(false)

	t.Run("thirds of 200", func(t *testing.T) {
		ps := []Participant{
			{UserID: "a", Percent: d("33.33")},
			{UserID: "b", Percent: d("33.33")},
			{UserID: "c", Percent: d("33.34")},
		}
		got, err := f.Compute(d("200"), ModePercent, ps)
		require.NoError(t, err)
		assert.Equal(t, []string{"66.66", "66.66", "66.68"}, amounts(got))
	})

	t.Run("remainder is not reconciled", func(t *testing.T) {
		ps := []Participant{
			{UserID: "a", Percent: d("33.333")},
			{UserID: "b", Percent: d("33.333")},
			{UserID: "c", Percent: d("33.334")},
		}
		got, err := f.Compute(d("10"), ModePercent, ps)
		require.NoError(t, err)
		assert.Equal(t, []string{"3.33", "3.33", "3.33"}, amounts(got))
	})

	t.Run("remainder reconciled when enabled", func(t *testing.T) {
		ps := []Participant{
			{UserID: "a", Percent: d("33.333")},
			{UserID: "b", Percent: d("33.333")},
			{UserID: "c", Percent: d("33.334")},
		}
		got, err := NewSplitStrategyFactory(true).Compute(d("10"), ModePercent, ps)
		require.NoError(t, err)
		assert.Equal(t, []string{"3.33", "3.33", "3.34"}, amounts(got))
	})
}

func TestPercentTolerance(t *testing.T) {
	tests := []struct {
		second string
		ok     bool
	}{
		{"50", true},
		{"49.9999", true},
		{"50.0001", true},
		{"49.99", false},
		{"50.01", false},
		{"49.9998", false},
	}

	s := &PercentStrategy{}
	for _, tt := range tests {
		t.Run(tt.second, func(t *testing.T) {
			ps := []Participant{
				{UserID: "a", Percent: d("50")},
				{UserID: "b", Percent: d(tt.second)},
			}
			_, err := s.Calculate(d("100"), ps)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidPercentSum)
			}
		})
	}
}

func TestPercentMissingValuesCountAsZero(t *testing.T) {
	ps := []Participant{{UserID: "a", Percent: d("100")}, {UserID: "b"}}
	got, err := (&PercentStrategy{}).Calculate(d("50"), ps)
	require.NoError(t, err)
	assert.Equal(t, []string{"50.00", "0.00"}, amounts(got))

	_, err = (&PercentStrategy{}).Calculate(d("50"), nil)
	assert.ErrorIs(t, err, ErrInvalidPercentSum)
}

func TestSharesSplit(t *testing.T) {
	s := &SharesStrategy{}

	got, err := s.Calculate(d("90"), []Participant{
		{UserID: "a", Shares: d("1")},
		{UserID: "b", Shares: d("2")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"30.00", "60.00"}, amounts(got))

	got, err = s.Calculate(d("100"), []Participant{
		{UserID: "a", Shares: d("1")},
		{UserID: "b", Shares: d("1")},
		{UserID: "c", Shares: d("1")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"33.33", "33.33", "33.33"}, amounts(got))
}

func TestSharesRequirePositiveTotal(t *testing.T) {
	tests := map[string][]Participant{
		"empty":    nil,
		"all zero": {{UserID: "a"}, {UserID: "b"}},
		"negative": {{UserID: "a", Shares: d("-2")}, {UserID: "b", Shares: d("1")}},
	}
	for name, ps := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := (&SharesStrategy{}).Calculate(d("10"), ps)
			assert.ErrorIs(t, err, ErrInvalidShareTotal)
		})
	}
}

func TestExactTolerance(t *testing.T) {
	tests := []struct {
		second string
		ok     bool
	}{
		{"40", true},
		{"40.004", true},
		{"39.996", true},
		{"40.006", false},
		{"39.994", false},
	}

	for _, tt := range tests {
		t.Run(tt.second, func(t *testing.T) {
			ps := []Participant{
				{UserID: "a", ExactAmount: d("60")},
				{UserID: "b", ExactAmount: d(tt.second)},
			}
			got, err := (&ExactStrategy{}).Calculate(d("100"), ps)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrSumMismatch)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "60.00", got[0].Amount.StringFixed(2))
		})
	}
}

func TestUnknownMode(t *testing.T) {
	f := NewSplitStrategyFactory(false)
	_, err := f.CreateFromString("thirds")
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = f.Compute(d("10"), Mode("EVEN"), users("a"))
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestFactoryModes(t *testing.T) {
	f := NewSplitStrategyFactory(false)
	for _, m := range []Mode{ModeEqual, ModePercent, ModeShares, ModeExact} {
		s, err := f.Create(m)
		require.NoError(t, err)
		assert.Equal(t, m, s.Mode())
	}
}

func TestScenarios(t *testing.T) {
	f := NewSplitStrategyFactory(false)

	t.Run("percent of 250", func(t *testing.T) {
		got, err := f.Compute(d("250"), ModePercent, []Participant{
			{UserID: "a", Percent: d("50")},
			{UserID: "b", Percent: d("30")},
			{UserID: "c", Percent: d("20")},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"125.00", "75.00", "50.00"}, amounts(got))
	})

	t.Run("exact short by a cent", func(t *testing.T) {
		_, err := f.Compute(d("100"), ModeExact, []Participant{
			{UserID: "a", ExactAmount: d("50")},
			{UserID: "b", ExactAmount: d("49.99")},
		})
		assert.ErrorIs(t, err, ErrSumMismatch)
	})
}
