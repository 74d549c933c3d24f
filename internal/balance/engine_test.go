package balance

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func balances(entries []Entry) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.UserID] = e.Balance.StringFixed(2)
	}
	return out
}

func TestComputeScenario(t *testing.T) {
	expenses := []Expense{{ID: "e1", PayerID: "A", Amount: d("300")}}
	splits := []Split{
		{ExpenseID: "e1", UserID: "A", Amount: d("100")},
		{ExpenseID: "e1", UserID: "B", Amount: d("100")},
		{ExpenseID: "e1", UserID: "C", Amount: d("100")},
	}

	entries := Compute(expenses, splits)
	assert.Equal(t, map[string]string{"A": "200.00", "B": "-100.00", "C": "-100.00"}, balances(entries))
	assert.Equal(t, []string{"A", "B", "C"}, []string{entries[0].UserID, entries[1].UserID, entries[2].UserID})

	a := ByUser(entries)["A"]
	assert.Equal(t, "300.00", a.Paid.StringFixed(2))
	assert.Equal(t, "100.00", a.Owed.StringFixed(2))

	got := Suggest(entries)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].PayerID)
	for _, s := range got {
		assert.Equal(t, "A", s.PayeeID)
		assert.Equal(t, "100.00", s.Amount.StringFixed(2))
	}
	assert.Equal(t, "C", got[1].PayerID)
}

func TestComputeOmitsUnknownUsers(t *testing.T) {
	assert.Empty(t, Compute(nil, nil))

	entries := Compute([]Expense{{ID: "e1", PayerID: "A", Amount: d("10")}}, nil)
	assert.Equal(t, map[string]string{"A": "10.00"}, balances(entries))
}

func TestComputeWithTransfers(t *testing.T) {
	expenses := []Expense{{ID: "e1", PayerID: "A", Amount: d("300")}}
	splits := []Split{
		{ExpenseID: "e1", UserID: "A", Amount: d("100")},
		{ExpenseID: "e1", UserID: "B", Amount: d("100")},
		{ExpenseID: "e1", UserID: "C", Amount: d("100")},
	}
	transfers := []Transfer{{PayerID: "B", PayeeID: "A", Amount: d("100")}}

	entries := ComputeWithTransfers(expenses, splits, transfers)
	assert.Equal(t, map[string]string{"A": "100.00", "B": "0.00", "C": "-100.00"}, balances(entries))

	got := Suggest(entries)
	require.Len(t, got, 1)
	assert.Equal(t, "C", got[0].PayerID)
	assert.Equal(t, "A", got[0].PayeeID)
}

func TestSuggestTieBreakKeepsEnumerationOrder(t *testing.T) {
	entries := []Entry{
		{UserID: "D1", Balance: d("-50")},
		{UserID: "C1", Balance: d("50")},
		{UserID: "D2", Balance: d("-50")},
		{UserID: "C2", Balance: d("50")},
	}
	got := Suggest(entries)
	require.Len(t, got, 2)
	assert.Equal(t, Suggestion{PayerID: "D1", PayeeID: "C1", Amount: got[0].Amount}, got[0])
	assert.Equal(t, Suggestion{PayerID: "D2", PayeeID: "C2", Amount: got[1].Amount}, got[1])
}

func TestSuggestLargestFirst(t *testing.T) {
	entries := []Entry{
		{UserID: "A", Balance: d("30")},
		{UserID: "B", Balance: d("70")},
		{UserID: "C", Balance: d("-100")},
	}
	got := Suggest(entries)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].PayeeID)
	assert.Equal(t, "70.00", got[0].Amount.StringFixed(2))
	assert.Equal(t, "A", got[1].PayeeID)
	assert.Equal(t, "30.00", got[1].Amount.StringFixed(2))
}

func TestSuggestNothingToSettle(t *testing.T) {
	assert.Empty(t, Suggest(nil))
	assert.Empty(t, Suggest([]Entry{{UserID: "A", Balance: decimal.Zero}}))
	assert.Empty(t, Suggest([]Entry{{UserID: "A", Balance: d("10")}}))
}

func TestSuggestIgnoresSubCentResidue(t *testing.T) {
	entries := []Entry{
		{UserID: "A", Balance: d("0.004")},
		{UserID: "B", Balance: d("-0.004")},
	}
	assert.Empty(t, Suggest(entries))
}

func TestSuggestRoundsBalancesBeforeMatching(t *testing.T) {
	entries := []Entry{
		{UserID: "A", Balance: d("10.006")},
		{UserID: "B", Balance: d("-10.004")},
	}
	got := Suggest(entries)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].PayerID)
	assert.Equal(t, "10.00", got[0].Amount.StringFixed(2))
}

// randomLedger builds a group where every expense is split equally among a
// random subset of members, so balances always sum to zero.
func randomLedger(r *rand.Rand, members int) ([]Expense, []Split) {
	var expenses []Expense
	var splits []Split
	count := 1 + r.Intn(20)
	for e := 0; e < count; e++ {
		id := fmt.Sprintf("e%d", e)
		cents := int64(1 + r.Intn(100000))
		amount := decimal.New(cents, -2)
		payer := fmt.Sprintf("u%d", r.Intn(members))
		expenses = append(expenses, Expense{ID: id, PayerID: payer, Amount: amount})

		n := 1 + r.Intn(members)
		perm := r.Perm(members)[:n]
		share := amount.Div(decimal.NewFromInt(int64(n))).Round(2)
		for k, m := range perm {
			owed := share
			if k == n-1 {
				owed = amount.Sub(share.Mul(decimal.NewFromInt(int64(n - 1))))
			}
			splits = append(splits, Split{ExpenseID: id, UserID: fmt.Sprintf("u%d", m), Amount: owed})
		}
	}
	return expenses, splits
}

func TestBalancesSumToZero(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		expenses, splits := randomLedger(r, 2+r.Intn(8))
		sum := decimal.Zero
		for _, e := range Compute(expenses, splits) {
			sum = sum.Add(e.Balance)
		}
		require.Truef(t, sum.Abs().LessThanOrEqual(d("0.01")), "run %d: sum %s", run, sum)
	}
}

func TestApplyingSuggestionsSettlesEveryone(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		entries := Compute(randomLedger(r, 2+r.Intn(8)))

		var creditors, debtors int
		for _, e := range entries {
			switch {
			case e.Balance.IsPositive():
				creditors++
			case e.Balance.IsNegative():
				debtors++
			}
		}

		suggestions := Suggest(entries)
		if creditors > 0 && debtors > 0 {
			require.LessOrEqual(t, len(suggestions), creditors+debtors-1)
		} else {
			require.Empty(t, suggestions)
		}

		remaining := make(map[string]decimal.Decimal, len(entries))
		for _, e := range entries {
			remaining[e.UserID] = e.Balance
		}
		for _, s := range suggestions {
			require.True(t, s.Amount.IsPositive())
			remaining[s.PayerID] = remaining[s.PayerID].Add(s.Amount)
			remaining[s.PayeeID] = remaining[s.PayeeID].Sub(s.Amount)
		}
		for user, left := range remaining {
			require.Truef(t, left.Abs().LessThanOrEqual(d("0.01")), "run %d: %s left with %s", run, user, left)
		}
	}
}
