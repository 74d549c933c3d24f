package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitbuddy/internal/authz"
	"github.com/fkhayef/splitbuddy/pkg/middleware"
)

const (
	groupA = "bbbbbbbb-0000-0000-0000-00000000000a"
	alice  = "aaaaaaaa-0000-0000-0000-000000000001"
	bob    = "aaaaaaaa-0000-0000-0000-000000000002"
	eve    = "aaaaaaaa-0000-0000-0000-00000000000e"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeStore struct {
	expenses []ExpenseRow
	shares   []ShareRow
	from, to time.Time
}

func (f *fakeStore) GroupExpenses(_ context.Context, _ string) ([]ExpenseRow, error) {
	return f.expenses, nil
}

func (f *fakeStore) MonthlyTotals(_ context.Context, _ string, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	f.from, f.to = from, to
	return d("120.50"), d("80.25"), nil
}

func (f *fakeStore) UserShares(_ context.Context, _ string) ([]ShareRow, error) {
	return f.shares, nil
}

func (f *fakeStore) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	return groupID == groupA && (userID == alice || userID == bob), nil
}

func (f *fakeStore) GroupOwner(_ context.Context, groupID string) (string, bool, error) {
	return alice, groupID == groupA, nil
}

func (f *fakeStore) ExpenseGroup(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}

func newFixture() (*Service, *fakeStore) {
	store := &fakeStore{
		expenses: []ExpenseRow{
			{Category: "food", PaidBy: alice, Amount: d("30")},
			{Category: "travel", PaidBy: bob, Amount: d("100.10")},
			{Category: "food", PaidBy: bob, Amount: d("12.45")},
			{Category: "", PaidBy: alice, Amount: d("5")},
		},
		shares: []ShareRow{
			{GroupID: groupA, GroupName: "Trip, 2026", Category: "food", Amount: d("10")},
			{GroupID: "g2", GroupName: "Flat", Category: "rent", Amount: d("400")},
			{GroupID: groupA, GroupName: "Trip, 2026", Category: "travel", Amount: d("33.37")},
		},
	}
	return NewService(store, authz.NewChecker(store)), store
}

func TestGroupSummary(t *testing.T) {
	svc, _ := newFixture()

	sum, err := svc.GroupSummary(context.Background(), groupA, bob)
	require.NoError(t, err)
	assert.Equal(t, "147.55", sum.Total.StringFixed(2))

	cats := sum.ByCategory.Lines()
	require.Len(t, cats, 3)
	assert.Equal(t, "food", cats[0].Name)
	assert.Equal(t, "42.45", cats[0].Amount.StringFixed(2))
	assert.Equal(t, "uncategorized", cats[2].Name)

	resp := sum.ToResponse()
	assert.Equal(t, 147.55, resp.Total)
	assert.Equal(t, map[string]float64{alice: 35, bob: 112.55}, resp.ByPayer)

	_, err = svc.GroupSummary(context.Background(), groupA, eve)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.GroupSummary(context.Background(), "missing", alice)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestGroupCSV(t *testing.T) {
	svc, _ := newFixture()
	sum, err := svc.GroupSummary(context.Background(), groupA, alice)
	require.NoError(t, err)

	body, err := GroupCSV(sum)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"type", "name", "amount"},
		{"total", "", "147.55"},
		{"category", "food", "42.45"},
		{"category", "travel", "100.10"},
		{"category", "uncategorized", "5.00"},
		{"payer", alice, "35.00"},
		{"payer", bob, "112.55"},
	}, records)
}

func TestMonthly(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	m, err := svc.Monthly(ctx, alice, alice, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), store.from)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), store.to)

	resp := m.ToResponse()
	assert.Equal(t, 120.5, resp.Paid)
	assert.Equal(t, 80.25, resp.Owed)
	assert.Equal(t, 40.25, resp.Net)

	_, err = svc.Monthly(ctx, alice, alice, "Feb 2026")
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = svc.Monthly(ctx, bob, alice, "2026-02")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUserSummaryRendering(t *testing.T) {
	svc, _ := newFixture()

	sum, err := svc.UserSummary(context.Background(), alice, alice)
	require.NoError(t, err)

	body, err := UserCSV(sum)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"type", "name", "amount"},
		{"group", groupA, "43.37"},
		{"group", "g2", "400.00"},
		{"category", "food", "10.00"},
		{"category", "rent", "400.00"},
		{"category", "travel", "33.37"},
	}, records)

	pdf, err := UserPDF(sum)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	_, err = svc.UserSummary(context.Background(), bob, alice)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHandlerFiles(t *testing.T) {
	svc, _ := newFixture()
	h := NewHandler(svc).Routes()

	call := func(path, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, nil)
		req = req.WithContext(middleware.WithUser(req.Context(), user, user+"@example.com"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := call("/groups/"+groupA+"/summary.pdf", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "group_"+groupA+"_summary.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = call("/groups/"+groupA+"/summary.csv", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusForbidden, call("/groups/"+groupA+"/summary", eve).Code)
	assert.Equal(t, http.StatusForbidden, call("/users/"+alice+"/summary.csv", bob).Code)
	assert.Equal(t, http.StatusBadRequest, call("/users/"+alice+"/monthly?month=2026-13", alice).Code)
	assert.Equal(t, http.StatusOK, call("/users/"+alice+"/monthly?month=2026-12", alice).Code)
}
