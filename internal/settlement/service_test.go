package settlement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitbuddy/internal/authz"
	"github.com/fkhayef/splitbuddy/internal/balance"
	"github.com/fkhayef/splitbuddy/internal/notification"
	"github.com/fkhayef/splitbuddy/pkg/middleware"
)

const (
	groupA  = "bbbbbbbb-0000-0000-0000-00000000000a"
	groupB  = "bbbbbbbb-0000-0000-0000-00000000000b"
	alice   = "aaaaaaaa-0000-0000-0000-000000000001"
	bob     = "aaaaaaaa-0000-0000-0000-000000000002"
	carol   = "aaaaaaaa-0000-0000-0000-000000000003"
	mallory = "aaaaaaaa-0000-0000-0000-00000000000f"
)

type row struct {
	groupID string
	expense balance.Expense
	splits  []balance.Split
}

// memStore keeps expenses and settlements per group and answers ledger
// queries the way the SQL repository filters them
type memStore struct {
	rows        []row
	settlements []*Settlement
	members     map[string]map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		members: map[string]map[string]bool{
			groupA: {alice: true, bob: true, carol: true},
			groupB: {alice: true, bob: true},
		},
	}
}

func (m *memStore) addExpense(groupID, id, payer, amount string, owers ...string) {
	total := decimal.RequireFromString(amount)
	share := total.Div(decimal.NewFromInt(int64(len(owers)))).Round(2)
	r := row{groupID: groupID, expense: balance.Expense{ID: id, PayerID: payer, Amount: total}}
	for _, u := range owers {
		r.splits = append(r.splits, balance.Split{ExpenseID: id, UserID: u, Amount: share})
	}
	m.rows = append(m.rows, r)
}

func (m *memStore) GroupLedger(_ context.Context, groupID string) (*Ledger, error) {
	l := &Ledger{}
	for _, r := range m.rows {
		if r.groupID == groupID {
			l.Expenses = append(l.Expenses, r.expense)
			l.Splits = append(l.Splits, r.splits...)
		}
	}
	for _, s := range m.settlements {
		if s.GroupID == groupID {
			l.Transfers = append(l.Transfers, balance.Transfer{PayerID: s.PayerID, PayeeID: s.PayeeID, Amount: s.Amount})
		}
	}
	return l, nil
}

func (m *memStore) UserLedger(_ context.Context, userID, groupID string) (*Ledger, error) {
	l := &Ledger{}
	for _, r := range m.rows {
		if groupID != "" && r.groupID != groupID {
			continue
		}
		if r.expense.PayerID == userID {
			l.Expenses = append(l.Expenses, r.expense)
		}
		for _, s := range r.splits {
			if s.UserID == userID {
				l.Splits = append(l.Splits, s)
			}
		}
	}
	for _, s := range m.settlements {
		if groupID != "" && s.GroupID != groupID {
			continue
		}
		if s.PayerID == userID || s.PayeeID == userID {
			l.Transfers = append(l.Transfers, balance.Transfer{PayerID: s.PayerID, PayeeID: s.PayeeID, Amount: s.Amount})
		}
	}
	return l, nil
}

func (m *memStore) CreateBatch(_ context.Context, items []*Settlement) error {
	for _, s := range items {
		s.CreatedAt = time.Now()
	}
	m.settlements = append(m.settlements, items...)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*Settlement, error) {
	for _, s := range m.settlements {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListByGroup(_ context.Context, groupID string, limit, offset int) ([]*Settlement, int, error) {
	var out []*Settlement
	for _, s := range m.settlements {
		if s.GroupID == groupID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *memStore) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	return m.members[groupID][userID], nil
}

func (m *memStore) GroupOwner(_ context.Context, groupID string) (string, bool, error) {
	if _, ok := m.members[groupID]; !ok {
		return "", false, nil
	}
	return alice, true, nil
}

func (m *memStore) ExpenseGroup(_ context.Context, expenseID string) (string, bool, error) {
	for _, r := range m.rows {
		if r.expense.ID == expenseID {
			return r.groupID, true, nil
		}
	}
	return "", false, nil
}

type recorder struct {
	notices []notification.Notice
}

func (r *recorder) Notify(_ context.Context, n notification.Notice) {
	r.notices = append(r.notices, n)
}

func newFixture() (*Service, *memStore, *recorder) {
	store := newMemStore()
	store.addExpense(groupA, "e1", alice, "300", alice, bob, carol)
	notes := &recorder{}
	return NewService(store, authz.NewChecker(store), notes), store, notes
}

func fixed(entries []balance.Entry) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.UserID] = e.Balance.StringFixed(2)
	}
	return out
}

func TestGroupBalancesAndSuggest(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()

	entries, err := svc.GroupBalances(ctx, groupA, bob)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{alice: "200.00", bob: "-100.00", carol: "-100.00"}, fixed(entries))

	suggestions, err := svc.Suggest(ctx, groupA, carol)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	for _, s := range suggestions {
		assert.Equal(t, alice, s.PayeeID)
		assert.Equal(t, "100.00", s.Amount.StringFixed(2))
	}

	_, err = svc.GroupBalances(ctx, groupA, mallory)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.GroupBalances(ctx, "missing", alice)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestRecordSettlesBalances(t *testing.T) {
	svc, store, notes := newFixture()
	ctx := context.Background()

	items, err := svc.Record(ctx, groupA, bob, &RecordSettlementsRequest{Settlements: []SettlementItem{
		{PayerID: bob, PayeeID: alice, Amount: 100, Method: "cash"},
	}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, bob, items[0].CreatedBy)
	require.Len(t, notes.notices, 1)
	assert.Equal(t, alice, notes.notices[0].RecipientID)
	assert.Equal(t, notification.EntitySettlement, notes.notices[0].EntityType)

	entries, err := svc.GroupBalances(ctx, groupA, alice)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{alice: "100.00", bob: "0.00", carol: "-100.00"}, fixed(entries))

	suggestions, err := svc.Suggest(ctx, groupA, alice)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, carol, suggestions[0].PayerID)
	assert.Equal(t, "100.00", suggestions[0].Amount.StringFixed(2))

	got, err := svc.GetByID(ctx, items[0].ID, carol)
	require.NoError(t, err)
	assert.Equal(t, "100.00", got.Amount.StringFixed(2))
	_, err = svc.GetByID(ctx, items[0].ID, mallory)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.GetByID(ctx, "nope", alice)
	assert.ErrorIs(t, err, ErrSettlementNotFound)

	list, total, err := svc.ListByGroup(ctx, groupA, alice, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
	assert.Len(t, store.settlements, 1)
}

func TestRecordRejectsBadBatches(t *testing.T) {
	svc, store, _ := newFixture()
	ctx := context.Background()

	tests := map[string]struct {
		items []SettlementItem
		err   error
	}{
		"self payment": {
			items: []SettlementItem{{PayerID: bob, PayeeID: bob, Amount: 10}},
			err:   ErrSelfSettlement,
		},
		"outsider": {
			items: []SettlementItem{{PayerID: bob, PayeeID: alice, Amount: 10}, {PayerID: mallory, PayeeID: alice, Amount: 5}},
			err:   ErrNotGroupMember,
		},
		"rounds to zero": {
			items: []SettlementItem{{PayerID: bob, PayeeID: alice, Amount: 0.001}},
			err:   ErrInvalidAmount,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Record(ctx, groupA, bob, &RecordSettlementsRequest{Settlements: tc.items})
			assert.ErrorIs(t, err, tc.err)
		})
	}
	assert.Empty(t, store.settlements)

	_, err := svc.Record(ctx, groupA, mallory, &RecordSettlementsRequest{Settlements: []SettlementItem{{PayerID: bob, PayeeID: alice, Amount: 1}}})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUserBalance(t *testing.T) {
	svc, store, _ := newFixture()
	store.addExpense(groupB, "e2", bob, "100", alice, bob)
	ctx := context.Background()

	e, err := svc.UserBalance(ctx, alice, alice, "")
	require.NoError(t, err)
	assert.Equal(t, "300.00", e.Paid.StringFixed(2))
	assert.Equal(t, "150.00", e.Owed.StringFixed(2))
	assert.Equal(t, "150.00", e.Balance.StringFixed(2))

	e, err = svc.UserBalance(ctx, alice, alice, groupB)
	require.NoError(t, err)
	assert.Equal(t, "-50.00", e.Balance.StringFixed(2))

	e, err = svc.UserBalance(ctx, carol, carol, groupA)
	require.NoError(t, err)
	assert.Equal(t, "-100.00", e.Balance.StringFixed(2))

	_, err = svc.UserBalance(ctx, alice, bob, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.UserBalance(ctx, carol, carol, groupB)
	assert.ErrorIs(t, err, ErrForbidden)

	store.members[groupA][mallory] = true
	e, err = svc.UserBalance(ctx, mallory, mallory, groupA)
	require.NoError(t, err)
	assert.True(t, e.Balance.IsZero())
	assert.Equal(t, mallory, e.UserID)
}

func TestHandlerRoutes(t *testing.T) {
	svc, _, _ := newFixture()
	h := NewHandler(svc).Routes()

	call := func(method, path, user, body string) (int, map[string]any) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(middleware.WithUser(req.Context(), user, user+"@example.com"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		var out map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return rec.Code, out
	}

	code, body := call("GET", "/group/"+groupA+"/balances", alice, "")
	require.Equal(t, http.StatusOK, code)
	balances := body["data"].(map[string]any)["balances"].([]any)
	assert.Len(t, balances, 3)
	assert.Equal(t, 200.0, balances[0].(map[string]any)["balance"])

	code, body = call("POST", "/group/"+groupA+"/suggest", bob, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"].(map[string]any)["suggestions"], 2)

	code, _ = call("POST", "/group/"+groupA, bob, `{"settlements":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = call("POST", "/group/"+groupA, bob, `{"settlements":[{"payer_id":"`+bob+`","payee_id":"`+alice+`","amount":-5}]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, body = call("POST", "/group/"+groupA, bob, `{"settlements":[{"payer_id":"`+bob+`","payee_id":"`+alice+`","amount":40}]}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 1.0, body["data"].(map[string]any)["count"])

	code, _ = call("GET", "/users/"+bob+"/balance", alice, "")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = call("GET", "/users/"+bob+"/balance?group_id=nope", bob, "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, body = call("GET", "/users/"+bob+"/balance?group_id="+groupA, bob, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, -60.0, body["data"].(map[string]any)["balance"])

	code, _ = call("GET", "/group/"+groupA+"/balances", mallory, "")
	assert.Equal(t, http.StatusForbidden, code)
}
