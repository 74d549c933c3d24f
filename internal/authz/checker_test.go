package authz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitbuddy/pkg/middleware"
)

const (
	groupID   = "11111111-1111-1111-1111-111111111111"
	expenseID = "22222222-2222-2222-2222-222222222222"
)

type fakeStore struct {
	owners   map[string]string
	members  map[string]map[string]bool
	expenses map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		owners:   map[string]string{groupID: "owner"},
		members:  map[string]map[string]bool{groupID: {"owner": true, "member": true}},
		expenses: map[string]string{expenseID: groupID},
	}
}

func (f *fakeStore) IsMember(_ context.Context, g, u string) (bool, error) {
	return f.members[g][u], nil
}

func (f *fakeStore) GroupOwner(_ context.Context, g string) (string, bool, error) {
	o, ok := f.owners[g]
	return o, ok, nil
}

func (f *fakeStore) ExpenseGroup(_ context.Context, e string) (string, bool, error) {
	g, ok := f.expenses[e]
	return g, ok, nil
}

func TestEnsureMember(t *testing.T) {
	c := NewChecker(newFakeStore())
	ctx := context.Background()

	assert.NoError(t, c.EnsureMember(ctx, groupID, "member"))
	assert.ErrorIs(t, c.EnsureMember(ctx, groupID, "stranger"), ErrForbidden)
	assert.ErrorIs(t, c.EnsureMember(ctx, "missing", "member"), ErrGroupNotFound)
}

func TestEnsureOwner(t *testing.T) {
	c := NewChecker(newFakeStore())
	ctx := context.Background()

	assert.NoError(t, c.EnsureOwner(ctx, groupID, "owner"))
	assert.ErrorIs(t, c.EnsureOwner(ctx, groupID, "member"), ErrForbidden)
	assert.ErrorIs(t, c.EnsureOwner(ctx, "missing", "owner"), ErrGroupNotFound)

	ok, err := c.IsOwner(ctx, "missing", "owner")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureExpenseMember(t *testing.T) {
	c := NewChecker(newFakeStore())
	ctx := context.Background()

	g, err := c.EnsureExpenseMember(ctx, expenseID, "member")
	require.NoError(t, err)
	assert.Equal(t, groupID, g)

	_, err = c.EnsureExpenseMember(ctx, expenseID, "stranger")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = c.EnsureExpenseMember(ctx, "missing", "member")
	assert.ErrorIs(t, err, ErrExpenseNotFound)

	in, err := c.ExpenseInGroup(ctx, expenseID, groupID)
	require.NoError(t, err)
	assert.True(t, in)
	in, err = c.ExpenseInGroup(ctx, expenseID, "other")
	require.NoError(t, err)
	assert.False(t, in)
}

func TestHandlerDecisions(t *testing.T) {
	h := NewHandler(NewChecker(newFakeStore())).Routes()

	call := func(path, user string) (int, map[string]any) {
		req := httptest.NewRequest("GET", path, nil)
		req = req.WithContext(middleware.WithUser(req.Context(), user, user+"@example.com"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec.Code, body
	}

	code, body := call("/groups/"+groupID+"/is-member", "member")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["data"].(map[string]any)["allowed"])

	_, body = call("/groups/"+groupID+"/is-owner", "member")
	assert.Equal(t, false, body["data"].(map[string]any)["allowed"])

	_, body = call("/introspect", "member")
	assert.Equal(t, "member@example.com", body["data"].(map[string]any)["email"])

	code, _ = call("/groups/not-a-uuid/is-member", "member")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = call("/expenses/"+expenseID+"/in-group?group_id="+groupID, "member")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["data"].(map[string]any)["allowed"])
}
