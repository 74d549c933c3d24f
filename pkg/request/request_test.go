package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Amount   float64 `json:"amount" validate:"gt=0"`
}

func TestDecodeJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co","password":"Secret#123","amount":5}`))
	var s signup
	require.NoError(t, DecodeJSON(r, &s))
	assert.Equal(t, "a@b.co", s.Email)
}

func TestDecodeJSONRejectsBadInput(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":`))
	var s signup
	assert.ErrorIs(t, DecodeJSON(r, &s), ErrInvalidBody)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"nope","password":"x","amount":-1}`))
	err := DecodeJSON(r, &s)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidBody)
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "password must be at least 8")
	assert.Contains(t, err.Error(), "amount must be greater than 0")
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query         string
		page, perPage int
	}{
		{"", 1, DefaultPerPage},
		{"page=3&per_page=10", 3, 10},
		{"page=-1&per_page=1000", 1, MaxPerPage},
		{"page_size=50", 1, 50},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			page, perPage := Pagination(httptest.NewRequest("GET", "/?"+tt.query, nil))
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.perPage, perPage)
		})
	}
}

func TestID(t *testing.T) {
	var got string
	var gotErr error
	r := chi.NewRouter()
	r.Get("/groups/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = ID(r, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/groups/5F0C3B1A-9E0B-4C55-8F3D-1C2B3A4D5E6F", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, "5f0c3b1a-9e0b-4c55-8f3d-1c2b3a4d5e6f", got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/groups/42", nil))
	assert.EqualError(t, gotErr, "invalid id")
}
