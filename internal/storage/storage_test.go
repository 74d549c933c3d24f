package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitbuddy/internal/config"
)

func TestNewWithoutEndpointIsDisabled(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{Bucket: "receipts"})
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "k", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestObjectURL(t *testing.T) {
	u, err := url.Parse("https://s3.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com/receipts/exp-1/abc.png", ObjectURL(u, "receipts", "exp-1/abc.png"))

	u, err = url.Parse("http://localhost:9000/prefix")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/prefix/receipts/a.pdf", ObjectURL(u, "receipts", "a.pdf"))
}
