package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, checkVersion(0, false))
	assert.NoError(t, checkVersion(SchemaVersion, false))
	assert.ErrorIs(t, checkVersion(SchemaVersion, true), ErrDirtySchema)
	assert.ErrorIs(t, checkVersion(SchemaVersion+1, false), ErrSchemaTooNew)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrations, "migrations/*.down.sql")
	require.NoError(t, err)

	assert.Len(t, ups, int(SchemaVersion))
	assert.Len(t, downs, len(ups))
}
