package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphboard/graphboard/custom_errors"
)

func TestSQLitePreferenceStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	db, err := Open(path)
	require.NoError(t, err)
	s := NewSQLitePreferenceStore(db)
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx))

	_, err = s.Get(ctx, "preferred-timezone")
	assert.ErrorIs(t, err, custom_errors.ErrPreferenceNotFound)

	require.NoError(t, s.Set(ctx, "preferred-timezone", "+01:00"))
	require.NoError(t, s.Set(ctx, "preferred-timezone", "+09:50"))

	value, err := s.Get(ctx, "preferred-timezone")
	require.NoError(t, err)
	assert.Equal(t, "+09:50", value)
	require.NoError(t, s.Close())

	// The value survives a reopen.
	db, err = Open(path)
	require.NoError(t, err)
	reopened := NewSQLitePreferenceStore(db)
	defer reopened.Close()
	require.NoError(t, reopened.Init(ctx))

	value, err = reopened.Get(ctx, "preferred-timezone")
	require.NoError(t, err)
	assert.Equal(t, "+09:50", value)
}
