package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "state")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "state", []byte(`{"a":1}`)))
	require.NoError(t, s.Put(ctx, "state", []byte(`{"a":2}`)))

	data, ok, err := s.Get(ctx, "state")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":2}`, string(data))

	_, err = os.Stat(filepath.Join(s.Dir(), "state.json"))
	assert.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "state"))
	require.NoError(t, s.Delete(ctx, "state"))
	_, ok, _ = s.Get(ctx, "state")
	assert.False(t, ok)
}

func TestStore_NoTempFilesLeft(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(ctx, "state", []byte("{}")))
	}
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestStore_InvalidKeys(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", ".", "..", "../x", `a\b`, "a/b"} {
		assert.ErrorIs(t, s.Put(ctx, key, []byte("{}")), ErrInvalidKey, "key %q", key)
		_, _, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Put(ctx, "state", nil), ErrClosed)
	_, _, err = s.Get(ctx, "state")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStore_CancelledContext(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Put(ctx, "state", []byte("{}")), context.Canceled)
}
