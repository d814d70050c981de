package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nutrisnap/nutrisnap/internal/errors"
)

func TestMemoryKVRoundTrip(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	require.NoError(t, kv.Set(ctx, "k", "v2"))
	got, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)

	// Deleting an absent key is a no-op.
	require.NoError(t, kv.Delete(ctx, "k"))
	require.NoError(t, kv.Close())
}
