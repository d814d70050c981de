package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nutrisnap/nutrisnap/internal/errors"
	"github.com/nutrisnap/nutrisnap/internal/storage"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	auth := NewAuthService(storage.NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, auth.Register(ctx, "Alice", "s3cret"))

	record, err := auth.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Alice", record.Username, "display casing preserved")
	assert.NotEmpty(t, record.Salt)
	assert.NotEqual(t, "s3cret", record.PasswordHash)
}

func TestRegisterDuplicateIsCaseInsensitive(t *testing.T) {
	auth := NewAuthService(storage.NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, auth.Register(ctx, "Alice", "s3cret"))

	err := auth.Register(ctx, "ALICE", "other")
	require.ErrorIs(t, err, apperrors.ErrUsernameTaken)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	auth := NewAuthService(storage.NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, auth.Register(ctx, "alice", "s3cret"))

	_, wrongPassword := auth.Authenticate(ctx, "alice", "wrong")
	require.ErrorIs(t, wrongPassword, apperrors.ErrInvalidCredentials)

	_, unknownUser := auth.Authenticate(ctx, "bob", "s3cret")
	require.ErrorIs(t, unknownUser, apperrors.ErrInvalidCredentials)

	assert.Equal(t, wrongPassword.Error(), unknownUser.Error(),
		"failure reason must not leak which part was wrong")
}

func TestDistinctUsersGetDistinctSalts(t *testing.T) {
	auth := NewAuthService(storage.NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, auth.Register(ctx, "alice", "same-password"))
	require.NoError(t, auth.Register(ctx, "bob", "same-password"))

	a, err := auth.Authenticate(ctx, "alice", "same-password")
	require.NoError(t, err)
	b, err := auth.Authenticate(ctx, "bob", "same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestCorruptUsersDatabaseIsTreatedAsEmpty(t *testing.T) {
	kv := storage.NewMemoryKV()
	auth := NewAuthService(kv)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "nutrisnap_users_db", "{not json"))

	_, err := auth.Authenticate(ctx, "alice", "s3cret")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	// Registration starts over from an empty database.
	require.NoError(t, auth.Register(ctx, "alice", "s3cret"))
	_, err = auth.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
}
