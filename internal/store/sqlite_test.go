package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sig-gestion/internal/model"
)

func newTestStore(t *testing.T) *SQLiteUserStore {
	t.Helper()

	s, err := NewSQLiteUserStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestCreateAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "alice123", "hash")
	require.NoError(t, err)
	require.NotZero(t, id)

	user, err := s.FindByUsername(ctx, "alice123")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.True(t, user.Activo)
	assert.Zero(t, user.Intentos)
	assert.Nil(t, user.LockUntil)

	byID, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice123", byID.Username)
}

func TestFindNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindByUsername(context.Background(), "nadie")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUsernameIsCaseSensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "Alice", "hash")
	require.NoError(t, err)

	_, err = s.FindByUsername(ctx, "alice")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "alice123", "hash")
	require.NoError(t, err)

	_, err = s.Create(ctx, "alice123", "otherhash")
	assert.ErrorIs(t, err, model.ErrAlreadyExists)
}

func TestExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "alice123")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Create(ctx, "alice123", "hash")
	require.NoError(t, err)

	ok, err = s.Exists(ctx, "alice123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateInternalInactive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateInternal(ctx, "bob", "hash", false)
	require.NoError(t, err)

	user, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, user.Activo)
}

func TestFailedAttemptsCounter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "alice123", "hash")
	require.NoError(t, err)

	n, err := s.GetFailedAttempts(ctx, "alice123")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.IncreaseFailedAttempts(ctx, "alice123"))
	}

	n, err = s.GetFailedAttempts(ctx, "alice123")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, s.ResetFailedAttempts(ctx, id))

	n, err = s.GetFailedAttempts(ctx, "alice123")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAttemptsForUnknownUserIsZero(t *testing.T) {
	s := newTestStore(t)

	n, err := s.GetFailedAttempts(context.Background(), "nadie")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLockAndUnlock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "alice123", "hash")
	require.NoError(t, err)

	locked, err := s.IsLocked(ctx, "alice123")
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, s.LockUntil(ctx, "alice123", 10))

	locked, err = s.IsLocked(ctx, "alice123")
	require.NoError(t, err)
	assert.True(t, locked)

	user, err := s.FindByUsername(ctx, "alice123")
	require.NoError(t, err)
	require.NotNil(t, user.LockUntil)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *user.LockUntil, 5*time.Second)

	require.NoError(t, s.Unlock(ctx, id))

	locked, err = s.IsLocked(ctx, "alice123")
	require.NoError(t, err)
	assert.False(t, locked)

	user, err = s.FindByUsername(ctx, "alice123")
	require.NoError(t, err)
	assert.Nil(t, user.LockUntil)
	assert.Zero(t, user.Intentos)
}

func TestExpiredLockIsNotLocked(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "alice123", "hash")
	require.NoError(t, err)

	// A lock already in the past no longer blocks.
	require.NoError(t, s.LockUntil(ctx, "alice123", -1))

	locked, err := s.IsLocked(ctx, "alice123")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestActivateDeactivateIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "alice123", "hash")
	require.NoError(t, err)

	require.NoError(t, s.IncreaseFailedAttempts(ctx, "alice123"))
	require.NoError(t, s.LockUntil(ctx, "alice123", 10))

	// Deactivating twice succeeds both times and leaves the lockout state
	// untouched.
	require.NoError(t, s.Deactivate(ctx, id))
	require.NoError(t, s.Deactivate(ctx, id))

	user, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, user.Activo)
	assert.Equal(t, 1, user.Intentos)
	assert.NotNil(t, user.LockUntil)

	require.NoError(t, s.Activate(ctx, id))
	require.NoError(t, s.Activate(ctx, id))

	user, err = s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, user.Activo)
	assert.Equal(t, 1, user.Intentos)
}

func TestUpdateUsernameAndPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "alice123", "hash")
	require.NoError(t, err)

	require.NoError(t, s.UpdateUsername(ctx, id, "alicia"))
	require.NoError(t, s.UpdatePassword(ctx, id, "newhash"))

	user, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alicia", user.Username)
	assert.Equal(t, "newhash", user.PasswordHash)
}

func TestUpdateUsernameCollision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "alice123", "hash")
	require.NoError(t, err)
	id2, err := s.Create(ctx, "bob", "hash")
	require.NoError(t, err)

	err = s.UpdateUsername(ctx, id2, "alice123")
	assert.ErrorIs(t, err, model.ErrAlreadyExists)
}

func TestFindAllNewestFirstWithoutHashes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "alice123", "hash")
	require.NoError(t, err)
	_, err = s.Create(ctx, "bob", "hash")
	require.NoError(t, err)

	users, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)
	assert.Equal(t, "alice123", users[1].Username)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "alice123", "hash")
	require.NoError(t, err)

	user, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, user.UltimoAcceso)

	require.NoError(t, s.UpdateLastLogin(ctx, id))

	user, err = s.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, user.UltimoAcceso)
	assert.WithinDuration(t, time.Now(), *user.UltimoAcceso, 5*time.Second)
}
