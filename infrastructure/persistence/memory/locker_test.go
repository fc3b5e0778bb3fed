package memory

import (
	"context"
	"testing"
	"time"

	pkgerrors "diary-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_ExclusiveUntilReleased(t *testing.T) {
	// Arrange
	ctx := context.Background()
	locker := NewLocker()

	// Act
	first, err := locker.Acquire(ctx, "reports#u1", "a", time.Minute)
	require.NoError(t, err)
	_, err = locker.Acquire(ctx, "reports#u1", "b", time.Minute)

	// Assert
	assert.True(t, pkgerrors.IsConflict(err))
	require.NoError(t, first.Release(ctx))
	_, err = locker.Acquire(ctx, "reports#u1", "b", time.Minute)
	assert.NoError(t, err)
}

func TestLocker_ExpiredLeaseCanBeTaken(t *testing.T) {
	// Arrange
	ctx := context.Background()
	locker := NewLocker()
	now := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return now }
	stale, err := locker.Acquire(ctx, "k", "a", time.Second)
	require.NoError(t, err)

	// Act
	now = now.Add(2 * time.Second)
	fresh, err := locker.Acquire(ctx, "k", "b", time.Minute)
	require.NoError(t, err)
	require.NoError(t, stale.Release(ctx))

	// Assert
	_, err = locker.Acquire(ctx, "k", "c", time.Minute)
	assert.True(t, pkgerrors.IsConflict(err), "stale release must not drop the new lease")
	assert.NoError(t, fresh.Release(ctx))
}
