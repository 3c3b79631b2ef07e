package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empassist/empassist/pkg/adapters/redis"
)

func TestLocker_AcquireAndRelease(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client, "empassist:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "thread-1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("empassist:lock:thread-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("empassist:lock:thread-1"))
}

func TestLocker_ContendedLockTimesOut(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client, "empassist:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "thread-1", 30*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock(ctx) }()

	shortCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(shortCtx, "thread-1", 30*time.Second)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
}

func TestLocker_StaleUnlockIsHarmless(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client, "empassist:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "thread-1", time.Second)
	require.NoError(t, err)

	// Simulate expiry plus reacquisition by another holder.
	mr.FastForward(2 * time.Second)
	unlock2, err := locker.Lock(ctx, "thread-1", 30*time.Second)
	require.NoError(t, err)

	// The stale holder's unlock must not release the new holder's lock.
	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("empassist:lock:thread-1"))

	require.NoError(t, unlock2(ctx))
	assert.False(t, mr.Exists("empassist:lock:thread-1"))
}
