package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"talent-escrow/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) *Locker {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping Redis lock test")
	}
	client, err := NewClient(context.Background(), utils.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client)
}

func TestTryLock_Exclusive(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()
	key := "test:lock:" + uuid.NewString()

	first, err := locker.TryLock(ctx, key, 5*time.Second)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, key, 5*time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, first.Release(ctx))
	require.NoError(t, first.Release(ctx))

	second, err := locker.TryLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}

func TestRelease_DoesNotStealExpiredLease(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()
	key := "test:lock:" + uuid.NewString()

	stale, err := locker.TryLock(ctx, key, 50*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	current, err := locker.TryLock(ctx, key, 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, stale.Release(ctx))
	_, err = locker.TryLock(ctx, key, 5*time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, current.Release(ctx))
}

func TestWithLock_SkipsWhenHeld(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()
	key := "test:lock:" + uuid.NewString()

	ran, err := locker.WithLock(ctx, key, 5*time.Second, func(ctx context.Context) error {
		inner, err := locker.WithLock(ctx, key, 5*time.Second, func(context.Context) error {
			t.Fatal("nested holder must not run")
			return nil
		})
		assert.False(t, inner)
		return err
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
