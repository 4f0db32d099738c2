package services

import (
	"context"
	"testing"
	"time"

	"pawtraits/pkg/cache"
	"pawtraits/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceWithoutBackendLocksLocally(t *testing.T) {
	svc := NewCacheService(nil, logger.NewNop(), time.Minute)
	ctx := context.Background()

	lock, err := svc.Lock(ctx, "payout:partner:1", time.Minute)
	require.NoError(t, err)

	_, err = svc.Lock(ctx, "payout:partner:1", time.Minute)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	other, err := svc.Lock(ctx, "payout:partner:2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, svc.Unlock(ctx, other))

	require.NoError(t, svc.Unlock(ctx, lock))
	again, err := svc.Lock(ctx, "payout:partner:1", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, lock.Value, again.Value)
}

func TestCacheServiceWithoutBackendLockExpires(t *testing.T) {
	svc := NewCacheService(nil, logger.NewNop(), time.Minute)
	ctx := context.Background()

	_, err := svc.Lock(ctx, "payout:partner:1", -time.Second)
	require.NoError(t, err)

	_, err = svc.Lock(ctx, "payout:partner:1", time.Minute)
	assert.NoError(t, err)
}

func TestCacheServiceWithoutBackendMisses(t *testing.T) {
	svc := NewCacheService(nil, logger.NewNop(), time.Minute)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", "v", time.Minute))
	var out string
	assert.ErrorIs(t, svc.Get(ctx, "k", &out), cache.ErrCacheMiss)
}
