package service

import (
	"context"
	"testing"
	"time"

	"go-ledger/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*BalanceCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewBalanceCache(client, time.Minute), mr
}

func TestBalanceCache(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	_, ok := cache.Get(ctx, "123")
	assert.False(t, ok)

	cache.Set(ctx, "123", dec("10.50"))
	got, ok := cache.Get(ctx, "123")
	require.True(t, ok)
	assert.True(t, dec("10.50").Equal(got))
	assert.Equal(t, time.Minute, mr.TTL("balance:123"))

	cache.Invalidate(ctx, "123", "456")
	assert.False(t, mr.Exists("balance:123"))

	t.Run("corrupt value is a miss", func(t *testing.T) {
		require.NoError(t, mr.Set("balance:789", "not-a-number"))
		_, ok := cache.Get(ctx, "789")
		assert.False(t, ok)
	})

	t.Run("nil cache is a no-op", func(t *testing.T) {
		var nilCache *BalanceCache
		_, ok := nilCache.Get(ctx, "123")
		assert.False(t, ok)
		nilCache.Set(ctx, "123", dec("1"))
		nilCache.Invalidate(ctx, "123")
		assert.Nil(t, NewBalanceCache(nil, time.Minute))
	})
}

func TestLedgerService_CacheIsInvalidatedOnMutation(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	svc := NewLedgerService(repository.NewMemoryStore(time.Second), cache, Options{})

	mustCreate(t, svc, "123", "100")
	mustCreate(t, svc, "456", "0")

	assertBalance(t, svc, "123", "100")
	assert.True(t, mr.Exists("balance:123"))

	_, err := svc.Deposit(ctx, "123", dec("5"))
	require.NoError(t, err)
	assert.False(t, mr.Exists("balance:123"))
	assertBalance(t, svc, "123", "105")

	assertBalance(t, svc, "456", "0")
	_, err = svc.Transfer(ctx, "123", "456", dec("5"))
	require.NoError(t, err)
	assert.False(t, mr.Exists("balance:123"))
	assert.False(t, mr.Exists("balance:456"))
	assertBalance(t, svc, "456", "5")
}

// cancelAfterCommitStore cancels the caller's context as soon as a unit of
// work commits, like a client hanging up right after the write lands.
type cancelAfterCommitStore struct {
	repository.LedgerStore
	cancel context.CancelFunc
}

func (s *cancelAfterCommitStore) RunUnitOfWork(ctx context.Context, isolation repository.Isolation, body repository.UnitOfWork) error {
	err := s.LedgerStore.RunUnitOfWork(ctx, isolation, body)
	if err == nil && s.cancel != nil {
		s.cancel()
	}
	return err
}

func TestLedgerService_CacheInvalidatedWhenCallerCancelsAfterCommit(t *testing.T) {
	cache, mr := newTestCache(t)
	store := &cancelAfterCommitStore{LedgerStore: repository.NewMemoryStore(time.Second)}
	svc := NewLedgerService(store, cache, Options{})

	mustCreate(t, svc, "123", "100")
	mustCreate(t, svc, "456", "0")
	assertBalance(t, svc, "123", "100")
	assertBalance(t, svc, "456", "0")
	require.True(t, mr.Exists("balance:123"))

	ctx, cancel := context.WithCancel(context.Background())
	store.cancel = cancel
	_, err := svc.Deposit(ctx, "123", dec("50"))
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	assert.False(t, mr.Exists("balance:123"))
	assertBalance(t, svc, "123", "150")

	ctx, cancel = context.WithCancel(context.Background())
	store.cancel = cancel
	_, err = svc.Transfer(ctx, "123", "456", dec("20"))
	require.NoError(t, err)

	assert.False(t, mr.Exists("balance:123"))
	assert.False(t, mr.Exists("balance:456"))
	assertBalance(t, svc, "123", "130")
	assertBalance(t, svc, "456", "20")
}

func TestBalanceCache_InvalidateIgnoresCancelledContext(t *testing.T) {
	cache, mr := newTestCache(t)
	cache.Set(context.Background(), "123", dec("1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cache.Invalidate(ctx, "123")

	assert.False(t, mr.Exists("balance:123"))
}
