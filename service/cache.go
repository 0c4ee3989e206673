// file: service/cache.go

package service

import (
	"context"
	"time"

	"go-ledger/logger"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// ICacheClient defines the contract for a cache client.
// *redis.Client satisfies it; tests can substitute miniredis or a mock.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// BalanceCache is an advisory cache-aside layer for the balance query.
// Mutations never read from it; they drop affected keys after commit.
// A nil *BalanceCache is valid and caches nothing.
type BalanceCache struct {
	client ICacheClient
	ttl    time.Duration
}

const invalidateTimeout = 2 * time.Second

func NewBalanceCache(client ICacheClient, ttl time.Duration) *BalanceCache {
	if client == nil {
		return nil
	}
	return &BalanceCache{client: client, ttl: ttl}
}

func balanceKey(accountNumber string) string {
	return "balance:" + accountNumber
}

// Get returns the cached balance, if any. Cache errors count as a miss.
func (c *BalanceCache) Get(ctx context.Context, accountNumber string) (decimal.Decimal, bool) {
	if c == nil {
		return decimal.Zero, false
	}

	cached, err := c.client.Get(ctx, balanceKey(accountNumber)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Log.WithError(err).WithField("account_number", accountNumber).Warn("Balance cache read failed")
		}
		return decimal.Zero, false
	}

	balance, err := decimal.NewFromString(cached)
	if err != nil {
		return decimal.Zero, false
	}
	return balance, true
}

func (c *BalanceCache) Set(ctx context.Context, accountNumber string, balance decimal.Decimal) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, balanceKey(accountNumber), balance.String(), c.ttl).Err(); err != nil {
		logger.Log.WithError(err).WithField("account_number", accountNumber).Warn("Balance cache write failed")
	}
}

// Invalidate drops the cached balances after a commit. It runs even when ctx
// is already cancelled, bounded by invalidateTimeout.
func (c *BalanceCache) Invalidate(ctx context.Context, accountNumbers ...string) {
	if c == nil || len(accountNumbers) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()

	keys := make([]string, 0, len(accountNumbers))
	for _, n := range accountNumbers {
		keys = append(keys, balanceKey(n))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Log.WithError(err).WithField("account_numbers", accountNumbers).Warn("Balance cache invalidation failed")
	}
}
