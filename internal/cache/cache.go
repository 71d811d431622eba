// Package cache provides a small read-through cache for wallet
// balances. The database stays the source of truth: every committed
// ledger write invalidates the cached balance, and a miss simply falls
// back to the repository.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const balanceTTL = 5 * time.Minute

// BalanceCache caches per-user point balances in Redis.
type BalanceCache struct {
	client *redis.Client
}

// NewBalanceCache connects to Redis and verifies the connection.
func NewBalanceCache(addr, password string) (*BalanceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          0,
		MaxRetries:  5,
		DialTimeout: 10 * time.Second,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &BalanceCache{client: client}, nil
}

func balanceKey(userID int64) string {
	return fmt.Sprintf("wallet:balance:%d", userID)
}

// GetBalance returns the cached balance and whether it was present.
func (c *BalanceCache) GetBalance(ctx context.Context, userID int64) (int, bool, error) {
	val, err := c.client.Get(ctx, balanceKey(userID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	balance, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}

	return balance, true, nil
}

// SetBalance stores the balance with a bounded TTL.
func (c *BalanceCache) SetBalance(ctx context.Context, userID int64, balance int) error {
	return c.client.Set(ctx, balanceKey(userID), balance, balanceTTL).Err()
}

// InvalidateBalance drops the cached balance after a ledger write.
func (c *BalanceCache) InvalidateBalance(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, balanceKey(userID)).Err()
}

// Close releases the underlying client.
func (c *BalanceCache) Close() error {
	return c.client.Close()
}
