package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Danx101/AIL-APP-sub003/internal/dto"
)

// BalanceCache keeps session balances in redis so the dashboard can
// poll them cheaply. Every ledger write invalidates the customer's
// entry. A nil cache is a valid no-op cache (redis not configured).
type BalanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBalanceCache(rdb *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{rdb: rdb, ttl: ttl}
}

func key(customerID uint) string {
	return fmt.Sprintf("session_balance:%d", customerID)
}

func (c *BalanceCache) Get(
	ctx context.Context,
	customerID uint,
) (*dto.SessionBalanceDTO, bool) {

	if c == nil || c.rdb == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, key(customerID)).Bytes()
	if err != nil {
		return nil, false
	}

	var balance dto.SessionBalanceDTO
	if err := json.Unmarshal(raw, &balance); err != nil {
		return nil, false
	}

	return &balance, true
}

func (c *BalanceCache) Set(
	ctx context.Context,
	customerID uint,
	balance dto.SessionBalanceDTO,
) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(balance)
	if err != nil {
		return
	}

	// Best effort; a cache miss is never an error.
	c.rdb.Set(ctx, key(customerID), raw, c.ttl)
}

func (c *BalanceCache) Invalidate(ctx context.Context, customerID uint) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, key(customerID))
}
