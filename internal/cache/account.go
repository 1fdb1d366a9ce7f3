package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/credigate/credigate/internal/model"
)

const (
	// accountCachePrefix is the Redis key prefix for resolved accounts.
	accountCachePrefix = "acct:"
	// accountCacheTTL is the time-to-live for cached accounts. Short on
	// purpose: the cached balance is only an advisory screen, and the
	// ledger invalidates on every debit and recharge anyway.
	accountCacheTTL = 30 * time.Second
)

// cachedAccount is the account representation stored in Redis. The raw API
// key is deliberately absent: the cache key is derived from a hash of it,
// and the resolver re-attaches the key it looked up with. Redis never holds
// a usable credential.
type cachedAccount struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Credits   int64     `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// GetAccount retrieves a cached account by cache key.
// Returns nil on miss; backend failures are treated as misses.
func (c *Cache) GetAccount(ctx context.Context, cacheKey string) (*model.Account, error) {
	key := accountCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached cachedAccount
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.Account{
		ID:        cached.ID,
		Identity:  cached.Identity,
		Credits:   cached.Credits,
		CreatedAt: cached.CreatedAt,
	}, nil
}

// SetAccount caches a resolved account. The API key is stripped before the
// value is marshaled.
func (c *Cache) SetAccount(ctx context.Context, cacheKey string, acct *model.Account) error {
	key := accountCachePrefix + cacheKey

	cached := cachedAccount{
		ID:        acct.ID,
		Identity:  acct.Identity,
		Credits:   acct.Credits,
		CreatedAt: acct.CreatedAt,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	return c.client.Set(ctx, key, data, accountCacheTTL).Err()
}

// InvalidateAccount removes a cached account.
// Called by the ledger after every debit and recharge.
func (c *Cache) InvalidateAccount(ctx context.Context, cacheKey string) error {
	key := accountCachePrefix + cacheKey
	return c.client.Del(ctx, key).Err()
}
