package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/credigate/credigate/internal/auth"
	"github.com/credigate/credigate/internal/model"
)

func TestRegistry_SignIn_CreatesAccount(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	reg := NewRegistry(store, nil, 100, nil, nil)

	acct, isNew, err := reg.SignIn(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if !isNew {
		t.Error("first sign-in should report isNew=true")
	}
	if acct.Credits != 100 {
		t.Errorf("credits = %d, want 100", acct.Credits)
	}
	if !auth.ValidateKeyFormat(acct.APIKey) {
		t.Errorf("generated key has invalid format: %s", acct.APIKey)
	}
	if acct.Identity != "alice@x.com" {
		t.Errorf("identity = %q, want alice@x.com", acct.Identity)
	}
}

func TestRegistry_SignIn_Idempotent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	reg := NewRegistry(store, nil, 100, nil, nil)
	ctx := context.Background()

	first, _, err := reg.SignIn(ctx, "alice@x.com")
	if err != nil {
		t.Fatalf("first SignIn failed: %v", err)
	}

	second, isNew, err := reg.SignIn(ctx, "alice@x.com")
	if err != nil {
		t.Fatalf("second SignIn failed: %v", err)
	}
	if isNew {
		t.Error("repeat sign-in should report isNew=false")
	}
	if second.APIKey != first.APIKey {
		t.Errorf("repeat sign-in returned a different key: %s vs %s", second.APIKey, first.APIKey)
	}
}

func TestRegistry_SignIn_EmptyIdentity(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(newMemStore(), nil, 100, nil, nil)

	for _, identity := range []string{"", "   ", "\t"} {
		if _, _, err := reg.SignIn(context.Background(), identity); !errors.Is(err, ErrInvalidArgs) {
			t.Errorf("SignIn(%q) error = %v, want ErrInvalidArgs", identity, err)
		}
	}
}

func TestRegistry_SignIn_ConcurrentSameIdentity(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	reg := NewRegistry(store, nil, 100, nil, nil)
	ctx := context.Background()

	const n = 16
	keys := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			acct, _, err := reg.SignIn(ctx, "race@x.com")
			if err != nil {
				t.Errorf("concurrent SignIn failed: %v", err)
				return
			}
			keys[i] = acct.APIKey
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if keys[i] != keys[0] {
			t.Fatalf("concurrent sign-ins produced different keys: %s vs %s", keys[i], keys[0])
		}
	}
	if len(store.byIdentity) != 1 {
		t.Errorf("accounts created = %d, want 1", len(store.byIdentity))
	}
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	reg := NewRegistry(store, nil, 100, nil, nil)
	ctx := context.Background()

	acct, _, err := reg.SignIn(ctx, "alice@x.com")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	resolved, err := reg.Resolve(ctx, acct.APIKey)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Identity != "alice@x.com" {
		t.Errorf("resolved identity = %q, want alice@x.com", resolved.Identity)
	}
}

// memCache is an AccountCache for tests. It enforces the cache contract:
// stored accounts are stripped of the raw API key.
type memCache struct {
	mu       sync.Mutex
	accounts map[string]model.Account
	gets     int
	hits     int
}

func newMemCache() *memCache {
	return &memCache{accounts: make(map[string]model.Account)}
}

func (c *memCache) GetAccount(_ context.Context, cacheKey string) (*model.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	acct, ok := c.accounts[cacheKey]
	if !ok {
		return nil, nil
	}
	c.hits++
	cp := acct
	return &cp, nil
}

func (c *memCache) SetAccount(_ context.Context, cacheKey string, acct *model.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *acct
	cp.APIKey = ""
	c.accounts[cacheKey] = cp
	return nil
}

func (c *memCache) InvalidateAccount(_ context.Context, cacheKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.accounts, cacheKey)
	return nil
}

func TestRegistry_Resolve_CacheHitReattachesKey(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cache := newMemCache()
	reg := NewRegistry(store, cache, 100, nil, nil)
	ctx := context.Background()

	acct, _, err := reg.SignIn(ctx, "alice@x.com")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	// First resolve misses the cache and populates it.
	if _, err := reg.Resolve(ctx, acct.APIKey); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}

	// Second resolve is served from the cache, where the stored entry has
	// no key; the returned account must still carry it.
	resolved, err := reg.Resolve(ctx, acct.APIKey)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("cache hits = %d, want 1", cache.hits)
	}
	if resolved.APIKey != acct.APIKey {
		t.Errorf("resolved key = %q, want the key resolved with", resolved.APIKey)
	}
	if resolved.Identity != "alice@x.com" {
		t.Errorf("resolved identity = %q, want alice@x.com", resolved.Identity)
	}
}

func TestRegistry_Resolve_Errors(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(newMemStore(), nil, 100, nil, nil)
	ctx := context.Background()

	if _, err := reg.Resolve(ctx, ""); !errors.Is(err, ErrMissingKey) {
		t.Errorf("empty key error = %v, want ErrMissingKey", err)
	}

	if _, err := reg.Resolve(ctx, "not-a-valid-key"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("malformed key error = %v, want ErrInvalidKey", err)
	}

	// Well-formed but unknown
	if _, err := reg.Resolve(ctx, "4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("unknown key error = %v, want ErrInvalidKey", err)
	}
}
