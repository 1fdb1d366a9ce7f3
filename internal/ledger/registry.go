package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/credigate/credigate/internal/auth"
	"github.com/credigate/credigate/internal/metrics"
	"github.com/credigate/credigate/internal/model"
)

// Registry issues and resolves API keys, enforcing one key per identity for
// the lifetime of the account.
type Registry struct {
	store          Store
	cache          AccountCache // may be nil
	initialCredits int64
	logger         *slog.Logger
	metrics        metrics.Recorder
}

// NewRegistry creates a Registry. cache may be nil to disable read-through
// caching; recorder may be nil to disable metrics.
func NewRegistry(store Store, cache AccountCache, initialCredits int64, logger *slog.Logger, recorder metrics.Recorder) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Registry{
		store:          store,
		cache:          cache,
		initialCredits: initialCredits,
		logger:         logger,
		metrics:        recorder,
	}
}

// SignIn returns the account for an identity, creating it with a fresh key
// and the initial credit grant on first sign-in. isNew reports whether the
// account was created by this call. Repeated sign-ins for the same identity
// always return the same key.
func (r *Registry) SignIn(ctx context.Context, identity string) (acct *model.Account, isNew bool, err error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, false, fmt.Errorf("%w: empty identity", ErrInvalidArgs)
	}

	existing, err := r.store.AccountByIdentity(ctx, identity)
	if err == nil {
		r.metrics.IncSignIn("existing")
		return existing, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, false, fmt.Errorf("lookup identity: %w", err)
	}

	key, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, false, err
	}

	acct = &model.Account{
		ID:        ulid.Make().String(),
		Identity:  identity,
		APIKey:    key,
		Credits:   r.initialCredits,
		CreatedAt: time.Now().UTC(),
	}

	// Single atomic insert keyed by identity. Two concurrent first sign-ins
	// race here; the loser re-reads the winner's account.
	if err := r.store.InsertAccount(ctx, acct); err != nil {
		if errors.Is(err, ErrIdentityExists) {
			existing, lookupErr := r.store.AccountByIdentity(ctx, identity)
			if lookupErr != nil {
				return nil, false, fmt.Errorf("re-read after insert conflict: %w", lookupErr)
			}
			r.metrics.IncSignIn("existing")
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create account: %w", err)
	}

	r.logger.Info("account created",
		slog.String("account_id", acct.ID),
		slog.String("key_prefix", acct.MaskedKey()),
		slog.Int64("credits", acct.Credits),
	)
	r.metrics.IncSignIn("created")

	return acct, true, nil
}

// Resolve returns the account for an API key. ErrInvalidKey if the key is
// malformed or no account has it.
func (r *Registry) Resolve(ctx context.Context, apiKey string) (*model.Account, error) {
	if apiKey == "" {
		return nil, ErrMissingKey
	}
	if !auth.ValidateKeyFormat(apiKey) {
		return nil, ErrInvalidKey
	}

	cacheKey := auth.QuickHash(apiKey)
	if r.cache != nil {
		if acct, _ := r.cache.GetAccount(ctx, cacheKey); acct != nil {
			// Cached entries never carry the raw key; re-attach it.
			acct.APIKey = apiKey
			r.metrics.IncAccountCache("hit")
			return acct, nil
		}
		r.metrics.IncAccountCache("miss")
	}

	acct, err := r.store.AccountByKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, fmt.Errorf("lookup key: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.SetAccount(ctx, cacheKey, acct)
	}

	return acct, nil
}
