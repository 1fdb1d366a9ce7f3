// Package ledger implements the credit-accounting core: account and key
// issuance, balance authorization, atomic debiting with usage logging, and
// recharge arithmetic. It is transport-agnostic and talks to durable storage
// through the Store interface.
package ledger

import (
	"context"

	"github.com/credigate/credigate/internal/model"
)

// Store is the durable ledger store contract. internal/repository implements
// it over PostgreSQL; tests use an in-memory implementation.
//
// Atomicity requirements:
//   - InsertAccount must be a single insert-if-absent keyed by identity,
//     returning ErrIdentityExists on conflict. Callers must not pre-check
//     with a read.
//   - DebitAndLog must perform a conditional decrement ("subtract cost where
//     credits >= cost") and the usage-log append in one transaction. It
//     returns ErrInsufficientCredits without any state change when the
//     balance cannot cover the cost, and never lets credits go negative.
type Store interface {
	// InsertAccount atomically creates the account. ErrIdentityExists if an
	// account for the identity already exists.
	InsertAccount(ctx context.Context, acct *model.Account) error

	// AccountByIdentity returns the account for an identity, or
	// ErrAccountNotFound.
	AccountByIdentity(ctx context.Context, identity string) (*model.Account, error)

	// AccountByKey returns the account for an API key (exact match), or
	// ErrAccountNotFound.
	AccountByKey(ctx context.Context, apiKey string) (*model.Account, error)

	// DebitAndLog decrements the account's credits by entry.UnitsConsumed
	// and appends the usage-log entry in the same transaction. Returns the
	// new balance. ErrInsufficientCredits or ErrAccountNotFound leave all
	// state untouched.
	DebitAndLog(ctx context.Context, entry *model.UsageLogEntry) (int64, error)

	// Credit atomically adds credits to the account and returns the new
	// balance, or ErrAccountNotFound.
	Credit(ctx context.Context, apiKey string, credits int64) (int64, error)

	// UsageByKey returns the most recent usage-log entries for a key,
	// newest first.
	UsageByKey(ctx context.Context, apiKey string, limit int) ([]*model.UsageLogEntry, error)

	// UsageTotals aggregates call count and units consumed for a key.
	UsageTotals(ctx context.Context, apiKey string) (model.UsageTotals, error)
}

// AccountCache is an optional read-through cache for resolved accounts.
// A cached balance is advisory only: the authoritative balance check is the
// conditional decrement inside Store.DebitAndLog. Implementations must treat
// misses and backend failures as (nil, nil), and must not store the raw API
// key; accounts come back with an empty APIKey and the resolver re-attaches
// the key it looked up with.
type AccountCache interface {
	GetAccount(ctx context.Context, cacheKey string) (*model.Account, error)
	SetAccount(ctx context.Context, cacheKey string, acct *model.Account) error
	InvalidateAccount(ctx context.Context, cacheKey string) error
}
