package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/credigate/credigate/internal/auth"
	"github.com/credigate/credigate/internal/metrics"
	"github.com/credigate/credigate/internal/model"
)

// Ledger is the accounting core. All balance mutations go through it:
// debits via DebitAndLog, credits via Recharge. It never reads a balance to
// decide a debit; the conditional update in the store is the only authority.
type Ledger struct {
	store        Store
	cache        AccountCache // may be nil
	rechargeUnit int64
	logger       *slog.Logger
	metrics      metrics.Recorder
}

// NewLedger creates a Ledger. The recharge unit is the currency-to-credit
// conversion divisor (amount / unit = credits gained).
func NewLedger(store Store, cache AccountCache, rechargeUnit int64, logger *slog.Logger, recorder metrics.Recorder) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Ledger{
		store:        store,
		cache:        cache,
		rechargeUnit: rechargeUnit,
		logger:       logger,
		metrics:      recorder,
	}
}

// Authorize screens an already-resolved account against an operation cost.
// This is a fast-fail only: the balance it sees may be stale, and passing it
// does not reserve anything. The authoritative check is the conditional
// decrement inside DebitAndLog.
func (l *Ledger) Authorize(acct *model.Account, cost int64) error {
	if cost <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}
	if acct.Credits < cost {
		return ErrInsufficientCredits
	}
	return nil
}

// DebitAndLog commits the debit for one executed operation: it decrements
// the balance by cost and appends the usage-log entry in a single store
// transaction. Returns the new balance. On ErrInsufficientCredits (a
// concurrent debit won the last units) no state changes and no entry is
// logged. Never retried here: a retry after an ambiguous failure could
// double-bill.
func (l *Ledger) DebitAndLog(ctx context.Context, apiKey, endpoint string, cost int64) (int64, error) {
	if cost <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}

	entry := &model.UsageLogEntry{
		ID:            ulid.Make().String(),
		APIKey:        apiKey,
		Endpoint:      endpoint,
		UnitsConsumed: cost,
		CreatedAt:     time.Now().UTC(),
	}

	newBalance, err := l.store.DebitAndLog(ctx, entry)
	if err != nil {
		return 0, err
	}

	l.invalidate(ctx, apiKey)
	l.metrics.AddUnitsDebited(endpoint, cost)

	l.logger.Info("debit committed",
		slog.String("key_prefix", model.MaskKey(apiKey)),
		slog.String("endpoint", endpoint),
		slog.Int64("units", cost),
		slog.Int64("balance", newBalance),
	)

	return newBalance, nil
}

// Recharge validates amount as a positive multiple of the configured unit,
// converts it to credits by integer division, and atomically adds them to
// the account. Returns the new balance. ErrAccountNotFound if the key does
// not resolve; the key is checked before the amount, so an unknown key is
// reported as not found even when the amount is also invalid.
func (l *Ledger) Recharge(ctx context.Context, apiKey string, amount int64) (int64, error) {
	if _, err := l.store.AccountByKey(ctx, apiKey); err != nil {
		return 0, err
	}

	if amount <= 0 || amount%l.rechargeUnit != 0 {
		return 0, ErrInvalidAmount
	}
	credits := amount / l.rechargeUnit

	newBalance, err := l.store.Credit(ctx, apiKey, credits)
	if err != nil {
		return 0, err
	}

	l.invalidate(ctx, apiKey)
	l.metrics.AddCreditsRecharged(credits)

	l.logger.Info("recharge committed",
		slog.String("key_prefix", model.MaskKey(apiKey)),
		slog.Int64("amount", amount),
		slog.Int64("credits_added", credits),
		slog.Int64("balance", newBalance),
	)

	return newBalance, nil
}

// Usage returns recent usage-log entries and totals for a key.
func (l *Ledger) Usage(ctx context.Context, apiKey string, limit int) (*model.UsageResponse, error) {
	totals, err := l.store.UsageTotals(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("usage totals: %w", err)
	}

	entries, err := l.store.UsageByKey(ctx, apiKey, limit)
	if err != nil {
		return nil, fmt.Errorf("usage entries: %w", err)
	}

	return &model.UsageResponse{Totals: totals, Entries: entries}, nil
}

// invalidate drops the cached account so the next resolve sees the new
// balance. Best effort; a stale cache entry only affects the advisory
// Authorize screen, never the committed balance.
func (l *Ledger) invalidate(ctx context.Context, apiKey string) {
	if l.cache == nil {
		return
	}
	_ = l.cache.InvalidateAccount(ctx, auth.QuickHash(apiKey))
}
