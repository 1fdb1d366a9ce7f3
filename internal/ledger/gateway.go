package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/credigate/credigate/internal/metrics"
	"github.com/credigate/credigate/internal/model"
)

// Operation is a billable unit of work. Execute must be pure with respect to
// the ledger: no side effects, so a failed execution can be dropped without
// a rollback and is never billed.
type Operation interface {
	Name() string
	Cost() int64
	Execute(ctx context.Context, args map[string]string) (any, error)
}

// InvokeResult is the outcome of a successfully billed operation.
type InvokeResult struct {
	Result           any   `json:"result"`
	RemainingCredits int64 `json:"remaining_credits"`
}

// Gateway orchestrates the authorize-execute-debit-log sequence for metered
// operations. Each request is one pass through the sequence; nothing is
// retried automatically except read-only resolves on transient store errors.
type Gateway struct {
	registry *Registry
	ledger   *Ledger
	ops      map[string]Operation
	logger   *slog.Logger
	metrics  metrics.Recorder

	resolveRetries int
	retryBackoff   time.Duration
}

// NewGateway creates a Gateway with no registered operations.
func NewGateway(registry *Registry, ledger *Ledger, logger *slog.Logger, recorder metrics.Recorder, resolveRetries int, retryBackoff time.Duration) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if resolveRetries < 0 {
		resolveRetries = 0
	}
	return &Gateway{
		registry:       registry,
		ledger:         ledger,
		ops:            make(map[string]Operation),
		logger:         logger,
		metrics:        recorder,
		resolveRetries: resolveRetries,
		retryBackoff:   retryBackoff,
	}
}

// Register adds a metered operation. Later registrations with the same name
// replace earlier ones.
func (g *Gateway) Register(op Operation) {
	g.ops[op.Name()] = op
}

// Operation returns a registered operation by name.
func (g *Gateway) Operation(name string) (Operation, bool) {
	op, ok := g.ops[name]
	return op, ok
}

// Invoke runs one metered operation for the given API key:
// resolve the account, screen the balance, execute the pure operation, then
// commit debit and usage log atomically. A failed execution is never billed;
// a failed debit (insufficient credits under concurrency) discards the
// result.
func (g *Gateway) Invoke(ctx context.Context, apiKey, opName string, args map[string]string) (*InvokeResult, error) {
	start := time.Now()

	op, ok := g.ops[opName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, opName)
	}

	res, err := g.invoke(ctx, apiKey, op, args)
	g.metrics.IncInvoke(op.Name(), statusLabel(err))
	g.metrics.ObserveInvokeDuration(op.Name(), time.Since(start))

	if err != nil {
		g.logger.Warn("invoke rejected",
			slog.String("operation", op.Name()),
			slog.String("key_prefix", model.MaskKey(apiKey)),
			slog.String("reason", statusLabel(err)),
		)
		return nil, err
	}

	return res, nil
}

func (g *Gateway) invoke(ctx context.Context, apiKey string, op Operation, args map[string]string) (*InvokeResult, error) {
	acct, err := g.resolveWithRetry(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	// Advisory screen. Rejects exhausted accounts before doing the work;
	// the conditional decrement below remains the authority.
	if err := g.ledger.Authorize(acct, op.Cost()); err != nil {
		return nil, err
	}

	result, err := op.Execute(ctx, args)
	if err != nil {
		// Failed work is not billed and not logged.
		return nil, err
	}

	newBalance, err := g.ledger.DebitAndLog(ctx, apiKey, "/"+op.Name(), op.Cost())
	if err != nil {
		return nil, err
	}

	return &InvokeResult{Result: result, RemainingCredits: newBalance}, nil
}

// resolveWithRetry retries account resolution on transient store failures.
// Only this read path is retried; debits never are.
func (g *Gateway) resolveWithRetry(ctx context.Context, apiKey string) (*model.Account, error) {
	var acct *model.Account
	var err error

	for attempt := 0; ; attempt++ {
		acct, err = g.registry.Resolve(ctx, apiKey)
		if err == nil || !isTransient(err) || attempt >= g.resolveRetries {
			return acct, err
		}

		g.logger.Warn("transient store error during resolve, retrying",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.retryBackoff * time.Duration(attempt+1)):
		}
	}
}

// isTransient reports whether an error is a store I/O failure rather than a
// terminal domain outcome.
func isTransient(err error) bool {
	switch {
	case errors.Is(err, ErrMissingKey),
		errors.Is(err, ErrInvalidKey),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrInsufficientCredits),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidArgs),
		errors.Is(err, ErrInvalidCost),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// statusLabel maps an invoke outcome to a metrics label.
func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingKey), errors.Is(err, ErrInvalidKey):
		return "unauthorized"
	case errors.Is(err, ErrInsufficientCredits):
		return "insufficient_credits"
	case errors.Is(err, ErrInvalidArgs):
		return "invalid_args"
	default:
		return "error"
	}
}
