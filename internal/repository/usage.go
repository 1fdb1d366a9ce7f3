package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/credigate/credigate/internal/ledger"
	"github.com/credigate/credigate/internal/model"
)

// DebitAndLog decrements the account balance and appends the usage-log
// entry in one transaction. The decrement is a single conditional update:
// it subtracts only where the balance covers the cost, so two concurrent
// debits can never both win the last unit and the balance can never go
// negative. If the condition fails, the transaction rolls back and no log
// entry is written.
func (r *Repository) DebitAndLog(ctx context.Context, entry *model.UsageLogEntry) (int64, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin debit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	debitQuery := `
		UPDATE accounts
		SET credits = credits - $2
		WHERE api_key = $1 AND credits >= $2
		RETURNING credits
	`

	var balance int64
	err = tx.QueryRow(ctx, debitQuery, entry.APIKey, entry.UnitsConsumed).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Condition failed: either no such account or balance too low.
			return 0, r.classifyDebitFailure(ctx, tx, entry.APIKey)
		}
		return 0, fmt.Errorf("failed to debit account: %w", err)
	}

	logQuery := `
		INSERT INTO usage_logs (id, api_key, endpoint, units_consumed, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = tx.Exec(ctx, logQuery,
		entry.ID,
		entry.APIKey,
		entry.Endpoint,
		entry.UnitsConsumed,
		entry.CreatedAt,
	)
	if err != nil {
		// Rolls back the debit too: no debit without its log entry.
		return 0, fmt.Errorf("failed to append usage log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit debit transaction: %w", err)
	}

	return balance, nil
}

// classifyDebitFailure distinguishes an unknown key from an exhausted
// balance after a conditional debit matched no rows.
func (r *Repository) classifyDebitFailure(ctx context.Context, tx pgx.Tx, apiKey string) error {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE api_key = $1)`, apiKey).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to classify debit failure: %w", err)
	}
	if !exists {
		return ledger.ErrAccountNotFound
	}
	return ledger.ErrInsufficientCredits
}

// UsageByKey returns the most recent usage-log entries for a key, newest first.
func (r *Repository) UsageByKey(ctx context.Context, apiKey string, limit int) ([]*model.UsageLogEntry, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, api_key, endpoint, units_consumed, created_at
		FROM usage_logs
		WHERE api_key = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, apiKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage logs: %w", err)
	}
	defer rows.Close()

	var entries []*model.UsageLogEntry
	for rows.Next() {
		var e model.UsageLogEntry
		if err := rows.Scan(&e.ID, &e.APIKey, &e.Endpoint, &e.UnitsConsumed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage log entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage logs: %w", err)
	}

	return entries, nil
}

// UsageTotals aggregates call count and units consumed for a key.
func (r *Repository) UsageTotals(ctx context.Context, apiKey string) (model.UsageTotals, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query := `
		SELECT COUNT(*), COALESCE(SUM(units_consumed), 0)
		FROM usage_logs
		WHERE api_key = $1
	`

	var totals model.UsageTotals
	err := r.pool.QueryRow(ctx, query, apiKey).Scan(&totals.Calls, &totals.UnitsTotal)
	if err != nil {
		return model.UsageTotals{}, fmt.Errorf("failed to aggregate usage: %w", err)
	}

	return totals, nil
}
