package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/credigate/credigate/internal/ledger"
	"github.com/credigate/credigate/internal/model"
)

// InsertAccount atomically creates an account. The insert-if-absent is a
// single statement keyed by the unique index on identity, so concurrent
// first sign-ins cannot create duplicates.
func (r *Repository) InsertAccount(ctx context.Context, acct *model.Account) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query := `
		INSERT INTO accounts (id, identity, api_key, credits, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identity) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query,
		acct.ID,
		acct.Identity,
		acct.APIKey,
		acct.Credits,
		acct.CreatedAt,
	)

	if err != nil {
		// api_key collisions are cryptographically negligible but the unique
		// index still surfaces them as an error rather than silent reuse.
		if isUniqueViolation(err) {
			return ledger.ErrIdentityExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ledger.ErrIdentityExists
	}

	return nil
}

// AccountByIdentity retrieves an account by its identity.
func (r *Repository) AccountByIdentity(ctx context.Context, identity string) (*model.Account, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, identity, api_key, credits, created_at
		FROM accounts
		WHERE identity = $1
	`

	return r.scanAccount(r.pool.QueryRow(ctx, query, identity))
}

// AccountByKey retrieves an account by its API key (exact match).
func (r *Repository) AccountByKey(ctx context.Context, apiKey string) (*model.Account, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, identity, api_key, credits, created_at
		FROM accounts
		WHERE api_key = $1
	`

	return r.scanAccount(r.pool.QueryRow(ctx, query, apiKey))
}

// Credit atomically adds credits to an account and returns the new balance.
func (r *Repository) Credit(ctx context.Context, apiKey string, credits int64) (int64, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query := `
		UPDATE accounts
		SET credits = credits + $2
		WHERE api_key = $1
		RETURNING credits
	`

	var balance int64
	err := r.pool.QueryRow(ctx, query, apiKey, credits).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ledger.ErrAccountNotFound
		}
		return 0, fmt.Errorf("failed to credit account: %w", err)
	}

	return balance, nil
}

// scanAccount scans a single row into an Account model.
func (r *Repository) scanAccount(row pgx.Row) (*model.Account, error) {
	var acct model.Account

	err := row.Scan(
		&acct.ID,
		&acct.Identity,
		&acct.APIKey,
		&acct.Credits,
		&acct.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	return &acct, nil
}
