package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/credigate/credigate/internal/model"
)

func newTestAccount(t *testing.T, store *memStore, credits int64) *model.Account {
	t.Helper()

	reg := NewRegistry(store, nil, credits, nil, nil)
	acct, _, err := reg.SignIn(context.Background(), "test@x.com")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	return acct
}

func TestLedger_Authorize(t *testing.T) {
	t.Parallel()

	l := NewLedger(newMemStore(), nil, 10, nil, nil)

	tests := []struct {
		name    string
		credits int64
		cost    int64
		wantErr error
	}{
		{"sufficient balance", 100, 1, nil},
		{"exact balance", 5, 5, nil},
		{"exhausted", 0, 1, ErrInsufficientCredits},
		{"cost exceeds balance", 3, 4, ErrInsufficientCredits},
		{"zero cost rejected", 100, 0, ErrInvalidCost},
		{"negative cost rejected", 100, -1, ErrInvalidCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct := &model.Account{Credits: tt.credits}
			err := l.Authorize(acct, tt.cost)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize(credits=%d, cost=%d) = %v, want %v", tt.credits, tt.cost, err, tt.wantErr)
			}
		})
	}
}

func TestLedger_DebitAndLog(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	acct := newTestAccount(t, store, 100)
	l := NewLedger(store, nil, 10, nil, nil)
	ctx := context.Background()

	balance, err := l.DebitAndLog(ctx, acct.APIKey, "/add", 1)
	if err != nil {
		t.Fatalf("DebitAndLog failed: %v", err)
	}
	if balance != 99 {
		t.Errorf("balance = %d, want 99", balance)
	}
	if got := store.usageCount(acct.APIKey); got != 1 {
		t.Errorf("usage entries = %d, want 1", got)
	}

	entries, err := l.store.UsageByKey(ctx, acct.APIKey, 10)
	if err != nil {
		t.Fatalf("UsageByKey failed: %v", err)
	}
	if entries[0].Endpoint != "/add" {
		t.Errorf("endpoint = %q, want /add", entries[0].Endpoint)
	}
	if entries[0].UnitsConsumed != 1 {
		t.Errorf("units = %d, want 1", entries[0].UnitsConsumed)
	}
}

func TestLedger_DebitAndLog_Insufficient(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	acct := newTestAccount(t, store, 0)
	l := NewLedger(store, nil, 10, nil, nil)

	_, err := l.DebitAndLog(context.Background(), acct.APIKey, "/add", 1)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("error = %v, want ErrInsufficientCredits", err)
	}

	// Rejected debit must leave no trace
	if got := store.usageCount(acct.APIKey); got != 0 {
		t.Errorf("usage entries after rejected debit = %d, want 0", got)
	}
	resolved, _ := store.AccountByKey(context.Background(), acct.APIKey)
	if resolved.Credits != 0 {
		t.Errorf("credits after rejected debit = %d, want 0", resolved.Credits)
	}
}

func TestLedger_DebitAndLog_InvalidCost(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	acct := newTestAccount(t, store, 100)
	l := NewLedger(store, nil, 10, nil, nil)

	for _, cost := range []int64{0, -1, -100} {
		if _, err := l.DebitAndLog(context.Background(), acct.APIKey, "/add", cost); !errors.Is(err, ErrInvalidCost) {
			t.Errorf("cost %d error = %v, want ErrInvalidCost", cost, err)
		}
	}
}

func TestLedger_Recharge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		amount      int64
		wantBalance int64
		wantErr     error
	}{
		{"valid multiple", 50, 105, nil},
		{"single unit", 10, 101, nil},
		{"large amount", 1000, 200, nil},
		{"not a multiple", 7, 0, ErrInvalidAmount},
		{"off by one", 51, 0, ErrInvalidAmount},
		{"zero", 0, 0, ErrInvalidAmount},
		{"negative", -10, 0, ErrInvalidAmount},
		{"negative multiple", -20, 0, ErrInvalidAmount},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemStore()
			acct := newTestAccount(t, store, 100)
			l := NewLedger(store, nil, 10, nil, nil)

			balance, err := l.Recharge(context.Background(), acct.APIKey, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Recharge(%d) error = %v, want %v", tt.amount, err, tt.wantErr)
			}
			if tt.wantErr != nil {
				// Balance must be untouched on rejection
				resolved, _ := store.AccountByKey(context.Background(), acct.APIKey)
				if resolved.Credits != 100 {
					t.Errorf("credits after rejected recharge = %d, want 100", resolved.Credits)
				}
				return
			}
			if balance != tt.wantBalance {
				t.Errorf("Recharge(%d) balance = %d, want %d", tt.amount, balance, tt.wantBalance)
			}
		})
	}
}

func TestLedger_Recharge_UnknownKey(t *testing.T) {
	t.Parallel()

	l := NewLedger(newMemStore(), nil, 10, nil, nil)

	_, err := l.Recharge(context.Background(), "4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", 50)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("error = %v, want ErrAccountNotFound", err)
	}

	// The key is checked first: an unknown key with a bad amount is still
	// reported as not found, not as an invalid amount.
	_, err = l.Recharge(context.Background(), "4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", 7)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("unknown key with bad amount error = %v, want ErrAccountNotFound", err)
	}
}

func TestLedger_Usage(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	acct := newTestAccount(t, store, 100)
	l := NewLedger(store, nil, 10, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := l.DebitAndLog(ctx, acct.APIKey, "/add", 2); err != nil {
			t.Fatalf("DebitAndLog failed: %v", err)
		}
	}

	usage, err := l.Usage(ctx, acct.APIKey, 2)
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if usage.Totals.Calls != 3 {
		t.Errorf("total calls = %d, want 3", usage.Totals.Calls)
	}
	if usage.Totals.UnitsTotal != 6 {
		t.Errorf("total units = %d, want 6", usage.Totals.UnitsTotal)
	}
	if len(usage.Entries) != 2 {
		t.Errorf("entries returned = %d, want 2 (limit)", len(usage.Entries))
	}
}
