// Package model defines domain entities for the application.
package model

import "time"

// Account is the billing identity bound one-to-one with an API key.
// Identity and APIKey are immutable after creation; only Credits changes,
// and only through the ledger.
type Account struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	APIKey    string    `json:"-"` // Never serialize in list/read responses
	Credits   int64     `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// MaskedKey returns the API key with all but the first and last four
// characters replaced, for display and logging.
func (a *Account) MaskedKey() string {
	return MaskKey(a.APIKey)
}

// MaskKey masks an API key for safe display. Keys shorter than 12
// characters are fully masked.
func MaskKey(key string) string {
	if len(key) < 12 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// SignInResponse is returned by POST /signin.
// The full key is returned here and on every subsequent sign-in for the
// same identity; sign-in is idempotent per identity.
type SignInResponse struct {
	Message string `json:"message"`
	APIKey  string `json:"api_key"`
	Credits int64  `json:"credits"`
}

// AccountResponse is the authenticated read view of an account.
type AccountResponse struct {
	Identity  string    `json:"identity"`
	KeyPrefix string    `json:"key_prefix"`
	Credits   int64     `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts an Account to its read view.
func (a *Account) ToResponse() AccountResponse {
	return AccountResponse{
		Identity:  a.Identity,
		KeyPrefix: a.MaskedKey(),
		Credits:   a.Credits,
		CreatedAt: a.CreatedAt,
	}
}

// RechargeResponse is returned by POST /recharge.
type RechargeResponse struct {
	Message string `json:"message"`
	Credits int64  `json:"credits"`
}
