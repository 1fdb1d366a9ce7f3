//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

type signInResponse struct {
	Message string `json:"message"`
	APIKey  string `json:"api_key"`
	Credits int64  `json:"credits"`
}

type invokeResponse struct {
	Result           int64 `json:"result"`
	RemainingCredits int64 `json:"remaining_credits"`
}

type rechargeResponse struct {
	Message string `json:"message"`
	Credits int64  `json:"credits"`
}

type usageResponse struct {
	Totals struct {
		Calls      int64 `json:"calls"`
		UnitsTotal int64 `json:"units_total"`
	} `json:"totals"`
	Entries []struct {
		Endpoint      string `json:"endpoint"`
		UnitsConsumed int64  `json:"units_consumed"`
	} `json:"entries"`
}

type accountResponse struct {
	Identity  string `json:"identity"`
	KeyPrefix string `json:"key_prefix"`
	Credits   int64  `json:"credits"`
}

// TestE2ESmoke drives the full metering flow against a running server:
// sign in, spend a credit, recharge, inspect usage and account state.
// Assumes initial credits 100 and recharge unit 10.
func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("CREDIGATE_BASE_URL", "http://localhost:8080")
	identity := fmt.Sprintf("e2e-%s@example.com", ulid.Make().String())

	// Sign in creates the account
	var signIn signInResponse
	status := doJSON(t, http.MethodPost, baseURL+"/signin", "", map[string]any{"identity": identity}, &signIn)
	if status != http.StatusCreated {
		t.Fatalf("sign-in status = %d, want %d", status, http.StatusCreated)
	}
	if len(signIn.APIKey) != 32 {
		t.Fatalf("api_key length = %d, want 32", len(signIn.APIKey))
	}
	if signIn.Credits != 100 {
		t.Fatalf("initial credits = %d, want 100", signIn.Credits)
	}

	// Repeat sign-in returns the same key
	var again signInResponse
	status = doJSON(t, http.MethodPost, baseURL+"/signin", "", map[string]any{"identity": identity}, &again)
	if status != http.StatusOK {
		t.Fatalf("repeat sign-in status = %d, want %d", status, http.StatusOK)
	}
	if again.APIKey != signIn.APIKey {
		t.Fatal("repeat sign-in returned a different key")
	}

	// A metered call bills one credit
	var invoke invokeResponse
	status = doJSON(t, http.MethodGet, baseURL+"/add?a=2&b=3", signIn.APIKey, nil, &invoke)
	if status != http.StatusOK {
		t.Fatalf("add status = %d, want %d", status, http.StatusOK)
	}
	if invoke.Result != 5 || invoke.RemainingCredits != 99 {
		t.Fatalf("add = %+v, want result 5 remaining 99", invoke)
	}

	// Missing key is a 401
	status = doJSON(t, http.MethodGet, baseURL+"/add?a=2&b=3", "", nil, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("unauthenticated add status = %d, want %d", status, http.StatusUnauthorized)
	}

	// Bad arguments are a 400 and are not billed
	status = doJSON(t, http.MethodGet, baseURL+"/add?a=x&b=3", signIn.APIKey, nil, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad args status = %d, want %d", status, http.StatusBadRequest)
	}

	// Recharge converts 30 currency units to 3 credits
	var recharge rechargeResponse
	status = doJSON(t, http.MethodPost, baseURL+"/recharge", "", map[string]any{
		"api_key": signIn.APIKey,
		"amount":  30,
	}, &recharge)
	if status != http.StatusOK {
		t.Fatalf("recharge status = %d, want %d", status, http.StatusOK)
	}
	if recharge.Credits != 102 {
		t.Fatalf("credits after recharge = %d, want 102", recharge.Credits)
	}

	// A non-multiple amount is rejected
	status = doJSON(t, http.MethodPost, baseURL+"/recharge", "", map[string]any{
		"api_key": signIn.APIKey,
		"amount":  7,
	}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("invalid amount status = %d, want %d", status, http.StatusBadRequest)
	}

	// Recharge for an unknown key is a 404
	status = doJSON(t, http.MethodPost, baseURL+"/recharge", "", map[string]any{
		"api_key": "0123456789abcdef0123456789abcdef",
		"amount":  30,
	}, nil)
	if status != http.StatusNotFound {
		t.Fatalf("unknown key recharge status = %d, want %d", status, http.StatusNotFound)
	}

	// Usage log shows the single billed call
	var usage usageResponse
	status = doJSON(t, http.MethodGet, baseURL+"/usage", signIn.APIKey, nil, &usage)
	if status != http.StatusOK {
		t.Fatalf("usage status = %d, want %d", status, http.StatusOK)
	}
	if usage.Totals.Calls != 1 || usage.Totals.UnitsTotal != 1 {
		t.Fatalf("usage totals = %+v, want 1 call / 1 unit", usage.Totals)
	}
	if len(usage.Entries) != 1 || usage.Entries[0].Endpoint != "/add" {
		t.Fatalf("usage entries = %+v, want one /add entry", usage.Entries)
	}

	// Account view never exposes the full key
	var acct accountResponse
	status = doJSON(t, http.MethodGet, baseURL+"/account", signIn.APIKey, nil, &acct)
	if status != http.StatusOK {
		t.Fatalf("account status = %d, want %d", status, http.StatusOK)
	}
	if acct.Identity != identity {
		t.Fatalf("identity = %q, want %q", acct.Identity, identity)
	}
	if acct.Credits != 102 {
		t.Fatalf("account credits = %d, want 102", acct.Credits)
	}
	if acct.KeyPrefix == signIn.APIKey {
		t.Fatal("account view exposes the full API key")
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// doJSON sends a request with an optional API key and JSON payload, decodes
// the response into out when non-nil, and returns the status code.
func doJSON(t *testing.T, method, url, apiKey string, payload, out any) int {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}

	return resp.StatusCode
}
