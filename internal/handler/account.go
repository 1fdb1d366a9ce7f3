package handler

import (
	"log/slog"
	"net/http"

	"github.com/credigate/credigate/internal/auth"
	"github.com/credigate/credigate/internal/ledger"
)

// AccountHandler exposes the authenticated account view.
type AccountHandler struct {
	logger   *slog.Logger
	registry *ledger.Registry
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(logger *slog.Logger, registry *ledger.Registry) *AccountHandler {
	return &AccountHandler{
		logger:   logger,
		registry: registry,
	}
}

// Account handles GET /account.
// Returns identity, masked key and current balance for the calling key.
// The full key is only ever returned by sign-in.
func (h *AccountHandler) Account(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	apiKey, ok := auth.APIKeyFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
		return
	}

	acct, err := h.registry.Resolve(ctx, apiKey)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, acct.ToResponse())
}
