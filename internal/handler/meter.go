package handler

import (
	"log/slog"
	"net/http"

	"github.com/credigate/credigate/internal/auth"
	"github.com/credigate/credigate/internal/ledger"
	"github.com/credigate/credigate/internal/middleware"
)

// MeterHandler exposes the metered operations. Each request is one billed
// invocation: the gateway authorizes, executes, then debits and logs
// atomically.
type MeterHandler struct {
	logger  *slog.Logger
	gateway *ledger.Gateway
}

// NewMeterHandler creates a new MeterHandler.
func NewMeterHandler(logger *slog.Logger, gateway *ledger.Gateway) *MeterHandler {
	return &MeterHandler{
		logger:  logger,
		gateway: gateway,
	}
}

// Add handles GET /add?a=&b=.
// Requires an API key; costs one credit per successful call.
func (h *MeterHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.invoke(w, r, "add", map[string]string{
		"a": r.URL.Query().Get("a"),
		"b": r.URL.Query().Get("b"),
	})
}

// invoke runs one metered operation for the authenticated key and writes
// the result or the mapped error.
func (h *MeterHandler) invoke(w http.ResponseWriter, r *http.Request, opName string, args map[string]string) {
	ctx := r.Context()

	if f := middleware.LogFieldsFromContext(ctx); f != nil {
		f.Operation = opName
	}

	apiKey, ok := auth.APIKeyFromContext(ctx)
	if !ok {
		// Auth middleware did not run on this route
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
		return
	}

	result, err := h.gateway.Invoke(ctx, apiKey, opName, args)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
