package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/credigate/credigate/internal/auth"
	"github.com/credigate/credigate/internal/ledger"
)

const (
	defaultUsageLimit = 50
	maxUsageLimit     = 500
)

// UsageHandler exposes the usage log for the calling key.
type UsageHandler struct {
	logger   *slog.Logger
	registry *ledger.Registry
	ledger   *ledger.Ledger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(logger *slog.Logger, registry *ledger.Registry, l *ledger.Ledger) *UsageHandler {
	return &UsageHandler{
		logger:   logger,
		registry: registry,
		ledger:   l,
	}
}

// Usage handles GET /usage?limit=.
// Returns recent usage-log entries plus aggregate totals for the
// authenticated key, newest first.
func (h *UsageHandler) Usage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	apiKey, ok := auth.APIKeyFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
		return
	}

	// Resolve first so an unknown key is a 401, not an empty log.
	if _, err := h.registry.Resolve(ctx, apiKey); err != nil {
		writeLedgerError(w, err)
		return
	}

	limit := defaultUsageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "INVALID_ARGS", "limit must be a positive integer")
			return
		}
		limit = parsed
		if limit > maxUsageLimit {
			limit = maxUsageLimit
		}
	}

	usage, err := h.ledger.Usage(ctx, apiKey, limit)
	if err != nil {
		h.logger.Error("usage lookup failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load usage")
		return
	}

	writeJSON(w, http.StatusOK, usage)
}
