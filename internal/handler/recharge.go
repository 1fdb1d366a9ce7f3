package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/credigate/credigate/internal/ledger"
	"github.com/credigate/credigate/internal/metrics"
	"github.com/credigate/credigate/internal/model"
)

// RechargeHandler handles credit top-ups.
type RechargeHandler struct {
	logger  *slog.Logger
	ledger  *ledger.Ledger
	metrics metrics.Recorder
}

// NewRechargeHandler creates a new RechargeHandler.
func NewRechargeHandler(logger *slog.Logger, l *ledger.Ledger, recorder metrics.Recorder) *RechargeHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RechargeHandler{
		logger:  logger,
		ledger:  l,
		metrics: recorder,
	}
}

// rechargeRequest is the POST /recharge request body.
type rechargeRequest struct {
	APIKey string `json:"api_key"`
	Amount int64  `json:"amount"`
}

// Recharge handles POST /recharge.
// The key travels in the body, not a header: recharges are typically made
// on behalf of an account by a billing integration, not by the key holder.
func (h *RechargeHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req rechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.IncRecharge("invalid_request")
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	newBalance, err := h.ledger.Recharge(ctx, req.APIKey, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			h.metrics.IncRecharge("invalid_amount")
		case errors.Is(err, ledger.ErrAccountNotFound):
			h.metrics.IncRecharge("not_found")
		default:
			h.metrics.IncRecharge("error")
			h.logger.Error("recharge failed",
				slog.String("key_prefix", model.MaskKey(req.APIKey)),
				slog.String("error", err.Error()),
			)
		}
		writeLedgerError(w, err)
		return
	}

	h.metrics.IncRecharge("ok")

	writeJSON(w, http.StatusOK, model.RechargeResponse{
		Message: "recharge successful",
		Credits: newBalance,
	})
}
