package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/credigate/credigate/internal/ledger"
	"github.com/credigate/credigate/internal/model"
)

// SignInHandler handles account sign-in and key issuance.
type SignInHandler struct {
	logger   *slog.Logger
	registry *ledger.Registry
}

// NewSignInHandler creates a new SignInHandler.
func NewSignInHandler(logger *slog.Logger, registry *ledger.Registry) *SignInHandler {
	return &SignInHandler{
		logger:   logger,
		registry: registry,
	}
}

// signInRequest is the POST /signin request body.
type signInRequest struct {
	Identity string `json:"identity"`
}

// SignIn handles POST /signin.
// Idempotent per identity: the first call creates the account with the
// initial credit grant, every later call returns the same key and the
// current balance.
func (h *SignInHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	acct, isNew, err := h.registry.SignIn(ctx, req.Identity)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidArgs) {
			writeError(w, http.StatusBadRequest, "INVALID_ARGS", "Identity is required")
			return
		}
		h.logger.Error("sign-in failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Sign-in failed")
		return
	}

	status := http.StatusOK
	message := "welcome back"
	if isNew {
		status = http.StatusCreated
		message = "account created"
	}

	writeJSON(w, status, model.SignInResponse{
		Message: message,
		APIKey:  acct.APIKey,
		Credits: acct.Credits,
	})
}
