package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/credigate/credigate/internal/auth"
	"github.com/credigate/credigate/internal/model"
)

// Auth returns a middleware that extracts and screens the API key on
// metered routes. It rejects requests with a missing or malformed key
// before they reach the ledger; the key itself is verified against the
// account store downstream, so a well-formed but unknown key still
// passes this middleware and fails resolution with the same 401.
func Auth(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ExtractAPIKey(r)
			if key == "" {
				logger.Warn("authentication failed",
					slog.String("reason", "missing_key"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)
				writeAuthError(w)
				return
			}

			if !auth.ValidateKeyFormat(key) {
				logger.Warn("authentication failed",
					slog.String("reason", "invalid_format"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)
				writeAuthError(w)
				return
			}

			if f := LogFieldsFromContext(r.Context()); f != nil {
				f.KeyPrefix = model.MaskKey(key)
			}

			ctx := auth.ContextWithAPIKey(r.Context(), key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractAPIKey extracts the API key from the request.
// Supports both "Authorization: Bearer <key>" and "X-API-Key: <key>" headers.
func ExtractAPIKey(r *http.Request) string {
	// Try Authorization header first
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}
	}

	// Fall back to X-API-Key header
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing API key"}}`))
}
