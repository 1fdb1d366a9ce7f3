package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// apiKeyContextKey is the context key for the authenticated API key.
	apiKeyContextKey contextKey = "api_key"
)

// ContextWithAPIKey adds the presented API key to the context.
// Set by the auth middleware after format validation.
func ContextWithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyContextKey, key)
}

// APIKeyFromContext retrieves the API key from the context.
// The second return reports whether a key was set.
func APIKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(apiKeyContextKey).(string)
	return key, ok
}

// MustAPIKeyFromContext retrieves the API key from the context.
// Panics if not present (use only when auth middleware has run).
func MustAPIKeyFromContext(ctx context.Context) string {
	key, ok := APIKeyFromContext(ctx)
	if !ok {
		panic("api key not found in context - ensure auth middleware is applied")
	}
	return key
}
