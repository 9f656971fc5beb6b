package mw

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// KeySet is the set of static API keys accepted by the HTTP API. An empty
// set disables authentication.
type KeySet struct {
	keys [][]byte
}

// NewKeySet returns a key set holding the non-empty keys.
func NewKeySet(keys []string) *KeySet {
	ks := &KeySet{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			ks.keys = append(ks.keys, []byte(k))
		}
	}
	return ks
}

// Enabled reports whether any key is configured.
func (ks *KeySet) Enabled() bool {
	return ks != nil && len(ks.keys) > 0
}

// Valid reports whether key matches one of the configured keys. The
// comparison runs in constant time per key.
func (ks *KeySet) Valid(key string) bool {
	if !ks.Enabled() {
		return true
	}
	ok := false
	for _, k := range ks.keys {
		if subtle.ConstantTimeCompare(k, []byte(key)) == 1 {
			ok = true
		}
	}
	return ok
}

// extractKey reads the API key from the Authorization: Bearer header,
// falling back to X-API-Key.
func extractKey(header func(string) string) string {
	const bearerPrefix = "Bearer "
	if auth := header("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
		return auth[len(bearerPrefix):]
	}
	return header("X-API-Key")
}

// RawAPIKeyAuth returns a Chi middleware validating API keys, for raw
// routes that bypass Huma (the WebSocket endpoint).
func RawAPIKeyAuth(logger *slog.Logger, keys *KeySet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !keys.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			key := extractKey(r.Header.Get)
			if key == "" {
				logger.Warn("API key missing", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: API key required", http.StatusUnauthorized)
				return
			}
			if !keys.Valid(key) {
				logger.Warn("Invalid API key used", "key_prefix", keyPrefix(key), "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HumaAuth returns a Huma middleware that enforces API keys on operations
// declaring the API key security scheme. Public operations pass through.
func HumaAuth(api huma.API, logger *slog.Logger, keys *KeySet) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !keys.Enabled() || !operationRequiresAuth(ctx.Operation()) {
			next(ctx)
			return
		}
		key := extractKey(ctx.Header)
		if key == "" {
			logger.Warn("API key missing", "operation", ctx.Operation().OperationID)
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "API key required")
			return
		}
		if !keys.Valid(key) {
			logger.Warn("Invalid API key used", "key_prefix", keyPrefix(key), "operation", ctx.Operation().OperationID)
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid API key")
			return
		}
		next(ctx)
	}
}

// operationRequiresAuth reports whether op declares the API key scheme.
func operationRequiresAuth(op *huma.Operation) bool {
	if op == nil {
		return false
	}
	for _, req := range op.Security {
		if _, ok := req[SecurityScheme]; ok {
			return true
		}
	}
	return false
}

// keyPrefix returns the first 4 characters of a key for safe logging.
func keyPrefix(key string) string {
	if len(key) >= 4 {
		return key[:4]
	}
	return key
}
