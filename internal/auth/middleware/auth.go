// Package middleware guards HTTP routes with API keys, per-caller rate
// limits and CORS headers.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/auth/apikey"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/logger"
)

const APIKeyHeader = "X-API-Key"

type keyInfoKey struct{}

// Auth rejects requests without a valid key with 401. The validated key is
// stored in the request context for RateLimit and handlers.
func Auth(validator *apikey.Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := validator.Validate(r.Context(), extractAPIKey(r))
			if err != nil {
				logger.FromContext(r.Context()).Warn("request rejected", "path", r.URL.Path, "error", err)
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), keyInfoKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// KeyInfo returns the key validated by Auth, or nil.
func KeyInfo(ctx context.Context) *apikey.KeyInfo {
	info, _ := ctx.Value(keyInfoKey{}).(*apikey.KeyInfo)
	return info
}

// extractAPIKey reads "Authorization: Bearer <key>" or X-API-Key. Keys in
// the query string are not accepted since they end up in access logs.
func extractAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return r.Header.Get(APIKeyHeader)
}

func writeError(w http.ResponseWriter, err error) {
	status, body := apperrors.Response(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
