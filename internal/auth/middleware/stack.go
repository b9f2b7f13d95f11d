package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/config"
)

// Stack is the set of guards a service builds from its auth config.
type Stack struct {
	// Admin guards write and admin routes; nil when auth is disabled.
	Admin func(http.Handler) http.Handler
	// Public wraps the whole mux with CORS and the per-address limit.
	Public  func(http.Handler) http.Handler
	Limiter *ratelimit.Limiter
}

// NewStack builds the guards. store may be nil to accept static keys only.
func NewStack(cfg config.AuthConfig, store apikey.Store) *Stack {
	limiter := ratelimit.New(cfg.RateWindow)
	perAddr := RateLimit(limiter, cfg.RateLimit)
	cors := CORS(DefaultCORSConfig(cfg.AllowOrigins))
	s := &Stack{
		Limiter: limiter,
		Public: func(next http.Handler) http.Handler {
			limited := perAddr(next)
			return cors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.HasPrefix(r.URL.Path, "/health/") {
					next.ServeHTTP(w, r)
					return
				}
				limited.ServeHTTP(w, r)
			}))
		},
	}
	if cfg.Enabled {
		validator := apikey.NewValidator(store, cfg.StaticKeys)
		if !validator.Enabled() {
			slog.Warn("auth enabled without static keys or a key store; admin routes will reject every request")
		}
		s.Admin = Guard(validator, limiter, cfg.RateLimit)
	}
	return s
}
