package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/auth/ratelimit"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/errors"
)

// RateLimit answers 429 once the caller's bucket is empty. Requests that
// passed Auth are limited per key, using the key's own limit when it has
// one; anonymous requests are limited per client address.
func RateLimit(limiter *ratelimit.Limiter, defaultLimit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket, limit := "ip:"+clientAddr(r), defaultLimit
			if info := KeyInfo(r.Context()); info != nil {
				bucket = "key:" + info.ID
				if info.RateLimit > 0 {
					limit = info.RateLimit
				}
			}
			if wait, ok := limiter.Reserve(bucket, limit); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, apperrors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Guard chains Auth and a per-key RateLimit for admin and write routes.
func Guard(validator *apikey.Validator, limiter *ratelimit.Limiter, defaultLimit int) func(http.Handler) http.Handler {
	auth := Auth(validator)
	limit := RateLimit(limiter, defaultLimit)
	return func(next http.Handler) http.Handler {
		return auth(limit(next))
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
