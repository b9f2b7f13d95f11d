// Package apikey validates the API keys that guard the mutating endpoints
// (ingest, index rebuild, cache invalidation). Only SHA-256 hashes of keys
// are stored. Keys come from Postgres and, for local setups, from a static
// list in the config.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/errors"
)

var (
	ErrInvalidKey = fmt.Errorf("invalid api key: %w", apperrors.ErrUnauthorized)
	ErrExpiredKey = fmt.Errorf("api key expired: %w", apperrors.ErrUnauthorized)
)

const defaultCacheTTL = 30 * time.Second

// KeyInfo describes a validated key. RateLimit is requests per limiter
// window; zero means the service default.
type KeyInfo struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	RateLimit int        `json:"rate_limit"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Store looks keys up by hash. Lookup returns ErrInvalidKey when no active
// key has that hash.
type Store interface {
	Lookup(ctx context.Context, hash string) (*KeyInfo, error)
}

type cachedKey struct {
	info    *KeyInfo
	fetched time.Time
}

// Validator checks presented keys against the static list and then the
// store. Store answers, including misses, are cached for a short TTL so a
// busy client does not cost a query per request.
type Validator struct {
	static map[string]*KeyInfo
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]cachedKey
	group singleflight.Group
}

// NewValidator builds a Validator. store may be nil, in which case only
// staticKeys are accepted.
func NewValidator(store Store, staticKeys []string) *Validator {
	v := &Validator{
		static: make(map[string]*KeyInfo, len(staticKeys)),
		store:  store,
		ttl:    defaultCacheTTL,
		now:    time.Now,
		logger: slog.Default().With("component", "apikey-validator"),
		cache:  make(map[string]cachedKey),
	}
	for _, raw := range staticKeys {
		if raw == "" {
			continue
		}
		hash := HashKey(raw)
		v.static[hash] = &KeyInfo{ID: "static-" + hash[:8], Name: "static", IsActive: true}
	}
	return v
}

// Enabled reports whether any key could ever validate.
func (v *Validator) Enabled() bool {
	return len(v.static) > 0 || v.store != nil
}

// Validate returns the key's info, ErrInvalidKey for unknown or revoked
// keys, or ErrExpiredKey.
func (v *Validator) Validate(ctx context.Context, rawKey string) (*KeyInfo, error) {
	if rawKey == "" {
		return nil, ErrInvalidKey
	}
	hash := HashKey(rawKey)
	if info, ok := v.static[hash]; ok {
		return info, nil
	}
	if v.store == nil {
		return nil, ErrInvalidKey
	}

	info, err := v.lookup(ctx, hash)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrInvalidKey
	}
	if info.ExpiresAt != nil && info.ExpiresAt.Before(v.now()) {
		return nil, ErrExpiredKey
	}
	return info, nil
}

// lookup returns nil info for a key the store does not know.
func (v *Validator) lookup(ctx context.Context, hash string) (*KeyInfo, error) {
	v.mu.Lock()
	c, ok := v.cache[hash]
	v.mu.Unlock()
	if ok && v.now().Sub(c.fetched) < v.ttl {
		return c.info, nil
	}

	res, err, _ := v.group.Do(hash, func() (any, error) {
		info, err := v.store.Lookup(ctx, hash)
		if err != nil && !errors.Is(err, ErrInvalidKey) {
			return nil, err
		}
		v.mu.Lock()
		v.cache[hash] = cachedKey{info: info, fetched: v.now()}
		v.mu.Unlock()
		return info, nil
	})
	if err != nil {
		v.logger.Error("api key lookup failed", "error", err)
		return nil, fmt.Errorf("looking up api key: %w", apperrors.ErrUnavailable)
	}
	info, _ := res.(*KeyInfo)
	return info, nil
}

// Forget drops any cached answer for rawKey, e.g. after revoking it.
func (v *Validator) Forget(rawKey string) {
	v.mu.Lock()
	delete(v.cache, HashKey(rawKey))
	v.mu.Unlock()
}

// HashKey returns the hex SHA-256 digest stored in place of the raw key.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// GenerateKey returns a random 32-byte key, hex encoded.
func GenerateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
