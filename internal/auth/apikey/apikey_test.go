package apikey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/errors"
)

type fakeStore struct {
	mu    sync.Mutex
	keys  map[string]*KeyInfo
	calls int
	err   error
}

func (f *fakeStore) Lookup(_ context.Context, hash string) (*KeyInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.keys[hash]
	if !ok {
		return nil, ErrInvalidKey
	}
	return info, nil
}

func TestValidateStaticKey(t *testing.T) {
	v := NewValidator(nil, []string{"dev-admin-key", ""})
	info, err := v.Validate(context.Background(), "dev-admin-key")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if info.Name != "static" || !info.IsActive {
		t.Fatalf("info = %+v", info)
	}
	if _, err := v.Validate(context.Background(), "other"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("unknown key: err = %v", err)
	}
	if _, err := v.Validate(context.Background(), ""); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("empty key: err = %v", err)
	}
	if !v.Enabled() {
		t.Fatal("validator with a static key should be enabled")
	}
	if NewValidator(nil, nil).Enabled() {
		t.Fatal("validator without keys or store should be disabled")
	}
}

func TestValidateCachesStoreAnswers(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{keys: map[string]*KeyInfo{
		HashKey("ingest-key"): {ID: "7", Name: "crawler", RateLimit: 20, IsActive: true},
	}}
	v := NewValidator(store, nil)
	v.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		info, err := v.Validate(context.Background(), "ingest-key")
		if err != nil || info.ID != "7" {
			t.Fatalf("Validate = %+v, %v", info, err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := v.Validate(context.Background(), "revoked"); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("unknown key: err = %v", err)
		}
	}
	if store.calls != 2 {
		t.Fatalf("store calls = %d, want 2 (one hit, one miss)", store.calls)
	}

	now = now.Add(defaultCacheTTL)
	if _, err := v.Validate(context.Background(), "ingest-key"); err != nil {
		t.Fatalf("Validate after ttl: %v", err)
	}
	if store.calls != 3 {
		t.Fatalf("store calls after ttl = %d, want 3", store.calls)
	}

	v.Forget("revoked")
	v.Validate(context.Background(), "revoked")
	if store.calls != 4 {
		t.Fatalf("store calls after Forget = %d, want 4", store.calls)
	}
}

func TestValidateExpiredKey(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	store := &fakeStore{keys: map[string]*KeyInfo{
		HashKey("old-key"): {ID: "1", Name: "old", IsActive: true, ExpiresAt: &past},
	}}
	v := NewValidator(store, nil)
	v.now = func() time.Time { return now }
	if _, err := v.Validate(context.Background(), "old-key"); !errors.Is(err, ErrExpiredKey) {
		t.Fatalf("err = %v, want ErrExpiredKey", err)
	}
}

func TestValidateStoreFailureIsNotCached(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	v := NewValidator(store, nil)
	_, err := v.Validate(context.Background(), "any-key")
	if !errors.Is(err, apperrors.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	v.Validate(context.Background(), "any-key")
	if store.calls != 2 {
		t.Fatalf("store calls = %d, want 2", store.calls)
	}
}

func TestGenerateKeyIsHashable(t *testing.T) {
	a, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	b, _ := GenerateKey()
	if len(a) != 64 || a == b {
		t.Fatalf("keys %q %q", a, b)
	}
	if HashKey(a) == a || len(HashKey(a)) != 64 {
		t.Fatal("hash should be a distinct 64-char digest")
	}
}
