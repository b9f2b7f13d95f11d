package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrDocumentNotFound, http.StatusNotFound},
		{"wrapped not built", fmt.Errorf("searching: %w", ErrIndexNotBuilt), http.StatusServiceUnavailable},
		{"invalid", ErrInvalidInput, http.StatusBadRequest},
		{"conflict", ErrIdempotencyConflict, http.StatusConflict},
		{"app error wins", New(ErrInvalidInput, http.StatusTeapot, "short and stout"), http.StatusTeapot},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrDocumentNotFound, http.StatusNotFound, "document %d", 7)
	if err.Error() != "document not found: document 7" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if err.Unwrap() != ErrDocumentNotFound {
		t.Fatal("Unwrap did not return the sentinel")
	}
}

func TestResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   Body
	}{
		{"sentinel", fmt.Errorf("lookup: %w", ErrDocumentNotFound), http.StatusNotFound, Body{Error: "document not found", Code: "not_found"}},
		{"app error message", New(ErrInvalidInput, http.StatusBadRequest, "limit must be >= 0"), http.StatusBadRequest, Body{Error: "limit must be >= 0", Code: "invalid_input"}},
		{"not built", ErrIndexNotBuilt, http.StatusServiceUnavailable, Body{Error: "index not built", Code: "index_not_built"}},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, Body{Error: "rate limit exceeded", Code: "rate_limited"}},
		{"unauthorized wrapped", fmt.Errorf("expired key: %w", ErrUnauthorized), http.StatusUnauthorized, Body{Error: "unauthorized", Code: "unauthorized"}},
		{"unclassified hides text", fmt.Errorf("dial tcp: secret-host"), http.StatusInternalServerError, Body{Error: "internal error", Code: "internal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Response(tt.err)
			if status != tt.wantStatus || body != tt.wantBody {
				t.Errorf("Response = %d %+v, want %d %+v", status, body, tt.wantStatus, tt.wantBody)
			}
		})
	}
}
