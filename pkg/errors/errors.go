// Package errors defines the sentinel errors shared by the services and
// maps them onto HTTP responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrIndexNotBuilt       = errors.New("index not built")
	ErrInvalidInput        = errors.New("invalid input")
	ErrIdempotencyConflict = errors.New("idempotency key already used")
	ErrUnavailable         = errors.New("dependency unavailable")
	ErrInternal            = errors.New("internal error")
	ErrTimeout             = errors.New("operation timed out")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrRateLimited         = errors.New("rate limit exceeded")
)

type kind struct {
	sentinel error
	status   int
	code     string
}

// kinds is checked in order; the first sentinel matched by errors.Is wins.
var kinds = []kind{
	{ErrDocumentNotFound, http.StatusNotFound, "not_found"},
	{ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{ErrIdempotencyConflict, http.StatusConflict, "conflict"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{ErrIndexNotBuilt, http.StatusServiceUnavailable, "index_not_built"},
	{ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
	{ErrTimeout, http.StatusServiceUnavailable, "timeout"},
	{ErrInternal, http.StatusInternalServerError, "internal"},
}

// AppError attaches a client-facing message and status to a sentinel.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return New(sentinel, statusCode, fmt.Sprintf(format, args...))
}

// HTTPStatusCode maps err to a response status. An AppError carries its own
// status; bare sentinels are mapped by kind.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	if k, ok := kindOf(err); ok {
		return k.status
	}
	return http.StatusInternalServerError
}

// Body is the JSON error payload written by the HTTP handlers.
type Body struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Response returns the status and payload for err. Unclassified errors are
// reported as internal without exposing their text.
func Response(err error) (int, Body) {
	status := HTTPStatusCode(err)
	body := Body{Error: "internal error", Code: "internal"}
	if k, ok := kindOf(err); ok {
		body.Error, body.Code = k.sentinel.Error(), k.code
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
	}
	return status, body
}

func kindOf(err error) (kind, bool) {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k, true
		}
	}
	return kind{}, false
}
