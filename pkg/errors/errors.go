package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInternalServer   = errors.New("internal server error")
)

// RateLimitError is the expected rejection path of the rate limiter. It
// carries the effective limit and the attempt number so callers can back off.
type RateLimitError struct {
	Operation string `json:"operation"`
	Limit     int    `json:"limit"`
	Attempts  int    `json:"attempts"`
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: limit %d, attempt %d", e.Operation, e.Limit, e.Attempts)
}

func NewRateLimitError(operation string, limit, attempts int) *RateLimitError {
	return &RateLimitError{Operation: operation, Limit: limit, Attempts: attempts}
}

func HTTPStatusFromError(err error) int {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return http.StatusTooManyRequests
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
