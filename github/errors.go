package github

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("rate limited")
	ErrNotFound     = errors.New("not found")
	ErrNetwork      = errors.New("network error")
	ErrParse        = errors.New("parse error")
)

// UnauthorizedError means the credential is bad or expired. Never retried.
type UnauthorizedError struct {
	Endpoint string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Endpoint)
}

func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// ForbiddenError means the token lacks the required scope. Never retried.
type ForbiddenError struct {
	Endpoint string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Endpoint)
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// RateLimitedError carries the time at which the quota window resets.
type RateLimitedError struct {
	Endpoint string
	ResetAt  time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: %s (resets at %s)", e.Endpoint, e.ResetAt.Format(time.RFC3339))
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

type NotFoundError struct {
	Endpoint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Endpoint)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NetworkError covers transient failures: unexpected status codes,
// timeouts, oversized responses, transport errors.
type NetworkError struct {
	Endpoint   string
	StatusCode int
	Reason     string
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error: %s (status %d)", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("network error: %s (%s)", e.Endpoint, e.Reason)
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

type ParseError struct {
	Endpoint string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s (%s)", e.Endpoint, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Retryable reports whether the paginated fetcher may retry after this
// failure. Auth, scope, missing-resource and malformed-body failures
// propagate immediately.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrRateLimited)
}
