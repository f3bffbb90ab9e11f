package models

import (
	"context"
	"errors"
)

// Failure taxonomy shared by providers, fetchers and the debate flow.
// Transport, rate-limit and invalid-payload failures are retried with the same
// backoff budget; only ErrAllSourcesUnavailable reaches API callers.
var (
	ErrTransport             = errors.New("transport error")
	ErrRateLimited           = errors.New("rate limited")
	ErrInvalidPayload        = errors.New("invalid payload")
	ErrAllSourcesUnavailable = errors.New("all sources unavailable")

	// ErrNotConfigured is returned by a provider with no credentials; never retried.
	ErrNotConfigured = errors.New("provider not configured")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
)

// FailureKind returns a short label for err, used for metrics and unavailable reasons.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrAllSourcesUnavailable):
		return "all_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport"
	}
}
