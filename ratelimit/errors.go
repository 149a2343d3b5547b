package ratelimit

import "errors"

// Sentinel errors for rate limiting.
var (
	// ErrRateLimited is returned by Execute when the limit is reached.
	ErrRateLimited = errors.New("ratelimit: rate limit exceeded")

	// ErrNoSubject is returned when a token carries no subject claim to
	// key the limiter by.
	ErrNoSubject = errors.New("ratelimit: token has no subject")
)
