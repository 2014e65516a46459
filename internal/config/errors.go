package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Package-level sentinels so callers can use errors.Is while still
// getting a readable message.
var (
	// ErrNoBaseURL is returned when the catalog base URL is empty.
	ErrNoBaseURL = errors.New("no base URL configured")

	// ErrNoCookiePath is returned when no cookie bundle path is set.
	// The catalog requires an authenticated session for every page.
	ErrNoCookiePath = errors.New("no cookie file configured: the catalog requires a session cookie")

	// ErrInvalidTimeout is returned when the request timeout is not
	// positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when a politeness delay bound is
	// negative.
	ErrInvalidDelay = errors.New("invalid politeness delay: must be non-negative")

	// ErrDelayBoundsSwapped is returned when the maximum delay is below
	// the minimum.
	ErrDelayBoundsSwapped = errors.New("invalid politeness delay: max must not be below min")

	// ErrInvalidMaxBodySize is returned when the body size cap is
	// negative. Zero means the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
