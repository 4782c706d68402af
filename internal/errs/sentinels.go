// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across transport/service/store layers.
var (
	// ErrNotFound indicates the requested entity or stored key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication (wrong credentials, bad token).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired indicates the refresh flow failed and the session was torn down.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoRefreshToken indicates a refresh was attempted without a stored refresh token.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrTimeout indicates the request exceeded the transport deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrValidation indicates the server rejected the payload with field errors.
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited indicates the server throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrCSRF indicates a CSRF token mismatch that survived a token refetch.
	ErrCSRF = errors.New("csrf token mismatch")
)
