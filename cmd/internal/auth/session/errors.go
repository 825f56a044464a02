package session

import "errors"

var (
	// ErrInvalidToken is returned when a credential fails signature or
	// structural verification, is expired, or is of the wrong kind.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized is returned when a decoded credential does not line up
	// with server-side state (missing session, user mismatch).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionNotFound is returned by stores when a session row is absent.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the session row's expiry has passed.
	// The row is deleted as a side effect of the refresh path.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionRevoked is returned when a rotated-away refresh credential is
	// replayed outside the grace window. Callers log it at elevated severity
	// as a possible reuse/theft signal.
	ErrSessionRevoked = errors.New("session revoked")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
