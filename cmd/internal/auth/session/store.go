package session

import (
	"context"
	"time"
)

// Row mirrors the refresh_sessions row used by the session subsystem.
//
// A row is in exactly one of three logical states:
//   - ACTIVE:  RevokedAt nil, ExpiresAt in the future
//   - REVOKED: RevokedAt set, retained for the grace/forensics window
//   - gone:    deleted (logout, expiry discovery, or sweep)
type Row struct {
	SessionID          string
	UserID             string
	RefreshFingerprint string
	CreatedAt          time.Time
	LastUsedAt         time.Time
	ExpiresAt          time.Time
	RevokedAt          *time.Time
	ReplacedBy         *string
}

// Active reports whether the row is usable for rotation at the given time.
func (r Row) Active(now time.Time) bool {
	return r.RevokedAt == nil && r.ExpiresAt.After(now)
}

// Store abstracts persistence for session state.
//
// All implementations take `now` explicitly so callers own the clock; the
// subsystem never reads wall time behind a caller's back.
type Store interface {
	// Create inserts a new ACTIVE session row. SessionID must be unused.
	Create(ctx context.Context, now time.Time, sessionID, userID, fingerprint string, expiresAt time.Time) error

	// Get loads a session row, or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (Row, error)

	// Revoke marks the row revoked and links its successor. The successor row
	// must already exist (create-then-revoke ordering). ErrSessionNotFound if
	// the row is absent.
	Revoke(ctx context.Context, now time.Time, sessionID, replacedBy string) error

	// Touch updates last_used_at (best-effort bookkeeping).
	Touch(ctx context.Context, now time.Time, sessionID string) error

	// Delete removes a session row. Idempotent: absent rows are not an error.
	Delete(ctx context.Context, sessionID string) error

	// DeleteAllForUser removes every session row owned by userID and returns
	// how many were deleted.
	DeleteAllForUser(ctx context.Context, userID string) (int, error)

	// CountActive counts rows with revoked_at null and expires_at > now.
	CountActive(ctx context.Context, now time.Time) (int, error)

	// CountActiveForUser is CountActive scoped to one user.
	CountActiveForUser(ctx context.Context, now time.Time, userID string) (int, error)

	// Sweep deletes rows whose expires_at or revoked_at lies further in the
	// past than retention. ACTIVE rows are never touched regardless of age.
	// Returns the number of rows deleted.
	Sweep(ctx context.Context, now time.Time, retention time.Duration) (int, error)
}
