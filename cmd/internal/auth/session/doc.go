// Package session implements the refresh-session lifecycle: issuing signed
// credential pairs, rotating refresh credentials with a short grace window
// for benign concurrent refreshes, and sweeping dead rows on a schedule.
//
// Sessions move through three states. An ACTIVE row backs exactly one valid
// refresh credential. Rotation creates a successor row and marks the
// predecessor REVOKED with a forward link to the successor, so a stolen
// credential presented later is recognizable as a replay. Revoked and
// expired rows are deleted once they outlive the retention window.
//
// Nothing in this package reads the wall clock on the request path; callers
// pass time explicitly.
package session
