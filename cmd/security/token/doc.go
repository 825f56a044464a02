// Package token provides refresh-secret fingerprint primitives.
//
// It is the single source of truth for how refresh secrets are reduced to
// storable digests:
//   - Fingerprint: keyed HMAC-SHA256, hex-encoded (64 chars).
//   - Matches: constant-time comparison against a stored digest.
//
// The key is explicit, injected configuration. Nothing in this package reads
// the environment or holds mutable state, so a single Key value can be shared
// by every concurrent operation in the process.
package token
