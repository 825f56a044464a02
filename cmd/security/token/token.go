package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// MinKeyBytes is the minimum accepted fingerprint key length.
// HMAC-SHA256 keys below 32 bytes weaken the construction.
const MinKeyBytes = 32

// Key is the process-wide fingerprint key. It is loaded once at startup and
// passed by reference to every component that derives or checks fingerprints;
// it is never mutated afterwards.
type Key []byte

// NewKey validates raw key material and returns a Key.
// English comment:
// - We measure bytes (not runes) because the key is used as raw bytes.
func NewKey(raw []byte) (Key, error) {
	if len(raw) == 0 {
		return nil, ErrKeyMissing
	}
	if len(raw) < MinKeyBytes {
		return nil, ErrKeyTooShort
	}
	k := make(Key, len(raw))
	copy(k, raw)
	return k, nil
}

// Fingerprint returns the HMAC-SHA256 hex digest of secret under k.
// Stable 64-char lowercase hex output, safe to store and index.
// The raw secret must never be persisted.
func (k Key) Fingerprint(secret string) string {
	m := hmac.New(sha256.New, k)
	_, _ = m.Write([]byte(secret))
	return hex.EncodeToString(m.Sum(nil))
}

// Matches recomputes the fingerprint of secret and compares it to digest in
// constant time.
func (k Key) Matches(secret, digest string) bool {
	got, err := hex.DecodeString(k.Fingerprint(secret))
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}
	return hmac.Equal(got, want)
}
