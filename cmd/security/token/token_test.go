package token

import (
	"strings"
	"testing"
)

func testKey(t *testing.T) Key {
	t.Helper()
	k, err := NewKey([]byte(strings.Repeat("k", 32)))
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	return k
}

func TestNewKey_Validation(t *testing.T) {
	if _, err := NewKey(nil); err != ErrKeyMissing {
		t.Fatalf("expected ErrKeyMissing, got %v", err)
	}
	if _, err := NewKey([]byte("short")); err != ErrKeyTooShort {
		t.Fatalf("expected ErrKeyTooShort, got %v", err)
	}
	if _, err := NewKey([]byte(strings.Repeat("x", 32))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFingerprint_DeterministicFixedLength(t *testing.T) {
	k := testKey(t)

	a := k.Fingerprint("secret-a")
	b := k.Fingerprint("secret-a")
	if a != b {
		t.Fatalf("fingerprint not deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("fingerprint length = %d, want 64", len(a))
	}
	if a == "secret-a" || strings.Contains(a, "secret-a") {
		t.Fatalf("fingerprint leaks the raw secret")
	}
}

func TestFingerprint_KeyedDigestsDiffer(t *testing.T) {
	k1 := testKey(t)
	k2, err := NewKey([]byte(strings.Repeat("q", 32)))
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	if k1.Fingerprint("same-secret") == k2.Fingerprint("same-secret") {
		t.Fatalf("digests under different keys must differ")
	}
}

func TestMatches(t *testing.T) {
	k := testKey(t)

	digest := k.Fingerprint("secret-a")
	if !k.Matches("secret-a", digest) {
		t.Fatalf("Matches(a, fp(a)) = false, want true")
	}
	if k.Matches("secret-b", digest) {
		t.Fatalf("Matches(b, fp(a)) = true, want false")
	}
	if k.Matches("secret-a", "not-hex") {
		t.Fatalf("Matches against malformed digest must be false")
	}
}
