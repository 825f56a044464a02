package directory

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	enc, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(enc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %q", enc)
	}

	ok, err := VerifyPassword("correct horse battery staple", enc)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword(match) = (%v, %v)", ok, err)
	}

	ok, err = VerifyPassword("wrong password", enc)
	if err != nil {
		t.Fatalf("VerifyPassword(mismatch) err: %v", err)
	}
	if ok {
		t.Fatalf("mismatching password verified")
	}
}

func TestHashPassword_TooShort(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("short"); err != ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"plainly-not-a-hash",
		"$argon2i$v=19$m=65536,t=2,p=2$c2FsdHNhbHQ$AAAA",           // wrong variant
		"$argon2id$v=18$m=65536,t=2,p=2$c2FsdHNhbHQ$AAAA",          // wrong version
		"$argon2id$v=19$m=99999999,t=2,p=2$c2FsdHNhbHRzYWx0c2FsdA$" + strings.Repeat("A", 43), // absurd memory
	}
	for _, enc := range cases {
		if ok, err := VerifyPassword("whatever-password", enc); ok || err == nil {
			t.Fatalf("VerifyPassword(%q) = (%v, %v), want (false, error)", enc, ok, err)
		}
	}
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password are identical; salt missing")
	}
}
