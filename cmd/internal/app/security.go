package app

import (
	"errors"
	"os"
	"strings"

	"mgltickets/cmd/security/token"
)

// ValidateSecurityConfig enforces the signing-key policy at startup.
//
// Fail-fast is intentional: a server that boots with a missing or weak key
// would issue forgeable credentials. The key is measured in bytes, not runes,
// because it is consumed as raw HMAC key material.
func ValidateSecurityConfig() error {
	raw := strings.TrimSpace(os.Getenv("MGL_AUTH_SIGNING_KEY"))
	if _, err := token.NewKey([]byte(raw)); err != nil {
		switch {
		case errors.Is(err, token.ErrKeyMissing):
			return errors.New("security policy: MGL_AUTH_SIGNING_KEY is missing")
		case errors.Is(err, token.ErrKeyTooShort):
			return errors.New("security policy: MGL_AUTH_SIGNING_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}
	return nil
}
