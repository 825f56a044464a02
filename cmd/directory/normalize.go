package directory

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// Lookups and uniqueness both go through the normalized form.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
