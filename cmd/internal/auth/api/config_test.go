package authapi

import (
	"net/http"
	"testing"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	cfg := LoadConfigFromEnv()

	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("MaxBodyBytes = %d", cfg.MaxBodyBytes)
	}
	if cfg.RefreshCookieName != "refresh_token" || cfg.CookiePath != "/auth" {
		t.Fatalf("cookie defaults = %q / %q", cfg.RefreshCookieName, cfg.CookiePath)
	}
	if !cfg.CookieSecure || cfg.CookieSameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie security defaults = %v / %v", cfg.CookieSecure, cfg.CookieSameSite)
	}
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("MGL_AUTH_MAX_BODY_BYTES", "2048")
	t.Setenv("MGL_AUTH_REFRESH_COOKIE_NAME", "rt")
	t.Setenv("MGL_AUTH_COOKIE_PATH", "/api/auth")
	t.Setenv("MGL_AUTH_COOKIE_SECURE", "false")
	t.Setenv("MGL_AUTH_COOKIE_SAMESITE", "strict")

	cfg := LoadConfigFromEnv()
	if cfg.MaxBodyBytes != 2048 || cfg.RefreshCookieName != "rt" ||
		cfg.CookiePath != "/api/auth" || cfg.CookieSecure ||
		cfg.CookieSameSite != http.SameSiteStrictMode {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadConfigFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("MGL_AUTH_MAX_BODY_BYTES", "not-a-number")
	t.Setenv("MGL_AUTH_COOKIE_SECURE", "maybe")
	t.Setenv("MGL_AUTH_COOKIE_SAMESITE", "diagonal")

	cfg := LoadConfigFromEnv()
	if cfg.MaxBodyBytes != 1<<20 || !cfg.CookieSecure || cfg.CookieSameSite != http.SameSiteLaxMode {
		t.Fatalf("cfg = %+v", cfg)
	}
}
