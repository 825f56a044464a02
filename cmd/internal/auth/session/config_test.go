package session

import (
	"errors"
	"testing"
	"time"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("MGL_AUTH_SIGNING_KEY", testSigningKey)

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Issuer != "mgltickets" {
		t.Fatalf("Issuer = %q", cfg.Issuer)
	}
	if cfg.AccessTTL != 15*time.Minute || cfg.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("TTLs = %v / %v", cfg.AccessTTL, cfg.RefreshTTL)
	}
	if cfg.GraceWindow != 5*time.Second {
		t.Fatalf("GraceWindow = %v", cfg.GraceWindow)
	}
	if cfg.SweepRetention != 24*time.Hour || cfg.SweepSchedule != "0 3 * * *" {
		t.Fatalf("sweep = %v / %q", cfg.SweepRetention, cfg.SweepSchedule)
	}
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("MGL_AUTH_SIGNING_KEY", testSigningKey)
	t.Setenv("MGL_AUTH_ISSUER", "staging")
	t.Setenv("MGL_AUTH_ACCESS_TTL", "5m")
	t.Setenv("MGL_AUTH_REFRESH_TTL", "48h")
	t.Setenv("MGL_AUTH_ROTATION_GRACE", "2s")
	t.Setenv("MGL_AUTH_SWEEP_RETENTION", "72h")
	t.Setenv("MGL_AUTH_SWEEP_SCHEDULE", "30 4 * * *")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Issuer != "staging" || cfg.AccessTTL != 5*time.Minute ||
		cfg.RefreshTTL != 48*time.Hour || cfg.GraceWindow != 2*time.Second ||
		cfg.SweepRetention != 72*time.Hour || cfg.SweepSchedule != "30 4 * * *" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadConfigFromEnvRejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing key", map[string]string{"MGL_AUTH_SIGNING_KEY": ""}},
		{"short key", map[string]string{"MGL_AUTH_SIGNING_KEY": "too-short"}},
		{"bad duration", map[string]string{
			"MGL_AUTH_SIGNING_KEY": testSigningKey,
			"MGL_AUTH_ACCESS_TTL":  "fifteen minutes",
		}},
		{"refresh shorter than access", map[string]string{
			"MGL_AUTH_SIGNING_KEY": testSigningKey,
			"MGL_AUTH_ACCESS_TTL":  "1h",
			"MGL_AUTH_REFRESH_TTL": "30m",
		}},
		{"grace not below access ttl", map[string]string{
			"MGL_AUTH_SIGNING_KEY":    testSigningKey,
			"MGL_AUTH_ACCESS_TTL":     "5s",
			"MGL_AUTH_ROTATION_GRACE": "5s",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
				t.Fatalf("err = %v, want ErrConfig", err)
			}
		})
	}
}
