package session

import (
	"os"
	"strings"
	"time"

	"mgltickets/cmd/security/token"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls token lifetimes, the rotation grace window, sweep retention and
// cadence, and the process-wide signing key. The struct is intentionally
// explicit and environment-driven so production deployments can tune security
// parameters without code changes.
type Config struct {
	// Issuer is the value set in the "iss" claim of issued tokens.
	Issuer string

	// AccessTTL is the lifetime of access tokens.
	AccessTTL time.Duration

	// RefreshTTL is the lifetime of refresh tokens and their session rows.
	RefreshTTL time.Duration

	// GraceWindow bounds how long after revocation a rotated-away refresh
	// token is still tolerated, to absorb benign concurrent retries. This is
	// a tunable security parameter; widening it extends the replay surface.
	GraceWindow time.Duration

	// SweepRetention is how long expired/revoked rows are retained before the
	// cleanup job deletes them.
	SweepRetention time.Duration

	// SweepSchedule is the cron expression for the recurring cleanup job.
	SweepSchedule string

	// SigningKey signs token claims (HS256) and keys refresh fingerprints.
	// Immutable after startup; minimum 32 bytes.
	SigningKey string
}

// DefaultConfig returns a secure default configuration suitable for development.
//
// Production environments should override values via environment variables.
func DefaultConfig() Config {
	return Config{
		Issuer:         "mgltickets",
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     7 * 24 * time.Hour,
		GraceWindow:    5 * time.Second,
		SweepRetention: 24 * time.Hour,
		SweepSchedule:  "0 3 * * *",
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - MGL_AUTH_SIGNING_KEY (>= 32 bytes)
//
// Optional (durations must be valid Go duration strings):
//   - MGL_AUTH_ISSUER
//   - MGL_AUTH_ACCESS_TTL
//   - MGL_AUTH_REFRESH_TTL
//   - MGL_AUTH_ROTATION_GRACE
//   - MGL_AUTH_SWEEP_RETENTION
//   - MGL_AUTH_SWEEP_SCHEDULE (cron expression)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("MGL_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("MGL_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTTL = d
	}

	if v := os.Getenv("MGL_AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTTL = d
	}

	if v := os.Getenv("MGL_AUTH_ROTATION_GRACE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.GraceWindow = d
	}

	if v := os.Getenv("MGL_AUTH_SWEEP_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.SweepRetention = d
	}

	if v := strings.TrimSpace(os.Getenv("MGL_AUTH_SWEEP_SCHEDULE")); v != "" {
		cfg.SweepSchedule = v
	}

	cfg.SigningKey = strings.TrimSpace(os.Getenv("MGL_AUTH_SIGNING_KEY"))
	if len(cfg.SigningKey) < token.MinKeyBytes {
		return Config{}, ErrConfig
	}

	// Invariants: tokens must outlive the grace window, refresh must outlive access.
	if cfg.RefreshTTL < cfg.AccessTTL {
		return Config{}, ErrConfig
	}
	if cfg.GraceWindow >= cfg.AccessTTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
