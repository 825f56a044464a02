package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisAddr string

	// SessionBackend selects session persistence: "auto", "postgres",
	// "redis", or "memory". "auto" prefers Postgres, then Redis, then memory.
	SessionBackend string

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool

	// If true, the sweeper does not run in this process. Useful when a
	// dedicated instance owns cleanup in a multi-replica deployment.
	SweeperDisabled bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("MGL_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("MGL_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("MGL_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("MGL_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("MGL_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("MGL_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("MGL_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("MGL_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("MGL_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("MGL_DB_MIN_CONNS", 0),

		RedisAddr: EnvString("MGL_REDIS_ADDR", ""),

		SessionBackend: EnvString("MGL_SESSION_BACKEND", "auto"),

		ReadinessRequireDB: EnvBool("MGL_READINESS_REQUIRE_DB", false),
		SweeperDisabled:    EnvBool("MGL_SWEEPER_DISABLED", false),
	}
}
