package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration coverage for the Postgres store. Runs only when
// MGL_TEST_DATABASE_URL points at a disposable database.

func newIntegrationStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("MGL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MGL_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	schema := fmt.Sprintf("mgl_test_%d", time.Now().UnixNano())
	ddl := fmt.Sprintf(`
		CREATE SCHEMA %[1]q;
		CREATE TABLE %[1]q.refresh_sessions (
			sid                 text PRIMARY KEY,
			user_id             text NOT NULL,
			refresh_fingerprint text NOT NULL,
			created_at          timestamptz NOT NULL,
			last_used_at        timestamptz NOT NULL,
			expires_at          timestamptz NOT NULL,
			revoked_at          timestamptz,
			replaced_by_sid     text
		);
		CREATE INDEX ON %[1]q.refresh_sessions (user_id);
		CREATE INDEX ON %[1]q.refresh_sessions (expires_at);`, schema)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA %q CASCADE", schema))
	})

	s, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	return s
}

func TestPostgresStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newIntegrationStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Create(ctx, now, "sid-1", "u-1", "fp-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	row, err := s.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row.UserID != "u-1" || !row.Active(now) {
		t.Fatalf("row = %+v", row)
	}

	if err := s.Revoke(ctx, now.Add(time.Minute), "sid-1", "sid-2"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	row, _ = s.Get(ctx, "sid-1")
	if row.RevokedAt == nil || row.ReplacedBy == nil || *row.ReplacedBy != "sid-2" {
		t.Fatalf("revocation not recorded: %+v", row)
	}
	if err := s.Revoke(ctx, now, "sid-1", "sid-3"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("double revoke err = %v", err)
	}

	if err := s.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "sid-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestPostgresStoreSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sweepStoreMatrix(t, ctx, newIntegrationStore(t), now, 24*time.Hour)
}
