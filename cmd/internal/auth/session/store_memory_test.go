package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Create(ctx, now, "sid-1", "u-1", "fp-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	row, err := s.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !row.Active(now) {
		t.Fatalf("row not active: %+v", row)
	}

	if err := s.Touch(ctx, now.Add(time.Minute), "sid-1"); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	row, _ = s.Get(ctx, "sid-1")
	if !row.LastUsedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("LastUsedAt = %v", row.LastUsedAt)
	}

	if err := s.Revoke(ctx, now.Add(2*time.Minute), "sid-1", "sid-2"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	row, _ = s.Get(ctx, "sid-1")
	if row.RevokedAt == nil || row.ReplacedBy == nil || *row.ReplacedBy != "sid-2" {
		t.Fatalf("revocation not recorded: %+v", row)
	}
	if row.Active(now.Add(2 * time.Minute)) {
		t.Fatal("revoked row still active")
	}

	// Re-revoking a revoked row is a not-found.
	if err := s.Revoke(ctx, now, "sid-1", "sid-3"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("double revoke err = %v", err)
	}

	if err := s.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("repeat Delete: %v", err)
	}
	if _, err := s.Get(ctx, "sid-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestMemoryStoreCounts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = s.Create(ctx, now, "a1", "u-a", "fp", now.Add(time.Hour))
	_ = s.Create(ctx, now, "a2", "u-a", "fp", now.Add(time.Hour))
	_ = s.Create(ctx, now, "b1", "u-b", "fp", now.Add(time.Hour))
	_ = s.Create(ctx, now, "b2", "u-b", "fp", now.Add(-time.Minute)) // already expired
	_ = s.Revoke(ctx, now, "a2", "a3")

	if n, _ := s.CountActive(ctx, now); n != 2 {
		t.Fatalf("CountActive = %d, want 2", n)
	}
	if n, _ := s.CountActiveForUser(ctx, now, "u-a"); n != 1 {
		t.Fatalf("CountActiveForUser(u-a) = %d, want 1", n)
	}
	if n, _ := s.CountActiveForUser(ctx, now, "u-b"); n != 1 {
		t.Fatalf("CountActiveForUser(u-b) = %d, want 1", n)
	}

	n, err := s.DeleteAllForUser(ctx, "u-a")
	if err != nil || n != 2 {
		t.Fatalf("DeleteAllForUser = %d, %v", n, err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	retention := 24 * time.Hour
	sweepStoreMatrix(t, ctx, NewMemoryStore(), now, retention)
}

// sweepStoreMatrix seeds one row per lifecycle corner and checks the sweep
// removes exactly the rows whose terminal state outlived retention.
func sweepStoreMatrix(t *testing.T, ctx context.Context, s Store, now time.Time, retention time.Duration) {
	t.Helper()

	// Active, untouched regardless of age.
	if err := s.Create(ctx, now.Add(-100*time.Hour), "active", "u", "fp", now.Add(time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Revoked recently: retained.
	_ = s.Create(ctx, now.Add(-time.Hour), "revoked-young", "u", "fp", now.Add(time.Hour))
	_ = s.Revoke(ctx, now.Add(-time.Hour), "revoked-young", "x")

	// Revoked beyond retention: deleted.
	_ = s.Create(ctx, now.Add(-50*time.Hour), "revoked-old", "u", "fp", now.Add(time.Hour))
	_ = s.Revoke(ctx, now.Add(-30*time.Hour), "revoked-old", "x")

	// Expired recently: retained.
	_ = s.Create(ctx, now.Add(-2*time.Hour), "expired-young", "u", "fp", now.Add(-time.Hour))

	// Expired beyond retention: deleted.
	_ = s.Create(ctx, now.Add(-60*time.Hour), "expired-old", "u", "fp", now.Add(-30*time.Hour))

	n, err := s.Sweep(ctx, now, retention)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("swept %d rows, want 2", n)
	}

	for _, sid := range []string{"active", "revoked-young", "expired-young"} {
		if _, err := s.Get(ctx, sid); err != nil {
			t.Fatalf("%s should survive sweep: %v", sid, err)
		}
	}
	for _, sid := range []string{"revoked-old", "expired-old"} {
		if _, err := s.Get(ctx, sid); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("%s should be swept: %v", sid, err)
		}
	}
}
