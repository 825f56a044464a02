package session

import (
	"context"
	"testing"
	"time"
)

func TestSweeperRun(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)

	_ = store.Create(ctx, now.Add(-time.Hour), "keep", "u", "fp", now.Add(time.Hour))
	_ = store.Create(ctx, now.Add(-60*time.Hour), "drop", "u", "fp", now.Add(-30*time.Hour))

	w, err := NewSweeper(store, testConfig(), nil, NewMetrics(nil))
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}

	res, err := w.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Deleted != 1 {
		t.Fatalf("Deleted = %d, want 1", res.Deleted)
	}
	if res.Active != 1 {
		t.Fatalf("Active = %d, want 1", res.Active)
	}

	// A second pass finds nothing left to do.
	res, err = w.Run(ctx, now)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Deleted != 0 || res.Active != 1 {
		t.Fatalf("second pass = %+v", res)
	}
}

func TestSweeperRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SweepRetention = 0
	if _, err := NewSweeper(NewMemoryStore(), cfg, nil, nil); err == nil {
		t.Fatal("expected error for zero retention")
	}

	cfg = testConfig()
	cfg.SweepSchedule = ""
	if _, err := NewSweeper(NewMemoryStore(), cfg, nil, nil); err == nil {
		t.Fatal("expected error for empty schedule")
	}
}

func TestSweeperStartStopsOnContext(t *testing.T) {
	w, err := NewSweeper(NewMemoryStore(), testConfig(), nil, NewMetrics(nil))
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Start returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
