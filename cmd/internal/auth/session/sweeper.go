package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// SweepResult reports one cleanup pass over the session table.
type SweepResult struct {
	Deleted int `json:"deleted_count"`
	Active  int `json:"active_sessions"`
}

// Sweeper removes session rows whose terminal state has outlived the
// retention window. It runs on a cron schedule (03:00 daily by default)
// and can also be invoked on demand by an operator.
type Sweeper struct {
	store     Store
	retention time.Duration
	schedule  string
	logger    *slog.Logger
	metrics   *Metrics
}

// NewSweeper wires a sweeper over the session store.
func NewSweeper(store Store, cfg Config, logger *slog.Logger, metrics *Metrics) (*Sweeper, error) {
	if store == nil || cfg.SweepRetention <= 0 || cfg.SweepSchedule == "" {
		return nil, ErrConfig
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Sweeper{
		store:     store,
		retention: cfg.SweepRetention,
		schedule:  cfg.SweepSchedule,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Run performs one sweep at the given time and reports what it did.
func (w *Sweeper) Run(ctx context.Context, now time.Time) (SweepResult, error) {
	return w.RunWithRetention(ctx, now, w.retention)
}

// RunWithRetention sweeps with an explicit retention window. Operators use
// this for manual cleanups at a cutoff other than the configured one.
func (w *Sweeper) RunWithRetention(ctx context.Context, now time.Time, retention time.Duration) (SweepResult, error) {
	runID := uuid.New().String()
	started := time.Now()

	deleted, err := w.store.Sweep(ctx, now, retention)
	if err != nil {
		w.logger.ErrorContext(ctx, "session sweep failed", "run_id", runID, "error", err)
		return SweepResult{}, err
	}
	active, err := w.store.CountActive(ctx, now)
	if err != nil {
		w.logger.ErrorContext(ctx, "session census failed", "run_id", runID, "error", err)
		return SweepResult{}, err
	}

	w.metrics.SweepDeletedTotal.Add(float64(deleted))
	w.metrics.ActiveSessions.Set(float64(active))
	w.metrics.SweepDuration.Observe(time.Since(started).Seconds())

	w.logger.InfoContext(ctx, "session sweep complete",
		"run_id", runID, "deleted", deleted, "active", active)
	return SweepResult{Deleted: deleted, Active: active}, nil
}

// Start schedules recurring sweeps and blocks until ctx is done. Errors from
// individual runs are logged, not fatal: the next tick gets another chance.
func (w *Sweeper) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(w.schedule, func() {
		// Run already logs failures.
		_, _ = w.Run(ctx, time.Now())
	})
	if err != nil {
		return err
	}

	c.Start()
	w.logger.InfoContext(ctx, "session sweeper started", "schedule", w.schedule)

	<-ctx.Done()
	stop := c.Stop()
	<-stop.Done()
	w.logger.InfoContext(ctx, "session sweeper stopped")
	return ctx.Err()
}
