package session

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the subsystem's Prometheus collectors. Construct one per
// process with NewMetrics and share it; registration happens against the
// Registerer the caller supplies, never a package-level default.
type Metrics struct {
	RotationsTotal      prometheus.Counter
	GraceReplaysTotal   prometheus.Counter
	RevokedReplaysTotal prometheus.Counter
	LoginsTotal         prometheus.Counter
	SweepDeletedTotal   prometheus.Counter
	ActiveSessions      prometheus.Gauge
	SweepDuration       prometheus.Histogram
}

// NewMetrics builds and registers the session collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RotationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mgl", Subsystem: "session",
			Name: "rotations_total",
			Help: "Successful refresh-token rotations.",
		}),
		GraceReplaysTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mgl", Subsystem: "session",
			Name: "grace_replays_total",
			Help: "Revoked-token replays resolved inside the rotation grace window.",
		}),
		RevokedReplaysTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mgl", Subsystem: "session",
			Name: "revoked_replays_total",
			Help: "Revoked-token replays outside the grace window (possible theft).",
		}),
		LoginsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mgl", Subsystem: "session",
			Name: "logins_total",
			Help: "Sessions created by login.",
		}),
		SweepDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mgl", Subsystem: "session",
			Name: "sweep_deleted_total",
			Help: "Session rows removed by the cleanup sweeper.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mgl", Subsystem: "session",
			Name: "active_sessions",
			Help: "Active sessions observed by the most recent sweep.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mgl", Subsystem: "session",
			Name:    "sweep_duration_seconds",
			Help:    "Duration of cleanup sweeps.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RotationsTotal,
			m.GraceReplaysTotal,
			m.RevokedReplaysTotal,
			m.LoginsTotal,
			m.SweepDeletedTotal,
			m.ActiveSessions,
			m.SweepDuration,
		)
	}
	return m
}
