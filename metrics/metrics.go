package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckInsClassified counts classified check-ins.
	// Labels: state (stable/mild_stress/high_stress/burnout_risk)
	CheckInsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindset_check_ins_classified_total",
			Help: "Total number of check-ins classified by resulting mental state",
		},
		[]string{"state"},
	)

	// SessionsApplied counts progression updates that were written.
	// Labels: activity (breathing/yoga/meditation)
	SessionsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindset_sessions_applied_total",
			Help: "Total number of completed sessions applied to progression state",
		},
		[]string{"activity"},
	)

	// ProgressionConflicts counts lost compare-and-swap races.
	ProgressionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mindset_progression_conflicts_total",
			Help: "Total number of progression writes retried after a version conflict",
		},
	)

	// ProgressionFailures counts updates that gave up.
	// Labels: reason (conflict/storage)
	ProgressionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindset_progression_failures_total",
			Help: "Total number of progression updates that could not be written",
		},
		[]string{"reason"},
	)

	// SessionJobsPending tracks session jobs waiting in the queue.
	SessionJobsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindset_session_jobs_pending",
			Help: "Number of completed-session jobs waiting for a progression update",
		},
	)
)

// RecordCheckIn counts a classified check-in by state key.
func RecordCheckIn(state string) {
	CheckInsClassified.WithLabelValues(state).Inc()
}

// RecordSessionApplied counts a written progression update.
func RecordSessionApplied(activity string) {
	SessionsApplied.WithLabelValues(activity).Inc()
}

func RecordConflict() {
	ProgressionConflicts.Inc()
}

func RecordFailure(reason string) {
	ProgressionFailures.WithLabelValues(reason).Inc()
}

func SetPendingJobs(n int64) {
	SessionJobsPending.Set(float64(n))
}
