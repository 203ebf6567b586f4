package observability

import (
	"context"

	"github.com/claimdesk/intake/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the intake collectors.
type Metrics struct {
	StepEnters      *prometheus.CounterVec
	Blocked         *prometheus.CounterVec
	Checkpoints     *prometheus.CounterVec
	CheckpointDelay *prometheus.HistogramVec
	Submissions     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StepEnters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_step_enters_total",
			Help: "Number of times a wizard step became current.",
		}, []string{"variant", "step_id"}),
		Blocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_transitions_blocked_total",
			Help: "Forward transitions rejected by the validation gate, by blocking step.",
		}, []string{"variant", "step_id"}),
		Checkpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_checkpoint_writes_total",
			Help: "Checkpoint writes by outcome.",
		}, []string{"variant", "outcome"}),
		CheckpointDelay: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intake_checkpoint_write_duration_seconds",
			Help:    "Duration of checkpoint store writes.",
			Buckets: prometheus.DefBuckets,
		}, []string{"variant"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Claim submissions by outcome.",
		}, []string{"variant", "outcome"}),
	}

	for _, c := range []prometheus.Collector{m.StepEnters, m.Blocked, m.Checkpoints, m.CheckpointDelay, m.Submissions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepEnters.WithLabelValues(e.Variant, e.StepID).Inc()
		},
		OnTransitionBlocked: func(_ context.Context, e *domain.BlockedEvent) {
			m.Blocked.WithLabelValues(e.Variant, e.Gate.StepID).Inc()
		},
		OnCheckpointSaved: func(_ context.Context, e *domain.CheckpointEvent) {
			m.Checkpoints.WithLabelValues(e.Variant, "saved").Inc()
			m.CheckpointDelay.WithLabelValues(e.Variant).Observe(e.Duration.Seconds())
		},
		OnCheckpointFailed: func(_ context.Context, e *domain.CheckpointEvent) {
			m.Checkpoints.WithLabelValues(e.Variant, "failed").Inc()
			m.CheckpointDelay.WithLabelValues(e.Variant).Observe(e.Duration.Seconds())
		},
		OnSubmitted: func(_ context.Context, e *domain.SubmitEvent) {
			outcome := "success"
			if e.Err != nil {
				outcome = "failed"
			}
			m.Submissions.WithLabelValues(e.Variant, outcome).Inc()
		},
	}
}
