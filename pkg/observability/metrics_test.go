package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base(variant string) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), SessionID: "s1", Variant: variant}
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStepEnter(ctx, &domain.StepEvent{EventBase: base("manual"), StepID: domain.StepClientDetails})
	hooks.OnStepEnter(ctx, &domain.StepEvent{EventBase: base("manual"), StepID: domain.StepClientDetails})
	hooks.OnTransitionBlocked(ctx, &domain.BlockedEvent{EventBase: base("manual"), Gate: domain.ValidationResult{StepID: domain.StepClaimInfo}})
	hooks.OnCheckpointSaved(ctx, &domain.CheckpointEvent{EventBase: base("manual"), Duration: 5 * time.Millisecond})
	hooks.OnCheckpointFailed(ctx, &domain.CheckpointEvent{EventBase: base("manual"), Err: errors.New("down")})
	hooks.OnSubmitted(ctx, &domain.SubmitEvent{EventBase: base("ai-assisted"), ClaimID: "c1"})
	hooks.OnSubmitted(ctx, &domain.SubmitEvent{EventBase: base("ai-assisted"), Err: errors.New("502")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepEnters.WithLabelValues("manual", domain.StepClientDetails)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Blocked.WithLabelValues("manual", domain.StepClaimInfo)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkpoints.WithLabelValues("manual", "saved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkpoints.WithLabelValues("manual", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("ai-assisted", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("ai-assisted", "failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CheckpointDelay))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger)
	ctx := context.Background()

	hooks.OnTransitionBlocked(ctx, &domain.BlockedEvent{EventBase: base("manual"), From: 0, Target: 1, Gate: domain.ValidationResult{StepID: domain.StepClientDetails}})
	hooks.OnSubmitted(ctx, &domain.SubmitEvent{EventBase: base("manual"), ClaimID: "claim-7"})

	out := buf.String()
	assert.Contains(t, out, "transition_blocked")
	assert.Contains(t, out, "gate=client-details")
	assert.Contains(t, out, "claim_id=claim-7")
}
