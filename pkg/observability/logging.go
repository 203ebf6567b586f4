package observability

import (
	"context"
	"log/slog"

	"github.com/claimdesk/intake/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, and failures at warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_enter", "session_id", e.SessionID, "step_id", e.StepID, "index", e.StepIndex)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "session_id", e.SessionID, "step_id", e.StepID)
		},
		OnTransitionBlocked: func(ctx context.Context, e *domain.BlockedEvent) {
			logger.DebugContext(ctx, "transition_blocked",
				"session_id", e.SessionID,
				"from", e.From,
				"target", e.Target,
				"gate", e.Gate.StepID,
				"errors", e.Gate.Errors,
			)
		},
		OnCheckpointFailed: func(ctx context.Context, e *domain.CheckpointEvent) {
			logger.WarnContext(ctx, "checkpoint_failed", "key", e.Key.String(), "err", e.Err)
		},
		OnSubmitted: func(ctx context.Context, e *domain.SubmitEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "submission_failed", "session_id", e.SessionID, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "submitted", "session_id", e.SessionID, "claim_id", e.ClaimID)
		},
	}
}
