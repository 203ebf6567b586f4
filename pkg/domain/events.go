package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter         EventType = "step_enter"
	EventStepLeave         EventType = "step_leave"
	EventTransitionBlocked EventType = "transition_blocked"
	EventCheckpointSaved   EventType = "checkpoint_saved"
	EventCheckpointFailed  EventType = "checkpoint_failed"
	EventSubmitted         EventType = "submitted"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Variant   string    `json:"variant"`
}

// StepEvent represents entry into or exit from a step.
type StepEvent struct {
	EventBase
	StepID    string `json:"step_id"`
	StepIndex int    `json:"step_index"`
}

// BlockedEvent represents a forward transition rejected by the validation gate.
type BlockedEvent struct {
	EventBase
	From   int              `json:"from"`
	Target int              `json:"target"`
	Gate   ValidationResult `json:"gate"`
}

// CheckpointEvent represents the outcome of a checkpoint write.
type CheckpointEvent struct {
	EventBase
	Key      ProgressKey   `json:"key"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// SubmitEvent represents a call to the submission collaborator.
type SubmitEvent struct {
	EventBase
	ClaimID string `json:"claim_id,omitempty"`
	Err     error  `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStepEnter         func(context.Context, *StepEvent)
	OnStepLeave         func(context.Context, *StepEvent)
	OnTransitionBlocked func(context.Context, *BlockedEvent)
	OnCheckpointSaved   func(context.Context, *CheckpointEvent)
	OnCheckpointFailed  func(context.Context, *CheckpointEvent)
	OnSubmitted         func(context.Context, *SubmitEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepEnter:         chain(h.OnStepEnter, other.OnStepEnter),
		OnStepLeave:         chain(h.OnStepLeave, other.OnStepLeave),
		OnTransitionBlocked: chain(h.OnTransitionBlocked, other.OnTransitionBlocked),
		OnCheckpointSaved:   chain(h.OnCheckpointSaved, other.OnCheckpointSaved),
		OnCheckpointFailed:  chain(h.OnCheckpointFailed, other.OnCheckpointFailed),
		OnSubmitted:         chain(h.OnSubmitted, other.OnSubmitted),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
