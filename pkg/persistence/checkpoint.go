package persistence

import (
	"time"

	"github.com/claimdesk/intake/pkg/domain"
)

// NewCheckpoint builds the persisted snapshot of a session.
// A step counts as completed once the session has moved past it and it still validates.
func NewCheckpoint(session *domain.WizardSession, results []domain.ValidationResult, now time.Time, ttl time.Duration) *domain.Checkpoint {
	status := make(map[string]domain.StepStatus, len(results))
	completed := 0
	for _, r := range results {
		done := r.IsValid && domain.IndexOf(session.Steps, r.StepID) < session.CurrentStepIndex
		if done {
			completed++
		}
		status[r.StepID] = domain.StepStatus{
			Completed: done,
			Errors:    append([]string(nil), r.Errors...),
		}
	}

	cp := &domain.Checkpoint{
		Key:              session.Key,
		SessionID:        session.SessionID,
		CurrentStepIndex: session.CurrentStepIndex,
		TotalSteps:       len(session.Steps),
		ProgressPercent:  domain.ProgressPercent(completed, len(session.Steps)),
		Draft:            session.Draft.Clone(),
		PerStepStatus:    status,
		SavedAt:          now,
		LastActiveAt:     session.LastActiveAt,
	}
	if cp.LastActiveAt.IsZero() {
		cp.LastActiveAt = now
	}
	if ttl > 0 {
		cp.ExpiresAt = now.Add(ttl)
	}
	return cp
}
