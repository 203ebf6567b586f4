package domain

import "time"

// StepStatus is the per-step summary stored alongside a checkpoint.
type StepStatus struct {
	Completed bool     `json:"completed"`
	Errors    []string `json:"errors,omitempty"`
}

// Checkpoint is the persisted snapshot that lets a session resume after interruption.
// There is at most one checkpoint per ProgressKey; every save overwrites it.
type Checkpoint struct {
	Key              ProgressKey           `json:"key"`
	SessionID        string                `json:"sessionId"`
	CurrentStepIndex int                   `json:"currentStepIndex"`
	TotalSteps       int                   `json:"totalSteps"`
	ProgressPercent  int                   `json:"progressPercent"`
	Draft            ClaimDraft            `json:"draft"`
	PerStepStatus    map[string]StepStatus `json:"perStepStatus"`
	SavedAt          time.Time             `json:"savedAt"`
	LastActiveAt     time.Time             `json:"lastActiveAt"`
	ExpiresAt        time.Time             `json:"expiresAt"`
}

// Expired reports whether the checkpoint is no longer resumable at now.
func (c *Checkpoint) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ProgressPercent computes the share of completed steps, rounded down.
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return completed * 100 / total
}

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	out := *c
	out.Draft = c.Draft.Clone()
	out.PerStepStatus = make(map[string]StepStatus, len(c.PerStepStatus))
	for k, v := range c.PerStepStatus {
		v.Errors = append([]string(nil), v.Errors...)
		out.PerStepStatus[k] = v
	}
	return &out
}
