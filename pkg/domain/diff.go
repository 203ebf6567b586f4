package domain

import (
	"reflect"
)

// DraftDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type DraftDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentStepIndex *int           `json:"current_step_index,omitempty"`
	Status           *SessionStatus `json:"status,omitempty"`

	// Sections contains only added or replaced sections.
	// Sections are never deleted, so there are no tombstones.
	Sections map[string]any `json:"sections,omitempty"`
}

// Diff calculates the difference between two session snapshots.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
// It returns nil when nothing changed.
func Diff(oldSession, newSession *WizardSession) *DraftDiff {
	if newSession == nil {
		return nil
	}

	diff := &DraftDiff{SessionID: newSession.SessionID}

	if oldSession == nil || oldSession.CurrentStepIndex != newSession.CurrentStepIndex {
		idx := newSession.CurrentStepIndex
		diff.CurrentStepIndex = &idx
	}
	if oldSession == nil || oldSession.Status != newSession.Status {
		status := newSession.Status
		diff.Status = &status
	}

	var oldDraft ClaimDraft
	if oldSession != nil {
		oldDraft = oldSession.Draft
	}
	diff.Sections = diffSections(oldDraft, newSession.Draft)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffSections(old, new ClaimDraft) map[string]any {
	delta := make(map[string]any)
	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *DraftDiff) IsEmpty() bool {
	return d.CurrentStepIndex == nil &&
		d.Status == nil &&
		len(d.Sections) == 0
}
