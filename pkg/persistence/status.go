package persistence

import "time"

// SaveState is the ambient "saved / not saved" indicator of one progress record.
type SaveState string

const (
	SaveIdle    SaveState = "idle"    // Nothing scheduled yet
	SavePending SaveState = "pending" // A write is waiting for the quiet period
	SaveSaved   SaveState = "saved"   // Latest scheduled snapshot is stored
	SaveUnsaved SaveState = "unsaved" // Last write failed; retried on next edit
)

// SaveStatus reports persistence health for one key. It never blocks navigation.
type SaveStatus struct {
	State       SaveState `json:"state"`
	LastSavedAt time.Time `json:"lastSavedAt,omitzero"`
	LastError   string    `json:"lastError,omitempty"`
	Failures    int       `json:"failures"`
}
