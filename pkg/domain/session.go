package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SessionStatus defines the lifecycle position of a wizard session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"    // Navigating between steps
	StatusCompleted SessionStatus = "completed" // Terminal: submitted successfully
	StatusCancelled SessionStatus = "cancelled" // Terminal: abandoned by the user
)

// ProgressKey identifies the single resumable progress record of a user
// for one wizard variant inside an organization.
type ProgressKey struct {
	UserID         string `json:"userId"`
	OrganizationID string `json:"organizationId"`
	Variant        string `json:"variant"`
}

// Validate checks that every component of the key is set.
func (k ProgressKey) Validate() error {
	if k.UserID == "" || k.OrganizationID == "" || k.Variant == "" {
		return fmt.Errorf("progress key requires user, organization and variant: %+v", k)
	}
	return nil
}

// String renders the key as "organization:user:variant" with each part query-escaped.
func (k ProgressKey) String() string {
	return url.QueryEscape(k.OrganizationID) + ":" + url.QueryEscape(k.UserID) + ":" + url.QueryEscape(k.Variant)
}

// ParseProgressKey is the inverse of ProgressKey.String.
func ParseProgressKey(s string) (ProgressKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return ProgressKey{}, fmt.Errorf("malformed progress key %q", s)
	}
	var unescaped [3]string
	for i, p := range parts {
		v, err := url.QueryUnescape(p)
		if err != nil {
			return ProgressKey{}, fmt.Errorf("malformed progress key %q: %w", s, err)
		}
		unescaped[i] = v
	}
	key := ProgressKey{OrganizationID: unescaped[0], UserID: unescaped[1], Variant: unescaped[2]}
	return key, key.Validate()
}

// WizardSession is a snapshot of one wizard run.
// The live session is owned by the navigation controller; everything else reads copies.
type WizardSession struct {
	SessionID        string           `json:"sessionId"`
	Key              ProgressKey      `json:"key"`
	Variant          string           `json:"variant"`
	Steps            []StepDescriptor `json:"steps"`
	CurrentStepIndex int              `json:"currentStepIndex"`
	Status           SessionStatus    `json:"status"`
	Draft            ClaimDraft       `json:"draft"`
	LastActiveAt     time.Time        `json:"lastActiveAt"`
	LastCheckpointAt *time.Time       `json:"lastCheckpointAt,omitempty"`
}

// Terminal reports whether no further navigation is legal.
func (s *WizardSession) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusCancelled
}

// CurrentStep returns the active step descriptor. ok is false once the session is terminal.
func (s *WizardSession) CurrentStep() (StepDescriptor, bool) {
	if s.Terminal() || s.CurrentStepIndex < 0 || s.CurrentStepIndex >= len(s.Steps) {
		return StepDescriptor{}, false
	}
	return s.Steps[s.CurrentStepIndex], true
}
