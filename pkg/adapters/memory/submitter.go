package memory

import (
	"context"
	"sync"

	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/ports"
	"github.com/google/uuid"
)

// Submitter records submitted drafts in memory. Useful for tests and demos.
type Submitter struct {
	mu     sync.Mutex
	claims map[string]domain.ClaimDraft

	// Err, when set, is returned by Submit instead of recording the claim.
	Err error
}

// NewSubmitter creates an empty in-memory submitter.
func NewSubmitter() *Submitter {
	return &Submitter{claims: make(map[string]domain.ClaimDraft)}
}

// Submit stores a copy of the final draft under a new claim id.
func (s *Submitter) Submit(ctx context.Context, session *domain.WizardSession) (ports.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return ports.Submission{}, s.Err
	}
	id := uuid.NewString()
	s.claims[id] = session.Draft.Clone()
	return ports.Submission{ClaimID: id}, nil
}

// Claims returns the submitted drafts keyed by claim id.
func (s *Submitter) Claims() map[string]domain.ClaimDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.ClaimDraft, len(s.claims))
	for k, v := range s.claims {
		out[k] = v.Clone()
	}
	return out
}

// SetErr changes the failure returned by Submit.
func (s *Submitter) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}
