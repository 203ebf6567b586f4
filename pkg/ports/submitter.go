package ports

import (
	"context"

	"github.com/claimdesk/intake/pkg/domain"
)

// Submission is the result of a successful claim submission.
type Submission struct {
	ClaimID string
}

// Submitter receives the final draft exactly once, when a session completes.
// A returned error keeps the session open and resumable.
type Submitter interface {
	Submit(ctx context.Context, session *domain.WizardSession) (Submission, error)
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, session *domain.WizardSession) (Submission, error)

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, session *domain.WizardSession) (Submission, error) {
	return f(ctx, session)
}
