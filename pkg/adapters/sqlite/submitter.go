package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/ports"
	"github.com/google/uuid"
)

// Submitter converts completed drafts into rows of the claims table.
type Submitter struct {
	store *Store
	now   func() time.Time
}

// NewSubmitter creates a submitter writing to the same database as store.
func NewSubmitter(store *Store) *Submitter {
	return &Submitter{store: store, now: time.Now}
}

// Submit inserts the final draft as a new claim record.
func (s *Submitter) Submit(ctx context.Context, session *domain.WizardSession) (ports.Submission, error) {
	draftJSON, err := json.Marshal(session.Draft)
	if err != nil {
		return ports.Submission{}, fmt.Errorf("marshal claim draft: %w", err)
	}

	id := uuid.NewString()
	_, err = s.store.db.ExecContext(ctx,
		`INSERT INTO claims (id, session_id, organization_id, user_id, variant, draft_json, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		session.SessionID,
		session.Key.OrganizationID,
		session.Key.UserID,
		session.Variant,
		string(draftJSON),
		formatTime(s.now()),
	)
	if err != nil {
		return ports.Submission{}, fmt.Errorf("insert claim: %w", err)
	}
	return ports.Submission{ClaimID: id}, nil
}

// Claim reads back a submitted draft by claim id.
func (s *Submitter) Claim(ctx context.Context, id string) (domain.ClaimDraft, error) {
	var draftJSON string
	err := s.store.db.QueryRowContext(ctx, `SELECT draft_json FROM claims WHERE id = ?`, id).Scan(&draftJSON)
	if err != nil {
		return nil, fmt.Errorf("query claim %s: %w", id, err)
	}
	var d domain.ClaimDraft
	if err := json.Unmarshal([]byte(draftJSON), &d); err != nil {
		return nil, fmt.Errorf("unmarshal claim: %w", err)
	}
	return d, nil
}
