// Package draft holds the single-owner claim draft of a wizard session.
//
// The Store is the only place a draft is mutated. It performs no I/O: callers
// re-run validation and schedule checkpoints after a patch.
package draft

import (
	"fmt"

	"github.com/claimdesk/intake/pkg/domain"
)

// Store owns one ClaimDraft. It is not safe for concurrent use; the owning
// controller serializes access.
type Store struct {
	draft domain.ClaimDraft
}

// New creates a store initialized from seed. A nil seed starts empty.
func New(seed domain.ClaimDraft) *Store {
	s := &Store{}
	s.Reset(seed)
	return s
}

// Patch shallow-merges p into the draft and returns a snapshot of the result.
// Provided sections replace the stored section entirely; nil sections are
// ignored because sections are never deleted. On error the draft is unchanged.
func (s *Store) Patch(p domain.Patch) (domain.ClaimDraft, error) {
	normalized := make(map[string]any, len(p))
	for section, value := range p {
		if section == "" {
			return nil, fmt.Errorf("%w: empty section name", domain.ErrInvalidPatch)
		}
		if value == nil {
			continue
		}
		v, err := domain.NormalizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("%w: section %q: %w", domain.ErrInvalidPatch, section, err)
		}
		normalized[section] = v
	}
	for section, v := range normalized {
		s.draft[section] = v
	}
	return s.Snapshot(), nil
}

// Snapshot returns a deep copy of the current draft.
func (s *Store) Snapshot() domain.ClaimDraft {
	return s.draft.Clone()
}

// Reset reinitializes the draft from seed.
func (s *Store) Reset(seed domain.ClaimDraft) {
	s.draft = seed.Clone()
}
