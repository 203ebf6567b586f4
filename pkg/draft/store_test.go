package draft

import (
	"testing"

	"github.com/claimdesk/intake/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatch_ShallowMerge(t *testing.T) {
	s := New(nil)

	_, err := s.Patch(domain.Patch{
		domain.SectionInsured: map[string]any{"firstName": "Jane", "lastName": "Doe"},
		domain.SectionPolicy:  map[string]any{"carrierName": "Acme"},
	})
	require.NoError(t, err)

	got, err := s.Patch(domain.Patch{
		domain.SectionInsured: map[string]any{"organizationName": "Doe LLC"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"organizationName": "Doe LLC"}, got[domain.SectionInsured],
		"a provided section replaces the stored one entirely")
	assert.Equal(t, map[string]any{"carrierName": "Acme"}, got[domain.SectionPolicy],
		"untouched sections are unchanged")
}

func TestPatch_Idempotent(t *testing.T) {
	drafts := []domain.ClaimDraft{
		nil,
		{domain.SectionLoss: map[string]any{"reason": "fire"}},
		{domain.SectionPolicy: map[string]any{"policyNumber": "A"}, domain.SectionCoverages: []any{}},
	}
	patches := []domain.Patch{
		{},
		{domain.SectionPolicy: map[string]any{"policyNumber": "B"}},
		{domain.SectionCoverages: []any{map[string]any{"type": "dwelling", "limit": 1000.0}}},
		{domain.SectionLoss: domain.LossDetails{Reason: "hail", Date: "2026-01-02"}},
	}

	for _, d := range drafts {
		for _, p := range patches {
			once := New(d)
			want, err := once.Patch(p)
			require.NoError(t, err)

			twice := New(d)
			_, err = twice.Patch(p)
			require.NoError(t, err)
			got, err := twice.Patch(p)
			require.NoError(t, err)

			assert.Equal(t, want, got)
		}
	}
}

func TestPatch_SameSectionLastWriteWins(t *testing.T) {
	s := New(nil)
	for _, n := range []string{"1", "2", "3"} {
		_, err := s.Patch(domain.Patch{domain.SectionPolicy: map[string]any{"policyNumber": n}})
		require.NoError(t, err)
	}
	assert.Equal(t, map[string]any{"policyNumber": "3"}, s.Snapshot()[domain.SectionPolicy])
}

func TestPatch_NilSectionIsIgnored(t *testing.T) {
	s := New(domain.ClaimDraft{domain.SectionLoss: map[string]any{"reason": "fire"}})
	got, err := s.Patch(domain.Patch{domain.SectionLoss: nil})
	require.NoError(t, err)
	assert.True(t, got.Has(domain.SectionLoss))
}

func TestPatch_ErrorLeavesDraftUnchanged(t *testing.T) {
	s := New(nil)
	_, err := s.Patch(domain.Patch{
		domain.SectionPolicy: map[string]any{"policyNumber": "A"},
		domain.SectionLoss:   make(chan int),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPatch)
	assert.Empty(t, s.Snapshot())

	_, err = s.Patch(domain.Patch{"": "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidPatch)
}

func TestSnapshot_IsIsolated(t *testing.T) {
	input := map[string]any{"firstName": "Jane"}
	s := New(nil)
	_, err := s.Patch(domain.Patch{domain.SectionInsured: input})
	require.NoError(t, err)

	input["firstName"] = "Mallory"
	snap := s.Snapshot()
	snap[domain.SectionInsured].(map[string]any)["firstName"] = "Eve"

	assert.Equal(t, "Jane", s.Snapshot()[domain.SectionInsured].(map[string]any)["firstName"])
}

func TestReset(t *testing.T) {
	seed := domain.ClaimDraft{domain.SectionPolicy: map[string]any{"carrierName": "Acme"}}
	s := New(nil)
	_, _ = s.Patch(domain.Patch{domain.SectionLoss: map[string]any{"reason": "fire"}})

	s.Reset(seed)
	assert.Equal(t, seed, s.Snapshot())

	s.Reset(nil)
	assert.Empty(t, s.Snapshot())
}
