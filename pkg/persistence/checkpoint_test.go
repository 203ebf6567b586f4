package persistence_test

import (
	"testing"
	"time"

	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestNewCheckpoint(t *testing.T) {
	s := newSession(t, "P-1")
	s.CurrentStepIndex = 2
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	results := make([]domain.ValidationResult, len(s.Steps))
	for i, step := range s.Steps {
		results[i] = domain.Valid(step.ID)
	}
	results[1] = domain.ValidationResult{StepID: s.Steps[1].ID, Errors: []string{"Carrier name is required"}}

	cp := persistence.NewCheckpoint(s, results, now, time.Hour)

	assert.Equal(t, testKey, cp.Key)
	assert.Equal(t, "s1", cp.SessionID)
	assert.Equal(t, 2, cp.CurrentStepIndex)
	assert.Equal(t, len(s.Steps), cp.TotalSteps)
	assert.True(t, cp.PerStepStatus[s.Steps[0].ID].Completed)
	assert.False(t, cp.PerStepStatus[s.Steps[1].ID].Completed)
	assert.Equal(t, []string{"Carrier name is required"}, cp.PerStepStatus[s.Steps[1].ID].Errors)
	assert.False(t, cp.PerStepStatus[s.Steps[2].ID].Completed, "steps not yet passed are not completed")
	assert.Equal(t, domain.ProgressPercent(1, len(s.Steps)), cp.ProgressPercent)
	assert.Equal(t, now, cp.SavedAt)
	assert.Equal(t, now, cp.LastActiveAt)
	assert.Equal(t, now.Add(time.Hour), cp.ExpiresAt)

	s.Draft[domain.SectionPolicy].(map[string]any)["policyNumber"] = "changed"
	assert.Equal(t, "P-1", cp.Draft[domain.SectionPolicy].(map[string]any)["policyNumber"], "checkpoint owns its draft copy")
}
