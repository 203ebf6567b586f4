package graph_test

import (
	"strings"
	"testing"

	"github.com/claimdesk/intake/internal/presentation/graph"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid(t *testing.T) {
	steps, err := registry.Default().Steps(domain.VariantAIAssisted)
	require.NoError(t, err)

	out := graph.GenerateMermaid(steps, nil)

	tests := []struct {
		name     string
		contains string
	}{
		{"header", "graph TD\n"},
		{"required step shape", `document_upload["1. Documents"]`},
		{"optional step shape", `claim_info("4. Loss Details")`},
		{"review shape", `review[["8. Review"]]`},
		{"next edge", "client_details --> insurance_info"},
		{"submit edge", `review -- "submit" --> completed(("completed"))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, out, tt.contains)
		})
	}
	assert.NotContains(t, out, "classDef", "no overlay without progress")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	steps, err := registry.Default().Steps(domain.VariantManual)
	require.NoError(t, err)

	cp := &domain.Checkpoint{
		CurrentStepIndex: 2,
		PerStepStatus: map[string]domain.StepStatus{
			domain.StepClientDetails: {Completed: true},
			domain.StepInsuranceInfo: {Completed: true},
			domain.StepClaimInfo:     {Errors: []string{"Loss reason is required"}},
			domain.StepPropertyInfo:  {Errors: []string{"Property address is required"}},
		},
	}
	out := graph.GenerateMermaid(steps, graph.OverlayFromCheckpoint(cp, steps))

	assert.Contains(t, out, "class client_details done;")
	assert.Contains(t, out, "class insurance_info done;")
	assert.Contains(t, out, "class claim_info current;")
	assert.Contains(t, out, "class property_info invalid;")
	assert.Equal(t, 1, strings.Count(out, " current;"))
}
