package registry

import (
	"strings"
	"testing"

	"github.com/claimdesk/intake/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Variants(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{domain.VariantAIAssisted, domain.VariantManual}, r.Variants())

	manual, err := r.Steps(domain.VariantManual)
	require.NoError(t, err)
	require.Len(t, manual, 7)
	assert.Equal(t, domain.StepClientDetails, manual[0].ID)
	assert.Equal(t, domain.StepReview, manual[6].ID)

	for i, s := range manual {
		assert.Equal(t, i, s.Order, "order must match position")
	}

	ai, err := r.Steps(domain.VariantAIAssisted)
	require.NoError(t, err)
	assert.Equal(t, domain.StepDocumentUpload, ai[0].ID)
}

func TestDefault_RequiredOverrides(t *testing.T) {
	r := Default()

	manualClaim, err := r.Step(domain.VariantManual, domain.StepClaimInfo)
	require.NoError(t, err)
	aiClaim, err := r.Step(domain.VariantAIAssisted, domain.StepClaimInfo)
	require.NoError(t, err)

	assert.True(t, manualClaim.Required)
	assert.False(t, aiClaim.Required)
	assert.Equal(t, manualClaim.Title, aiClaim.Title, "shared catalogue keeps display data in sync")

	manualProperty, _ := r.Step(domain.VariantManual, domain.StepPropertyInfo)
	aiProperty, _ := r.Step(domain.VariantAIAssisted, domain.StepPropertyInfo)
	assert.True(t, manualProperty.Required)
	assert.False(t, aiProperty.Required)
}

func TestRegistry_NotFound(t *testing.T) {
	r := Default()

	_, err := r.Steps("express")
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)

	_, err = r.Step(domain.VariantManual, domain.StepDocumentUpload)
	assert.ErrorIs(t, err, domain.ErrStepNotFound)
}

func TestRegistry_StepsReturnsCopy(t *testing.T) {
	r := Default()
	steps, _ := r.Steps(domain.VariantManual)
	steps[0].Required = false

	again, _ := r.Steps(domain.VariantManual)
	assert.True(t, again[0].Required)
}

func TestNew_Rejects(t *testing.T) {
	cat := DefaultCatalogue()

	_, err := New(cat, VariantSpec{Name: "x", Steps: []StepRef{{ID: "nope"}}})
	assert.ErrorIs(t, err, domain.ErrStepNotFound)

	_, err = New(cat, VariantSpec{Name: "x"})
	assert.Error(t, err)

	_, err = New(cat, VariantSpec{Name: "x", Steps: []StepRef{{ID: domain.StepReview}, {ID: domain.StepReview}}})
	assert.Error(t, err)

	spec := VariantSpec{Name: "x", Steps: []StepRef{{ID: domain.StepReview}}}
	_, err = New(cat, spec, spec)
	assert.Error(t, err)
}

func TestLoad_YAML(t *testing.T) {
	src := `
catalogue:
  - id: inspection
    title: Inspection
    required: false
variants:
  - name: express
    steps:
      - id: client-details
      - id: inspection
        required: true
      - id: review
`
	r, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	steps, err := r.Steps("express")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "inspection", steps[1].ID)
	assert.True(t, steps[1].Required)

	_, err = r.Steps(domain.VariantManual)
	assert.NoError(t, err, "built-in variants are kept")
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(strings.NewReader("variantz: []\n"))
	assert.Error(t, err)
}
