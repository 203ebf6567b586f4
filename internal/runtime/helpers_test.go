package runtime_test

import (
	"testing"

	"github.com/claimdesk/intake/internal/runtime"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/registry"
	"github.com/stretchr/testify/require"
)

func keyFor(variant string) domain.ProgressKey {
	return domain.ProgressKey{UserID: "user-1", OrganizationID: "org-1", Variant: variant}
}

func newController(t *testing.T, variant string, opts ...runtime.Option) *runtime.Controller {
	t.Helper()
	steps, err := registry.Default().Steps(variant)
	require.NoError(t, err)
	c, err := runtime.New(runtime.Config{SessionID: "session-1", Key: keyFor(variant), Steps: steps}, opts...)
	require.NoError(t, err)
	return c
}

// Valid section values for every step of the built-in catalogue.
var (
	clientPatch    = domain.Patch{domain.SectionInsured: map[string]any{"firstName": "Jane", "mailingAddress": map[string]any{"street": "1 Main St"}}}
	insurancePatch = domain.Patch{domain.SectionPolicy: map[string]any{"carrierName": "Acme Mutual", "policyNumber": "P-100"}}
	claimPatch     = domain.Patch{domain.SectionLoss: map[string]any{"reason": "hail", "date": "2026-04-02"}}
	propertyPatch  = domain.Patch{domain.SectionProperty: map[string]any{"address": map[string]any{"street": "9 Elm"}, "propertyType": "residential"}}
	documentsPatch = domain.Patch{domain.SectionDocuments: []any{map[string]any{"name": "policy.pdf"}}}
)

func completeManualDraft() []domain.Patch {
	return []domain.Patch{clientPatch, insurancePatch, claimPatch, propertyPatch}
}

func mustPatch(t *testing.T, c *runtime.Controller, patches ...domain.Patch) {
	t.Helper()
	for _, p := range patches {
		_, err := c.Patch(p)
		require.NoError(t, err)
	}
}
