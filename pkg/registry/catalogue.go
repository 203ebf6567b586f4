package registry

import "github.com/claimdesk/intake/pkg/domain"

// Definition is a catalogue entry shared by every variant that selects it.
type Definition struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Required    bool   `yaml:"required"`
}

// Catalogue maps step ids to their shared definitions.
type Catalogue map[string]Definition

// StepRef selects a catalogue entry for a variant.
// A nil Required keeps the catalogue default.
type StepRef struct {
	ID       string `yaml:"id"`
	Required *bool  `yaml:"required,omitempty"`
}

// VariantSpec is the declarative form of a variant.
type VariantSpec struct {
	Name  string    `yaml:"name"`
	Steps []StepRef `yaml:"steps"`
}

// DefaultCatalogue returns the built-in intake steps.
func DefaultCatalogue() Catalogue {
	defs := []Definition{
		{ID: domain.StepDocumentUpload, Title: "Documents", Description: "Upload policy and loss documents for analysis", Required: true},
		{ID: domain.StepClientDetails, Title: "Client Details", Description: "Insured person or organization and mailing address", Required: true},
		{ID: domain.StepInsuranceInfo, Title: "Insurance", Description: "Carrier, policy number and coverages", Required: true},
		{ID: domain.StepClaimInfo, Title: "Loss Details", Description: "Reason, date and description of the loss", Required: true},
		{ID: domain.StepPropertyInfo, Title: "Property", Description: "Location and type of the damaged property"},
		{ID: domain.StepContractInfo, Title: "Contract", Description: "Public adjuster contract terms"},
		{ID: domain.StepPersonnel, Title: "Personnel", Description: "Staff assigned to the claim"},
		{ID: domain.StepReview, Title: "Review", Description: "Review all answers before submitting", Required: true},
	}
	c := make(Catalogue, len(defs))
	for _, d := range defs {
		c[d.ID] = d
	}
	return c
}

// DefaultVariants returns the built-in manual and AI-assisted flows.
func DefaultVariants() []VariantSpec {
	return []VariantSpec{
		{
			Name: domain.VariantManual,
			Steps: []StepRef{
				{ID: domain.StepClientDetails},
				{ID: domain.StepInsuranceInfo},
				{ID: domain.StepClaimInfo},
				{ID: domain.StepPropertyInfo, Required: boolPtr(true)},
				{ID: domain.StepContractInfo},
				{ID: domain.StepPersonnel},
				{ID: domain.StepReview},
			},
		},
		{
			Name: domain.VariantAIAssisted,
			Steps: []StepRef{
				{ID: domain.StepDocumentUpload},
				{ID: domain.StepClientDetails},
				{ID: domain.StepInsuranceInfo},
				// Loss details are extracted from the uploaded documents.
				{ID: domain.StepClaimInfo, Required: boolPtr(false)},
				{ID: domain.StepPropertyInfo},
				{ID: domain.StepContractInfo},
				{ID: domain.StepPersonnel},
				{ID: domain.StepReview},
			},
		},
	}
}

func boolPtr(b bool) *bool { return &b }
