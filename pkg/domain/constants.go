package domain

// Section names used as top-level keys of a ClaimDraft.
const (
	SectionInsured   = "insuredDetails"
	SectionPolicy    = "policyDetails"
	SectionCoverages = "coverages"
	SectionLoss      = "lossDetails"
	SectionProperty  = "propertyDetails"
	SectionContract  = "contractDetails"
	SectionPersonnel = "personnel"
	SectionDocuments = "documents"
	SectionReview    = "review"
)

// Step ids of the shared step catalogue.
const (
	StepDocumentUpload = "document-upload"
	StepClientDetails  = "client-details"
	StepInsuranceInfo  = "insurance-info"
	StepClaimInfo      = "claim-info"
	StepPropertyInfo   = "property-info"
	StepContractInfo   = "contract-info"
	StepPersonnel      = "personnel"
	StepReview         = "review"
)

// Built-in wizard variants.
const (
	VariantManual     = "manual"
	VariantAIAssisted = "ai-assisted"
)

// DateLayout is the accepted format for date fields in a draft.
const DateLayout = "2006-01-02"

// StepSections lists the draft sections each catalogue step edits.
var StepSections = map[string][]string{
	StepDocumentUpload: {SectionDocuments},
	StepClientDetails:  {SectionInsured},
	StepInsuranceInfo:  {SectionPolicy, SectionCoverages},
	StepClaimInfo:      {SectionLoss},
	StepPropertyInfo:   {SectionProperty},
	StepContractInfo:   {SectionContract},
	StepPersonnel:      {SectionPersonnel},
	StepReview:         {SectionReview},
}
