package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/claimdesk/intake/pkg/domain"
)

// Rule is a predicate over the draft and the message shown when it fails.
// Rules that can fail several times at once set Explain instead, which returns
// one message per problem and takes precedence over Check.
type Rule struct {
	Message string
	Check   func(domain.ClaimDraft) bool
	Explain func(domain.ClaimDraft) []string
}

// Rules maps step ids to their ordered rules.
type Rules map[string][]Rule

// Messages used by the built-in rules.
const (
	MsgNameRequired            = "First name or organization name is required"
	MsgAddressRequired         = "Address is required"
	MsgCarrierRequired         = "Carrier name is required"
	MsgPolicyNumberRequired    = "Policy number is required"
	MsgCoverageTypeRequired    = "Coverage %d: type is required"
	MsgLossReasonRequired      = "Loss reason is required"
	MsgLossDateRequired        = "Loss date is required"
	MsgLossDateInvalid         = "Loss date must be a valid date (YYYY-MM-DD)"
	MsgPropertyAddressRequired = "Property address is required"
	MsgPropertyTypeRequired    = "Property type is required"
	MsgContractTypeRequired    = "Contract type is required"
	MsgFeePercentageRange      = "Fee percentage must be between 0 and 100"
	MsgPersonnelIncomplete     = "Every personnel entry needs a name and a role"
	MsgDocumentsRequired       = "At least one document is required"
	MsgSectionMalformed        = "Section %s has values in the wrong format"
)

// DefaultRules returns the built-in rules of the shared step catalogue.
// Field rules read whatever part of a section decodes; a value of the wrong
// shape is reported once by the section's format rule.
func DefaultRules() Rules {
	return Rules{
		domain.StepClientDetails: {
			wellFormed(domain.SectionInsured),
			{Message: MsgNameRequired, Check: func(d domain.ClaimDraft) bool {
				v := decode[domain.InsuredDetails](d, domain.SectionInsured)
				return present(v.FirstName) || present(v.OrganizationName)
			}},
			{Message: MsgAddressRequired, Check: func(d domain.ClaimDraft) bool {
				return present(decode[domain.InsuredDetails](d, domain.SectionInsured).MailingAddress.Street)
			}},
		},
		domain.StepInsuranceInfo: {
			wellFormed(domain.SectionPolicy, domain.SectionCoverages),
			{Message: MsgCarrierRequired, Check: func(d domain.ClaimDraft) bool {
				return present(decode[domain.PolicyDetails](d, domain.SectionPolicy).CarrierName)
			}},
			{Message: MsgPolicyNumberRequired, Check: func(d domain.ClaimDraft) bool {
				return present(decode[domain.PolicyDetails](d, domain.SectionPolicy).PolicyNumber)
			}},
			{Explain: func(d domain.ClaimDraft) []string {
				var msgs []string
				for i, c := range items[domain.Coverage](d, domain.SectionCoverages) {
					if !present(c.Type) {
						msgs = append(msgs, fmt.Sprintf(MsgCoverageTypeRequired, i+1))
					}
				}
				return msgs
			}},
		},
		domain.StepClaimInfo: {
			wellFormed(domain.SectionLoss),
			{Message: MsgLossReasonRequired, Check: func(d domain.ClaimDraft) bool {
				return present(decode[domain.LossDetails](d, domain.SectionLoss).Reason)
			}},
			{Message: MsgLossDateRequired, Check: func(d domain.ClaimDraft) bool {
				return present(decode[domain.LossDetails](d, domain.SectionLoss).Date)
			}},
			{Message: MsgLossDateInvalid, Check: func(d domain.ClaimDraft) bool {
				date := decode[domain.LossDetails](d, domain.SectionLoss).Date
				if !present(date) {
					// Reported by the required rule.
					return true
				}
				_, err := time.Parse(domain.DateLayout, strings.TrimSpace(date))
				return err == nil
			}},
		},
		domain.StepPropertyInfo: {
			wellFormed(domain.SectionProperty),
			{Message: MsgPropertyAddressRequired, Check: func(d domain.ClaimDraft) bool {
				return present(decode[domain.PropertyDetails](d, domain.SectionProperty).Address.Street)
			}},
			{Message: MsgPropertyTypeRequired, Check: func(d domain.ClaimDraft) bool {
				return present(decode[domain.PropertyDetails](d, domain.SectionProperty).PropertyType)
			}},
		},
		domain.StepContractInfo: {
			wellFormed(domain.SectionContract),
			{Message: MsgContractTypeRequired, Check: func(d domain.ClaimDraft) bool {
				return present(decode[domain.ContractDetails](d, domain.SectionContract).ContractType)
			}},
			{Message: MsgFeePercentageRange, Check: func(d domain.ClaimDraft) bool {
				fee := decode[domain.ContractDetails](d, domain.SectionContract).FeePercentage
				return fee == nil || (*fee >= 0 && *fee <= 100)
			}},
		},
		domain.StepPersonnel: {
			wellFormed(domain.SectionPersonnel),
			{Message: MsgPersonnelIncomplete, Check: func(d domain.ClaimDraft) bool {
				for _, m := range items[domain.PersonnelMember](d, domain.SectionPersonnel) {
					if !present(m.Name) || !present(m.Role) {
						return false
					}
				}
				return true
			}},
		},
		domain.StepDocumentUpload: {
			wellFormed(domain.SectionDocuments),
			{Message: MsgDocumentsRequired, Check: func(d domain.ClaimDraft) bool {
				return len(items[domain.Document](d, domain.SectionDocuments)) > 0
			}},
		},
	}
}

// shapes decodes a section into its typed view and reports shape errors.
var shapes = map[string]func(domain.ClaimDraft) error{
	domain.SectionInsured:   shape[domain.InsuredDetails](domain.SectionInsured),
	domain.SectionPolicy:    shape[domain.PolicyDetails](domain.SectionPolicy),
	domain.SectionCoverages: listShape[domain.Coverage](domain.SectionCoverages),
	domain.SectionLoss:      shape[domain.LossDetails](domain.SectionLoss),
	domain.SectionProperty:  shape[domain.PropertyDetails](domain.SectionProperty),
	domain.SectionContract:  shape[domain.ContractDetails](domain.SectionContract),
	domain.SectionPersonnel: listShape[domain.PersonnelMember](domain.SectionPersonnel),
	domain.SectionDocuments: listShape[domain.Document](domain.SectionDocuments),
}

func shape[T any](section string) func(domain.ClaimDraft) error {
	return func(d domain.ClaimDraft) error {
		var v T
		return d.Decode(section, &v)
	}
}

func listShape[T any](section string) func(domain.ClaimDraft) error {
	decodeList := shape[[]T](section)
	return func(d domain.ClaimDraft) error {
		raw, ok := d[section]
		if !ok || raw == nil {
			return nil
		}
		if _, isList := raw.([]any); !isList {
			return fmt.Errorf("section %q is not a list", section)
		}
		return decodeList(d)
	}
}

// wellFormed reports each of sections that does not fit its typed view.
func wellFormed(sections ...string) Rule {
	return Rule{Explain: func(d domain.ClaimDraft) []string {
		var msgs []string
		for _, section := range sections {
			if err := shapes[section](d); err != nil {
				msgs = append(msgs, fmt.Sprintf(MsgSectionMalformed, section))
			}
		}
		return msgs
	}}
}

// decode returns the typed view of a section. Fields of the wrong shape are
// left zero while the rest still decode; a missing section yields the zero value.
func decode[T any](d domain.ClaimDraft, section string) T {
	var v T
	_ = d.Decode(section, &v)
	return v
}

// items decodes a list section. Anything but a list yields no items, so a
// scalar is not mistaken for a one-element list.
func items[T any](d domain.ClaimDraft, section string) []T {
	if _, ok := d[section].([]any); !ok {
		return nil
	}
	return decode[[]T](d, section)
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
