package validator

import (
	"fmt"

	"github.com/claimdesk/intake/pkg/domain"
)

// Validator evaluates the rules of one variant's steps.
type Validator struct {
	steps []domain.StepDescriptor
	rules Rules
}

// Option configures a Validator.
type Option func(*Validator)

// WithRules adds rules, replacing the built-in rules of any step id it names.
func WithRules(rules Rules) Option {
	return func(v *Validator) {
		for id, rs := range rules {
			v.rules[id] = rs
		}
	}
}

// New creates a validator for the given variant steps with the built-in rules.
func New(steps []domain.StepDescriptor, opts ...Option) *Validator {
	v := &Validator{
		steps: append([]domain.StepDescriptor(nil), steps...),
		rules: DefaultRules(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate evaluates one step against the draft.
// Unknown step ids are a caller bug and return domain.ErrStepNotFound.
func (v *Validator) Validate(stepID string, d domain.ClaimDraft) (domain.ValidationResult, error) {
	i := domain.IndexOf(v.steps, stepID)
	if i < 0 {
		return domain.ValidationResult{}, fmt.Errorf("%w: %s", domain.ErrStepNotFound, stepID)
	}
	return v.evaluate(v.steps[i], d), nil
}

// ValidateAll evaluates every step in variant order.
func (v *Validator) ValidateAll(d domain.ClaimDraft) []domain.ValidationResult {
	out := make([]domain.ValidationResult, len(v.steps))
	for i, s := range v.steps {
		out[i] = v.evaluate(s, d)
	}
	return out
}

func (v *Validator) evaluate(step domain.StepDescriptor, d domain.ClaimDraft) domain.ValidationResult {
	res := domain.Valid(step.ID)
	for _, rule := range v.rules[step.ID] {
		if rule.Explain != nil {
			res.Errors = append(res.Errors, rule.Explain(d)...)
			continue
		}
		if rule.Check != nil && !rule.Check(d) {
			res.Errors = append(res.Errors, rule.Message)
		}
	}
	// Optional steps never gate; their messages stay advisory.
	res.IsValid = !step.Required || len(res.Errors) == 0
	return res
}
