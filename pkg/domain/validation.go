package domain

// ValidationResult is the derived validity of one step for a given draft.
// It is recomputed on demand and never stored in the draft or in checkpoints.
type ValidationResult struct {
	StepID  string   `json:"stepId"`
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Valid returns a passing result for a step.
func Valid(stepID string) ValidationResult {
	return ValidationResult{StepID: stepID, IsValid: true, Errors: []string{}}
}
