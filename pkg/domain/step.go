package domain

// StepDescriptor is one page of a wizard variant.
// Descriptors are immutable once a variant is built.
type StepDescriptor struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Required steps must validate before the wizard may move past them or complete.
	Required bool `json:"required" yaml:"required"`

	// Order is the 0-based position of the step inside its variant.
	Order int `json:"order" yaml:"order"`
}

// IndexOf returns the position of the step with the given id, or -1.
func IndexOf(steps []StepDescriptor, id string) int {
	for i, s := range steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}
