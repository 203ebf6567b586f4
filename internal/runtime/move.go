package runtime

import "github.com/claimdesk/intake/pkg/domain"

// Move is the outcome of a navigation request.
// A blocked move is a normal result: the session did not move and Gate says why.
type Move struct {
	From      int                      `json:"from"`
	To        int                      `json:"to"`
	Blocked   bool                     `json:"blocked"`
	Gate      *domain.ValidationResult `json:"gate,omitempty"`
	Completed bool                     `json:"completed,omitempty"`
	ClaimID   string                   `json:"claimId,omitempty"`
}

// Actions lists what the session currently allows.
type Actions struct {
	CanNext     bool  `json:"canNext"`
	CanPrevious bool  `json:"canPrevious"`
	CanSubmit   bool  `json:"canSubmit"`
	CanCancel   bool  `json:"canCancel"`
	JumpTargets []int `json:"jumpTargets"`
}

// AllowedActions recomputes the legal transitions for the current draft.
func (c *Controller) AllowedActions() Actions {
	if c.session.Terminal() {
		return Actions{JumpTargets: []int{}}
	}
	cur := c.session.CurrentStepIndex
	last := len(c.session.Steps) - 1
	d := c.draft.Snapshot()

	res, _ := c.validator.Validate(c.session.Steps[cur].ID, d)
	a := Actions{
		CanNext:     res.IsValid,
		CanPrevious: cur > 0,
		CanCancel:   true,
		JumpTargets: []int{},
	}
	if cur == last && a.CanNext {
		_, blocked := c.firstBlocking(len(c.session.Steps), d)
		a.CanNext = !blocked
		a.CanSubmit = !blocked
	}

	// Forward targets stop at the first invalid required step.
	limit := len(c.session.Steps)
	if res, blocked := c.firstBlocking(len(c.session.Steps), d); blocked {
		limit = domain.IndexOf(c.session.Steps, res.StepID) + 1
	}
	for i := 0; i < len(c.session.Steps); i++ {
		if i != cur && (i < cur || i < limit) {
			a.JumpTargets = append(a.JumpTargets, i)
		}
	}
	return a
}
