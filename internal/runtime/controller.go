package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claimdesk/intake/internal/logging"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/draft"
	"github.com/claimdesk/intake/pkg/ports"
	"github.com/claimdesk/intake/pkg/validator"
	"github.com/google/uuid"
)

// Checkpointer is the persistence side of the controller.
// *persistence.Adapter satisfies it.
type Checkpointer interface {
	Schedule(session *domain.WizardSession, results []domain.ValidationResult)
	Cancel(key domain.ProgressKey)
	Finalize(ctx context.Context, key domain.ProgressKey, sessionID string) error
}

// Config identifies the session a Controller drives.
type Config struct {
	// SessionID is generated when empty.
	SessionID string
	Key       domain.ProgressKey
	Steps     []domain.StepDescriptor
	Seed      domain.ClaimDraft
}

// Controller is the navigation state machine of one wizard session.
// It owns the live session; callers only ever see copies.
// A Controller is not safe for concurrent use; hosts serialize access per key.
type Controller struct {
	session   domain.WizardSession
	draft     *draft.Store
	validator *validator.Validator

	submitter    ports.Submitter
	checkpointer Checkpointer
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	now          func() time.Time
	rules        validator.Rules
}

// Option configures the Controller.
type Option func(*Controller)

// WithSubmitter sets the collaborator invoked on completion.
func WithSubmitter(s ports.Submitter) Option {
	return func(c *Controller) { c.submitter = s }
}

// WithCheckpointer enables progress persistence.
func WithCheckpointer(cp Checkpointer) Option {
	return func(c *Controller) { c.checkpointer = cp }
}

// WithLifecycleHooks registers navigation and submission hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) { c.hooks = c.hooks.Merge(hooks) }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithClock overrides time.Now for activity timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithRules adds or replaces step validation rules.
func WithRules(rules validator.Rules) Option {
	return func(c *Controller) { c.rules = rules }
}

// New creates a controller positioned on the first step.
func New(cfg Config, opts ...Option) (*Controller, error) {
	if err := cfg.Key.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s has no steps", domain.ErrVariantNotFound, cfg.Key.Variant)
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}

	c := &Controller{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.draft = draft.New(cfg.Seed)

	var vopts []validator.Option
	if c.rules != nil {
		vopts = append(vopts, validator.WithRules(c.rules))
	}
	c.validator = validator.New(cfg.Steps, vopts...)

	c.session = domain.WizardSession{
		SessionID:    cfg.SessionID,
		Key:          cfg.Key,
		Variant:      cfg.Key.Variant,
		Steps:        append([]domain.StepDescriptor(nil), cfg.Steps...),
		Status:       domain.StatusActive,
		LastActiveAt: c.now(),
	}
	return c, nil
}

// Start announces entry into the current step.
func (c *Controller) Start(ctx context.Context) {
	if step, ok := c.session.CurrentStep(); ok {
		c.emitStep(ctx, domain.EventStepEnter, step, c.session.CurrentStepIndex)
	}
}

// Resume restores position and draft from a checkpoint of the same key.
// The step index is clamped to the variant, so a shorter variant resumes on its last step.
func (c *Controller) Resume(cp *domain.Checkpoint) error {
	if c.session.Terminal() {
		return domain.ErrSessionClosed
	}
	if cp.Key != c.session.Key {
		return fmt.Errorf("checkpoint for %s cannot resume %s", cp.Key, c.session.Key)
	}
	c.draft.Reset(cp.Draft)

	idx := cp.CurrentStepIndex
	if idx < 0 {
		idx = 0
	}
	if last := len(c.session.Steps) - 1; idx > last {
		idx = last
	}
	c.session.CurrentStepIndex = idx
	if cp.SessionID != "" {
		c.session.SessionID = cp.SessionID
	}
	if !cp.LastActiveAt.IsZero() {
		c.session.LastActiveAt = cp.LastActiveAt
	}
	saved := cp.SavedAt
	c.session.LastCheckpointAt = &saved

	c.logger.Debug("session resumed", "key", c.session.Key.String(), "step", idx)
	return nil
}

// Patch shallow-merges p into the draft and schedules a checkpoint.
func (c *Controller) Patch(p domain.Patch) (domain.ClaimDraft, error) {
	if c.session.Terminal() {
		return nil, domain.ErrSessionClosed
	}
	d, err := c.draft.Patch(p)
	if err != nil {
		return nil, err
	}
	c.touch()
	return d, nil
}

// GoNext moves forward if the current step passes its gate.
// From the last step it enters Completed and submits the draft exactly once.
func (c *Controller) GoNext(ctx context.Context) (Move, error) {
	if c.session.Terminal() {
		return Move{}, domain.ErrSessionClosed
	}
	from := c.session.CurrentStepIndex
	step := c.session.Steps[from]
	d := c.draft.Snapshot()

	res, err := c.validator.Validate(step.ID, d)
	if err != nil {
		return Move{}, err
	}
	if !res.IsValid {
		return c.block(ctx, from, from+1, res), nil
	}

	if from < len(c.session.Steps)-1 {
		return c.moveTo(ctx, from, from+1), nil
	}

	// Completion requires every required step, not only the last one.
	if res, blocked := c.firstBlocking(len(c.session.Steps), d); blocked {
		return c.block(ctx, from, len(c.session.Steps), res), nil
	}
	return c.complete(ctx, from, d)
}

// GoPrevious moves back one step. There is no gate backwards.
func (c *Controller) GoPrevious(ctx context.Context) (Move, error) {
	if c.session.Terminal() {
		return Move{}, domain.ErrSessionClosed
	}
	from := c.session.CurrentStepIndex
	if from == 0 {
		return Move{}, fmt.Errorf("%w: already on the first step", domain.ErrInvalidTransition)
	}
	return c.moveTo(ctx, from, from-1), nil
}

// GoToStep jumps to index. Backward jumps always succeed; forward jumps require
// every required step before index to validate.
func (c *Controller) GoToStep(ctx context.Context, index int) (Move, error) {
	if c.session.Terminal() {
		return Move{}, domain.ErrSessionClosed
	}
	if index < 0 || index >= len(c.session.Steps) {
		return Move{}, fmt.Errorf("%w: step index %d out of range [0, %d)", domain.ErrInvalidTransition, index, len(c.session.Steps))
	}
	from := c.session.CurrentStepIndex
	if index == from {
		return Move{From: from, To: from}, nil
	}
	if index > from {
		if res, blocked := c.firstBlocking(index, c.draft.Snapshot()); blocked {
			return c.block(ctx, from, index, res), nil
		}
	}
	return c.moveTo(ctx, from, index), nil
}

// GoToStepID jumps to the step with the given id.
func (c *Controller) GoToStepID(ctx context.Context, id string) (Move, error) {
	i := domain.IndexOf(c.session.Steps, id)
	if i < 0 {
		return Move{}, fmt.Errorf("%w: %s", domain.ErrStepNotFound, id)
	}
	return c.GoToStep(ctx, i)
}

// Cancel terminates the session. Pending checkpoint writes are dropped; a committed
// checkpoint stays resumable until it expires.
func (c *Controller) Cancel(ctx context.Context) error {
	if c.session.Terminal() {
		return domain.ErrSessionClosed
	}
	if step, ok := c.session.CurrentStep(); ok {
		c.emitStep(ctx, domain.EventStepLeave, step, c.session.CurrentStepIndex)
	}
	c.session.Status = domain.StatusCancelled
	if c.checkpointer != nil {
		c.checkpointer.Cancel(c.session.Key)
	}
	c.logger.Info("session cancelled", "key", c.session.Key.String(), "session_id", c.session.SessionID)
	return nil
}

// Validate evaluates one step of the active variant against the current draft.
func (c *Controller) Validate(stepID string) (domain.ValidationResult, error) {
	return c.validator.Validate(stepID, c.draft.Snapshot())
}

// ValidateAll evaluates every step of the active variant.
func (c *Controller) ValidateAll() []domain.ValidationResult {
	return c.validator.ValidateAll(c.draft.Snapshot())
}

// Current returns the active step. ok is false once the session is terminal.
func (c *Controller) Current() (domain.StepDescriptor, bool) {
	return c.session.CurrentStep()
}

// Status returns the lifecycle position of the session.
func (c *Controller) Status() domain.SessionStatus {
	return c.session.Status
}

// Key returns the progress key of the session.
func (c *Controller) Key() domain.ProgressKey {
	return c.session.Key
}

// Session returns a copy of the live session.
func (c *Controller) Session() *domain.WizardSession {
	s := c.session
	s.Steps = append([]domain.StepDescriptor(nil), c.session.Steps...)
	s.Draft = c.draft.Snapshot()
	if c.session.LastCheckpointAt != nil {
		t := *c.session.LastCheckpointAt
		s.LastCheckpointAt = &t
	}
	return &s
}

// MarkCheckpointed records the time of the latest committed checkpoint.
func (c *Controller) MarkCheckpointed(at time.Time) {
	c.session.LastCheckpointAt = &at
}

func (c *Controller) moveTo(ctx context.Context, from, to int) Move {
	c.emitStep(ctx, domain.EventStepLeave, c.session.Steps[from], from)
	c.session.CurrentStepIndex = to
	c.emitStep(ctx, domain.EventStepEnter, c.session.Steps[to], to)
	c.touch()
	return Move{From: from, To: to}
}

func (c *Controller) complete(ctx context.Context, from int, d domain.ClaimDraft) (Move, error) {
	final := c.Session()
	final.Draft = d
	final.Status = domain.StatusCompleted

	sub, err := c.submit(ctx, final)
	if err != nil {
		// Still on the last step; the draft stays checkpointed for a retry.
		c.logger.Warn("submission failed", "key", c.session.Key.String(), "session_id", c.session.SessionID, "err", err)
		c.touch()
		return Move{From: from, To: from}, fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, err)
	}

	c.emitStep(ctx, domain.EventStepLeave, c.session.Steps[from], from)
	c.session.Status = domain.StatusCompleted
	c.session.CurrentStepIndex = len(c.session.Steps)
	c.session.LastActiveAt = c.now()

	if c.checkpointer != nil {
		if err := c.checkpointer.Finalize(ctx, c.session.Key, c.session.SessionID); err != nil {
			c.logger.Warn("failed to finalize progress record", "key", c.session.Key.String(), "err", err)
		}
	}
	c.logger.Info("claim submitted", "key", c.session.Key.String(), "claim_id", sub.ClaimID)
	return Move{From: from, To: len(c.session.Steps), Completed: true, ClaimID: sub.ClaimID}, nil
}

func (c *Controller) submit(ctx context.Context, final *domain.WizardSession) (ports.Submission, error) {
	var (
		sub ports.Submission
		err error
	)
	if c.submitter != nil {
		sub, err = c.submitter.Submit(ctx, final)
	}
	if c.hooks.OnSubmitted != nil {
		c.hooks.OnSubmitted(ctx, &domain.SubmitEvent{
			EventBase: c.eventBase(domain.EventSubmitted),
			ClaimID:   sub.ClaimID,
			Err:       err,
		})
	}
	return sub, err
}

// firstBlocking returns the first failing required step among steps[0:upTo].
func (c *Controller) firstBlocking(upTo int, d domain.ClaimDraft) (domain.ValidationResult, bool) {
	for _, step := range c.session.Steps[:upTo] {
		if !step.Required {
			continue
		}
		res, err := c.validator.Validate(step.ID, d)
		if err == nil && !res.IsValid {
			return res, true
		}
	}
	return domain.ValidationResult{}, false
}

func (c *Controller) block(ctx context.Context, from, target int, gate domain.ValidationResult) Move {
	if c.hooks.OnTransitionBlocked != nil {
		c.hooks.OnTransitionBlocked(ctx, &domain.BlockedEvent{
			EventBase: c.eventBase(domain.EventTransitionBlocked),
			From:      from,
			Target:    target,
			Gate:      gate,
		})
	}
	c.logger.Debug("transition blocked", "from", from, "target", target, "step", gate.StepID, "errors", len(gate.Errors))
	return Move{From: from, To: from, Blocked: true, Gate: &gate}
}

// touch updates activity and schedules a checkpoint of the current state.
func (c *Controller) touch() {
	c.session.LastActiveAt = c.now()
	if c.checkpointer != nil {
		c.checkpointer.Schedule(c.Session(), c.ValidateAll())
	}
}

func (c *Controller) emitStep(ctx context.Context, t domain.EventType, step domain.StepDescriptor, index int) {
	hook := c.hooks.OnStepEnter
	if t == domain.EventStepLeave {
		hook = c.hooks.OnStepLeave
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.StepEvent{
		EventBase: c.eventBase(t),
		StepID:    step.ID,
		StepIndex: index,
	})
}

func (c *Controller) eventBase(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: c.now(),
		Type:      t,
		SessionID: c.session.SessionID,
		Variant:   c.session.Variant,
	}
}
