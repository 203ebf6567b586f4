package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/claimdesk/intake/internal/runtime"
	"github.com/claimdesk/intake/pkg/adapters/memory"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/persistence"
	"github.com/claimdesk/intake/pkg/ports"
	"github.com/claimdesk/intake/pkg/registry"
	"github.com/claimdesk/intake/pkg/session"
	"github.com/claimdesk/intake/pkg/validator"
)

// Version is the release of the intake engine. Overridden at build time with -ldflags.
var Version = "0.1.0"

// Controller is the navigation controller of one live session.
type Controller = runtime.Controller

// Move is the outcome of a navigation request.
type Move = runtime.Move

// Engine is the high-level entry point for the intake library.
// It wires the step registry, checkpoint persistence and session manager.
type Engine struct {
	registry    *registry.Registry
	store       ports.CheckpointStore
	submitter   ports.Submitter
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	hooks       domain.LifecycleHooks
	rules       validator.Rules
	logger      *slog.Logger
	persistOpts []persistence.Option
	closers     []io.Closer

	persistence *persistence.Adapter
	sessions    *session.Manager
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry replaces the built-in step variants.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithStore sets the checkpoint store. The default keeps checkpoints in memory.
func WithStore(s ports.CheckpointStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithSubmitter sets the collaborator receiving completed claims.
func WithSubmitter(s ports.Submitter) Option {
	return func(e *Engine) { e.submitter = s }
}

// WithLocker enables distributed locking of sessions across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithLockTTL bounds how long a crashed replica can hold a session lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.lockTTL = ttl }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = e.hooks.Merge(hooks) }
}

// WithRules overrides validation rules by step id.
func WithRules(rules validator.Rules) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithPersistenceOptions tunes checkpointing (debounce, TTL, write timeout).
func WithPersistenceOptions(opts ...persistence.Option) Option {
	return func(e *Engine) { e.persistOpts = append(e.persistOpts, opts...) }
}

// WithCloser registers a resource released by Close, such as a database handle.
func WithCloser(c io.Closer) Option {
	return func(e *Engine) { e.closers = append(e.closers, c) }
}

// New initializes an Engine. Without options it serves the built-in variants
// from memory and records submitted claims in memory.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	if e.registry == nil {
		e.registry = registry.Default()
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.submitter == nil {
		e.submitter = memory.NewSubmitter()
	}
	// Ensure logger is initialized (so we don't pass nil down, which would overwrite defaults)
	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	persistOpts := append([]persistence.Option{
		persistence.WithLogger(e.logger),
		persistence.WithHooks(e.hooks),
	}, e.persistOpts...)
	e.persistence = persistence.New(e.store, persistOpts...)

	sessionOpts := []session.Option{
		session.WithSubmitter(e.submitter),
		session.WithLifecycleHooks(e.hooks),
		session.WithLogger(e.logger),
	}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	if e.lockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(e.lockTTL))
	}
	if e.rules != nil {
		sessionOpts = append(sessionOpts, session.WithRules(e.rules))
	}
	e.sessions = session.NewManager(e.registry, e.persistence, sessionOpts...)
	return e, nil
}

// Start resumes the session of key from its checkpoint or starts a new one from seed.
func (e *Engine) Start(ctx context.Context, key domain.ProgressKey, seed domain.ClaimDraft) (*domain.WizardSession, bool, error) {
	return e.sessions.Start(ctx, key, seed)
}

// Do runs fn with exclusive access to the live controller of key.
func (e *Engine) Do(ctx context.Context, key domain.ProgressKey, fn func(context.Context, *Controller) error) error {
	return e.sessions.Do(ctx, key, fn)
}

// Session returns a copy of the live session of key.
func (e *Engine) Session(ctx context.Context, key domain.ProgressKey) (*domain.WizardSession, error) {
	return e.sessions.Get(ctx, key)
}

// Checkpoint loads the saved progress of key without starting a session.
func (e *Engine) Checkpoint(ctx context.Context, key domain.ProgressKey) (*domain.Checkpoint, error) {
	return e.persistence.Load(ctx, key)
}

// Drop releases the live session of key after writing pending progress.
func (e *Engine) Drop(ctx context.Context, key domain.ProgressKey) error {
	return e.sessions.Drop(ctx, key)
}

// Sessions exposes the session manager for transports such as HTTP.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Registry returns the step variants served by the engine.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Store returns the checkpoint store.
func (e *Engine) Store() ports.CheckpointStore { return e.store }

// Close flushes pending checkpoints and releases registered resources.
func (e *Engine) Close(ctx context.Context) error {
	errs := []error{e.sessions.Close(ctx)}
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
