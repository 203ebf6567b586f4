package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claimdesk/intake/internal/logging"
	"github.com/claimdesk/intake/internal/runtime"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/persistence"
	"github.com/claimdesk/intake/pkg/ports"
	"github.com/claimdesk/intake/pkg/registry"
	"github.com/claimdesk/intake/pkg/validator"
)

// DefaultLockTTL bounds how long a crashed replica can hold a distributed lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to live sessions.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	registry    *registry.Registry
	persistence *persistence.Adapter

	mu    sync.Mutex
	locks map[domain.ProgressKey]*lockEntry
	live  map[domain.ProgressKey]*runtime.Controller

	locker    ports.DistributedLocker
	lockTTL   time.Duration
	submitter ports.Submitter
	hooks     domain.LifecycleHooks
	rules     validator.Rules
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.lockTTL = ttl }
}

// WithSubmitter sets the collaborator receiving completed drafts.
func WithSubmitter(s ports.Submitter) Option {
	return func(m *Manager) { m.submitter = s }
}

// WithLifecycleHooks registers hooks on every controller the manager creates.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) { m.hooks = m.hooks.Merge(hooks) }
}

// WithRules adds or replaces validation rules for every session.
func WithRules(rules validator.Rules) Option {
	return func(m *Manager) { m.rules = rules }
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a session manager over a step registry and persistence adapter.
func NewManager(reg *registry.Registry, adapter *persistence.Adapter, opts ...Option) *Manager {
	m := &Manager{
		registry:    reg,
		persistence: adapter,
		locks:       make(map[domain.ProgressKey]*lockEntry),
		live:        make(map[domain.ProgressKey]*runtime.Controller),
		lockTTL:     DefaultLockTTL,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start returns the live session for key, resuming it from its checkpoint or
// starting a new one from seed. resumed reports whether a checkpoint was used.
func (m *Manager) Start(ctx context.Context, key domain.ProgressKey, seed domain.ClaimDraft) (session *domain.WizardSession, resumed bool, err error) {
	if err := key.Validate(); err != nil {
		return nil, false, err
	}
	err = m.WithLock(ctx, key, func(ctx context.Context) error {
		if c, ok := m.controller(key); ok && !c.Session().Terminal() {
			session = m.snapshot(c)
			return nil
		}

		steps, err := m.registry.Steps(key.Variant)
		if err != nil {
			return err
		}
		c, err := runtime.New(runtime.Config{Key: key, Steps: steps, Seed: seed}, m.controllerOptions()...)
		if err != nil {
			return err
		}

		cp, err := m.persistence.Load(ctx, key)
		switch {
		case err == nil:
			if err := c.Resume(cp); err != nil {
				return err
			}
			resumed = true
		case errors.Is(err, domain.ErrCheckpointNotFound):
			// Fresh session; an expired checkpoint was pruned by Load.
		default:
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}

		c.Start(ctx)
		m.mu.Lock()
		m.live[key] = c
		m.mu.Unlock()

		m.logger.Info("session started", "key", key.String(), "session_id", c.Session().SessionID, "resumed", resumed)
		session = m.snapshot(c)
		return nil
	})
	return session, resumed, err
}

// Get returns a copy of the live session for key.
func (m *Manager) Get(ctx context.Context, key domain.ProgressKey) (*domain.WizardSession, error) {
	var out *domain.WizardSession
	err := m.Do(ctx, key, func(_ context.Context, c *runtime.Controller) error {
		out = m.snapshot(c)
		return nil
	})
	return out, err
}

// Do runs fn with exclusive access to the live controller of key.
// It returns domain.ErrSessionNotFound when no session was started.
func (m *Manager) Do(ctx context.Context, key domain.ProgressKey, fn func(context.Context, *runtime.Controller) error) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		c, ok := m.controller(key)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, key)
		}
		if st := m.persistence.Status(key); !st.LastSavedAt.IsZero() {
			c.MarkCheckpointed(st.LastSavedAt)
		}
		return fn(ctx, c)
	})
}

// Drop releases the live session of key. Pending progress of an active session
// is written first so it can be resumed later.
func (m *Manager) Drop(ctx context.Context, key domain.ProgressKey) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		c, ok := m.controller(key)
		if !ok {
			return nil
		}
		var err error
		if !c.Session().Terminal() {
			err = m.persistence.Flush(ctx, key)
		}
		m.persistence.Forget(key)

		m.mu.Lock()
		delete(m.live, key)
		m.mu.Unlock()
		return err
	})
}

// SaveStatus reports the persistence indicator for key.
func (m *Manager) SaveStatus(key domain.ProgressKey) persistence.SaveStatus {
	return m.persistence.Status(key)
}

// Registry returns the step registry sessions are built from.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Live returns the number of sessions held in memory.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Close flushes pending checkpoints of every session.
func (m *Manager) Close(ctx context.Context) error {
	return m.persistence.Close(ctx)
}

// WithLock executes a function while holding the lock for key.
func (m *Manager) WithLock(ctx context.Context, key domain.ProgressKey, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key.String(), m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"key", key.String(),
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(key) after unlocking.
func (m *Manager) acquire(key domain.ProgressKey) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key domain.ProgressKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

func (m *Manager) controller(key domain.ProgressKey) (*runtime.Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.live[key]
	return c, ok
}

func (m *Manager) snapshot(c *runtime.Controller) *domain.WizardSession {
	if st := m.persistence.Status(c.Key()); !st.LastSavedAt.IsZero() {
		c.MarkCheckpointed(st.LastSavedAt)
	}
	return c.Session()
}

func (m *Manager) controllerOptions() []runtime.Option {
	opts := []runtime.Option{
		runtime.WithCheckpointer(m.persistence),
		runtime.WithLifecycleHooks(m.hooks),
		runtime.WithLogger(m.logger),
	}
	if m.submitter != nil {
		opts = append(opts, runtime.WithSubmitter(m.submitter))
	}
	if m.rules != nil {
		opts = append(opts, runtime.WithRules(m.rules))
	}
	return opts
}
