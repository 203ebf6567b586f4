package persistence

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/claimdesk/intake/internal/logging"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/ports"
)

const (
	DefaultDebounce     = 2 * time.Second
	DefaultTTL          = 7 * 24 * time.Hour
	DefaultWriteTimeout = 10 * time.Second
)

// Adapter is the debounced checkpoint writer and reader.
// Safe for concurrent use; each key behaves as a single writer.
type Adapter struct {
	store        ports.CheckpointStore
	delay        time.Duration
	ttl          time.Duration
	writeTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
	hooks        domain.LifecycleHooks

	mu      sync.Mutex
	entries map[domain.ProgressKey]*entry
	closed  bool
	timers  sync.WaitGroup

	// finalized maps a key to its last submitted session id. It outlives
	// Forget so a record whose delete failed is never resumed.
	finalized map[domain.ProgressKey]string
}

type entry struct {
	// write serializes store calls for the key so they land in schedule order.
	write sync.Mutex

	gen     uint64
	timer   *time.Timer
	pending *domain.Checkpoint
	status  SaveStatus
}

// Option configures the Adapter.
type Option func(*Adapter)

// WithDebounce sets the quiet period before a scheduled checkpoint is written.
func WithDebounce(d time.Duration) Option {
	return func(a *Adapter) { a.delay = d }
}

// WithTTL sets how long a checkpoint stays resumable. Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(a *Adapter) { a.ttl = d }
}

// WithWriteTimeout bounds each background store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.writeTimeout = d }
}

// WithClock overrides time.Now for timestamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// WithLogger sets a structured logger for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// WithHooks registers checkpoint lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Adapter) { a.hooks = a.hooks.Merge(hooks) }
}

// New creates an Adapter over store.
func New(store ports.CheckpointStore, opts ...Option) *Adapter {
	a := &Adapter{
		store:        store,
		delay:        DefaultDebounce,
		ttl:          DefaultTTL,
		writeTimeout: DefaultWriteTimeout,
		now:          time.Now,
		logger:       logging.NewNop(),
		entries:      make(map[domain.ProgressKey]*entry),
		finalized:    make(map[domain.ProgressKey]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TTL returns the configured checkpoint lifetime.
func (a *Adapter) TTL() time.Duration { return a.ttl }

// Schedule snapshots the session and arms the debounce timer for its key.
// A newer call for the same key supersedes the pending snapshot and restarts the timer.
// Terminal sessions and sessions already finalized are ignored.
func (a *Adapter) Schedule(session *domain.WizardSession, results []domain.ValidationResult) {
	if session == nil || session.Terminal() {
		return
	}
	cp := NewCheckpoint(session, results, a.now(), a.ttl)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if done := a.finalized[session.Key]; done != "" && done == session.SessionID {
		return
	}
	e := a.entryLocked(session.Key)

	a.stopLocked(e)
	e.gen++
	e.pending = cp
	e.status.State = SavePending

	gen := e.gen
	a.timers.Add(1)
	e.timer = time.AfterFunc(a.delay, func() {
		defer a.timers.Done()
		a.fire(e, gen)
	})
}

// fire writes the pending snapshot if generation gen is still current.
func (a *Adapter) fire(e *entry, gen uint64) {
	e.write.Lock()
	defer e.write.Unlock()

	a.mu.Lock()
	if e.gen != gen || e.pending == nil {
		a.mu.Unlock()
		return
	}
	cp := e.pending
	e.pending = nil
	e.timer = nil
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), a.writeTimeout)
	defer cancel()
	_ = a.write(ctx, e, gen, cp)
}

// write stores cp and records the outcome. Callers hold e.write.
func (a *Adapter) write(ctx context.Context, e *entry, gen uint64, cp *domain.Checkpoint) error {
	start := a.now()
	err := a.store.Save(ctx, cp)
	elapsed := a.now().Sub(start)

	event := &domain.CheckpointEvent{
		EventBase: domain.EventBase{
			Timestamp: a.now(),
			SessionID: cp.SessionID,
			Variant:   cp.Key.Variant,
		},
		Key:      cp.Key,
		Duration: elapsed,
		Err:      err,
	}

	a.mu.Lock()
	superseded := e.gen != gen && e.pending != nil
	if err == nil && a.finalized[cp.Key] != cp.SessionID {
		// A newer session overwrote whatever the finalized one left behind.
		delete(a.finalized, cp.Key)
	}
	if err != nil {
		e.status.Failures++
		e.status.LastError = err.Error()
		e.status.State = SaveUnsaved
	} else {
		e.status.LastSavedAt = cp.SavedAt
		e.status.LastError = ""
		if !superseded {
			e.status.State = SaveSaved
		}
	}
	a.mu.Unlock()

	if err != nil {
		a.logger.Warn("checkpoint write failed", "key", cp.Key.String(), "session_id", cp.SessionID, "err", err)
		event.Type = domain.EventCheckpointFailed
		if a.hooks.OnCheckpointFailed != nil {
			a.hooks.OnCheckpointFailed(ctx, event)
		}
		return err
	}

	a.logger.Debug("checkpoint saved", "key", cp.Key.String(), "step", cp.CurrentStepIndex, "duration", elapsed)
	event.Type = domain.EventCheckpointSaved
	if a.hooks.OnCheckpointSaved != nil {
		a.hooks.OnCheckpointSaved(ctx, event)
	}
	return nil
}

// Flush writes the pending snapshot for key immediately.
// It returns the write error, if any; with nothing pending it is a no-op.
func (a *Adapter) Flush(ctx context.Context, key domain.ProgressKey) error {
	a.mu.Lock()
	e, ok := a.entries[key]
	a.mu.Unlock()
	if !ok {
		return nil
	}

	e.write.Lock()
	defer e.write.Unlock()

	a.mu.Lock()
	cp := e.pending
	gen := e.gen
	if cp != nil {
		a.stopLocked(e)
		e.pending = nil
	}
	a.mu.Unlock()

	if cp == nil {
		return nil
	}
	return a.write(ctx, e, gen, cp)
}

// Cancel drops any pending write for key. Already committed checkpoints stay resumable.
func (a *Adapter) Cancel(key domain.ProgressKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[key]
	if !ok {
		return
	}
	a.stopLocked(e)
	e.gen++
	e.pending = nil
	if e.status.State == SavePending {
		e.status.State = SaveIdle
		if !e.status.LastSavedAt.IsZero() {
			e.status.State = SaveSaved
		}
	}
}

// Load returns the checkpoint for key.
// Expired checkpoints are deleted and reported as domain.ErrCheckpointExpired.
// A checkpoint left behind by a submitted session is reported as not found and
// its delete is retried.
func (a *Adapter) Load(ctx context.Context, key domain.ProgressKey) (*domain.Checkpoint, error) {
	cp, err := a.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	done := a.finalized[key]
	a.mu.Unlock()
	if done != "" && done == cp.SessionID {
		if derr := a.store.Delete(ctx, key); derr != nil {
			a.logger.Warn("failed to remove progress of submitted session", "key", key.String(), "session_id", done, "err", derr)
		} else {
			a.clearStatus(key)
		}
		return nil, domain.ErrCheckpointNotFound
	}

	if cp.Expired(a.now()) {
		if derr := a.store.Delete(ctx, key); derr != nil {
			a.logger.Warn("failed to prune expired checkpoint", "key", key.String(), "err", derr)
		}
		return nil, domain.ErrCheckpointExpired
	}
	return cp, nil
}

// Finalize stops checkpointing for the session and removes its progress record.
// Later Schedule calls carrying the same session id are ignored.
// When the delete fails the status turns unsaved and Load keeps hiding the
// record, retrying the delete, until another session overwrites it.
func (a *Adapter) Finalize(ctx context.Context, key domain.ProgressKey, sessionID string) error {
	a.mu.Lock()
	e := a.entryLocked(key)
	a.stopLocked(e)
	e.gen++
	e.pending = nil
	if sessionID != "" {
		a.finalized[key] = sessionID
	}
	a.mu.Unlock()

	// Wait for an in-flight write so the delete lands after it.
	e.write.Lock()
	defer e.write.Unlock()

	if err := a.store.Delete(ctx, key); err != nil {
		a.mu.Lock()
		e.status.State = SaveUnsaved
		e.status.LastError = err.Error()
		e.status.Failures++
		a.mu.Unlock()
		a.logger.Warn("failed to delete progress record", "key", key.String(), "session_id", sessionID, "err", err)
		return err
	}

	a.mu.Lock()
	e.status = SaveStatus{State: SaveIdle}
	a.mu.Unlock()
	return nil
}

func (a *Adapter) clearStatus(key domain.ProgressKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if e, ok := a.entries[key]; ok && e.pending == nil {
		e.status = SaveStatus{State: SaveIdle}
	}
}

// Status reports the save indicator for key.
func (a *Adapter) Status(key domain.ProgressKey) SaveStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[key]
	if !ok {
		return SaveStatus{State: SaveIdle}
	}
	return e.status
}

// Forget releases the bookkeeping of key after dropping any pending write.
func (a *Adapter) Forget(key domain.ProgressKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if e, ok := a.entries[key]; ok {
		a.stopLocked(e)
		e.gen++
		e.pending = nil
		delete(a.entries, key)
	}
}

// Close flushes every pending snapshot and waits for background writes.
// Schedule calls after Close are ignored.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	keys := make([]domain.ProgressKey, 0, len(a.entries))
	for k, e := range a.entries {
		if e.pending != nil {
			keys = append(keys, k)
		}
	}
	a.mu.Unlock()

	var errs []error
	for _, k := range keys {
		if err := a.Flush(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}

	done := make(chan struct{})
	go func() {
		a.timers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}
	return errors.Join(errs...)
}

func (a *Adapter) entryLocked(key domain.ProgressKey) *entry {
	e, ok := a.entries[key]
	if !ok {
		e = &entry{status: SaveStatus{State: SaveIdle}}
		a.entries[key] = e
	}
	return e
}

// stopLocked disarms the timer of e. Callers hold a.mu.
func (a *Adapter) stopLocked(e *entry) {
	if e.timer != nil && e.timer.Stop() {
		a.timers.Done()
	}
	e.timer = nil
}
