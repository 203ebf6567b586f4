package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/claimdesk/intake/internal/runtime"
	"github.com/claimdesk/intake/pkg/adapters/memory"
	redisadapter "github.com/claimdesk/intake/pkg/adapters/redis"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/persistence"
	"github.com/claimdesk/intake/pkg/registry"
	"github.com/claimdesk/intake/pkg/session"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = domain.ProgressKey{UserID: "u1", OrganizationID: "o1", Variant: domain.VariantManual}

func newManager(t *testing.T, store *memory.Store, opts ...session.Option) *session.Manager {
	t.Helper()
	adapter := persistence.New(store, persistence.WithDebounce(time.Hour))
	m := session.NewManager(registry.Default(), adapter, opts...)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m
}

func patch(p domain.Patch) func(context.Context, *runtime.Controller) error {
	return func(_ context.Context, c *runtime.Controller) error {
		_, err := c.Patch(p)
		return err
	}
}

func TestManager_StartFresh(t *testing.T) {
	m := newManager(t, memory.NewStore())
	ctx := context.Background()

	seed := domain.ClaimDraft{domain.SectionPolicy: map[string]any{"carrierName": "Acme"}}
	s, resumed, err := m.Start(ctx, key, seed)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.NotEmpty(t, s.SessionID)
	assert.Equal(t, 0, s.CurrentStepIndex)
	assert.Equal(t, seed, s.Draft)
	assert.Equal(t, 1, m.Live())

	again, resumed, err := m.Start(ctx, key, nil)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Equal(t, s.SessionID, again.SessionID, "a live session is returned as-is")
}

func TestManager_ResumeAfterDrop(t *testing.T) {
	store := memory.NewStore()
	m := newManager(t, store)
	ctx := context.Background()

	s, _, err := m.Start(ctx, key, nil)
	require.NoError(t, err)
	require.NoError(t, m.Do(ctx, key, patch(domain.Patch{
		domain.SectionInsured: map[string]any{"firstName": "Jane", "mailingAddress": map[string]any{"street": "1 Main"}},
	})))
	require.NoError(t, m.Do(ctx, key, func(ctx context.Context, c *runtime.Controller) error {
		_, err := c.GoNext(ctx)
		return err
	}))

	require.NoError(t, m.Drop(ctx, key))
	assert.Equal(t, 0, m.Live())

	_, err = m.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// A second manager over the same store stands in for another replica.
	other := newManager(t, store)
	resumedSession, resumed, err := other.Start(ctx, key, nil)
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, s.SessionID, resumedSession.SessionID)
	assert.Equal(t, 1, resumedSession.CurrentStepIndex)
	assert.Contains(t, resumedSession.Draft, domain.SectionInsured)
	assert.NotNil(t, resumedSession.LastCheckpointAt)
}

func TestManager_ExpiredCheckpointStartsFresh(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.Checkpoint{
		Key:              key,
		SessionID:        "stale",
		CurrentStepIndex: 3,
		ExpiresAt:        time.Now().Add(-time.Minute),
	}))

	m := newManager(t, store)
	s, resumed, err := m.Start(ctx, key, nil)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.NotEqual(t, "stale", s.SessionID)
	assert.Equal(t, 0, s.CurrentStepIndex)
}

func TestManager_StartErrors(t *testing.T) {
	m := newManager(t, memory.NewStore())
	ctx := context.Background()

	_, _, err := m.Start(ctx, domain.ProgressKey{UserID: "u"}, nil)
	assert.Error(t, err)

	_, _, err = m.Start(ctx, domain.ProgressKey{UserID: "u", OrganizationID: "o", Variant: "express"}, nil)
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)
}

func TestManager_SerializesAccess(t *testing.T) {
	m := newManager(t, memory.NewStore())
	ctx := context.Background()
	_, _, err := m.Start(ctx, key, nil)
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		inside int
		maxIn  int
		mu     sync.Mutex
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Do(ctx, key, func(context.Context, *runtime.Controller) error {
				mu.Lock()
				inside++
				if inside > maxIn {
					maxIn = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxIn)
}

func TestManager_CompletedSessionRestarts(t *testing.T) {
	sub := memory.NewSubmitter()
	m := newManager(t, memory.NewStore(), session.WithSubmitter(sub))
	ctx := context.Background()

	first, _, err := m.Start(ctx, key, nil)
	require.NoError(t, err)
	require.NoError(t, m.Do(ctx, key, func(ctx context.Context, c *runtime.Controller) error {
		_, err := c.Patch(domain.Patch{
			domain.SectionInsured:  map[string]any{"organizationName": "Doe LLC", "mailingAddress": map[string]any{"street": "1 Main"}},
			domain.SectionPolicy:   map[string]any{"carrierName": "Acme", "policyNumber": "P-1"},
			domain.SectionLoss:     map[string]any{"reason": "fire", "date": "2026-02-01"},
			domain.SectionProperty: map[string]any{"address": map[string]any{"street": "2 Oak"}, "propertyType": "commercial"},
		})
		if err != nil {
			return err
		}
		if _, err := c.GoToStep(ctx, 6); err != nil {
			return err
		}
		move, err := c.GoNext(ctx)
		require.True(t, move.Completed)
		return err
	}))
	assert.Len(t, sub.Claims(), 1)

	second, resumed, err := m.Start(ctx, key, nil)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, domain.StatusActive, second.Status)
}

// stuckDeleteStore refuses every Delete until healed.
type stuckDeleteStore struct {
	*memory.Store
	mu    sync.Mutex
	stuck bool
}

func (s *stuckDeleteStore) Delete(ctx context.Context, key domain.ProgressKey) error {
	s.mu.Lock()
	stuck := s.stuck
	s.mu.Unlock()
	if stuck {
		return errors.New("delete refused")
	}
	return s.Store.Delete(ctx, key)
}

func completeClaim(ctx context.Context, c *runtime.Controller) error {
	_, err := c.Patch(domain.Patch{
		domain.SectionInsured:  map[string]any{"organizationName": "Doe LLC", "mailingAddress": map[string]any{"street": "1 Main"}},
		domain.SectionPolicy:   map[string]any{"carrierName": "Acme", "policyNumber": "P-1"},
		domain.SectionLoss:     map[string]any{"reason": "fire", "date": "2026-02-01"},
		domain.SectionProperty: map[string]any{"address": map[string]any{"street": "2 Oak"}, "propertyType": "commercial"},
	})
	if err != nil {
		return err
	}
	if _, err := c.GoToStep(ctx, 6); err != nil {
		return err
	}
	move, err := c.GoNext(ctx)
	if err == nil && !move.Completed {
		return errors.New("claim not completed")
	}
	return err
}

func TestManager_FailedFinalizeDoesNotResumeSubmittedClaim(t *testing.T) {
	store := &stuckDeleteStore{Store: memory.NewStore(), stuck: true}
	sub := memory.NewSubmitter()
	adapter := persistence.New(store, persistence.WithDebounce(time.Hour))
	m := session.NewManager(registry.Default(), adapter, session.WithSubmitter(sub))
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	ctx := context.Background()

	// Leave a committed checkpoint behind, then resume and submit it.
	first, _, err := m.Start(ctx, key, nil)
	require.NoError(t, err)
	require.NoError(t, m.Do(ctx, key, patch(domain.Patch{domain.SectionPolicy: map[string]any{"carrierName": "Acme"}})))
	require.NoError(t, m.Drop(ctx, key))
	_, resumed, err := m.Start(ctx, key, nil)
	require.NoError(t, err)
	require.True(t, resumed)
	require.NoError(t, m.Do(ctx, key, completeClaim))
	require.Len(t, sub.Claims(), 1)

	_, err = store.Store.Load(ctx, key)
	require.NoError(t, err, "the refused delete leaves the record in place")
	assert.Equal(t, persistence.SaveUnsaved, m.SaveStatus(key).State)

	again, resumed, err := m.Start(ctx, key, nil)
	require.NoError(t, err)
	assert.False(t, resumed, "a submitted session is not resumed")
	assert.NotEqual(t, first.SessionID, again.SessionID)
	assert.Equal(t, 0, again.CurrentStepIndex)

	require.NoError(t, m.Do(ctx, key, patch(domain.Patch{domain.SectionLoss: map[string]any{"reason": "flood"}})))
	require.NoError(t, m.Drop(ctx, key))

	cp, err := store.Store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, again.SessionID, cp.SessionID, "edits after the restart are persisted")
	assert.Contains(t, cp.Draft, domain.SectionLoss)
	assert.Len(t, sub.Claims(), 1, "the claim is submitted once")
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := redisadapter.NewLocker(client, "")

	m := newManager(t, memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()
	_, _, err := m.Start(ctx, key, nil)
	require.NoError(t, err)

	err = m.Do(ctx, key, func(context.Context, *runtime.Controller) error {
		assert.True(t, mr.Exists("lock:"+key.String()), "distributed lock is held during fn")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("lock:"+key.String()), "lock released afterwards")
}
