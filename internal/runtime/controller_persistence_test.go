package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/claimdesk/intake/internal/runtime"
	"github.com/claimdesk/intake/pkg/adapters/memory"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPersisted(t *testing.T, opts ...runtime.Option) (*runtime.Controller, *persistence.Adapter, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	adapter := persistence.New(store, persistence.WithDebounce(time.Hour))
	t.Cleanup(func() { _ = adapter.Close(context.Background()) })
	c := newController(t, domain.VariantManual, append(opts, runtime.WithCheckpointer(adapter))...)
	return c, adapter, store
}

func TestController_CheckpointsProgress(t *testing.T) {
	c, adapter, store := newPersisted(t)
	ctx := context.Background()
	key := keyFor(domain.VariantManual)

	mustPatch(t, c, clientPatch)
	_, err := c.GoNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, persistence.SavePending, adapter.Status(key).State)

	require.NoError(t, adapter.Flush(ctx, key))
	cp, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, cp.CurrentStepIndex)
	assert.Equal(t, 7, cp.TotalSteps)
	assert.True(t, cp.PerStepStatus[domain.StepClientDetails].Completed)
	assert.Equal(t, domain.ProgressPercent(1, 7), cp.ProgressPercent)
	assert.Equal(t, "session-1", cp.SessionID)
}

func TestController_CancelKeepsCommittedCheckpoint(t *testing.T) {
	c, adapter, store := newPersisted(t)
	ctx := context.Background()
	key := keyFor(domain.VariantManual)

	mustPatch(t, c, clientPatch)
	require.NoError(t, adapter.Flush(ctx, key))

	mustPatch(t, c, insurancePatch)
	require.NoError(t, c.Cancel(ctx))
	require.NoError(t, adapter.Flush(ctx, key), "pending write was dropped")

	cp, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.NotContains(t, cp.Draft, domain.SectionPolicy)
	assert.Contains(t, cp.Draft, domain.SectionInsured)
}

func TestController_CompletionFinalizes(t *testing.T) {
	sub := memory.NewSubmitter()
	c, adapter, store := newPersisted(t, runtime.WithSubmitter(sub))
	ctx := context.Background()
	key := keyFor(domain.VariantManual)

	mustPatch(t, c, completeManualDraft()...)
	_, err := c.GoToStep(ctx, 6)
	require.NoError(t, err)
	require.NoError(t, adapter.Flush(ctx, key))

	move, err := c.GoNext(ctx)
	require.NoError(t, err)
	require.True(t, move.Completed)

	_, err = store.Load(ctx, key)
	assert.ErrorIs(t, err, domain.ErrCheckpointNotFound, "finalize removes the progress record")
}

func TestController_SubmitFailureKeepsCheckpoint(t *testing.T) {
	sub := memory.NewSubmitter()
	sub.SetErr(assert.AnError)
	c, adapter, store := newPersisted(t, runtime.WithSubmitter(sub))
	ctx := context.Background()
	key := keyFor(domain.VariantManual)

	mustPatch(t, c, completeManualDraft()...)
	_, err := c.GoToStep(ctx, 6)
	require.NoError(t, err)

	_, err = c.GoNext(ctx)
	require.ErrorIs(t, err, domain.ErrSubmissionFailed)
	require.NoError(t, adapter.Flush(ctx, key))

	cp, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 6, cp.CurrentStepIndex)
}

func TestController_LifecycleHooks(t *testing.T) {
	var entered, left []string
	var blocked []*domain.BlockedEvent
	var submitted []*domain.SubmitEvent

	hooks := domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) { entered = append(entered, e.StepID) },
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) { left = append(left, e.StepID) },
		OnTransitionBlocked: func(_ context.Context, e *domain.BlockedEvent) {
			blocked = append(blocked, e)
		},
		OnSubmitted: func(_ context.Context, e *domain.SubmitEvent) { submitted = append(submitted, e) },
	}
	c := newController(t, domain.VariantManual,
		runtime.WithLifecycleHooks(hooks),
		runtime.WithSubmitter(memory.NewSubmitter()))
	ctx := context.Background()

	c.Start(ctx)
	assert.Equal(t, []string{domain.StepClientDetails}, entered)

	_, err := c.GoNext(ctx)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, 0, blocked[0].From)
	assert.Equal(t, 1, blocked[0].Target)
	assert.Equal(t, domain.EventTransitionBlocked, blocked[0].Type)
	assert.Equal(t, "session-1", blocked[0].SessionID)

	mustPatch(t, c, clientPatch)
	_, err = c.GoNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.StepClientDetails}, left)
	assert.Equal(t, []string{domain.StepClientDetails, domain.StepInsuranceInfo}, entered)

	mustPatch(t, c, completeManualDraft()...)
	_, err = c.GoToStep(ctx, 6)
	require.NoError(t, err)
	_, err = c.GoNext(ctx)
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	assert.NotEmpty(t, submitted[0].ClaimID)
	assert.NoError(t, submitted[0].Err)
	assert.Equal(t, domain.StepReview, left[len(left)-1])
}
