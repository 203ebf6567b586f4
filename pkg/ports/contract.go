package ports

import (
	"context"
	"testing"
	"time"

	"github.com/claimdesk/intake/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCheckpointStoreContract runs a suite of tests to verify that a CheckpointStore
// implementation adheres to the defined interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000")
	key := domain.ProgressKey{UserID: "contract-user-" + suffix, OrganizationID: "contract-org", Variant: domain.VariantManual}

	newCheckpoint := func(k domain.ProgressKey, step int) *domain.Checkpoint {
		now := time.Now().UTC().Truncate(time.Second)
		return &domain.Checkpoint{
			Key:              k,
			SessionID:        "session-" + suffix,
			CurrentStepIndex: step,
			TotalSteps:       7,
			ProgressPercent:  domain.ProgressPercent(step, 7),
			Draft: domain.ClaimDraft{
				domain.SectionInsured: map[string]any{"firstName": "Jane"},
			},
			PerStepStatus: map[string]domain.StepStatus{
				domain.StepClientDetails: {Completed: false, Errors: []string{"Address is required"}},
			},
			SavedAt:      now,
			LastActiveAt: now,
			ExpiresAt:    now.Add(24 * time.Hour),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		cp := newCheckpoint(key, 2)
		require.NoError(t, store.Save(ctx, cp), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, key, loaded.Key)
		assert.Equal(t, cp.SessionID, loaded.SessionID)
		assert.Equal(t, 2, loaded.CurrentStepIndex)
		assert.Equal(t, 7, loaded.TotalSteps)
		assert.Equal(t, map[string]any{"firstName": "Jane"}, loaded.Draft[domain.SectionInsured])
		assert.Equal(t, []string{"Address is required"}, loaded.PerStepStatus[domain.StepClientDetails].Errors)
		assert.True(t, cp.ExpiresAt.Equal(loaded.ExpiresAt), "ExpiresAt must round-trip")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newCheckpoint(key, 1)))
		require.NoError(t, store.Save(ctx, newCheckpoint(key, 4)))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 4, loaded.CurrentStepIndex)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		missing := key
		missing.UserID = "missing-" + suffix
		_, err := store.Load(ctx, missing)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newCheckpoint(key, 0)))
		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound, "Load after Delete should return ErrCheckpointNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		k1 := key
		k1.Variant = domain.VariantManual
		k2 := key
		k2.Variant = domain.VariantAIAssisted
		require.NoError(t, store.Save(ctx, newCheckpoint(k1, 0)))
		require.NoError(t, store.Save(ctx, newCheckpoint(k2, 0)))
		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})

	t.Run("Keys Are Independent", func(t *testing.T) {
		other := key
		other.OrganizationID = "other-org"
		require.NoError(t, store.Save(ctx, newCheckpoint(key, 3)))
		require.NoError(t, store.Save(ctx, newCheckpoint(other, 5)))
		defer func() {
			_ = store.Delete(ctx, key)
			_ = store.Delete(ctx, other)
		}()

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 3, loaded.CurrentStepIndex)
	})
}
