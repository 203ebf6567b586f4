package ports

import (
	"context"

	"github.com/claimdesk/intake/pkg/domain"
)

// CheckpointStore defines the interface for persisting wizard progress.
// Each key holds at most one checkpoint; Save overwrites it.
type CheckpointStore interface {
	// Save inserts or replaces the checkpoint stored under checkpoint.Key.
	Save(ctx context.Context, checkpoint *domain.Checkpoint) error

	// Load retrieves the checkpoint for a key.
	// Returns domain.ErrCheckpointNotFound if none exists.
	Load(ctx context.Context, key domain.ProgressKey) (*domain.Checkpoint, error)

	// Delete removes the checkpoint for a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key domain.ProgressKey) error

	// List returns the keys of all stored checkpoints.
	List(ctx context.Context) ([]domain.ProgressKey, error)
}
