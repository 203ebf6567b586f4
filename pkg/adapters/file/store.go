package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/claimdesk/intake/pkg/domain"
)

// Store implements ports.CheckpointStore using the local filesystem.
// Checkpoints live at <base>/<organization>/<user>/<variant>.json.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".intake/progress".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".intake", "progress")
	}
	return &Store{BasePath: basePath}
}

// escape makes a key component safe as a single path element, including "." and "..".
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), ".", "%2E")
}

func (s *Store) path(key domain.ProgressKey) string {
	return filepath.Join(s.BasePath, escape(key.OrganizationID), escape(key.UserID), escape(key.Variant)+".json")
}

// Save persists the checkpoint to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, checkpoint *domain.Checkpoint) error {
	if err := checkpoint.Key.Validate(); err != nil {
		return err
	}

	destPath := s.path(checkpoint.Key)
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure progress directory: %w", err)
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to checkpoint: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint from its JSON file.
func (s *Store) Load(ctx context.Context, key domain.ProgressKey) (*domain.Checkpoint, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete removes the checkpoint file.
func (s *Store) Delete(ctx context.Context, key domain.ProgressKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint file: %w", err)
	}
	return nil
}

// List returns the keys of all stored checkpoints.
func (s *Store) List(ctx context.Context) ([]domain.ProgressKey, error) {
	var keys []domain.ProgressKey
	err := filepath.WalkDir(s.BasePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.BasePath {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" || strings.HasPrefix(d.Name(), "tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.BasePath, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			return nil
		}
		var vals [3]string
		for i, p := range parts {
			v, err := url.QueryUnescape(strings.TrimSuffix(p, ".json"))
			if err != nil {
				return nil
			}
			vals[i] = v
		}
		keys = append(keys, domain.ProgressKey{OrganizationID: vals[0], UserID: vals[1], Variant: vals[2]})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	return keys, nil
}
