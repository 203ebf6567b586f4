package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claimdesk/intake/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.CheckpointStore using Redis.
// Each checkpoint is a JSON string expiring at its ExpiresAt; a ZSET index
// scored by expiry supports List with lazy pruning.
type Store struct {
	client *backend.Client
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix for checkpoints.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "intake:progress:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(key domain.ProgressKey) string {
	return s.prefix + key.String()
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// farFuture scores checkpoints that never expire.
const farFuture = 4102444800 // 2100-01-01

// Save persists the checkpoint with a TTL derived from ExpiresAt.
func (s *Store) Save(ctx context.Context, checkpoint *domain.Checkpoint) error {
	if err := checkpoint.Key.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	var ttl time.Duration
	score := float64(farFuture)
	if !checkpoint.ExpiresAt.IsZero() {
		ttl = time.Until(checkpoint.ExpiresAt)
		if ttl <= 0 {
			// Already expired: behave as if it was written and immediately pruned.
			return s.Delete(ctx, checkpoint.Key)
		}
		score = float64(checkpoint.ExpiresAt.Unix())
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(checkpoint.Key), data, ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: checkpoint.Key.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint from Redis.
func (s *Store) Load(ctx context.Context, key domain.ProgressKey) (*domain.Checkpoint, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal([]byte(val), &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// Delete removes the checkpoint and its index entry.
func (s *Store) Delete(ctx context.Context, key domain.ProgressKey) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(key))
	pipe.ZRem(ctx, s.indexKey(), key.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List returns the keys of unexpired checkpoints, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]domain.ProgressKey, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired checkpoints: %w", err)
	}

	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	keys := make([]domain.ProgressKey, 0, len(members))
	for _, m := range members {
		k, err := domain.ParseProgressKey(m)
		if err != nil {
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
