package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claimdesk/intake"
	"github.com/claimdesk/intake/internal/config"
	"github.com/claimdesk/intake/pkg/adapters/file"
	"github.com/claimdesk/intake/pkg/adapters/memory"
	redisadapter "github.com/claimdesk/intake/pkg/adapters/redis"
	"github.com/claimdesk/intake/pkg/adapters/sqlite"
	"github.com/claimdesk/intake/pkg/persistence"
	"github.com/claimdesk/intake/pkg/persistence/middleware"
	"github.com/claimdesk/intake/pkg/ports"
	"github.com/claimdesk/intake/pkg/registry"
	goredis "github.com/redis/go-redis/v9"
)

// Backend is a configured checkpoint store and the collaborators that share its connection.
type Backend struct {
	// Store is the raw store, before middleware.
	Store ports.CheckpointStore
	// Submitter is set when the backend can record claims (sqlite).
	Submitter ports.Submitter
	// Locker is set when the backend supports distributed locks (redis).
	Locker ports.DistributedLocker
	// Closer releases the connection; nil for in-process stores.
	Closer io.Closer
}

// OpenBackend opens the store selected by cfg.Store.Backend.
func OpenBackend(cfg config.StoreConfig) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return &Backend{Store: memory.NewStore()}, nil

	case config.BackendFile:
		if err := os.MkdirAll(cfg.File.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		return &Backend{Store: file.New(cfg.File.Dir)}, nil

	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := redisadapter.NewFromClient(client, redisadapter.WithPrefix(cfg.Redis.Prefix))
		return &Backend{
			Store:  store,
			Locker: redisadapter.NewLocker(client, cfg.Redis.Prefix),
			Closer: store,
		}, nil

	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, Submitter: sqlite.NewSubmitter(store), Closer: store}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// WrapStore applies the PII and encryption middleware configured in p.
// PII masking runs before encryption so masked values are what gets sealed.
func WrapStore(store ports.CheckpointStore, p config.PersistenceConfig) (ports.CheckpointStore, error) {
	var mws []middleware.Middleware

	if len(p.PIIPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(p.PIIPatterns)
		if err != nil {
			return nil, fmt.Errorf("persistence.pii_patterns: %w", err)
		}
		mws = append(mws, pii)
	}

	active, fallback, err := p.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}

	return middleware.Chain(store, mws...), nil
}

// LoadRegistry returns the variants from cfg.File, or the built-in ones.
func LoadRegistry(cfg config.VariantsConfig) (*registry.Registry, error) {
	if cfg.File == "" {
		return registry.Default(), nil
	}
	r, err := registry.LoadFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("load variants: %w", err)
	}
	return r, nil
}

// CreateEngine initializes an engine with the configured store, middleware and variants.
// extra options are applied last.
func CreateEngine(cfg *config.Config, logger *slog.Logger, extra ...intake.Option) (*intake.Engine, error) {
	reg, err := LoadRegistry(cfg.Variants)
	if err != nil {
		return nil, err
	}

	backend, err := OpenBackend(cfg.Store)
	if err != nil {
		return nil, err
	}
	store, err := WrapStore(backend.Store, cfg.Persistence)
	if err != nil {
		if backend.Closer != nil {
			_ = backend.Closer.Close()
		}
		return nil, err
	}

	opts := []intake.Option{
		intake.WithRegistry(reg),
		intake.WithStore(store),
		intake.WithLogger(logger),
		intake.WithLockTTL(cfg.HTTP.LockTTL),
		intake.WithPersistenceOptions(
			persistence.WithDebounce(cfg.Persistence.Debounce),
			persistence.WithTTL(cfg.Persistence.TTL),
			persistence.WithWriteTimeout(cfg.Persistence.WriteTimeout),
		),
	}
	if backend.Submitter != nil {
		opts = append(opts, intake.WithSubmitter(backend.Submitter))
	}
	if backend.Locker != nil {
		opts = append(opts, intake.WithLocker(backend.Locker))
	}
	if backend.Closer != nil {
		opts = append(opts, intake.WithCloser(backend.Closer))
	}
	opts = append(opts, extra...)

	engine, err := intake.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	logger.Debug("engine ready", "backend", cfg.Store.Backend, "variants", reg.Variants())
	return engine, nil
}
