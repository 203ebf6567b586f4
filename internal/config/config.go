// Package config loads intake settings from defaults, an optional YAML file
// and INTAKE_* environment variables, in increasing order of precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. INTAKE_STORE_BACKEND.
const EnvPrefix = "INTAKE"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the complete runtime configuration.
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Store       StoreConfig       `mapstructure:"store"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Variants    VariantsConfig    `mapstructure:"variants"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// StoreConfig selects and configures the checkpoint store.
type StoreConfig struct {
	Backend string       `mapstructure:"backend"`
	File    FileConfig   `mapstructure:"file"`
	Redis   RedisConfig  `mapstructure:"redis"`
	SQLite  SQLiteConfig `mapstructure:"sqlite"`
}

type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PersistenceConfig tunes checkpointing.
type PersistenceConfig struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	TTL           time.Duration `mapstructure:"ttl"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	PIIPatterns   []string      `mapstructure:"pii_patterns"`
	EncryptionKey string        `mapstructure:"encryption_key"` // base64, 32 bytes decoded
	FallbackKeys  []string      `mapstructure:"fallback_keys"`
}

type HTTPConfig struct {
	Addr    string        `mapstructure:"addr"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// VariantsConfig points at an optional YAML file of step variants.
type VariantsConfig struct {
	File string `mapstructure:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Store: StoreConfig{
			Backend: BackendMemory,
			File:    FileConfig{Dir: filepath.Join(DataDir(), "progress")},
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "intake:progress:"},
			SQLite:  SQLiteConfig{Path: filepath.Join(DataDir(), "intake.db")},
		},
		Persistence: PersistenceConfig{
			Debounce:     2 * time.Second,
			TTL:          7 * 24 * time.Hour,
			WriteTimeout: 10 * time.Second,
		},
		HTTP: HTTPConfig{Addr: ":8080", LockTTL: 30 * time.Second},
	}
}

// SetDefaults registers every default on v so that environment overrides
// apply to keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.file.dir", d.Store.File.Dir)
	v.SetDefault("store.redis.addr", d.Store.Redis.Addr)
	v.SetDefault("store.redis.password", d.Store.Redis.Password)
	v.SetDefault("store.redis.db", d.Store.Redis.DB)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("store.sqlite.path", d.Store.SQLite.Path)

	v.SetDefault("persistence.debounce", d.Persistence.Debounce)
	v.SetDefault("persistence.ttl", d.Persistence.TTL)
	v.SetDefault("persistence.write_timeout", d.Persistence.WriteTimeout)
	v.SetDefault("persistence.pii_patterns", d.Persistence.PIIPatterns)
	v.SetDefault("persistence.encryption_key", d.Persistence.EncryptionKey)
	v.SetDefault("persistence.fallback_keys", d.Persistence.FallbackKeys)

	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.lock_ttl", d.HTTP.LockTTL)

	v.SetDefault("variants.file", d.Variants.File)
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (explicit path, or intake.yaml in the working
// directory or ConfigDir) into v and returns the validated configuration.
// A missing default config file is not an error; a missing explicit one is.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("intake")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(ConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// Keys decodes the active and fallback encryption keys.
// It returns a nil active key when encryption is disabled.
func (p PersistenceConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if p.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(p.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("persistence.encryption_key: %w", err)
	}
	for i, k := range p.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("persistence.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// ConfigDir returns the directory searched for intake.yaml.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "intake")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".intake"
	}
	return filepath.Join(home, ".config", "intake")
}

// DataDir returns the default directory for file and sqlite stores.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "intake")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".intake"
	}
	return filepath.Join(home, ".local", "share", "intake")
}
