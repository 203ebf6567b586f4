package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting found.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidBackends returns the supported store backends.
func ValidBackends() []string {
	return []string{BackendMemory, BackendFile, BackendRedis, BackendSQLite}
}

// ValidLogLevels returns the accepted log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		add("log.level", c.Log.Level, "must be one of "+strings.Join(ValidLogLevels(), ", "))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		add("log.format", c.Log.Format, "must be text or json")
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.File.Dir == "" {
			add("store.file.dir", c.Store.File.Dir, "is required for the file backend")
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			add("store.redis.addr", c.Store.Redis.Addr, "is required for the redis backend")
		}
	case BackendSQLite:
		if c.Store.SQLite.Path == "" {
			add("store.sqlite.path", c.Store.SQLite.Path, "is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		add("store.backend", c.Store.Backend, "must be one of "+strings.Join(ValidBackends(), ", "))
	}

	if c.Persistence.Debounce < 0 {
		add("persistence.debounce", c.Persistence.Debounce, "must not be negative")
	}
	if c.Persistence.TTL < 0 {
		add("persistence.ttl", c.Persistence.TTL, "must not be negative (0 disables expiry)")
	}
	if c.Persistence.WriteTimeout <= 0 {
		add("persistence.write_timeout", c.Persistence.WriteTimeout, "must be positive")
	}
	for i, p := range c.Persistence.PIIPatterns {
		if _, err := regexp.Compile(p); err != nil {
			add(fmt.Sprintf("persistence.pii_patterns[%d]", i), p, "is not a valid regular expression")
		}
	}
	if _, _, err := c.Persistence.Keys(); err != nil {
		add("persistence.encryption_key", "<redacted>", err.Error())
	}

	if c.HTTP.Addr == "" {
		add("http.addr", c.HTTP.Addr, "is required")
	}
	if c.HTTP.LockTTL <= 0 {
		add("http.lock_ttl", c.HTTP.LockTTL, "must be positive")
	}
	return errs
}
