package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 2*time.Second, cfg.Persistence.Debounce)
	assert.Equal(t, 7*24*time.Hour, cfg.Persistence.TTL)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: redis
  redis:
    addr: redis:6379
persistence:
  debounce: 500ms
  pii_patterns: ["(?i)email"]
http:
  addr: ":9000"
`)
	t.Setenv("INTAKE_HTTP_ADDR", ":9100")
	t.Setenv("INTAKE_PERSISTENCE_TTL", "48h")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "intake:progress:", cfg.Store.Redis.Prefix, "defaults fill unset keys")
	assert.Equal(t, 500*time.Millisecond, cfg.Persistence.Debounce)
	assert.Equal(t, []string{"(?i)email"}, cfg.Persistence.PIIPatterns)
	assert.Equal(t, ":9100", cfg.HTTP.Addr, "environment wins over the file")
	assert.Equal(t, 48*time.Hour, cfg.Persistence.TTL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `
log:
  level: loud
store:
  backend: mongo
persistence:
  pii_patterns: ["("]
`)
	_, err := Load(New(), path)
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, len(verrs))
	for i, e := range verrs {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"log.level", "store.backend", "persistence.pii_patterns[0]"}, fields)
	assert.True(t, strings.HasPrefix(err.Error(), "3 validation errors"))
}

func TestPersistenceKeys(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	p := PersistenceConfig{EncryptionKey: key, FallbackKeys: []string{key}}

	active, fallback, err := p.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Len(t, fallback, 1)

	active, _, err = PersistenceConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active)

	_, _, err = PersistenceConfig{EncryptionKey: base64.StdEncoding.EncodeToString([]byte("short"))}.Keys()
	assert.Error(t, err)
}
