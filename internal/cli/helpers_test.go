package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/claimdesk/intake/internal/config"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDraft(t *testing.T) {
	d, err := ReadDraft("")
	require.NoError(t, err)
	assert.Nil(t, d)

	path := filepath.Join(t.TempDir(), "draft.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"policyDetails":{"carrierName":"Acme"}}`), 0o644))
	d, err = ReadDraft(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme", d[domain.SectionPolicy].(map[string]any)["carrierName"])

	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o644))
	_, err = ReadDraft(path)
	assert.ErrorContains(t, err, "parse draft")

	require.NoError(t, os.WriteFile(path, []byte(`null`), 0o644))
	_, err = ReadDraft(path)
	assert.ErrorContains(t, err, "JSON object")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug("hello", "error", "boom")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "boom", line["err"])
}

func TestNewLogger_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "warn"}, &buf)
	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestInterruptibleReader(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	r := NewInterruptibleReader(ctx, pr)

	go func() { _, _ = pw.Write([]byte("next\n")) }()
	buf := make([]byte, 16)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "next\n", string(buf[:n]))

	done := make(chan error, 1)
	go func() {
		_, err := r.Read(buf)
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("blocked read was not interrupted")
	}
}
