package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "procpilot.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval.Duration)
	assert.Equal(t, time.Second, cfg.SampleInterval.Duration)
	assert.Equal(t, "exports", cfg.ExportDir)
	assert.Equal(t, "json", cfg.Exporter)
	assert.False(t, cfg.GzipExports)
	assert.Empty(t, cfg.Processes)
	assert.False(t, cfg.StatusServer.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
log_level = "debug"
sample_interval = "1s"
exporter = "csv"
gzip_exports = true
processes = ["nginx", "redis-server"]

[status_server]
enabled = true
port = 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.SampleInterval.Duration)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval.Duration, "defaults survive partial files")
	assert.Equal(t, "csv", cfg.Exporter)
	assert.True(t, cfg.GzipExports)
	assert.Equal(t, []string{"nginx", "redis-server"}, cfg.Processes)
	assert.True(t, cfg.StatusServer.Enabled)
	assert.Equal(t, 9000, cfg.StatusServer.Port)
	assert.Equal(t, "0.0.0.0", cfg.StatusServer.Host)
}

func TestLoad_UnknownExporter(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `exporter = "xml"`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `poll_interval = "fast"`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMatchesProcess(t *testing.T) {
	cfg := Default()
	cfg.Processes = []string{"nginx"}

	assert.True(t, cfg.MatchesProcess("nginx"))
	assert.False(t, cfg.MatchesProcess("postgres"))
	assert.False(t, Default().MatchesProcess("nginx"), "empty list records nothing")
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `log_level = "info"`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu     sync.Mutex
		loaded []*Config
	)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) {
			mu.Lock()
			defer mu.Unlock()
			loaded = append(loaded, cfg)
		})
	}()

	// Give the watcher time to arm before rewriting.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "debug"`), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(loaded) == 1 && loaded[0].LogLevel == "debug"
	}, 2*time.Second, 10*time.Millisecond)

	// Rewriting identical content must not trigger another reload.
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "debug"`), 0o644))
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	assert.Len(t, loaded, 1)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop on context cancellation")
	}
}
