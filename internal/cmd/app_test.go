package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/pimis/internal/store"
	"github.com/felixgeelhaar/pimis/internal/ux"
)

func TestBackendNamespace(t *testing.T) {
	assert.Equal(t, "ibp.example.org:8443", backendNamespace("https://ibp.example.org:8443/api/v1"))
	assert.Equal(t, "", backendNamespace("not a url"))
	assert.Equal(t, "", backendNamespace(""))
}

func TestOpenBackend(t *testing.T) {
	paths := ux.NewPathDefaults(t.TempDir())

	t.Run("file defaults to the home directory", func(t *testing.T) {
		cfg := defaultGlobalConfig()
		b, err := openBackend(cfg, paths)
		require.NoError(t, err)
		fb, ok := b.(*store.FileBackend)
		require.True(t, ok, "got %T", b)
		assert.Equal(t, paths.SessionFile(), fb.Path())
	})

	t.Run("file honours store.path", func(t *testing.T) {
		cfg := defaultGlobalConfig()
		cfg.Store.Path = filepath.Join(t.TempDir(), "s.json")
		b, err := openBackend(cfg, paths)
		require.NoError(t, err)
		assert.Equal(t, cfg.Store.Path, b.(*store.FileBackend).Path())
	})

	t.Run("memory", func(t *testing.T) {
		cfg := defaultGlobalConfig()
		cfg.Store.Driver = DriverMemory
		b, err := openBackend(cfg, paths)
		require.NoError(t, err)
		assert.IsType(t, &store.MemoryBackend{}, b)
	})

	t.Run("redis is namespaced by backend host", func(t *testing.T) {
		server, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(server.Close)

		cfg := defaultGlobalConfig()
		cfg.Store.Driver = DriverRedis
		cfg.Store.RedisAddr = server.Addr()
		cfg.API.URL = "https://ibp.example.org/api/v1"

		b, err := openBackend(cfg, paths)
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })

		rb, ok := b.(*store.RedisBackend)
		require.True(t, ok, "got %T", b)
		assert.Equal(t, "pimis:session:ibp.example.org", rb.HashKey())

		st := store.NewSessionStore(b)
		require.NoError(t, st.SaveTokens(context.Background(), "a", "r"))
		assert.Equal(t, "a", server.HGet(rb.HashKey(), string(store.KeyAccessToken)))
	})
}

func TestMetricsTextfile(t *testing.T) {
	home := t.TempDir()
	a := &app{cfg: defaultGlobalConfig(), paths: ux.NewPathDefaults(home)}

	assert.Empty(t, a.metricsTextfile())

	a.cfg.Metrics.Textfile = "default"
	assert.Equal(t, filepath.Join(home, "metrics.prom"), a.metricsTextfile())

	a.cfg.Metrics.Textfile = "/var/lib/node_exporter/pimis.prom"
	assert.Equal(t, "/var/lib/node_exporter/pimis.prom", a.metricsTextfile())
}

func TestSetupLoggingWritesToGivenWriter(t *testing.T) {
	var buf bytes.Buffer
	cfg := defaultGlobalConfig()
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	logger := setupLogging(cfg, &buf)
	logger.Info("hello", "k", "v")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"service":"pimis"`)
	assert.NotContains(t, buf.String(), `"source"`)
}

func TestSetupLoggingDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	cfg := defaultGlobalConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	setupLogging(cfg, &buf).Debug("hello")
	assert.Contains(t, buf.String(), `"source"`)
}

func TestSpanName(t *testing.T) {
	assert.Equal(t, "auth.login", spanName(authLoginCmd))
	assert.Equal(t, "nav.tree", spanName(navTreeCmd))
	assert.Equal(t, "", spanName(rootCmd))
}

func TestTelemetryConfig(t *testing.T) {
	cfg := defaultGlobalConfig()
	cfg.API.URL = "https://pimis.example.org/api/v1"
	cfg.App.Variant = "jm"

	tc := telemetryConfig(cfg)
	assert.False(t, tc.Enabled)
	assert.Equal(t, "pimis", tc.ServiceName)
	assert.Equal(t, "jm", tc.Variant)
	assert.Equal(t, "pimis.example.org", tc.BackendHost)
	assert.Equal(t, 1.0, tc.SampleRate)

	cfg.Telemetry.Enabled = true
	cfg.Telemetry.SampleRate = 4
	tc = telemetryConfig(cfg)
	assert.True(t, tc.Enabled)
	assert.Equal(t, 1.0, tc.SampleRate)

	cfg.Telemetry.SampleRate = 0.1
	assert.Equal(t, 0.1, telemetryConfig(cfg).SampleRate)
}
