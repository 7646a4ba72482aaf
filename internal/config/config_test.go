package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkops/sparkjobd/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "./jobs", cfg.Paths.ScriptsDir)
	assert.Equal(t, "./outputs", cfg.Paths.OutputsDir)
	assert.Equal(t, "./logs", cfg.Paths.LogsDir)

	assert.Equal(t, "python3", cfg.Runner.Interpreter)
	assert.Equal(t, time.Second, cfg.Runner.PollInterval)
	assert.Equal(t, time.Second, cfg.Runner.TerminationGrace)
	assert.Equal(t, 1024, cfg.Runner.LogPreviewBytes)
	assert.Equal(t, 600, cfg.Runner.DefaultTimeoutSeconds)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Debug)

	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SPARKJOBD_SERVER_PORT", "9090")
	t.Setenv("SPARKJOBD_API_KEY", "s3cret")
	t.Setenv("SPARKJOBD_RUNNER_INTERPRETER", "python3.12")
	t.Setenv("SPARKJOBD_RUNNER_POLL_INTERVAL", "250ms")
	t.Setenv("SPARKJOBD_LOGGING_DEBUG", "true")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.APIKey)
	assert.Equal(t, "python3.12", cfg.Runner.Interpreter)
	assert.Equal(t, 250*time.Millisecond, cfg.Runner.PollInterval)
	assert.True(t, cfg.Logging.Debug)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 0.0.0.0
  port: 8443
paths:
  scripts_dir: /opt/jobs
api_key: file-key
cors_origins: "https://app.example.com, https://staging.example.com"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8443, cfg.Server.Port)
	assert.Equal(t, "/opt/jobs", cfg.Paths.ScriptsDir)
	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(
		t,
		[]string{"https://app.example.com", "https://staging.example.com"},
		cfg.CORSOrigins,
	)

	// Untouched keys keep their defaults.
	assert.Equal(t, "./logs", cfg.Paths.LogsDir)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *config.Config {
		t.Helper()

		cfg, err := config.Load("")
		require.NoError(t, err)
		cfg.APIKey = "s3cret"

		return cfg
	}

	t.Run("accepts defaults with api key", func(t *testing.T) {
		require.NoError(t, valid(t).Validate())
	})

	t.Run("rejects missing api key", func(t *testing.T) {
		cfg := valid(t)
		cfg.APIKey = "   "

		require.ErrorIs(t, cfg.Validate(), config.ErrAPIKeyMissing)
	})

	t.Run("rejects non-positive poll interval", func(t *testing.T) {
		cfg := valid(t)
		cfg.Runner.PollInterval = 0

		require.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive termination grace", func(t *testing.T) {
		cfg := valid(t)
		cfg.Runner.TerminationGrace = -time.Second

		require.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive preview bytes", func(t *testing.T) {
		cfg := valid(t)
		cfg.Runner.LogPreviewBytes = 0

		require.Error(t, cfg.Validate())
	})

	t.Run("rejects out-of-range port", func(t *testing.T) {
		cfg := valid(t)
		cfg.Server.Port = 70000

		require.Error(t, cfg.Validate())
	})

	t.Run("rejects cert without key", func(t *testing.T) {
		cfg := valid(t)
		cfg.Server.TLSCertPath = "/etc/certs/server.crt"

		require.Error(t, cfg.Validate())
	})
}

func TestAddr(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Addr())
}
