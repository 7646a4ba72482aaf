// Package config loads orchestrator configuration from defaults, an optional
// config file and SPARKJOBD_-prefixed environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrAPIKeyMissing is returned by Validate when no API key is configured.
// The API authenticates every job operation with this shared key, so
// starting without one would leave the server wide open.
var ErrAPIKeyMissing = errors.New("api_key is required")

// ServerConfig holds the HTTP listener settings. TLS is enabled when both
// TLSCertPath and TLSKeyPath are set; ClientCAPath additionally enables
// client-certificate verification.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TLSCertPath     string        `mapstructure:"tls_cert_path"`
	TLSKeyPath      string        `mapstructure:"tls_key_path"`
	ClientCAPath    string        `mapstructure:"client_ca_path"`
}

// PathsConfig holds the base directories for job scripts, result documents
// and log files. All job file paths are derived from these and the job ID.
type PathsConfig struct {
	ScriptsDir string `mapstructure:"scripts_dir"`
	OutputsDir string `mapstructure:"outputs_dir"`
	LogsDir    string `mapstructure:"logs_dir"`
}

// RunnerConfig holds process-supervision settings.
type RunnerConfig struct {
	Interpreter           string        `mapstructure:"interpreter"`
	PollInterval          time.Duration `mapstructure:"poll_interval"`
	TerminationGrace      time.Duration `mapstructure:"termination_grace"`
	LogPreviewBytes       int           `mapstructure:"log_preview_bytes"`
	DefaultTimeoutSeconds int           `mapstructure:"default_timeout_seconds"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Debug bool   `mapstructure:"debug"`
}

// Config is the resolved orchestrator configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Paths   PathsConfig   `mapstructure:"paths"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Logging LoggingConfig `mapstructure:"logging"`
	APIKey  string        `mapstructure:"api_key"`

	// CORSOrigins is parsed from the comma-separated cors_origins key so it
	// can be supplied through a single environment variable.
	CORSOrigins []string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.tls_cert_path", "")
	v.SetDefault("server.tls_key_path", "")
	v.SetDefault("server.client_ca_path", "")

	v.SetDefault("paths.scripts_dir", "./jobs")
	v.SetDefault("paths.outputs_dir", "./outputs")
	v.SetDefault("paths.logs_dir", "./logs")

	v.SetDefault("runner.interpreter", "python3")
	v.SetDefault("runner.poll_interval", time.Second)
	v.SetDefault("runner.termination_grace", time.Second)
	v.SetDefault("runner.log_preview_bytes", 1024)
	v.SetDefault("runner.default_timeout_seconds", 600)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.debug", false)

	v.SetDefault("api_key", "")
	v.SetDefault("cors_origins", "http://localhost:3000")
}

// Load resolves the configuration. configFile may be empty, in which case
// only defaults and environment variables apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SPARKJOBD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitOrigins(v.GetString("cors_origins"))

	return &cfg, nil
}

// Validate checks settings the server cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrAPIKeyMissing
	}

	if c.Runner.PollInterval <= 0 {
		return errors.New("runner.poll_interval must be positive")
	}

	if c.Runner.TerminationGrace <= 0 {
		return errors.New("runner.termination_grace must be positive")
	}

	if c.Runner.LogPreviewBytes <= 0 {
		return errors.New("runner.log_preview_bytes must be positive")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("server.port must be in valid range")
	}

	if (c.Server.TLSCertPath == "") != (c.Server.TLSKeyPath == "") {
		return errors.New("server.tls_cert_path and server.tls_key_path must be set together")
	}

	return nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")

	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}
