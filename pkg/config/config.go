package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "ekaya-export.yaml"

// DefaultOutputDirName is the export folder created under the home directory.
const DefaultOutputDirName = "Exportacion_SQL"

// Config holds all configuration for ekaya-export.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Version string `yaml:"-"` // Set at load time, not from config

	Log        LogConfig        `yaml:"log"`
	Connection ConnectionConfig `yaml:"connection"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Export     ExportConfig     `yaml:"export"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"EKAYA_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"EKAYA_LOG_FORMAT" env-default:"console"` // console or json
}

// ConnectionConfig holds SQL Server connection settings.
type ConnectionConfig struct {
	// TimeoutSeconds bounds the login handshake of a real connection.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"MSSQL_CONNECTION_TIMEOUT" env-default:"10"`
	// Encrypt is passed to the driver: disable, false, true or strict.
	Encrypt                string `yaml:"encrypt" env:"MSSQL_ENCRYPT" env-default:"disable"`
	TrustServerCertificate bool   `yaml:"trust_server_certificate" env:"MSSQL_TRUST_SERVER_CERTIFICATE" env-default:"true"`
	AppName                string `yaml:"app_name" env:"MSSQL_APP_NAME" env-default:"ekaya-export"`

	// Username for SQL authentication. Empty means integrated authentication.
	Username string `yaml:"username" env:"MSSQL_USER" env-default:""`
	Password string `yaml:"-" env:"MSSQL_PASSWORD"` // Secret - not in YAML
}

// DiscoveryConfig controls candidate probing.
type DiscoveryConfig struct {
	// Probe enables reachability probing of heuristic candidates.
	Probe bool `yaml:"probe" env:"EKAYA_DISCOVERY_PROBE" env-default:"true"`
	// ProbeTimeoutSeconds bounds a single probe.
	ProbeTimeoutSeconds int `yaml:"probe_timeout_seconds" env:"EKAYA_PROBE_TIMEOUT" env-default:"2"`
	// ProbeConcurrency is the number of probes in flight at once.
	ProbeConcurrency int `yaml:"probe_concurrency" env:"EKAYA_PROBE_CONCURRENCY" env-default:"8"`
	// ProbeCeilingSeconds bounds the whole probing phase.
	ProbeCeilingSeconds int `yaml:"probe_ceiling_seconds" env:"EKAYA_PROBE_CEILING" env-default:"10"`
}

// ExportConfig controls where files are written.
type ExportConfig struct {
	// OutputDir defaults to ~/Exportacion_SQL when empty.
	OutputDir string `yaml:"output_dir" env:"EKAYA_OUTPUT_DIR" env-default:""`
}

// ConnectionTimeout returns the connection timeout as a duration.
func (c ConnectionConfig) ConnectionTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ProbeTimeout returns the per-probe timeout.
func (d DiscoveryConfig) ProbeTimeout() time.Duration {
	return time.Duration(d.ProbeTimeoutSeconds) * time.Second
}

// ProbeCeiling returns the global probing deadline.
func (d DiscoveryConfig) ProbeCeiling() time.Duration {
	return time.Duration(d.ProbeCeilingSeconds) * time.Second
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error when path is the default: configuration then
// comes from the environment and defaults alone. An explicitly named file
// must exist.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	case errors.Is(statErr, os.ErrNotExist) && !explicit:
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("config file %s: %w", path, statErr)
	}

	if err := cfg.resolveOutputDir(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Connection.TimeoutSeconds <= 0 {
		return fmt.Errorf("connection.timeout_seconds must be positive, got %d", c.Connection.TimeoutSeconds)
	}
	switch strings.ToLower(c.Connection.Encrypt) {
	case "disable", "false", "true", "strict", "optional", "mandatory":
	default:
		return fmt.Errorf("connection.encrypt must be one of disable, false, true, strict, optional or mandatory, got %q", c.Connection.Encrypt)
	}
	if c.Discovery.ProbeTimeoutSeconds <= 0 {
		return fmt.Errorf("discovery.probe_timeout_seconds must be positive, got %d", c.Discovery.ProbeTimeoutSeconds)
	}
	if c.Discovery.ProbeConcurrency <= 0 {
		return fmt.Errorf("discovery.probe_concurrency must be positive, got %d", c.Discovery.ProbeConcurrency)
	}
	if c.Discovery.ProbeCeilingSeconds < c.Discovery.ProbeTimeoutSeconds {
		return fmt.Errorf("discovery.probe_ceiling_seconds (%d) must not be below probe_timeout_seconds (%d)",
			c.Discovery.ProbeCeilingSeconds, c.Discovery.ProbeTimeoutSeconds)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// resolveOutputDir fills the default export folder and expands a leading "~".
func (c *Config) resolveOutputDir() error {
	dir := strings.TrimSpace(c.Export.OutputDir)
	if dir != "" && dir != "~" && !strings.HasPrefix(dir, "~/") {
		c.Export.OutputDir = dir
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory for export.output_dir: %w", err)
	}

	switch {
	case dir == "":
		c.Export.OutputDir = filepath.Join(home, DefaultOutputDirName)
	case dir == "~":
		c.Export.OutputDir = home
	default:
		c.Export.OutputDir = filepath.Join(home, dir[2:])
	}
	return nil
}
