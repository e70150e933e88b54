package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"EKAYA_LOG_LEVEL", "EKAYA_LOG_FORMAT",
		"MSSQL_CONNECTION_TIMEOUT", "MSSQL_ENCRYPT", "MSSQL_TRUST_SERVER_CERTIFICATE",
		"MSSQL_APP_NAME", "MSSQL_USER", "MSSQL_PASSWORD",
		"EKAYA_DISCOVERY_PROBE", "EKAYA_PROBE_TIMEOUT", "EKAYA_PROBE_CONCURRENCY", "EKAYA_PROBE_CEILING",
		"EKAYA_OUTPUT_DIR",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ekaya-export.yaml")

	yamlContent := `
log:
  level: debug
connection:
  timeout_seconds: 20
  username: reader
  password: should-be-ignored
discovery:
  probe_concurrency: 4
export:
  output_dir: /srv/exports
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	t.Setenv("MSSQL_CONNECTION_TIMEOUT", "15")
	t.Setenv("MSSQL_PASSWORD", "from-env")

	cfg, err := Load(configPath, "test-version")
	require.NoError(t, err)

	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 15, cfg.Connection.TimeoutSeconds, "env overrides yaml")
	assert.Equal(t, "reader", cfg.Connection.Username)
	assert.Equal(t, "from-env", cfg.Connection.Password, "password only comes from env")
	assert.Equal(t, 4, cfg.Discovery.ProbeConcurrency)
	assert.Equal(t, "/srv/exports", cfg.Export.OutputDir)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("", "dev")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 10*time.Second, cfg.Connection.ConnectionTimeout())
	assert.Equal(t, "disable", cfg.Connection.Encrypt)
	assert.True(t, cfg.Connection.TrustServerCertificate)
	assert.Empty(t, cfg.Connection.Username)
	assert.True(t, cfg.Discovery.Probe)
	assert.Equal(t, 2*time.Second, cfg.Discovery.ProbeTimeout())
	assert.Equal(t, 10*time.Second, cfg.Discovery.ProbeCeiling())
	assert.Equal(t, 8, cfg.Discovery.ProbeConcurrency)
	assert.Equal(t, filepath.Join(home, DefaultOutputDirName), cfg.Export.OutputDir)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "dev")
	require.Error(t, err)
}

func TestLoad_TildeOutputDir(t *testing.T) {
	clearEnv(t)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("EKAYA_OUTPUT_DIR", "~/exports/farmacia")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("", "dev")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "exports", "farmacia"), cfg.Export.OutputDir)
}

func TestValidate_EncryptMessageListsAcceptedValues(t *testing.T) {
	c := &Config{
		Log:        LogConfig{Level: "info", Format: "console"},
		Connection: ConnectionConfig{TimeoutSeconds: 10, Encrypt: "maybe"},
		Discovery:  DiscoveryConfig{ProbeTimeoutSeconds: 2, ProbeConcurrency: 8, ProbeCeilingSeconds: 10},
	}

	err := c.Validate()
	require.Error(t, err)
	for _, value := range []string{"disable", "false", "true", "strict", "optional", "mandatory"} {
		assert.Contains(t, err.Error(), value)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Log:        LogConfig{Level: "info", Format: "console"},
			Connection: ConnectionConfig{TimeoutSeconds: 10, Encrypt: "disable"},
			Discovery:  DiscoveryConfig{ProbeTimeoutSeconds: 2, ProbeConcurrency: 8, ProbeCeilingSeconds: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "optional encrypt", mutate: func(c *Config) { c.Connection.Encrypt = "optional" }},
		{name: "mandatory encrypt", mutate: func(c *Config) { c.Connection.Encrypt = "Mandatory" }},
		{name: "zero timeout", mutate: func(c *Config) { c.Connection.TimeoutSeconds = 0 }, wantErr: true},
		{name: "bad encrypt", mutate: func(c *Config) { c.Connection.Encrypt = "maybe" }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.Discovery.ProbeConcurrency = 0 }, wantErr: true},
		{name: "ceiling below timeout", mutate: func(c *Config) { c.Discovery.ProbeCeilingSeconds = 1 }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{name: "strict encrypt", mutate: func(c *Config) { c.Connection.Encrypt = "strict" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
