package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml or .env is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "https://api.hubapi.com", cfg.HubSpot.BaseURL)
	assert.InDelta(t, 10.0, cfg.HubSpot.RateLimit, 0.001)
	assert.Equal(t, 5, cfg.HubSpot.BreakerFaults)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
	assert.Equal(t, "290340", cfg.License.StoreID)
	assert.Equal(t, "822853", cfg.License.ProductID)
	assert.Equal(t, CacheFile, cfg.License.Cache)
	assert.Empty(t, cfg.Scoring.ICP)
	assert.False(t, cfg.Salesforce.Configured())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  transport: streamable-http
  port: 9090
license:
  cache: sqlite
  cache_path: /tmp/license.db
scoring:
  icp: icp.yaml
  exit_criteria: exit.yaml
file:
  deals: deals.xlsx
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, CacheSQLite, cfg.License.Cache)
	assert.Equal(t, "/tmp/license.db", cfg.License.CachePath)
	assert.Equal(t, "icp.yaml", cfg.Scoring.ICP)
	assert.Equal(t, "exit.yaml", cfg.Scoring.ExitCriteria)
	assert.Equal(t, "deals.xlsx", cfg.File.Deals)
	// Defaults still apply for unset values
	assert.Equal(t, "https://api.hubapi.com", cfg.HubSpot.BaseURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
hubspot:
  api_key: from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("REVINTEL_LOG_LEVEL", "warn")
	t.Setenv("REVINTEL_HUBSPOT_API_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.HubSpot.APIKey)
}

func TestLoadWellKnownEnv(t *testing.T) {
	chdirTemp(t)

	t.Setenv("HUBSPOT_API_KEY", "pat-na1-abc")
	t.Setenv("ARTEFACT_LICENSE_KEY", "LIC-123")
	t.Setenv("MCP_TRANSPORT", "streamable-http")
	t.Setenv("MCP_HOST", "127.0.0.1")
	t.Setenv("MCP_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pat-na1-abc", cfg.HubSpot.APIKey)
	assert.Equal(t, "LIC-123", cfg.License.Key)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)

	// godotenv writes into the process environment; register cleanup first.
	t.Setenv("REVINTEL_FILE_CLIENTS", "")
	require.NoError(t, os.Unsetenv("REVINTEL_FILE_CLIENTS"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("REVINTEL_FILE_CLIENTS=clients.csv\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "clients.csv", cfg.File.Clients)
}

func TestLoadInvalid(t *testing.T) {
	chdirTemp(t)
	t.Setenv("MCP_TRANSPORT", "sse")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.transport")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Transport: TransportStdio, Port: 8000},
			License: LicenseConfig{Cache: CacheFile},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{"defaults", func(*Config) {}, nil},
		{"http transport", func(c *Config) { c.Server.Transport = TransportHTTP }, nil},
		{"bad transport", func(c *Config) { c.Server.Transport = "grpc" }, []string{"server.transport"}},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, []string{"server.port"}},
		{"redis without addr", func(c *Config) { c.License.Cache = CacheRedis }, []string{"redis_addr"}},
		{"redis with addr", func(c *Config) {
			c.License.Cache = CacheRedis
			c.License.RedisAddr = "localhost:6379"
		}, nil},
		{"unknown cache", func(c *Config) { c.License.Cache = "memcached" }, []string{"license.cache"}},
		{"negative rate", func(c *Config) { c.HubSpot.RateLimit = -1 }, []string{"rate_limit"}},
		{"several problems", func(c *Config) {
			c.Server.Port = -1
			c.License.Cache = ""
		}, []string{"server.port", "license.cache"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestSalesforceConfigured(t *testing.T) {
	assert.False(t, SalesforceConfig{ClientID: "id"}.Configured())
	assert.True(t, SalesforceConfig{ClientID: "id", Username: "u", KeyPath: "k.pem"}.Configured())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
