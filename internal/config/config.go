package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	HubSpot    HubSpotConfig    `yaml:"hubspot" mapstructure:"hubspot"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	License    LicenseConfig    `yaml:"license" mapstructure:"license"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	File       FileConfig       `yaml:"file" mapstructure:"file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the tool server.
type ServerConfig struct {
	Transport string `yaml:"transport" mapstructure:"transport"`
	Host      string `yaml:"host" mapstructure:"host"`
	Port      int    `yaml:"port" mapstructure:"port"`
	// AllowedOrigins is the CORS allow list for the HTTP transport.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// HubSpotConfig holds HubSpot private app settings.
type HubSpotConfig struct {
	APIKey        string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit     float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	BreakerFaults int     `yaml:"breaker_failures" mapstructure:"breaker_failures"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID  string  `yaml:"client_id" mapstructure:"client_id"`
	Username  string  `yaml:"username" mapstructure:"username"`
	KeyPath   string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL  string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// Configured reports whether JWT credentials are present.
func (c SalesforceConfig) Configured() bool {
	return c.ClientID != "" && c.Username != "" && c.KeyPath != ""
}

// LicenseConfig configures license validation and its cache.
type LicenseConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	StoreID     string `yaml:"store_id" mapstructure:"store_id"`
	ProductID   string `yaml:"product_id" mapstructure:"product_id"`
	ValidateURL string `yaml:"validate_url" mapstructure:"validate_url"`
	// Cache is one of file, sqlite or redis.
	Cache     string `yaml:"cache" mapstructure:"cache"`
	CachePath string `yaml:"cache_path" mapstructure:"cache_path"`
	RedisAddr string `yaml:"redis_addr" mapstructure:"redis_addr"`
}

// ScoringConfig points at YAML scoring override files.
type ScoringConfig struct {
	ICP          string `yaml:"icp" mapstructure:"icp"`
	RFM          string `yaml:"rfm" mapstructure:"rfm"`
	ExitCriteria string `yaml:"exit_criteria" mapstructure:"exit_criteria"`
}

// FileConfig names the CSV or XLSX import files for the file source.
type FileConfig struct {
	Clients string `yaml:"clients" mapstructure:"clients"`
	Deals   string `yaml:"deals" mapstructure:"deals"`
}

// License cache kinds.
const (
	CacheFile   = "file"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// Tool server transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "streamable-http"
)

// Well-known environment names bound alongside the REVINTEL_ prefix.
var envAliases = map[string]string{
	"hubspot.api_key":  "HUBSPOT_API_KEY",
	"license.key":      "ARTEFACT_LICENSE_KEY",
	"server.transport": "MCP_TRANSPORT",
	"server.host":      "MCP_HOST",
	"server.port":      "MCP_PORT",
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REVINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		prefixed := "REVINTEL_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", env)
		}
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("hubspot.base_url", "https://api.hubapi.com")
	v.SetDefault("hubspot.rate_limit", 10.0)
	v.SetDefault("hubspot.rate_burst", 10)
	v.SetDefault("hubspot.breaker_failures", 5)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 5.0)
	v.SetDefault("license.store_id", "290340")
	v.SetDefault("license.product_id", "822853")
	v.SetDefault("license.validate_url", "https://api.lemonsqueezy.com/v1/licenses/validate")
	v.SetDefault("license.cache", CacheFile)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks enumerated settings and ranges, reporting every problem
// at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		problems = append(problems, fmt.Sprintf("server.transport must be %s or %s, got %q",
			TransportStdio, TransportHTTP, c.Server.Transport))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.License.Cache {
	case CacheFile, CacheSQLite:
	case CacheRedis:
		if c.License.RedisAddr == "" {
			problems = append(problems, "license.redis_addr is required for the redis cache")
		}
	default:
		problems = append(problems, fmt.Sprintf("license.cache must be file, sqlite or redis, got %q", c.License.Cache))
	}

	if c.HubSpot.RateLimit < 0 || c.Salesforce.RateLimit < 0 {
		problems = append(problems, "rate_limit values must be >= 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger. Logs go to stderr so the
// stdio transport keeps stdout for protocol frames.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.OutputPaths = []string{"stderr"}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
