package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/revenue-intel/internal/analysis"
	"github.com/sells-group/revenue-intel/internal/config"
	"github.com/sells-group/revenue-intel/internal/icp"
	"github.com/sells-group/revenue-intel/internal/license"
	"github.com/sells-group/revenue-intel/internal/pipeline"
	"github.com/sells-group/revenue-intel/internal/resilience"
	"github.com/sells-group/revenue-intel/internal/rfm"
	"github.com/sells-group/revenue-intel/internal/source"
	"github.com/sells-group/revenue-intel/pkg/hubspot"
	sfpkg "github.com/sells-group/revenue-intel/pkg/salesforce"
)

// env holds the collaborators shared by every command.
type env struct {
	Service *analysis.Service
	closers []io.Closer
}

func (e *env) Close() {
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			zap.L().Debug("close collaborator", zap.Error(err))
		}
	}
}

// initEnv validates the license and builds the source registry and scoring
// overrides from cfg.
func initEnv(ctx context.Context) (*env, error) {
	e := &env{}

	cache, closer, err := openLicenseCache(ctx, cfg.License)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		e.closers = append(e.closers, closer)
	}
	info := license.NewValidator(license.Config{
		Key:         cfg.License.Key,
		StoreID:     cfg.License.StoreID,
		ProductID:   cfg.License.ProductID,
		ValidateURL: cfg.License.ValidateURL,
	}, cache).Validate(ctx)
	if !info.Valid {
		zap.L().Warn("license invalid, running in free mode", zap.String("error", info.Error))
		info.Tier = license.TierFree
	}

	overrides, err := loadOverrides(cfg.Scoring)
	if err != nil {
		e.Close()
		return nil, err
	}

	reg := &source.Registry{
		Files: source.Files{Clients: cfg.File.Clients, Deals: cfg.File.Deals},
	}
	hs, err := initHubSpot(cfg.HubSpot)
	if err != nil {
		e.Close()
		return nil, err
	}
	if hs != nil {
		reg.HubSpot = hs
	}
	sf, err := initSalesforce(cfg.Salesforce)
	if err != nil {
		// A broken Salesforce login should not block the other sources.
		zap.L().Warn("salesforce unavailable", zap.Error(err))
	} else if sf != nil {
		reg.Salesforce = sf
	}

	e.Service = &analysis.Service{
		Sources:   reg,
		License:   info,
		Overrides: overrides,
	}
	return e, nil
}

// openLicenseCache opens the configured license cache. The closer is nil for
// the file cache.
func openLicenseCache(ctx context.Context, c config.LicenseConfig) (license.Cache, io.Closer, error) {
	switch c.Cache {
	case config.CacheSQLite:
		path := c.CachePath
		if path == "" {
			def, err := license.DefaultCachePath()
			if err != nil {
				return nil, nil, err
			}
			path = filepath.Join(filepath.Dir(def), "license_cache.db")
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, nil, eris.Wrap(err, "license: create cache dir")
			}
		}
		sc, err := license.NewSQLiteCache(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return sc, sc, nil
	case config.CacheRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		return license.NewRedisCache(rdb), rdb, nil
	default:
		path := c.CachePath
		if path == "" {
			def, err := license.DefaultCachePath()
			if err != nil {
				return nil, nil, err
			}
			path = def
		}
		return license.NewFileCache(path), nil, nil
	}
}

// loadOverrides reads the YAML scoring override files named in cfg.
func loadOverrides(c config.ScoringConfig) (analysis.Overrides, error) {
	var o analysis.Overrides
	if c.ICP != "" {
		ic, err := icp.LoadConfig(c.ICP)
		if err != nil {
			return o, err
		}
		o.ICP = &ic
	}
	if c.RFM != "" {
		th, err := rfm.LoadThresholds(c.RFM)
		if err != nil {
			return o, err
		}
		o.RFM = &th
	}
	if c.ExitCriteria != "" {
		ec, err := pipeline.LoadExitCriteria(c.ExitCriteria)
		if err != nil {
			return o, err
		}
		o.ExitCriteria = ec
	}
	return o, nil
}

// initHubSpot returns nil when no API key is configured.
func initHubSpot(c config.HubSpotConfig) (*hubspot.Client, error) {
	if c.APIKey == "" {
		return nil, nil
	}
	opts := []hubspot.Option{}
	if c.BaseURL != "" {
		opts = append(opts, hubspot.WithBaseURL(c.BaseURL))
	}
	if c.RateLimit > 0 {
		opts = append(opts, hubspot.WithRateLimit(rate.Limit(c.RateLimit), max(c.RateBurst, 1)))
	}
	if c.BreakerFaults > 0 {
		bc := resilience.DefaultBreakerConfig()
		bc.FailureThreshold = c.BreakerFaults
		opts = append(opts, hubspot.WithBreaker(bc))
	}
	hs, err := hubspot.NewClient(c.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("hubspot configured", zap.Stringer("client", hs))
	return hs, nil
}

// initSalesforce returns nil when JWT credentials are not configured.
func initSalesforce(c config.SalesforceConfig) (*sfpkg.CRM, error) {
	if !c.Configured() {
		return nil, nil
	}

	pemData, err := os.ReadFile(c.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	client, err := sfpkg.Connect(sfpkg.JWTCreds{
		LoginURL: c.LoginURL,
		ClientID: c.ClientID,
		Username: c.Username,
		KeyPEM:   string(pemData),
	}, sfpkg.WithRateLimit(c.RateLimit))
	if err != nil {
		return nil, err
	}
	return sfpkg.NewCRM(client), nil
}
