// Package license validates product license keys against LemonSqueezy and
// gates live data sources by tier.
package license

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Tiers.
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

const (
	// DefaultValidateURL is the LemonSqueezy license validation endpoint.
	DefaultValidateURL = "https://api.lemonsqueezy.com/v1/licenses/validate"

	// DefaultStoreID and DefaultProductID identify this product's keys.
	DefaultStoreID   = "290340"
	DefaultProductID = "822853"

	// CacheTTL is how long a successful validation is trusted.
	CacheTTL = 24 * time.Hour

	// GraceTTL is how long a cached validation is trusted while the license
	// server is unreachable.
	GraceTTL = 7 * 24 * time.Hour

	instanceName = "revenue-intel"
	purchaseURL  = "https://artefactventures.lemonsqueezy.com"
)

// ErrLicenseRequired is returned when a data source needs a paid tier.
var ErrLicenseRequired = eris.New("license required")

// Info is the outcome of a license validation.
type Info struct {
	Valid        bool   `json:"valid"`
	Tier         string `json:"tier"`
	CustomerName string `json:"customer_name,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Free is the info for a caller without a key.
func Free() Info { return Info{Valid: true, Tier: TierFree} }

// Config configures a Validator.
type Config struct {
	Key         string
	StoreID     string
	ProductID   string
	ValidateURL string
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.StoreID == "" {
		c.StoreID = DefaultStoreID
	}
	if c.ProductID == "" {
		c.ProductID = DefaultProductID
	}
	if c.ValidateURL == "" {
		c.ValidateURL = DefaultValidateURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// Validator checks a license key, consulting its cache before the remote API.
type Validator struct {
	cfg   Config
	http  *http.Client
	cache Cache
	now   func() time.Time
	log   *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(v *Validator) { v.http = hc }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// NewValidator returns a Validator. A nil cache disables caching.
func NewValidator(cfg Config, cache Cache, opts ...Option) *Validator {
	cfg = cfg.withDefaults()
	v := &Validator{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: cache,
		now:   time.Now,
		log:   zap.L().With(zap.String("component", "license")),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Validate returns the license info for the configured key. No key means
// the free tier. Only valid results are cached.
func (v *Validator) Validate(ctx context.Context) Info {
	if v.cfg.Key == "" {
		return Free()
	}
	hash := HashKey(v.cfg.Key)

	if info, ok := v.cached(ctx, hash, CacheTTL); ok {
		return info
	}

	info, unreachable := v.validateRemote(ctx)
	if unreachable {
		if cached, ok := v.cached(ctx, hash, GraceTTL); ok {
			v.log.Warn("license: server unreachable, using cached validation")
			return cached
		}
		return info
	}

	if info.Valid {
		v.store(ctx, hash, info)
	}
	return info
}

func (v *Validator) cached(ctx context.Context, hash string, ttl time.Duration) (Info, bool) {
	if v.cache == nil {
		return Info{}, false
	}
	e, err := v.cache.Load(ctx, hash)
	if err != nil {
		v.log.Debug("license: cache read failed", zap.Error(err))
		return Info{}, false
	}
	if e == nil || e.KeyHash != hash || v.now().Sub(e.CachedAt) > ttl {
		return Info{}, false
	}
	tier := e.Tier
	if tier == "" {
		tier = TierFree
	}
	return Info{Valid: e.Valid, Tier: tier, CustomerName: e.CustomerName, ExpiresAt: e.ExpiresAt}, true
}

// store writes a cache entry. Failures are logged and otherwise ignored.
func (v *Validator) store(ctx context.Context, hash string, info Info) {
	if v.cache == nil {
		return
	}
	err := v.cache.Store(ctx, Entry{
		KeyHash:      hash,
		Valid:        info.Valid,
		Tier:         info.Tier,
		CustomerName: info.CustomerName,
		ExpiresAt:    info.ExpiresAt,
		CachedAt:     v.now(),
	})
	if err != nil {
		v.log.Debug("license: cache write failed", zap.Error(err))
	}
}

// HashKey returns the first 16 hex characters of the key's SHA-256, so raw
// keys are never persisted.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// sourceNames maps data sources that need a paid tier to their display
// phrase. Sources not listed are always allowed.
var sourceNames = map[string]string{
	"hubspot":    "Live HubSpot data",
	"salesforce": "Live Salesforce data",
	"file":       "Imported file data",
}

// Require returns ErrLicenseRequired when source needs a paid tier that
// info does not grant. The sample source is always allowed.
func Require(source string, info Info) error {
	phrase, gated := sourceNames[source]
	if !gated || info.Tier != TierFree {
		return nil
	}
	return eris.Wrapf(ErrLicenseRequired,
		"%s requires a Pro license. Purchase at %s\n"+
			"Set ARTEFACT_LICENSE_KEY in your environment to activate.\n"+
			"Use source='sample' for free demo data.", phrase, purchaseURL)
}
