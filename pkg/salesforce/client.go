// Package salesforce reads opportunities, stages and accounts from the
// Salesforce REST API through go-salesforce.
package salesforce

import (
	"context"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/revenue-intel/internal/resilience"
)

// Client runs SOQL queries.
type Client interface {
	Query(ctx context.Context, soql string, out any) error
}

// ClientOption configures the Salesforce client.
type ClientOption func(*sfClient)

// WithRateLimit sets a per-second rate limit for SF API calls.
// A burst equal to the integer portion of rps is allowed.
func WithRateLimit(rps float64) ClientOption {
	return func(c *sfClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithBreaker overrides the circuit breaker settings.
func WithBreaker(cfg resilience.BreakerConfig) ClientOption {
	return func(c *sfClient) {
		c.breaker = resilience.NewBreaker("salesforce", cfg)
	}
}

// sfClient wraps the go-salesforce/v3 Salesforce struct.
//
// go-salesforce does not take a context, so ctx only bounds the rate
// limiter wait and the breaker admission.
type sfClient struct {
	sf      *salesforce.Salesforce
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewClient creates a Client wrapping the given go-salesforce instance.
func NewClient(sf *salesforce.Salesforce, opts ...ClientOption) Client {
	c := &sfClient{
		sf:      sf,
		breaker: resilience.NewBreaker("salesforce", resilience.DefaultBreakerConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// JWTCreds holds the settings for the OAuth 2.0 JWT bearer flow.
type JWTCreds struct {
	LoginURL string
	ClientID string
	Username string
	KeyPEM   string
}

// Connect authenticates with the JWT bearer flow and returns a ready Client.
func Connect(creds JWTCreds, opts ...ClientOption) (Client, error) {
	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         creds.LoginURL,
		Username:       creds.Username,
		ConsumerKey:    creds.ClientID,
		ConsumerRSAPem: creds.KeyPEM,
	})
	if err != nil {
		return nil, eris.Wrap(err, "sf: init")
	}
	return NewClient(sf, opts...), nil
}

func (c *sfClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *sfClient) Query(ctx context.Context, soql string, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "sf: rate limit")
	}
	return c.breaker.Execute(ctx, func(context.Context) error {
		if err := c.sf.Query(soql, out); err != nil {
			return eris.Wrap(err, "sf: query")
		}
		return nil
	})
}
