// Package hubspot reads deals, pipelines and companies from the HubSpot CRM
// v3 REST API.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/revenue-intel/internal/resilience"
)

const (
	defaultBaseURL = "https://api.hubapi.com"

	// PageSize is the number of records requested per page.
	PageSize = 100

	// MaxPages caps pagination at 5,000 records.
	MaxPages = 50

	// batchSize is the HubSpot limit for batch reads.
	batchSize = 100
)

// Sentinel errors for HTTP failures that need operator action.
var (
	ErrUnauthorized = eris.New("HubSpot API key is invalid or expired.\n\n" +
		"To fix this:\n" +
		"1. Go to HubSpot → Settings → Integrations → Private Apps\n" +
		"2. Create a new private app (or regenerate the token on your existing one)\n" +
		"3. Required scopes: crm.objects.deals.read, crm.objects.companies.read\n" +
		"4. Copy the access token and set it as HUBSPOT_API_KEY")

	ErrForbidden = eris.New("HubSpot API key is missing required permissions.\n\n" +
		"To fix this:\n" +
		"1. Go to HubSpot → Settings → Integrations → Private Apps\n" +
		"2. Edit your private app's scopes\n" +
		"3. Enable: crm.objects.deals.read, crm.objects.companies.read\n" +
		"4. If using pipeline features, also enable: crm.objects.deals.write\n" +
		"5. Save and re-authorize the app")

	ErrRateLimited = eris.New("HubSpot API rate limit exceeded. Wait a few seconds and try again.\n" +
		"HubSpot allows 100 requests per 10 seconds for private apps.")
)

const errUnreachable = "Cannot connect to HubSpot API. Check your internet connection.\n" +
		"If you're behind a proxy or firewall, ensure api.hubapi.com is accessible."

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit overrides the request rate. HubSpot private apps get 100
// requests per 10 seconds.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithBreaker overrides the circuit breaker settings.
func WithBreaker(cfg resilience.BreakerConfig) Option {
	return func(c *Client) {
		c.breaker = resilience.NewBreaker("hubspot", cfg)
	}
}

// Client is a HubSpot CRM reader. It is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewClient creates a HubSpot client authenticated with a private app token.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, eris.New("hubspot: HubSpot API key required. Set HUBSPOT_API_KEY environment variable.")
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		breaker: resilience.NewBreaker("hubspot", resilience.DefaultBreakerConfig()),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// MaskedKey returns the API key with all but the first and last four
// characters hidden.
func (c *Client) MaskedKey() string {
	if len(c.apiKey) > 8 {
		return c.apiKey[:4] + "..." + c.apiKey[len(c.apiKey)-4:]
	}
	return "***"
}

func (c *Client) String() string {
	return "hubspot.Client(api_key=" + c.MaskedKey() + ")"
}

// do sends one request and decodes a JSON response into out. Requests are
// never retried.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "hubspot: rate limiter")
	}

	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			b, err := json.Marshal(body)
			if err != nil {
				return eris.Wrap(err, "hubspot: marshal request")
			}
			reader = bytes.NewReader(b)
		}

		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return eris.Wrap(err, "hubspot: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			var opErr *net.OpError
			if errors.As(err, &opErr) && opErr.Op == "dial" {
				return eris.Wrap(err, errUnreachable)
			}
			return eris.Wrap(err, "hubspot: send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "hubspot: read response")
		}

		if err := statusError(resp.StatusCode, respBody); err != nil {
			return err
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return eris.Wrap(err, "hubspot: unmarshal response")
		}
		return nil
	})
}

func statusError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	var err error
	switch status {
	case http.StatusUnauthorized:
		err = ErrUnauthorized
	case http.StatusForbidden:
		err = ErrForbidden
	case http.StatusTooManyRequests:
		err = ErrRateLimited
	default:
		text := string(body)
		if len(text) > 200 {
			text = text[:200]
		}
		err = eris.Errorf("HubSpot API error (%d): %s", status, text)
	}
	if resilience.IsTransientHTTPStatus(status) {
		return resilience.NewTransientError(err, status)
	}
	return err
}
