package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSFClient creates an sfClient backed by an httptest server.
func newTestSFClient(t *testing.T, handler http.Handler, opts ...ClientOption) Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	sf, err := gosf.Init(gosf.Creds{
		AccessToken: "test-token",
		Domain:      ts.URL,
	},
		gosf.WithValidateAuthentication(false),
		gosf.WithRoundTripper(http.DefaultTransport),
	)
	require.NoError(t, err)
	require.NotNil(t, sf)

	return NewClient(sf, opts...)
}

func TestSFClient_QueryStages(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/query")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 2,
			"done":      true,
			"records": []map[string]any{
				{"attributes": map[string]any{"type": "OpportunityStage"}, "ApiName": "Prospecting", "MasterLabel": "Prospecting", "SortOrder": 1},
				{"attributes": map[string]any{"type": "OpportunityStage"}, "ApiName": "Closing", "MasterLabel": "Closing", "SortOrder": 2},
			},
		})
	})

	client := newTestSFClient(t, handler, WithRateLimit(50))
	top, err := NewCRM(client).FetchStages(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Prospecting", "Closing"}, top.Order)
}

func TestSFClient_Query_Error(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"message": "invalid SOQL", "errorCode": "MALFORMED_QUERY"},
		})
	})

	client := newTestSFClient(t, handler)

	var accounts []Account
	err := client.Query(context.Background(), "INVALID SOQL", &accounts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: query")
}

func TestSFClient_RateLimitCanceled(t *testing.T) {
	client := newTestSFClient(t, http.NotFoundHandler(), WithRateLimit(0.001))

	// Drain the single burst token.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_ = client.Query(ctx, "SELECT Id FROM Account", &[]Account{})

	err := client.Query(ctx, "SELECT Id FROM Account", &[]Account{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: rate limit")
}
