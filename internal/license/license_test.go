package license

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func lsServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req validateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "lic-abc-123", req.LicenseKey)
		assert.Equal(t, "revenue-intel", req.InstanceName)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

const validBody = `{"valid":true,"license_key":{"customer_name":"Ada","expires_at":null},
	"meta":{"store_id":290340,"product_id":822853,"variant_name":"Enterprise"}}`

func TestValidate_NoKeyIsFree(t *testing.T) {
	t.Parallel()
	info := NewValidator(Config{}, nil).Validate(context.Background())
	assert.Equal(t, Free(), info)
}

func TestValidate_Remote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		want     Info
		wantErr  string
		noCached bool
	}{
		{
			name:   "enterprise",
			status: http.StatusOK,
			body:   validBody,
			want:   Info{Valid: true, Tier: TierEnterprise, CustomerName: "Ada"},
		},
		{
			name:   "unknown variant defaults to pro",
			status: http.StatusOK,
			body:   `{"valid":true,"meta":{"store_id":"290340","variant_name":"Lifetime"}}`,
			want:   Info{Valid: true, Tier: TierPro},
		},
		{
			name:    "http error",
			status:  http.StatusUnprocessableEntity,
			body:    `{}`,
			wantErr: "License validation failed (HTTP 422)",
		},
		{
			name:    "invalid key",
			status:  http.StatusOK,
			body:    `{"valid":false,"error":"license_key not found."}`,
			wantErr: "license_key not found.",
		},
		{
			name:    "invalid key default message",
			status:  http.StatusOK,
			body:    `{"valid":false}`,
			wantErr: "Invalid license key",
		},
		{
			name:    "wrong store",
			status:  http.StatusOK,
			body:    `{"valid":true,"meta":{"store_id":1,"product_id":822853}}`,
			wantErr: "does not belong to this product",
		},
		{
			name:    "wrong product",
			status:  http.StatusOK,
			body:    `{"valid":true,"meta":{"store_id":290340,"product_id":2}}`,
			wantErr: "does not belong to this product",
		},
		{
			name:    "malformed",
			status:  http.StatusOK,
			body:    `{not json`,
			wantErr: "License validation error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv, _ := lsServer(t, tt.status, tt.body)
			cache := NewFileCache(filepath.Join(t.TempDir(), "cache.json"))
			v := NewValidator(Config{Key: "lic-abc-123", ValidateURL: srv.URL}, cache, WithClock(func() time.Time { return testNow }))

			info := v.Validate(context.Background())
			stored, err := cache.Load(context.Background(), HashKey("lic-abc-123"))
			require.NoError(t, err)

			if tt.wantErr != "" {
				assert.False(t, info.Valid)
				assert.Equal(t, TierFree, info.Tier)
				assert.Contains(t, info.Error, tt.wantErr)
				assert.Nil(t, stored, "invalid results are not cached")
				return
			}
			assert.Equal(t, tt.want, info)
			require.NotNil(t, stored)
			assert.Equal(t, tt.want.Tier, stored.Tier)
		})
	}
}

func TestValidate_UsesFreshCache(t *testing.T) {
	t.Parallel()

	srv, calls := lsServer(t, http.StatusOK, validBody)
	cache := NewFileCache(filepath.Join(t.TempDir(), "cache.json"))
	now := testNow
	v := NewValidator(Config{Key: "lic-abc-123", ValidateURL: srv.URL}, cache, WithClock(func() time.Time { return now }))

	first := v.Validate(context.Background())
	now = testNow.Add(23 * time.Hour)
	second := v.Validate(context.Background())
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	now = testNow.Add(25 * time.Hour)
	v.Validate(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestValidate_GracePeriod(t *testing.T) {
	t.Parallel()

	// Nothing listens on a closed server's address.
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	cache := NewFileCache(filepath.Join(t.TempDir(), "cache.json"))
	hash := HashKey("lic-abc-123")
	require.NoError(t, cache.Store(context.Background(), Entry{
		KeyHash: hash, Valid: true, Tier: TierPro, CachedAt: testNow.Add(-3 * 24 * time.Hour),
	}))

	v := NewValidator(Config{Key: "lic-abc-123", ValidateURL: deadURL}, cache, WithClock(func() time.Time { return testNow }))
	info := v.Validate(context.Background())
	assert.True(t, info.Valid)
	assert.Equal(t, TierPro, info.Tier)

	stale := NewValidator(Config{Key: "lic-abc-123", ValidateURL: deadURL}, cache,
		WithClock(func() time.Time { return testNow.Add(5 * 24 * time.Hour) }))
	info = stale.Validate(context.Background())
	assert.False(t, info.Valid)
	assert.Equal(t, "Cannot reach license server. Check your network.", info.Error)
}

func TestHashKey(t *testing.T) {
	t.Parallel()
	h := HashKey("lic-abc-123")
	assert.Len(t, h, 16)
	assert.Equal(t, h, HashKey("lic-abc-123"))
	assert.NotEqual(t, h, HashKey("lic-abc-124"))
}

func TestRequire(t *testing.T) {
	t.Parallel()

	pro := Info{Valid: true, Tier: TierPro}
	assert.NoError(t, Require("sample", Free()))
	assert.NoError(t, Require("hubspot", pro))
	assert.NoError(t, Require("salesforce", Info{Tier: TierEnterprise}))

	err := Require("hubspot", Free())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLicenseRequired))
	assert.Contains(t, err.Error(), "Live HubSpot data requires a Pro license")
	assert.Contains(t, err.Error(), "source='sample'")

	assert.ErrorIs(t, Require("salesforce", Free()), ErrLicenseRequired)
	assert.ErrorIs(t, Require("file", Free()), ErrLicenseRequired)
}

func TestFileCache_KeyMismatch(t *testing.T) {
	t.Parallel()
	cache := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache.json"))

	e, err := cache.Load(context.Background(), "aaaa")
	require.NoError(t, err)
	assert.Nil(t, e)

	require.NoError(t, cache.Store(context.Background(), Entry{KeyHash: "aaaa", Valid: true, Tier: TierPro, CachedAt: testNow}))
	e, err = cache.Load(context.Background(), "bbbb")
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = cache.Load(context.Background(), "aaaa")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.True(t, e.CachedAt.Equal(testNow))
}
