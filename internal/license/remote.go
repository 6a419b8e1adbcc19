package license

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

type validateRequest struct {
	LicenseKey   string `json:"license_key"`
	InstanceName string `json:"instance_name"`
}

type validateResponse struct {
	Valid      bool   `json:"valid"`
	Error      string `json:"error"`
	LicenseKey struct {
		CustomerName string `json:"customer_name"`
		ExpiresAt    string `json:"expires_at"`
	} `json:"license_key"`
	Meta struct {
		StoreID     json.Number `json:"store_id"`
		ProductID   json.Number `json:"product_id"`
		VariantName string      `json:"variant_name"`
	} `json:"meta"`
}

var tierByVariant = map[string]string{
	"pro":        TierPro,
	"enterprise": TierEnterprise,
}

func invalid(format string, args ...any) Info {
	return Info{Valid: false, Tier: TierFree, Error: fmt.Sprintf(format, args...)}
}

// validateRemote calls the LemonSqueezy validate endpoint. unreachable is
// true when no connection could be made.
func (v *Validator) validateRemote(ctx context.Context) (info Info, unreachable bool) {
	body, err := json.Marshal(validateRequest{LicenseKey: v.cfg.Key, InstanceName: instanceName})
	if err != nil {
		return invalid("License validation error: %v", err), false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.ValidateURL, bytes.NewReader(body))
	if err != nil {
		return invalid("License validation error: %v", err), false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := v.http.Do(req)
	if err != nil {
		if isConnectError(err) {
			return invalid("Cannot reach license server. Check your network."), true
		}
		return invalid("License validation error: %v", err), false
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return invalid("License validation failed (HTTP %d)", resp.StatusCode), false
	}

	var data validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return invalid("License validation error: %v", err), false
	}
	if !data.Valid {
		msg := data.Error
		if msg == "" {
			msg = "Invalid license key"
		}
		return invalid("%s", msg), false
	}

	wrongProduct := "License key does not belong to this product. Purchase a valid license at " + purchaseURL
	if id := data.Meta.StoreID.String(); id != "" && id != v.cfg.StoreID {
		return invalid("%s", wrongProduct), false
	}
	if id := data.Meta.ProductID.String(); id != "" && id != v.cfg.ProductID {
		return invalid("%s", wrongProduct), false
	}

	tier, ok := tierByVariant[strings.ToLower(data.Meta.VariantName)]
	if !ok {
		tier = TierPro
	}
	return Info{
		Valid:        true,
		Tier:         tier,
		CustomerName: data.LicenseKey.CustomerName,
		ExpiresAt:    data.LicenseKey.ExpiresAt,
	}, false
}

func isConnectError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
