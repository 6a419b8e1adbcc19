package model

import "time"

// Client is a customer aggregate built from closed deals.
type Client struct {
	ClientID         string     `json:"client_id"`
	ClientName       string     `json:"client_name"`
	TotalRevenue     float64    `json:"total_revenue"`
	TransactionCount int        `json:"transaction_count"`
	LastPurchaseDate *time.Time `json:"last_purchase_date"`
	Industry         string     `json:"industry"`
	EmployeeCount    string     `json:"employee_count"`
	CompanyRevenue   string     `json:"company_revenue"`
	StateRegion      string     `json:"state_region"`
}

// Attribute dimensions used for ICP pattern extraction.
const (
	DimIndustry       = "industry"
	DimEmployeeCount  = "employee_count"
	DimCompanyRevenue = "company_revenue"
	DimRegion         = "region"
)

// Attribute returns the descriptive attribute for a dimension, or "Unknown"
// when it is not set.
func (c Client) Attribute(dim string) string {
	var v string
	switch dim {
	case DimIndustry:
		v = c.Industry
	case DimEmployeeCount:
		v = c.EmployeeCount
	case DimCompanyRevenue:
		v = c.CompanyRevenue
	case DimRegion:
		v = c.StateRegion
	}
	if v == "" {
		return "Unknown"
	}
	return v
}

// ClosedDeal is a won deal with its first associated company.
type ClosedDeal struct {
	ID        string
	Amount    float64
	CloseDate *time.Time
	CompanyID string
}

// CompanyProfile carries the descriptive attributes of a client company.
type CompanyProfile struct {
	ID             string
	Name           string
	Industry       string
	EmployeeCount  string
	CompanyRevenue string
	StateRegion    string
}

// AggregateClients rolls closed deals up into one Client per company. Deals
// without a company are dropped. Client order follows first appearance.
func AggregateClients(deals []ClosedDeal, companies map[string]CompanyProfile) []Client {
	index := make(map[string]int)
	var out []Client
	for _, d := range deals {
		if d.CompanyID == "" {
			continue
		}
		i, ok := index[d.CompanyID]
		if !ok {
			p := companies[d.CompanyID]
			name := p.Name
			if name == "" {
				name = "Unknown"
			}
			out = append(out, Client{
				ClientID:       d.CompanyID,
				ClientName:     name,
				Industry:       p.Industry,
				EmployeeCount:  p.EmployeeCount,
				CompanyRevenue: p.CompanyRevenue,
				StateRegion:    p.StateRegion,
			})
			i = len(out) - 1
			index[d.CompanyID] = i
		}
		c := &out[i]
		c.TotalRevenue += d.Amount
		c.TransactionCount++
		if d.CloseDate != nil && (c.LastPurchaseDate == nil || d.CloseDate.After(*c.LastPurchaseDate)) {
			t := *d.CloseDate
			c.LastPurchaseDate = &t
		}
	}
	return out
}
