package hubspot

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revenue-intel/internal/model"
)

var companyProperties = []string{
	"name", "domain", "industry", "numberofemployees",
	"annualrevenue", "state", "country",
}

// maxSearchLimit is HubSpot's cap on search page size.
const maxSearchLimit = 100

func companyFromObject(o crmObject) model.Company {
	props := o.Properties
	name, ok := props["name"]
	if !ok {
		name = "Unknown"
	}
	geo := props["state"]
	if geo == "" {
		geo = props["country"]
	}
	return model.Company{
		Name:          name,
		CRMID:         o.ID,
		Domain:        props["domain"],
		Industry:      props["industry"],
		EmployeeCount: model.SafeInt(props["numberofemployees"]),
		AnnualRevenue: model.Float64Ptr(model.SafeFloat(props["annualrevenue"])),
		Geography:     geo,
	}
}

// FetchCompany returns the firmographics of one company.
func (c *Client) FetchCompany(ctx context.Context, id string) (*model.Company, error) {
	q := url.Values{"properties": {strings.Join(companyProperties, ",") + ",hs_analytics_source,lifecyclestage"}}
	var o crmObject
	if err := c.do(ctx, http.MethodGet, "/crm/v3/objects/companies/"+url.PathEscape(id), q, nil, &o); err != nil {
		return nil, eris.Wrapf(err, "hubspot: get company %s", id)
	}
	company := companyFromObject(o)
	return &company, nil
}

// SearchCompanies runs a free-text search over company name and domain.
// limit is capped at 100.
func (c *Client) SearchCompanies(ctx context.Context, query string, limit int) ([]model.Company, error) {
	if limit <= 0 {
		limit = 10
	}
	limit = min(limit, maxSearchLimit)

	req := searchRequest{Query: query, Limit: limit, Properties: companyProperties}
	var p page
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/companies/search", nil, req, &p); err != nil {
		return nil, eris.Wrap(err, "hubspot: search companies")
	}
	out := make([]model.Company, 0, len(p.Results))
	for _, o := range p.Results {
		out = append(out, companyFromObject(o))
	}
	return out, nil
}
