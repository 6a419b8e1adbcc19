package hubspot

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/revenue-intel/internal/model"
)

// ClosedWonStage is the stage id client aggregation keeps.
const ClosedWonStage = "closedwon"

// batchConcurrency bounds parallel company batch reads.
const batchConcurrency = 4

// FetchClients aggregates closed-won deals into one client per associated
// company. A deal counts toward its first associated company only.
func (c *Client) FetchClients(ctx context.Context) ([]model.Client, error) {
	deals, err := c.fetchDealsWithCompanies(ctx, ClosedWonStage)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	closed := make([]model.ClosedDeal, 0, len(deals))
	for _, d := range deals {
		first := ""
		for _, a := range d.Associations.Companies.Results {
			if a.ID == "" {
				continue
			}
			if first == "" {
				first = a.ID
			}
			if !seen[a.ID] {
				seen[a.ID] = true
				ids = append(ids, a.ID)
			}
		}
		closed = append(closed, model.ClosedDeal{
			ID:        d.ID,
			Amount:    model.SafeFloat(d.Properties["amount"]),
			CloseDate: model.ParseDate(d.Properties["closedate"]),
			CompanyID: first,
		})
	}

	profiles, err := c.batchReadCompanies(ctx, ids)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("hubspot: aggregated clients",
		zap.Int("deals", len(closed)),
		zap.Int("companies", len(profiles)),
	)
	return model.AggregateClients(closed, profiles), nil
}

// fetchDealsWithCompanies pages through all deals with their company
// associations, keeping those in stage. An empty stage keeps every deal.
func (c *Client) fetchDealsWithCompanies(ctx context.Context, stage string) ([]crmObject, error) {
	var out []crmObject
	after := ""
	for range MaxPages {
		var p page
		q := pageQuery("dealname,amount,closedate,dealstage,pipeline", after)
		if err := c.do(ctx, http.MethodGet, "/crm/v3/objects/deals", q, nil, &p); err != nil {
			return nil, eris.Wrap(err, "hubspot: list deals")
		}
		for _, o := range p.Results {
			if stage != "" && strings.ToLower(o.Properties["dealstage"]) != stage {
				continue
			}
			out = append(out, o)
		}
		after = p.next()
		if after == "" {
			break
		}
	}
	return out, nil
}

type batchReadRequest struct {
	Inputs     []association `json:"inputs"`
	Properties []string      `json:"properties"`
}

// batchReadCompanies loads company profiles 100 ids at a time.
func (c *Client) batchReadCompanies(ctx context.Context, ids []string) (map[string]model.CompanyProfile, error) {
	profiles := make(map[string]model.CompanyProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for start := 0; start < len(ids); start += batchSize {
		batch := ids[start:min(start+batchSize, len(ids))]
		g.Go(func() error {
			req := batchReadRequest{Properties: companyProperties}
			for _, id := range batch {
				req.Inputs = append(req.Inputs, association{ID: id})
			}
			var p page
			if err := c.do(gctx, http.MethodPost, "/crm/v3/objects/companies/batch/read", nil, req, &p); err != nil {
				return eris.Wrap(err, "hubspot: batch read companies")
			}

			mu.Lock()
			defer mu.Unlock()
			for _, o := range p.Results {
				profiles[o.ID] = profileFromObject(o)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func profileFromObject(o crmObject) model.CompanyProfile {
	props := o.Properties
	region := props["state"]
	if region == "" {
		region = props["country"]
	}
	name, ok := props["name"]
	if !ok {
		name = "Unknown"
	}
	return model.CompanyProfile{
		ID:             o.ID,
		Name:           name,
		Industry:       props["industry"],
		EmployeeCount:  model.EmployeeBand(props["numberofemployees"]),
		CompanyRevenue: model.RevenueBand(props["annualrevenue"]),
		StateRegion:    region,
	}
}
