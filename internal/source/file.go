package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revenue-intel/internal/model"
	"github.com/sells-group/revenue-intel/internal/tabular"
)

// fileSource imports deals and clients from CSV or XLSX exports.
type fileSource struct {
	files Files
}

// dealColumns are the columns a deals file may carry. Others go to
// Deal.Properties for exit criteria.
var dealColumns = map[string]bool{
	"id": true, "name": true, "amount": true, "stage": true, "pipeline": true,
	"create_date": true, "close_date": true, "last_modified": true,
}

func (f fileSource) FetchOpenDeals(_ context.Context, pipelineID string) ([]model.Deal, error) {
	recs, err := tabular.Read(f.files.Deals)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read deals file %s", f.files.Deals)
	}
	deals := make([]model.Deal, 0, len(recs))
	for _, r := range recs {
		d := model.Deal{
			ID:           r.Get("id", "deal_id"),
			Name:         r.Get("name", "dealname", "deal_name"),
			Amount:       model.SafeFloat(r.Get("amount")),
			Stage:        r.Get("stage", "dealstage"),
			Pipeline:     r.Get("pipeline"),
			CreateDate:   model.ParseDate(r.Get("create_date", "createdate")),
			CloseDate:    model.ParseDate(r.Get("close_date", "closedate")),
			LastModified: model.ParseDate(r.Get("last_modified", "hs_lastmodifieddate")),
		}
		if pipelineID != "" && d.Pipeline != "" && d.Pipeline != pipelineID {
			continue
		}
		for k, v := range r {
			if dealColumns[k] || v == "" {
				continue
			}
			if d.Properties == nil {
				d.Properties = make(map[string]string)
			}
			d.Properties[k] = v
		}
		deals = append(deals, d)
	}
	return deals, nil
}

// FetchStages returns the zero topology; LoadDeals then uses the default.
func (f fileSource) FetchStages(context.Context, string) (model.StageTopology, error) {
	return model.StageTopology{}, nil
}

func (f fileSource) FetchClients(context.Context) ([]model.Client, error) {
	recs, err := tabular.Read(f.files.Clients)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read clients file %s", f.files.Clients)
	}
	clients := make([]model.Client, 0, len(recs))
	for _, r := range recs {
		count := 0
		if n := model.SafeInt(r.Get("transaction_count")); n != nil {
			count = *n
		}
		name := r.Get("client_name", "name")
		if name == "" {
			name = "Unknown"
		}
		clients = append(clients, model.Client{
			ClientID:         r.Get("client_id", "id"),
			ClientName:       name,
			TotalRevenue:     model.SafeFloat(r.Get("total_revenue")),
			TransactionCount: count,
			LastPurchaseDate: model.ParseDate(r.Get("last_purchase_date")),
			Industry:         r.Get("industry"),
			EmployeeCount:    model.EmployeeBand(r.Get("employee_count")),
			CompanyRevenue:   model.RevenueBand(r.Get("company_revenue")),
			StateRegion:      r.Get("state_region", "region"),
		})
	}
	return clients, nil
}
