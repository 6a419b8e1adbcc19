package salesforce

import (
	"context"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/revenue-intel/internal/model"
)

// accountBatch bounds the ids per Account IN (...) query.
const accountBatch = 200

// CRM adapts Salesforce objects to the analysis model: Opportunity to Deal,
// OpportunityStage to the stage topology, Account to Company.
type CRM struct {
	client Client
}

// NewCRM returns a CRM reading through c.
func NewCRM(c Client) *CRM {
	return &CRM{client: c}
}

// FetchOpenDeals returns open opportunities. pipelineID filters by record
// type developer name.
func (r *CRM) FetchOpenDeals(ctx context.Context, pipelineID string) ([]model.Deal, error) {
	opps, err := FindOpenOpportunities(ctx, r.client, pipelineID)
	if err != nil {
		return nil, err
	}
	deals := make([]model.Deal, 0, len(opps))
	for _, o := range opps {
		pipeline := pipelineID
		if pipeline == "" {
			pipeline = o.RecordTypeID
		}
		deals = append(deals, model.Deal{
			ID:           o.ID,
			Name:         o.Name,
			Amount:       o.Amount,
			Stage:        o.StageName,
			Pipeline:     pipeline,
			CreateDate:   model.ParseDate(o.CreatedDate),
			CloseDate:    model.ParseDate(o.CloseDate),
			LastModified: model.ParseDate(o.LastModifiedDate),
		})
	}
	return deals, nil
}

// FetchStages returns the open stages in sort order. Stage ids are API
// names, which is what Opportunity.StageName holds.
func (r *CRM) FetchStages(ctx context.Context, _ string) (model.StageTopology, error) {
	stages, err := FindOpenStages(ctx, r.client)
	if err != nil {
		return model.StageTopology{}, err
	}
	top := model.StageTopology{Labels: make(map[string]string, len(stages))}
	for _, s := range stages {
		label := s.MasterLabel
		if label == "" {
			label = s.APIName
		}
		top.Order = append(top.Order, s.APIName)
		top.Labels[s.APIName] = label
	}
	return top, nil
}

// FetchCompany returns an account's firmographics.
func (r *CRM) FetchCompany(ctx context.Context, id string) (*model.Company, error) {
	acct, err := FindAccountByID(ctx, r.client, id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, eris.Errorf("sf: account %s not found", id)
	}
	c := model.Company{
		Name:      acct.Name,
		CRMID:     acct.ID,
		Domain:    acct.Website,
		Industry:  acct.Industry,
		Geography: region(*acct),
	}
	if acct.NumberOfEmployees > 0 {
		c.EmployeeCount = model.IntPtr(acct.NumberOfEmployees)
	}
	if acct.AnnualRevenue > 0 {
		c.AnnualRevenue = model.Float64Ptr(acct.AnnualRevenue)
	}
	return &c, nil
}

// FetchClients aggregates closed-won opportunities by account.
func (r *CRM) FetchClients(ctx context.Context) ([]model.Client, error) {
	won, err := FindWonOpportunities(ctx, r.client)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	deals := make([]model.ClosedDeal, 0, len(won))
	for _, o := range won {
		if o.AccountID != "" && !seen[o.AccountID] {
			seen[o.AccountID] = true
			ids = append(ids, o.AccountID)
		}
		deals = append(deals, model.ClosedDeal{
			ID:        o.ID,
			Amount:    o.Amount,
			CloseDate: model.ParseDate(o.CloseDate),
			CompanyID: o.AccountID,
		})
	}

	profiles := make(map[string]model.CompanyProfile, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(ids); start += accountBatch {
		batch := ids[start:min(start+accountBatch, len(ids))]
		g.Go(func() error {
			accounts, err := FindAccountsByIDs(gctx, r.client, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, a := range accounts {
				profiles[a.ID] = profile(a)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return model.AggregateClients(deals, profiles), nil
}

func region(a Account) string {
	if a.BillingState != "" {
		return a.BillingState
	}
	return a.BillingCountry
}

func profile(a Account) model.CompanyProfile {
	p := model.CompanyProfile{
		ID:          a.ID,
		Name:        a.Name,
		Industry:    a.Industry,
		StateRegion: region(a),
	}
	if a.NumberOfEmployees > 0 {
		p.EmployeeCount = model.EmployeeBand(strconv.Itoa(a.NumberOfEmployees))
	}
	if a.AnnualRevenue > 0 {
		p.CompanyRevenue = model.RevenueBand(strconv.FormatFloat(a.AnnualRevenue, 'f', -1, 64))
	}
	return p
}
