package hubspot

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revenue-intel/internal/model"
)

var openDealProperties = []string{
	"dealname", "amount", "closedate", "dealstage",
	"pipeline", "createdate", "hs_lastmodifieddate",
}

type filter struct {
	PropertyName string   `json:"propertyName"`
	Operator     string   `json:"operator"`
	Value        string   `json:"value,omitempty"`
	Values       []string `json:"values,omitempty"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups,omitempty"`
	Query        string        `json:"query,omitempty"`
	Properties   []string      `json:"properties"`
	Limit        int           `json:"limit"`
	After        string        `json:"after,omitempty"`
}

type association struct {
	ID string `json:"id"`
}

type crmObject struct {
	ID           string            `json:"id"`
	Properties   map[string]string `json:"properties"`
	Associations struct {
		Companies struct {
			Results []association `json:"results"`
		} `json:"companies"`
	} `json:"associations"`
}

type page struct {
	Results []crmObject `json:"results"`
	Paging  struct {
		Next *struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

func (p page) next() string {
	if p.Paging.Next == nil {
		return ""
	}
	return p.Paging.Next.After
}

type pipelineStage struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"displayOrder"`
	Metadata     struct {
		IsClosed string `json:"isClosed"`
	} `json:"metadata"`
}

type pipelineDef struct {
	ID     string          `json:"id"`
	Label  string          `json:"label"`
	Stages []pipelineStage `json:"stages"`
}

// FetchOpenDeals returns every open deal, optionally restricted to one
// pipeline. Closed stages are resolved from the pipeline definitions and
// excluded server-side.
func (c *Client) FetchOpenDeals(ctx context.Context, pipelineID string) ([]model.Deal, error) {
	closed, err := c.closedStageIDs(ctx, pipelineID)
	if err != nil {
		return nil, err
	}

	var filters []filter
	if len(closed) > 0 {
		filters = append(filters, filter{PropertyName: "dealstage", Operator: "NOT_IN", Values: closed})
	}
	if pipelineID != "" {
		filters = append(filters, filter{PropertyName: "pipeline", Operator: "EQ", Value: pipelineID})
	}

	req := searchRequest{Properties: openDealProperties, Limit: PageSize, After: "0"}
	if len(filters) > 0 {
		req.FilterGroups = []filterGroup{{Filters: filters}}
	}

	var deals []model.Deal
	for range MaxPages {
		var p page
		if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/deals/search", nil, req, &p); err != nil {
			return nil, eris.Wrap(err, "hubspot: search open deals")
		}
		for _, o := range p.Results {
			deals = append(deals, dealFromObject(o))
		}
		after := p.next()
		if after == "" {
			break
		}
		req.After = after
	}
	return deals, nil
}

func dealFromObject(o crmObject) model.Deal {
	props := o.Properties
	return model.Deal{
		ID:           o.ID,
		Name:         props["dealname"],
		Amount:       model.SafeFloat(props["amount"]),
		Stage:        props["dealstage"],
		Pipeline:     props["pipeline"],
		CreateDate:   model.ParseDate(props["createdate"]),
		CloseDate:    model.ParseDate(props["closedate"]),
		LastModified: model.ParseDate(props["hs_lastmodifieddate"]),
	}
}

// closedStageIDs lists the ids of closed stages across all pipelines, or
// only pipelineID's when set. Stages flagged isClosed and the stock
// closedwon/closedlost ids both count.
func (c *Client) closedStageIDs(ctx context.Context, pipelineID string) ([]string, error) {
	var resp struct {
		Results []pipelineDef `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/crm/v3/pipelines/deals", nil, nil, &resp); err != nil {
		return nil, eris.Wrap(err, "hubspot: list pipelines")
	}

	seen := make(map[string]bool)
	var ids []string
	for _, p := range resp.Results {
		if pipelineID != "" && p.ID != pipelineID {
			continue
		}
		for _, s := range p.Stages {
			lower := strings.ToLower(s.ID)
			if s.Metadata.IsClosed == "true" || lower == "closedwon" || lower == "closedlost" {
				if !seen[s.ID] {
					seen[s.ID] = true
					ids = append(ids, s.ID)
				}
			}
		}
	}
	return ids, nil
}

// FetchStages returns the stage order and labels of a pipeline, sorted by
// display order. An empty pipelineID means "default".
func (c *Client) FetchStages(ctx context.Context, pipelineID string) (model.StageTopology, error) {
	if pipelineID == "" {
		pipelineID = "default"
	}
	var def pipelineDef
	if err := c.do(ctx, http.MethodGet, "/crm/v3/pipelines/deals/"+url.PathEscape(pipelineID), nil, nil, &def); err != nil {
		return model.StageTopology{}, eris.Wrapf(err, "hubspot: get pipeline %s", pipelineID)
	}

	stages := def.Stages
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].DisplayOrder < stages[j].DisplayOrder
	})

	top := model.StageTopology{Labels: make(map[string]string, len(stages))}
	for _, s := range stages {
		label := s.Label
		if label == "" {
			label = s.ID
		}
		top.Order = append(top.Order, s.ID)
		top.Labels[s.ID] = label
	}
	return top, nil
}

// StageChange is one entry of a deal's stage history.
type StageChange struct {
	Stage        string `json:"stage"`
	EnteredAt    string `json:"entered_at,omitempty"`
	ExitedAt     string `json:"exited_at,omitempty"`
	DurationDays *int   `json:"duration_days"`
}

// FetchDealStageHistory returns the dealstage history of one deal, newest
// first as HubSpot reports it.
func (c *Client) FetchDealStageHistory(ctx context.Context, dealID string) ([]StageChange, error) {
	var resp struct {
		History struct {
			DealStage []struct {
				Value     string `json:"value"`
				Timestamp string `json:"timestamp"`
			} `json:"dealstage"`
		} `json:"propertiesWithHistory"`
	}
	q := url.Values{"propertiesWithHistory": {"dealstage"}}
	if err := c.do(ctx, http.MethodGet, "/crm/v3/objects/deals/"+url.PathEscape(dealID), q, nil, &resp); err != nil {
		return nil, eris.Wrapf(err, "hubspot: deal %s stage history", dealID)
	}

	versions := resp.History.DealStage
	out := make([]StageChange, 0, len(versions))
	for i, v := range versions {
		ch := StageChange{Stage: v.Value}
		entered := model.ParseDate(v.Timestamp)
		if entered != nil {
			ch.EnteredAt = entered.Format("2006-01-02T15:04:05Z07:00")
		}
		if i > 0 {
			exited := model.ParseDate(versions[i-1].Timestamp)
			if exited != nil {
				ch.ExitedAt = exited.Format("2006-01-02T15:04:05Z07:00")
				if entered != nil {
					d := model.DaysBetween(*exited, *entered)
					ch.DurationDays = &d
				}
			}
		}
		out = append(out, ch)
	}
	return out, nil
}

// pageQuery builds the query string for a list endpoint page.
func pageQuery(properties string, after string) url.Values {
	q := url.Values{
		"limit":        {strconv.Itoa(PageSize)},
		"properties":   {properties},
		"associations": {"companies"},
	}
	if after != "" {
		q.Set("after", after)
	}
	return q
}
