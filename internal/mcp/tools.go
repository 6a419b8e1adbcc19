package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sells-group/revenue-intel/internal/analysis"
	"github.com/sells-group/revenue-intel/internal/engine"
	"github.com/sells-group/revenue-intel/internal/gtm"
	"github.com/sells-group/revenue-intel/internal/icp"
	"github.com/sells-group/revenue-intel/internal/model"
	"github.com/sells-group/revenue-intel/internal/pipeline"
	"github.com/sells-group/revenue-intel/internal/rfm"
	"github.com/sells-group/revenue-intel/internal/signal"
	"github.com/sells-group/revenue-intel/internal/source"
)

type handlerFunc func(ctx context.Context, svc *analysis.Service, args json.RawMessage) (any, error)

type tool struct {
	Name        string
	Title       string
	Description string
	Schema      map[string]any
	handle      handlerFunc
}

// descriptor is the tools/list entry for a tool.
func (t *tool) descriptor() map[string]any {
	return map[string]any{
		"name":        t.Name,
		"description": t.Description,
		"inputSchema": t.Schema,
		"annotations": map[string]any{
			"title":           t.Title,
			"readOnlyHint":    true,
			"destructiveHint": false,
			"idempotentHint":  true,
			"openWorldHint":   true,
		},
	}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func enumProp(desc, def string, values []string) map[string]any {
	p := map[string]any{"type": "string", "description": desc, "enum": values}
	if def != "" {
		p["default"] = def
	}
	return p
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func sourceProp() map[string]any {
	return enumProp(`Data source: "hubspot" or "salesforce" for live CRM data, "file" for the configured `+
		`CSV/XLSX import, "sample" for built-in demo data.`, source.HubSpot, source.Modes)
}

func pipelineProp() map[string]any {
	return stringProp("Optional CRM pipeline ID to filter. Default: all pipelines.")
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return model.InvalidArgument("Invalid arguments: %v", err)
	}
	return nil
}

func catalog() []*tool {
	return []*tool{
		{
			Name:  "run_rfm",
			Title: "RFM Analysis",
			Description: "Run RFM (Recency, Frequency, Monetary) analysis on client data. " +
				"Scores clients based on purchase behavior, segments them into 11 categories, " +
				"and extracts ICP patterns from top performers.",
			Schema: objectSchema(map[string]any{
				"source": sourceProp(),
				"industry_preset": enumProp(`Scoring preset: "b2b_service", "saas", "manufacturing", or "default".`,
					rfm.PresetDefault, rfm.Presets),
				"thresholds": map[string]any{
					"type":        "object",
					"description": "Custom recency, frequency and monetary tables. Overrides industry_preset.",
				},
			}),
			handle: runRFM,
		},
		{
			Name:  "qualify",
			Title: "ICP Qualification",
			Description: "Score a prospect against the 14.5-point ICP model. Evaluates Firmographic Fit (5 pts), " +
				"Behavioral Fit (5 pts), and Strategic Fit (4.5 pts). Provide EITHER company_id " +
				"(CRM company ID, requires a configured CRM) OR company_data.",
			Schema: objectSchema(map[string]any{
				"company_id": stringProp("CRM company ID to fetch and score."),
				"company_data": map[string]any{
					"type": []string{"string", "object"},
					"description": "Company attributes as a JSON object or JSON string. Keys: industry, " +
						"annual_revenue, employee_count, geography, tech_stack (list), growth_signals (list), " +
						"content_engagement, purchase_history, decision_maker_access, budget_authority, " +
						"strategic_alignment.",
				},
				"scoring_config": map[string]any{
					"type":        "object",
					"description": "Industry, revenue, employee and geography overrides for the scoring model.",
				},
			}),
			handle: qualify,
		},
		{
			Name:  "score_pipeline_health",
			Title: "Pipeline Health Score",
			Description: "Analyze pipeline health with velocity metrics, conversion rates, and at-risk detection. " +
				"Calculates overall health score (0-100), identifies bottleneck stages, and flags stalled " +
				"or overdue deals.",
			Schema: objectSchema(map[string]any{
				"source":      sourceProp(),
				"pipeline_id": pipelineProp(),
				"exit_criteria": map[string]any{
					"type":        "array",
					"description": "Stage exit criteria to evaluate against open deals.",
					"items": objectSchema(map[string]any{
						"stage":    stringProp("Stage ID the criterion gates."),
						"name":     stringProp("Criterion label."),
						"field":    stringProp("Deal property that must be set."),
						"blocking": map[string]any{"type": "boolean"},
					}, "stage", "field"),
				},
			}),
			handle: scorePipeline,
		},
		{
			Name:  "detect_signals",
			Title: "Signal Detection",
			Description: "Scan pipeline data for velocity anomalies, conversion drop-offs, data quality issues, " +
				"win/loss patterns and pipeline concentration. Returns evidence-backed signals sorted by strength.",
			Schema: objectSchema(map[string]any{
				"source":      sourceProp(),
				"pipeline_id": pipelineProp(),
				"signal_types": map[string]any{
					"type":        "array",
					"description": "Only return signals of these types.",
					"items":       enumProp("Signal type.", "", toStrings(signal.Types)),
				},
			}),
			handle: detectSignals,
		},
		{
			Name:  "identify_constraint",
			Title: "Dominant Constraint",
			Description: "Identify the dominant scaling constraint (lead generation, conversion, delivery, " +
				"profitability) with a revenue formula breakdown and recommended focus.",
			Schema: objectSchema(map[string]any{
				"source":      sourceProp(),
				"pipeline_id": pipelineProp(),
				"quota": map[string]any{
					"type":        "number",
					"minimum":     0,
					"description": "Revenue quota for the pipeline coverage ratio.",
				},
			}),
			handle: identifyConstraint,
		},
		{
			Name:  "analyze_engine",
			Title: "Value Engine Analysis",
			Description: "Score the health of one value engine (growth, fulfillment, innovation) " +
				"from pipeline data and detected signals.",
			Schema: objectSchema(map[string]any{
				"engine_type": enumProp("Engine to analyze.", "", toStrings(engine.Types)),
				"source":      sourceProp(),
				"pipeline_id": pipelineProp(),
			}, "engine_type"),
			handle: analyzeEngine,
		},
		{
			Name:  "propose_gtm_change",
			Title: "GTM Change Proposal",
			Description: "Draft a structured GTM change proposal with intent, diff, impact surface, risk, " +
				"evidence and measurement plan.",
			Schema: objectSchema(map[string]any{
				"entity_type":        enumProp("GTM entity being changed.", "", gtm.EntityTypes),
				"change_description": stringProp("What is changing."),
				"current_state":      stringProp("The entity as it is today."),
				"proposed_state":     stringProp("The entity after the change."),
				"signal_type":        enumProp("Signal that motivated the change.", "", toStrings(signal.Types)),
				"signal_data": map[string]any{
					"type":        "object",
					"description": "Evidence from the triggering signal.",
				},
			}, "entity_type", "change_description"),
			handle: proposeChange,
		},
	}
}

type rfmArgs struct {
	Source         string          `json:"source"`
	IndustryPreset string          `json:"industry_preset"`
	Thresholds     *rfm.Thresholds `json:"thresholds"`
}

func runRFM(ctx context.Context, svc *analysis.Service, raw json.RawMessage) (any, error) {
	var args rfmArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return svc.RFM(ctx, analysis.RFMRequest{
		Source:     args.Source,
		Preset:     args.IndustryPreset,
		Thresholds: args.Thresholds,
	})
}

type qualifyArgs struct {
	CompanyID     string          `json:"company_id"`
	CompanyData   json.RawMessage `json:"company_data"`
	ScoringConfig *icp.Config     `json:"scoring_config"`
}

// parseCompany accepts company_data as an object or a JSON-encoded string.
func parseCompany(raw json.RawMessage) (*model.Company, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	data := []byte(raw)
	if strings.HasPrefix(strings.TrimSpace(string(raw)), `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, model.InvalidArgument("Invalid company_data JSON: %v", err)
		}
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		data = []byte(s)
	}
	var c model.Company
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, model.InvalidArgument("Invalid company_data JSON: %v", err)
	}
	return &c, nil
}

func qualify(ctx context.Context, svc *analysis.Service, raw json.RawMessage) (any, error) {
	var args qualifyArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	company, err := parseCompany(args.CompanyData)
	if err != nil {
		return nil, err
	}
	return svc.Qualify(ctx, icp.QualifyRequest{
		CompanyID: args.CompanyID,
		Company:   company,
		Config:    args.ScoringConfig,
	})
}

type pipelineArgs struct {
	Source       string                   `json:"source"`
	PipelineID   string                   `json:"pipeline_id"`
	ExitCriteria []pipeline.ExitCriterion `json:"exit_criteria"`
	Quota        *float64                 `json:"quota"`
	SignalTypes  []string                 `json:"signal_types"`
	EngineType   string                   `json:"engine_type"`
}

func (a pipelineArgs) request() analysis.PipelineRequest {
	req := analysis.PipelineRequest{
		Source:       a.Source,
		PipelineID:   a.PipelineID,
		ExitCriteria: a.ExitCriteria,
	}
	if a.Quota != nil {
		req.Quota = *a.Quota
	}
	return req
}

func scorePipeline(ctx context.Context, svc *analysis.Service, raw json.RawMessage) (any, error) {
	var args pipelineArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return svc.Pipeline(ctx, args.request())
}

func detectSignals(ctx context.Context, svc *analysis.Service, raw json.RawMessage) (any, error) {
	var args pipelineArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	types := make([]signal.Type, 0, len(args.SignalTypes))
	for _, s := range args.SignalTypes {
		t, err := signal.ParseType(s)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	rep, err := svc.Signals(ctx, args.request())
	if err != nil {
		return nil, err
	}
	if len(types) > 0 {
		rep.Signals = signal.Filter(rep.Signals, types...)
		rep.Summary = signal.Summarize(rep.Signals)
	}
	return rep, nil
}

func identifyConstraint(ctx context.Context, svc *analysis.Service, raw json.RawMessage) (any, error) {
	var args pipelineArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return svc.Constraints(ctx, args.request())
}

func analyzeEngine(ctx context.Context, svc *analysis.Service, raw json.RawMessage) (any, error) {
	var args pipelineArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return svc.Engine(ctx, analysis.EngineRequest{
		PipelineRequest: args.request(),
		Engine:          args.EngineType,
	})
}

func proposeChange(_ context.Context, svc *analysis.Service, raw json.RawMessage) (any, error) {
	var req gtm.Request
	if err := decodeArgs(raw, &req); err != nil {
		return nil, err
	}
	return svc.Propose(req)
}
