// Package engine scores the health of the growth, fulfillment and
// innovation value engines from pipeline data and detected signals.
package engine

import (
	"github.com/sells-group/revenue-intel/internal/model"
)

// Type names a value engine.
type Type string

// Engines.
const (
	Growth      Type = "growth"
	Fulfillment Type = "fulfillment"
	Innovation  Type = "innovation"
)

// InsufficientData labels an engine that pipeline data cannot score.
const InsufficientData = "Insufficient Data"

// MethodologyResource is the resource describing the engine model.
const MethodologyResource = "methodology://value-engines"

// Stage is one step of an engine.
type Stage struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Definition describes an engine.
type Definition struct {
	Type          Type     `json:"type"`
	Label         string   `json:"label"`
	Purpose       string   `json:"purpose"`
	Pillars       []string `json:"artefact_pillars"`
	Stages        []Stage  `json:"stages"`
	KeyMetrics    []string `json:"key_metrics"`
	HealthFactors []string `json:"-"`
}

var definitions = map[Type]Definition{
	Growth: {
		Type:    Growth,
		Label:   "Growth Engine",
		Purpose: "How new customers are acquired — awareness through conversion",
		Pillars: []string{"Revenue Intelligence", "Customer Intelligence"},
		Stages: []Stage{
			{"Create Demand", "Generate awareness in ungated channels"},
			{"Capture Demand", "Buyer intent becomes visible"},
			{"Convert", "First transaction occurs"},
		},
		KeyMetrics: []string{
			"CR1 (Visit → Lead)",
			"CR2 (Lead → Qualified)",
			"Win Rate",
			"Cycle Time (days)",
			"Pipeline Coverage Ratio",
		},
		HealthFactors: []string{"pipeline_volume", "conversion_rates", "velocity", "deal_progression"},
	},
	Fulfillment: {
		Type:    Fulfillment,
		Label:   "Fulfillment Engine",
		Purpose: "How customers receive promised value — onboarding through expansion",
		Pillars: []string{"Execution Intelligence", "Customer Intelligence"},
		Stages: []Stage{
			{"Onboard", "Client setup, data connections, kickoff"},
			{"Deliver", "Core service execution against SOW"},
			{"Activate", "Client achieves first meaningful outcome"},
			{"Review", "QBR, performance tracking, satisfaction"},
			{"Renew", "Contract renewal conversation"},
			{"Expand", "Upsell, cross-sell, deeper implementation"},
		},
		KeyMetrics: []string{
			"Net Revenue Retention (NRR)",
			"Gross Retention Rate",
			"Time to First Value",
			"Client Satisfaction Score",
			"Expansion Revenue %",
		},
		HealthFactors: []string{"retention_signals", "expansion_potential", "delivery_capacity"},
	},
	Innovation: {
		Type:    Innovation,
		Label:   "Innovation Engine",
		Purpose: "How products and services are improved over time",
		Pillars: []string{"Performance Intelligence"},
		Stages: []Stage{
			{"Gather", "Collect insights from clients, market, team"},
			{"Prioritize", "Evaluate against strategic goals"},
			{"Build/Test", "Develop and validate improvements"},
			{"Launch", "Roll out to clients and market"},
		},
		KeyMetrics: []string{
			"Feedback Items Collected",
			"Features Shipped per Quarter",
			"Client Adoption Rate",
			"Innovation ROI",
		},
		HealthFactors: []string{"feedback_volume", "iteration_speed", "adoption_rate"},
	},
}

// Types lists the engines.
var Types = []Type{Growth, Fulfillment, Innovation}

// Define returns the definition of t.
func Define(t Type) (Definition, bool) {
	d, ok := definitions[t]
	return d, ok
}

// ParseType validates an engine type name.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := definitions[t]; !ok {
		return "", model.InvalidArgument("invalid engine_type: %s. Use 'growth', 'fulfillment', or 'innovation'.", s)
	}
	return t, nil
}

// Status values for individual metrics.
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)
