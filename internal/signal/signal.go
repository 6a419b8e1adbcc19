package signal

import "github.com/sells-group/revenue-intel/internal/model"

// Benchmarks the detectors compare against.
const (
	VelocityBenchmarkDays      = 30
	ConversionBenchmarkPct     = 50
	DataCompletenessThreshold  = 0.7
	CriticalStrength           = 0.7
	earlyConcentrationFraction = 0.6
)

// Signal is one evidence-backed finding.
type Signal struct {
	Type              Type    `json:"signal_type"`
	Label             string  `json:"signal_label"`
	Name              string  `json:"signal_name"`
	Strength          float64 `json:"signal_strength"`
	Evidence          any     `json:"evidence"`
	RecommendedAction string  `json:"recommended_action"`
}

func newSignal(t Type, name string, strength float64, evidence any, action string) Signal {
	return Signal{
		Type:              t,
		Label:             t.Label(),
		Name:              name,
		Strength:          model.Round(strength, 2),
		Evidence:          evidence,
		RecommendedAction: action,
	}
}

// IsCritical reports whether the signal is strong enough to act on now.
func (s Signal) IsCritical() bool { return s.Strength >= CriticalStrength }

// Filter returns the signals whose type is one of types, keeping order.
func Filter(signals []Signal, types ...Type) []Signal {
	out := []Signal{}
	for _, s := range signals {
		for _, t := range types {
			if s.Type == t {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// VelocityEvidence backs a velocity anomaly.
type VelocityEvidence struct {
	Stage            string  `json:"stage"`
	AvgDaysInStage   float64 `json:"avg_days_in_stage"`
	BenchmarkDays    int     `json:"benchmark_days"`
	RatioToBenchmark float64 `json:"ratio_to_benchmark"`
	DealsAffected    *int    `json:"deals_affected,omitempty"`
}

// ConversionEvidence backs a conversion drop-off.
type ConversionEvidence struct {
	FromStage      string  `json:"from_stage"`
	ToStage        string  `json:"to_stage"`
	ConversionRate float64 `json:"conversion_rate"`
	BenchmarkRate  int     `json:"benchmark_rate"`
	DealsAtStage   int     `json:"deals_at_stage"`
	DealsAdvancing int     `json:"deals_advancing"`
	DealsStuck     *int    `json:"deals_stuck,omitempty"`
}

// IncompleteField is a required deal field below the completeness target.
type IncompleteField struct {
	Field          string  `json:"field"`
	CompletionRate float64 `json:"completion_rate"`
	MissingCount   int     `json:"missing_count"`
}

// CompletenessEvidence backs a field-completeness data quality signal.
type CompletenessEvidence struct {
	TotalDeals       int               `json:"total_deals"`
	Threshold        string            `json:"threshold"`
	IncompleteFields []IncompleteField `json:"incomplete_fields"`
}

// ZeroAmountEvidence backs a missing-amount data quality signal.
type ZeroAmountEvidence struct {
	DealsWithZeroAmount int     `json:"deals_with_zero_amount"`
	TotalDeals          int     `json:"total_deals"`
	Percentage          float64 `json:"percentage"`
}

// AtRiskSummary is a compact view of one at-risk deal.
type AtRiskSummary struct {
	Name    string   `json:"name"`
	Stage   string   `json:"stage"`
	Reasons []string `json:"reasons"`
}

// AtRiskEvidence backs an at-risk proportion signal.
type AtRiskEvidence struct {
	AtRiskCount      int             `json:"at_risk_count"`
	TotalDeals       int             `json:"total_deals"`
	AtRiskPercentage float64         `json:"at_risk_percentage"`
	TopAtRisk        []AtRiskSummary `json:"top_at_risk,omitempty"`
}

// ClusterEvidence backs a stagnation cluster signal.
type ClusterEvidence struct {
	Stage             string  `json:"stage"`
	StagnantDeals     int     `json:"stagnant_deals"`
	TotalAtRisk       int     `json:"total_at_risk"`
	ClusterPercentage float64 `json:"cluster_percentage"`
}

// StageValue counts deals and value in one stage.
type StageValue struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// ConcentrationEvidence backs an early-stage concentration signal.
type ConcentrationEvidence struct {
	EarlyStageValue    float64               `json:"early_stage_value"`
	TotalPipelineValue float64               `json:"total_pipeline_value"`
	EarlyStagePct      float64               `json:"early_stage_pct"`
	StageBreakdown     map[string]StageValue `json:"stage_breakdown"`
}
