package pipeline

import (
	"time"

	"github.com/sells-group/revenue-intel/internal/model"
)

// Snapshot is the velocity and risk analysis of one deal set at one instant.
// Downstream detectors share it so both are computed once.
type Snapshot struct {
	Deals    []model.Deal
	Topology model.StageTopology
	Now      time.Time
	Velocity Velocity
	AtRisk   []AtRiskDeal
}

// Analyze computes velocity and at-risk deals. A zero topology uses the
// default five-stage pipeline.
func Analyze(deals []model.Deal, top model.StageTopology, now time.Time) Snapshot {
	if top.IsZero() {
		top = model.DefaultTopology()
	}
	return Snapshot{
		Deals:    deals,
		Topology: top,
		Now:      now,
		Velocity: CalculateVelocity(deals, now, top),
		AtRisk:   FindAtRiskDeals(deals, now, top),
	}
}

// AtRiskPct returns the share of deals at risk, in percent.
func (s Snapshot) AtRiskPct() float64 {
	if len(s.Deals) == 0 {
		return 0
	}
	return float64(len(s.AtRisk)) / float64(len(s.Deals)) * 100
}

// StageBucket counts deals and value in one stage.
type StageBucket struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// VelocitySummary is the velocity section of a Report.
type VelocitySummary struct {
	AvgDaysPerStage  map[string]float64 `json:"avg_days_per_stage"`
	BottleneckStage  *string            `json:"bottleneck_stage"`
	OverallCycleDays int                `json:"overall_cycle_days"`
}

// Report is the pipeline health report.
type Report struct {
	HealthScore       int                    `json:"health_score"`
	HealthLabel       string                 `json:"health_label"`
	TotalDeals        int                    `json:"total_deals"`
	TotalValue        float64                `json:"total_value"`
	Velocity          VelocitySummary        `json:"velocity"`
	ConversionRates   map[string]int         `json:"conversion_rates"`
	AtRiskDeals       []AtRiskDeal           `json:"at_risk_deals"`
	StageDistribution map[string]StageBucket `json:"stage_distribution"`
	ExitCriteria      *ExitEvaluation        `json:"exit_criteria,omitempty"`

	// Detail keeps the ordered velocity for table output.
	Detail Velocity `json:"-"`
}

// Score builds the health report for a snapshot. Exit criteria are evaluated
// when supplied.
func Score(s Snapshot, criteria []ExitCriterion) Report {
	if len(s.Deals) == 0 {
		return Report{
			HealthLabel:       Critical,
			Velocity:          VelocitySummary{AvgDaysPerStage: map[string]float64{}},
			ConversionRates:   map[string]int{},
			AtRiskDeals:       []AtRiskDeal{},
			StageDistribution: map[string]StageBucket{},
			Detail:            Velocity{Stages: []StageVelocity{}, Conversions: []Conversion{}},
		}
	}

	score, label := CalculateHealthScore(s.Deals, s.Velocity, s.AtRisk)

	dist := make(map[string]StageBucket)
	for _, d := range s.Deals {
		l := s.Topology.Label(d.Stage)
		b := dist[l]
		b.Count++
		b.Value += d.Amount
		dist[l] = b
	}

	var bottleneck *string
	if s.Velocity.Bottleneck != "" {
		b := s.Velocity.Bottleneck
		bottleneck = &b
	}

	r := Report{
		HealthScore: score,
		HealthLabel: label,
		TotalDeals:  len(s.Deals),
		TotalValue:  model.Round(model.TotalAmount(s.Deals), 2),
		Velocity: VelocitySummary{
			AvgDaysPerStage:  s.Velocity.AvgDaysPerStage(),
			BottleneckStage:  bottleneck,
			OverallCycleDays: s.Velocity.OverallCycleDays,
		},
		ConversionRates:   s.Velocity.ConversionRates(),
		AtRiskDeals:       s.AtRisk,
		StageDistribution: dist,
		Detail:            s.Velocity,
	}
	if len(criteria) > 0 {
		eval := EvaluateExitCriteria(s.Deals, criteria, s.Topology)
		r.ExitCriteria = &eval
	}
	return r
}
