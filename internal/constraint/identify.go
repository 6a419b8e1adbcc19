package constraint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/revenue-intel/internal/model"
	"github.com/sells-group/revenue-intel/internal/pipeline"
)

// InsufficientData is the analysis text for an empty pipeline.
const InsufficientData = "Insufficient data — no deals found in pipeline."

// Dominant is the winning constraint with its full definition.
type Dominant struct {
	Constraint    Key     `json:"constraint"`
	SeverityScore float64 `json:"severity_score"`
	Definition
}

// Ranked is one entry of the constraint ranking.
type Ranked struct {
	Constraint    Key     `json:"constraint"`
	Label         string  `json:"label"`
	SeverityScore float64 `json:"severity_score"`
	Description   string  `json:"description"`
	EngineFocus   string  `json:"engine_focus"`
	HormoziLever  string  `json:"hormozi_lever"`
}

// PipelineSummary describes the analysed pipeline.
type PipelineSummary struct {
	TotalDeals      int      `json:"total_deals"`
	TotalValue      float64  `json:"total_value"`
	AvgDealValue    float64  `json:"avg_deal_value"`
	AtRiskCount     int      `json:"at_risk_count"`
	AtRiskPct       float64  `json:"at_risk_pct"`
	CycleDays       int      `json:"cycle_days"`
	BottleneckStage *string  `json:"bottleneck_stage"`
	CoverageRatio   *float64 `json:"coverage_ratio"`
}

// Report is the result of Identify.
type Report struct {
	DominantConstraint *Dominant        `json:"dominant_constraint"`
	Analysis           string           `json:"analysis,omitempty"`
	DealsAnalyzed      *int             `json:"deals_analyzed,omitempty"`
	ConstraintRanking  []Ranked         `json:"constraint_ranking,omitempty"`
	RevenueFormula     *RevenueFormula  `json:"revenue_formula,omitempty"`
	PipelineSummary    *PipelineSummary `json:"pipeline_summary,omitempty"`
	RecommendedFocus   string           `json:"recommended_focus,omitempty"`
	AnalysisDate       string           `json:"analysis_date,omitempty"`
}

// Identify scores the constraints and assembles the full report. A quota
// above zero adds the pipeline coverage ratio.
func Identify(snap pipeline.Snapshot, quota float64) Report {
	if len(snap.Deals) == 0 {
		zero := 0
		return Report{Analysis: InsufficientData, DealsAnalyzed: &zero}
	}

	scores := Score(snap)
	key := scores.Dominant()
	def := Define(key)

	ranking := make([]Ranked, 0, len(Keys))
	for _, k := range Keys {
		d := Define(k)
		ranking = append(ranking, Ranked{
			Constraint:    k,
			Label:         d.Label,
			SeverityScore: scores[k],
			Description:   d.Description,
			EngineFocus:   d.EngineFocus,
			HormoziLever:  d.HormoziLever,
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].SeverityScore > ranking[j].SeverityScore })

	total := len(snap.Deals)
	totalValue := model.TotalAmount(snap.Deals)
	summary := PipelineSummary{
		TotalDeals:   total,
		TotalValue:   model.Round(totalValue, 2),
		AvgDealValue: model.Round(totalValue/float64(total), 2),
		AtRiskCount:  len(snap.AtRisk),
		AtRiskPct:    model.Round(snap.AtRiskPct(), 1),
		CycleDays:    snap.Velocity.OverallCycleDays,
	}
	if b := snap.Velocity.Bottleneck; b != "" {
		summary.BottleneckStage = &b
	}
	if quota > 0 {
		ratio := model.Round(totalValue/quota, 2)
		summary.CoverageRatio = &ratio
	}

	formula := BuildRevenueFormula(snap)
	return Report{
		DominantConstraint: &Dominant{Constraint: key, SeverityScore: scores[key], Definition: def},
		ConstraintRanking:  ranking,
		RevenueFormula:     &formula,
		PipelineSummary:    &summary,
		RecommendedFocus: fmt.Sprintf("Your dominant constraint is %s. Focus on the %s — specifically the %s lever (%s in the Revenue Formula).",
			def.Label, def.EngineFocus, def.HormoziLever, strings.Join(def.WbdLevers, ", ")),
		AnalysisDate: snap.Now.Format("2006-01-02"),
	}
}
