package constraint

import (
	"fmt"

	"github.com/sells-group/revenue-intel/internal/model"
	"github.com/sells-group/revenue-intel/internal/pipeline"
)

// FormulaText is the multiplicative revenue formula.
const FormulaText = "Revenue = Traffic × CR1 × CR2 × ... × CRn × ACV × (1/Churn)"

const compoundNote = "The formula is multiplicative — a 10% improvement at the weakest link " +
	"often yields more revenue than doubling traffic. " +
	"Focus improvement efforts on the conversion rate with the biggest gap to benchmark."

// Rate status values.
const (
	StatusAbove = "above"
	StatusBelow = "below"
)

// FormulaStage is one conversion rate of the formula compared to benchmark.
type FormulaStage struct {
	Label       string  `json:"label"`
	Transition  string  `json:"transition"`
	CurrentRate int     `json:"current_rate"`
	Benchmark   float64 `json:"benchmark"`
	Gap         float64 `json:"gap"`
	GapPct      float64 `json:"gap_pct"`
	Status      string  `json:"status"`
}

// Traffic is the pipeline volume term.
type Traffic struct {
	Label   string `json:"label"`
	Current int    `json:"current"`
	Note    string `json:"note"`
}

// ACV is the average contract value term.
type ACV struct {
	Label     string  `json:"label"`
	Current   float64 `json:"current"`
	Benchmark float64 `json:"benchmark"`
	Gap       float64 `json:"gap"`
}

// FormulaComponents are the measurable terms of the formula.
type FormulaComponents struct {
	Traffic         Traffic        `json:"traffic"`
	ConversionRates []FormulaStage `json:"conversion_rates"`
	ACV             ACV            `json:"acv"`
}

// RevenueFormula is the gap-to-benchmark breakdown of the pipeline.
type RevenueFormula struct {
	Formula                 string            `json:"formula"`
	Components              FormulaComponents `json:"components"`
	WeakestLink             *FormulaStage     `json:"weakest_link"`
	CompoundImprovementNote string            `json:"compound_improvement_note"`
}

// BuildRevenueFormula maps each adjacent-stage conversion to CR1..CRn and
// picks the below-benchmark rate with the largest gap as the weakest link.
func BuildRevenueFormula(snap pipeline.Snapshot) RevenueFormula {
	total := len(snap.Deals)
	totalValue := model.TotalAmount(snap.Deals)
	var avgDeal float64
	if total > 0 {
		avgDeal = totalValue / float64(total)
	}

	stages := []FormulaStage{}
	for i, c := range snap.Velocity.Conversions {
		gap := BenchmarkConversionRate - float64(c.Rate)
		status := StatusBelow
		if float64(c.Rate) >= BenchmarkConversionRate {
			status = StatusAbove
		}
		stages = append(stages, FormulaStage{
			Label:       fmt.Sprintf("CR%d", i+1),
			Transition:  c.Key(),
			CurrentRate: c.Rate,
			Benchmark:   BenchmarkConversionRate,
			Gap:         model.Round(gap, 1),
			GapPct:      model.Round(gap/BenchmarkConversionRate*100, 1),
			Status:      status,
		})
	}

	var weakest *FormulaStage
	for i := range stages {
		if stages[i].Status != StatusBelow {
			continue
		}
		if weakest == nil || stages[i].Gap > weakest.Gap {
			w := stages[i]
			weakest = &w
		}
	}

	return RevenueFormula{
		Formula: FormulaText,
		Components: FormulaComponents{
			Traffic: Traffic{
				Label:   "Pipeline Volume (Traffic)",
				Current: total,
				Note:    fmt.Sprintf("%d active deals in pipeline", total),
			},
			ConversionRates: stages,
			ACV: ACV{
				Label:     "Average Contract Value",
				Current:   model.Round(avgDeal, 2),
				Benchmark: BenchmarkDealValue,
				Gap:       model.Round(BenchmarkDealValue-avgDeal, 2),
			},
		},
		WeakestLink:             weakest,
		CompoundImprovementNote: compoundNote,
	}
}
