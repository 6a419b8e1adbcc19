package engine

import (
	"fmt"

	"github.com/sells-group/revenue-intel/internal/model"
	"github.com/sells-group/revenue-intel/internal/pipeline"
	"github.com/sells-group/revenue-intel/internal/signal"
)

// VolumeMetric describes pipeline volume.
type VolumeMetric struct {
	Value  int    `json:"value"`
	Status string `json:"status"`
	Note   string `json:"note"`
}

// ProgressionMetric describes how far deals move through the stages.
type ProgressionMetric struct {
	EarlyStagePct float64 `json:"early_stage_pct"`
	Status        string  `json:"status"`
	Note          string  `json:"note"`
}

// GrowthMetrics are the growth engine metrics.
type GrowthMetrics struct {
	PipelineVolume     VolumeMetric      `json:"pipeline_volume"`
	TotalPipelineValue float64           `json:"total_pipeline_value"`
	AvgConversionRate  float64           `json:"avg_conversion_rate"`
	ConversionStatus   string            `json:"conversion_status"`
	ConversionRates    map[string]int    `json:"conversion_rates"`
	CycleDays          int               `json:"cycle_days"`
	VelocityStatus     string            `json:"velocity_status"`
	BottleneckStage    *string           `json:"bottleneck_stage"`
	DealProgression    ProgressionMetric `json:"deal_progression"`
	AtRiskDeals        int               `json:"at_risk_deals"`
}

// FulfillmentMetrics are the fulfillment engine metrics inferable from the
// pipeline.
type FulfillmentMetrics struct {
	AvgDealValue     float64 `json:"avg_deal_value"`
	LateStageDeals   int     `json:"late_stage_deals"`
	LateStageValue   float64 `json:"late_stage_value"`
	CapacityPressure string  `json:"capacity_pressure"`
}

// InnovationMetrics are the innovation engine metrics.
type InnovationMetrics struct {
	DataQualitySignals int `json:"data_quality_signals"`
}

// Analysis is the health of one engine. Metrics holds one of the
// *Metrics types.
type Analysis struct {
	HealthScore    int             `json:"health_score"`
	HealthLabel    string          `json:"health_label"`
	Metrics        any             `json:"metrics"`
	DataGaps       []string        `json:"data_gaps,omitempty"`
	Recommendation string          `json:"recommendation,omitempty"`
	Signals        []signal.Signal `json:"signals"`
}

// Report is the result of Analyze.
type Report struct {
	Engine              Definition `json:"engine"`
	Analysis            Analysis   `json:"analysis"`
	AnalysisDate        string     `json:"analysis_date"`
	DealsAnalyzed       int        `json:"deals_analyzed"`
	MethodologyResource string     `json:"methodology_resource"`
}

// Analyze scores the engine named by engineType.
func Analyze(engineType string, snap pipeline.Snapshot, signals []signal.Signal) (Report, error) {
	t, err := ParseType(engineType)
	if err != nil {
		return Report{}, err
	}

	var a Analysis
	switch t {
	case Growth:
		a = AnalyzeGrowth(snap, signals)
	case Fulfillment:
		a = AnalyzeFulfillment(snap)
	case Innovation:
		a = AnalyzeInnovation(signals)
	}

	def, _ := Define(t)
	return Report{
		Engine:              def,
		Analysis:            a,
		AnalysisDate:        snap.Now.Format("2006-01-02"),
		DealsAnalyzed:       len(snap.Deals),
		MethodologyResource: MethodologyResource,
	}, nil
}

// AnalyzeGrowth scores acquisition health from volume, conversion, cycle
// time and early-stage concentration. Up to five growth-related signals are
// attached.
func AnalyzeGrowth(snap pipeline.Snapshot, signals []signal.Signal) Analysis {
	total := len(snap.Deals)
	score := 100

	volume := VolumeMetric{Value: total}
	switch {
	case total < 5:
		score -= 30
		volume.Status = StatusCritical
		volume.Note = fmt.Sprintf("Only %d active deals — pipeline is dangerously thin", total)
	case total < 10:
		score -= 15
		volume.Status = StatusWarning
		volume.Note = fmt.Sprintf("%d active deals — below healthy threshold", total)
	default:
		volume.Status = StatusHealthy
		volume.Note = fmt.Sprintf("%d active deals in pipeline", total)
	}

	avg, _ := snap.Velocity.AverageConversionRate()
	var conversion string
	switch {
	case avg < 25:
		score -= 30
		conversion = StatusCritical
	case avg < 40:
		score -= 15
		conversion = StatusWarning
	default:
		conversion = StatusHealthy
	}

	cycle := snap.Velocity.OverallCycleDays
	var velocity string
	switch {
	case cycle > 180:
		score -= 20
		velocity = StatusCritical
	case cycle > 90:
		score -= 10
		velocity = StatusWarning
	default:
		velocity = StatusHealthy
	}

	early := snap.Topology.EarlyStages()
	earlyCount := 0
	for _, d := range snap.Deals {
		if model.Contains(early, d.Stage) {
			earlyCount++
		}
	}
	var earlyPct float64
	if total > 0 {
		earlyPct = float64(earlyCount) / float64(total) * 100
	}
	progression := ProgressionMetric{
		EarlyStagePct: model.Round(earlyPct, 1),
		Status:        StatusHealthy,
		Note:          "Deals are distributed across stages",
	}
	if earlyPct > 70 {
		score -= 15
		progression.Status = StatusWarning
		progression.Note = fmt.Sprintf("%.0f%% of deals stuck in early stages", earlyPct)
	}

	score = max(0, min(100, score))

	var bottleneck *string
	if b := snap.Velocity.Bottleneck; b != "" {
		bottleneck = &b
	}
	related := signal.Filter(signals, signal.ConversionDropOff, signal.VelocityAnomaly, signal.WinLossPattern)

	return Analysis{
		HealthScore: score,
		HealthLabel: pipeline.HealthLabel(score),
		Metrics: GrowthMetrics{
			PipelineVolume:     volume,
			TotalPipelineValue: model.Round(model.TotalAmount(snap.Deals), 2),
			AvgConversionRate:  model.Round(avg, 1),
			ConversionStatus:   conversion,
			ConversionRates:    snap.Velocity.ConversionRates(),
			CycleDays:          cycle,
			VelocityStatus:     velocity,
			BottleneckStage:    bottleneck,
			DealProgression:    progression,
			AtRiskDeals:        len(snap.AtRisk),
		},
		Signals: related[:min(5, len(related))],
	}
}

var fulfillmentGaps = []string{
	"Net Revenue Retention (NRR) — requires post-sale data",
	"Gross Retention Rate — requires renewal tracking",
	"Time to First Value — requires onboarding data",
	"Client Satisfaction Score — requires CSAT surveys",
	"Expansion Revenue % — requires upsell tracking",
}

// AnalyzeFulfillment infers delivery pressure from deals in the closing
// stages. It starts from a neutral 70 since no post-sale data is available.
func AnalyzeFulfillment(snap pipeline.Snapshot) Analysis {
	total := len(snap.Deals)
	var avgDeal float64
	if total > 0 {
		avgDeal = model.TotalAmount(snap.Deals) / float64(total)
	}

	score := 70
	closing := snap.Topology.ClosingStages()
	var lateValue float64
	lateCount := 0
	for _, d := range snap.Deals {
		if model.Contains(closing, d.Stage) {
			lateValue += d.Amount
			lateCount++
		}
	}

	note := "Insufficient pipeline data for full fulfillment analysis"
	switch {
	case lateCount > 3:
		score -= 10
		note = fmt.Sprintf("%d deals (%s) in late stages — ensure delivery capacity can handle incoming closings",
			lateCount, model.Grouped(lateValue))
	case lateCount > 0:
		note = fmt.Sprintf("%d deal(s) approaching close — delivery team should be briefed", lateCount)
	}
	score = max(0, min(100, score))

	return Analysis{
		HealthScore: score,
		HealthLabel: pipeline.HealthLabel(score),
		Metrics: FulfillmentMetrics{
			AvgDealValue:     model.Round(avgDeal, 2),
			LateStageDeals:   lateCount,
			LateStageValue:   model.Round(lateValue, 2),
			CapacityPressure: note,
		},
		DataGaps: fulfillmentGaps,
		Recommendation: "Connect post-sale data (renewals, CSAT, NRR) for full Fulfillment Engine analysis. " +
			"Current analysis is limited to pre-sale pipeline indicators.",
		Signals: []signal.Signal{},
	}
}

var innovationGaps = []string{
	"Feedback Items Collected — requires feedback system integration",
	"Features Shipped per Quarter — requires release tracking",
	"Client Adoption Rate — requires usage analytics",
	"Innovation ROI — requires feature-revenue attribution",
}

// AnalyzeInnovation reports the innovation engine, which pipeline data can
// barely observe. Data quality signals are counted and up to three attached.
func AnalyzeInnovation(signals []signal.Signal) Analysis {
	dq := signal.Filter(signals, signal.DataQuality)
	return Analysis{
		HealthScore: 60,
		HealthLabel: InsufficientData,
		Metrics:     InnovationMetrics{DataQualitySignals: len(dq)},
		DataGaps:    innovationGaps,
		Recommendation: "The Innovation Engine requires feedback loop data (client requests, " +
			"feature adoption, release velocity) that isn't available from pipeline data alone. " +
			"Consider integrating product analytics and feedback tools.",
		Signals: dq[:min(3, len(dq))],
	}
}
