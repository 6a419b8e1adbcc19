package signal

import (
	"fmt"

	"github.com/sells-group/revenue-intel/internal/model"
	"github.com/sells-group/revenue-intel/internal/pipeline"
)

// VelocityAnomalies flags stages whose average age is well above the
// benchmark. Averages are the one-decimal values velocity reports.
func VelocityAnomalies(snap pipeline.Snapshot) []Signal {
	var out []Signal
	const bench = VelocityBenchmarkDays
	for _, st := range snap.Velocity.Stages {
		days := st.AvgDays
		ratio := days / bench
		switch {
		case days > bench*2:
			affected := 0
			for _, d := range snap.Deals {
				if snap.Topology.Label(d.Stage) == st.Label {
					affected++
				}
			}
			out = append(out, newSignal(VelocityAnomaly,
				st.Label+" stage velocity critically slow",
				min(1.0, days/(bench*4)),
				VelocityEvidence{
					Stage:            st.Label,
					AvgDaysInStage:   days,
					BenchmarkDays:    bench,
					RatioToBenchmark: model.Round(ratio, 1),
					DealsAffected:    &affected,
				},
				fmt.Sprintf("Investigate bottleneck in %s. Deals spend %.0f days here vs. %d-day benchmark (%.1fx slower). "+
					"Review stage exit criteria and process efficiency.", st.Label, days, bench, ratio),
			))
		case days > bench*1.5:
			out = append(out, newSignal(VelocityAnomaly,
				st.Label+" stage velocity above benchmark",
				min(0.7, days/(bench*3)),
				VelocityEvidence{
					Stage:            st.Label,
					AvgDaysInStage:   days,
					BenchmarkDays:    bench,
					RatioToBenchmark: model.Round(ratio, 1),
				},
				fmt.Sprintf("Monitor %s — %.0f days vs. %d-day benchmark. Consider adjusting stage SLA or reviewing process.",
					st.Label, days, bench),
			))
		}
	}
	return out
}

// ConversionDropOffs flags adjacent-stage transitions converting below the
// benchmark. Transitions no deal has reached are skipped.
func ConversionDropOffs(snap pipeline.Snapshot) []Signal {
	var out []Signal
	const bench = ConversionBenchmarkPct
	for _, c := range snap.Velocity.Conversions {
		rate, ok := c.PreciseRate()
		if !ok {
			continue
		}
		gap := (bench - rate) / bench
		switch {
		case rate < bench*0.5:
			stuck := c.CurrentCount - c.NextCount
			out = append(out, newSignal(ConversionDropOff,
				fmt.Sprintf("Severe drop-off: %s → %s", c.From, c.To),
				min(1.0, gap),
				ConversionEvidence{
					FromStage:      c.From,
					ToStage:        c.To,
					ConversionRate: rate,
					BenchmarkRate:  bench,
					DealsAtStage:   c.CurrentCount,
					DealsAdvancing: c.NextCount,
					DealsStuck:     &stuck,
				},
				fmt.Sprintf("Critical conversion gap: only %s%% of deals advance from %s to %s (benchmark: %d%%). "+
					"Review exit criteria for this transition. Check if deals are stalling due to missing qualification steps.",
					model.Decimal(rate), c.From, c.To, bench),
			))
		case rate < bench:
			out = append(out, newSignal(ConversionDropOff,
				fmt.Sprintf("Below-benchmark conversion: %s → %s", c.From, c.To),
				min(0.6, gap),
				ConversionEvidence{
					FromStage:      c.From,
					ToStage:        c.To,
					ConversionRate: rate,
					BenchmarkRate:  bench,
					DealsAtStage:   c.CurrentCount,
					DealsAdvancing: c.NextCount,
				},
				fmt.Sprintf("Conversion from %s to %s is %s%% (below %d%% benchmark). "+
					"Investigate qualification criteria and deal progression blockers.",
					c.From, c.To, model.Decimal(rate), bench),
			))
		}
	}
	return out
}

// RequiredFields are the deal fields the completeness check covers.
var RequiredFields = []string{"name", "amount", "stage", "create_date", "close_date"}

// DataQualityIssues flags required fields below the completeness target and
// a high share of deals without an amount.
func DataQualityIssues(deals []model.Deal) []Signal {
	total := len(deals)
	if total == 0 {
		return nil
	}

	var out []Signal
	var incomplete []IncompleteField
	for _, f := range RequiredFields {
		n := 0
		for _, d := range deals {
			if d.HasField(f) {
				n++
			}
		}
		rate := float64(n) / float64(total)
		if rate < DataCompletenessThreshold {
			incomplete = append(incomplete, IncompleteField{
				Field:          f,
				CompletionRate: model.Round(rate*100, 1),
				MissingCount:   total - n,
			})
		}
	}

	threshold := fmt.Sprintf("%.0f%%", DataCompletenessThreshold*100)
	if len(incomplete) > 0 {
		worst := incomplete[0]
		for _, f := range incomplete[1:] {
			if f.CompletionRate < worst.CompletionRate {
				worst = f
			}
		}
		out = append(out, newSignal(DataQuality,
			"CRM data completeness below threshold",
			min(1.0, 1-worst.CompletionRate/100),
			CompletenessEvidence{TotalDeals: total, Threshold: threshold, IncompleteFields: incomplete},
			fmt.Sprintf("Data quality issue: %d field(s) below %s completion. Worst: '%s' at %s%%. "+
				"Enforce required fields in HubSpot pipeline settings.",
				len(incomplete), threshold, worst.Field, model.Decimal(worst.CompletionRate)),
		))
	}

	zero := 0
	for _, d := range deals {
		if d.Amount == 0 {
			zero++
		}
	}
	if rate := float64(zero) / float64(total); zero > 0 && rate > 0.2 {
		out = append(out, newSignal(DataQuality,
			"High proportion of deals missing amount",
			min(0.8, rate),
			ZeroAmountEvidence{DealsWithZeroAmount: zero, TotalDeals: total, Percentage: model.Round(rate*100, 1)},
			fmt.Sprintf("%d/%d deals (%.0f%%) have no amount set. Pipeline value is unreliable. Require deal amount at creation.",
				zero, total, rate*100),
		))
	}
	return out
}

// WinLossPatterns flags a high at-risk proportion and stages where at-risk
// deals cluster.
func WinLossPatterns(snap pipeline.Snapshot) []Signal {
	total := len(snap.Deals)
	if total == 0 {
		return nil
	}

	var out []Signal
	atRisk := snap.AtRisk
	pct := snap.AtRiskPct()
	switch {
	case pct > 40:
		top := make([]AtRiskSummary, 0, 3)
		for _, d := range atRisk[:min(3, len(atRisk))] {
			top = append(top, AtRiskSummary{Name: d.Name, Stage: d.Stage, Reasons: d.RiskReasons})
		}
		out = append(out, newSignal(WinLossPattern,
			"High proportion of at-risk deals in pipeline",
			min(1.0, pct/60),
			AtRiskEvidence{
				AtRiskCount:      len(atRisk),
				TotalDeals:       total,
				AtRiskPercentage: model.Round(pct, 1),
				TopAtRisk:        top,
			},
			fmt.Sprintf("%.0f%% of pipeline deals are at risk (%d/%d). This signals systemic pipeline quality issues. "+
				"Review qualification criteria — deals may be entering the pipeline prematurely.", pct, len(atRisk), total),
		))
	case pct > 20:
		out = append(out, newSignal(WinLossPattern,
			"Elevated at-risk deal proportion",
			min(0.6, pct/50),
			AtRiskEvidence{AtRiskCount: len(atRisk), TotalDeals: total, AtRiskPercentage: model.Round(pct, 1)},
			fmt.Sprintf("%.0f%% of deals are at risk. Monitor closely and investigate common stagnation patterns.", pct),
		))
	}

	counts := make(map[string]int)
	var stages []string
	for _, d := range atRisk {
		stage := d.Stage
		if stage == "" {
			stage = "Unknown"
		}
		if _, ok := counts[stage]; !ok {
			stages = append(stages, stage)
		}
		counts[stage]++
	}
	for _, stage := range stages {
		n := counts[stage]
		share := float64(n) / float64(len(atRisk))
		if n < 2 || share <= 0.4 {
			continue
		}
		out = append(out, newSignal(WinLossPattern,
			"Stagnation cluster in "+stage,
			min(0.8, float64(n)/5),
			ClusterEvidence{
				Stage:             stage,
				StagnantDeals:     n,
				TotalAtRisk:       len(atRisk),
				ClusterPercentage: model.Round(share*100, 1),
			},
			fmt.Sprintf("%d at-risk deals clustered in '%s' stage. This suggests a systematic process failure at this stage. "+
				"Review exit criteria and required activities for this stage.", n, stage),
		))
	}
	return out
}

// PipelineConcentration flags pipelines whose value sits mostly in the
// first two stages. Fewer than three deals are never flagged.
func PipelineConcentration(snap pipeline.Snapshot) []Signal {
	if len(snap.Deals) < 3 {
		return nil
	}

	top := snap.Topology
	values := make(map[string]StageValue)
	var total float64
	for _, d := range snap.Deals {
		l := top.Label(d.Stage)
		v := values[l]
		v.Count++
		v.Value += d.Amount
		values[l] = v
		total += d.Amount
	}

	var early float64
	for _, id := range top.EarlyStages() {
		early += values[top.Label(id)].Value
	}
	if total <= 0 || early/total <= earlyConcentrationFraction {
		return nil
	}

	breakdown := make(map[string]StageValue, len(top.Order))
	for _, l := range top.OrderedLabels() {
		v := values[l]
		breakdown[l] = StageValue{Count: v.Count, Value: model.Round(v.Value, 2)}
	}
	share := early / total
	return []Signal{newSignal(AttributionShift,
		"Pipeline value concentrated in early stages",
		min(0.7, share),
		ConcentrationEvidence{
			EarlyStageValue:    model.Round(early, 2),
			TotalPipelineValue: model.Round(total, 2),
			EarlyStagePct:      model.Round(share*100, 1),
			StageBreakdown:     breakdown,
		},
		fmt.Sprintf("%.0f%% of pipeline value sits in early stages. This indicates pipeline progression issues — "+
			"deals enter but don't advance. Focus on conversion optimization in early-to-mid pipeline transitions.", share*100),
	)}
}
