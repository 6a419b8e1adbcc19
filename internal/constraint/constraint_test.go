package constraint

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revenue-intel/internal/model"
	"github.com/sells-group/revenue-intel/internal/pipeline"
)

var testNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func deal(id, stage string, amount float64) model.Deal {
	created := testNow.AddDate(0, 0, -5)
	closes := testNow.AddDate(0, 0, 30)
	touched := testNow.AddDate(0, 0, -1)
	return model.Deal{
		ID: id, Name: id, Stage: stage, Amount: amount,
		CreateDate: &created, CloseDate: &closes, LastModified: &touched,
	}
}

func snapshot(deals []model.Deal) pipeline.Snapshot {
	return pipeline.Analyze(deals, model.DefaultTopology(), testNow)
}

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		deals    []model.Deal
		raw      Scores
		want     Scores
		dominant Key
	}{
		{
			name:     "sample pipeline",
			deals:    pipeline.SampleDeals(testNow),
			raw:      Scores{LeadGeneration: 20, Conversion: 35, Delivery: 0, Profitability: 0},
			want:     Scores{LeadGeneration: 57.1, Conversion: 100, Delivery: 0, Profitability: 0},
			dominant: Conversion,
		},
		{
			name:     "thin late-stage pipeline of small deals",
			deals:    []model.Deal{deal("a", "contractsent", 5000), deal("b", "contractsent", 5000)},
			raw:      Scores{LeadGeneration: 70, Conversion: 0, Delivery: 0, Profitability: 40},
			want:     Scores{LeadGeneration: 100, Conversion: 0, Delivery: 0, Profitability: 57.1},
			dominant: LeadGeneration,
		},
		{
			name: "value piling up before close",
			deals: []model.Deal{
				deal("a", "presentationscheduled", 50000),
				deal("b", "presentationscheduled", 50000),
				deal("c", "presentationscheduled", 50000),
				deal("d", "presentationscheduled", 50000),
			},
			raw:      Scores{LeadGeneration: 70, Conversion: 20, Delivery: 15, Profitability: 0},
			want:     Scores{LeadGeneration: 100, Conversion: 28.6, Delivery: 21.4, Profitability: 0},
			dominant: LeadGeneration,
		},
		{
			name:     "no deals",
			deals:    nil,
			raw:      Scores{LeadGeneration: 50, Conversion: 50, Delivery: 50, Profitability: 50},
			want:     Scores{LeadGeneration: 50, Conversion: 50, Delivery: 50, Profitability: 50},
			dominant: LeadGeneration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			snap := snapshot(tt.deals)
			assert.Equal(t, tt.raw, RawScores(snap))
			got := Score(snap)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.dominant, got.Dominant())
		})
	}
}

func TestScoresDominant_FirstMaximumWins(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LeadGeneration, Scores{}.Dominant())
	assert.Equal(t, Delivery, Scores{Delivery: 100, Profitability: 100}.Dominant())
}

func TestBuildRevenueFormula(t *testing.T) {
	t.Parallel()

	snap := snapshot([]model.Deal{
		deal("a", "presentationscheduled", 50000),
		deal("b", "presentationscheduled", 50000),
	})
	f := BuildRevenueFormula(snap)

	require.Len(t, f.Components.ConversionRates, 4)
	cr1 := f.Components.ConversionRates[0]
	assert.Equal(t, "CR1", cr1.Label)
	assert.Equal(t, "Appointment Scheduled -> Qualified to Buy", cr1.Transition)
	assert.Equal(t, 100, cr1.CurrentRate)
	assert.Equal(t, -50.0, cr1.Gap)
	assert.Equal(t, -100.0, cr1.GapPct)
	assert.Equal(t, StatusAbove, cr1.Status)

	require.NotNil(t, f.WeakestLink)
	assert.Equal(t, "CR3", f.WeakestLink.Label)
	assert.Equal(t, 50.0, f.WeakestLink.Gap)
	assert.Equal(t, 100.0, f.WeakestLink.GapPct)

	assert.Equal(t, 2, f.Components.Traffic.Current)
	assert.Equal(t, "2 active deals in pipeline", f.Components.Traffic.Note)
	assert.Equal(t, 50000.0, f.Components.ACV.Current)
	assert.Equal(t, -20000.0, f.Components.ACV.Gap)
}

func TestIdentify_Sample(t *testing.T) {
	t.Parallel()

	r := Identify(snapshot(pipeline.SampleDeals(testNow)), 100000)

	require.NotNil(t, r.DominantConstraint)
	assert.Equal(t, Conversion, r.DominantConstraint.Constraint)
	assert.Equal(t, 100.0, r.DominantConstraint.SeverityScore)
	assert.Equal(t, "Conversion", r.DominantConstraint.Label)
	assert.Len(t, r.DominantConstraint.Symptoms, 4)

	require.Len(t, r.ConstraintRanking, 4)
	order := make([]Key, len(r.ConstraintRanking))
	for i, c := range r.ConstraintRanking {
		order[i] = c.Constraint
	}
	assert.Equal(t, []Key{Conversion, LeadGeneration, Delivery, Profitability}, order)
	assert.Equal(t, r.DominantConstraint.SeverityScore, r.ConstraintRanking[0].SeverityScore)

	require.NotNil(t, r.RevenueFormula)
	assert.Nil(t, r.RevenueFormula.WeakestLink)
	assert.Equal(t, 40375.0, r.RevenueFormula.Components.ACV.Current)

	s := r.PipelineSummary
	require.NotNil(t, s)
	assert.Equal(t, 8, s.TotalDeals)
	assert.Equal(t, 323000.0, s.TotalValue)
	assert.Equal(t, 1, s.AtRiskCount)
	assert.Equal(t, 12.5, s.AtRiskPct)
	assert.Equal(t, 595, s.CycleDays)
	require.NotNil(t, s.BottleneckStage)
	assert.Equal(t, "Contract Sent", *s.BottleneckStage)
	require.NotNil(t, s.CoverageRatio)
	assert.Equal(t, 3.23, *s.CoverageRatio)

	assert.Equal(t, "Your dominant constraint is Conversion. Focus on the Growth Engine (late stages) — "+
		"specifically the Conversion lever (CR2-CR5 (Lead → Won) in the Revenue Formula).", r.RecommendedFocus)
	assert.Equal(t, "2025-06-15", r.AnalysisDate)
	assert.Nil(t, r.DealsAnalyzed)
}

func TestIdentify_NoQuota(t *testing.T) {
	t.Parallel()

	r := Identify(snapshot(pipeline.SampleDeals(testNow)), 0)
	require.NotNil(t, r.PipelineSummary)
	assert.Nil(t, r.PipelineSummary.CoverageRatio)
}

func TestIdentify_Empty(t *testing.T) {
	t.Parallel()

	r := Identify(snapshot(nil), 0)

	assert.Nil(t, r.DominantConstraint)
	assert.Equal(t, InsufficientData, r.Analysis)
	require.NotNil(t, r.DealsAnalyzed)
	assert.Zero(t, *r.DealsAnalyzed)

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dominant_constraint":null,"analysis":"Insufficient data — no deals found in pipeline.","deals_analyzed":0}`, string(raw))
}
