package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revenue-intel/internal/model"
)

var testNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := testNow.AddDate(0, 0, -n)
	return &t
}

func TestCalculateVelocity_Sample(t *testing.T) {
	t.Parallel()

	v := CalculateVelocity(SampleDeals(testNow), testNow, model.DefaultTopology())

	require.Len(t, v.Stages, 5)
	assert.Equal(t, map[string]float64{
		"Appointment Scheduled":    90.3,
		"Qualified to Buy":         107.0,
		"Presentation Scheduled":   148.0,
		"Decision Maker Bought-In": 71.0,
		"Contract Sent":            179.0,
	}, v.AvgDaysPerStage())
	assert.Equal(t, 3, v.Stages[0].DealCount)
	assert.Equal(t, "Contract Sent", v.Bottleneck)
	assert.Equal(t, 595, v.OverallCycleDays)

	assert.Equal(t, map[string]int{
		"Appointment Scheduled -> Qualified to Buy":          62,
		"Qualified to Buy -> Presentation Scheduled":         60,
		"Presentation Scheduled -> Decision Maker Bought-In": 67,
		"Decision Maker Bought-In -> Contract Sent":          50,
	}, v.ConversionRates())

	avg, ok := v.AverageConversionRate()
	require.True(t, ok)
	assert.InDelta(t, 59.75, avg, 1e-9)

	lowest, ok := v.MinConversionRate()
	require.True(t, ok)
	assert.Equal(t, 50, lowest)

	rate, ok := v.Conversions[0].PreciseRate()
	require.True(t, ok)
	assert.Equal(t, 62.5, rate)
}

func TestCalculateVelocity_Empty(t *testing.T) {
	t.Parallel()

	v := CalculateVelocity(nil, testNow, model.DefaultTopology())

	assert.Empty(t, v.Stages)
	assert.Empty(t, v.Bottleneck)
	assert.Zero(t, v.OverallCycleDays)
	require.Len(t, v.Conversions, 4)
	for _, c := range v.Conversions {
		assert.Zero(t, c.Rate)
		_, ok := c.PreciseRate()
		assert.False(t, ok)
	}
}

func TestCalculateVelocity_SkipsIncompleteAndUnknownStages(t *testing.T) {
	t.Parallel()

	deals := []model.Deal{
		{ID: "a", Stage: "qualifiedtobuy", CreateDate: daysAgo(10)},
		{ID: "b", Stage: "qualifiedtobuy"},
		{ID: "c", Stage: "custom", CreateDate: daysAgo(400)},
		{ID: "d", CreateDate: daysAgo(50)},
	}
	v := CalculateVelocity(deals, testNow, model.DefaultTopology())

	require.Len(t, v.Stages, 1)
	assert.Equal(t, "Qualified to Buy", v.Stages[0].Label)
	assert.Equal(t, 10.0, v.Stages[0].AvgDays)
	assert.Equal(t, 1, v.Stages[0].DealCount)
	assert.Equal(t, "Qualified to Buy", v.Bottleneck)
}

func TestCalculateVelocity_FutureCreateDateClampsToZero(t *testing.T) {
	t.Parallel()

	future := testNow.AddDate(0, 0, 5)
	deals := []model.Deal{{ID: "a", Stage: "contractsent", CreateDate: &future}}
	v := CalculateVelocity(deals, testNow, model.DefaultTopology())

	require.Len(t, v.Stages, 1)
	assert.Zero(t, v.Stages[0].AvgDays)
	assert.Empty(t, v.Bottleneck, "zero average is never a bottleneck")
}

func TestCalculateVelocity_CustomTopology(t *testing.T) {
	t.Parallel()

	top := model.StageTopology{
		Order:  []string{"s1", "s2"},
		Labels: map[string]string{"s1": "Lead"},
	}
	deals := []model.Deal{
		{ID: "a", Stage: "s1", CreateDate: daysAgo(4)},
		{ID: "b", Stage: "s2", CreateDate: daysAgo(9)},
		{ID: "c", Stage: "s2", CreateDate: daysAgo(11)},
	}
	v := CalculateVelocity(deals, testNow, top)

	assert.Equal(t, map[string]float64{"Lead": 4, "s2": 10}, v.AvgDaysPerStage())
	assert.Equal(t, "s2", v.Bottleneck)
	assert.Equal(t, 14, v.OverallCycleDays)
	assert.Equal(t, map[string]int{"Lead -> s2": 67}, v.ConversionRates())
}

func TestFindAtRiskDeals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		deal    model.Deal
		reasons []string
	}{
		{
			name:    "fresh deal",
			deal:    model.Deal{ID: "a", CreateDate: daysAgo(10), LastModified: daysAgo(2)},
			reasons: nil,
		},
		{
			name:    "stagnant falls back to create date",
			deal:    model.Deal{ID: "a", CreateDate: daysAgo(45)},
			reasons: []string{"No activity for 45 days"},
		},
		{
			name:    "exactly thirty days is not stagnant",
			deal:    model.Deal{ID: "a", CreateDate: daysAgo(30)},
			reasons: nil,
		},
		{
			name:    "past due",
			deal:    model.Deal{ID: "a", CreateDate: daysAgo(10), LastModified: daysAgo(1), CloseDate: daysAgo(1)},
			reasons: []string{"Past expected close date"},
		},
		{
			name:    "aged",
			deal:    model.Deal{ID: "a", CreateDate: daysAgo(181), LastModified: daysAgo(1)},
			reasons: []string{"Open for 181 days (>6 months)"},
		},
		{
			name:    "no create date",
			deal:    model.Deal{ID: "a", LastModified: daysAgo(90)},
			reasons: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FindAtRiskDeals([]model.Deal{tt.deal}, testNow, model.DefaultTopology())
			if tt.reasons == nil {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.reasons, got[0].RiskReasons)
		})
	}
}

func TestFindAtRiskDeals_Sample(t *testing.T) {
	t.Parallel()

	got := FindAtRiskDeals(SampleDeals(testNow), testNow, model.DefaultTopology())

	require.Len(t, got, 1)
	assert.Equal(t, "D006", got[0].ID)
	assert.Equal(t, "Appointment Scheduled", got[0].Stage)
	assert.Equal(t, 224, got[0].DaysInPipeline)
	assert.Equal(t, []string{
		"No activity for 113 days",
		"Past expected close date",
		"Open for 224 days (>6 months)",
	}, got[0].RiskReasons)
}

func TestFindAtRiskDeals_SortedByReasonCount(t *testing.T) {
	t.Parallel()

	deals := []model.Deal{
		{ID: "one", CreateDate: daysAgo(40)},
		{ID: "three", CreateDate: daysAgo(200), CloseDate: daysAgo(3)},
		{ID: "two", CreateDate: daysAgo(50), CloseDate: daysAgo(3)},
		{ID: "one-b", CreateDate: daysAgo(41)},
	}
	got := FindAtRiskDeals(deals, testNow, model.DefaultTopology())

	ids := make([]string, len(got))
	for i, d := range got {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"three", "two", "one", "one-b"}, ids)
}

func TestCalculateHealthScore(t *testing.T) {
	t.Parallel()

	deals := func(n int) []model.Deal { return make([]model.Deal, n) }
	risk := func(n int) []AtRiskDeal { return make([]AtRiskDeal, n) }
	conv := func(rates ...int) []Conversion {
		out := make([]Conversion, len(rates))
		for i, r := range rates {
			out[i] = Conversion{Rate: r}
		}
		return out
	}

	tests := []struct {
		name  string
		deals []model.Deal
		v     Velocity
		risk  []AtRiskDeal
		score int
		label string
	}{
		{"empty", nil, Velocity{}, nil, 0, Critical},
		{"perfect with volume bonus capped", deals(10), Velocity{}, nil, 100, Healthy},
		{"few deals", deals(2), Velocity{}, nil, 85, Healthy},
		{"risk over 50", deals(4), Velocity{}, risk(3), 60, Warning},
		{"risk over 30", deals(10), Velocity{}, risk(4), 80, Healthy},
		{"risk over 15", deals(5), Velocity{}, risk(1), 90, Healthy},
		{"slow cycle", deals(5), Velocity{OverallCycleDays: 181}, nil, 75, Healthy},
		{"medium cycle", deals(5), Velocity{OverallCycleDays: 121}, nil, 85, Healthy},
		{"mild cycle", deals(5), Velocity{OverallCycleDays: 91}, nil, 95, Healthy},
		{"low conversion", deals(5), Velocity{Conversions: conv(10, 20)}, nil, 80, Healthy},
		{"mediocre conversion", deals(5), Velocity{Conversions: conv(40, 45)}, nil, 90, Healthy},
		{
			name:  "everything wrong",
			deals: deals(2),
			v:     Velocity{OverallCycleDays: 400, Conversions: conv(0)},
			risk:  risk(2),
			score: 0,
			label: Critical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			score, label := CalculateHealthScore(tt.deals, tt.v, tt.risk)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestHealthLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Healthy, HealthLabel(70))
	assert.Equal(t, Warning, HealthLabel(69))
	assert.Equal(t, Warning, HealthLabel(40))
	assert.Equal(t, Critical, HealthLabel(39))
}

func TestScore_Sample(t *testing.T) {
	t.Parallel()

	snap := Analyze(SampleDeals(testNow), model.StageTopology{}, testNow)
	r := Score(snap, nil)

	assert.Equal(t, 75, r.HealthScore)
	assert.Equal(t, Healthy, r.HealthLabel)
	assert.Equal(t, 8, r.TotalDeals)
	assert.Equal(t, 323000.0, r.TotalValue)
	require.NotNil(t, r.Velocity.BottleneckStage)
	assert.Equal(t, "Contract Sent", *r.Velocity.BottleneckStage)
	assert.Equal(t, 595, r.Velocity.OverallCycleDays)
	assert.Len(t, r.ConversionRates, 4)
	assert.Len(t, r.AtRiskDeals, 1)
	assert.Equal(t, StageBucket{Count: 3, Value: 68000}, r.StageDistribution["Appointment Scheduled"])
	assert.Equal(t, StageBucket{Count: 2, Value: 83000}, r.StageDistribution["Qualified to Buy"])
	assert.Nil(t, r.ExitCriteria)
	assert.InDelta(t, 12.5, snap.AtRiskPct(), 1e-9)
}

func TestScore_Empty(t *testing.T) {
	t.Parallel()

	r := Score(Analyze(nil, model.StageTopology{}, testNow), nil)

	assert.Zero(t, r.HealthScore)
	assert.Equal(t, Critical, r.HealthLabel)
	assert.Zero(t, r.TotalDeals)
	assert.Nil(t, r.Velocity.BottleneckStage)
	assert.NotNil(t, r.AtRiskDeals)
	assert.Empty(t, r.StageDistribution)
}

func TestEvaluateExitCriteria(t *testing.T) {
	t.Parallel()

	deals := []model.Deal{
		{ID: "a", Name: "A", Stage: "qualifiedtobuy", Amount: 100, Properties: map[string]string{"budget": "yes"}},
		{ID: "b", Name: "B", Stage: "qualifiedtobuy"},
		{ID: "c", Name: "C", Stage: "contractsent", CloseDate: daysAgo(-5)},
		{ID: "d", Name: "D", Stage: "appointmentscheduled"},
	}
	criteria := []ExitCriterion{
		{Stage: "Qualified to Buy", Name: "Amount set", Field: "amount", Blocking: true},
		{Stage: "qualifiedtobuy", Name: "Budget confirmed", Field: "budget"},
		{Stage: "contractsent", Name: "Close date", Field: "closedate", Blocking: true},
	}

	eval := EvaluateExitCriteria(deals, criteria, model.DefaultTopology())

	require.Len(t, eval.Deals, 3)
	assert.Equal(t, 100.0, eval.Deals[0].PassRate)
	assert.False(t, eval.Deals[0].Blocked)
	assert.Equal(t, 0.0, eval.Deals[1].PassRate)
	assert.True(t, eval.Deals[1].Blocked)
	assert.Equal(t, "Contract Sent", eval.Deals[2].Stage)
	assert.True(t, eval.Deals[2].Checks[0].Passed)

	require.Len(t, eval.Stages, 2)
	assert.Equal(t, StageExitSummary{
		Stage: "Qualified to Buy", DealsChecked: 2, Checks: 4, Passed: 2, PassRate: 50, BlockedDeals: 1,
	}, eval.Stages[0])
	assert.Equal(t, "Contract Sent", eval.Stages[1].Stage)
	assert.Equal(t, 100.0, eval.Stages[1].PassRate)
	assert.Equal(t, 1, eval.BlockedDeals)
}

func TestScore_WithExitCriteria(t *testing.T) {
	t.Parallel()

	snap := Analyze(SampleDeals(testNow), model.DefaultTopology(), testNow)
	r := Score(snap, []ExitCriterion{{Stage: "contractsent", Field: "amount", Name: "Amount"}})

	require.NotNil(t, r.ExitCriteria)
	require.Len(t, r.ExitCriteria.Deals, 1)
	assert.Equal(t, "D007", r.ExitCriteria.Deals[0].ID)
}

func TestLoadExitCriteria(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`criteria:
  - stage: qualifiedtobuy
    name: Budget confirmed
    field: budget
    blocking: true
  - stage: contractsent
    field: amount
`), 0o600))

	got, err := LoadExitCriteria(good)
	require.NoError(t, err)
	assert.Equal(t, []ExitCriterion{
		{Stage: "qualifiedtobuy", Name: "Budget confirmed", Field: "budget", Blocking: true},
		{Stage: "contractsent", Name: "amount", Field: "amount"},
	}, got)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("criteria:\n  - name: x\n"), 0o600))
	_, err = LoadExitCriteria(bad)
	assert.Error(t, err)

	_, err = LoadExitCriteria(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSampleDeals(t *testing.T) {
	t.Parallel()

	deals := SampleDeals(testNow)
	require.Len(t, deals, 8)
	assert.Equal(t, 323000.0, model.TotalAmount(deals))
	for _, d := range deals {
		assert.Equal(t, "default", d.Pipeline)
		require.NotNil(t, d.CreateDate)
		assert.Zero(t, d.CreateDate.Hour())
	}
}
