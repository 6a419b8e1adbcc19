package rfm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revenue-intel/internal/model"
)

var testNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func TestAnalyzeSample(t *testing.T) {
	t.Parallel()

	res := Analyze(SampleClients(testNow), Options{Now: testNow})
	require.Empty(t, res.Error)

	assert.Equal(t, "2025-06-15", res.AnalysisDate)
	assert.Equal(t, 12, res.TotalClients)
	assert.Equal(t, PresetDefault, res.IndustryPreset)

	require.NotNil(t, res.Summary)
	assert.Equal(t, 1758000.0, res.Summary.TotalRevenue)
	assert.Equal(t, 9.7, res.Summary.AvgRFMScore)
	assert.Equal(t, 4, res.Summary.ChampionCount)
	assert.Equal(t, 1, res.Summary.AtRiskCount)

	codes := make(map[string]string)
	for _, c := range res.Clients {
		codes[c.ClientID] = c.RFMCode + " " + c.Segment
		assert.Equal(t, c.RScore+c.FScore+c.MScore, c.RFMTotal)
	}
	assert.Equal(t, map[string]string{
		"S001": "544 Champions",
		"S002": "555 Champions",
		"S003": "433 Potential Loyalists",
		"S004": "332 Need Attention",
		"S005": "545 Champions",
		"S006": "211 Hibernating",
		"S007": "444 Loyal Customers",
		"S008": "555 Champions",
		"S009": "121 Hibernating",
		"S010": "332 Need Attention",
		"S011": "111 Lost",
		"S012": "343 At Risk",
	}, codes)

	require.Len(t, res.TopPerformers, 10)
	names := make([]string, 5)
	for i := range names {
		names[i] = res.TopPerformers[i].Name
	}
	assert.Equal(t, []string{
		"Precision Components Group",
		"Vaulted Financial Technologies",
		"Clearpath Distribution",
		"Nextera Systems",
		"MedBridge Health",
	}, names)

	champions := res.SegmentDistribution[Champions]
	assert.Equal(t, 4, champions.Count)
	assert.Equal(t, 1155000.0, champions.Revenue)
	assert.Equal(t, 33.3, champions.Pct)
	assert.Equal(t, 65.7, champions.PctRevenue)
	assert.Equal(t, 16.7, res.SegmentDistribution[Hibernating].Pct)

	require.NotNil(t, res.TierRecommendations)
	tier1 := res.TierRecommendations.Tier1.Criteria
	assert.Equal(t, []string{"Manufacturing", "FinTech", "Logistics"}, tier1.Industry)
	assert.Equal(t, []string{"51-200"}, tier1.Size)
	assert.Equal(t, []string{"$5M-$20M"}, tier1.Revenue)
	assert.Empty(t, res.TierRecommendations.Tier4.AntiPatterns.Industry)

	require.NotNil(t, res.ICPPatterns)
	emp := res.ICPPatterns.EmployeeCount.Distribution
	require.Len(t, emp, 2)
	assert.Equal(t, PatternValue{Value: "51-200", Count: 4, PctTop: 80, PctAll: 33.3, Lift: 2.4}, emp[0])
	assert.Equal(t, PatternValue{Value: "201-500", Count: 1, PctTop: 20, PctAll: 16.7, Lift: 1.2}, emp[1])
	for _, v := range res.ICPPatterns.Industry.Distribution {
		assert.Equal(t, 20.0, v.PctTop)
		assert.Equal(t, 8.3, v.PctAll)
		assert.Equal(t, 2.4, v.Lift)
	}
}

func TestAnalyzePresets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		preset    string
		avg       float64
		champions int
		atRisk    int
	}{
		{PresetB2BService, 10.9, 5, 1},
		{PresetSaaS, 10.0, 4, 5},
		{PresetManufacturing, 10.9, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			t.Parallel()
			res := Analyze(SampleClients(testNow), Options{Preset: tt.preset, Now: testNow})
			require.NotNil(t, res.Summary)
			assert.Equal(t, tt.avg, res.Summary.AvgRFMScore)
			assert.Equal(t, tt.champions, res.Summary.ChampionCount)
			assert.Equal(t, tt.atRisk, res.Summary.AtRiskCount)
		})
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	t.Parallel()

	res := Analyze(nil, Options{Now: testNow})
	assert.Equal(t, "No client data found", res.Error)
	assert.Equal(t, 0, res.TotalClients)
	assert.Nil(t, res.Summary)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	t.Parallel()

	clients := SampleClients(testNow)
	a := Analyze(clients, Options{Now: testNow})
	b := Analyze(clients, Options{Now: testNow})
	assert.Equal(t, a, b)
}

func TestScoreClientNoPurchaseDate(t *testing.T) {
	t.Parallel()

	c := model.Client{ClientID: "X", TotalRevenue: 100, TransactionCount: 1}
	sc := ScoreClient(c, NewScorer(Thresholds{}), []float64{100}, testNow)
	assert.Equal(t, NoPurchaseDays, sc.DaysSinceLast)
	assert.Equal(t, 1, sc.RScore)
	assert.Equal(t, "115", sc.RFMCode)
}

func TestFilterTopPerformers(t *testing.T) {
	t.Parallel()

	clients := []ScoredClient{
		{Segment: Champions, RFMTotal: 13},
		{Segment: AtRisk, RFMTotal: 11},
		{Segment: NeedAttention, RFMTotal: 8},
		{Segment: LoyalCustomers, RFMTotal: 10},
	}
	assert.Len(t, FilterTopPerformers(clients, DefaultMinTotal), 3)
	assert.Len(t, FilterTopPerformers(clients, 14), 2)
}

func TestExtractPatternsUnknownAndNegative(t *testing.T) {
	t.Parallel()

	mk := func(industry string) ScoredClient {
		return ScoredClient{Client: model.Client{Industry: industry}}
	}
	top := []ScoredClient{mk("Retail"), mk("")}
	all := []ScoredClient{mk("Retail"), mk(""), mk(""), mk(""), mk(""), mk(""), mk(""), mk(""), mk(""), mk("")}

	p := ExtractPatterns(top, all)
	require.Len(t, p.Industry.Distribution, 2)
	assert.Equal(t, "Retail", p.Industry.Distribution[0].Value)
	assert.Equal(t, 5.0, p.Industry.Distribution[0].Lift)
	assert.Equal(t, "Unknown", p.Industry.Distribution[1].Value)
	assert.InDelta(t, 0.56, p.Industry.Distribution[1].Lift, 1e-9)
	assert.Len(t, p.Industry.Primary, 1)
	assert.Empty(t, p.Industry.Negative)
	assert.NotNil(t, p.Region.Secondary)
}
