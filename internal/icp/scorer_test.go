package icp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revenue-intel/internal/model"
)

func perfectCompany() model.Company {
	return model.Company{
		Industry:            "SaaS",
		AnnualRevenue:       model.Float64Ptr(10_000_000),
		EmployeeCount:       model.IntPtr(80),
		Geography:           "Quebec",
		TechStack:           []string{"HubSpot", "Google Analytics", "Marketing Automation"},
		GrowthSignals:       []string{"hiring", "funding", "expansion"},
		ContentEngagement:   "active",
		PurchaseHistory:     "regular",
		DecisionMakerAccess: "c_suite",
		BudgetAuthority:     "dedicated",
		StrategicAlignment:  "strong",
	}
}

func midCompany() model.Company {
	return model.Company{
		Industry:            "Logistics",
		AnnualRevenue:       model.Float64Ptr(1_200_000),
		EmployeeCount:       model.IntPtr(300),
		Geography:           "Boston",
		TechStack:           []string{"Salesforce"},
		GrowthSignals:       []string{"hiring"},
		ContentEngagement:   "occasional",
		PurchaseHistory:     "occasional",
		DecisionMakerAccess: "director",
		BudgetAuthority:     "possible",
		StrategicAlignment:  "partial",
	}
}

func TestScoreCompanyPerfect(t *testing.T) {
	t.Parallel()

	res := NewScorer(Config{}).ScoreCompany(perfectCompany())
	assert.Equal(t, 14.5, res.TotalScore)
	assert.Equal(t, 1, res.Tier.Number)
	assert.Equal(t, "tier_1_ideal", res.Tier.HubSpotValue)
	assert.False(t, res.ExclusionCheck.Excluded)
	assert.Nil(t, res.ExclusionCheck.Reason)
	assert.Equal(t, 5.0, res.Breakdown.Firmographic.Score)
	assert.Equal(t, 5.0, res.Breakdown.Behavioral.Score)
	assert.Equal(t, 4.5, res.Breakdown.Strategic.Score)
	assert.Equal(t, "Pursue aggressively — assign senior team, create custom proposal.", res.RecommendedAction)
	assert.Equal(t, Tiers[0].EngagementStrategy, res.EngagementStrategy)
}

func TestScoreCompanyMid(t *testing.T) {
	t.Parallel()

	res := NewScorer(Config{}).ScoreCompany(midCompany())
	assert.Equal(t, 7.5, res.TotalScore)
	assert.Equal(t, 3, res.Tier.Number)

	f := res.Breakdown.Firmographic
	assert.Equal(t, 2.8, f.Score)
	assert.Equal(t, Criterion{1.0, 2.0, "Adjacent industry: Logistics"}, f.Details.Industry)
	assert.Equal(t, Criterion{1.0, 1.5, "Acceptable range: $1,200,000"}, f.Details.RevenueRange)
	assert.Equal(t, Criterion{0.5, 1.0, "Borderline: 300"}, f.Details.EmployeeCount)
	assert.Equal(t, Criterion{0.25, 0.5, "Secondary market: Boston"}, f.Details.Geography)

	b := res.Breakdown.Behavioral
	assert.Equal(t, 2.2, b.Score)
	assert.Equal(t, "Partial stack (CRM present): Salesforce", b.Details.TechStack.Rationale)
	assert.Equal(t, "Weak signal: hiring", b.Details.GrowthSignals.Rationale)
	assert.Equal(t, 0.25, b.Details.PurchaseFrequency.Score)

	s := res.Breakdown.Strategic
	assert.Equal(t, 2.5, s.Score)
	assert.Equal(t, "Partial — interested but skeptical", s.Details.StrategicAlignment.Rationale)
}

func TestScoreCompanyZero(t *testing.T) {
	t.Parallel()

	res := NewScorer(Config{}).ScoreCompany(model.Company{})
	assert.Equal(t, 0.0, res.TotalScore)
	assert.Equal(t, 4, res.Tier.Number)
	assert.True(t, res.ExclusionCheck.Excluded)
	assert.Equal(t, "No industry provided", res.Breakdown.Firmographic.Details.Industry.Rationale)
	assert.Equal(t, "No engagement", res.Breakdown.Behavioral.Details.ContentEngagement.Rationale)
	assert.Equal(t, "Misaligned — looking for quick fixes", res.Breakdown.Strategic.Details.StrategicAlignment.Rationale)
}

func TestExclusion(t *testing.T) {
	t.Parallel()

	s := NewScorer(Config{})

	agency := s.ScoreCompany(model.Company{Industry: "SaaS Agency"})
	require.True(t, agency.ExclusionCheck.Excluded)
	assert.Equal(t, "Industry 'SaaS Agency' is in exclusion list", *agency.ExclusionCheck.Reason)
	assert.Equal(t, "EXCLUDED: Industry 'SaaS Agency' is in exclusion list. Do not pursue.", agency.RecommendedAction)
	assert.Equal(t, "None — excluded from ICP.", agency.EngagementStrategy)
	assert.Equal(t, 2.0, agency.Breakdown.Firmographic.Details.Industry.Score)

	assert.False(t, s.ScoreCompany(model.Company{Industry: "SaaS"}).ExclusionCheck.Excluded)
	assert.True(t, s.ScoreCompany(model.Company{Industry: "  Retail "}).ExclusionCheck.Excluded)

	custom := NewScorer(Config{ExcludedIndustries: []string{"Gaming"}})
	assert.True(t, custom.ScoreCompany(model.Company{Industry: "gaming studio"}).ExclusionCheck.Excluded)
	assert.False(t, custom.ScoreCompany(model.Company{Industry: "Retail"}).ExclusionCheck.Excluded)
}

func TestClassifyTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  int
	}{
		{14.5, 1}, {12.0, 1}, {11.9, 2}, {9.0, 2}, {8.9, 3}, {6.0, 3}, {5.9, 4}, {0, 4}, {15, 4}, {-1, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyTier(tt.score).Number, "score=%v", tt.score)
	}
}

func TestScoreRevenue(t *testing.T) {
	t.Parallel()

	def := NewScorer(Config{})
	custom := NewScorer(Config{RevenueRange: []float64{2_000_000, 10_000_000}})

	tests := []struct {
		name   string
		scorer *Scorer
		rev    float64
		want   float64
	}{
		{"default sweet low", def, 1_600_000, 1.5},
		{"default sweet high", def, 70_000_000, 1.5},
		{"default acceptable", def, 1_000_000, 1.0},
		{"default acceptable high", def, 100_000_000, 1.0},
		{"default stretch", def, 500_000, 0.5},
		{"default stretch high", def, 200_000_000, 0.5},
		{"default outside", def, 499_999, 0},
		{"custom acceptable low", custom, 1_000_000, 1.0},
		{"custom acceptable high", custom, 11_000_000, 1.0},
		{"custom stretch", custom, 13_000_000, 0.5},
		{"custom outside", custom, 15_000_000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.scorer.scoreRevenue(&tt.rev).Score)
		})
	}

	assert.Equal(t, "No revenue data", def.scoreRevenue(nil).Rationale)
}

func TestScoreEmployees(t *testing.T) {
	t.Parallel()

	def := NewScorer(Config{})
	custom := NewScorer(Config{EmployeeRange: []int{20, 100}})

	tests := []struct {
		scorer *Scorer
		n      int
		want   float64
	}{
		{def, 10, 1.0}, {def, 200, 1.0}, {def, 5, 0.5}, {def, 500, 0.5}, {def, 4, 0}, {def, 501, 0},
		{custom, 9, 0}, {custom, 10, 0.5}, {custom, 19, 0.5}, {custom, 140, 0.5}, {custom, 141, 0}, {custom, 50, 1.0},
	}
	for _, tt := range tests {
		n := tt.n
		assert.Equal(t, tt.want, tt.scorer.scoreEmployees(&n).Score, "n=%d", n)
	}
}

func TestScoreTechStack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stack []string
		want  float64
	}{
		{nil, 0},
		{[]string{"Excel"}, 0},
		{[]string{"Mailchimp"}, 0.5},
		{[]string{"Pipedrive"}, 1.0},
		{[]string{"HubSpot"}, 2.0},
		{[]string{"HubSpot CRM", "GA4"}, 2.0},
		{[]string{"HubSpot CRM"}, 1.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scoreTechStack(tt.stack).Score, "%v", tt.stack)
	}
}

func TestScoreGeography(t *testing.T) {
	t.Parallel()

	s := NewScorer(Config{})
	assert.Equal(t, 0.5, s.scoreGeography("Toronto, Ontario").Score)
	assert.Equal(t, 0.25, s.scoreGeography("New York").Score)
	assert.Equal(t, 0.0, s.scoreGeography("Paris").Score)

	custom := NewScorer(Config{PrimaryGeography: []string{"France"}, SecondaryGeography: []string{}})
	assert.Equal(t, 0.5, custom.scoreGeography("france").Score)
	assert.Equal(t, 0.0, custom.scoreGeography("New York").Score)
}

func TestUnknownEnumeratedAnswers(t *testing.T) {
	t.Parallel()

	c := model.Company{DecisionMakerAccess: "Board", BudgetAuthority: "SHARED"}
	res := NewScorer(Config{}).ScoreCompany(c)
	assert.Equal(t, "Unknown: Board", res.Breakdown.Strategic.Details.DecisionMakerAccess.Rationale)
	assert.Equal(t, 1.0, res.Breakdown.Strategic.Details.BudgetAuthority.Score)
}

func TestScoreAlwaysInRange(t *testing.T) {
	t.Parallel()

	s := NewScorer(Config{})
	for _, c := range []model.Company{perfectCompany(), midCompany(), {}, {Industry: "Media", Geography: "USA"}} {
		res := s.ScoreCompany(c)
		assert.GreaterOrEqual(t, res.TotalScore, 0.0)
		assert.LessOrEqual(t, res.TotalScore, MaxScore)
		assert.GreaterOrEqual(t, res.TotalScore, res.Tier.MinScore)
		assert.LessOrEqual(t, res.TotalScore, res.Tier.MaxScore)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := filepath.Join(dir, "icp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
primary_industries: [logistics]
excluded_industries: []
revenue_range: [2000000, 10000000]
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"logistics"}, cfg.PrimaryIndustries)
	assert.NotNil(t, cfg.ExcludedIndustries)
	assert.Empty(t, cfg.ExcludedIndustries)
	assert.False(t, cfg.IsZero())

	res := NewScorer(cfg).ScoreCompany(model.Company{Industry: "Agency Logistics"})
	assert.False(t, res.ExclusionCheck.Excluded)
	assert.Equal(t, 2.0, res.Breakdown.Firmographic.Details.Industry.Score)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("employee_range: [10]\n"), 0o600))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "employee_range")
}
