// Package icp scores prospects against the 14.5-point ideal customer profile
// model: firmographic fit (5.0), behavioral fit (5.0) and strategic fit (4.5).
package icp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/revenue-intel/internal/model"
)

// Criterion is one scored sub-dimension.
type Criterion struct {
	Score     float64 `json:"score"`
	Max       float64 `json:"max"`
	Rationale string  `json:"rationale"`
}

// FirmographicDetails breaks down the firmographic score.
type FirmographicDetails struct {
	Industry      Criterion `json:"industry"`
	RevenueRange  Criterion `json:"revenue_range"`
	EmployeeCount Criterion `json:"employee_count"`
	Geography     Criterion `json:"geography"`
}

// BehavioralDetails breaks down the behavioral score.
type BehavioralDetails struct {
	TechStack         Criterion `json:"tech_stack"`
	GrowthSignals     Criterion `json:"growth_signals"`
	ContentEngagement Criterion `json:"content_engagement"`
	PurchaseFrequency Criterion `json:"purchase_frequency"`
}

// StrategicDetails breaks down the strategic score.
type StrategicDetails struct {
	DecisionMakerAccess Criterion `json:"decision_maker_access"`
	BudgetAuthority     Criterion `json:"budget_authority"`
	StrategicAlignment  Criterion `json:"strategic_alignment"`
}

// Dimension is a scored dimension with its details.
type Dimension[T any] struct {
	Score   float64 `json:"score"`
	Max     float64 `json:"max"`
	Details T       `json:"details"`
}

// Breakdown holds the three dimension scores.
type Breakdown struct {
	Firmographic Dimension[FirmographicDetails] `json:"firmographic"`
	Behavioral   Dimension[BehavioralDetails]   `json:"behavioral"`
	Strategic    Dimension[StrategicDetails]    `json:"strategic"`
}

// Exclusion reports whether the prospect's industry is on the exclusion list.
type Exclusion struct {
	Excluded bool    `json:"excluded"`
	Reason   *string `json:"reason"`
}

// Result is a scored prospect. Exclusion does not zero the score.
type Result struct {
	TotalScore         float64   `json:"total_score"`
	Tier               Tier      `json:"tier"`
	Breakdown          Breakdown `json:"breakdown"`
	ExclusionCheck     Exclusion `json:"exclusion_check"`
	RecommendedAction  string    `json:"recommended_action"`
	EngagementStrategy string    `json:"engagement_strategy"`
}

// Scorer scores companies against a scoring configuration.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer. A zero Config uses the default model.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// ScoreCompany scores a company. Each level (criterion, dimension, total) is
// rounded to one decimal.
func (s *Scorer) ScoreCompany(c model.Company) Result {
	exclusion := s.checkExclusion(c.Industry)

	firm := s.scoreFirmographic(c)
	beh := scoreBehavioral(c)
	strat := scoreStrategic(c)

	total := model.Round(firm.Score+beh.Score+strat.Score, 1)
	tier := ClassifyTier(total)

	res := Result{
		TotalScore: total,
		Tier:       tier,
		Breakdown: Breakdown{
			Firmographic: firm,
			Behavioral:   beh,
			Strategic:    strat,
		},
		ExclusionCheck:     exclusion,
		RecommendedAction:  tier.Action,
		EngagementStrategy: tier.EngagementStrategy,
	}
	if exclusion.Excluded {
		res.RecommendedAction = fmt.Sprintf("EXCLUDED: %s. Do not pursue.", *exclusion.Reason)
		res.EngagementStrategy = "None — excluded from ICP."
	}
	return res
}

// matches reports a two-way substring match between an input and a list
// entry.
func matches(value, entry string) bool {
	entry = strings.ToLower(entry)
	return strings.Contains(value, entry) || strings.Contains(entry, value)
}

func matchAny(value string, list []string) bool {
	for _, e := range list {
		if matches(value, e) {
			return true
		}
	}
	return false
}

// checkExclusion flags industries on the exclusion list. An empty industry
// is a substring of every entry and is excluded.
func (s *Scorer) checkExclusion(industry string) Exclusion {
	lower := strings.ToLower(strings.TrimSpace(industry))
	if matchAny(lower, orDefault(s.cfg.ExcludedIndustries, DefaultExcludedIndustries)) {
		reason := fmt.Sprintf("Industry '%s' is in exclusion list", industry)
		return Exclusion{Excluded: true, Reason: &reason}
	}
	return Exclusion{}
}

// Firmographic

func (s *Scorer) scoreFirmographic(c model.Company) Dimension[FirmographicDetails] {
	d := FirmographicDetails{
		Industry:      s.scoreIndustry(c.Industry),
		RevenueRange:  s.scoreRevenue(c.AnnualRevenue),
		EmployeeCount: s.scoreEmployees(c.EmployeeCount),
		Geography:     s.scoreGeography(c.Geography),
	}
	sum := d.Industry.Score + d.RevenueRange.Score + d.EmployeeCount.Score + d.Geography.Score
	return Dimension[FirmographicDetails]{Score: model.Round(sum, 1), Max: 5.0, Details: d}
}

func (s *Scorer) scoreIndustry(industry string) Criterion {
	if industry == "" {
		return Criterion{0, 2.0, "No industry provided"}
	}
	lower := strings.ToLower(strings.TrimSpace(industry))
	switch {
	case matchAny(lower, orDefault(s.cfg.PrimaryIndustries, DefaultPrimaryIndustries)):
		return Criterion{2.0, 2.0, "Primary target industry: " + industry}
	case matchAny(lower, orDefault(s.cfg.AdjacentIndustries, DefaultAdjacentIndustries)):
		return Criterion{1.0, 2.0, "Adjacent industry: " + industry}
	case matchAny(lower, orDefault(s.cfg.TangentialIndustries, DefaultTangentialIndustries)):
		return Criterion{0.5, 2.0, "Tangential industry: " + industry}
	}
	return Criterion{0, 2.0, "Outside target industries: " + industry}
}

func (s *Scorer) scoreRevenue(revenue *float64) Criterion {
	if revenue == nil {
		return Criterion{0, 1.5, "No revenue data"}
	}
	v := *revenue
	money := model.Money(v)

	// Sweet spot, then the acceptable and stretch bands either side of it.
	lo, hi := 1_600_000.0, 70_000_000.0
	acceptLo, acceptHi := 1_000_000.0, 100_000_000.0
	stretchLo, stretchHi := 500_000.0, 200_000_000.0
	if r := s.cfg.RevenueRange; len(r) == 2 {
		lo, hi = r[0], r[1]
		margin := (hi - lo) * 0.25
		acceptLo, acceptHi = lo-margin, hi+margin
		stretchLo, stretchHi = lo-2*margin, hi+2*margin
	}

	switch {
	case v >= lo && v <= hi:
		return Criterion{1.5, 1.5, "Sweet spot: " + money}
	case (v >= acceptLo && v < lo) || (v > hi && v <= acceptHi):
		return Criterion{1.0, 1.5, "Acceptable range: " + money}
	case (v >= stretchLo && v < acceptLo) || (v > acceptHi && v <= stretchHi):
		return Criterion{0.5, 1.5, "Stretch range: " + money}
	}
	return Criterion{0, 1.5, "Outside viable range: " + money}
}

func (s *Scorer) scoreEmployees(count *int) Criterion {
	if count == nil {
		return Criterion{0, 1.0, "No employee data"}
	}
	n := *count
	lo, hi := 10, 200
	borderLo, borderHi := 5, 500
	if r := s.cfg.EmployeeRange; len(r) == 2 {
		lo, hi = r[0], r[1]
		borderLo = max(floorDiv(lo, 2), 1)
		borderHi = hi + floorDiv(hi-lo, 2)
	}

	switch {
	case n >= lo && n <= hi:
		return Criterion{1.0, 1.0, "Ideal range: " + strconv.Itoa(n)}
	case (n >= borderLo && n < lo) || (n > hi && n <= borderHi):
		return Criterion{0.5, 1.0, "Borderline: " + strconv.Itoa(n)}
	}
	return Criterion{0, 1.0, "Outside range: " + strconv.Itoa(n)}
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (s *Scorer) scoreGeography(geo string) Criterion {
	if geo == "" {
		return Criterion{0, 0.5, "No geography provided"}
	}
	lower := strings.ToLower(strings.TrimSpace(geo))
	switch {
	case matchAny(lower, orDefault(s.cfg.PrimaryGeography, DefaultPrimaryGeography)):
		return Criterion{0.5, 0.5, "Primary market: " + geo}
	case matchAny(lower, orDefault(s.cfg.SecondaryGeography, DefaultSecondaryGeography)):
		return Criterion{0.25, 0.5, "Secondary market: " + geo}
	}
	return Criterion{0, 0.5, "Outside market: " + geo}
}

// Behavioral

func scoreBehavioral(c model.Company) Dimension[BehavioralDetails] {
	d := BehavioralDetails{
		TechStack:         scoreTechStack(c.TechStack),
		GrowthSignals:     scoreGrowthSignals(c.GrowthSignals),
		ContentEngagement: lookup(contentEngagement, c.ContentEngagement, "none", 1.0),
		PurchaseFrequency: lookup(purchaseHistory, c.PurchaseHistory, "never", 0.5),
	}
	sum := d.TechStack.Score + d.GrowthSignals.Score + d.ContentEngagement.Score + d.PurchaseFrequency.Score
	return Dimension[BehavioralDetails]{Score: model.Round(sum, 1), Max: 5.0, Details: d}
}

var (
	crmTools       = []string{"salesforce", "crm", "pipedrive"}
	marketingTools = []string{"marketing automation", "mailchimp", "marketo", "pardot", "activecampaign", "hubspot"}
	analyticsTools = []string{"google analytics", "ga4", "analytics", "mixpanel", "amplitude"}
)

func scoreTechStack(stack []string) Criterion {
	if len(stack) == 0 {
		return Criterion{0, 2.0, "No tech stack data"}
	}
	lower := make([]string, len(stack))
	hasHubSpot := false
	for i, t := range stack {
		lower[i] = strings.ToLower(strings.TrimSpace(t))
		if strings.Contains(lower[i], "hubspot") {
			hasHubSpot = true
		}
	}
	hasCRM := hasHubSpot || containsAny(lower, crmTools)
	hasMarketing := containsAny(lower, marketingTools)
	hasAnalytics := containsAny(lower, analyticsTools)

	count := 0
	for _, b := range []bool{hasHubSpot, hasCRM, hasMarketing, hasAnalytics} {
		if b {
			count++
		}
	}

	joined := strings.Join(stack, ", ")
	switch {
	case hasHubSpot && count >= 3:
		return Criterion{2.0, 2.0, "Full core stack: " + joined}
	case hasHubSpot && count >= 2:
		return Criterion{1.5, 2.0, "Most of required stack: " + joined}
	case hasCRM:
		return Criterion{1.0, 2.0, "Partial stack (CRM present): " + joined}
	case count >= 1:
		return Criterion{0.5, 2.0, "Minimal stack: " + joined}
	}
	return Criterion{0, 2.0, "No relevant tech stack"}
}

// containsAny reports whether any of want is an element of have.
func containsAny(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func scoreGrowthSignals(signals []string) Criterion {
	switch n := len(signals); {
	case n >= 3:
		return Criterion{1.5, 1.5, "Multiple strong signals: " + strings.Join(signals, ", ")}
	case n == 2:
		return Criterion{1.0, 1.5, "Some signals: " + strings.Join(signals, ", ")}
	case n == 1:
		return Criterion{0.5, 1.5, "Weak signal: " + signals[0]}
	}
	return Criterion{0, 1.5, "No growth signals"}
}

// Strategic

func scoreStrategic(c model.Company) Dimension[StrategicDetails] {
	d := StrategicDetails{
		DecisionMakerAccess: lookup(decisionMakerAccess, c.DecisionMakerAccess, "none", 2.0),
		BudgetAuthority:     lookup(budgetAuthority, c.BudgetAuthority, "none", 1.5),
		StrategicAlignment:  lookup(strategicAlignment, c.StrategicAlignment, "misaligned", 1.0),
	}
	sum := d.DecisionMakerAccess.Score + d.BudgetAuthority.Score + d.StrategicAlignment.Score
	return Dimension[StrategicDetails]{Score: model.Round(sum, 1), Max: 4.5, Details: d}
}

type level struct {
	score     float64
	rationale string
}

var (
	contentEngagement = map[string]level{
		"active":     {1.0, "Active engager"},
		"occasional": {0.5, "Occasional interaction"},
		"none":       {0, "No engagement"},
	}
	purchaseHistory = map[string]level{
		"regular":    {0.5, "Regular buyer of services"},
		"occasional": {0.25, "Occasional service buyer"},
		"never":      {0, "No purchase history"},
	}
	decisionMakerAccess = map[string]level{
		"c_suite":  {2.0, "Direct C-suite/VP access"},
		"director": {1.5, "Senior director with budget influence"},
		"manager":  {1.0, "Manager-level with path to decision maker"},
		"indirect": {0.5, "Indirect access — champion only"},
		"none":     {0, "No decision-maker access"},
	}
	budgetAuthority = map[string]level{
		"dedicated": {1.5, "Dedicated budget for consulting/optimization"},
		"shared":    {1.0, "Shared budget available"},
		"possible":  {0.5, "Budget possible but needs approval"},
		"none":      {0, "No budget"},
	}
	strategicAlignment = map[string]level{
		"strong":     {1.0, "Strong — growth conviction, data-driven, values methodology"},
		"partial":    {0.5, "Partial — interested but skeptical"},
		"misaligned": {0, "Misaligned — looking for quick fixes"},
	}
)

// lookup scores an enumerated answer. Empty input takes def; unknown
// answers score 0.
func lookup(table map[string]level, value, def string, maxScore float64) Criterion {
	if value == "" {
		value = def
	}
	if l, ok := table[strings.ToLower(value)]; ok {
		return Criterion{l.score, maxScore, l.rationale}
	}
	return Criterion{0, maxScore, "Unknown: " + value}
}
