package rfm

import (
	"sort"

	"github.com/sells-group/revenue-intel/internal/model"
)

// DefaultMinTotal is the RFM total at or above which a client counts as a
// top performer regardless of segment.
const DefaultMinTotal = 11

// Lift cutoffs for pattern buckets.
const (
	primaryLift   = 2.0
	secondaryLift = 1.5
	negativeLift  = 0.5
)

// PatternValue is one attribute value's share among top performers compared
// to the whole client base.
type PatternValue struct {
	Value  string  `json:"value"`
	Count  int     `json:"count"`
	PctTop float64 `json:"pct_top"`
	PctAll float64 `json:"pct_all"`
	Lift   float64 `json:"lift"`
}

// DimensionPattern buckets the values of one attribute by lift.
type DimensionPattern struct {
	Distribution []PatternValue `json:"distribution"`
	Primary      []PatternValue `json:"primary"`
	Secondary    []PatternValue `json:"secondary"`
	Negative     []PatternValue `json:"negative"`
}

// Patterns holds the lift analysis per attribute dimension.
type Patterns struct {
	Industry       DimensionPattern `json:"industry"`
	EmployeeCount  DimensionPattern `json:"employee_count"`
	CompanyRevenue DimensionPattern `json:"company_revenue"`
	Region         DimensionPattern `json:"region"`
}

// FilterTopPerformers keeps clients in a top-performer segment or with an
// RFM total of at least minTotal.
func FilterTopPerformers(clients []ScoredClient, minTotal int) []ScoredClient {
	var top []ScoredClient
	for _, c := range clients {
		if IsTopPerformer(c.Segment) || c.RFMTotal >= minTotal {
			top = append(top, c)
		}
	}
	return top
}

// ExtractPatterns compares attribute distributions of top performers to the
// full client base.
func ExtractPatterns(top, all []ScoredClient) Patterns {
	return Patterns{
		Industry:       analyzeDimension(top, all, model.DimIndustry),
		EmployeeCount:  analyzeDimension(top, all, model.DimEmployeeCount),
		CompanyRevenue: analyzeDimension(top, all, model.DimCompanyRevenue),
		Region:         analyzeDimension(top, all, model.DimRegion),
	}
}

func analyzeDimension(top, all []ScoredClient, dim string) DimensionPattern {
	var order []string
	topCounts := make(map[string]int)
	for _, c := range top {
		v := c.Attribute(dim)
		if _, seen := topCounts[v]; !seen {
			order = append(order, v)
		}
		topCounts[v]++
	}

	allCounts := make(map[string]int)
	for _, c := range all {
		allCounts[c.Attribute(dim)]++
	}

	results := make([]PatternValue, 0, len(order))
	for _, v := range order {
		count := topCounts[v]
		var pctTop, pctAll, lift float64
		if len(top) > 0 {
			pctTop = float64(count) / float64(len(top)) * 100
		}
		if len(all) > 0 {
			pctAll = float64(allCounts[v]) / float64(len(all)) * 100
		}
		if pctAll > 0 {
			lift = pctTop / pctAll
		}
		results = append(results, PatternValue{
			Value:  v,
			Count:  count,
			PctTop: model.Round(pctTop, 1),
			PctAll: model.Round(pctAll, 1),
			Lift:   model.Round(lift, 2),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].PctTop > results[j].PctTop })

	p := DimensionPattern{
		Distribution: results,
		Primary:      []PatternValue{},
		Secondary:    []PatternValue{},
		Negative:     []PatternValue{},
	}
	for _, r := range results {
		switch {
		case r.Lift >= primaryLift:
			p.Primary = append(p.Primary, r)
		case r.Lift >= secondaryLift:
			p.Secondary = append(p.Secondary, r)
		}
		if r.Lift < negativeLift {
			p.Negative = append(p.Negative, r)
		}
	}
	return p
}

// TierCriteria lists the attribute values a tier 1 prospect must match.
type TierCriteria struct {
	Industry []string `json:"industry"`
	Size     []string `json:"size"`
	Revenue  []string `json:"revenue"`
}

// AntiPatterns lists attribute values under-represented among top performers.
type AntiPatterns struct {
	Industry []PatternValue `json:"industry"`
	Size     []PatternValue `json:"size"`
	Revenue  []PatternValue `json:"revenue"`
}

// TierOne is the strictest targeting tier.
type TierOne struct {
	Criteria      TierCriteria `json:"criteria"`
	MatchRequired string       `json:"match_required"`
	Priority      string       `json:"priority"`
}

// TierRule is a partial-match targeting tier.
type TierRule struct {
	Criteria      string `json:"criteria"`
	MatchRequired string `json:"match_required"`
	Priority      string `json:"priority"`
}

// TierAvoid is the anti-pattern tier.
type TierAvoid struct {
	Criteria     string       `json:"criteria"`
	AntiPatterns AntiPatterns `json:"anti_patterns"`
	Priority     string       `json:"priority"`
}

// TierRecommendations turns lift patterns into targeting tiers.
type TierRecommendations struct {
	Tier1 TierOne   `json:"tier_1"`
	Tier2 TierRule  `json:"tier_2"`
	Tier3 TierRule  `json:"tier_3"`
	Tier4 TierAvoid `json:"tier_4"`
}

// GenerateTierRecommendations builds targeting tiers from the primary and
// negative buckets of each dimension.
func GenerateTierRecommendations(p Patterns) TierRecommendations {
	return TierRecommendations{
		Tier1: TierOne{
			Criteria: TierCriteria{
				Industry: primaryValues(p.Industry),
				Size:     primaryValues(p.EmployeeCount),
				Revenue:  primaryValues(p.CompanyRevenue),
			},
			MatchRequired: "all",
			Priority:      "HIGHEST",
		},
		Tier2: TierRule{Criteria: "Match 2/3 Tier 1 criteria", MatchRequired: "2 of 3", Priority: "HIGH"},
		Tier3: TierRule{Criteria: "Match 1/3 Tier 1 criteria", MatchRequired: "1 of 3", Priority: "SELECTIVE"},
		Tier4: TierAvoid{
			Criteria: "Does not match criteria",
			AntiPatterns: AntiPatterns{
				Industry: p.Industry.Negative,
				Size:     p.EmployeeCount.Negative,
				Revenue:  p.CompanyRevenue.Negative,
			},
			Priority: "AVOID",
		},
	}
}

func primaryValues(d DimensionPattern) []string {
	out := []string{}
	for i, v := range d.Primary {
		if i == 3 {
			break
		}
		out = append(out, v.Value)
	}
	return out
}
