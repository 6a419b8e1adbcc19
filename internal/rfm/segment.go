package rfm

// Segment names.
const (
	Champions          = "Champions"
	LoyalCustomers     = "Loyal Customers"
	PotentialLoyalists = "Potential Loyalists"
	NewCustomers       = "New Customers"
	Promising          = "Promising"
	NeedAttention      = "Need Attention"
	AboutToSleep       = "About to Sleep"
	AtRisk             = "At Risk"
	CantLoseThem       = "Can't Lose Them"
	Hibernating        = "Hibernating"
	Lost               = "Lost"
)

// SegmentInfo describes a segment and the play it calls for.
type SegmentInfo struct {
	Description string `json:"description"`
	Action      string `json:"action"`
}

var segmentInfo = map[string]SegmentInfo{
	Champions:          {"Best customers, highest value", "Reward loyalty, ask for referrals"},
	LoyalCustomers:     {"Consistent, engaged customers", "Cross-sell, maintain relationship"},
	PotentialLoyalists: {"Recent buyers who could grow", "Nurture with targeted content"},
	NewCustomers:       {"Just acquired, high potential", "Exceptional onboarding"},
	Promising:          {"Recent single purchase, promising", "Second purchase incentive"},
	NeedAttention:      {"Average customers, slipping", "Re-engagement campaigns"},
	AboutToSleep:       {"Haven't purchased recently", "Win-back campaigns"},
	AtRisk:             {"Were good, slipping away", "Urgent outreach, investigate"},
	CantLoseThem:       {"High value but dormant", "Executive outreach, service recovery"},
	Hibernating:        {"Long time since purchase", "Low-cost re-engagement"},
	Lost:               {"Gone, unlikely to return", "Remove from active campaigns"},
}

type segmentRule struct {
	segment string
	match   func(r, f, total int) bool
}

// segmentRules are evaluated in order; the first match wins. The predicates
// overlap, so the order is part of the classification.
var segmentRules = []segmentRule{
	{Champions, func(r, f, total int) bool { return r >= 4 && f >= 4 && total >= 13 }},
	{CantLoseThem, func(r, f, total int) bool { return r <= 2 && f >= 4 && total >= 10 }},
	{AtRisk, func(r, f, total int) bool { return r <= 2 && f >= 3 && total >= 8 }},
	{LoyalCustomers, func(r, f, total int) bool { return r >= 3 && f >= 3 && total >= 11 }},
	{NewCustomers, func(r, f, total int) bool { return r == 5 && f == 1 && total >= 8 }},
	{Promising, func(r, f, total int) bool { return r == 4 && f == 1 && total >= 7 }},
	{PotentialLoyalists, func(r, f, total int) bool { return r >= 4 && (f == 2 || f == 3) && total >= 9 }},
	{NeedAttention, func(r, f, total int) bool { return r == 3 && (f == 2 || f == 3) && total >= 7 && total <= 10 }},
	{AboutToSleep, func(r, f, total int) bool { return (r == 2 || r == 3) && (f == 1 || f == 2) && total >= 5 && total <= 8 }},
	{Lost, func(r, f, total int) bool { return r == 1 && f == 1 && total <= 4 }},
	{Hibernating, func(r, f, total int) bool { return r <= 2 && f <= 2 && total <= 6 }},
}

// Classify assigns an R, F, M triple to a segment. It is total over [1,5]^3.
func Classify(r, f, m int) string {
	total := r + f + m
	for _, rule := range segmentRules {
		if rule.match(r, f, total) {
			return rule.segment
		}
	}
	switch {
	case r >= 4:
		return PotentialLoyalists
	case f >= 3:
		return AtRisk
	default:
		return NeedAttention
	}
}

// Info returns the metadata for a segment.
func Info(segment string) (SegmentInfo, bool) {
	info, ok := segmentInfo[segment]
	return info, ok
}

// Action returns the recommended play for a segment.
func Action(segment string) string {
	if info, ok := segmentInfo[segment]; ok {
		return info.Action
	}
	return "Review manually"
}

// AllSegments returns every segment name in display order.
func AllSegments() []string {
	return []string{
		Champions, LoyalCustomers, PotentialLoyalists, NewCustomers, Promising,
		NeedAttention, AboutToSleep, AtRisk, CantLoseThem, Hibernating, Lost,
	}
}

// IsTopPerformer reports whether a segment counts as a top performer.
func IsTopPerformer(segment string) bool {
	return segment == Champions || segment == LoyalCustomers
}

// IsAtRisk reports whether a segment is slipping away.
func IsAtRisk(segment string) bool {
	return segment == AtRisk || segment == CantLoseThem
}

// IsLowValue reports whether a segment is dormant or gone.
func IsLowValue(segment string) bool {
	return segment == Hibernating || segment == Lost
}
