package icp

// Tier is one of the four ICP score bands. The interval [MinScore, MaxScore]
// is closed.
type Tier struct {
	Number       int    `json:"number"`
	Label        string `json:"label"`
	Color        string `json:"color"`
	HubSpotValue string `json:"hubspot_value"`

	MinScore           float64 `json:"-"`
	MaxScore           float64 `json:"-"`
	EngagementStrategy string  `json:"-"`
	Action             string  `json:"-"`
}

// MaxScore is the highest possible ICP score.
const MaxScore = 14.5

// Tiers lists the bands from best to worst. They cover [0, 14.5] on the
// 0.1 grid that scores are rounded to.
var Tiers = []Tier{
	{
		Number: 1, Label: "Ideal", Color: "green", HubSpotValue: "tier_1_ideal",
		MinScore: 12.0, MaxScore: 14.5,
		EngagementStrategy: "Highest priority — pursue aggressively. Same-day response SLA. " +
			"Senior team, custom proposals, full value pricing. " +
			"Dedicated account plan with expansion roadmap.",
		Action: "Pursue aggressively — assign senior team, create custom proposal.",
	},
	{
		Number: 2, Label: "Strong", Color: "blue", HubSpotValue: "tier_2_strong",
		MinScore: 9.0, MaxScore: 11.9,
		EngagementStrategy: "High priority — active pursuit. 24h response SLA. " +
			"Standard team, templated proposals with customization. " +
			"Standard pricing, selective discounting for strategic wins.",
		Action: "Active pursuit — standard proposal with customization. Worth investing.",
	},
	{
		Number: 3, Label: "Moderate", Color: "yellow", HubSpotValue: "tier_3_moderate",
		MinScore: 6.0, MaxScore: 8.9,
		EngagementStrategy: "Selective — pursue only if inbound or strategic reason. " +
			"48h response SLA, no proactive outreach. " +
			"Junior team or automated workflows. Standard pricing only.",
		Action: "Selective engagement — pursue only if inbound or strategic reason.",
	},
	{
		Number: 4, Label: "Poor", Color: "red", HubSpotValue: "tier_4_poor",
		MinScore: 0.0, MaxScore: 5.9,
		EngagementStrategy: "Deprioritize — nurture only. No SLA. Fully automated. " +
			"General newsletter only. Consider partner referral.",
		Action: "Deprioritize — automated nurture only. Consider partner referral.",
	},
}

// ClassifyTier returns the first tier whose interval contains score, or the
// lowest tier for out-of-range scores.
func ClassifyTier(score float64) Tier {
	for _, t := range Tiers {
		if score >= t.MinScore && score <= t.MaxScore {
			return t
		}
	}
	return Tiers[len(Tiers)-1]
}
