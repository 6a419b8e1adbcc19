package pipeline

import "github.com/sells-group/revenue-intel/internal/model"

// Health labels.
const (
	Healthy  = "Healthy"
	Warning  = "Warning"
	Critical = "Critical"
)

// CalculateHealthScore scores pipeline health from 0 to 100. An empty deal
// set scores 0, Critical.
func CalculateHealthScore(deals []model.Deal, v Velocity, atRisk []AtRiskDeal) (int, string) {
	if len(deals) == 0 {
		return 0, Critical
	}
	score := 100

	riskPct := float64(len(atRisk)) / float64(len(deals)) * 100
	switch {
	case riskPct > 50:
		score -= 40
	case riskPct > 30:
		score -= 25
	case riskPct > 15:
		score -= 10
	}

	switch cycle := v.OverallCycleDays; {
	case cycle > 180:
		score -= 25
	case cycle > 120:
		score -= 15
	case cycle > 90:
		score -= 5
	}

	if avg, ok := v.AverageConversionRate(); ok {
		switch {
		case avg < 30:
			score -= 20
		case avg < 50:
			score -= 10
		}
	}

	switch n := len(deals); {
	case n < 3:
		score -= 15
	case n >= 10:
		score += 5
	}

	score = max(0, min(100, score))
	return score, HealthLabel(score)
}

// HealthLabel maps a 0-100 score to its label.
func HealthLabel(score int) string {
	switch {
	case score >= 70:
		return Healthy
	case score >= 40:
		return Warning
	default:
		return Critical
	}
}
