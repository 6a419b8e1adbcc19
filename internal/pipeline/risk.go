package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/sells-group/revenue-intel/internal/model"
)

// Risk thresholds in days.
const (
	StagnationDays = 30
	MaxOpenDays    = 180
)

// AtRiskDeal is a deal flagged by at least one risk heuristic.
type AtRiskDeal struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	DaysInPipeline int      `json:"days_in_pipeline"`
	Stage          string   `json:"stage"`
	Amount         float64  `json:"amount"`
	RiskReasons    []string `json:"risk_reasons"`
}

// FindAtRiskDeals flags stagnant, overdue and aged deals. Deals without a
// create date are skipped. The result is sorted by reason count, most first.
func FindAtRiskDeals(deals []model.Deal, now time.Time, top model.StageTopology) []AtRiskDeal {
	out := []AtRiskDeal{}
	for _, d := range deals {
		if d.CreateDate == nil {
			continue
		}
		ref := *d.CreateDate
		if d.LastModified != nil {
			ref = *d.LastModified
		}
		stagnant := model.DaysBetween(now, ref)
		total := model.DaysBetween(now, *d.CreateDate)
		pastDue := d.CloseDate != nil && now.After(*d.CloseDate)

		var reasons []string
		if stagnant > StagnationDays {
			reasons = append(reasons, fmt.Sprintf("No activity for %d days", stagnant))
		}
		if pastDue {
			reasons = append(reasons, "Past expected close date")
		}
		if total > MaxOpenDays {
			reasons = append(reasons, fmt.Sprintf("Open for %d days (>6 months)", total))
		}
		if len(reasons) == 0 {
			continue
		}
		out = append(out, AtRiskDeal{
			ID:             d.ID,
			Name:           d.Name,
			DaysInPipeline: total,
			Stage:          top.Label(d.Stage),
			Amount:         d.Amount,
			RiskReasons:    reasons,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].RiskReasons) > len(out[j].RiskReasons) })
	return out
}
