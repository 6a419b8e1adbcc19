// Package pipeline computes sales-pipeline analytics: stage velocity,
// stage-to-stage conversion, at-risk deals, health and exit criteria.
package pipeline

import (
	"time"

	"github.com/sells-group/revenue-intel/internal/model"
)

// StageVelocity is the average age of deals currently in one stage.
type StageVelocity struct {
	Stage     string  `json:"stage"`
	Label     string  `json:"label"`
	AvgDays   float64 `json:"avg_days"`
	DealCount int     `json:"deal_count"`
}

// Conversion is the at-or-past conversion between two adjacent stages.
// Deals at or beyond From count toward CurrentCount; deals at or beyond To
// count toward NextCount.
type Conversion struct {
	FromStage    string `json:"from_stage"`
	ToStage      string `json:"to_stage"`
	From         string `json:"from"`
	To           string `json:"to"`
	CurrentCount int    `json:"current_count"`
	NextCount    int    `json:"next_count"`
	Rate         int    `json:"rate"`
}

// Key returns the "From -> To" label of the transition.
func (c Conversion) Key() string { return c.From + " -> " + c.To }

// PreciseRate returns the conversion rate rounded to one decimal, or false
// when no deal reached From.
func (c Conversion) PreciseRate() (float64, bool) {
	if c.CurrentCount == 0 {
		return 0, false
	}
	return model.Round(float64(c.NextCount)/float64(c.CurrentCount)*100, 1), true
}

// Velocity holds per-stage velocity and conversion in stage order.
type Velocity struct {
	Stages []StageVelocity `json:"stages"`

	// Bottleneck is the label of the slowest stage, empty when no stage has
	// a positive average.
	Bottleneck string `json:"bottleneck_stage"`

	// OverallCycleDays sums the rounded per-stage averages. It is a proxy,
	// not a measured cycle time.
	OverallCycleDays int          `json:"overall_cycle_days"`
	Conversions      []Conversion `json:"conversions"`
}

// AvgDaysPerStage maps stage labels to their average age.
func (v Velocity) AvgDaysPerStage() map[string]float64 {
	out := make(map[string]float64, len(v.Stages))
	for _, s := range v.Stages {
		out[s.Label] = s.AvgDays
	}
	return out
}

// ConversionRates maps "From -> To" labels to integer rates.
func (v Velocity) ConversionRates() map[string]int {
	out := make(map[string]int, len(v.Conversions))
	for _, c := range v.Conversions {
		out[c.Key()] = c.Rate
	}
	return out
}

// AverageConversionRate returns the mean integer conversion rate, or false
// when there are no transitions.
func (v Velocity) AverageConversionRate() (float64, bool) {
	if len(v.Conversions) == 0 {
		return 0, false
	}
	sum := 0
	for _, c := range v.Conversions {
		sum += c.Rate
	}
	return float64(sum) / float64(len(v.Conversions)), true
}

// MinConversionRate returns the lowest integer conversion rate, or false
// when there are no transitions.
func (v Velocity) MinConversionRate() (int, bool) {
	if len(v.Conversions) == 0 {
		return 0, false
	}
	lowest := v.Conversions[0].Rate
	for _, c := range v.Conversions[1:] {
		lowest = min(lowest, c.Rate)
	}
	return lowest, true
}

// CalculateVelocity estimates time-in-stage from deal age, since stage
// history is not fetched. Deals without a stage or create date are skipped;
// only stages in the topology are reported.
func CalculateVelocity(deals []model.Deal, now time.Time, top model.StageTopology) Velocity {
	durations := make(map[string][]int)
	for _, d := range deals {
		if d.Stage == "" || d.CreateDate == nil {
			continue
		}
		days := max(model.DaysBetween(now, *d.CreateDate), 0)
		durations[d.Stage] = append(durations[d.Stage], days)
	}

	v := Velocity{Stages: []StageVelocity{}, Conversions: []Conversion{}}
	var maxAvg, sumRounded float64
	for _, stage := range top.Order {
		ds, ok := durations[stage]
		if !ok {
			continue
		}
		total := 0
		for _, n := range ds {
			total += n
		}
		avg := float64(total) / float64(len(ds))
		rounded := model.Round(avg, 1)
		v.Stages = append(v.Stages, StageVelocity{
			Stage:     stage,
			Label:     top.Label(stage),
			AvgDays:   rounded,
			DealCount: len(ds),
		})
		sumRounded += rounded
		if avg > maxAvg {
			maxAvg = avg
			v.Bottleneck = top.Label(stage)
		}
	}
	v.OverallCycleDays = model.RoundInt(sumRounded)
	v.Conversions = conversions(deals, top)
	return v
}

func conversions(deals []model.Deal, top model.StageTopology) []Conversion {
	out := []Conversion{}
	for i := 0; i+1 < len(top.Order); i++ {
		cur, next := top.Order[i], top.Order[i+1]
		c := Conversion{
			FromStage: cur,
			ToStage:   next,
			From:      top.Label(cur),
			To:        top.Label(next),
		}
		for _, d := range deals {
			idx := top.Index(d.Stage)
			if idx < 0 {
				continue
			}
			if idx >= i {
				c.CurrentCount++
			}
			if idx >= i+1 {
				c.NextCount++
			}
		}
		if c.CurrentCount > 0 {
			c.Rate = model.RoundInt(float64(c.NextCount) / float64(c.CurrentCount) * 100)
		}
		out = append(out, c)
	}
	return out
}
