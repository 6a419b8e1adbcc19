package constraint

import (
	"github.com/sells-group/revenue-intel/internal/model"
	"github.com/sells-group/revenue-intel/internal/pipeline"
)

// NeutralScore fills every constraint when there are no deals.
const NeutralScore = 50

// Scores maps each constraint to its severity.
type Scores map[Key]float64

// Dominant returns the constraint with the highest severity. The first key
// in Keys order wins ties.
func (s Scores) Dominant() Key {
	best := Keys[0]
	for _, k := range Keys[1:] {
		if s[k] > s[best] {
			best = k
		}
	}
	return best
}

// Score computes normalized severities in [0, 100] from a pipeline snapshot.
// The most severe constraint scores exactly 100 unless every raw score is
// zero. An empty snapshot scores NeutralScore everywhere.
func Score(snap pipeline.Snapshot) Scores {
	raw := RawScores(snap)
	if len(snap.Deals) == 0 {
		return raw
	}
	var top float64
	for _, k := range Keys {
		top = max(top, raw[k])
	}
	if top > 0 {
		for _, k := range Keys {
			raw[k] = model.Round(min(100, raw[k]/top*100), 1)
		}
	}
	return raw
}

// RawScores returns the point totals before normalization.
func RawScores(snap pipeline.Snapshot) Scores {
	deals := snap.Deals
	total := len(deals)
	s := Scores{}
	if total == 0 {
		for _, k := range Keys {
			s[k] = NeutralScore
		}
		return s
	}
	for _, k := range Keys {
		s[k] = 0
	}

	early := snap.Topology.EarlyStages()
	late := snap.Topology.LateStages()

	var earlyCount, lateCount, smallDeals int
	var totalValue, lateValue float64
	for _, d := range deals {
		totalValue += d.Amount
		if model.Contains(early, d.Stage) {
			earlyCount++
		}
		if model.Contains(late, d.Stage) {
			lateCount++
			lateValue += d.Amount
		}
		if d.Amount < BenchmarkDealValue*0.3 {
			smallDeals++
		}
	}
	earlyPct := float64(earlyCount) / float64(total) * 100

	// Lead generation
	switch {
	case total < 5:
		s[LeadGeneration] += 40
	case total < 10:
		s[LeadGeneration] += 20
	case total < 15:
		s[LeadGeneration] += 10
	}
	switch {
	case earlyCount == 0 && lateCount > 0:
		s[LeadGeneration] += 30
	case total < 8:
		s[LeadGeneration] += 15
	}

	// Conversion
	if avg, ok := snap.Velocity.AverageConversionRate(); ok {
		switch {
		case avg < 25:
			s[Conversion] += 40
		case avg < 40:
			s[Conversion] += 25
		case avg < BenchmarkConversionRate:
			s[Conversion] += 10
		}
		lowest, _ := snap.Velocity.MinConversionRate()
		switch {
		case lowest < 20:
			s[Conversion] += 20
		case lowest < 30:
			s[Conversion] += 10
		}
	}
	switch pct := snap.AtRiskPct(); {
	case pct > BenchmarkAtRiskPct:
		s[Conversion] += 20
	case pct > 20:
		s[Conversion] += 10
	}
	switch cycle := snap.Velocity.OverallCycleDays; {
	case cycle > BenchmarkCycleDays*2:
		s[Conversion] += 20
	case cycle > BenchmarkCycleDays:
		s[Conversion] += 10
	}
	if earlyPct > BenchmarkEarlyConcentration {
		s[Conversion] += 15
	}

	// Delivery: a lot of value about to close.
	if len(late) > 0 && lateCount > 3 && lateValue > totalValue*0.5 {
		s[Delivery] += 15
	}

	// Profitability
	avgDeal := totalValue / float64(total)
	switch {
	case avgDeal < BenchmarkDealValue*0.5:
		s[Profitability] += 25
	case avgDeal < BenchmarkDealValue:
		s[Profitability] += 10
	}
	if float64(smallDeals)/float64(total) > 0.5 {
		s[Profitability] += 15
	}
	return s
}
