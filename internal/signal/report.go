package signal

import (
	"sort"

	"github.com/sells-group/revenue-intel/internal/pipeline"
)

// Detect runs every detector over snap and returns the merged signals,
// strongest first. Ties keep detector order.
func Detect(snap pipeline.Snapshot) []Signal {
	all := []Signal{}
	all = append(all, VelocityAnomalies(snap)...)
	all = append(all, ConversionDropOffs(snap)...)
	all = append(all, DataQualityIssues(snap.Deals)...)
	all = append(all, WinLossPatterns(snap)...)
	all = append(all, PipelineConcentration(snap)...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Strength > all[j].Strength })
	return all
}

// Summary condenses a signal list.
type Summary struct {
	TotalSignals          int          `json:"total_signals"`
	SignalTypesDetected   []Type       `json:"signal_types_detected"`
	SignalTypeCounts      map[Type]int `json:"signal_type_counts"`
	HighestStrengthSignal *Signal      `json:"highest_strength_signal"`
	CriticalSignals       []Signal     `json:"critical_signals"`
}

// Summarize counts signals per type in order of first appearance.
func Summarize(signals []Signal) Summary {
	s := Summary{
		TotalSignals:        len(signals),
		SignalTypesDetected: []Type{},
		SignalTypeCounts:    map[Type]int{},
		CriticalSignals:     []Signal{},
	}
	for _, sig := range signals {
		if _, ok := s.SignalTypeCounts[sig.Type]; !ok {
			s.SignalTypesDetected = append(s.SignalTypesDetected, sig.Type)
		}
		s.SignalTypeCounts[sig.Type]++
		if sig.IsCritical() {
			s.CriticalSignals = append(s.CriticalSignals, sig)
		}
	}
	if len(signals) > 0 {
		top := signals[0]
		s.HighestStrengthSignal = &top
	}
	return s
}

// Report is the result of a full signal scan.
type Report struct {
	Signals      []Signal          `json:"signals"`
	Summary      Summary           `json:"summary"`
	Taxonomy     map[Type]TypeInfo `json:"signal_taxonomy,omitempty"`
	ScanDate     string            `json:"scan_date"`
	DealsScanned int               `json:"deals_scanned"`
}

// Scan detects signals and wraps them with a summary. An empty snapshot
// yields an empty report without the taxonomy.
func Scan(snap pipeline.Snapshot) Report {
	r := Report{
		ScanDate:     snap.Now.Format("2006-01-02"),
		DealsScanned: len(snap.Deals),
	}
	if len(snap.Deals) == 0 {
		r.Signals = []Signal{}
		r.Summary = Summarize(nil)
		return r
	}
	r.Signals = Detect(snap)
	r.Summary = Summarize(r.Signals)
	r.Taxonomy = Taxonomy()
	return r
}
