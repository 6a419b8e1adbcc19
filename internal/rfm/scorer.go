// Package rfm scores clients on recency, frequency and monetary value,
// segments them, and extracts ideal-customer patterns from the best ones.
package rfm

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Monetary scoring methods.
const (
	MethodPercentile = "percentile"
	MethodFixed      = "fixed"
)

// RecencyTable maps days since last purchase to a score. A client scores the
// entry of the first bound it is at or under.
type RecencyTable struct {
	Days   []int `yaml:"days" json:"days,omitempty"`
	Scores []int `yaml:"scores" json:"scores,omitempty"`
}

// FrequencyTable maps transaction counts to a score. A client scores the
// entry of the first bound it meets or exceeds.
type FrequencyTable struct {
	Counts []int `yaml:"counts" json:"counts,omitempty"`
	Scores []int `yaml:"scores" json:"scores,omitempty"`
}

// MonetaryTable configures revenue scoring, either by percentile breakpoints
// over the client population or by fixed dollar cutoffs.
type MonetaryTable struct {
	Method      string    `yaml:"method" json:"method,omitempty"`
	Percentiles []float64 `yaml:"percentiles" json:"percentiles,omitempty"`
	Thresholds  []float64 `yaml:"thresholds" json:"thresholds,omitempty"`
	Scores      []int     `yaml:"scores" json:"scores,omitempty"`
}

// Thresholds holds the three scoring tables. Empty fields take the defaults.
type Thresholds struct {
	Recency   RecencyTable   `yaml:"recency" json:"recency"`
	Frequency FrequencyTable `yaml:"frequency" json:"frequency"`
	Monetary  MonetaryTable  `yaml:"monetary" json:"monetary"`
}

var defaultScores = []int{5, 4, 3, 2, 1}

// DefaultThresholds returns the general-purpose scoring tables.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Recency:   RecencyTable{Days: []int{30, 90, 180, 365}, Scores: defaultScores},
		Frequency: FrequencyTable{Counts: []int{10, 5, 3, 2}, Scores: defaultScores},
		Monetary: MonetaryTable{
			Method:      MethodPercentile,
			Percentiles: []float64{80, 60, 40, 20},
			Thresholds:  []float64{100000, 50000, 25000, 10000},
			Scores:      defaultScores,
		},
	}
}

// withDefaults fills every empty field of t from the default tables.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if len(t.Recency.Days) == 0 {
		t.Recency.Days = d.Recency.Days
	}
	if len(t.Recency.Scores) == 0 {
		t.Recency.Scores = d.Recency.Scores
	}
	if len(t.Frequency.Counts) == 0 {
		t.Frequency.Counts = d.Frequency.Counts
	}
	if len(t.Frequency.Scores) == 0 {
		t.Frequency.Scores = d.Frequency.Scores
	}
	if t.Monetary.Method == "" {
		t.Monetary.Method = d.Monetary.Method
	}
	if len(t.Monetary.Percentiles) == 0 {
		t.Monetary.Percentiles = d.Monetary.Percentiles
	}
	if len(t.Monetary.Thresholds) == 0 {
		t.Monetary.Thresholds = d.Monetary.Thresholds
	}
	if len(t.Monetary.Scores) == 0 {
		t.Monetary.Scores = d.Monetary.Scores
	}
	return t
}

// Scorer computes R, F and M scores against a set of thresholds.
type Scorer struct {
	thresholds Thresholds

	mu    sync.Mutex
	cache map[string][]float64
}

// NewScorer creates a Scorer. Zero-valued tables fall back to the defaults.
func NewScorer(t Thresholds) *Scorer {
	return &Scorer{
		thresholds: t.withDefaults(),
		cache:      make(map[string][]float64),
	}
}

// Thresholds returns the effective scoring tables.
func (s *Scorer) Thresholds() Thresholds { return s.thresholds }

// ScoreRecency scores days since the last purchase. Fewer days is better.
func (s *Scorer) ScoreRecency(daysSince int) int {
	t := s.thresholds.Recency
	return firstMatch(t.Days, t.Scores, func(bound int) bool { return daysSince <= bound })
}

// ScoreFrequency scores a transaction count. More is better.
func (s *Scorer) ScoreFrequency(count int) int {
	t := s.thresholds.Frequency
	return firstMatch(t.Counts, t.Scores, func(bound int) bool { return count >= bound })
}

// ScoreMonetary scores revenue, by percentile rank within allRevenues or by
// fixed cutoffs depending on the configured method.
func (s *Scorer) ScoreMonetary(revenue float64, allRevenues []float64) int {
	t := s.thresholds.Monetary
	if t.Method == MethodFixed {
		return firstMatch(t.Thresholds, t.Scores, func(bound float64) bool { return revenue >= bound })
	}
	breaks := s.percentileBreaks(allRevenues)
	return firstMatch(breaks, defaultScores, func(bound float64) bool { return revenue >= bound })
}

// percentileBreaks returns the configured percentiles of revenues, memoized
// per distinct revenue set.
func (s *Scorer) percentileBreaks(revenues []float64) []float64 {
	key := cacheKey(revenues)

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.cache[key]; ok {
		return b
	}
	breaks := make([]float64, len(s.thresholds.Monetary.Percentiles))
	for i, p := range s.thresholds.Monetary.Percentiles {
		breaks[i] = Percentile(revenues, p)
	}
	s.cache[key] = breaks
	return breaks
}

func cacheKey(values []float64) string {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var b strings.Builder
	for i, v := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

// firstMatch returns the score paired with the first bound that satisfies
// match, or the last score when none does.
func firstMatch[T int | float64](bounds []T, scores []int, match func(T) bool) int {
	if len(scores) == 0 {
		return 0
	}
	for i, bound := range bounds {
		if match(bound) {
			if i < len(scores) {
				return scores[i]
			}
			break
		}
	}
	return scores[len(scores)-1]
}

// Percentile returns the p-th percentile of data using linear interpolation
// between the closest ranks of the sorted values.
func Percentile(data []float64, p float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	if n == 1 {
		return sorted[0]
	}
	k := p / 100 * float64(n-1)
	f := int(k)
	c := f + 1
	if c >= n {
		return sorted[n-1]
	}
	d := k - float64(f)
	return sorted[f] + d*(sorted[c]-sorted[f])
}
