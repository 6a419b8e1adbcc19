package rfm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	t.Parallel()

	data := []float64{340000, 185000, 92000, 67000, 210000, 28000, 155000, 420000, 45000, 73000, 18000, 125000}

	tests := []struct {
		name string
		data []float64
		p    float64
		want float64
	}{
		{"empty", nil, 50, 0},
		{"single", []float64{42}, 80, 42},
		{"min", data, 0, 18000},
		{"max", data, 100, 420000},
		{"p80", data, 80, 205000},
		{"p60", data, 60, 143000},
		{"p40", data, 40, 80600},
		{"p20", data, 20, 49400},
		{"median of two", []float64{10, 20}, 50, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Percentile(tt.data, tt.p), 1e-6)
		})
	}

	t.Run("does not reorder input", func(t *testing.T) {
		t.Parallel()
		in := []float64{3, 1, 2}
		Percentile(in, 50)
		assert.Equal(t, []float64{3, 1, 2}, in)
	})
}

func TestScoreRecency(t *testing.T) {
	t.Parallel()
	s := NewScorer(Thresholds{})

	tests := []struct {
		days int
		want int
	}{
		{0, 5}, {30, 5}, {31, 4}, {90, 4}, {91, 3}, {180, 3}, {181, 2}, {365, 2}, {366, 1}, {999, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.ScoreRecency(tt.days), "days=%d", tt.days)
	}
}

func TestScoreFrequency(t *testing.T) {
	t.Parallel()
	s := NewScorer(Thresholds{})

	tests := []struct {
		count int
		want  int
	}{
		{15, 5}, {10, 5}, {9, 4}, {5, 4}, {4, 3}, {3, 3}, {2, 2}, {1, 1}, {0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.ScoreFrequency(tt.count), "count=%d", tt.count)
	}
}

func TestScoreMonetary(t *testing.T) {
	t.Parallel()

	all := []float64{340000, 185000, 92000, 67000, 210000, 28000, 155000, 420000, 45000, 73000, 18000, 125000}

	t.Run("percentile", func(t *testing.T) {
		t.Parallel()
		s := NewScorer(Thresholds{})
		assert.Equal(t, 5, s.ScoreMonetary(420000, all))
		assert.Equal(t, 4, s.ScoreMonetary(185000, all))
		assert.Equal(t, 3, s.ScoreMonetary(92000, all))
		assert.Equal(t, 2, s.ScoreMonetary(67000, all))
		assert.Equal(t, 1, s.ScoreMonetary(28000, all))
	})

	t.Run("percentile cache is keyed by sorted set", func(t *testing.T) {
		t.Parallel()
		s := NewScorer(Thresholds{})
		s.ScoreMonetary(1, []float64{3, 1, 2})
		s.ScoreMonetary(1, []float64{1, 2, 3})
		assert.Len(t, s.cache, 1)
	})

	t.Run("fixed", func(t *testing.T) {
		t.Parallel()
		s := NewScorer(Thresholds{Monetary: MonetaryTable{Method: MethodFixed}})
		assert.Equal(t, 5, s.ScoreMonetary(100000, nil))
		assert.Equal(t, 4, s.ScoreMonetary(60000, nil))
		assert.Equal(t, 3, s.ScoreMonetary(25000, nil))
		assert.Equal(t, 2, s.ScoreMonetary(10000, nil))
		assert.Equal(t, 1, s.ScoreMonetary(9999, nil))
	})
}

func TestPresetThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		preset    string
		days      int
		recency   int
		count     int
		frequency int
	}{
		{PresetDefault, 60, 4, 5, 4},
		{PresetB2BService, 60, 5, 5, 5},
		{PresetSaaS, 60, 4, 0, 1},
		{PresetSaaS, 200, 1, 3, 4},
		{PresetManufacturing, 364, 4, 8, 5},
		{"unknown", 60, 4, 5, 4},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			t.Parallel()
			s := NewScorer(PresetThresholds(tt.preset))
			assert.Equal(t, tt.recency, s.ScoreRecency(tt.days))
			assert.Equal(t, tt.frequency, s.ScoreFrequency(tt.count))
		})
	}
}

func TestLoadThresholds(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	t.Run("partial override", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "partial.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
recency:
  days: [7, 14, 28, 56]
monetary:
  method: fixed
  thresholds: [5000, 2500, 1000, 500]
`), 0o600))

		th, err := LoadThresholds(path)
		require.NoError(t, err)
		assert.Equal(t, []int{7, 14, 28, 56}, th.Recency.Days)
		assert.Equal(t, []int{5, 4, 3, 2, 1}, th.Recency.Scores)
		assert.Equal(t, []int{10, 5, 3, 2}, th.Frequency.Counts)

		s := NewScorer(th)
		assert.Equal(t, 3, s.ScoreRecency(20))
		assert.Equal(t, 4, s.ScoreMonetary(3000, nil))
	})

	t.Run("unknown method", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("monetary:\n  method: median\n"), 0o600))
		_, err := LoadThresholds(path)
		assert.ErrorContains(t, err, "unknown monetary method")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadThresholds(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}
