package rfm

// Industry presets for the RFM scorer.
const (
	PresetDefault       = "default"
	PresetB2BService    = "b2b_service"
	PresetSaaS          = "saas"
	PresetManufacturing = "manufacturing"
)

// Presets lists the preset names accepted by PresetThresholds.
var Presets = []string{PresetB2BService, PresetSaaS, PresetManufacturing, PresetDefault}

// PresetThresholds returns the scoring tables for an industry preset.
// Unknown names get the default tables.
func PresetThresholds(name string) Thresholds {
	t := DefaultThresholds()
	switch name {
	case PresetB2BService:
		// Longer buying cycles.
		t.Recency.Days = []int{60, 180, 365, 730}
		t.Frequency.Counts = []int{5, 3, 2, 1}
	case PresetSaaS:
		t.Recency.Days = []int{30, 60, 90, 180}
		t.Frequency.Counts = []int{5, 3, 2, 1, 0}
	case PresetManufacturing:
		// Long cycles, large transactions.
		t.Recency.Days = []int{90, 365, 730, 1095}
		t.Frequency.Counts = []int{8, 4, 2, 1}
	}
	return t
}
