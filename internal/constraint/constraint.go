// Package constraint identifies which of four scaling constraints most
// limits revenue, and breaks the pipeline down along the revenue formula.
package constraint

// Key names a constraint.
type Key string

// Constraints in ranking tie-break order.
const (
	LeadGeneration Key = "lead_generation"
	Conversion     Key = "conversion"
	Delivery       Key = "delivery"
	Profitability  Key = "profitability"
)

// Keys lists the constraints in tie-break order.
var Keys = []Key{LeadGeneration, Conversion, Delivery, Profitability}

// Definition describes a constraint and the levers that address it.
type Definition struct {
	Label        string   `json:"label"`
	Description  string   `json:"description"`
	Symptoms     []string `json:"symptoms"`
	EngineFocus  string   `json:"engine_focus"`
	WbdLevers    []string `json:"wbd_levers"`
	HormoziLever string   `json:"hormozi_lever"`
}

var definitions = map[Key]Definition{
	LeadGeneration: {
		Label:       "Lead Generation",
		Description: "Not enough prospects entering the pipeline",
		Symptoms: []string{
			"Pipeline below 3x coverage of quota",
			"Sales team has idle capacity",
			"Marketing channels producing fewer leads",
			"No referral or partner engine",
		},
		EngineFocus:  "Growth Engine (early stages)",
		WbdLevers:    []string{"VM1 (Visitors)", "CR1 (Visit → Lead)"},
		HormoziLever: "Traffic",
	},
	Conversion: {
		Label:       "Conversion",
		Description: "Prospects enter but don't buy",
		Symptoms: []string{
			"Win rate below 20%",
			"Deals stall at specific pipeline stages",
			"Long sales cycles vs. industry norms",
			"Frequent 'not now' or 'too expensive' responses",
		},
		EngineFocus:  "Growth Engine (late stages)",
		WbdLevers:    []string{"CR2-CR5 (Lead → Won)"},
		HormoziLever: "Conversion",
	},
	Delivery: {
		Label:       "Delivery",
		Description: "Can't fulfill at scale — quality drops with growth",
		Symptoms: []string{
			"Turning away business due to capacity",
			"Client satisfaction declining with growth",
			"Delivery timelines slipping",
			"Key-person dependency",
		},
		EngineFocus:  "Fulfillment Engine",
		WbdLevers:    []string{"NRR (Retention Formula)"},
		HormoziLever: "Churn (inverse)",
	},
	Profitability: {
		Label:       "Profitability",
		Description: "Revenue grows but profit doesn't",
		Symptoms: []string{
			"Gross margin below 50%",
			"Revenue requires proportional team growth",
			"Discounting to close deals",
			"Overhead growing faster than revenue",
		},
		EngineFocus:  "All engines (efficiency focus)",
		WbdLevers:    []string{"ACV", "NRR"},
		HormoziLever: "Price",
	},
}

// Define returns the definition of k.
func Define(k Key) Definition { return definitions[k] }

// Benchmarks for constraint detection.
const (
	BenchmarkCoverageRatio      = 3.0
	BenchmarkWinRate            = 25.0
	BenchmarkConversionRate     = 50.0
	BenchmarkDealValue          = 30000.0
	BenchmarkCycleDays          = 90
	BenchmarkAtRiskPct          = 30.0
	BenchmarkEarlyConcentration = 60.0
)
