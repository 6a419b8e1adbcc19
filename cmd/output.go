package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revenue-intel/internal/constraint"
	"github.com/sells-group/revenue-intel/internal/engine"
	"github.com/sells-group/revenue-intel/internal/gtm"
	"github.com/sells-group/revenue-intel/internal/icp"
	"github.com/sells-group/revenue-intel/internal/pipeline"
	"github.com/sells-group/revenue-intel/internal/rfm"
	"github.com/sells-group/revenue-intel/internal/signal"
	"github.com/sells-group/revenue-intel/internal/tabular"
)

// Output formats.
const (
	formatJSON  = "json"
	formatTable = "table"
	formatXLSX  = "xlsx"
)

// report is a command result with its optional table and workbook forms.
type report struct {
	value  any
	table  func(io.Writer)
	sheets func() []tabular.Sheet
}

// render writes r in the requested format. JSON and table go to output, or
// stdout when output is empty. XLSX always needs an output path.
func render(stdout io.Writer, format, output string, r report) error {
	switch format {
	case "", formatJSON:
		data, err := json.MarshalIndent(r.value, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal result")
		}
		return writeOut(stdout, output, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, string(data))
			return err
		})
	case formatTable:
		if r.table == nil {
			return eris.Errorf("table output is not supported for this command")
		}
		return writeOut(stdout, output, func(w io.Writer) error {
			r.table(w)
			return nil
		})
	case formatXLSX:
		if r.sheets == nil {
			return eris.Errorf("xlsx output is not supported for this command")
		}
		if output == "" {
			return eris.New("xlsx output requires --output")
		}
		return tabular.WriteXLSX(output, r.sheets()...)
	default:
		return eris.Errorf("unknown format %q (want json, table or xlsx)", format)
	}
}

func writeOut(stdout io.Writer, path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 0, 64)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// -- rfm --

func rfmReport(res rfm.Result) report {
	return report{
		value: res,
		table: func(out io.Writer) { formatRFM(out, res) },
		sheets: func() []tabular.Sheet {
			clients := tabular.Sheet{
				Name:   "Clients",
				Header: []string{"Client", "Industry", "Revenue", "Transactions", "Days Since Last", "R", "F", "M", "Total", "Code", "Segment"},
			}
			for _, c := range res.Clients {
				clients.Rows = append(clients.Rows, []string{
					c.ClientName, c.Industry,
					strconv.FormatFloat(c.TotalRevenue, 'f', 2, 64),
					strconv.Itoa(c.TransactionCount), strconv.Itoa(c.DaysSinceLast),
					strconv.Itoa(c.RScore), strconv.Itoa(c.FScore), strconv.Itoa(c.MScore),
					strconv.Itoa(c.RFMTotal), c.RFMCode, c.Segment,
				})
			}
			segments := tabular.Sheet{Name: "Segments", Header: []string{"Segment", "Count", "Revenue", "Pct", "Pct Revenue"}}
			for _, name := range sortedKeys(res.SegmentDistribution) {
				s := res.SegmentDistribution[name]
				segments.Rows = append(segments.Rows, []string{
					name, strconv.Itoa(s.Count),
					strconv.FormatFloat(s.Revenue, 'f', 2, 64),
					strconv.FormatFloat(s.Pct, 'f', 1, 64),
					strconv.FormatFloat(s.PctRevenue, 'f', 1, 64),
				})
			}
			return []tabular.Sheet{clients, segments}
		},
	}
}

func formatRFM(out io.Writer, res rfm.Result) {
	if res.Error != "" {
		_, _ = fmt.Fprintln(out, res.Error)
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CLIENT\tSEGMENT\tCODE\tTOTAL\tREVENUE\tDAYS")
	_, _ = fmt.Fprintln(w, "------\t-------\t----\t-----\t-------\t----")
	for _, c := range res.Clients {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n",
			truncate(c.ClientName, 30), c.Segment, c.RFMCode, c.RFMTotal, money(c.TotalRevenue), c.DaysSinceLast)
	}
	_ = w.Flush()

	if res.Summary != nil {
		_, _ = fmt.Fprintf(out, "\n%d clients, %s total revenue, avg RFM %.1f, %d champions, %d at risk\n",
			res.TotalClients, money(res.Summary.TotalRevenue), res.Summary.AvgRFMScore,
			res.Summary.ChampionCount, res.Summary.AtRiskCount)
	}
}

// -- qualify --

func qualifyReport(q *icp.Qualification) report {
	return report{
		value: q,
		table: func(out io.Writer) { formatQualification(out, q) },
	}
}

func formatQualification(out io.Writer, q *icp.Qualification) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Company:\t%s\n", q.Company.Name)
	_, _ = fmt.Fprintf(w, "Industry:\t%s\n", q.Company.Industry)
	_, _ = fmt.Fprintf(w, "Score:\t%.1f / %.1f\n", q.TotalScore, icp.MaxScore)
	_, _ = fmt.Fprintf(w, "Tier:\t%d (%s)\n", q.Tier.Number, q.Tier.Label)
	_, _ = fmt.Fprintf(w, "  Firmographic:\t%.1f / %.1f\n", q.Breakdown.Firmographic.Score, q.Breakdown.Firmographic.Max)
	_, _ = fmt.Fprintf(w, "  Behavioral:\t%.1f / %.1f\n", q.Breakdown.Behavioral.Score, q.Breakdown.Behavioral.Max)
	_, _ = fmt.Fprintf(w, "  Strategic:\t%.1f / %.1f\n", q.Breakdown.Strategic.Score, q.Breakdown.Strategic.Max)
	if q.ExclusionCheck.Excluded && q.ExclusionCheck.Reason != nil {
		_, _ = fmt.Fprintf(w, "Excluded:\t%s\n", *q.ExclusionCheck.Reason)
	}
	_, _ = fmt.Fprintf(w, "Action:\t%s\n", q.RecommendedAction)
	_ = w.Flush()
	if q.IncompleteScore != nil {
		_, _ = fmt.Fprintf(out, "\n%s\n", q.IncompleteScore.Warning)
	}
}

// -- pipeline --

func pipelineReport(r pipeline.Report) report {
	return report{
		value: r,
		table: func(out io.Writer) { formatPipeline(out, r) },
		sheets: func() []tabular.Sheet {
			stages := tabular.Sheet{Name: "Stages", Header: []string{"Stage", "Deals", "Value", "Avg Days"}}
			avg := r.Velocity.AvgDaysPerStage
			for _, name := range sortedKeys(r.StageDistribution) {
				b := r.StageDistribution[name]
				stages.Rows = append(stages.Rows, []string{
					name, strconv.Itoa(b.Count),
					strconv.FormatFloat(b.Value, 'f', 2, 64),
					strconv.FormatFloat(avg[name], 'f', 1, 64),
				})
			}
			risk := tabular.Sheet{Name: "At Risk", Header: []string{"ID", "Deal", "Stage", "Amount", "Days", "Reasons"}}
			for _, d := range r.AtRiskDeals {
				risk.Rows = append(risk.Rows, []string{
					d.ID, d.Name, d.Stage,
					strconv.FormatFloat(d.Amount, 'f', 2, 64),
					strconv.Itoa(d.DaysInPipeline), strings.Join(d.RiskReasons, "; "),
				})
			}
			return []tabular.Sheet{stages, risk}
		},
	}
}

func formatPipeline(out io.Writer, r pipeline.Report) {
	_, _ = fmt.Fprintf(out, "Health: %d (%s)  Deals: %d  Value: %s  Cycle: %dd\n\n",
		r.HealthScore, r.HealthLabel, r.TotalDeals, money(r.TotalValue), r.Velocity.OverallCycleDays)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STAGE\tDEALS\tVALUE\tAVG_DAYS")
	_, _ = fmt.Fprintln(w, "-----\t-----\t-----\t--------")
	for _, s := range r.Detail.Stages {
		b := r.StageDistribution[s.Label]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%.1f\n", s.Label, b.Count, money(b.Value), s.AvgDays)
	}
	_ = w.Flush()

	if len(r.AtRiskDeals) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "\nAt risk:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, d := range r.AtRiskDeals {
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
			truncate(d.Name, 30), d.Stage, money(d.Amount), strings.Join(d.RiskReasons, "; "))
	}
	_ = w.Flush()
}

// -- signals --

func signalsReport(r signal.Report) report {
	return report{
		value: r,
		table: func(out io.Writer) { formatSignals(out, r) },
		sheets: func() []tabular.Sheet {
			s := tabular.Sheet{Name: "Signals", Header: []string{"Type", "Signal", "Strength", "Recommended Action"}}
			for _, sig := range r.Signals {
				s.Rows = append(s.Rows, []string{
					string(sig.Type), sig.Name,
					strconv.FormatFloat(sig.Strength, 'f', 2, 64), sig.RecommendedAction,
				})
			}
			return []tabular.Sheet{s}
		},
	}
}

func formatSignals(out io.Writer, r signal.Report) {
	if len(r.Signals) == 0 {
		_, _ = fmt.Fprintf(out, "No signals detected across %d deals.\n", r.DealsScanned)
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TYPE\tSIGNAL\tSTRENGTH")
	_, _ = fmt.Fprintln(w, "----\t------\t--------")
	for _, s := range r.Signals {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\n", s.Label, truncate(s.Name, 60), s.Strength)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\n%d signals across %d deals\n", r.Summary.TotalSignals, r.DealsScanned)
}

// -- constraints --

func constraintReport(r constraint.Report) report {
	return report{
		value: r,
		table: func(out io.Writer) { formatConstraints(out, r) },
	}
}

func formatConstraints(out io.Writer, r constraint.Report) {
	if r.DominantConstraint == nil {
		_, _ = fmt.Fprintln(out, r.Analysis)
		return
	}
	_, _ = fmt.Fprintf(out, "Dominant constraint: %s (severity %.2f)\n\n",
		r.DominantConstraint.Definition.Label, r.DominantConstraint.SeverityScore)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CONSTRAINT\tSEVERITY\tENGINE")
	_, _ = fmt.Fprintln(w, "----------\t--------\t------")
	for _, c := range r.ConstraintRanking {
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%s\n", c.Label, c.SeverityScore, c.EngineFocus)
	}
	_ = w.Flush()
	if r.RecommendedFocus != "" {
		_, _ = fmt.Fprintf(out, "\n%s\n", r.RecommendedFocus)
	}
}

// -- engine --

func engineReport(r engine.Report) report {
	return report{
		value: r,
		table: func(out io.Writer) { formatEngine(out, r) },
	}
}

func formatEngine(out io.Writer, r engine.Report) {
	_, _ = fmt.Fprintf(out, "%s: %d (%s), %d deals\n", r.Engine.Label, r.Analysis.HealthScore, r.Analysis.HealthLabel, r.DealsAnalyzed)
	for _, g := range r.Analysis.DataGaps {
		_, _ = fmt.Fprintf(out, "  gap: %s\n", g)
	}
	if r.Analysis.Recommendation != "" {
		_, _ = fmt.Fprintf(out, "\n%s\n", r.Analysis.Recommendation)
	}
}

// -- propose --

func proposalReport(p gtm.Proposal) report {
	return report{
		value: p,
		table: func(out io.Writer) { formatProposal(out, p) },
	}
}

func formatProposal(out io.Writer, p gtm.Proposal) {
	c := p.CommitProposal
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Commit:\t%s (%s)\n", c.ID, c.Status)
	_, _ = fmt.Fprintf(w, "Entity:\t%s\n", c.Intent.EntityLabel)
	_, _ = fmt.Fprintf(w, "Change:\t%s\n", c.Intent.Description)
	_, _ = fmt.Fprintf(w, "Risk:\t%s (%s)\n", c.Risk.Level, c.Risk.BlastRadius)
	_, _ = fmt.Fprintf(w, "Evidence:\t%s\n", c.Evidence.EvidenceQuality)
	_, _ = fmt.Fprintf(w, "Review date:\t%s\n", c.MeasurementPlan.ReviewDate)
	_ = w.Flush()
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	for i, s := range p.NextSteps {
		_, _ = fmt.Fprintf(out, "  %d. %s\n", i+1, s)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
