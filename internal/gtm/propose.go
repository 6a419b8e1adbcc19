package gtm

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/revenue-intel/internal/signal"
)

// MethodologyResource documents the proposal anatomy.
const MethodologyResource = "methodology://gtm-commit-anatomy"

// Request describes a proposed change.
type Request struct {
	EntityType        string         `json:"entity_type"`
	ChangeDescription string         `json:"change_description"`
	CurrentState      string         `json:"current_state,omitempty"`
	ProposedState     string         `json:"proposed_state,omitempty"`
	SignalType        string         `json:"signal_type,omitempty"`
	SignalData        map[string]any `json:"signal_data,omitempty"`
}

// Intent explains why the change is proposed.
type Intent struct {
	Description string `json:"description"`
	EntityType  string `json:"entity_type"`
	EntityLabel string `json:"entity_label"`
	Rationale   string `json:"rationale"`
}

// Diff is the before and after state.
type Diff struct {
	EntityType        string `json:"entity_type"`
	EntityLabel       string `json:"entity_label"`
	Before            string `json:"before"`
	After             string `json:"after"`
	HasStructuredDiff bool   `json:"has_structured_diff"`
}

// ImpactSurface lists what the change touches downstream.
type ImpactSurface struct {
	AffectedSystems   []string `json:"affected_systems"`
	DownstreamEffects string   `json:"downstream_effects"`
}

// Evidence links the proposal to the signal that triggered it.
type Evidence struct {
	SignalType      *string        `json:"signal_type"`
	SignalLabel     *string        `json:"signal_label"`
	SignalData      map[string]any `json:"signal_data"`
	EvidenceQuality string         `json:"evidence_quality"`
	EvidenceNote    string         `json:"evidence_note"`
}

// MeasurementPlan says which metrics should move and when to check.
type MeasurementPlan struct {
	MetricsToWatch        []string `json:"metrics_to_watch"`
	MeasurementWindowDays int      `json:"measurement_window_days"`
	ReviewDate            string   `json:"review_date"`
	SuccessCriteria       string   `json:"success_criteria"`
}

// Commit is a draft change proposal.
type Commit struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	CreatedAt       string          `json:"created_at"`
	Intent          Intent          `json:"intent"`
	Diff            Diff            `json:"diff"`
	ImpactSurface   ImpactSurface   `json:"impact_surface"`
	Risk            Risk            `json:"risk"`
	Evidence        Evidence        `json:"evidence"`
	MeasurementPlan MeasurementPlan `json:"measurement_plan"`
}

// Proposal wraps a commit with review steps.
type Proposal struct {
	CommitProposal      Commit   `json:"commit_proposal"`
	NextSteps           []string `json:"next_steps"`
	MethodologyResource string   `json:"methodology_resource"`
}

// Plan builds the measurement plan for an entity type.
func Plan(entityType string, now time.Time) (MeasurementPlan, error) {
	e, err := lookupEntity(entityType)
	if err != nil {
		return MeasurementPlan{}, err
	}
	review := now.AddDate(0, 0, e.windowDays).Format("2006-01-02")
	return MeasurementPlan{
		MetricsToWatch:        e.metrics,
		MeasurementWindowDays: e.windowDays,
		ReviewDate:            review,
		SuccessCriteria: fmt.Sprintf("Review impact on %s by %s. If metrics improve, commit to production. "+
			"If neutral or negative, revert and investigate.", strings.Join(e.metrics[:2], ", "), review),
	}, nil
}

// Propose drafts a commit proposal. The entity type must be known and a
// signal type, when given, must be in the signal taxonomy.
func Propose(req Request, now time.Time) (Proposal, error) {
	e, err := lookupEntity(req.EntityType)
	if err != nil {
		return Proposal{}, err
	}

	evidence := Evidence{
		SignalData:      req.SignalData,
		EvidenceQuality: "manual",
		EvidenceNote:    "No signal evidence attached — this is a manual proposal",
	}
	basis := "manual analysis"
	if req.SignalType != "" {
		st, err := signal.ParseType(req.SignalType)
		if err != nil {
			return Proposal{}, err
		}
		typ, label := string(st), st.Label()
		evidence.SignalType = &typ
		evidence.SignalLabel = &label
		evidence.EvidenceQuality = "signal-backed"
		evidence.EvidenceNote = fmt.Sprintf("Triggered by %s signal", label)
		basis = "signal evidence"
	}

	risk, err := AssessRisk(req.EntityType, req.ChangeDescription)
	if err != nil {
		return Proposal{}, err
	}
	plan, err := Plan(req.EntityType, now)
	if err != nil {
		return Proposal{}, err
	}

	before := req.CurrentState
	if before == "" {
		before = "(current state not provided — include for full diff)"
	}
	after := req.ProposedState
	if after == "" {
		after = "(proposed state not provided — include for full diff)"
	}
	lower := strings.ToLower(e.label)

	commit := Commit{
		ID:        fmt.Sprintf("draft-%s-%s", now.Format("20060102-150405"), req.EntityType),
		Status:    "draft",
		CreatedAt: now.Format("2006-01-02T15:04:05.999999"),
		Intent: Intent{
			Description: req.ChangeDescription,
			EntityType:  req.EntityType,
			EntityLabel: e.label,
			Rationale:   fmt.Sprintf("Proposed change to %s based on %s.", lower, basis),
		},
		Diff: Diff{
			EntityType:        req.EntityType,
			EntityLabel:       e.label,
			Before:            before,
			After:             after,
			HasStructuredDiff: req.CurrentState != "" && req.ProposedState != "",
		},
		ImpactSurface: ImpactSurface{
			AffectedSystems:   e.impactSurfaces,
			DownstreamEffects: fmt.Sprintf("Changes to %s may affect: %s.", lower, strings.Join(e.impactSurfaces, ", ")),
		},
		Risk:            risk,
		Evidence:        evidence,
		MeasurementPlan: plan,
	}

	return Proposal{
		CommitProposal: commit,
		NextSteps: []string{
			"Review the commit proposal with the recommended reviewers",
			"Reviewers: " + strings.Join(risk.RecommendedReviewers, ", "),
			"If approved, apply the change in the CRO app or HubSpot",
			fmt.Sprintf("Set a calendar reminder for %s to measure impact", plan.ReviewDate),
			"Watch metrics: " + strings.Join(plan.MetricsToWatch[:min(3, len(plan.MetricsToWatch))], ", "),
		},
		MethodologyResource: MethodologyResource,
	}, nil
}
