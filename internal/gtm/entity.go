// Package gtm drafts structured go-to-market change proposals. A proposal
// states intent, a before/after diff, the impact surface, a risk assessment,
// the triggering evidence and a measurement plan. Proposals are drafts for
// human review; nothing is applied.
package gtm

import (
	"strings"

	"github.com/sells-group/revenue-intel/internal/model"
)

// Risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

type entity struct {
	label          string
	impactSurfaces []string
	baseRisk       string
	blastRadius    string
	reviewer       string
	windowDays     int
	metrics        []string
}

// EntityTypes lists the changeable GTM entities.
var EntityTypes = []string{
	"icp", "persona", "positioning", "pipeline_stage",
	"exit_criteria", "gtm_motion", "scoring_model", "playbook",
}

var entities = map[string]entity{
	"icp": {
		label:          "ICP Definition",
		impactSurfaces: []string{"Qualification criteria", "Lead scoring", "Marketing targeting", "Sales playbooks"},
		baseRisk:       RiskMedium, blastRadius: RiskHigh,
		reviewer:   "Marketing Lead",
		windowDays: 90,
		metrics:    []string{"Win rate by ICP tier", "Pipeline quality score", "Qualified lead volume"},
	},
	"persona": {
		label:          "Buyer Persona",
		impactSurfaces: []string{"Messaging", "Content strategy", "Sales enablement", "Campaign targeting"},
		baseRisk:       RiskLow, blastRadius: RiskMedium,
		reviewer:   "Marketing Lead",
		windowDays: 60,
		metrics:    []string{"Content engagement by persona", "Meeting conversion rate", "Persona match accuracy"},
	},
	"positioning": {
		label:          "Positioning & Messaging",
		impactSurfaces: []string{"Website copy", "Sales decks", "Ad creative", "Email sequences"},
		baseRisk:       RiskMedium, blastRadius: RiskHigh,
		reviewer:   "Marketing Lead",
		windowDays: 60,
		metrics:    []string{"Website conversion rate", "Demo request volume", "Win rate vs. competitors"},
	},
	"pipeline_stage": {
		label:          "Pipeline Stage Configuration",
		impactSurfaces: []string{"CRM automation", "Reporting", "Forecasting", "Sales process"},
		baseRisk:       RiskHigh, blastRadius: RiskHigh,
		reviewer:   "RevOps Lead",
		windowDays: 30,
		metrics:    []string{"Stage conversion rates", "Pipeline velocity", "Forecast accuracy"},
	},
	"exit_criteria": {
		label:          "Stage Exit Criteria",
		impactSurfaces: []string{"Deal qualification", "Pipeline hygiene", "Forecast accuracy"},
		baseRisk:       RiskMedium, blastRadius: RiskMedium,
		reviewer:   "RevOps Lead",
		windowDays: 30,
		metrics:    []string{"Stage pass rate", "Deal progression speed", "False advancement rate"},
	},
	"gtm_motion": {
		label:          "GTM Motion",
		impactSurfaces: []string{"Channel strategy", "Budget allocation", "Team structure", "Campaign cadence"},
		baseRisk:       RiskHigh, blastRadius: RiskHigh,
		reviewer:   "RevOps Lead",
		windowDays: 90,
		metrics:    []string{"Pipeline generated by channel", "CAC by motion", "Lead velocity rate"},
	},
	"scoring_model": {
		label:          "Scoring Model",
		impactSurfaces: []string{"Lead qualification", "Deal prioritization", "Resource allocation"},
		baseRisk:       RiskMedium, blastRadius: RiskMedium,
		reviewer:   "Sales Lead",
		windowDays: 60,
		metrics:    []string{"Score-to-outcome correlation", "Tier distribution health", "Score calibration accuracy"},
	},
	"playbook": {
		label:          "Sales Playbook",
		impactSurfaces: []string{"Sales execution", "Onboarding", "Training materials"},
		baseRisk:       RiskLow, blastRadius: RiskLow,
		reviewer:   "Sales Lead",
		windowDays: 45,
		metrics:    []string{"Playbook adoption rate", "Rep performance variance", "Ramp time"},
	},
}

func lookupEntity(name string) (entity, error) {
	e, ok := entities[name]
	if !ok {
		return entity{}, model.InvalidArgument("Invalid entity_type: %s. Valid types: %s", name, strings.Join(EntityTypes, ", "))
	}
	return e, nil
}

var (
	highRiskKeywords   = []string{"remove", "delete", "replace", "restructure", "migrate", "overhaul"}
	mediumRiskKeywords = []string{"add", "modify", "update", "adjust", "refine"}
)

// Risk is the assessed risk of a proposal.
type Risk struct {
	Level                string   `json:"level"`
	BlastRadius          string   `json:"blast_radius"`
	RequiresApproval     bool     `json:"requires_approval"`
	RecommendedReviewers []string `json:"recommended_reviewers"`
}

// AssessRisk starts from the entity's base risk. Destructive wording in the
// description escalates to high; editing wording lifts low to medium.
func AssessRisk(entityType, description string) (Risk, error) {
	e, err := lookupEntity(entityType)
	if err != nil {
		return Risk{}, err
	}
	level := e.baseRisk
	desc := strings.ToLower(description)
	if containsAny(desc, highRiskKeywords) {
		level = RiskHigh
	} else if level == RiskLow && containsAny(desc, mediumRiskKeywords) {
		level = RiskMedium
	}

	reviewers := []string{e.reviewer}
	if level == RiskHigh {
		reviewers = append(reviewers, "CEO / CRO")
	}
	return Risk{
		Level:                level,
		BlastRadius:          e.blastRadius,
		RequiresApproval:     level == RiskMedium || level == RiskHigh,
		RecommendedReviewers: reviewers,
	}, nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
