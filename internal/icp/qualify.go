package icp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revenue-intel/internal/model"
)

// CompanyFetcher looks up a company's firmographics in a CRM.
type CompanyFetcher interface {
	FetchCompany(ctx context.Context, id string) (*model.Company, error)
}

// QualifyRequest identifies the prospect to qualify. At least one of
// CompanyID or Company must be set. With a CompanyID, Company only supplies
// behavioral and strategic overrides.
type QualifyRequest struct {
	CompanyID string
	Company   *model.Company
	Config    *Config
}

// QualifiedCompany identifies the scored prospect.
type QualifiedCompany struct {
	Name     string `json:"name"`
	CRMID    string `json:"crm_id,omitempty"`
	Industry string `json:"industry"`
}

// IncompleteScore warns that behavioral and strategic fields were missing.
type IncompleteScore struct {
	Warning       string   `json:"warning"`
	MissingFields []string `json:"missing_fields"`
	HowToFix      string   `json:"how_to_fix"`
}

// ConstraintFit relates a prospect to one scaling constraint.
type ConstraintFit struct {
	Constraint string `json:"constraint"`
	Relevance  string `json:"relevance"`
	Reason     string `json:"reason"`
}

// ConstraintContext says which scaling constraints pursuing the prospect
// would address.
type ConstraintContext struct {
	ProspectConstraintFit []ConstraintFit `json:"prospect_constraint_fit"`
	Recommendation        string          `json:"recommendation"`
}

// Qualification is the full qualify output.
type Qualification struct {
	Company QualifiedCompany `json:"company"`
	Result
	IncompleteScore   *IncompleteScore  `json:"_incomplete_score,omitempty"`
	ScoringNote       string            `json:"_scoring_note,omitempty"`
	ConstraintContext ConstraintContext `json:"constraint_context"`
}

var missingQualitative = []string{
	"tech_stack", "growth_signals", "content_engagement",
	"decision_maker_access", "budget_authority", "strategic_alignment",
}

// Qualify scores a prospect. When CompanyID is set, firmographics come from
// crm and qualitative fields from req.Company.
func Qualify(ctx context.Context, req QualifyRequest, crm CompanyFetcher) (*Qualification, error) {
	if req.CompanyID == "" && req.Company == nil {
		return nil, model.InvalidArgument("Either company_id or company_data must be provided.")
	}

	var cfg Config
	if req.Config != nil {
		cfg = *req.Config
		if err := cfg.Validate(); err != nil {
			return nil, model.InvalidArgument("%s", err.Error())
		}
	}

	company := model.Company{}
	if req.Company != nil {
		company = *req.Company
	}
	firmographicOnly := false
	if req.CompanyID != "" {
		if crm == nil {
			return nil, model.CollaboratorRequired(
				"CRM client required when using company_id. Set HUBSPOT_API_KEY environment variable.")
		}
		fetched, err := crm.FetchCompany(ctx, req.CompanyID)
		if err != nil {
			return nil, eris.Wrapf(err, "icp: fetch company %s", req.CompanyID)
		}
		merged := fetched.WithQualitative(company)
		if merged.Name == "" {
			merged.Name = "Unknown"
		}
		merged.CRMID = req.CompanyID
		firmographicOnly = !company.HasQualitativeInput()
		company = merged
	}

	res := NewScorer(cfg).ScoreCompany(company)

	name := company.Name
	if name == "" {
		name = "Unknown"
	}
	out := &Qualification{
		Company:           QualifiedCompany{Name: name, CRMID: company.CRMID, Industry: company.Industry},
		Result:            res,
		ConstraintContext: constraintContext(company, res.TotalScore, res.Tier.Number),
	}
	if firmographicOnly {
		out.IncompleteScore = &IncompleteScore{
			Warning: "Score is based on firmographic data only (max ~5/14.5). " +
				"Behavioral Fit and Strategic Fit scored 0 because the CRM doesn't " +
				"store these fields natively.",
			MissingFields: missingQualitative,
			HowToFix: "Re-run with company_data containing the missing fields alongside company_id. " +
				`Example: qualify(company_id='123', company_data='{"tech_stack": ["HubSpot"], ` +
				`"decision_maker_access": "c_suite", "budget_authority": "dedicated", ` +
				`"strategic_alignment": "strong"}')`,
		}
	}
	if cfg.IsZero() {
		out.ScoringNote = "Scored using the default B2B model. " +
			"Pass scoring_config to customize industries, revenue range, " +
			"geography, and exclusions for your business."
	}
	return out, nil
}

func constraintContext(c model.Company, total float64, tier int) ConstraintContext {
	var fit []ConstraintFit
	score := strconv.FormatFloat(total, 'f', 1, 64)

	if tier <= 2 {
		fit = append(fit, ConstraintFit{
			Constraint: "conversion",
			Relevance:  "high",
			Reason: fmt.Sprintf("Tier %d prospect (%s/14.5) — "+
				"high-fit prospects convert at 2-3x the rate of low-fit. "+
				"Pursuing this prospect directly improves win rate.", tier, score),
		})
	}

	if c.AnnualRevenue != nil {
		switch rev := *c.AnnualRevenue; {
		case rev > 10_000_000:
			fit = append(fit, ConstraintFit{
				Constraint: "profitability",
				Relevance:  "high",
				Reason: "Annual revenue " + model.Money(rev) + " — larger companies typically " +
					"support higher ACVs, improving unit economics.",
			})
		case rev > 5_000_000:
			fit = append(fit, ConstraintFit{
				Constraint: "profitability",
				Relevance:  "medium",
				Reason: "Annual revenue " + model.Money(rev) + " — mid-market company " +
					"with solid ACV potential.",
			})
		}
	}

	if c.StrategicAlignment == "strong" {
		fit = append(fit, ConstraintFit{
			Constraint: "delivery",
			Relevance:  "medium",
			Reason: "Strong strategic alignment — aligned clients are easier to deliver for " +
				"(faster onboarding, less scope creep, higher NRR).",
		})
	}

	if len(fit) == 0 {
		fit = append(fit, ConstraintFit{
			Constraint: "lead_generation",
			Relevance:  "low",
			Reason: fmt.Sprintf("Tier %d prospect — pursuing low-fit prospects "+
				"doesn't address conversion or profitability constraints. "+
				"Focus resources on higher-tier leads.", tier),
		})
	}

	rec := fmt.Sprintf("This Tier %d prospect ", tier)
	if tier <= 2 {
		rec += "directly addresses conversion constraints — pursue with priority."
	} else {
		rec += "may not address your dominant constraint. " +
			"Consider opportunity cost vs. higher-tier prospects."
	}
	return ConstraintContext{ProspectConstraintFit: fit, Recommendation: rec}
}
