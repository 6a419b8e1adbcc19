package model

// Company holds the attributes a prospect is qualified on. Firmographic
// fields come from a CRM lookup or caller input; behavioral and strategic
// fields are only ever supplied by the caller.
type Company struct {
	Name   string `json:"company_name,omitempty" yaml:"company_name"`
	CRMID  string `json:"crm_id,omitempty" yaml:"crm_id"`
	Domain string `json:"domain,omitempty" yaml:"domain"`

	// Firmographic
	Industry      string   `json:"industry" yaml:"industry"`
	AnnualRevenue *float64 `json:"annual_revenue" yaml:"annual_revenue"`
	EmployeeCount *int     `json:"employee_count" yaml:"employee_count"`
	Geography     string   `json:"geography" yaml:"geography"`

	// Behavioral
	TechStack         []string `json:"tech_stack" yaml:"tech_stack"`
	GrowthSignals     []string `json:"growth_signals" yaml:"growth_signals"`
	ContentEngagement string   `json:"content_engagement" yaml:"content_engagement"`
	PurchaseHistory   string   `json:"purchase_history" yaml:"purchase_history"`

	// Strategic
	DecisionMakerAccess string `json:"decision_maker_access" yaml:"decision_maker_access"`
	BudgetAuthority     string `json:"budget_authority" yaml:"budget_authority"`
	StrategicAlignment  string `json:"strategic_alignment" yaml:"strategic_alignment"`
}

// HasQualitativeInput reports whether any behavioral or strategic field was
// supplied. Purchase history is not counted.
func (c Company) HasQualitativeInput() bool {
	return len(c.TechStack) > 0 ||
		len(c.GrowthSignals) > 0 ||
		c.ContentEngagement != "" ||
		c.DecisionMakerAccess != "" ||
		c.BudgetAuthority != "" ||
		c.StrategicAlignment != ""
}

// WithQualitative returns a copy of c carrying the behavioral and strategic
// fields of overrides. Firmographic fields of c are kept.
func (c Company) WithQualitative(overrides Company) Company {
	out := c
	out.TechStack = overrides.TechStack
	out.GrowthSignals = overrides.GrowthSignals
	out.ContentEngagement = overrides.ContentEngagement
	out.PurchaseHistory = overrides.PurchaseHistory
	out.DecisionMakerAccess = overrides.DecisionMakerAccess
	out.BudgetAuthority = overrides.BudgetAuthority
	out.StrategicAlignment = overrides.StrategicAlignment
	return out
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
