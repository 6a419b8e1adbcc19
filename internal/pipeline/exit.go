package pipeline

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/revenue-intel/internal/model"
)

// ExitCriterion is a field a deal must carry before it may leave a stage.
// Stage matches either the stage id or its label.
type ExitCriterion struct {
	Stage    string `yaml:"stage" json:"stage"`
	Name     string `yaml:"name" json:"name"`
	Field    string `yaml:"field" json:"field"`
	Blocking bool   `yaml:"blocking" json:"blocking"`
}

// CriterionCheck is the outcome of one criterion on one deal.
type CriterionCheck struct {
	Name     string `json:"name"`
	Field    string `json:"field"`
	Blocking bool   `json:"blocking"`
	Passed   bool   `json:"passed"`
}

// DealExitResult is the exit-criteria evaluation of one deal.
type DealExitResult struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Stage    string           `json:"stage"`
	Checks   []CriterionCheck `json:"checks"`
	PassRate float64          `json:"pass_rate"`
	Blocked  bool             `json:"blocked"`
}

// StageExitSummary aggregates evaluations per stage.
type StageExitSummary struct {
	Stage        string  `json:"stage"`
	DealsChecked int     `json:"deals_checked"`
	Checks       int     `json:"checks"`
	Passed       int     `json:"passed"`
	PassRate     float64 `json:"pass_rate"`
	BlockedDeals int     `json:"blocked_deals"`
}

// ExitEvaluation is the result of EvaluateExitCriteria. Stages follow the
// topology order.
type ExitEvaluation struct {
	Deals        []DealExitResult   `json:"deals"`
	Stages       []StageExitSummary `json:"stages"`
	BlockedDeals int                `json:"blocked_deals"`
}

// EvaluateExitCriteria checks every deal against the criteria scoped to its
// stage. A criterion passes when its field is set. A failed blocking
// criterion marks the deal blocked. Deals with no matching criteria are not
// reported.
func EvaluateExitCriteria(deals []model.Deal, criteria []ExitCriterion, top model.StageTopology) ExitEvaluation {
	eval := ExitEvaluation{Deals: []DealExitResult{}, Stages: []StageExitSummary{}}
	byStage := make(map[string]*StageExitSummary)
	var stageOrder []string

	for _, d := range deals {
		label := top.Label(d.Stage)
		var checks []CriterionCheck
		passed := 0
		blocked := false
		for _, c := range criteria {
			if c.Stage != d.Stage && c.Stage != label {
				continue
			}
			ok := d.HasField(c.Field)
			if ok {
				passed++
			} else if c.Blocking {
				blocked = true
			}
			checks = append(checks, CriterionCheck{Name: c.Name, Field: c.Field, Blocking: c.Blocking, Passed: ok})
		}
		if len(checks) == 0 {
			continue
		}

		eval.Deals = append(eval.Deals, DealExitResult{
			ID:       d.ID,
			Name:     d.Name,
			Stage:    label,
			Checks:   checks,
			PassRate: model.Round(float64(passed)/float64(len(checks))*100, 1),
			Blocked:  blocked,
		})

		s, ok := byStage[d.Stage]
		if !ok {
			s = &StageExitSummary{Stage: label}
			byStage[d.Stage] = s
			stageOrder = append(stageOrder, d.Stage)
		}
		s.DealsChecked++
		s.Checks += len(checks)
		s.Passed += passed
		if blocked {
			s.BlockedDeals++
			eval.BlockedDeals++
		}
	}

	// Topology stages first, then any others in order of appearance.
	seen := make(map[string]bool)
	emit := func(stage string) {
		s, ok := byStage[stage]
		if !ok || seen[stage] {
			return
		}
		seen[stage] = true
		s.PassRate = model.Round(float64(s.Passed)/float64(s.Checks)*100, 1)
		eval.Stages = append(eval.Stages, *s)
	}
	for _, stage := range top.Order {
		emit(stage)
	}
	for _, stage := range stageOrder {
		emit(stage)
	}
	return eval
}

type exitCriteriaFile struct {
	Criteria []ExitCriterion `yaml:"criteria"`
}

// LoadExitCriteria reads exit criteria from a YAML file with a top-level
// "criteria" list.
func LoadExitCriteria(path string) ([]ExitCriterion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read exit criteria %s", path)
	}
	var f exitCriteriaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse exit criteria %s", path)
	}
	for i, c := range f.Criteria {
		if c.Stage == "" || c.Field == "" {
			return nil, eris.Errorf("pipeline: exit criterion %d needs stage and field", i)
		}
		if c.Name == "" {
			f.Criteria[i].Name = c.Field
		}
	}
	return f.Criteria, nil
}
