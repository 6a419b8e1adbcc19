package icp

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config overrides the default scoring lists and ranges. A nil field keeps
// the default; an empty non-nil list replaces it with nothing.
type Config struct {
	PrimaryIndustries    []string  `yaml:"primary_industries" json:"primary_industries,omitempty"`
	AdjacentIndustries   []string  `yaml:"adjacent_industries" json:"adjacent_industries,omitempty"`
	TangentialIndustries []string  `yaml:"tangential_industries" json:"tangential_industries,omitempty"`
	ExcludedIndustries   []string  `yaml:"excluded_industries" json:"excluded_industries,omitempty"`
	RevenueRange         []float64 `yaml:"revenue_range" json:"revenue_range,omitempty"`
	EmployeeRange        []int     `yaml:"employee_range" json:"employee_range,omitempty"`
	PrimaryGeography     []string  `yaml:"primary_geography" json:"primary_geography,omitempty"`
	SecondaryGeography   []string  `yaml:"secondary_geography" json:"secondary_geography,omitempty"`
}

// IsZero reports whether no override is set.
func (c Config) IsZero() bool {
	return c.PrimaryIndustries == nil && c.AdjacentIndustries == nil &&
		c.TangentialIndustries == nil && c.ExcludedIndustries == nil &&
		c.RevenueRange == nil && c.EmployeeRange == nil &&
		c.PrimaryGeography == nil && c.SecondaryGeography == nil
}

// Validate checks the shape of the range overrides.
func (c Config) Validate() error {
	if c.RevenueRange != nil && len(c.RevenueRange) != 2 {
		return eris.Errorf("icp: revenue_range needs [min, max], got %d values", len(c.RevenueRange))
	}
	if c.EmployeeRange != nil && len(c.EmployeeRange) != 2 {
		return eris.Errorf("icp: employee_range needs [min, max], got %d values", len(c.EmployeeRange))
	}
	return nil
}

// LoadConfig reads scoring overrides from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "icp: read config %s", path)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, eris.Wrapf(err, "icp: parse config %s", path)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Default lists, lower case.
var (
	DefaultPrimaryIndustries = []string{
		"technology", "saas", "software", "b2b technology",
		"manufacturing", "industrial",
		"professional services",
	}
	DefaultAdjacentIndustries = []string{
		"healthcare", "health tech", "fintech", "financial services",
		"construction", "engineering", "logistics", "distribution",
		"education", "edtech",
	}
	DefaultTangentialIndustries = []string{
		"real estate", "media", "telecommunications", "energy",
		"agriculture", "food", "hospitality",
	}
	DefaultExcludedIndustries = []string{
		"agencies", "agency", "consulting", "consulting firm",
		"b2c", "retail", "non-profit", "nonprofit",
		"staffing", "events", "events services",
		"vc", "pe", "venture capital", "private equity",
	}
	DefaultPrimaryGeography = []string{
		"quebec", "ontario", "bc", "british columbia", "alberta",
		"nova scotia", "canada", "montreal", "toronto", "vancouver",
	}
	DefaultSecondaryGeography = []string{
		"us", "usa", "united states", "new york", "boston", "california",
	}
)

func orDefault(v, def []string) []string {
	if v == nil {
		return def
	}
	return v
}
