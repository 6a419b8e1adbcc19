// Package methodology serves the static reference documents behind the
// scoring models as methodology:// resources.
package methodology

import (
	"embed"
	"strings"

	"github.com/rotisserie/eris"
)

// Scheme prefixes every resource URI.
const Scheme = "methodology://"

// MIMEType of every document.
const MIMEType = "text/markdown"

//go:embed docs/*.md
var docs embed.FS

// Resource describes one document.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mimeType"`
}

var catalog = []struct {
	slug, name, description string
}{
	{"scoring-model", "ICP Scoring Model", "14.5-point ICP scoring model reference"},
	{"tier-definitions", "Tier Definitions", "4-tier classification system"},
	{"rfm-segments", "RFM Segments", "11 RFM segment definitions"},
	{"spiced-framework", "SPICED Framework", "SPICED discovery extraction reference"},
	{"value-engines", "Value Engines", "3 Value Engines: Growth, Fulfillment, Innovation"},
	{"exit-criteria", "Exit Criteria", "Pipeline stage exit criteria framework"},
	{"constraints", "Scaling Constraints", "4 scaling constraints with diagnostic criteria"},
	{"signal-taxonomy", "Signal Taxonomy", "6 signal types for evidence-backed GTM intelligence"},
	{"revenue-formula", "Revenue Formula", "WbD multiplicative pipeline model + NRR compounding"},
	{"gtm-commit-anatomy", "GTM Commit Anatomy", "5-component structure for version-controlled GTM changes"},
}

// List returns every resource in catalog order.
func List() []Resource {
	out := make([]Resource, len(catalog))
	for i, c := range catalog {
		out[i] = Resource{URI: Scheme + c.slug, Name: c.name, Description: c.description, MIMEType: MIMEType}
	}
	return out
}

// Read returns the document for a resource URI or bare slug.
func Read(uri string) (string, error) {
	slug := strings.TrimPrefix(uri, Scheme)
	for _, c := range catalog {
		if c.slug != slug {
			continue
		}
		b, err := docs.ReadFile("docs/" + slug + ".md")
		if err != nil {
			return "", eris.Wrapf(err, "methodology: read %s", slug)
		}
		return string(b), nil
	}
	return "", eris.Errorf("methodology: unknown resource %s", uri)
}
