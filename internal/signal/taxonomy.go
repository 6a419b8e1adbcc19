// Package signal scans a pipeline snapshot for heuristic findings. Every
// finding carries a strength in [0, 1], the evidence it was derived from and
// a recommended action.
package signal

import (
	"strings"

	"github.com/sells-group/revenue-intel/internal/model"
)

// Type identifies a signal family.
type Type string

// Signal families.
const (
	WinLossPattern    Type = "win_loss_pattern"
	ConversionDropOff Type = "conversion_drop_off"
	VelocityAnomaly   Type = "velocity_anomaly"
	SpicedFrequency   Type = "spiced_frequency"
	AttributionShift  Type = "attribution_shift"
	DataQuality       Type = "data_quality"
)

// TypeInfo describes a signal family and the changes it usually motivates.
type TypeInfo struct {
	Label              string   `json:"label"`
	Description        string   `json:"description"`
	RecommendedActions []string `json:"recommended_actions"`
}

// Types lists every signal family in taxonomy order.
var Types = []Type{
	WinLossPattern,
	ConversionDropOff,
	VelocityAnomaly,
	SpicedFrequency,
	AttributionShift,
	DataQuality,
}

var taxonomy = map[Type]TypeInfo{
	WinLossPattern: {
		Label:              "Win/Loss Pattern",
		Description:        "Shifts in win rates, loss reasons, or deal outcomes by segment/persona/channel",
		RecommendedActions: []string{"ICP refinement", "Persona update", "Qualification rule change"},
	},
	ConversionDropOff: {
		Label:              "Conversion Drop-Off",
		Description:        "Stage-to-stage conversion rates below benchmark or declining",
		RecommendedActions: []string{"Pipeline stage exit criteria update", "SLA adjustment", "Process investigation"},
	},
	VelocityAnomaly: {
		Label:              "Velocity Anomaly",
		Description:        "Time-in-stage significantly above or below benchmark",
		RecommendedActions: []string{"Stage SLA change", "Process bottleneck investigation", "Resource reallocation"},
	},
	SpicedFrequency: {
		Label:              "SPICED Frequency",
		Description:        "Recurring pain points, impacts, or critical events across deals",
		RecommendedActions: []string{"Messaging update", "Positioning refinement", "Content strategy adjustment"},
	},
	AttributionShift: {
		Label:              "Attribution Shift",
		Description:        "Channel performance changes or pipeline source trend shifts",
		RecommendedActions: []string{"Channel strategy change", "Campaign targeting update", "Budget reallocation"},
	},
	DataQuality: {
		Label:              "Data Quality",
		Description:        "Missing fields, incomplete records, data gaps in CRM",
		RecommendedActions: []string{"HubSpot field enforcement", "Data hygiene campaign", "CRM automation rules"},
	},
}

// Info returns the taxonomy entry for t.
func Info(t Type) (TypeInfo, bool) {
	info, ok := taxonomy[t]
	return info, ok
}

// Label returns the display label for t, or t itself when unknown.
func (t Type) Label() string {
	if info, ok := taxonomy[t]; ok {
		return info.Label
	}
	return string(t)
}

// Taxonomy returns the full signal taxonomy keyed by type.
func Taxonomy() map[Type]TypeInfo {
	out := make(map[Type]TypeInfo, len(taxonomy))
	for k, v := range taxonomy {
		out[k] = v
	}
	return out
}

// ParseType validates a signal type name.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := taxonomy[t]; ok {
		return t, nil
	}
	names := make([]string, len(Types))
	for i, t := range Types {
		names[i] = string(t)
	}
	return "", model.InvalidArgument("Invalid signal_type: %s. Valid types: %s", s, strings.Join(names, ", "))
}
