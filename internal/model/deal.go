package model

import (
	"strings"
	"time"
)

// Deal is an open pipeline deal as read from a CRM or the sample set.
type Deal struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Amount       float64    `json:"amount"`
	Stage        string     `json:"stage"`
	Pipeline     string     `json:"pipeline"`
	CreateDate   *time.Time `json:"create_date"`
	CloseDate    *time.Time `json:"close_date"`
	LastModified *time.Time `json:"last_modified"`

	// Properties carries extra CRM fields that exit criteria may test.
	Properties map[string]string `json:"properties,omitempty"`
}

// HasField reports whether the named field is set: non-null, non-empty and
// non-zero. Unknown names are looked up in Properties.
func (d Deal) HasField(field string) bool {
	switch strings.ToLower(field) {
	case "id":
		return d.ID != ""
	case "name", "dealname":
		return d.Name != ""
	case "amount":
		return d.Amount != 0
	case "stage", "dealstage":
		return d.Stage != ""
	case "pipeline":
		return d.Pipeline != ""
	case "create_date", "createdate":
		return d.CreateDate != nil
	case "close_date", "closedate":
		return d.CloseDate != nil
	case "last_modified", "hs_lastmodifieddate":
		return d.LastModified != nil
	}
	v, ok := d.Properties[field]
	if !ok {
		return false
	}
	v = strings.TrimSpace(v)
	return v != "" && v != "0"
}

// StageTopology is the ordered list of pipeline stage ids plus their display
// labels.
type StageTopology struct {
	Order  []string          `json:"order"`
	Labels map[string]string `json:"labels"`
}

// DefaultTopology returns the five-stage default sales pipeline.
func DefaultTopology() StageTopology {
	return StageTopology{
		Order: []string{
			"appointmentscheduled",
			"qualifiedtobuy",
			"presentationscheduled",
			"decisionmakerboughtin",
			"contractsent",
		},
		Labels: map[string]string{
			"appointmentscheduled":  "Appointment Scheduled",
			"qualifiedtobuy":        "Qualified to Buy",
			"presentationscheduled": "Presentation Scheduled",
			"decisionmakerboughtin": "Decision Maker Bought-In",
			"contractsent":          "Contract Sent",
		},
	}
}

// IsZero reports whether t carries no stages.
func (t StageTopology) IsZero() bool { return len(t.Order) == 0 }

// Label returns the display label for a stage id, or the id itself.
func (t StageTopology) Label(id string) string {
	if l, ok := t.Labels[id]; ok {
		return l
	}
	return id
}

// Index returns the position of id in the stage order, or -1.
func (t StageTopology) Index(id string) int {
	for i, s := range t.Order {
		if s == id {
			return i
		}
	}
	return -1
}

// OrderedLabels returns the labels in stage order.
func (t StageTopology) OrderedLabels() []string {
	out := make([]string, len(t.Order))
	for i, id := range t.Order {
		out[i] = t.Label(id)
	}
	return out
}

// EarlyStages returns the first two stage ids (or the only one).
func (t StageTopology) EarlyStages() []string {
	if len(t.Order) >= 2 {
		return t.Order[:2]
	}
	return t.Order
}

// LateStages returns every stage after the first two.
func (t StageTopology) LateStages() []string {
	if len(t.Order) > 2 {
		return t.Order[2:]
	}
	return nil
}

// ClosingStages returns the last two stages when the pipeline has more than
// two stages.
func (t StageTopology) ClosingStages() []string {
	if len(t.Order) > 2 {
		return t.Order[len(t.Order)-2:]
	}
	return nil
}

// Contains reports whether stage is one of ids.
func Contains(ids []string, stage string) bool {
	for _, id := range ids {
		if id == stage {
			return true
		}
	}
	return false
}

// TotalAmount sums deal amounts.
func TotalAmount(deals []Deal) float64 {
	var total float64
	for _, d := range deals {
		total += d.Amount
	}
	return total
}
