package pipeline

import (
	"time"

	"github.com/sells-group/revenue-intel/internal/model"
)

type sampleDeal struct {
	id, name        string
	amount          float64
	stage           string
	created, closes int
	lastModified    int
}

// Offsets in days from today; negative is past.
var sampleDeals = []sampleDeal{
	{"D001", "Acme Corp - CRO Platform", 45000, "qualifiedtobuy", -101, 33, -5},
	{"D002", "Northern Tech - Discovery", 28000, "appointmentscheduled", -31, 50, -2},
	{"D003", "Maple Mfg - Full Engagement", 92000, "presentationscheduled", -148, 18, -21},
	{"D004", "Atlantic Services - Audit", 15000, "decisionmakerboughtin", -71, 19, -9},
	{"D005", "Prairie Logistics - Pipeline", 38000, "qualifiedtobuy", -113, 48, -26},
	{"D006", "Halifax Consulting - Stalled", 22000, "appointmentscheduled", -224, -26, -113},
	{"D007", "Vancouver FinTech - Expansion", 65000, "contractsent", -179, 10, -3},
	{"D008", "Calgary Construction - Intro", 18000, "appointmentscheduled", -16, 80, -7},
}

// SampleDeals returns eight synthetic open deals in the default pipeline with
// dates relative to now, truncated to the day.
func SampleDeals(now time.Time) []model.Deal {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := func(offset int) *time.Time {
		t := today.AddDate(0, 0, offset)
		return &t
	}
	out := make([]model.Deal, len(sampleDeals))
	for i, s := range sampleDeals {
		out[i] = model.Deal{
			ID:           s.id,
			Name:         s.name,
			Amount:       s.amount,
			Stage:        s.stage,
			Pipeline:     "default",
			CreateDate:   day(s.created),
			CloseDate:    day(s.closes),
			LastModified: day(s.lastModified),
		}
	}
	return out
}
