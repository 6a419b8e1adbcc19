package rfm

import (
	"time"

	"github.com/sells-group/revenue-intel/internal/model"
)

type sampleClient struct {
	id, name     string
	revenue      float64
	transactions int
	daysAgo      int
	industry     string
	employees    string
	revenueBand  string
	region       string
}

var sampleClients = []sampleClient{
	{"S001", "Nextera Systems", 185000, 8, 25, "SaaS", "51-200", "$5M-$20M", "Ontario"},
	{"S002", "Precision Components Group", 340000, 12, 8, "Manufacturing", "201-500", "$20M-$70M", "Quebec"},
	{"S003", "Covalent Labs", 92000, 4, 80, "Technology", "11-50", "$1M-$5M", "BC"},
	{"S004", "Bridgeport Advisory", 67000, 3, 180, "Professional Services", "11-50", "$1M-$5M", "Nova Scotia"},
	{"S005", "Clearpath Distribution", 210000, 6, 12, "Logistics", "51-200", "$5M-$20M", "Alberta"},
	{"S006", "Spark & Co Creative", 28000, 1, 330, "Agency", "1-10", "<$1M", "Quebec"},
	{"S007", "MedBridge Health", 155000, 5, 70, "Healthcare", "51-200", "$5M-$20M", "Ontario"},
	{"S008", "Vaulted Financial Technologies", 420000, 15, 4, "FinTech", "51-200", "$20M-$70M", "BC"},
	{"S009", "Ironworks Building Corp", 45000, 2, 590, "Construction", "201-500", "$20M-$70M", "Alberta"},
	{"S010", "Learnwell Platform", 73000, 3, 115, "EdTech", "11-50", "$1M-$5M", "Quebec"},
	{"S011", "Signal Nine Media", 18000, 1, 750, "Media", "1-10", "<$1M", "Ontario"},
	{"S012", "Harborstone Consulting", 125000, 7, 150, "Professional Services", "11-50", "$1M-$5M", "Nova Scotia"},
}

// SampleClients returns twelve synthetic clients with purchase dates relative
// to now, truncated to the day.
func SampleClients(now time.Time) []model.Client {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]model.Client, len(sampleClients))
	for i, s := range sampleClients {
		last := today.AddDate(0, 0, -s.daysAgo)
		out[i] = model.Client{
			ClientID:         s.id,
			ClientName:       s.name,
			TotalRevenue:     s.revenue,
			TransactionCount: s.transactions,
			LastPurchaseDate: &last,
			Industry:         s.industry,
			EmployeeCount:    s.employees,
			CompanyRevenue:   s.revenueBand,
			StateRegion:      s.region,
		}
	}
	return out
}
