package rfm

import (
	"sort"
	"strconv"
	"time"

	"github.com/sells-group/revenue-intel/internal/model"
)

// NoPurchaseDays is the recency assigned to a client with no purchase date.
const NoPurchaseDays = 999

// ScoredClient is a client aggregate with its RFM scores and segment.
type ScoredClient struct {
	model.Client
	DaysSinceLast int    `json:"days_since_last"`
	RScore        int    `json:"r_score"`
	FScore        int    `json:"f_score"`
	MScore        int    `json:"m_score"`
	RFMTotal      int    `json:"rfm_total"`
	RFMCode       string `json:"rfm_code"`
	Segment       string `json:"segment"`
}

// ScoreClient scores a single client against the revenues of its peers.
func ScoreClient(c model.Client, s *Scorer, allRevenues []float64, now time.Time) ScoredClient {
	days := NoPurchaseDays
	if c.LastPurchaseDate != nil {
		days = model.DaysBetween(now, *c.LastPurchaseDate)
	}
	r := s.ScoreRecency(days)
	f := s.ScoreFrequency(c.TransactionCount)
	m := s.ScoreMonetary(c.TotalRevenue, allRevenues)
	return ScoredClient{
		Client:        c,
		DaysSinceLast: days,
		RScore:        r,
		FScore:        f,
		MScore:        m,
		RFMTotal:      r + f + m,
		RFMCode:       strconv.Itoa(r) + strconv.Itoa(f) + strconv.Itoa(m),
		Segment:       Classify(r, f, m),
	}
}

// SegmentShare is one segment's slice of the client base.
type SegmentShare struct {
	Count      int     `json:"count"`
	Revenue    float64 `json:"revenue"`
	Pct        float64 `json:"pct"`
	PctRevenue float64 `json:"pct_revenue"`
}

// TopPerformer is a condensed scored client for reports.
type TopPerformer struct {
	Name     string  `json:"name"`
	RFMTotal int     `json:"rfm_total"`
	RFMCode  string  `json:"rfm_code"`
	Segment  string  `json:"segment"`
	Revenue  float64 `json:"revenue"`
}

// Summary aggregates the analysis.
type Summary struct {
	TotalRevenue  float64 `json:"total_revenue"`
	AvgRFMScore   float64 `json:"avg_rfm_score"`
	ChampionCount int     `json:"champion_count"`
	AtRiskCount   int     `json:"at_risk_count"`
}

// Result is the output of a full RFM analysis. When there are no clients
// only Error, AnalysisDate and TotalClients are set.
type Result struct {
	Error               string                  `json:"error,omitempty"`
	AnalysisDate        string                  `json:"analysis_date"`
	TotalClients        int                     `json:"total_clients"`
	IndustryPreset      string                  `json:"industry_preset,omitempty"`
	TopPerformers       []TopPerformer          `json:"top_performers,omitempty"`
	SegmentDistribution map[string]SegmentShare `json:"segment_distribution,omitempty"`
	ICPPatterns         *Patterns               `json:"icp_patterns,omitempty"`
	TierRecommendations *TierRecommendations    `json:"tier_recommendations,omitempty"`
	Summary             *Summary                `json:"summary,omitempty"`

	// Clients holds every scored client, best first.
	Clients []ScoredClient `json:"-"`
}

// Options configures Analyze.
type Options struct {
	// Preset names an industry preset. Ignored when Thresholds is set.
	Preset     string
	Thresholds *Thresholds
	Now        time.Time
}

// topPerformerLimit caps the top performers listed in a Result.
const topPerformerLimit = 10

// Analyze scores and segments every client and extracts ICP patterns from
// the top performers.
func Analyze(clients []model.Client, opts Options) Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	preset := opts.Preset
	if preset == "" {
		preset = PresetDefault
	}
	res := Result{AnalysisDate: now.Format("2006-01-02")}
	if len(clients) == 0 {
		res.Error = "No client data found"
		return res
	}

	thresholds := PresetThresholds(preset)
	if opts.Thresholds != nil {
		thresholds = *opts.Thresholds
	}
	scorer := NewScorer(thresholds)

	revenues := make([]float64, len(clients))
	for i, c := range clients {
		revenues[i] = c.TotalRevenue
	}

	scored := make([]ScoredClient, len(clients))
	for i, c := range clients {
		scored[i] = ScoreClient(c, scorer, revenues, now)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].RFMTotal > scored[j].RFMTotal })

	var totalRevenue float64
	var totalRFM, champions, atRisk int
	dist := make(map[string]SegmentShare)
	for _, c := range scored {
		totalRevenue += c.TotalRevenue
		totalRFM += c.RFMTotal
		if c.Segment == Champions {
			champions++
		}
		if IsAtRisk(c.Segment) {
			atRisk++
		}
		share := dist[c.Segment]
		share.Count++
		share.Revenue += c.TotalRevenue
		dist[c.Segment] = share
	}
	for seg, share := range dist {
		share.Pct = model.Round(float64(share.Count)/float64(len(scored))*100, 1)
		if totalRevenue != 0 {
			share.PctRevenue = model.Round(share.Revenue/totalRevenue*100, 1)
		}
		dist[seg] = share
	}

	patterns := ExtractPatterns(FilterTopPerformers(scored, DefaultMinTotal), scored)
	tiers := GenerateTierRecommendations(patterns)

	limit := min(len(scored), topPerformerLimit)
	top := make([]TopPerformer, 0, limit)
	for _, c := range scored[:limit] {
		top = append(top, TopPerformer{
			Name:     c.ClientName,
			RFMTotal: c.RFMTotal,
			RFMCode:  c.RFMCode,
			Segment:  c.Segment,
			Revenue:  c.TotalRevenue,
		})
	}

	res.TotalClients = len(scored)
	res.IndustryPreset = preset
	res.TopPerformers = top
	res.SegmentDistribution = dist
	res.ICPPatterns = &patterns
	res.TierRecommendations = &tiers
	res.Summary = &Summary{
		TotalRevenue:  model.Round(totalRevenue, 2),
		AvgRFMScore:   model.Round(float64(totalRFM)/float64(len(scored)), 1),
		ChampionCount: champions,
		AtRiskCount:   atRisk,
	}
	res.Clients = scored
	return res
}
