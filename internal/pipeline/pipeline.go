package pipeline

import (
	"sort"
	"time"

	"github.com/angelcm/marketing-intel/internal/metrics"
	"github.com/angelcm/marketing-intel/internal/models"
	"github.com/angelcm/marketing-intel/internal/telemetry"
)

// TopCampaignsLimit bounds Report.TopCampaigns.
const TopCampaignsLimit = 10

// Report is every table produced by one pass over a filtered dataset.
type Report struct {
	Empty        bool                     `json:"empty"`
	Filter       models.Filter            `json:"-"`
	Marketing    []models.MarketingRecord `json:"-"`
	Daily        []models.DailyRow        `json:"daily"`
	Weekly       []models.AggRow          `json:"weekly"`
	Channels     []models.AggRow          `json:"channels"`
	Campaigns    []models.AggRow          `json:"campaigns"`
	States       []models.AggRow          `json:"states"`
	Tactics      []models.AggRow          `json:"tactics"`
	Funnel       []models.FunnelStage     `json:"funnel"`
	Summary      models.Summary           `json:"summary"`
	TopCampaigns []models.AggRow          `json:"top_campaigns"`
	BestChannel  *models.AggRow           `json:"best_channel"`
}

// Run filters ds and recomputes every table from scratch. A filter that
// leaves no marketing rows yields a valid report with Empty set.
func Run(ds models.Dataset, f models.Filter) (rep *Report, err error) {
	start := time.Now()
	defer func() {
		telemetry.ObservePipeline(time.Since(start), rep != nil && rep.Empty, err)
	}()

	if err = validateFilter(f); err != nil {
		return nil, err
	}
	mktTables, biz := Apply(ds, f)
	mkt, daily, err := Merge(mktTables, biz)
	if err != nil {
		return nil, err
	}

	attributed := AttributedFacts(mkt, biz.Records)
	timeFacts := DailyFacts(daily)
	rep = &Report{
		Empty:     len(mkt) == 0,
		Filter:    f,
		Marketing: mkt,
		Daily:     daily,
		Weekly:    Aggregate(timeFacts, ByWeek),
		Channels:  Aggregate(attributed, ByChannel),
		Campaigns: Aggregate(attributed, ByCampaign),
		States:    Aggregate(attributed, ByState),
		Tactics:   Aggregate(attributed, ByTactic),
	}
	rep.Summary = Summarize(mkt, biz.Records, daily)
	rep.Funnel = BuildFunnel(rep.Summary.Measures)
	rep.TopCampaigns = topByROAS(rep.Campaigns, TopCampaignsLimit)
	if best := topByROAS(rep.Channels, 1); len(best) == 1 {
		rep.BestChannel = &best[0]
	}
	return rep, nil
}

// Summarize totals the filtered records once and derives the whole-period
// ratios, plus trend directions over the daily series.
func Summarize(mkt []models.MarketingRecord, biz []models.BusinessRecord, daily []models.DailyRow) models.Summary {
	var s models.Summary
	for _, r := range mkt {
		s.Measures.Add(r.Measures())
	}
	for _, r := range biz {
		s.Measures.Add(r.Measures())
	}
	s.Derived = metrics.Derive(s.Measures)
	if len(daily) > 0 {
		s.From, s.To = daily[0].Date, daily[len(daily)-1].Date
	}

	series := map[string][]float64{}
	for _, d := range daily {
		series["spend"] = append(series["spend"], d.Spend)
		series["attributed_revenue"] = append(series["attributed_revenue"], d.AttributedRevenue)
		series["orders"] = append(series["orders"], d.Orders)
		series[metrics.NameROAS] = append(series[metrics.NameROAS], d.Metric(metrics.NameROAS))
	}
	s.Trends = map[string]models.Trend{}
	for _, name := range []string{"spend", "attributed_revenue", "orders", metrics.NameROAS} {
		s.Trends[name] = metrics.TrendDirection(series[name])
	}
	return s
}

// topByROAS returns up to n rows with the highest ROAS, ties by spend.
func topByROAS(rows []models.AggRow, n int) []models.AggRow {
	out := append([]models.AggRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Metric(metrics.NameROAS), out[j].Metric(metrics.NameROAS)
		if ri != rj {
			return ri > rj
		}
		return out[i].Spend > out[j].Spend
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
