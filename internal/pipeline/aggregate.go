package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/angelcm/marketing-intel/internal/metrics"
	"github.com/angelcm/marketing-intel/internal/models"
)

type Dimension string

const (
	DimDate     Dimension = "date"
	DimWeek     Dimension = "week"
	DimChannel  Dimension = "channel"
	DimCampaign Dimension = "campaign"
	DimTactic   Dimension = "tactic"
	DimState    Dimension = "state"
)

// GroupKey is an ordered list of dimensions; rows sharing every value form one group.
type GroupKey []Dimension

var (
	ByDate     = GroupKey{DimDate}
	ByWeek     = GroupKey{DimWeek}
	ByChannel  = GroupKey{DimChannel}
	ByState    = GroupKey{DimState}
	ByTactic   = GroupKey{DimTactic}
	ByCampaign = GroupKey{DimCampaign, DimChannel, DimTactic, DimState}
)

func (k GroupKey) temporal() bool {
	for _, d := range k {
		if d == DimDate || d == DimWeek {
			return true
		}
	}
	return false
}

// Fact is one input row to the aggregator.
type Fact struct {
	Date     time.Time
	Channel  string
	Campaign string
	Tactic   string
	State    string
	models.Measures
}

// WeekStart returns the Monday opening d's calendar week.
func WeekStart(d time.Time) time.Time {
	return d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
}

// WeekLabel renders a week as "start/end" with both days inclusive.
func WeekLabel(start time.Time) string {
	return start.Format("2006-01-02") + "/" + start.AddDate(0, 0, 6).Format("2006-01-02")
}

// keyOf projects f onto k; ok is false when any grouped value is missing.
func keyOf(f Fact, k GroupKey) (models.AggKey, bool) {
	var key models.AggKey
	for _, d := range k {
		switch d {
		case DimDate:
			if f.Date.IsZero() {
				return key, false
			}
			key.Date = f.Date
		case DimWeek:
			if f.Date.IsZero() {
				return key, false
			}
			key.WeekStart = WeekStart(f.Date)
			key.Week = WeekLabel(key.WeekStart)
		case DimChannel:
			if f.Channel == "" {
				return key, false
			}
			key.Channel = f.Channel
		case DimCampaign:
			if f.Campaign == "" {
				return key, false
			}
			key.Campaign = f.Campaign
		case DimTactic:
			if f.Tactic == "" {
				return key, false
			}
			key.Tactic = f.Tactic
		case DimState:
			if f.State == "" {
				return key, false
			}
			key.State = f.State
		}
	}
	return key, true
}

// Aggregate sums facts per group and derives every metric from the sums.
// Only observed key combinations appear. Time keys sort chronologically,
// other keys by spend descending.
func Aggregate(facts []Fact, k GroupKey) []models.AggRow {
	groups := map[models.AggKey]*models.AggRow{}
	for _, f := range facts {
		key, ok := keyOf(f, k)
		if !ok {
			continue
		}
		g, found := groups[key]
		if !found {
			g = &models.AggRow{Key: key}
			groups[key] = g
		}
		g.Rows++
		g.Measures.Add(f.Measures)
	}

	out := make([]models.AggRow, 0, len(groups))
	for _, g := range groups {
		g.Derived = metrics.Derive(g.Measures)
		out = append(out, *g)
	}
	if k.temporal() {
		sort.Slice(out, func(i, j int) bool {
			a, b := out[i].Key, out[j].Key
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			if !a.WeekStart.Equal(b.WeekStart) {
				return a.WeekStart.Before(b.WeekStart)
			}
			return keyString(a) < keyString(b)
		})
	} else {
		sort.Slice(out, func(i, j int) bool {
			if out[i].Spend != out[j].Spend {
				return out[i].Spend > out[j].Spend
			}
			return keyString(out[i].Key) < keyString(out[j].Key)
		})
	}
	return out
}

func keyString(k models.AggKey) string {
	return strings.Join([]string{k.Channel, k.Campaign, k.Tactic, k.State}, "\x00")
}

// DailyFacts feeds merged daily rows to time-based groupings.
func DailyFacts(daily []models.DailyRow) []Fact {
	out := make([]Fact, 0, len(daily))
	for _, d := range daily {
		out = append(out, Fact{Date: d.Date, Measures: d.Measures})
	}
	return out
}

// AttributedFacts turns marketing rows into facts that also carry business
// outcomes. Each date's business measures are split across that date's
// marketing rows by spend share, or evenly when the day's spend is zero.
// Business dates without marketing rows are not attributed.
func AttributedFacts(mkt []models.MarketingRecord, biz []models.BusinessRecord) []Fact {
	type day struct {
		spend float64
		rows  int
		biz   models.Measures
	}
	days := map[time.Time]*day{}
	for _, r := range mkt {
		if !r.HasDate() {
			continue
		}
		d, ok := days[r.Date]
		if !ok {
			d = &day{}
			days[r.Date] = d
		}
		d.spend += r.Spend
		d.rows++
	}
	for _, b := range biz {
		if d, ok := days[b.Date]; ok && b.HasDate() {
			d.biz.Add(b.Measures())
		}
	}

	out := make([]Fact, 0, len(mkt))
	for _, r := range mkt {
		f := Fact{
			Date:     r.Date,
			Channel:  r.Channel,
			Campaign: r.Campaign,
			Tactic:   r.Tactic,
			State:    r.State,
			Measures: r.Measures(),
		}
		if d, ok := days[r.Date]; ok && r.HasDate() {
			share := metrics.SafeDivide(r.Spend, d.spend)
			if d.spend == 0 {
				share = 1 / float64(d.rows)
			}
			f.Measures.Add(d.biz.Scaled(share))
		}
		out = append(out, f)
	}
	return out
}
