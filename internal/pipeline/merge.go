// Package pipeline turns loaded marketing and business tables into the
// merged daily table, per-dimension aggregates, the funnel and the summary.
package pipeline

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/angelcm/marketing-intel/internal/metrics"
	"github.com/angelcm/marketing-intel/internal/models"
)

var ErrNoSources = errors.New("no marketing sources")

// listSep joins the per-day channel/state/tactic sets.
const listSep = ", "

// Concat appends every table's records in source order.
func Concat(tables []models.MarketingTable) []models.MarketingRecord {
	n := 0
	for _, t := range tables {
		n += len(t.Records)
	}
	out := make([]models.MarketingRecord, 0, n)
	for _, t := range tables {
		out = append(out, t.Records...)
	}
	return out
}

// Merge concatenates the marketing tables and outer-joins them by date with
// the business table.
func Merge(tables []models.MarketingTable, biz models.BusinessTable) ([]models.MarketingRecord, []models.DailyRow, error) {
	if len(tables) == 0 {
		return nil, nil, ErrNoSources
	}
	mkt := Concat(tables)
	return mkt, MergeDaily(mkt, biz.Records), nil
}

type dayAcc struct {
	mkt       bool
	channels  map[string]struct{}
	states    map[string]struct{}
	tactics   map[string]struct{}
	campaigns map[string]struct{}
	m         models.Measures
}

func newDayAcc() *dayAcc {
	return &dayAcc{
		channels:  map[string]struct{}{},
		states:    map[string]struct{}{},
		tactics:   map[string]struct{}{},
		campaigns: map[string]struct{}{},
	}
}

// MergeDaily produces exactly one row per date present in either input.
// Rows without a date are left out. A date missing from one side has that
// side's measures at zero; business-only dates have nil descriptive lists.
func MergeDaily(mkt []models.MarketingRecord, biz []models.BusinessRecord) []models.DailyRow {
	days := map[time.Time]*dayAcc{}
	get := func(d time.Time) *dayAcc {
		a, ok := days[d]
		if !ok {
			a = newDayAcc()
			days[d] = a
		}
		return a
	}

	for _, r := range mkt {
		if !r.HasDate() {
			continue
		}
		a := get(r.Date)
		a.mkt = true
		a.m.Add(r.Measures())
		addNonEmpty(a.channels, r.Channel)
		addNonEmpty(a.states, r.State)
		addNonEmpty(a.tactics, r.Tactic)
		addNonEmpty(a.campaigns, r.Campaign)
	}
	for _, r := range biz {
		if !r.HasDate() {
			continue
		}
		get(r.Date).m.Add(r.Measures())
	}

	out := make([]models.DailyRow, 0, len(days))
	for d, a := range days {
		row := models.DailyRow{Date: d, Measures: a.m}
		if a.mkt {
			row.Channels = joined(a.channels)
			row.States = joined(a.states)
			row.Tactics = joined(a.tactics)
			row.Campaigns = len(a.campaigns)
		}
		row.Derived = metrics.Derive(row.Measures)
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func addNonEmpty(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func joined(set map[string]struct{}) *string {
	vals := make([]string, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	s := strings.Join(vals, listSep)
	return &s
}
