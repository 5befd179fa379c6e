package pipeline

import (
	"errors"
	"strings"
	"time"

	"github.com/angelcm/marketing-intel/internal/models"
)

var ErrInvalidRange = errors.New("date range start is after end")

func validateFilter(f models.Filter) error {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return ErrInvalidRange
	}
	return nil
}

func inRange(d time.Time, f models.Filter) bool {
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	if d.IsZero() {
		return false
	}
	return !d.Before(f.From) && (f.To.IsZero() || !d.After(f.To))
}

func set(vals []string) map[string]struct{} {
	if len(vals) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out[v] = struct{}{}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func member(s map[string]struct{}, v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[strings.ToLower(v)]
	return ok
}

// Apply returns fresh copies of the tables restricted by f. Date bounds are
// inclusive; channel and state sets are case-insensitive inclusion filters.
// Business rows are only filtered by date.
func Apply(ds models.Dataset, f models.Filter) ([]models.MarketingTable, models.BusinessTable) {
	channels, states := set(f.Channels), set(f.States)
	mkt := make([]models.MarketingTable, 0, len(ds.Marketing))
	for _, t := range ds.Marketing {
		nt := models.MarketingTable{Source: t.Source, Channel: t.Channel}
		for _, r := range t.Records {
			if inRange(r.Date, f) && member(channels, r.Channel) && member(states, r.State) {
				nt.Records = append(nt.Records, r)
			}
		}
		mkt = append(mkt, nt)
	}
	biz := models.BusinessTable{Source: ds.Business.Source}
	for _, r := range ds.Business.Records {
		if inRange(r.Date, f) {
			biz.Records = append(biz.Records, r)
		}
	}
	return mkt, biz
}
