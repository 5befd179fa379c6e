package ingest

import (
	"strings"
	"time"
)

// DateStrategy parses a single cell. Strategies are tried in order over the
// whole column; the first one that parses at least one value wins.
type DateStrategy struct {
	Name    string
	Layouts []string
}

func (s DateStrategy) parse(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range s.Layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return dayUTC(t), true
		}
	}
	return time.Time{}, false
}

// DefaultDateStrategies: generic layouts, then day-month-year, then year-month-day.
var DefaultDateStrategies = []DateStrategy{
	{Name: "generic", Layouts: []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"2006-1-2",
		"2006/01/02",
		"01/02/2006",
		"1/2/2006",
		"02-Jan-2006",
		"Jan 2, 2006",
		"2 January 2006",
		"20060102",
	}},
	{Name: "dd-mm-yyyy", Layouts: []string{"02-01-2006", "2-1-2006"}},
	{Name: "yyyy-mm-dd", Layouts: []string{"2006-01-02", "2006-1-2"}},
}

// parseDates applies strategies in order. Cells the winning strategy cannot
// parse are left as the zero time.
func parseDates(source string, values []string, strategies []DateStrategy) ([]time.Time, string, error) {
	tried := make([]string, 0, len(strategies))
	for _, s := range strategies {
		tried = append(tried, s.Name)
		out := make([]time.Time, len(values))
		ok := 0
		for i, v := range values {
			if t, parsed := s.parse(v); parsed {
				out[i] = t
				ok++
			}
		}
		if ok > 0 {
			return out, s.Name, nil
		}
	}
	return nil, "", &DateParseError{Source: source, Column: ColDate, Tried: tried}
}

func dayUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
