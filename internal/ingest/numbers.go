package ingest

import (
	"math"
	"strconv"
	"strings"
)

var currencyMarks = []string{"$", "€", "£", "¥", "USD", "EUR", "GBP"}

// parseNumber reads a numeric cell. Empty or unparsable cells report false
// and are zero-filled by the caller. Accepts currency marks, thousands
// separators, a trailing percent sign and (x) negatives.
func parseNumber(s string) (float64, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		v = strings.TrimSuffix(strings.TrimPrefix(v, "("), ")")
		neg = true
	}
	for _, c := range currencyMarks {
		v = strings.ReplaceAll(v, c, "")
	}
	v = strings.TrimSuffix(strings.TrimSpace(v), "%")
	v = strings.ReplaceAll(v, ",", "")
	v = strings.ReplaceAll(v, " ", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
