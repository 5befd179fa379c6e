package ingest

import (
	"strings"
	"time"
)

// Table is a normalized source: canonical headers, trimmed cells and, when a
// date column exists, the parsed dates parallel to Rows.
type Table struct {
	Source       string
	Encoding     string
	DateStrategy string
	Columns      []string
	Rows         [][]string
	Dates        []time.Time
	index        map[string]int
}

func newTable(source string, header []string, rows [][]string) *Table {
	t := &Table{Source: source, index: map[string]int{}}
	// proj maps each kept column to its position in the raw header; the first
	// occurrence of a duplicated header wins.
	var proj []int
	for i, h := range header {
		col := NormalizeColumn(h)
		if _, dup := t.index[col]; dup || col == "" {
			continue
		}
		t.index[col] = len(t.Columns)
		t.Columns = append(t.Columns, col)
		proj = append(proj, i)
	}
	t.Rows = make([][]string, 0, len(rows))
	for _, r := range rows {
		if blank(r) {
			continue
		}
		out := make([]string, len(t.Columns))
		for j, src := range proj {
			if src < len(r) {
				out[j] = strings.TrimSpace(r[src])
			}
		}
		t.Rows = append(t.Rows, out)
	}
	return t
}

func blank(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Has reports whether the canonical column exists.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Value returns the trimmed cell, empty when the column is absent.
func (t *Table) Value(row int, col string) string {
	j, ok := t.index[col]
	if !ok {
		return ""
	}
	return t.Rows[row][j]
}

// Len is the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Column returns every value of col in row order.
func (t *Table) Column(col string) []string {
	out := make([]string, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Value(i, col)
	}
	return out
}

// stamp sets col to v on every row, adding the column if needed.
func (t *Table) stamp(col, v string) {
	j, ok := t.index[col]
	if !ok {
		j = len(t.Columns)
		t.index[col] = j
		t.Columns = append(t.Columns, col)
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], "")
		}
	}
	for i := range t.Rows {
		t.Rows[i][j] = v
	}
}
