// Package report answers filtered report queries against the loaded dataset.
package report

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/angelcm/marketing-intel/internal/models"
	"github.com/angelcm/marketing-intel/internal/pipeline"
	"github.com/angelcm/marketing-intel/internal/store"
)

var (
	ErrBadQuery     = errors.New("bad query")
	ErrUnknownTable = errors.New("unknown table")
)

// Tables lists the names accepted by Table.
var Tables = []string{"daily", "weekly", "channels", "campaigns", "states", "tactics", "funnel", "summary"}

const (
	dateLayout   = "2006-01-02"
	defaultLimit = 100
	maxLimit     = 1000
)

type Service struct {
	st *store.MemoryStore
	v  *validator.Validate
}

func NewService(st *store.MemoryStore) *Service {
	return &Service{st: st, v: validator.New()}
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func csvList(s string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, p := range strings.Split(s, ",") {
		p = norm(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

type query struct {
	From   string `validate:"omitempty,datetime=2006-01-02"`
	To     string `validate:"omitempty,datetime=2006-01-02"`
	Limit  int    `validate:"gte=0"`
	Offset int    `validate:"gte=0"`
}

// Page is a limit/offset window over a table.
type Page struct {
	Limit  int
	Offset int
}

// ParseQuery reads from, to, channel, state, limit and offset.
func (s *Service) ParseQuery(v url.Values) (models.Filter, Page, error) {
	q := query{
		From:   strings.TrimSpace(v.Get("from")),
		To:     strings.TrimSpace(v.Get("to")),
		Limit:  atoiDef(v.Get("limit"), defaultLimit),
		Offset: atoiDef(v.Get("offset"), 0),
	}
	if err := s.v.Struct(q); err != nil {
		return models.Filter{}, Page{}, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	f := models.Filter{
		Channels: csvList(v.Get("channel")),
		States:   csvList(v.Get("state")),
	}
	if q.From != "" {
		f.From, _ = time.Parse(dateLayout, q.From)
	}
	if q.To != "" {
		f.To, _ = time.Parse(dateLayout, q.To)
	}
	return f, Page{Limit: q.Limit, Offset: q.Offset}, nil
}

// Result is a full report tagged with the dataset it was computed from.
type Result struct {
	DatasetID string `json:"dataset_id"`
	*pipeline.Report
}

// Run computes the full report for the filter in v.
func (s *Service) Run(v url.Values) (Result, error) {
	f, _, err := s.ParseQuery(v)
	if err != nil {
		return Result{}, err
	}
	return s.RunFilter(f)
}

func (s *Service) RunFilter(f models.Filter) (Result, error) {
	ds, err := s.st.Current()
	if err != nil {
		return Result{}, err
	}
	rep, err := pipeline.Run(ds, f)
	if err != nil {
		return Result{}, err
	}
	return Result{DatasetID: ds.ID, Report: rep}, nil
}

// Table computes the report and returns one named table, paginated when it
// is a row list.
func (s *Service) Table(name string, v url.Values) (any, error) {
	f, p, err := s.ParseQuery(v)
	if err != nil {
		return nil, err
	}
	if !known(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	res, err := s.RunFilter(f)
	if err != nil {
		return nil, err
	}
	return Select(res.Report, name, p)
}

func known(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}

// Select picks one table out of rep.
func Select(rep *pipeline.Report, name string, p Page) (any, error) {
	switch name {
	case "daily":
		return window(rep.Daily, p), nil
	case "weekly":
		return window(rep.Weekly, p), nil
	case "channels":
		return window(rep.Channels, p), nil
	case "campaigns":
		return window(rep.Campaigns, p), nil
	case "states":
		return window(rep.States, p), nil
	case "tactics":
		return window(rep.Tactics, p), nil
	case "funnel":
		return rep.Funnel, nil
	case "summary":
		return rep.Summary, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
}

func window[T any](rows []T, p Page) []T {
	limit, offset := clampLimitOffset(p.Limit, p.Offset, len(rows))
	return paginate(rows, limit, offset)
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return d
	}
	return v
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset > n {
		offset = n
	}
	return limit, offset
}
