package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/angelcm/marketing-intel/internal/telemetry"
	"github.com/angelcm/marketing-intel/internal/utils"
)

// Policy decides what happens to implausible measures.
type Policy string

const (
	// PolicyClamp zero-clamps negatives and keeps clicks > impressions rows, logging both.
	PolicyClamp Policy = "clamp"
	// PolicyStrict rejects the source on the first implausible row.
	PolicyStrict Policy = "strict"
)

// Source names one extract. Location is a file path or an http(s) URL.
type Source struct {
	Name     string `yaml:"name"`
	Channel  string `yaml:"channel"`
	Location string `yaml:"location" validate:"required"`
}

func (s Source) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Location
}

type Loader struct {
	client HTTPClient
	log    *slog.Logger
	policy Policy
	dates  []DateStrategy
	retry  utils.Backoff
}

func NewLoader(c HTTPClient, log *slog.Logger, policy Policy) *Loader {
	if policy == "" {
		policy = PolicyClamp
	}
	return &Loader{client: c, log: log, policy: policy, dates: DefaultDateStrategies, retry: DefaultRetry}
}

// WithDateStrategies replaces the ordered date strategy list.
func (l *Loader) WithDateStrategies(s []DateStrategy) *Loader {
	l.dates = s
	return l
}

func (l *Loader) open(ctx context.Context, loc string) (io.Reader, error) {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		if l.client == nil {
			return nil, fmt.Errorf("no http client for %s", loc)
		}
		b, err := FetchWithRetry(ctx, l.client, loc, l.retry)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(b), nil
	}
	b, err := os.ReadFile(loc)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// Load reads and normalizes one source.
func (l *Loader) Load(ctx context.Context, src Source) (*Table, error) {
	r, err := l.open(ctx, src.Location)
	if err != nil {
		telemetry.RecordSourceLoad(false)
		return nil, &LoadError{Source: src.label(), Err: err}
	}
	return l.Read(src.label(), r, src.Channel)
}

// Read normalizes a delimited or xlsx stream. A non-empty channel is
// lower-cased and stamped on every row.
func (l *Loader) Read(name string, r io.Reader, channel string) (*Table, error) {
	header, rows, enc, err := readRecords(name, r)
	if err != nil {
		telemetry.RecordSourceLoad(false)
		return nil, &LoadError{Source: name, Err: err}
	}
	t := newTable(name, header, rows)
	t.Encoding = enc

	if t.Has(ColDate) {
		dates, strategy, err := parseDates(name, t.Column(ColDate), l.dates)
		if err != nil {
			telemetry.RecordSourceLoad(false)
			return nil, err
		}
		t.Dates, t.DateStrategy = dates, strategy
	}
	if ch := strings.ToLower(strings.TrimSpace(channel)); ch != "" {
		t.stamp(ColChannel, ch)
	}

	telemetry.RecordSourceLoad(true)
	l.log.Debug("source read",
		slog.String("source", name),
		slog.String("encoding", enc),
		slog.String("date_strategy", t.DateStrategy),
		slog.Int("rows", t.Len()),
		slog.Any("columns", t.Columns))
	return t, nil
}
