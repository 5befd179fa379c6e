// Package export posts report snapshots to an external sink.
package export

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/angelcm/marketing-intel/internal/metrics"
	"github.com/angelcm/marketing-intel/internal/models"
	"github.com/angelcm/marketing-intel/internal/pipeline"
)

var ErrSinkNotConfigured = errors.New("sink not configured")

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Signature"

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Exporter struct {
	c      Doer
	url    string
	secret string
	log    *slog.Logger
}

func NewExporter(c Doer, url, secret string, log *slog.Logger) *Exporter {
	return &Exporter{c: c, url: url, secret: secret, log: log}
}

type dailyRow struct {
	Date              string             `json:"date"`
	Spend             float64            `json:"spend"`
	Impressions       float64            `json:"impressions"`
	Clicks            float64            `json:"clicks"`
	AttributedRevenue float64            `json:"attributed_revenue"`
	Orders            float64            `json:"orders"`
	TotalRevenue      float64            `json:"total_revenue"`
	Ratios            map[string]float64 `json:"ratios"`
}

// Payload is the JSON body sent to the sink.
type Payload struct {
	DatasetID string                  `json:"dataset_id"`
	From      string                  `json:"from,omitempty"`
	To        string                  `json:"to,omitempty"`
	Summary   map[string]float64      `json:"summary"`
	Trends    map[string]models.Trend `json:"trends"`
	Grade     string                  `json:"performance_grade"`
	Daily     []dailyRow              `json:"daily"`
}

func rounded(r map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(r))
	for k, v := range r {
		out[k] = metrics.Round3(v)
	}
	return out
}

func day(d models.DailyRow) string { return d.Date.Format("2006-01-02") }

// BuildPayload flattens a report into the sink format. Money is rounded to
// cents and ratios to three places.
func BuildPayload(datasetID string, rep *pipeline.Report) Payload {
	s := rep.Summary
	p := Payload{
		DatasetID: datasetID,
		Summary:   rounded(s.Ratios),
		Trends:    s.Trends,
		Grade:     s.PerformanceGrade,
		Daily:     make([]dailyRow, 0, len(rep.Daily)),
	}
	p.Summary["spend"] = metrics.Round2(s.Spend)
	p.Summary["attributed_revenue"] = metrics.Round2(s.AttributedRevenue)
	p.Summary["total_revenue"] = metrics.Round2(s.TotalRevenue)
	p.Summary["orders"] = s.Orders
	p.Summary["efficiency_score"] = metrics.Round1(s.EfficiencyScore)
	if !s.From.IsZero() {
		p.From, p.To = s.From.Format("2006-01-02"), s.To.Format("2006-01-02")
	}
	for _, d := range rep.Daily {
		p.Daily = append(p.Daily, dailyRow{
			Date:              day(d),
			Spend:             metrics.Round2(d.Spend),
			Impressions:       d.Impressions,
			Clicks:            d.Clicks,
			AttributedRevenue: metrics.Round2(d.AttributedRevenue),
			Orders:            d.Orders,
			TotalRevenue:      metrics.Round2(d.TotalRevenue),
			Ratios:            rounded(d.Ratios),
		})
	}
	return p
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Export posts the report's summary and daily rows. It returns the number of
// daily rows sent; an empty report sends nothing.
func (e *Exporter) Export(ctx context.Context, datasetID string, rep *pipeline.Report) (int, error) {
	if e.url == "" || e.secret == "" {
		return 0, ErrSinkNotConfigured
	}
	if rep.Empty && len(rep.Daily) == 0 {
		return 0, nil
	}
	b, err := json.Marshal(BuildPayload(datasetID, rep))
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(e.secret, b))
	resp, err := e.c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("export sink non-2xx: %d", resp.StatusCode)
	}
	e.log.Info("report exported", slog.String("dataset_id", datasetID), slog.Int("daily_rows", len(rep.Daily)))
	return len(rep.Daily), nil
}
