package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/angelcm/marketing-intel/internal/models"
	"github.com/angelcm/marketing-intel/internal/telemetry"
)

type rowCheck struct {
	l        *Loader
	t        *Table
	clamped  int
	undated  int
	overflow int
}

// signed columns may legitimately go negative and bypass the policy.
var signed = map[string]bool{ColGrossProfit: true}

// measure parses col on row i, zero-filling blanks and applying the policy to negatives.
func (c *rowCheck) measure(i int, col string) (float64, error) {
	v, _ := parseNumber(c.t.Value(i, col))
	if v >= 0 || signed[col] {
		return v, nil
	}
	if c.l.policy == PolicyStrict {
		return 0, &ValidationError{Source: c.t.Source, Row: i + 1, Column: col, Reason: "negative value"}
	}
	c.clamped++
	return 0, nil
}

func (c *rowCheck) date(i int) time.Time {
	var d time.Time
	if c.t.Dates != nil {
		d = c.t.Dates[i]
	}
	if d.IsZero() {
		c.undated++
	}
	return d
}

func (c *rowCheck) report(kind string) {
	telemetry.RecordRows(kind, c.t.Len())
	telemetry.RecordAdjusted("negative_clamped", c.clamped)
	telemetry.RecordAdjusted("undated", c.undated)
	telemetry.RecordAdjusted("clicks_over_impressions", c.overflow)
	if c.clamped > 0 || c.undated > 0 || c.overflow > 0 {
		c.l.log.Warn("source adjusted",
			slog.String("source", c.t.Source),
			slog.Int("negative_clamped", c.clamped),
			slog.Int("undated_rows", c.undated),
			slog.Int("clicks_over_impressions", c.overflow))
	}
}

// Marketing converts a normalized table into marketing records. Rows whose
// date failed to parse are kept with a zero Date.
func (l *Loader) Marketing(t *Table) (models.MarketingTable, error) {
	out := models.MarketingTable{Source: t.Source}
	if !t.Has(ColDate) {
		return out, &LoadError{Source: t.Source, Err: ErrMissingDate}
	}
	c := &rowCheck{l: l, t: t}
	out.Records = make([]models.MarketingRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := models.MarketingRecord{Date: c.date(i)}
		r.Channel = t.Value(i, ColChannel)
		r.Campaign = t.Value(i, ColCampaign)
		r.Tactic = t.Value(i, ColTactic)
		r.State = t.Value(i, ColState)
		var err error
		if r.Spend, err = c.measure(i, ColSpend); err != nil {
			return out, err
		}
		if r.Impressions, err = c.measure(i, ColImpressions); err != nil {
			return out, err
		}
		if r.Clicks, err = c.measure(i, ColClicks); err != nil {
			return out, err
		}
		if r.AttributedRevenue, err = c.measure(i, ColAttributedRevenue); err != nil {
			return out, err
		}
		if r.Clicks > r.Impressions {
			if l.policy == PolicyStrict {
				return out, &ValidationError{Source: t.Source, Row: i + 1, Column: ColClicks, Reason: "clicks exceed impressions"}
			}
			c.overflow++
		}
		if out.Channel == "" {
			out.Channel = r.Channel
		}
		out.Records = append(out.Records, r)
	}
	c.report("marketing")
	return out, nil
}

// Business converts a normalized table into business records.
func (l *Loader) Business(t *Table) (models.BusinessTable, error) {
	out := models.BusinessTable{Source: t.Source}
	if !t.Has(ColDate) {
		return out, &LoadError{Source: t.Source, Err: ErrMissingDate}
	}
	c := &rowCheck{l: l, t: t}
	out.Records = make([]models.BusinessRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := models.BusinessRecord{Date: c.date(i)}
		fields := []struct {
			col string
			dst *float64
		}{
			{ColOrders, &r.Orders},
			{ColNewOrders, &r.NewOrders},
			{ColNewCustomers, &r.NewCustomers},
			{ColTotalRevenue, &r.TotalRevenue},
			{ColGrossProfit, &r.GrossProfit},
			{ColCOGS, &r.CostOfGoodsSold},
		}
		for _, f := range fields {
			v, err := c.measure(i, f.col)
			if err != nil {
				return out, err
			}
			*f.dst = v
		}
		out.Records = append(out.Records, r)
	}
	c.report("business")
	return out, nil
}

// LoadMarketing loads src and converts it to marketing records.
func (l *Loader) LoadMarketing(ctx context.Context, src Source) (models.MarketingTable, error) {
	t, err := l.Load(ctx, src)
	if err != nil {
		return models.MarketingTable{}, err
	}
	return l.Marketing(t)
}

func (l *Loader) LoadBusiness(ctx context.Context, src Source) (models.BusinessTable, error) {
	t, err := l.Load(ctx, src)
	if err != nil {
		return models.BusinessTable{}, err
	}
	return l.Business(t)
}
