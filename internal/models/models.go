package models

import "time"

// MarketingRecord is one channel/date/campaign row from an ads extract.
type MarketingRecord struct {
	Date              time.Time `json:"date"`
	Channel           string    `json:"channel"`
	Campaign          string    `json:"campaign"`
	Tactic            string    `json:"tactic,omitempty"`
	State             string    `json:"state,omitempty"`
	Spend             float64   `json:"spend"`
	Impressions       float64   `json:"impressions"`
	Clicks            float64   `json:"clicks"`
	AttributedRevenue float64   `json:"attributed_revenue"`
}

// HasDate reports whether the row can take part in time-based joins.
func (r MarketingRecord) HasDate() bool { return !r.Date.IsZero() }

type BusinessRecord struct {
	Date            time.Time `json:"date"`
	Orders          float64   `json:"orders"`
	NewOrders       float64   `json:"new_orders"`
	NewCustomers    float64   `json:"new_customers"`
	TotalRevenue    float64   `json:"total_revenue"`
	GrossProfit     float64   `json:"gross_profit"`
	CostOfGoodsSold float64   `json:"cost_of_goods_sold"`
}

func (r BusinessRecord) HasDate() bool { return !r.Date.IsZero() }

// Measures are the summable base measures shared by every aggregation level.
type Measures struct {
	Spend             float64 `json:"spend"`
	Impressions       float64 `json:"impressions"`
	Clicks            float64 `json:"clicks"`
	AttributedRevenue float64 `json:"attributed_revenue"`
	Orders            float64 `json:"orders"`
	NewOrders         float64 `json:"new_orders"`
	NewCustomers      float64 `json:"new_customers"`
	TotalRevenue      float64 `json:"total_revenue"`
	GrossProfit       float64 `json:"gross_profit"`
	CostOfGoodsSold   float64 `json:"cost_of_goods_sold"`
}

// Add accumulates o into m.
func (m *Measures) Add(o Measures) {
	m.Spend += o.Spend
	m.Impressions += o.Impressions
	m.Clicks += o.Clicks
	m.AttributedRevenue += o.AttributedRevenue
	m.Orders += o.Orders
	m.NewOrders += o.NewOrders
	m.NewCustomers += o.NewCustomers
	m.TotalRevenue += o.TotalRevenue
	m.GrossProfit += o.GrossProfit
	m.CostOfGoodsSold += o.CostOfGoodsSold
}

// Measures returns the marketing half of a row as Measures.
func (r MarketingRecord) Measures() Measures {
	return Measures{
		Spend:             r.Spend,
		Impressions:       r.Impressions,
		Clicks:            r.Clicks,
		AttributedRevenue: r.AttributedRevenue,
	}
}

func (r BusinessRecord) Measures() Measures {
	return Measures{
		Orders:          r.Orders,
		NewOrders:       r.NewOrders,
		NewCustomers:    r.NewCustomers,
		TotalRevenue:    r.TotalRevenue,
		GrossProfit:     r.GrossProfit,
		CostOfGoodsSold: r.CostOfGoodsSold,
	}
}

// Scaled returns m multiplied by share; used when apportioning business outcomes.
func (m Measures) Scaled(share float64) Measures {
	return Measures{
		Spend:             m.Spend * share,
		Impressions:       m.Impressions * share,
		Clicks:            m.Clicks * share,
		AttributedRevenue: m.AttributedRevenue * share,
		Orders:            m.Orders * share,
		NewOrders:         m.NewOrders * share,
		NewCustomers:      m.NewCustomers * share,
		TotalRevenue:      m.TotalRevenue * share,
		GrossProfit:       m.GrossProfit * share,
		CostOfGoodsSold:   m.CostOfGoodsSold * share,
	}
}

// Derived holds every ratio computed from one row's Measures.
type Derived struct {
	Ratios           map[string]float64 `json:"ratios"`
	EfficiencyScore  float64            `json:"efficiency_score"`
	PerformanceGrade string             `json:"performance_grade"`
}

// Metric returns a ratio by name, zero when absent.
func (d Derived) Metric(name string) float64 { return d.Ratios[name] }

// DailyRow is the outer join of marketing (grouped by date) and business on date.
type DailyRow struct {
	Date      time.Time `json:"date"`
	Channels  *string   `json:"channels"`
	States    *string   `json:"states"`
	Tactics   *string   `json:"tactics"`
	Campaigns int       `json:"campaigns"`
	Measures
	Derived
}

// AggKey identifies one group; unused dimensions stay empty.
type AggKey struct {
	Date      time.Time `json:"date,omitempty"`
	WeekStart time.Time `json:"week_start,omitempty"`
	Week      string    `json:"week,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	Campaign  string    `json:"campaign,omitempty"`
	Tactic    string    `json:"tactic,omitempty"`
	State     string    `json:"state,omitempty"`
}

type AggRow struct {
	Key  AggKey `json:"key"`
	Rows int    `json:"rows"`
	Measures
	Derived
}

type FunnelStage struct {
	Stage          string  `json:"stage"`
	Value          float64 `json:"value"`
	Pct            string  `json:"pct"`
	ConversionRate float64 `json:"conversion_rate"`
}

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Summary is the whole-period scalar view over the filtered dataset.
type Summary struct {
	From   time.Time        `json:"from"`
	To     time.Time        `json:"to"`
	Trends map[string]Trend `json:"trends"`
	Measures
	Derived
}

// Filter narrows the raw tables before aggregation. Zero dates are unbounded.
type Filter struct {
	From     time.Time
	To       time.Time
	Channels []string
	States   []string
}

// MarketingTable is one channel extract after normalization.
type MarketingTable struct {
	Source  string            `json:"source"`
	Channel string            `json:"channel"`
	Records []MarketingRecord `json:"records"`
}

type BusinessTable struct {
	Source  string           `json:"source"`
	Records []BusinessRecord `json:"records"`
}

// Dataset is the immutable set of raw tables loaded for one session.
type Dataset struct {
	ID        string           `json:"id"`
	LoadedAt  time.Time        `json:"loaded_at"`
	Marketing []MarketingTable `json:"marketing"`
	Business  BusinessTable    `json:"business"`
}

// Channels lists the distinct channels present, in load order.
func (d Dataset) Channels() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range d.Marketing {
		for _, r := range t.Records {
			if _, ok := seen[r.Channel]; ok {
				continue
			}
			seen[r.Channel] = struct{}{}
			out = append(out, r.Channel)
		}
	}
	return out
}
