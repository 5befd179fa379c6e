package ingest

import "strings"

// Canonical column names.
const (
	ColDate              = "date"
	ColChannel           = "channel"
	ColCampaign          = "campaign"
	ColTactic            = "tactic"
	ColState             = "state"
	ColSpend             = "spend"
	ColImpressions       = "impressions"
	ColClicks            = "clicks"
	ColAttributedRevenue = "attributed_revenue"
	ColOrders            = "orders"
	ColNewOrders         = "new_orders"
	ColNewCustomers      = "new_customers"
	ColTotalRevenue      = "total_revenue"
	ColGrossProfit       = "gross_profit"
	ColCOGS              = "cost_of_goods_sold"
)

// renames canonicalizes known header variants after NormalizeColumn.
var renames = map[string]string{
	"impression":         ColImpressions,
	"attributed revenue": ColAttributedRevenue,
	"#_of_orders":        ColOrders,
	"#_of_new_orders":    ColNewOrders,
	"cogs":               ColCOGS,
}

// NormalizeColumn trims, lower-cases and snake-cases a header, then applies
// the rename map.
func NormalizeColumn(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if r, ok := renames[n]; ok {
		return r
	}
	n = strings.ReplaceAll(n, " ", "_")
	if r, ok := renames[n]; ok {
		return r
	}
	return n
}
