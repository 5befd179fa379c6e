package metrics

func ROAS(attributedRevenue, spend float64) float64 { return SafeDivide(attributedRevenue, spend) }

func CTR(clicks, impressions float64) float64 { return Percent(clicks, impressions) }

func CPC(spend, clicks float64) float64 { return SafeDivide(spend, clicks) }

// CPM is the cost per thousand impressions.
func CPM(spend, impressions float64) float64 { return SafeDivide(spend, impressions/1000) }

func ConversionRate(orders, clicks float64) float64 { return Percent(orders, clicks) }

func ProfitMargin(grossProfit, totalRevenue float64) float64 {
	return Percent(grossProfit, totalRevenue)
}

func RevenuePerOrder(totalRevenue, orders float64) float64 { return SafeDivide(totalRevenue, orders) }

// AttributionRate is the share of business revenue credited to marketing.
func AttributionRate(attributedRevenue, totalRevenue float64) float64 {
	return Percent(attributedRevenue, totalRevenue)
}

func CAC(spend, newCustomers float64) float64 { return SafeDivide(spend, newCustomers) }

func LTV(totalRevenue, newCustomers float64) float64 { return SafeDivide(totalRevenue, newCustomers) }

func LTVCACRatio(ltv, cac float64) float64 { return SafeDivide(ltv, cac) }
