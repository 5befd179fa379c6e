package metrics

import "github.com/angelcm/marketing-intel/internal/models"

// Metric names as they appear in Derived.Ratios.
const (
	NameROAS            = "roas"
	NameCTR             = "ctr"
	NameCPC             = "cpc"
	NameCPM             = "cpm"
	NameConversionRate  = "conversion_rate"
	NameProfitMargin    = "profit_margin"
	NameRevenuePerOrder = "revenue_per_order"
	NameAttributionRate = "attribution_rate"
	NameCAC             = "cac"
	NameLTV             = "ltv"
	NameLTVCACRatio     = "ltv_cac_ratio"
)

// Derivation computes one named ratio from a row's summed measures.
type Derivation struct {
	Name string
	Fn   func(models.Measures) float64
}

// Derivations is the fixed metric table applied to every aggregation row.
var Derivations = []Derivation{
	{NameROAS, func(m models.Measures) float64 { return ROAS(m.AttributedRevenue, m.Spend) }},
	{NameCTR, func(m models.Measures) float64 { return CTR(m.Clicks, m.Impressions) }},
	{NameCPC, func(m models.Measures) float64 { return CPC(m.Spend, m.Clicks) }},
	{NameCPM, func(m models.Measures) float64 { return CPM(m.Spend, m.Impressions) }},
	{NameConversionRate, func(m models.Measures) float64 { return ConversionRate(m.Orders, m.Clicks) }},
	{NameProfitMargin, func(m models.Measures) float64 { return ProfitMargin(m.GrossProfit, m.TotalRevenue) }},
	{NameRevenuePerOrder, func(m models.Measures) float64 { return RevenuePerOrder(m.TotalRevenue, m.Orders) }},
	{NameAttributionRate, func(m models.Measures) float64 { return AttributionRate(m.AttributedRevenue, m.TotalRevenue) }},
	{NameCAC, func(m models.Measures) float64 { return CAC(m.Spend, m.NewCustomers) }},
	{NameLTV, func(m models.Measures) float64 { return LTV(m.TotalRevenue, m.NewCustomers) }},
	{NameLTVCACRatio, func(m models.Measures) float64 {
		return LTVCACRatio(LTV(m.TotalRevenue, m.NewCustomers), CAC(m.Spend, m.NewCustomers))
	}},
}

// Derive recomputes every ratio plus the composite scores from m.
func Derive(m models.Measures) models.Derived {
	ratios := make(map[string]float64, len(Derivations))
	for _, d := range Derivations {
		ratios[d.Name] = d.Fn(m)
	}
	roas, ctr, cvr := ratios[NameROAS], ratios[NameCTR], ratios[NameConversionRate]
	return models.Derived{
		Ratios:           ratios,
		EfficiencyScore:  EfficiencyScore(roas, ctr, cvr),
		PerformanceGrade: PerformanceGrade(roas, ctr, cvr),
	}
}
