package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelcm/marketing-intel/internal/models"
)

func TestSafeDivideZeroDenominator(t *testing.T) {
	for _, x := range []float64{0, 1, -5, 1e308, math.NaN(), math.Inf(1)} {
		assert.Equal(t, 0.0, SafeDivide(x, 0), "x=%v", x)
		assert.Equal(t, 0.0, SafeDivide(x, math.NaN()), "x=%v", x)
	}
}

func TestSafeDivideMissingNumerator(t *testing.T) {
	for _, y := range []float64{1, -2, 1000, 0} {
		assert.Equal(t, 0.0, SafeDivide(math.NaN(), y))
		assert.Equal(t, 0.0, SafeDividePtr(nil, &y))
	}
	n, d := 6.0, 3.0
	assert.Equal(t, 2.0, SafeDividePtr(&n, &d))
	assert.Equal(t, 0.0, SafeDividePtr(&n, nil))
}

func TestSafeDivideOverflowIsZero(t *testing.T) {
	assert.Equal(t, 0.0, SafeDivide(math.MaxFloat64, 1e-300))
	assert.Equal(t, 0.0, SafeDivide(math.Inf(-1), 2))
}

func TestDeriveEndToEndExample(t *testing.T) {
	d := Derive(models.Measures{
		Spend: 100, Impressions: 1000, Clicks: 20, AttributedRevenue: 300,
		Orders: 5, TotalRevenue: 500, GrossProfit: 100, NewCustomers: 2,
	})
	assert.InDelta(t, 3.0, d.Metric(NameROAS), 1e-9)
	assert.InDelta(t, 2.0, d.Metric(NameCTR), 1e-9)
	assert.InDelta(t, 5.0, d.Metric(NameCPC), 1e-9)
	assert.InDelta(t, 100.0, d.Metric(NameCPM), 1e-9)
	assert.InDelta(t, 25.0, d.Metric(NameConversionRate), 1e-9)
	assert.InDelta(t, 20.0, d.Metric(NameProfitMargin), 1e-9)
	assert.InDelta(t, 50.0, d.Metric(NameCAC), 1e-9)
	assert.InDelta(t, 250.0, d.Metric(NameLTV), 1e-9)
	assert.InDelta(t, 5.0, d.Metric(NameLTVCACRatio), 1e-9)
	assert.InDelta(t, 100.0, d.Metric(NameRevenuePerOrder), 1e-9)
	assert.InDelta(t, 60.0, d.Metric(NameAttributionRate), 1e-9)
	// roas 3 -> 40, ctr 2/5 -> 12, cvr capped -> 30
	assert.InDelta(t, 82.0, d.EfficiencyScore, 1e-9)
	// roas 30 + ctr 20 + cvr 30 = 80
	assert.Equal(t, "B", d.PerformanceGrade)
}

func TestDeriveAllZeroIsFinite(t *testing.T) {
	cases := []models.Measures{
		{},
		{Spend: 10},
		{Impressions: 10},
		{Clicks: 3, Orders: 9},
		{TotalRevenue: 5, NewCustomers: 0},
		{Spend: -1, Clicks: -1, Impressions: 0.0001},
	}
	for _, m := range cases {
		d := Derive(m)
		require.Len(t, d.Ratios, len(Derivations))
		for name, v := range d.Ratios {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s=%v for %+v", name, v, m)
		}
		assert.False(t, math.IsNaN(d.EfficiencyScore))
	}
	assert.Equal(t, 0.0, Derive(models.Measures{}).Metric(NameROAS))
}

func TestEfficiencyScoreBounded(t *testing.T) {
	vals := []float64{0, 0.5, 1, 3, 5, 10, 100, 1e9, math.MaxFloat64}
	for _, r := range vals {
		for _, c := range vals {
			for _, v := range vals {
				s := EfficiencyScore(r, c, v)
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, 100.0)
			}
		}
	}
	assert.Equal(t, 100.0, EfficiencyScore(3, 5, 10))
	assert.Equal(t, 0.0, EfficiencyScore(-4, -1, -2))
}

func TestPerformanceGradeTiers(t *testing.T) {
	assert.Equal(t, "A", PerformanceGrade(4, 3, 5))
	assert.Equal(t, "B", PerformanceGrade(3, 3, 3))
	assert.Equal(t, "C", PerformanceGrade(4, 1, 3))
	assert.Equal(t, "D", PerformanceGrade(2, 2, 3))
	assert.Equal(t, "F", PerformanceGrade(0.5, 0.5, 0.5))
	assert.Equal(t, "F", PerformanceGrade(0, 0, 0))
}

func TestPerformanceGradeMonotonic(t *testing.T) {
	rank := map[string]int{"F": 0, "D": 1, "C": 2, "B": 3, "A": 4}
	steps := []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 5, 6, 10}
	for _, a := range steps {
		for _, b := range steps {
			prev := map[int]int{}
			for i, x := range steps {
				g := []int{
					rank[PerformanceGrade(x, a, b)],
					rank[PerformanceGrade(a, x, b)],
					rank[PerformanceGrade(a, b, x)],
				}
				if i > 0 {
					for k := range g {
						assert.GreaterOrEqual(t, g[k], prev[k])
					}
				}
				for k := range g {
					prev[k] = g[k]
				}
			}
		}
	}
}

func TestTrendDirection(t *testing.T) {
	assert.Equal(t, models.TrendStable, TrendDirection(nil))
	assert.Equal(t, models.TrendStable, TrendDirection([]float64{5}))
	assert.Equal(t, models.TrendStable, TrendDirection([]float64{1, 100}))
	assert.Equal(t, models.TrendUp, TrendDirection([]float64{1, 1, 1, 1, 1, 1, 1, 10, 10, 10, 10, 10, 10, 10}))
	assert.Equal(t, models.TrendDown, TrendDirection([]float64{10, 10, 10, 10, 1, 1, 1}))
	assert.Equal(t, models.TrendStable, TrendDirection([]float64{100, 101, 100, 102, 99, 100}))
	assert.Equal(t, models.TrendUp, TrendDirection([]float64{1, 2, 2, 2}))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.35, Round2(2.345))
	assert.Equal(t, -2.35, Round2(-2.345))
	assert.Equal(t, 33.3, Round1(33.333))
	assert.Equal(t, 0.0, Round2(math.NaN()))
}
