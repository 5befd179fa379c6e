package pipeline

import (
	"fmt"

	"github.com/angelcm/marketing-intel/internal/metrics"
	"github.com/angelcm/marketing-intel/internal/models"
)

// FunnelStages is the fixed stage order.
var FunnelStages = [4]string{"Impressions", "Clicks", "Orders", "Revenue"}

// BuildFunnel reduces summed measures to the acquisition funnel. Revenue is
// attributed revenue. Pct is relative to the largest stage; conversion is
// relative to the previous stage, 100 for the first.
func BuildFunnel(m models.Measures) []models.FunnelStage {
	values := [4]float64{m.Impressions, m.Clicks, m.Orders, m.AttributedRevenue}
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	out := make([]models.FunnelStage, len(values))
	for i, v := range values {
		conv := 100.0
		if i > 0 {
			conv = metrics.Percent(v, values[i-1])
		}
		out[i] = models.FunnelStage{
			Stage:          FunnelStages[i],
			Value:          v,
			Pct:            fmt.Sprintf("%.1f%%", metrics.Round1(metrics.Percent(v, peak))),
			ConversionRate: conv,
		}
	}
	return out
}
