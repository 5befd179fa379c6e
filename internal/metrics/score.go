package metrics

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/angelcm/marketing-intel/internal/models"
)

// EfficiencyScore weights ROAS 40, CTR 30 and conversion rate 30, each
// normalized against its cap (3.0, 5%, 10%) and clamped to [0, 1].
func EfficiencyScore(roas, ctr, conversionRate float64) float64 {
	return capped(roas, 3.0)*40 + capped(ctr, 5.0)*30 + capped(conversionRate, 10.0)*30
}

func capped(v, limit float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(v/limit, 1.0))
}

type tier struct {
	min    float64
	points int
}

var (
	roasTiers = []tier{{4.0, 40}, {3.0, 30}, {2.0, 20}, {1.0, 10}}
	ctrTiers  = []tier{{3.0, 30}, {2.0, 20}, {1.0, 10}}
	cvrTiers  = []tier{{5.0, 30}, {3.0, 20}, {1.0, 10}}
	grades    = []struct {
		min   int
		grade string
	}{{90, "A"}, {80, "B"}, {70, "C"}, {60, "D"}}
)

func points(v float64, tiers []tier) int {
	for _, t := range tiers {
		if v >= t.min {
			return t.points
		}
	}
	return 0
}

// PerformanceGrade maps tiered ROAS/CTR/conversion points to a letter A-F.
func PerformanceGrade(roas, ctr, conversionRate float64) string {
	score := points(roas, roasTiers) + points(ctr, ctrTiers) + points(conversionRate, cvrTiers)
	for _, g := range grades {
		if score >= g.min {
			return g.grade
		}
	}
	return "F"
}

// TrendDirection compares the mean of the recent window (last 7 values when at
// least 7 exist, else last 3) with the mean of the earlier values (all but the
// last 7 when at least 14 exist, else all but the last 3). A move beyond 5% is
// up or down.
func TrendDirection(values []float64) models.Trend {
	n := len(values)
	if n < 2 {
		return models.TrendStable
	}
	recentN := 3
	if n >= 7 {
		recentN = 7
	}
	earlierN := n - 3
	if n >= 14 {
		earlierN = n - 7
	}
	if earlierN <= 0 {
		return models.TrendStable
	}
	recent, err := stats.Mean(values[n-min(recentN, n):])
	if err != nil {
		return models.TrendStable
	}
	earlier, err := stats.Mean(values[:earlierN])
	if err != nil {
		return models.TrendStable
	}
	switch {
	case recent > earlier*1.05:
		return models.TrendUp
	case recent < earlier*0.95:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}
