package metrics

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds half away from zero to the given number of decimal places.
// Non-finite input rounds to 0.
func Round(f float64, places int32) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}

func Round1(f float64) float64 { return Round(f, 1) }
func Round2(f float64) float64 { return Round(f, 2) }
func Round3(f float64) float64 { return Round(f, 3) }
