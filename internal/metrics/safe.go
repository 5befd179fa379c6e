// Package metrics derives marketing efficiency ratios from summed base measures.
// Every function here returns a finite number: undefined ratios are 0.
package metrics

import "math"

// SafeDivide returns num/den. A NaN operand counts as missing and is treated as
// zero; a zero denominator, or a quotient that is not finite, yields 0.
func SafeDivide(num, den float64) float64 {
	if math.IsNaN(num) {
		num = 0
	}
	if math.IsNaN(den) || den == 0 {
		return 0
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}

// SafeDividePtr is SafeDivide for optional operands; nil counts as zero.
func SafeDividePtr(num, den *float64) float64 {
	var n, d float64
	if num != nil {
		n = *num
	}
	if den != nil {
		d = *den
	}
	return SafeDivide(n, d)
}

// Percent is SafeDivide scaled to a percentage.
func Percent(num, den float64) float64 { return SafeDivide(num, den) * 100 }
