// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"
)

// RoundHalfUp rounds a value to the nearest integer, with exact halves
// rounding away from zero. Used for converting a fractional target count
// into a whole number of approvals so the same inputs always yield the
// same count.
func RoundHalfUp(val float64) int {
	return int(math.Floor(val + 0.5))
}

// ClampInt restricts val to the inclusive range [lo, hi].
func ClampInt(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Clamp restricts val to the inclusive range [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Ratio returns numerator/denominator, or 0 when the denominator is zero.
func Ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// IsFiniteRate reports whether val is a finite number within [0, 1].
func IsFiniteRate(val float64) bool {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return false
	}
	return val >= 0 && val <= 1
}
