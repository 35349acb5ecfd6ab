package formulas

import "math"

// MaxContracts caps the magnitude of a rounded contract count.
const MaxContracts = math.MaxInt32

// RoundContracts rounds a fractional contract count half away from zero,
// saturating at ±MaxContracts. Non-finite input yields 0.
func RoundContracts(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	r := math.Round(x)
	switch {
	case r > MaxContracts:
		return MaxContracts
	case r < -MaxContracts:
		return -MaxContracts
	}
	return int(r)
}

// RoundToPoint rounds a price level to the nearest whole index point.
func RoundToPoint(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Round(x)
}

// Finite returns x, or 0 when x is NaN or infinite.
func Finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// SafeDiv returns num/den, or 0 when den is 0.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return Finite(num / den)
}
