package formulas

import "math"

// One-tailed standard normal quantiles used for parametric VaR.
const (
	Z95 = 1.645
	Z99 = 2.326
)

// ParametricVaR is value × daily volatility × z.
func ParametricVaR(value, dailyVol, z float64) float64 {
	return Finite(value * dailyVol * z)
}

// ScaleVaR applies square-root-of-time scaling to a one-day VaR.
func ScaleVaR(oneDay float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	return oneDay * math.Sqrt(float64(days))
}
