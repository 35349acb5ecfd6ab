package formulas

import "math"

// d1d2 returns the Black-Scholes-Merton d1 and d2 terms and whether the inputs
// admit a finite price. Zero dividend yield.
func d1d2(S, K, T, r, sigma float64) (float64, float64, bool) {
	if T <= 0 || sigma <= 0 || S <= 0 || K <= 0 {
		return 0, 0, false
	}
	if math.IsNaN(S+K+T+r+sigma) || math.IsInf(S+K+T+r+sigma, 0) {
		return 0, 0, false
	}

	volSqrtT := sigma * math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / volSqrtT
	return d1, d1 - volSqrtT, true
}

// BlackScholesCall prices a European call. Degenerate inputs price at 0.
func BlackScholesCall(S, K, T, r, sigma float64) float64 {
	d1, d2, ok := d1d2(S, K, T, r, sigma)
	if !ok {
		return 0
	}
	return S*NormCDF(d1) - K*math.Exp(-r*T)*NormCDF(d2)
}

// BlackScholesPut prices a European put. Degenerate inputs price at 0.
func BlackScholesPut(S, K, T, r, sigma float64) float64 {
	d1, d2, ok := d1d2(S, K, T, r, sigma)
	if !ok {
		return 0
	}
	return K*math.Exp(-r*T)*NormCDF(-d2) - S*NormCDF(-d1)
}

// BlackScholesPrice dispatches on option type.
func BlackScholesPrice(isCall bool, S, K, T, r, sigma float64) float64 {
	if isCall {
		return BlackScholesCall(S, K, T, r, sigma)
	}
	return BlackScholesPut(S, K, T, r, sigma)
}

// BlackScholesDelta returns N(d1) for calls and N(d1)-1 for puts.
func BlackScholesDelta(isCall bool, S, K, T, r, sigma float64) float64 {
	d1, _, ok := d1d2(S, K, T, r, sigma)
	if !ok {
		return 0
	}
	if isCall {
		return NormCDF(d1)
	}
	return NormCDF(d1) - 1
}
