package formulas

import "gonum.org/v1/gonum/floats"

// Herfindahl returns the Herfindahl-Hirschman index of a set of percentage
// weights, expressed on a 0..1 scale. Weights are taken as absolute values.
func Herfindahl(weightsPct []float64) float64 {
	if len(weightsPct) == 0 {
		return 0
	}

	shares := make([]float64, len(weightsPct))
	for i, w := range weightsPct {
		if w < 0 {
			w = -w
		}
		shares[i] = Finite(w)
	}
	floats.Scale(0.01, shares)

	return floats.Dot(shares, shares)
}

// Sum adds the values.
func Sum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values)
}
