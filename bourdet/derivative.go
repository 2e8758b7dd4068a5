// Package bourdet computes the Bourdet logarithmic pressure derivative,
// dp/d(ln t), of a sampled pressure series.
package bourdet

import "math"

// DefaultWindow is the smoothing distance in log10 cycles.
const DefaultWindow = .1

// Derivative returns dp/d(ln t) for every sample of (t, p). For each point the
// nearest neighbours at least window log10-cycles away (or the series ends) are
// combined in a weighted central difference; the end points use one-sided
// differences. Series shorter than 3 points return zeros.
func Derivative(t, p []float64, window float64) []float64 {
	n := len(t)
	d := make([]float64, n)
	if n < 3 || len(p) != n {
		return d
	}
	if window < 0. {
		window = 0.
	}

	lt, ln := make([]float64, n), make([]float64, n)
	for i, v := range t {
		if v <= 0. {
			lt[i], ln[i] = math.NaN(), math.NaN()
			continue
		}
		lt[i], ln[i] = math.Log10(v), math.Log(v)
	}

	for i := range t {
		if math.IsNaN(lt[i]) {
			continue
		}
		j := i
		for j > 0 && !math.IsNaN(lt[j-1]) && lt[i]-lt[j] < window {
			j--
		}
		k := i
		for k < n-1 && lt[k]-lt[i] < window {
			k++
		}
		d[i] = central(ln, p, j, i, k)
		if math.IsNaN(d[i]) || math.IsInf(d[i], 0) {
			d[i] = 0.
		}
	}
	return d
}

func central(ln, p []float64, j, i, k int) float64 {
	switch {
	case j == i && k == i:
		return 0.
	case j == i:
		return (p[k] - p[i]) / (ln[k] - ln[i])
	case k == i:
		return (p[i] - p[j]) / (ln[i] - ln[j])
	}
	dl, dr := ln[i]-ln[j], ln[k]-ln[i]
	return ((p[i]-p[j])/dl*dr + (p[k]-p[i])/dr*dl) / (dl + dr)
}
