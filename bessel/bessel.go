// Package bessel provides the modified Bessel functions of the first and
// second kind, orders 0 and 1, for real non-negative arguments.
//
// Products of I and K in the composite-reservoir solution grow and decay
// exponentially in opposite directions; Ie and Ke return the scaled forms
// e^{-x}·I_v(x) and e^{x}·K_v(x) so callers can combine the exponentials
// themselves before evaluation.
package bessel

import "math"

const (
	// Overflow is the argument above which Ie returns the leading asymptotic term.
	Overflow = 600.

	seriesMaxI = 20. // ascending series for I below this, Hankel expansion above
	seriesMaxK = 2.  // logarithmic series for K below this, integral representation above

	eulerGamma = 0.57721566490153286061
	tiny       = 1e-17
)

// I0 returns the modified Bessel function of the first kind, order 0.
func I0(x float64) float64 { return I(0, x) }

// I1 returns the modified Bessel function of the first kind, order 1.
func I1(x float64) float64 { return I(1, x) }

// K0 returns the modified Bessel function of the second kind, order 0.
func K0(x float64) float64 { return K(0, x) }

// K1 returns the modified Bessel function of the second kind, order 1.
func K1(x float64) float64 { return K(1, x) }

// I returns I_v(x), v ∈ {0,1}. Overflows to +Inf for x beyond ~710.
func I(v int, x float64) float64 {
	x = math.Abs(x)
	if x <= seriesMaxI {
		return iSeries(v, x)
	}
	return Ie(v, x) * math.Exp(x)
}

// Ie returns the exponentially scaled e^{-x}·I_v(x), v ∈ {0,1}. Negative
// arguments are reflected.
func Ie(v int, x float64) float64 {
	x = math.Abs(x)
	switch {
	case x > Overflow:
		return 1. / math.Sqrt(2.*math.Pi*x)
	case x <= seriesMaxI:
		return iSeries(v, x) * math.Exp(-x)
	}
	return iHankel(v, x)
}

// iSeries sums (x/2)^{2k+v} / (k!(k+v)!)
func iSeries(v int, x float64) float64 {
	if x == 0. {
		if v == 0 {
			return 1.
		}
		return 0.
	}
	q := x * x / 4.
	t := 1.
	if v == 1 {
		t = x / 2.
	}
	s := t
	for k := 1; k < 500; k++ {
		t *= q / float64(k*(k+v))
		s += t
		if t < tiny*s {
			break
		}
	}
	return s
}

// iHankel is the large-argument expansion of e^{-x}·I_v(x):
//
//	1/√(2πx) · Σ (-1)^k (μ-1)(μ-9)···(μ-(2k-1)²) / (k! (8x)^k),  μ = 4v²
func iHankel(v int, x float64) float64 {
	mu := float64(4 * v * v)
	t, s := 1., 1.
	for k := 1; k < 60; k++ {
		odd := float64(2*k - 1)
		tn := t * -(mu - odd*odd) / (float64(k) * 8. * x)
		if math.Abs(tn) > math.Abs(t) { // asymptotic: stop at the smallest term
			break
		}
		t = tn
		s += t
		if math.Abs(t) < tiny*math.Abs(s) {
			break
		}
	}
	return s / math.Sqrt(2.*math.Pi*x)
}
