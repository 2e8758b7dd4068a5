package bessel

import "math"

// K returns K_v(x), v ∈ {0,1}; +Inf at x <= 0, 0 at +Inf and NaN for NaN.
func K(v int, x float64) float64 {
	switch {
	case math.IsNaN(x):
		return math.NaN()
	case math.IsInf(x, 1):
		return 0.
	case x <= 0.:
		return math.Inf(1)
	}
	if x <= seriesMaxK {
		return kSeries(v, x)
	}
	return Ke(v, x) * math.Exp(-x)
}

// Ke returns the exponentially scaled e^{x}·K_v(x), v ∈ {0,1}, with the
// same edge values as K.
func Ke(v int, x float64) float64 {
	switch {
	case math.IsNaN(x):
		return math.NaN()
	case math.IsInf(x, 1):
		return 0.
	case x <= 0.:
		return math.Inf(1)
	}
	if x <= seriesMaxK {
		return kSeries(v, x) * math.Exp(x)
	}
	return kIntegral(v, x)
}

// kSeries: Abramowitz & Stegun 9.6.11 (small argument)
//
//	K0(x) = -(ln(x/2)+γ)·I0(x) + Σ H_k (x²/4)^k / (k!)²
//	K1(x) = 1/x + ln(x/2)·I1(x) - (x/4)·Σ [ψ(k+1)+ψ(k+2)] (x²/4)^k / (k!(k+1)!)
func kSeries(v int, x float64) float64 {
	q := x * x / 4.
	lnx2 := math.Log(x / 2.)
	if v == 0 {
		t, h, s := 1., 0., 0.
		for k := 1; k < 200; k++ {
			fk := float64(k)
			t *= q / (fk * fk)
			h += 1. / fk
			s += t * h
			if t*h < tiny*math.Abs(s) {
				break
			}
		}
		return -(lnx2+eulerGamma)*iSeries(0, x) + s
	}

	psi1, psi2 := -eulerGamma, 1.-eulerGamma // ψ(1), ψ(2)
	t := 1.
	s := psi1 + psi2
	for k := 1; k < 200; k++ {
		fk := float64(k)
		t *= q / (fk * (fk + 1.))
		psi1 += 1. / fk
		psi2 += 1. / (fk + 1.)
		d := t * (psi1 + psi2)
		s += d
		if math.Abs(d) < tiny*math.Abs(s) {
			break
		}
	}
	return 1./x + lnx2*iSeries(1, x) - x/4.*s
}

// kIntegral evaluates e^{x}·K_v(x) = ∫₀^∞ exp(-x(cosh t - 1))·cosh(vt) dt with
// the trapezoidal rule, which converges geometrically for this integrand.
func kIntegral(v int, x float64) float64 {
	const (
		tail     = 40. // e^-40 relative to the t=0 ordinate
		maxSteps = 1000
	)

	h := math.Min(.1, .5/math.Sqrt(x)) // integrand width ~ 1/√x
	if !(h > 0.) {
		return 0.
	}
	fv := float64(v)
	s := .5
	for i, t := 1, h; i <= maxSteps; i, t = i+1, t+h {
		sh := math.Sinh(t / 2.)
		e := 2. * x * sh * sh // x(cosh t - 1) without cancellation at small t
		s += math.Exp(-e) * math.Cosh(fv*t)
		if e > tail {
			break
		}
	}
	return s * h
}
