package mfhw

import (
	"math"

	"github.com/maseology/mfhw/bourdet"
	"github.com/maseology/mfhw/stehfest"
)

// default time grid, 10^-3..10^3 h
const (
	DefaultSteps    = 100
	DefaultLogStart = -3.
	DefaultLogEnd   = 3.
)

const (
	tdFactor = 14.4
	pFactor  = 1.842e-3
)

// LogTimeSteps returns n times spaced uniformly in log10 between 10^lo and
// 10^hi. Fewer than 2 points yields nil.
func LogTimeSteps(n int, lo, hi float64) []float64 {
	if n < 2 {
		return nil
	}
	t := make([]float64, n)
	d := (hi - lo) / float64(n-1)
	for i := range t {
		t[i] = math.Pow(10., lo+float64(i)*d)
	}
	return t
}

// Dimensionless converts real times to tD = 14.4·kf·t/(φ·μ·Ct·L²) and returns
// the pressure factor 1.842e-3·q·μ·B/(kf·h) that dimensions pD.
func Dimensionless(p Parameters, t []float64) (tD []float64, factor float64) {
	phi, mu, ct := p.Value(KeyPhi, .05), p.Value(KeyMu, .5), p.Value(KeyCt, 5e-4)
	kf, l := p.Value(KeyKf, 1e-3), p.Value(KeyL, 1000.)
	b, q, h := p.Value(KeyB, 1.05), p.Value(KeyQ, 5.), p.Value(KeyH, 20.)

	tD = make([]float64, len(t))
	c := tdFactor * kf / (phi * mu * ct * l * l)
	for i, v := range t {
		tD[i] = c * v
	}
	return tD, pFactor * q * mu * b / (kf * h)
}

// Evaluate returns the dimensioned pressure and derivative of variant v at
// times t (h). An empty t uses the default grid. High precision honours the
// requested Stehfest term count N; low precision uses 4 terms.
func Evaluate(v Variant, p Parameters, t []float64, highPrecision bool) Curve {
	f := newForward(v, p, t, highPrecision)
	return f.curve(stehfest.Series(f.tD, f.c.laplace, f.n, f.gammaD))
}

// forward is one prepared forward solve.
type forward struct {
	t, tD  []float64
	factor float64
	c      *composite
	n      int
	gammaD float64
}

func newForward(v Variant, p Parameters, t []float64, highPrecision bool) *forward {
	if len(t) == 0 {
		t = LogTimeSteps(DefaultSteps, DefaultLogStart, DefaultLogEnd)
	}
	p = p.Derive()
	tD, factor := Dimensionless(p, t)
	return &forward{
		t:      t,
		tD:     tD,
		factor: factor,
		c:      newComposite(p, v),
		n:      stehfest.Order(int(p.Value(KeyN, stehfest.DefaultN)), highPrecision),
		gammaD: p.Value(KeyGammaD, 0.),
	}
}

// point inverts the solution at tD[k].
func (f *forward) point(k int) float64 {
	if f.tD[k] <= stehfest.Origin {
		return 0.
	}
	return stehfest.PressureSensitive(stehfest.Invert(f.c.laplace, f.tD[k], f.n), f.gammaD)
}

func (f *forward) curve(pD []float64) Curve {
	d := bourdet.Derivative(f.tD, pD, bourdet.DefaultWindow)
	c := Curve{
		T: append([]float64(nil), f.t...),
		P: make([]float64, len(f.t)),
		D: make([]float64, len(f.t)),
	}
	for i := range f.t {
		c.P[i] = f.factor * pD[i]
		c.D[i] = f.factor * d[i]
	}
	return c
}
