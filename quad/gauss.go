// Package quad integrates scalar kernels over finite intervals with a
// 15-point Gauss-Legendre rule refined by bounded recursive bisection.
package quad

import (
	"math"

	gquad "gonum.org/v1/gonum/integrate/quad"
)

const (
	// Points in the base rule.
	Points = 15

	// DefaultMaxDepth caps bisection so every call terminates.
	DefaultMaxDepth = 10

	relTol = 1e-10
)

// nodes and weights on [-1,1]
var gx, gw = legendre(Points)

func legendre(n int) (x, w []float64) {
	x, w = make([]float64, n), make([]float64, n)
	gquad.Legendre{}.FixedLocations(x, w, -1., 1.)
	return
}

// Gauss15 applies the fixed 15-point rule to f over [a,b].
func Gauss15(f func(float64) float64, a, b float64) float64 {
	h, c := .5*(b-a), .5*(a+b)
	s := 0.
	for i, x := range gx {
		s += gw[i] * f(c+h*x)
	}
	return s * h
}

// Adaptive integrates f over [a,b]. The whole-interval estimate is compared
// with the sum over both halves; the finer estimate is accepted when they agree
// within 1e-10·|estimate| + eps, otherwise each half is refined with eps/2.
// Recursion stops at maxDepth regardless.
func Adaptive(f func(float64) float64, a, b, eps float64, maxDepth int) float64 {
	switch {
	case a == b:
		return 0.
	case a > b:
		return -Adaptive(f, b, a, eps, maxDepth)
	}
	return adaptive(f, a, b, eps, 0, maxDepth)
}

func adaptive(f func(float64) float64, a, b, eps float64, depth, maxDepth int) float64 {
	c := .5 * (a + b)
	v1 := Gauss15(f, a, b)
	v2 := Gauss15(f, a, c) + Gauss15(f, c, b)
	if depth >= maxDepth || math.Abs(v1-v2) < relTol*math.Abs(v2)+eps {
		return v2
	}
	return adaptive(f, a, c, eps/2., depth+1, maxDepth) + adaptive(f, c, b, eps/2., depth+1, maxDepth)
}

// Integrator holds an absolute tolerance and depth cap.
type Integrator struct {
	Eps      float64
	MaxDepth int
}

// Integrate is Adaptive with the receiver's settings; a zero MaxDepth means DefaultMaxDepth.
func (g Integrator) Integrate(f func(float64) float64, a, b float64) float64 {
	d := g.MaxDepth
	if d <= 0 {
		d = DefaultMaxDepth
	}
	return Adaptive(f, a, b, g.Eps, d)
}
