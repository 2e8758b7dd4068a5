// Package stehfest inverts Laplace-space solutions to real time with the
// Gaver-Stehfest weighted sum, and applies the stress-sensitive permeability
// correction to inverted pressures.
package stehfest

import (
	"math"
	"slices"
	"sync"
)

const (
	// DefaultN is the high-precision term count.
	DefaultN = 8

	// FastN is used for low precision and whenever an odd count is requested.
	FastN = 4

	// Origin is the time at or below which pressure is zero by definition.
	Origin = 1e-12

	gammaMin = 1e-9
	argMin   = 1e-12
)

var cache sync.Map // N -> []float64

// Order resolves the number of terms: requested (DefaultN when unset) for high
// precision, FastN otherwise; odd counts fall back to FastN.
func Order(requested int, highPrecision bool) int {
	n := requested
	if n <= 0 {
		n = DefaultN
	}
	if !highPrecision {
		n = FastN
	}
	if n%2 != 0 {
		n = FastN
	}
	return n
}

// Coefficients returns a copy of the N Stehfest weights V_1..V_N (index 0
// holds V_1). N must be even and positive.
func Coefficients(n int) []float64 {
	return slices.Clone(coefficients(n))
}

// coefficients returns the shared cached weights; callers must not modify them.
func coefficients(n int) []float64 {
	if v, ok := cache.Load(n); ok {
		return v.([]float64)
	}
	v := make([]float64, n)
	for i := 1; i <= n; i++ {
		v[i-1] = coefficient(i, n)
	}
	cache.Store(n, v)
	return v
}

// V_i = (-1)^(i+N/2) Σ_{k=⌊(i+1)/2⌋}^{min(i,N/2)} k^{N/2}(2k)! / ((N/2-k)! k! (k-1)! (i-k)! (2k-i)!)
func coefficient(i, n int) float64 {
	h := n / 2
	k2 := i
	if h < k2 {
		k2 = h
	}
	s := 0.
	for k := (i + 1) / 2; k <= k2; k++ {
		num := math.Pow(float64(k), float64(h)) * factorial(2*k)
		den := factorial(h-k) * factorial(k) * factorial(k-1) * factorial(i-k) * factorial(2*k-i)
		if den <= 0. {
			continue
		}
		s += num / den
	}
	if (i+h)%2 != 0 {
		return -s
	}
	return s
}

func factorial(n int) float64 {
	r := 1.
	for i := 2; i <= n; i++ {
		r *= float64(i)
	}
	return r
}

// Invert returns f⁻¹(t) ≈ ln2/t · Σ V_m f(m·ln2/t). Non-finite evaluations of
// f count as zero; t at or below Origin returns zero.
func Invert(f func(z float64) float64, t float64, n int) float64 {
	if t <= Origin {
		return 0.
	}
	a := math.Ln2 / t
	s := 0.
	for m, v := range coefficients(n) {
		fz := f(float64(m+1) * a)
		if math.IsNaN(fz) || math.IsInf(fz, 0) {
			fz = 0.
		}
		s += v * fz
	}
	return s * a
}

// PressureSensitive maps a constant-permeability pressure to the stress
// sensitive one, p' = -ln(1 - γD·p)/γD. The raw value is kept when |γD| is
// negligible or the logarithm argument is not positive.
func PressureSensitive(p, gammaD float64) float64 {
	if math.Abs(gammaD) <= gammaMin {
		return p
	}
	arg := 1. - gammaD*p
	if arg <= argMin {
		return p
	}
	return -math.Log(arg) / gammaD
}

// Series inverts f at every time in t and applies the γD correction.
func Series(t []float64, f func(z float64) float64, n int, gammaD float64) []float64 {
	p := make([]float64, len(t))
	for i, ti := range t {
		if ti <= Origin {
			continue
		}
		p[i] = PressureSensitive(Invert(f, ti, n), gammaD)
	}
	return p
}
