package opt

import (
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"
)

// LatinHypercube returns n stratified samples of the dim-dimensional unit
// cube; the same seed gives the same samples.
func LatinHypercube(n, dim int, seed uint64) [][]float64 {
	if n < 1 || dim < 1 {
		return nil
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	m := mat.NewDense(n, dim, nil)
	samplemv.LatinHypercube{Q: distmv.NewUnitUniform(dim, src), Src: src}.Sample(m)
	u := make([][]float64, n)
	for i := range u {
		u[i] = mat.Row(nil, i, m)
	}
	return u
}

// Presearch minimises f over the unit cube: nStart Latin-hypercube samples are
// evaluated concurrently, at most GOMAXPROCS at a time, then Nelder-Mead polishes the best of them with the
// remaining evaluation budget. f must be safe for concurrent use; it only ever
// sees points inside the cube.
func Presearch(f func(u []float64) float64, dim, nStart, maxEval int, seed uint64) ([]float64, float64) {
	if nStart < 1 {
		nStart = 1
	}
	smpls := LatinHypercube(nStart, dim, seed)
	fs := make([]float64, nStart)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, u := range smpls {
		g.Go(func() error {
			fs[i] = finite(f(u))
			return nil
		})
	}
	_ = g.Wait()

	ib := 0
	for i, v := range fs {
		if v < fs[ib] {
			ib = i
		}
	}
	ub, fb := smpls[ib], fs[ib]

	if n := maxEval - nStart; n > dim {
		p := optimize.Problem{Func: func(x []float64) float64 {
			return finite(f(clampUnit(x)))
		}}
		s := &optimize.Settings{FuncEvaluations: n}
		if r, err := optimize.Minimize(p, append([]float64(nil), ub...), s, &optimize.NelderMead{SimplexSize: .1}); err == nil && r != nil && r.F < fb {
			ub, fb = clampUnit(r.X), r.F
		}
	}
	return ub, fb
}

func clampUnit(x []float64) []float64 {
	u := make([]float64, len(x))
	for i, v := range x {
		u[i] = Clamp(v, 0., 1.)
	}
	return u
}

func finite(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}
