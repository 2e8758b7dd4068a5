package fit

import (
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// jacobian returns ∂r/∂x by forward differences, one column per free
// parameter. Columns are independent forward solves and run concurrently;
// each writes only its own column.
func (e *Estimator) jacobian(pr *problem, s *session) *mat.Dense {
	m, n := len(s.r), len(s.x)
	j := mat.NewDense(m, n, nil)

	var g errgroup.Group
	g.SetLimit(max(e.Workers, 1))
	for k := 0; k < n; k++ {
		g.Go(func() error {
			x := append([]float64(nil), s.x...)
			h := fdStep * math.Max(math.Abs(x[k]), 1.)
			x[k] += h
			r, _ := pr.residual(pr.params(x))
			for i := range r {
				j.Set(i, k, (r[i]-s.r[i])/h)
			}
			return nil
		})
	}
	_ = g.Wait()
	return j
}
