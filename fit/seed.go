package fit

import (
	"github.com/maseology/mfhw/opt"
	"gonum.org/v1/gonum/floats"
)

// Seed searches the bounds of the free parameters (log-uniform when the lower
// bound is positive) with Latin-hypercube starts and a Nelder-Mead polish, and
// returns a copy of job starting from the best point found. The job's own
// starting point is kept when nothing better turns up.
func Seed(job Job, nStart, maxEval int, seed uint64) (Job, float64, error) {
	pr, err := newProblem(job)
	if err != nil {
		return job, 0., err
	}
	r0, _ := pr.residual(pr.base)
	e0 := floats.Dot(r0, r0)

	tr := make([]opt.Transform, len(pr.free))
	for k, i := range pr.free {
		tr[k] = opt.Unit(pr.job.Table[i].Min, pr.job.Table[i].Max)
	}
	values := func(u []float64) []float64 {
		v := make([]float64, len(u))
		for k := range u {
			v[k] = tr[k].Inverse(u[k])
		}
		return v
	}
	sse := func(u []float64) float64 {
		p := pr.base.Clone()
		for k, v := range values(u) {
			p[pr.job.Table[pr.free[k]].Name] = v
		}
		r, _ := pr.residual(p.Derive())
		return floats.Dot(r, r)
	}

	u, e := opt.Presearch(sse, len(pr.free), nStart, maxEval, seed)
	if e >= e0 {
		return job, e0, nil
	}
	out := job
	out.Table = append([]Parameter(nil), job.Table...)
	for k, v := range values(u) {
		out.Table[pr.free[k]].Value = v
	}
	return out, e, nil
}
