package fit

import (
	"context"
	"math"
	"sync"

	"github.com/maseology/mfhw"
	"github.com/maseology/mfhw/opt"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Sample is one realisation of a Latin-hypercube sweep over the free rows of
// a table.
type Sample struct {
	Index  int
	U      []float64 // unit-cube coordinates, one per free row
	Params mfhw.Parameters
	Curve  mfhw.Curve
	SSE    float64 // weighted misfit to the job's observations; NaN without them
}

// Samples draws n Latin-hypercube points over the bounds of the job's free
// rows (log-uniform when the lower bound is positive) and evaluates each at
// job.T, or at the default grid when job.T is empty. Observations are optional;
// when present the misfit of every sample is reported. onSample, when not nil,
// is called once per finished sample from a single goroutine at a time.
// Cancelling ctx stops the sweep and returns ctx's error.
func Samples(ctx context.Context, job Job, n int, seed uint64, workers int, onSample func(Sample)) ([]Sample, error) {
	var (
		pr  *problem
		err error
	)
	withObs := len(job.P) > 0 || len(job.D) > 0
	if withObs {
		pr, err = newProblem(job)
	} else {
		pr, err = resolve(job)
	}
	if err != nil {
		return nil, err
	}

	names := pr.names()
	tr := make([]opt.Transform, len(pr.free))
	for k, i := range pr.free {
		tr[k] = opt.Unit(pr.job.Table[i].Min, pr.job.Table[i].Max)
	}
	us := opt.LatinHypercube(n, len(pr.free), seed)
	out := make([]Sample, len(us))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for k, u := range us {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := pr.base.Clone()
			for j, x := range u {
				p[names[j]] = tr[j].Inverse(x)
			}
			p = p.Derive()

			s := Sample{Index: k, U: u, Params: p, SSE: math.NaN()}
			if withObs {
				r, c := pr.residual(p)
				s.Curve, s.SSE = c, floats.Dot(r, r)
			} else {
				s.Curve = mfhw.Evaluate(pr.job.Variant, p, pr.job.T, pr.job.HighPrecision)
			}
			out[k] = s

			if onSample != nil {
				mu.Lock()
				onSample(s)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
