package fit

import (
	"errors"
	"fmt"
	"math"

	"github.com/maseology/mfhw"
	"github.com/maseology/mfhw/opt"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoFreeParameters = errors.New("no free parameters")
	ErrLengthMismatch   = errors.New("observation lengths differ")
	ErrWeight           = errors.New("weight outside [0,1]")
)

// Job is one fitting request. The caller keeps ownership of every field.
type Job struct {
	Variant       mfhw.Variant
	Table         []Parameter
	Base          mfhw.Parameters // values not in the table (phi, mu, ...)
	T, P, D       []float64       // observed time (h), pressure and derivative (MPa)
	Weight        float64         // share of the pressure residual; 1-Weight goes to the derivative
	HighPrecision bool
}

// problem is a validated job with its free parameters resolved.
type problem struct {
	job  Job
	base mfhw.Parameters // table merged over Job.Base
	free []int           // rows of job.Table
	tr   []opt.Transform // iteration coordinates, one per free row
}

func newProblem(job Job) (*problem, error) {
	if !job.Variant.Valid() {
		return nil, fmt.Errorf("fit: %w: %v", mfhw.ErrUnknownVariant, job.Variant)
	}
	n := len(job.T)
	if n == 0 || len(job.P) != n || len(job.D) != n {
		return nil, fmt.Errorf("fit: %w: t=%d p=%d d=%d", ErrLengthMismatch, n, len(job.P), len(job.D))
	}
	if err := (mfhw.Curve{T: job.T, P: job.P, D: job.D}).Validate(); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	if math.IsNaN(job.Weight) || job.Weight < 0. || job.Weight > 1. {
		return nil, fmt.Errorf("fit: %w: %g", ErrWeight, job.Weight)
	}
	return resolve(job)
}

// resolve selects the free rows of the job's table and validates the merged
// parameter set. Observations are not looked at.
func resolve(job Job) (*problem, error) {
	if !job.Variant.Valid() {
		return nil, fmt.Errorf("fit: %w: %v", mfhw.ErrUnknownVariant, job.Variant)
	}
	pr := &problem{job: job}
	pr.job.Table = SwitchVariant(job.Table, job.Variant)
	for i, r := range pr.job.Table {
		if !r.Free() {
			continue
		}
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min > r.Max || math.IsNaN(r.Value) {
			return nil, fmt.Errorf("fit: %w: %s bounds [%g,%g] value %g", mfhw.ErrInvalidParameter, r.Name, r.Min, r.Max, r.Value)
		}
		pr.job.Table[i].Value = opt.Clamp(r.Value, r.Min, r.Max)
		pr.free = append(pr.free, i)
		pr.tr = append(pr.tr, opt.Iteration(r.Min))
	}
	if len(pr.free) == 0 {
		return nil, fmt.Errorf("fit: %w", ErrNoFreeParameters)
	}

	pr.base = Parameters(pr.job.Table, job.Base)
	if err := pr.base.Validate(); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	return pr, nil
}

func (pr *problem) names() []string {
	s := make([]string, len(pr.free))
	for k, i := range pr.free {
		s[k] = pr.job.Table[i].Name
	}
	return s
}

// params maps iteration coordinates to a full, bound-clamped parameter set.
func (pr *problem) params(x []float64) mfhw.Parameters {
	p := pr.base.Clone()
	for k, i := range pr.free {
		r := pr.job.Table[i]
		p[r.Name] = opt.Clamp(pr.tr[k].Inverse(x[k]), r.Min, r.Max)
	}
	return p.Derive()
}

func (pr *problem) coords(p mfhw.Parameters) []float64 {
	x := make([]float64, len(pr.free))
	for k, i := range pr.free {
		x[k] = pr.tr[k].Forward(p[pr.job.Table[i].Name])
	}
	return x
}

// residual is [w(Pm-Po); (1-w)(Dm-Do)] at the observed times.
func (pr *problem) residual(p mfhw.Parameters) ([]float64, mfhw.Curve) {
	c := mfhw.Evaluate(pr.job.Variant, p, pr.job.T, pr.job.HighPrecision)
	n, w := len(pr.job.T), pr.job.Weight
	r := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		r[i] = w * (c.P[i] - pr.job.P[i])
		r[n+i] = (1. - w) * (c.D[i] - pr.job.D[i])
	}
	return r, c
}

func (pr *problem) start(lambda float64) *session {
	s := &session{variant: pr.job.Variant, lambda: lambda}
	p := pr.base.Clone()
	r, c := pr.residual(p)
	s.accept(pr.coords(p), p, r, c, floats.Dot(r, r))
	return s
}

func (pr *problem) completion(last Progress, reason Reason) Completion {
	t := append([]Parameter(nil), pr.job.Table...)
	for _, i := range pr.free {
		t[i].Value = last.Params[t[i].Name]
	}
	n := math.Sqrt(float64(len(pr.job.T)))
	return Completion{
		RunID:      last.RunID,
		Variant:    pr.job.Variant,
		Params:     last.Params,
		Table:      t,
		Reason:     reason,
		Iterations: last.Iteration,
		SSE:        last.SSE,
		RMSEP:      floats.Distance(last.Curve.P, pr.job.P, 2.) / n,
		RMSED:      floats.Distance(last.Curve.D, pr.job.D, 2.) / n,
	}
}
