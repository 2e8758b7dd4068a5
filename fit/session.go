package fit

import (
	"github.com/google/uuid"
	"github.com/maseology/mfhw"
)

// session is the mutable state of one run, owned by the goroutine running
// the estimator. Everything handed out is copied first.
type session struct {
	variant   mfhw.Variant
	x         []float64 // free parameters, iteration coordinates
	params    mfhw.Parameters
	r         []float64
	curve     mfhw.Curve
	sse       float64
	lambda    float64
	iteration int
}

func (s *session) accept(x []float64, p mfhw.Parameters, r []float64, c mfhw.Curve, sse float64) {
	s.x, s.params, s.r, s.curve, s.sse = x, p, r, c, sse
}

func (s *session) snapshot(id uuid.UUID) Progress {
	return Progress{
		RunID:     id,
		Iteration: s.iteration,
		SSE:       s.sse,
		Lambda:    s.lambda,
		Params:    s.params.Clone(),
		Curve:     s.curve.Clone(),
	}
}
