// Package fit estimates reservoir and fracture parameters by matching the
// forward model to observed pressure and derivative data with a damped
// Gauss-Newton (Levenberg-Marquardt) iteration.
package fit

import (
	"context"
	"math"
	"runtime"

	"github.com/google/uuid"
	"github.com/maseology/mfhw"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	maxTries   = 10 // damping increases per iteration before giving up
	minDamping = 1e-12
	fdStep     = 1e-3
)

// Reason tells why a run ended. None of them is a failure.
type Reason int

const (
	// Converged covers a relative SSE change below Tolerance, an SSE at or
	// below AbsTolerance, and a step that found no further reduction at
	// maximum damping.
	Converged Reason = iota
	MaxIterations
	Cancelled
)

func (r Reason) String() string {
	switch r {
	case Converged:
		return "converged"
	case MaxIterations:
		return "max-iterations"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Progress is published after every iteration. It owns its maps and slices.
type Progress struct {
	RunID     uuid.UUID
	Iteration int
	SSE       float64
	Lambda    float64
	Params    mfhw.Parameters
	Curve     mfhw.Curve
}

// Completion is the final state of a run: the last published snapshot.
type Completion struct {
	RunID        uuid.UUID
	Variant      mfhw.Variant
	Params       mfhw.Parameters
	Table        []Parameter
	Reason       Reason
	Iterations   int
	SSE          float64
	RMSEP, RMSED float64
}

// Estimator holds the iteration settings. The zero value is not usable; build
// one with NewEstimator.
type Estimator struct {
	MaxIterations  int
	Tolerance      float64 // relative SSE reduction
	AbsTolerance   float64 // SSE floor
	InitialDamping float64
	MaxDamping     float64
	Workers        int // concurrent Jacobian columns
	Logger         *zap.Logger
}

// Option configures an Estimator.
type Option func(*Estimator)

func WithMaxIterations(n int) Option      { return func(e *Estimator) { e.MaxIterations = n } }
func WithTolerance(rel float64) Option    { return func(e *Estimator) { e.Tolerance = rel } }
func WithAbsTolerance(sse float64) Option { return func(e *Estimator) { e.AbsTolerance = sse } }
func WithDamping(l0 float64) Option       { return func(e *Estimator) { e.InitialDamping = l0 } }
func WithWorkers(n int) Option            { return func(e *Estimator) { e.Workers = n } }
func WithLogger(l *zap.Logger) Option     { return func(e *Estimator) { e.Logger = l } }

// NewEstimator returns an estimator with the defaults: 50 iterations, 1e-8
// relative tolerance, 1e-20 SSE floor, λ0 = 1e-2 capped at 1e10, GOMAXPROCS
// workers and a no-op logger.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		MaxIterations:  50,
		Tolerance:      1e-8,
		AbsTolerance:   1e-20,
		InitialDamping: 1e-2,
		MaxDamping:     1e10,
		Workers:        runtime.GOMAXPROCS(0),
		Logger:         zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.MaxIterations < 1 {
		e.MaxIterations = 50
	}
	if e.Workers < 1 {
		e.Workers = 1
	}
	if e.InitialDamping <= 0. {
		e.InitialDamping = 1e-2
	}
	if e.Logger == nil {
		e.Logger = zap.NewNop()
	}
	return e
}

// Fit runs the estimator to completion on the calling goroutine, calling
// onProgress (may be nil) after every iteration. Errors are returned only for
// invalid jobs, before any iteration; ctx cancellation is observed between
// iterations and ends the run normally with Reason Cancelled.
func (e *Estimator) Fit(ctx context.Context, job Job, onProgress func(Progress)) (Completion, error) {
	return e.fit(ctx, uuid.New(), job, func(p Progress) bool {
		if onProgress != nil {
			onProgress(p)
		}
		return true
	})
}

// fit drives the iteration. publish reports whether a snapshot was delivered;
// an undelivered snapshot ends the run as cancelled.
func (e *Estimator) fit(ctx context.Context, id uuid.UUID, job Job, publish func(Progress) bool) (Completion, error) {
	pr, err := newProblem(job)
	if err != nil {
		return Completion{}, err
	}
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.Stringer("run", id))

	s := pr.start(e.InitialDamping)
	log.Info("fit started",
		zap.Stringer("variant", job.Variant),
		zap.Strings("free", pr.names()),
		zap.Int("observations", len(job.T)),
		zap.Float64("sse", s.sse),
	)

	last := s.snapshot(id)
	reason := MaxIterations
	if s.sse <= e.AbsTolerance {
		reason = Converged
	}
	for it := 1; reason == MaxIterations && it <= e.MaxIterations; it++ {
		if ctx.Err() != nil {
			reason = Cancelled
			break
		}
		accepted, rel := e.iterate(pr, s)
		s.iteration = it
		snap := s.snapshot(id)
		if !publish(snap) {
			reason = Cancelled
			break
		}
		last = snap
		log.Debug("iteration",
			zap.Int("iteration", it),
			zap.Float64("sse", s.sse),
			zap.Float64("lambda", s.lambda),
			zap.Bool("accepted", accepted),
		)
		if !accepted || rel < e.Tolerance || s.sse <= e.AbsTolerance {
			reason = Converged
		}
	}

	c := pr.completion(last, reason)
	log.Info("fit complete",
		zap.Stringer("reason", reason),
		zap.Int("iterations", c.Iterations),
		zap.Float64("sse", c.SSE),
		zap.Float64("rmseP", c.RMSEP),
		zap.Float64("rmseD", c.RMSED),
	)
	return c, nil
}

// iterate performs one damped Gauss-Newton iteration on s: solve
// (JᵀJ + λI)Δ = −Jᵀr, accept when the SSE drops (λ/10), otherwise λ×10 and
// retry.
func (e *Estimator) iterate(pr *problem, s *session) (accepted bool, rel float64) {
	j := e.jacobian(pr, s)
	n := len(s.x)

	var jtj mat.SymDense
	jtj.SymOuterK(1., j.T())
	var g mat.VecDense
	g.MulVec(j.T(), mat.NewVecDense(len(s.r), s.r))
	g.ScaleVec(-1., &g)

	for try := 0; try < maxTries; try++ {
		a := mat.NewSymDense(n, nil)
		a.CopySym(&jtj)
		for i := 0; i < n; i++ {
			a.SetSym(i, i, a.At(i, i)+s.lambda)
		}
		if dx, ok := solve(a, &g); ok {
			xn := make([]float64, n)
			for i := range xn {
				xn[i] = s.x[i] + dx.AtVec(i)
			}
			p := pr.params(xn)
			r, c := pr.residual(p)
			if en := floats.Dot(r, r); en < s.sse {
				rel = (s.sse - en) / s.sse
				s.accept(pr.coords(p), p, r, c, en)
				s.lambda = math.Max(s.lambda/10., minDamping)
				return true, rel
			}
		}
		s.lambda = math.Min(s.lambda*10., e.MaxDamping)
	}
	return false, 0.
}

// solve uses Cholesky, falling back to LU. Ill-conditioned solutions are
// kept; singular or non-finite ones are not.
func solve(a *mat.SymDense, b *mat.VecDense) (*mat.VecDense, bool) {
	n := a.SymmetricDim()
	for i := 0; i < n; i++ {
		for k := i; k < n; k++ {
			if v := a.At(i, k); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, false
			}
		}
	}

	var dx mat.VecDense
	var ch mat.Cholesky
	if ch.Factorize(a) && usable(ch.SolveVecTo(&dx, b)) && finiteVec(&dx) {
		return &dx, true
	}
	var lu mat.LU
	lu.Factorize(a)
	if usable(lu.SolveVecTo(&dx, false, b)) && finiteVec(&dx) {
		return &dx, true
	}
	return nil, false
}

func usable(err error) bool {
	if err == nil {
		return true
	}
	c, ok := err.(mat.Condition)
	return ok && !math.IsInf(float64(c), 1)
}

func finiteVec(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		if x := v.AtVec(i); math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
