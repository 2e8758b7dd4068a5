package fit

import (
	"context"
	"math"
	"testing"

	"github.com/maseology/mfhw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func truth() mfhw.Parameters {
	return mfhw.DefaultParameters().Merge(mfhw.Parameters{mfhw.KeyNf: 2.})
}

// synthetic observations from the true parameters, and a table whose free rows
// start away from them
func syntheticJob(t *testing.T, start map[string]Parameter) Job {
	t.Helper()
	p := truth()
	ts := mfhw.LogTimeSteps(15, -1., 3.)
	obs := mfhw.Evaluate(mfhw.Model1, p, ts, false)
	require.NoError(t, obs.Validate())

	tbl := DefaultTable(mfhw.Model1, p)
	for i := range tbl {
		tbl[i].Fit = false
		if s, ok := start[tbl[i].Name]; ok {
			tbl[i].Value, tbl[i].Min, tbl[i].Max, tbl[i].Fit = s.Value, s.Min, s.Max, true
		}
	}
	return Job{
		Variant: mfhw.Model1,
		Table:   tbl,
		Base:    p,
		T:       obs.T,
		P:       obs.P,
		D:       obs.D,
		Weight:  .5,
	}
}

func threeFree(t *testing.T) Job {
	return syntheticJob(t, map[string]Parameter{
		mfhw.KeyKf:     {Value: 1.3e-3, Min: 1e-5, Max: 1.},
		mfhw.KeyS:      {Value: 2., Min: -5., Max: 50.},
		mfhw.KeyOmega1: {Value: .3, Min: 1e-3, Max: 1.},
	})
}

func TestRecoversKnownParameters(t *testing.T) {
	job := threeFree(t)
	e := NewEstimator(WithLogger(zaptest.NewLogger(t)))

	var its []int
	c, err := e.Fit(context.Background(), job, func(p Progress) {
		its = append(its, p.Iteration)
		require.Len(t, p.Curve.P, len(job.T))
	})
	require.NoError(t, err)

	assert.Equal(t, Converged, c.Reason)
	assert.LessOrEqual(t, c.Iterations, 30)
	assert.Less(t, c.SSE, 1e-12)
	assert.Less(t, c.RMSEP, 1e-5)
	assert.InEpsilon(t, 1e-3, c.Params[mfhw.KeyKf], 1e-3)
	assert.InEpsilon(t, 1., c.Params[mfhw.KeyS], 1e-3)
	assert.InEpsilon(t, .4, c.Params[mfhw.KeyOmega1], 1e-3)
	assert.Equal(t, mfhw.Model1, c.Variant)

	// progress is strictly ordered and ends where the completion does
	for i, it := range its {
		assert.Equal(t, i+1, it)
	}
	assert.Equal(t, c.Iterations, its[len(its)-1])

	kf, ok := Lookup(c.Table, mfhw.KeyKf)
	require.True(t, ok)
	assert.Equal(t, c.Params[mfhw.KeyKf], kf.Value)

	// caller's table untouched
	kf, _ = Lookup(job.Table, mfhw.KeyKf)
	assert.Equal(t, 1.3e-3, kf.Value)
}

func TestCancelFromProgress(t *testing.T) {
	job := threeFree(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Progress
	c, err := NewEstimator().Fit(ctx, job, func(p Progress) {
		got = append(got, p)
		if p.Iteration == 2 {
			cancel()
		}
	})
	require.NoError(t, err)
	require.Len(t, got, 2, "no iteration after the cancel was observed")
	assert.Equal(t, Cancelled, c.Reason)
	assert.Equal(t, 2, c.Iterations)
	assert.Equal(t, got[1].Params, c.Params)
	assert.Equal(t, got[1].SSE, c.SSE)
}

func TestCancelledBeforeStart(t *testing.T) {
	job := threeFree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, err := NewEstimator().Fit(ctx, job, nil)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, c.Reason)
	assert.Zero(t, c.Iterations)
	assert.Equal(t, 1.3e-3, c.Params[mfhw.KeyKf])
}

func TestMaxIterations(t *testing.T) {
	job := threeFree(t)
	c, err := NewEstimator(WithMaxIterations(2)).Fit(context.Background(), job, nil)
	require.NoError(t, err)
	assert.Equal(t, MaxIterations, c.Reason)
	assert.Equal(t, 2, c.Iterations)
}

func TestStartAndCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, err := NewEstimator(WithWorkers(2)).Start(context.Background(), threeFree(t))
	require.NoError(t, err)

	var last Progress
	n := 0
	for p := range r.Progress() {
		n++
		assert.Equal(t, n, p.Iteration)
		assert.Equal(t, r.ID, p.RunID)
		last = p
		if n == 1 {
			r.Cancel()
		}
	}
	c := <-r.Done()
	assert.Equal(t, Cancelled, c.Reason)
	assert.Equal(t, r.ID, c.RunID)
	assert.Equal(t, last.Iteration, c.Iterations)
	assert.Equal(t, last.Params, c.Params)
}

func TestStartWait(t *testing.T) {
	defer goleak.VerifyNone(t)

	job := syntheticJob(t, map[string]Parameter{
		mfhw.KeyS: {Value: 3., Min: -5., Max: 50.},
	})
	r, err := NewEstimator().Start(context.Background(), job)
	require.NoError(t, err)
	c := r.Wait()
	assert.Equal(t, Converged, c.Reason)
	assert.InDelta(t, 1., c.Params[mfhw.KeyS], 1e-4)
}

func TestInvalidJobs(t *testing.T) {
	good := threeFree(t)
	e := NewEstimator()
	ctx := context.Background()

	noFree := good
	noFree.Table = SwitchVariant(good.Table, good.Variant)
	for i := range noFree.Table {
		noFree.Table[i].Fit = false
	}
	_, err := e.Fit(ctx, noFree, nil)
	assert.ErrorIs(t, err, ErrNoFreeParameters)

	// a free row hidden by the variant does not count
	hidden := syntheticJob(t, map[string]Parameter{mfhw.KeyReD: {Value: 20., Min: 5., Max: 5000.}})
	_, err = e.Fit(ctx, hidden, nil)
	assert.ErrorIs(t, err, ErrNoFreeParameters)

	short := good
	short.D = short.D[1:]
	_, err = e.Fit(ctx, short, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	for _, w := range []float64{-.1, 1.5, math.NaN()} {
		bad := good
		bad.Weight = w
		_, err = e.Fit(ctx, bad, nil)
		assert.ErrorIs(t, err, ErrWeight)
	}

	bad := good
	bad.Variant = 0
	_, err = e.Fit(ctx, bad, nil)
	assert.ErrorIs(t, err, mfhw.ErrUnknownVariant)

	bad = good
	bad.Base = good.Base.Merge(mfhw.Parameters{mfhw.KeyPhi: -.05})
	_, err = e.Start(ctx, bad)
	assert.ErrorIs(t, err, mfhw.ErrInvalidParameter)
}

func TestSeed(t *testing.T) {
	job := syntheticJob(t, map[string]Parameter{
		mfhw.KeyS: {Value: 10., Min: -5., Max: 50.},
	})
	seeded, sse, err := Seed(job, 8, 40, 11)
	require.NoError(t, err)

	s, _ := Lookup(seeded.Table, mfhw.KeyS)
	assert.Less(t, math.Abs(s.Value-1.), 9.)
	r0, _ := Lookup(job.Table, mfhw.KeyS)
	assert.Equal(t, 10., r0.Value, "input job untouched")
	assert.Positive(t, sse)
}

func TestConvergedWhenNoStepReduces(t *testing.T) {
	// start on the truth with both tolerances disabled: the run can only end
	// when a step at maximum damping still fails to lower the SSE
	job := syntheticJob(t, map[string]Parameter{
		mfhw.KeyS: {Value: 1., Min: -5., Max: 50.},
	})
	e := NewEstimator(WithTolerance(-1.), WithAbsTolerance(-1.))

	var sse []float64
	c, err := e.Fit(context.Background(), job, func(p Progress) { sse = append(sse, p.SSE) })
	require.NoError(t, err)
	assert.Equal(t, Converged, c.Reason)
	assert.Less(t, c.Iterations, e.MaxIterations)
	require.Len(t, sse, c.Iterations)
	if n := len(sse); n > 1 {
		assert.Equal(t, sse[n-2], sse[n-1], "last iteration was rejected")
	}
	assert.InDelta(t, 1., c.Params[mfhw.KeyS], 1e-6)
}
