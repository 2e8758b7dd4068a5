package fit

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/maseology/mfhw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplesStayInBounds(t *testing.T) {
	job := syntheticJob(t, map[string]Parameter{
		mfhw.KeyKf: {Value: 1e-3, Min: 1e-4, Max: 1e-2},
		mfhw.KeyS:  {Value: 1., Min: -2., Max: 8.},
	})
	job.P, job.D = nil, nil

	seen := 0
	ss, err := Samples(context.Background(), job, 12, 3, 4, func(Sample) { seen++ })
	require.NoError(t, err)
	require.Len(t, ss, 12)
	assert.Equal(t, 12, seen)

	decades := make([]bool, 2)
	for i, s := range ss {
		assert.Equal(t, i, s.Index)
		kf, sk := s.Params[mfhw.KeyKf], s.Params[mfhw.KeyS]
		assert.True(t, kf >= 1e-4 && kf <= 1e-2, "kf %g", kf)
		assert.True(t, sk >= -2. && sk <= 8., "S %g", sk)
		assert.Len(t, s.Curve.P, len(job.T))
		assert.True(t, math.IsNaN(s.SSE))
		decades[int(math.Floor(math.Log10(kf)))+4] = true
	}
	assert.Equal(t, []bool{true, true}, decades, "kf is sampled log-uniformly")

	again, err := Samples(context.Background(), job, 12, 3, 1, nil)
	require.NoError(t, err)
	if d := cmp.Diff(ss, again, cmpopts.EquateNaNs()); d != "" {
		t.Errorf("samples depend on the worker count (-4 workers +1 worker):\n%s", d)
	}
}

func TestSamplesMisfit(t *testing.T) {
	job := syntheticJob(t, map[string]Parameter{
		mfhw.KeyS: {Value: 1., Min: 1., Max: 1.},
	})
	ss, err := Samples(context.Background(), job, 3, 1, 2, nil)
	require.NoError(t, err)
	for _, s := range ss {
		assert.InDelta(t, 0., s.SSE, 1e-20)
	}
}

func TestSamplesCancelled(t *testing.T) {
	job := threeFree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Samples(ctx, job, 8, 1, 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
