package mfhw

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// two fractures keep the quadrature count small
func testParameters() Parameters {
	return DefaultParameters().Merge(Parameters{KeyNf: 2.})
}

func TestFracturePositions(t *testing.T) {
	assert.Nil(t, FracturePositions(0))
	assert.Equal(t, []float64{0.}, FracturePositions(1))
	assert.Equal(t, []float64{-.9, .9}, FracturePositions(2))
	x := FracturePositions(4)
	assert.InDeltaSlice(t, []float64{-.9, -.3, .3, .9}, x, 1e-15)
}

func TestStorageIdentity(t *testing.T) {
	for _, z := range []float64{1e-4, .01, 1., 100., 1e4} {
		for _, pf := range []float64{1e-3, .5, 40.} {
			assert.InEpsilon(t, pf, Storage(z, pf, 0., 0.), 1e-14)
		}
	}

	// with cD = S = 0 the variable-storage variants reduce to their constant-storage twins
	p := testParameters().Merge(Parameters{KeyCD: 0., KeyS: 0.})
	for _, pair := range [][2]Variant{{Model1, Model2}, {Model3, Model4}, {Model5, Model6}} {
		for _, z := range []float64{.01, 1., 100.} {
			assert.Equal(t, Laplace(z, p, pair[1]), Laplace(z, p, pair[0]), "%v z=%g", pair[0], z)
		}
	}
}

func TestLaplaceReference(t *testing.T) {
	p := testParameters()
	tests := []struct {
		v    Variant
		z    float64
		want float64
	}{
		{Model2, .01, 116.16901597563206},
		{Model4, .01, 177.2889797264838},
		{Model6, .01, 91.38574745722012},
		{Model2, .1, 4.238145472920357},
		{Model2, 1., .21346819411116627},
		{Model2, 10., .01376552047994669},
	}
	for _, tt := range tests {
		assert.InEpsilon(t, tt.want, Laplace(tt.z, p, tt.v), 1e-6, "%v z=%g", tt.v, tt.z)
	}
}

func TestBoundaryDegeneracy(t *testing.T) {
	p := testParameters()
	far := p.Merge(Parameters{KeyReD: 1e4})
	for _, z := range []float64{.01, .1, 1., 10.} {
		inf := Laplace(z, p, Model2)
		assert.InEpsilon(t, inf, Laplace(z, far, Model4), 1e-9, "closed z=%g", z)
		assert.InEpsilon(t, inf, Laplace(z, far, Model6), 1e-9, "constant pressure z=%g", z)
	}

	// a near boundary separates the three at late time (small z)
	z := .01
	assert.Greater(t, Laplace(z, p, Model4), Laplace(z, p, Model2))
	assert.Less(t, Laplace(z, p, Model6), Laplace(z, p, Model2))
}

func TestLaplaceFailSoft(t *testing.T) {
	tests := []struct {
		name string
		p    Parameters
	}{
		// zero fracture length makes the system undefined
		{"zero fracture length", Parameters{KeyLf: 0.}},
		// infinite mobility ratio drives the outer Bessel argument to +Inf
		{"zero outer permeability", Parameters{KeyKm: 0.}},
		{"NaN outer permeability", Parameters{KeyKm: math.NaN()}},
		{"NaN storativity", Parameters{KeyOmega1: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParameters().Merge(tt.p)
			for _, v := range Variants {
				for _, z := range []float64{1e-3, 1., 1e3} {
					f := Laplace(z, p, v)
					assert.False(t, math.IsNaN(f), "%v z=%g", v, z)
					assert.False(t, math.IsInf(f, 0), "%v z=%g", v, z)
				}
			}
		})
	}
}

func TestSweepZeroOuterPermeability(t *testing.T) {
	ts := LogTimeSteps(5, -1., 1.)
	cs := Sweep(Model4, testParameters(), KeyKm, []float64{0., .1}, ts, false)
	require.Len(t, cs, 2)
	for _, c := range cs {
		require.Equal(t, len(ts), c.Len())
		for i := range ts {
			assert.False(t, math.IsNaN(c.P[i]) || math.IsInf(c.P[i], 0))
			assert.False(t, math.IsNaN(c.D[i]) || math.IsInf(c.D[i], 0))
		}
	}
}

func TestSolveLast(t *testing.T) {
	b := mat.NewVecDense(2, []float64{0., 1.})

	// exactly singular: LU reports an infinite condition number
	assert.Equal(t, eps, solveLast(mat.NewDense(2, 2, []float64{1., 1., 1., 1.}), b))
	assert.Equal(t, eps, solveLast(mat.NewDense(2, 2, nil), b))

	// non-finite entries never reach the factorisation
	assert.Equal(t, eps, solveLast(mat.NewDense(2, 2, []float64{1., math.NaN(), 0., 1.}), b))
	assert.Equal(t, eps, solveLast(mat.NewDense(2, 2, []float64{1., 0., math.Inf(1), 1.}), b))

	// ill-conditioned beyond the LU tolerance keeps its solution
	d := 0x1p-52
	x := solveLast(mat.NewDense(2, 2, []float64{1., 1., 1., 1. + d}), b)
	assert.InEpsilon(t, 1./d, x, 1e-9)

	assert.InDelta(t, .5, solveLast(mat.NewDense(2, 2, []float64{1., 0., 0., 2.}), b), 1e-15)
}

func TestInfiniteOuterRadius(t *testing.T) {
	// the boundary Bessel ratio underflows to zero: bounded variants fall
	// back to the infinite-acting solution
	p := testParameters().Merge(Parameters{KeyReD: math.Inf(1)})
	for _, z := range []float64{1e-2, 1., 1e2} {
		want := Laplace(z, p, Model2)
		assert.Equal(t, want, Laplace(z, p, Model4), "z=%g", z)
		assert.Equal(t, want, Laplace(z, p, Model6), "z=%g", z)
		assert.Equal(t, Laplace(z, p, Model1), Laplace(z, p, Model3), "z=%g", z)
	}
}
