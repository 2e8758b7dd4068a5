package bourdet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logGrid(n int, lo, hi float64) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = math.Pow(10., lo+float64(i)*(hi-lo)/float64(n-1))
	}
	return t
}

func TestSemilogStraightLine(t *testing.T) {
	// radial flow: p = a ln t + b has derivative a everywhere
	const a, b = 1.151, 3.
	for _, w := range []float64{0., DefaultWindow, .3} {
		tt := logGrid(40, -2., 3.)
		p := make([]float64, len(tt))
		for i, v := range tt {
			p[i] = a*math.Log(v) + b
		}
		d := Derivative(tt, p, w)
		require.Len(t, d, len(tt))
		for i := range d {
			assert.InDelta(t, a, d[i], 1e-10, "window=%g i=%d", w, i)
		}
	}
}

func TestUnitSlope(t *testing.T) {
	// wellbore storage: p = c t has derivative c t; interior points within a few percent
	tt := logGrid(60, -2., 1.)
	p := make([]float64, len(tt))
	for i, v := range tt {
		p[i] = 2. * v
	}
	d := Derivative(tt, p, DefaultWindow)
	for i := 5; i < len(tt)-5; i++ {
		assert.InEpsilon(t, p[i], d[i], .05, "i=%d", i)
	}
}

func TestShortSeries(t *testing.T) {
	assert.Equal(t, []float64{0., 0.}, Derivative([]float64{1., 2.}, []float64{1., 2.}, DefaultWindow))
	assert.Empty(t, Derivative(nil, nil, DefaultWindow))
	assert.Equal(t, []float64{0., 0., 0.}, Derivative([]float64{1., 2., 3.}, []float64{1., 2.}, DefaultWindow))
}

func TestNonPositiveTime(t *testing.T) {
	tt := []float64{0., .1, 1., 10., 100.}
	p := []float64{0., 1., 2., 3., 4.}
	d := Derivative(tt, p, DefaultWindow)
	assert.Equal(t, 0., d[0])
	for _, v := range d[1:] {
		assert.InDelta(t, 1./math.Ln10, v, 1e-12)
	}
}
