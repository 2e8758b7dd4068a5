package mfhw

import (
	"math"

	"github.com/maseology/mfhw/bessel"
	"github.com/maseology/mfhw/quad"
	"gonum.org/v1/gonum/mat"
)

const (
	eps        = 1e-100 // floor for near-zero denominators and the singular-solve fallback
	negligible = 1e-12  // cD and |S| at or below this leave pf unchanged
	minDist    = 1e-10  // kernel distance clamp
	minExp     = -700.  // exponent below which the coupling term vanishes
	quadEps    = 1e-5
	span       = .9 // fractures are spread over [-span, span]
)

// composite holds every parameter the Laplace-space solution needs, extracted
// once so repeated evaluations at different z do no map lookups.
type composite struct {
	m12, lfD, rmD, reD float64
	w1, w2, l1         float64
	cD, s              float64
	xw                 []float64
	bnd                Boundary
	storage            bool
	integ              quad.Integrator
}

func newComposite(p Parameters, v Variant) *composite {
	kf, km := p.Value(KeyKf, 1e-3), p.Value(KeyKm, 1e-4)
	lfD := p.Value(KeyLfD, 0.)
	if l, lf := p.Value(KeyL, 0.), p.Value(KeyLf, -1.); l > lfdThreshold && lf >= 0. {
		lfD = lf / l
	}
	nf := int(p.Value(KeyNf, 4.))
	if nf < 1 {
		nf = 1
	}
	return &composite{
		m12:     kf / km,
		lfD:     lfD,
		rmD:     p.Value(KeyRmD, 4.),
		reD:     p.Value(KeyReD, 0.),
		w1:      p.Value(KeyOmega1, .4),
		w2:      p.Value(KeyOmega2, .08),
		l1:      p.Value(KeyLambda1, 1e-3),
		cD:      p.Value(KeyCD, 0.),
		s:       p.Value(KeyS, 0.),
		xw:      FracturePositions(nf),
		bnd:     v.Boundary(),
		storage: v.VariableStorage(),
		integ:   quad.Integrator{Eps: quadEps, MaxDepth: quad.DefaultMaxDepth},
	}
}

// FracturePositions spaces n fractures evenly over [-0.9, 0.9] in units of the
// well half-length; a single fracture sits at the origin.
func FracturePositions(n int) []float64 {
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []float64{0.}
	}
	x := make([]float64, n)
	d := 2. * span / float64(n-1)
	for i := range x {
		x[i] = -span + float64(i)*d
	}
	return x
}

// Laplace returns the Laplace-space dimensionless wellbore pressure at z > 0.
func Laplace(z float64, p Parameters, v Variant) float64 {
	return newComposite(p, v).laplace(z)
}

func (c *composite) laplace(z float64) float64 {
	pf := c.pwd(z)
	if c.storage && (c.cD > negligible || math.Abs(c.s) > negligible) {
		pf = Storage(z, pf, c.cD, c.s)
	}
	if math.IsNaN(pf) || math.IsInf(pf, 0) {
		return 0.
	}
	return pf
}

// Storage superposes wellbore storage cD and skin S on the Laplace-space
// pressure pf (Duhamel): (z·pf + S) / (z + cD·z²·(z·pf + S)).
func Storage(z, pf, cD, s float64) float64 {
	n := z*pf + s
	return n / (z + cD*z*z*n)
}

// pwd solves the fracture-flux system for the wellbore pressure before
// storage and skin.
func (c *composite) pwd(z float64) float64 {
	fs1 := c.w1 + c.l1*c.w2/(c.l1+z*c.w2)
	fs2 := c.m12 * c.w2
	g1, g2 := math.Sqrt(z*fs1), math.Sqrt(z*fs2)
	a1, a2 := g1*c.rmD, g2*c.rmD

	t0, t1 := c.bnd.Coupling(g2, c.rmD, c.reD)
	t0 += bessel.K0(a2)
	t1 -= bessel.K1(a2)

	// coupling across the composite radius; dn uses scaled I, the kernel restores e^{-γ1·rmD}
	up := c.m12*g1*bessel.K1(a1)*t0 + g2*bessel.K0(a1)*t1
	dn := c.m12*g1*bessel.Ie(1, a1)*t0 - g2*bessel.Ie(0, a1)*t1
	if math.Abs(dn) < eps {
		dn = eps
	}
	ac := up / dn

	nf := len(c.xw)
	a := mat.NewDense(nf+1, nf+1, nil)
	b := mat.NewVecDense(nf+1, nil)
	b.SetVec(nf, 1.)

	// entries depend on xw[i]-xw[j] only, and the kernel is even in it
	cache := make(map[float64]float64, nf)
	norm := 2. * c.m12 * c.lfD
	for i := 0; i < nf; i++ {
		for j := 0; j < nf; j++ {
			dx := math.Abs(c.xw[i] - c.xw[j])
			v, ok := cache[dx]
			if !ok {
				v = c.integ.Integrate(c.kernel(dx, g1, a1, ac), -c.lfD, c.lfD) / norm
				cache[dx] = v
			}
			a.Set(i, j, v)
		}
		a.Set(i, nf, -1.)
		a.Set(nf, i, z)
	}

	return solveLast(a, b)
}

// solveLast returns the last unknown of a·x = b. A non-finite or singular
// system yields eps; an ill-conditioned one keeps its solution.
func solveLast(a *mat.Dense, b *mat.VecDense) float64 {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := a.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return eps
			}
		}
	}

	var lu mat.LU
	lu.Factorize(a)
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, b); err != nil {
		if cond, ok := err.(mat.Condition); !ok || math.IsInf(float64(cond), 1) {
			return eps
		}
	}
	if v := x.AtVec(r - 1); !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return eps
}

// kernel of the pressure induced at offset dx by a unit-flux fracture:
// K0(γ1·d) + Ac·Ie(0,γ1·d)·e^{γ1·d − γ1·rmD}.
func (c *composite) kernel(dx, g1, a1, ac float64) func(float64) float64 {
	return func(a float64) float64 {
		d := g1 * math.Abs(dx-a)
		if d < minDist {
			d = minDist
		}
		v := bessel.K0(d)
		if e := d - a1; e > minExp {
			v += ac * bessel.Ie(0, d) * math.Exp(e)
		}
		return v
	}
}
