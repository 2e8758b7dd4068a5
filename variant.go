package mfhw

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/maseology/mfhw/bessel"
)

// ErrUnknownVariant is returned when text does not name a model variant.
var ErrUnknownVariant = errors.New("unknown model variant")

// Boundary is the outer-boundary condition of the composite reservoir. It owns
// the coupling term the outer region contributes at the composite radius.
type Boundary int

const (
	Infinite Boundary = iota
	Closed
	ConstantPressure
)

var boundaryNames = [...]string{"infinite", "closed", "constant-pressure"}

func (b Boundary) String() string {
	if b < Infinite || b > ConstantPressure {
		return "Boundary(" + strconv.Itoa(int(b)) + ")"
	}
	return boundaryNames[b]
}

const tinyRatio = 1e-100

// Coupling returns the boundary terms (T0, T1) added to K0(γ2·rmD) and
// subtracted from K1(γ2·rmD) respectively. Both are zero for the infinite
// boundary and whenever the scaled I ratio at the outer radius underflows.
// Growth and decay are combined in a single exponential.
func (b Boundary) Coupling(gamma2, rmD, reD float64) (t0, t1 float64) {
	if b == Infinite {
		return 0., 0.
	}
	am, ae := gamma2*rmD, gamma2*reD
	var c float64
	switch b {
	case Closed:
		r := bessel.Ie(1, ae)
		if r <= tinyRatio {
			return 0., 0.
		}
		c = bessel.Ke(1, ae) / r
	case ConstantPressure:
		r := bessel.Ie(0, ae)
		if r <= tinyRatio {
			return 0., 0.
		}
		c = -bessel.Ke(0, ae) / r
	default:
		return 0., 0.
	}
	c *= math.Exp(am - 2.*ae)
	return c * bessel.Ie(0, am), c * bessel.Ie(1, am)
}

// Variant selects one of the six boundary and wellbore-storage combinations.
// The zero value is not a valid variant.
type Variant int

const (
	Model1 Variant = iota + 1 // infinite, variable storage
	Model2                    // infinite, constant storage
	Model3                    // closed, variable storage
	Model4                    // closed, constant storage
	Model5                    // constant pressure, variable storage
	Model6                    // constant pressure, constant storage
)

// Variants lists every valid variant in order.
var Variants = []Variant{Model1, Model2, Model3, Model4, Model5, Model6}

type variantTraits struct {
	bnd     Boundary
	storage bool
}

var traits = [...]variantTraits{
	{}, // unused
	{Infinite, true},
	{Infinite, false},
	{Closed, true},
	{Closed, false},
	{ConstantPressure, true},
	{ConstantPressure, false},
}

// NewVariant returns the variant combining the given boundary and storage mode.
func NewVariant(b Boundary, variableStorage bool) (Variant, error) {
	for _, v := range Variants {
		if t := traits[v]; t.bnd == b && t.storage == variableStorage {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: boundary %v", ErrUnknownVariant, b)
}

// Valid reports whether v is one of Model1..Model6.
func (v Variant) Valid() bool { return v >= Model1 && v <= Model6 }

// Boundary is the outer-boundary condition of v.
func (v Variant) Boundary() Boundary {
	if !v.Valid() {
		return Infinite
	}
	return traits[v].bnd
}

// VariableStorage reports whether wellbore storage and skin apply to v.
func (v Variant) VariableStorage() bool {
	return v.Valid() && traits[v].storage
}

func (v Variant) String() string {
	if !v.Valid() {
		return "Variant(" + strconv.Itoa(int(v)) + ")"
	}
	return "model" + strconv.Itoa(int(v))
}

// Label is a human readable description, e.g. "variable storage + closed boundary".
func (v Variant) Label() string {
	if !v.Valid() {
		return v.String()
	}
	s := "constant storage"
	if v.VariableStorage() {
		s = "variable storage"
	}
	return s + " + " + v.Boundary().String() + " boundary"
}

// ParseVariant accepts "1".."6", "model3", "Model_3" or "<boundary>-<storage>"
// forms such as "closed-variable" and "constant-pressure-constant".
func ParseVariant(s string) (Variant, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.TrimPrefix(strings.TrimPrefix(k, "model"), "_")
	if i, err := strconv.Atoi(k); err == nil {
		if v := Variant(i); v.Valid() {
			return v, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}

	var storage bool
	switch {
	case strings.HasSuffix(k, "-variable"):
		storage, k = true, strings.TrimSuffix(k, "-variable")
	case strings.HasSuffix(k, "-constant"):
		k = strings.TrimSuffix(k, "-constant")
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
	for b, n := range boundaryNames {
		if k == n {
			return NewVariant(Boundary(b), storage)
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, int(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(b []byte) error {
	p, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}
