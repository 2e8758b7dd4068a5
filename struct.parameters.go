package mfhw

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidParameter is wrapped by every parameter validation and parse error.
var ErrInvalidParameter = errors.New("invalid parameter")

// parameter keys
const (
	KeyPhi       = "phi" // porosity
	KeyMu        = "mu"  // viscosity (mPa·s)
	KeyB         = "B"   // formation volume factor
	KeyCt        = "Ct"  // total compressibility (1/MPa)
	KeyQ         = "q"   // rate (m³/d)
	KeyH         = "h"   // thickness (m)
	KeyKf        = "kf"  // inner region permeability (mD)
	KeyKm        = "km"  // outer region permeability (mD)
	KeyL         = "L"   // horizontal well length (m)
	KeyLf        = "Lf"  // fracture half-length (m)
	KeyLfD       = "LfD" // Lf/L
	KeyNf        = "nf"  // fracture count
	KeyRmD       = "rmD" // composite radius
	KeyReD       = "reD" // outer boundary radius
	KeyOmega1    = "omega1"
	KeyOmega2    = "omega2"
	KeyLambda1   = "lambda1"
	KeyCD        = "cD" // dimensionless wellbore storage
	KeyS         = "S"  // skin
	KeyGammaD    = "gamaD"
	KeyN         = "N" // Stehfest terms
	lfdThreshold = 1e-9
)

// Parameters maps parameter keys to values. Callers own the map; solvers never
// retain or modify it.
type Parameters map[string]float64

// DefaultParameters returns a complete parameter set with the baseline values
// of a variable-storage, bounded model.
func DefaultParameters() Parameters {
	p := Parameters{
		KeyPhi:     .05,
		KeyMu:      .5,
		KeyB:       1.05,
		KeyCt:      5e-4,
		KeyQ:       5.,
		KeyH:       20.,
		KeyKf:      1e-3,
		KeyKm:      1e-4,
		KeyL:       1000.,
		KeyLf:      100.,
		KeyNf:      4.,
		KeyRmD:     4.,
		KeyReD:     10.,
		KeyOmega1:  .4,
		KeyOmega2:  .08,
		KeyLambda1: 1e-3,
		KeyCD:      .01,
		KeyS:       1.,
		KeyGammaD:  .02,
		KeyN:       8.,
	}
	return p.Derive()
}

// Value returns p[key], or def when the key is absent.
func (p Parameters) Value(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Clone returns an independent copy of p.
func (p Parameters) Clone() Parameters {
	c := make(Parameters, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Merge returns a copy of p overwritten by every key of o, with LfD re-derived.
func (p Parameters) Merge(o Parameters) Parameters {
	c := p.Clone()
	for k, v := range o {
		c[k] = v
	}
	return c.Derive()
}

// Derive returns a copy of p with LfD = Lf/L when L is positive and Lf present.
func (p Parameters) Derive() Parameters {
	c := p.Clone()
	c.derive()
	return c
}

func (p Parameters) derive() {
	lf, ok := p[KeyLf]
	if !ok {
		return
	}
	if l := p.Value(KeyL, 0.); l > lfdThreshold {
		p[KeyLfD] = lf / l
	}
}

// Validate checks the physical invariants of p. Missing keys are not errors.
func (p Parameters) Validate() error {
	for k, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidParameter, k)
		}
	}
	for _, k := range []string{KeyPhi, KeyMu, KeyCt, KeyL, KeyKf, KeyKm, KeyH, KeyOmega1, KeyOmega2, KeyLambda1} {
		if v, ok := p[k]; ok && v <= 0. {
			return fmt.Errorf("%w: %s = %g must be positive", ErrInvalidParameter, k, v)
		}
	}
	if v, ok := p[KeyNf]; ok && v < 1. {
		return fmt.Errorf("%w: nf = %g, at least one fracture is required", ErrInvalidParameter, v)
	}
	if v, ok := p[KeyRmD]; ok && v <= 1. {
		return fmt.Errorf("%w: rmD = %g must exceed 1", ErrInvalidParameter, v)
	}
	if rm, ok := p[KeyRmD]; ok {
		if re, ok := p[KeyReD]; ok && re > 0. && re <= rm {
			return fmt.Errorf("%w: reD = %g must exceed rmD = %g", ErrInvalidParameter, re, rm)
		}
	}
	return nil
}

// SetText parses text as the new value of key. Malformed input returns an
// error and leaves the previous value in place.
func (p Parameters) SetText(key, text string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %q is not a number", ErrInvalidParameter, key, text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s: %q is not finite", ErrInvalidParameter, key, text)
	}
	p[key] = v
	if key == KeyL || key == KeyLf {
		p.derive()
	}
	return nil
}

// ParseList returns every number of a comma separated list, accepting the
// full-width comma as a separator. Non-numeric entries are skipped; a list
// with no number at all is an error.
func ParseList(text string) ([]float64, error) {
	text = strings.ReplaceAll(text, "，", ",")
	var vs []float64
	for _, s := range strings.Split(text, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			vs = append(vs, v)
		}
	}
	if len(vs) == 0 {
		return nil, fmt.Errorf("%w: no number in %q", ErrInvalidParameter, text)
	}
	return vs, nil
}
