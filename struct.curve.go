package mfhw

import (
	"errors"
	"fmt"
)

// ErrInvalidCurve is wrapped by Curve.Validate errors.
var ErrInvalidCurve = errors.New("invalid curve")

// Curve is a pressure-transient response: time (h), pressure change (MPa) and
// its logarithmic derivative (MPa), all the same length.
type Curve struct {
	T, P, D []float64
}

// Len is the number of samples.
func (c Curve) Len() int { return len(c.T) }

// Validate checks equal lengths and strictly increasing time.
func (c Curve) Validate() error {
	if len(c.P) != len(c.T) || len(c.D) != len(c.T) {
		return fmt.Errorf("%w: lengths t=%d p=%d d=%d", ErrInvalidCurve, len(c.T), len(c.P), len(c.D))
	}
	for i := 1; i < len(c.T); i++ {
		if c.T[i] <= c.T[i-1] {
			return fmt.Errorf("%w: time not increasing at %d", ErrInvalidCurve, i)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c Curve) Clone() Curve {
	return Curve{
		T: append([]float64(nil), c.T...),
		P: append([]float64(nil), c.P...),
		D: append([]float64(nil), c.D...),
	}
}
