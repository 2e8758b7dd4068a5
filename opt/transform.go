// Package opt maps bounded parameters to and from the unit hypercube and
// searches that cube for good starting points.
package opt

import "math"

// Transform maps a parameter value v to a search coordinate u and back.
type Transform interface {
	Forward(v float64) float64
	Inverse(u float64) float64
}

// Linear maps [Min,Max] onto [0,1].
type Linear struct{ Min, Max float64 }

func (t Linear) Forward(v float64) float64 { return (v - t.Min) / (t.Max - t.Min) }
func (t Linear) Inverse(u float64) float64 { return t.Min + u*(t.Max-t.Min) }

// LogLinear maps [Min,Max] onto [0,1] uniformly in log10; Min must be positive.
type LogLinear struct{ Min, Max float64 }

func (t LogLinear) Forward(v float64) float64 {
	lo := math.Log10(t.Min)
	return (math.Log10(v) - lo) / (math.Log10(t.Max) - lo)
}

func (t LogLinear) Inverse(u float64) float64 {
	lo := math.Log10(t.Min)
	return math.Pow(10., lo+u*(math.Log10(t.Max)-lo))
}

// Log10 is the unbounded decade coordinate, u = log10(v).
type Log10 struct{}

func (Log10) Forward(v float64) float64 { return math.Log10(v) }
func (Log10) Inverse(u float64) float64 { return math.Pow(10., u) }

// Identity leaves values unchanged.
type Identity struct{}

func (Identity) Forward(v float64) float64 { return v }
func (Identity) Inverse(u float64) float64 { return u }

// Unit returns the unit-cube transform for a parameter bounded by [min,max]:
// log-uniform when min is positive, uniform otherwise.
func Unit(min, max float64) Transform {
	if min > 0. {
		return LogLinear{min, max}
	}
	return Linear{min, max}
}

// Iteration returns the unbounded coordinate used while iterating a parameter
// with lower bound min: decades when min is positive, raw values otherwise.
func Iteration(min float64) Transform {
	if min > 0. {
		return Log10{}
	}
	return Identity{}
}

// Clamp limits v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
