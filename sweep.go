package mfhw

// Sweep evaluates one curve per value of the parameter key, all other values
// taken from base. LfD follows when L or Lf is swept.
func Sweep(v Variant, base Parameters, key string, values, t []float64, highPrecision bool) []Curve {
	if len(t) == 0 {
		t = LogTimeSteps(DefaultSteps, DefaultLogStart, DefaultLogEnd)
	}
	cs := make([]Curve, len(values))
	for i, x := range values {
		p := base.Merge(Parameters{key: x})
		cs[i] = Evaluate(v, p, t, highPrecision)
	}
	return cs
}
