package fit

import "github.com/maseology/mfhw"

// Parameter is one row of the fitting table.
type Parameter struct {
	Name    string  `toml:"name" json:"name"`
	Label   string  `toml:"label" json:"label"`
	Value   float64 `toml:"value" json:"value"`
	Min     float64 `toml:"min" json:"min"`
	Max     float64 `toml:"max" json:"max"`
	Fit     bool    `toml:"fit" json:"fit"`
	Visible bool    `toml:"visible" json:"visible"`
}

// Free reports whether the parameter is adjusted by the estimator.
func (p Parameter) Free() bool { return p.Fit && p.Visible }

var table = []Parameter{
	{Name: mfhw.KeyKf, Label: "inner permeability", Value: 1., Min: .001, Max: 1000., Fit: true},
	{Name: mfhw.KeyKm, Label: "outer permeability", Value: .1, Min: .0001, Max: 100., Fit: true},
	{Name: mfhw.KeyL, Label: "horizontal well length", Value: 1000., Min: 100., Max: 5000.},
	{Name: mfhw.KeyLf, Label: "fracture half-length", Value: 100., Min: 10., Max: 1000., Fit: true},
	{Name: mfhw.KeyNf, Label: "fracture count", Value: 4., Min: 1., Max: 50.},
	{Name: mfhw.KeyOmega1, Label: "inner storativity ratio", Value: .1, Min: .001, Max: 1., Fit: true},
	{Name: mfhw.KeyOmega2, Label: "outer storativity ratio", Value: .01, Min: .001, Max: 1., Fit: true},
	{Name: mfhw.KeyLambda1, Label: "interporosity coefficient", Value: 1e-6, Min: 1e-9, Max: 1., Fit: true},
	{Name: mfhw.KeyRmD, Label: "composite radius", Value: 5., Min: 1.1, Max: 100., Fit: true},
	{Name: mfhw.KeyReD, Label: "outer boundary radius", Value: 20., Min: 5., Max: 5000., Fit: true},
	{Name: mfhw.KeyCD, Label: "wellbore storage", Value: .01, Min: 1e-5, Max: 1000., Fit: true},
	{Name: mfhw.KeyS, Label: "skin", Value: 0., Min: -5., Max: 50., Fit: true},
	{Name: mfhw.KeyGammaD, Label: "stress sensitivity", Value: 0., Min: 0., Max: .5, Fit: true},
}

// DefaultTable returns the fitting table for variant v. Values present in base
// replace the table defaults; visibility follows v.
func DefaultTable(v mfhw.Variant, base mfhw.Parameters) []Parameter {
	t := make([]Parameter, len(table))
	copy(t, table)
	for i := range t {
		if x, ok := base[t[i].Name]; ok {
			t[i].Value = x
		}
	}
	return SwitchVariant(t, v)
}

// visible is the presentation rule: the outer radius only exists for bounded
// variants, storage and skin only for variable-storage ones.
func visible(name string, v mfhw.Variant) bool {
	switch name {
	case mfhw.KeyReD:
		return v.Boundary() != mfhw.Infinite
	case mfhw.KeyCD, mfhw.KeyS:
		return v.VariableStorage()
	}
	return true
}

// SwitchVariant returns a copy of t with visibility recomputed for v. Values,
// bounds and fit flags are untouched.
func SwitchVariant(t []Parameter, v mfhw.Variant) []Parameter {
	o := make([]Parameter, len(t))
	for i, p := range t {
		p.Visible = visible(p.Name, v)
		o[i] = p
	}
	return o
}

// Assign returns a copy of t with value, bounds and fit flag taken from the
// same-named rows of u. Visibility is never copied.
func Assign(t, u []Parameter) []Parameter {
	o := append([]Parameter(nil), t...)
	for _, n := range u {
		for i := range o {
			if o[i].Name == n.Name {
				o[i].Value, o[i].Min, o[i].Max, o[i].Fit = n.Value, n.Min, n.Max, n.Fit
				break
			}
		}
	}
	return o
}

// Lookup returns the row named name.
func Lookup(t []Parameter, name string) (Parameter, bool) {
	for _, p := range t {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Parameters returns base overwritten by the value of every visible row, with
// LfD re-derived.
func Parameters(t []Parameter, base mfhw.Parameters) mfhw.Parameters {
	p := base.Clone()
	for _, r := range t {
		if r.Visible {
			p[r.Name] = r.Value
		}
	}
	return p.Derive()
}
