// Package config loads the baseline a session starts from: the model variant,
// the time grid, estimator settings and the default parameter set. Nothing is
// global; every caller owns the Baseline it loads.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/maseology/mfhw"
	"github.com/spf13/viper"
)

const envPrefix = "MFHW"

const (
	keyVariant       = "variant"
	keyHighPrecision = "high_precision"
	keyWorkers       = "workers"
	keySteps         = "grid.steps"
	keyLogStart      = "grid.log_start"
	keyLogEnd        = "grid.log_end"
	keyWeight        = "fit.weight"
	keyMaxIterations = "fit.max_iterations"
	keyTolerance     = "fit.tolerance"
	keyParameters    = "parameters"
)

// Baseline is the starting state of a session.
type Baseline struct {
	Variant       mfhw.Variant
	HighPrecision bool
	Workers       int // 0: one per CPU

	Steps            int
	LogStart, LogEnd float64 // log10 hours

	Weight        float64 // pressure share of the fit residual
	MaxIterations int
	Tolerance     float64

	Params mfhw.Parameters
}

// Default returns the built-in baseline.
func Default() Baseline {
	return Baseline{
		Variant:       mfhw.Model1,
		Steps:         mfhw.DefaultSteps,
		LogStart:      mfhw.DefaultLogStart,
		LogEnd:        mfhw.DefaultLogEnd,
		Weight:        .5,
		MaxIterations: 50,
		Tolerance:     1e-8,
		Params:        mfhw.DefaultParameters(),
	}
}

// Load reads the baseline from path (toml, yaml or json by extension) over
// the defaults. A missing or empty path yields the defaults. Every key can be
// overridden from the environment, e.g. MFHW_PARAMETERS_KF or MFHW_FIT_WEIGHT.
// v may be nil.
func Load(v *viper.Viper, path string) (Baseline, error) {
	if v == nil {
		v = viper.New()
	}
	d := Default()
	v.SetDefault(keyVariant, d.Variant.String())
	v.SetDefault(keyHighPrecision, d.HighPrecision)
	v.SetDefault(keyWorkers, d.Workers)
	v.SetDefault(keySteps, d.Steps)
	v.SetDefault(keyLogStart, d.LogStart)
	v.SetDefault(keyLogEnd, d.LogEnd)
	v.SetDefault(keyWeight, d.Weight)
	v.SetDefault(keyMaxIterations, d.MaxIterations)
	v.SetDefault(keyTolerance, d.Tolerance)
	for k, x := range d.Params {
		v.SetDefault(paramKey(k), x)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Baseline{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Baseline{}, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	vr, err := mfhw.ParseVariant(v.GetString(keyVariant))
	if err != nil {
		return Baseline{}, fmt.Errorf("config: %w", err)
	}
	b := Baseline{
		Variant:       vr,
		HighPrecision: v.GetBool(keyHighPrecision),
		Workers:       v.GetInt(keyWorkers),
		Steps:         v.GetInt(keySteps),
		LogStart:      v.GetFloat64(keyLogStart),
		LogEnd:        v.GetFloat64(keyLogEnd),
		Weight:        v.GetFloat64(keyWeight),
		MaxIterations: v.GetInt(keyMaxIterations),
		Tolerance:     v.GetFloat64(keyTolerance),
		Params:        make(mfhw.Parameters, len(d.Params)),
	}
	// viper folds key case; the parameter names are restored from the defaults
	for k := range d.Params {
		b.Params[k] = v.GetFloat64(paramKey(k))
	}
	b.Params = b.Params.Derive()

	if err := b.Validate(); err != nil {
		return Baseline{}, err
	}
	return b, nil
}

func paramKey(k string) string { return keyParameters + "." + k }

// Validate checks the grid, estimator settings and parameter invariants.
func (b Baseline) Validate() error {
	if !b.Variant.Valid() {
		return fmt.Errorf("config: %w: %v", mfhw.ErrUnknownVariant, b.Variant)
	}
	if b.Steps < 2 || b.LogEnd <= b.LogStart {
		return fmt.Errorf("config: %w: time grid %d steps over [%g,%g]", mfhw.ErrInvalidParameter, b.Steps, b.LogStart, b.LogEnd)
	}
	if b.Weight < 0. || b.Weight > 1. {
		return fmt.Errorf("config: %w: fit weight %g outside [0,1]", mfhw.ErrInvalidParameter, b.Weight)
	}
	if err := b.Params.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Parameters returns a copy of the baseline parameter set.
func (b Baseline) Parameters() mfhw.Parameters { return b.Params.Derive() }

// Times returns the baseline log-spaced time grid (hours).
func (b Baseline) Times() []float64 { return mfhw.LogTimeSteps(b.Steps, b.LogStart, b.LogEnd) }
