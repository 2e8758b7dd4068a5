// Package project persists a working session: the selected variant, the full
// parameter set and the fitting table, as a single TOML record.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maseology/mfhw"
	"github.com/maseology/mfhw/fit"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	schemaVersion   = 1
	fileMode        = 0o644
	tempFilePattern = ".mfhw-*.toml.tmp"
)

// ErrVersion is returned for records written by a newer schema.
var ErrVersion = errors.New("unsupported project version")

// Record is the persisted state.
type Record struct {
	Version       int             `toml:"version"`
	Variant       mfhw.Variant    `toml:"variant"`
	HighPrecision bool            `toml:"high_precision"`
	Parameters    mfhw.Parameters `toml:"parameters"`
	Table         []fit.Parameter `toml:"table"`
}

// New returns a record owning copies of p and table. A nil table is replaced
// by the default table for v.
func New(v mfhw.Variant, p mfhw.Parameters, table []fit.Parameter, highPrecision bool) Record {
	if table == nil {
		table = fit.DefaultTable(v, p)
	}
	return Record{
		Version:       schemaVersion,
		Variant:       v,
		HighPrecision: highPrecision,
		Parameters:    p.Derive(),
		Table:         fit.SwitchVariant(table, v),
	}
}

// FromCompletion records the outcome of a fit.
func FromCompletion(c fit.Completion, highPrecision bool) Record {
	return New(c.Variant, c.Params, c.Table, highPrecision)
}

// Validate checks the variant and parameter invariants.
func (r Record) Validate() error {
	if r.Version > schemaVersion {
		return fmt.Errorf("%w: %d", ErrVersion, r.Version)
	}
	if !r.Variant.Valid() {
		return fmt.Errorf("project: %w: %v", mfhw.ErrUnknownVariant, r.Variant)
	}
	if err := r.Model().Validate(); err != nil {
		return fmt.Errorf("project: %w", err)
	}
	return nil
}

// Model returns the parameter set the record describes: the visible table
// rows over the stored parameters.
func (r Record) Model() mfhw.Parameters {
	return fit.Parameters(fit.SwitchVariant(r.Table, r.Variant), r.Parameters)
}

// Curve evaluates the recorded model at t.
func (r Record) Curve(t []float64) mfhw.Curve {
	return mfhw.Evaluate(r.Variant, r.Model(), t, r.HighPrecision)
}

// Load reads and validates a record.
func Load(fp string) (Record, error) {
	data, err := os.ReadFile(fp)
	if err != nil {
		return Record{}, fmt.Errorf("read project: %w", err)
	}
	var r Record
	if err := toml.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decode project %s: %w", fp, err)
	}
	if r.Parameters == nil {
		r.Parameters = mfhw.Parameters{}
	}
	r.Table = fit.SwitchVariant(r.Table, r.Variant)
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Save writes r to fp through a temporary file in the same directory.
func Save(fp string, r Record) error {
	if r.Version == 0 {
		r.Version = schemaVersion
	}
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	dir := filepath.Dir(fp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp project file: %w", err)
	}
	name := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(name)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp project file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp project file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp project file: %w", err)
	}
	if err := os.Rename(name, fp); err != nil {
		return fmt.Errorf("replace project file: %w", err)
	}
	cleanup = false
	return nil
}
