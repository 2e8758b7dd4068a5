package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/maseology/mfhw"
	"github.com/maseology/mfhw/obs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "mfhw.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[grid]\nsteps = 5\n\n[parameters]\nnf = 2.0\n"), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--config", cfg))
	err := cmd.Execute()
	return out.String(), err
}

func TestCurveCommand(t *testing.T) {
	out, err := execute(t, "curve", "--variant", "2", "--set", "S=3", "--set", "kf=0.002")
	require.NoError(t, err)

	got, err := obs.Read(bytes.NewBufferString(out))
	require.NoError(t, err)

	p := mfhw.DefaultParameters().Merge(mfhw.Parameters{mfhw.KeyNf: 2., mfhw.KeyS: 3., mfhw.KeyKf: .002})
	want := mfhw.Evaluate(mfhw.Model2, p, mfhw.LogTimeSteps(5, mfhw.DefaultLogStart, mfhw.DefaultLogEnd), false)
	assert.Equal(t, want, got)
}

func TestSweepCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "sweep", "--variant", "2", "--key", "Lf", "--values", "50，100", "--dir", dir)
	require.NoError(t, err)

	a, err := obs.ReadFile(filepath.Join(dir, "sweep.Lf.0.csv"))
	require.NoError(t, err)
	b, err := obs.ReadFile(filepath.Join(dir, "sweep.Lf.1.csv"))
	require.NoError(t, err)
	n := a.Len() - 1
	assert.Greater(t, a.P[n], b.P[n], "shorter fractures, larger drawdown")
}

func TestCommandErrors(t *testing.T) {
	_, err := execute(t, "curve", "--set", "kf")
	assert.Error(t, err)

	_, err = execute(t, "curve", "--set", "kf=abc")
	assert.ErrorIs(t, err, mfhw.ErrInvalidParameter)

	_, err = execute(t, "curve", "--variant", "9")
	assert.ErrorIs(t, err, mfhw.ErrUnknownVariant)

	_, err = execute(t, "fit")
	assert.Error(t, err, "--obs is required")
}

func TestHighPrecisionFlag(t *testing.T) {
	root := newRootCmd()
	c, _, err := root.Find([]string{"curve"})
	require.NoError(t, err)
	f := c.Flags().Lookup("high-precision")
	require.NotNil(t, f)
	assert.Contains(t, f.Usage, "Stehfest term count (default 8) instead of 4")

	out, err := execute(t, "curve", "--variant", "2", "--high-precision")
	require.NoError(t, err)
	got, err := obs.Read(bytes.NewBufferString(out))
	require.NoError(t, err)

	p := mfhw.DefaultParameters().Merge(mfhw.Parameters{mfhw.KeyNf: 2.})
	want := mfhw.Evaluate(mfhw.Model2, p, mfhw.LogTimeSteps(5, mfhw.DefaultLogStart, mfhw.DefaultLogEnd), true)
	assert.Equal(t, want, got)
}
