package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maseology/mfhw"
	"github.com/maseology/mfhw/fit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripReproducesCurve(t *testing.T) {
	p := mfhw.DefaultParameters().Merge(mfhw.Parameters{mfhw.KeyNf: 2., mfhw.KeyKf: 2.5e-3})
	tbl := fit.DefaultTable(mfhw.Model3, p)
	for i := range tbl {
		if tbl[i].Name == mfhw.KeyS {
			tbl[i].Value, tbl[i].Min, tbl[i].Fit = 2.25, -1., false
		}
	}
	r := New(mfhw.Model3, p, tbl, false)

	fp := filepath.Join(t.TempDir(), "sub", "well.toml")
	require.NoError(t, Save(fp, r))
	got, err := Load(fp)
	require.NoError(t, err)

	assert.Equal(t, r, got)
	assert.Equal(t, 2.25, got.Model()[mfhw.KeyS])

	ts := mfhw.LogTimeSteps(12, -2., 2.)
	assert.Equal(t, r.Curve(ts), got.Curve(ts))

	b, err := os.ReadFile(fp)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `variant = 'model3'`) || strings.Contains(string(b), `variant = "model3"`))
	assert.Contains(t, string(b), "gamaD")
}

func TestHiddenRowsKeepParameterValue(t *testing.T) {
	p := mfhw.DefaultParameters()
	r := New(mfhw.Model2, p, nil, false)
	s, ok := fit.Lookup(r.Table, mfhw.KeyS)
	require.True(t, ok)
	assert.False(t, s.Visible)

	r.Table = fit.Assign(r.Table, []fit.Parameter{{Name: mfhw.KeyS, Value: 9., Max: 50.}})
	assert.Equal(t, p[mfhw.KeyS], r.Model()[mfhw.KeyS])
}

func TestLoadRejects(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"variant": "version = 1\nvariant = 'model7'\n",
		"param":   "version = 1\nvariant = 'model2'\n[parameters]\nphi = -1.0\n",
		"newer":   "version = 2\nvariant = 'model2'\n",
		"syntax":  "variant = \n",
	} {
		fp := filepath.Join(dir, name+".toml")
		require.NoError(t, os.WriteFile(fp, []byte(body), 0o600))
		_, err := Load(fp)
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(dir, "variant.toml"))
	assert.ErrorIs(t, err, mfhw.ErrUnknownVariant)
	_, err = Load(filepath.Join(dir, "newer.toml"))
	assert.ErrorIs(t, err, ErrVersion)
	_, err = Load(filepath.Join(dir, "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRejectsInvalid(t *testing.T) {
	r := New(mfhw.Model1, mfhw.DefaultParameters().Merge(mfhw.Parameters{mfhw.KeyRmD: .5}), nil, false)
	fp := filepath.Join(t.TempDir(), "x.toml")
	assert.ErrorIs(t, Save(fp, r), mfhw.ErrInvalidParameter)
	_, err := os.Stat(fp)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
