// Package obs reads observed well-test series: elapsed time (h), pressure
// change and, optionally, its logarithmic derivative (MPa).
package obs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/maseology/mfhw"
	"github.com/maseology/mfhw/bourdet"
)

// ErrEmpty is returned when a source holds no observation.
var ErrEmpty = errors.New("no observations")

// Read parses comma separated rows of t, p[, d]. A non-numeric first row is
// taken as a header; blank lines are skipped. When no derivative column is
// given it is computed with the Bourdet estimator. Rows are sorted by time.
func Read(r io.Reader) (mfhw.Curve, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var c mfhw.Curve
	withD := true
	for ln := 1; ; ln++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return mfhw.Curve{}, fmt.Errorf("obs: %w", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < 2 {
			return mfhw.Curve{}, fmt.Errorf("obs: line %d: expected t,p[,d], got %d fields", ln, len(rec))
		}
		vs, err := parse(rec)
		if err != nil {
			if c.Len() == 0 && ln == 1 {
				continue // header
			}
			return mfhw.Curve{}, fmt.Errorf("obs: line %d: %w", ln, err)
		}
		c.T = append(c.T, vs[0])
		c.P = append(c.P, vs[1])
		if len(vs) > 2 {
			c.D = append(c.D, vs[2])
		} else {
			withD = false
		}
	}
	if c.Len() == 0 {
		return mfhw.Curve{}, ErrEmpty
	}

	if !withD {
		c.D = nil
	}
	sortByTime(&c)
	if c.D == nil {
		c.D = bourdet.Derivative(c.T, c.P, bourdet.DefaultWindow)
	}
	if err := c.Validate(); err != nil {
		return mfhw.Curve{}, fmt.Errorf("obs: %w", err)
	}
	return c, nil
}

// ReadFile reads a series from fp.
func ReadFile(fp string) (mfhw.Curve, error) {
	f, err := os.Open(fp)
	if err != nil {
		return mfhw.Curve{}, fmt.Errorf("obs: %w", err)
	}
	defer f.Close()
	c, err := Read(f)
	if err != nil {
		return mfhw.Curve{}, fmt.Errorf("%s: %w", fp, err)
	}
	return c, nil
}

func parse(rec []string) ([]float64, error) {
	n := min(len(rec), 3)
	vs := make([]float64, 0, n)
	for _, s := range rec[:n] {
		s = strings.TrimSpace(s)
		if s == "" {
			break
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		vs = append(vs, v)
	}
	if len(vs) < 2 {
		return nil, fmt.Errorf("expected t,p[,d]")
	}
	return vs, nil
}

func sortByTime(c *mfhw.Curve) {
	ix := make([]int, c.Len())
	for i := range ix {
		ix[i] = i
	}
	sort.SliceStable(ix, func(a, b int) bool { return c.T[ix[a]] < c.T[ix[b]] })
	reorder := func(s []float64) []float64 {
		if s == nil {
			return nil
		}
		o := make([]float64, len(s))
		for i, j := range ix {
			o[i] = s[j]
		}
		return o
	}
	c.T, c.P, c.D = reorder(c.T), reorder(c.P), reorder(c.D)
}
