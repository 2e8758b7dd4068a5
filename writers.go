package mfhw

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVHeader is the first record written by Curve.WriteCSV.
var CSVHeader = []string{"t", "Dp", "dDp"}

// WriteCSV writes the curve as "t,Dp,dDp" records.
func (c Curve) WriteCSV(w io.Writer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("WriteCSV failed: %w", err)
	}
	rec := make([]string, 3)
	for i := range c.T {
		rec[0] = strconv.FormatFloat(c.T[i], 'g', -1, 64)
		rec[1] = strconv.FormatFloat(c.P[i], 'g', -1, 64)
		rec[2] = strconv.FormatFloat(c.D[i], 'g', -1, 64)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("WriteCSV failed: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteCSV failed: %w", err)
	}
	return nil
}

// WriteCSVFile writes the curve to fp, replacing any existing file.
func (c Curve) WriteCSVFile(fp string) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("WriteCSVFile failed: %w", err)
	}
	if err := c.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
