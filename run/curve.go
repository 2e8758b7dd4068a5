package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/maseology/mfhw"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCurveCmd(a *app) *cobra.Command {
	var (
		m   modelFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Compute the pressure and derivative type curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.setup(cmd, &m)
			if err != nil {
				return err
			}
			t0 := time.Now()
			c := mfhw.EvaluateConcurrent(s.variant, s.params, a.base.Times(), s.hp, a.workers())
			a.log.Info("curve computed",
				zap.Stringer("variant", s.variant),
				zap.Int("points", c.Len()),
				zap.Duration("elapsed", time.Since(t0)),
			)
			if out == "" {
				return c.WriteCSV(cmd.OutOrStdout())
			}
			return c.WriteCSVFile(out)
		},
	}
	m.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output csv (default stdout)")
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	var (
		m         modelFlags
		key, vals string
		dir       string
	)
	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   "Compute one curve per value of a single parameter",
		Example: `  mfhw sweep --key Lf --values "50,100,200" --dir out/`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.setup(cmd, &m)
			if err != nil {
				return err
			}
			vs, err := mfhw.ParseList(vals)
			if err != nil {
				return err
			}
			cs := mfhw.Sweep(s.variant, s.params, key, vs, a.base.Times(), s.hp)
			for i, c := range cs {
				fp := filepath.Join(dir, fmt.Sprintf("sweep.%s.%d.csv", key, i))
				if err := c.WriteCSVFile(fp); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), " %s = %g\t%s\n", key, vs[i], fp)
			}
			return nil
		},
	}
	m.register(cmd)
	cmd.Flags().StringVar(&key, "key", "", "parameter to sweep")
	cmd.Flags().StringVar(&vals, "values", "", "comma separated values")
	cmd.Flags().StringVar(&dir, "dir", ".", "output directory")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("values")
	return cmd
}
