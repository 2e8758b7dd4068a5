package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/maseology/mfhw/fit"
	"github.com/maseology/mfhw/obs"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSampleCmd(a *app) *cobra.Command {
	var (
		m       modelFlags
		n       int
		seed    uint64
		obsPath string
		prefix  string
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Latin-hypercube sample the free table parameters",
		Long: `sample draws points over the bounds of the free rows of the parameter
table and evaluates every realisation. It writes <prefix>.samplespace.csv (unit
coordinates) and <prefix>.samples.csv (parameter values and, with --obs, the
misfit of each sample).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.setup(cmd, &m)
			if err != nil {
				return err
			}
			job := fit.Job{
				Variant:       s.variant,
				Table:         s.table,
				Base:          s.params,
				T:             a.base.Times(),
				Weight:        a.base.Weight,
				HighPrecision: s.hp,
			}
			if obsPath != "" {
				o, err := obs.ReadFile(obsPath)
				if err != nil {
					return err
				}
				job.T, job.P, job.D = o.T, o.P, o.D
			}
			if prefix == "" {
				prefix = time.Now().Format("060102150405") // batch = date
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			bar := progressbar.NewOptions(n,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("sampling"),
				progressbar.OptionShowCount(),
			)
			t0 := time.Now()
			ss, err := fit.Samples(ctx, job, n, seed, a.workers(), func(fit.Sample) { _ = bar.Add(1) })
			_ = bar.Finish()
			if err != nil {
				return err
			}
			a.log.Info("sampling complete", zap.Int("n", len(ss)), zap.Duration("elapsed", time.Since(t0)))

			var free []string
			for _, r := range s.table {
				if r.Free() {
					free = append(free, r.Name)
				}
			}
			if err := writeSamples(prefix, free, ss); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), " %d samples written to %s.*.csv\n", len(ss), prefix)
			return nil
		},
	}
	m.register(cmd)
	cmd.Flags().IntVarP(&n, "samples", "n", 100, "number of samples")
	cmd.Flags().Uint64Var(&seed, "seed", uint64(time.Now().UnixNano()), "random seed")
	cmd.Flags().StringVar(&obsPath, "obs", "", "observed t,p[,d] csv; adds the misfit of every sample")
	cmd.Flags().StringVar(&prefix, "prefix", "", "output prefix (default: a timestamp)")
	return cmd
}

func writeSamples(prefix string, free []string, ss []fit.Sample) error {
	ftoa := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	space := [][]string{append([]string{"k"}, free...)}
	values := [][]string{append(append([]string{"k"}, free...), "sse")}
	for _, s := range ss {
		u, v := []string{strconv.Itoa(s.Index)}, []string{strconv.Itoa(s.Index)}
		for j, name := range free {
			u = append(u, ftoa(s.U[j]))
			v = append(v, ftoa(s.Params[name]))
		}
		space = append(space, u)
		values = append(values, append(v, ftoa(s.SSE)))
	}
	if err := writeCSV(prefix+".samplespace.csv", space); err != nil {
		return err
	}
	return writeCSV(prefix+".samples.csv", values)
}

func writeCSV(fp string, recs [][]string) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("writeCSV failed: %w", err)
	}
	if err := csv.NewWriter(f).WriteAll(recs); err != nil {
		f.Close()
		return fmt.Errorf("writeCSV failed: %w", err)
	}
	return f.Close()
}
