package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/maseology/mfhw/fit"
	"github.com/maseology/mfhw/obs"
	"github.com/maseology/mfhw/project"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFitCmd(a *app) *cobra.Command {
	var (
		m                 modelFlags
		obsPath           string
		weight            float64
		starts, evals     int
		seed              uint64
		savePath, outPath string
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Estimate the free table parameters from observed data",
		Long: `fit adjusts the visible, fit-flagged rows of the parameter table until the
model matches the observed pressure and derivative. Interrupting the command
stops at the next iteration and keeps the best parameters so far.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.setup(cmd, &m)
			if err != nil {
				return err
			}
			o, err := obs.ReadFile(obsPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("weight") {
				weight = a.base.Weight
			}
			job := fit.Job{
				Variant:       s.variant,
				Table:         s.table,
				Base:          s.params,
				T:             o.T,
				P:             o.P,
				D:             o.D,
				Weight:        weight,
				HighPrecision: s.hp,
			}

			if starts > 0 {
				t0 := time.Now()
				seeded, sse, err := fit.Seed(job, starts, evals, seed)
				if err != nil {
					return err
				}
				job = seeded
				a.log.Info("pre-search complete", zap.Float64("sse", sse), zap.Duration("elapsed", time.Since(t0)))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			c, err := a.fit(ctx, cmd, job)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, " %s after %d iterations, sse %.4e (rmse p %.4e, d %.4e)\n", c.Reason, c.Iterations, c.SSE, c.RMSEP, c.RMSED)
			for _, r := range c.Table {
				if r.Free() {
					fmt.Fprintf(w, "  %-8s %.6g\n", r.Name, r.Value)
				}
			}

			if savePath != "" {
				if err := project.Save(savePath, project.FromCompletion(c, s.hp)); err != nil {
					return err
				}
			}
			if outPath != "" {
				r := project.FromCompletion(c, s.hp)
				if err := r.Curve(o.T).WriteCSVFile(outPath); err != nil {
					return err
				}
			}
			return nil
		},
	}
	m.register(cmd)
	cmd.Flags().StringVar(&obsPath, "obs", "", "observed t,p[,d] csv")
	cmd.Flags().Float64Var(&weight, "weight", .5, "pressure share of the residual (derivative gets the rest)")
	cmd.Flags().IntVar(&starts, "starts", 0, "Latin-hypercube starts of a pre-search (0: none)")
	cmd.Flags().IntVar(&evals, "evals", 200, "pre-search evaluation budget")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "pre-search random seed")
	cmd.Flags().StringVar(&savePath, "save", "", "save the fitted project")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the fitted curve at the observed times")
	_ = cmd.MarkFlagRequired("obs")
	return cmd
}

// fit runs the estimator in the background, rendering one bar step per
// iteration.
func (a *app) fit(ctx context.Context, cmd *cobra.Command, job fit.Job) (fit.Completion, error) {
	e := fit.NewEstimator(
		fit.WithMaxIterations(a.base.MaxIterations),
		fit.WithTolerance(a.base.Tolerance),
		fit.WithWorkers(a.workers()),
		fit.WithLogger(a.log),
	)
	r, err := e.Start(ctx, job)
	if err != nil {
		return fit.Completion{}, err
	}
	defer r.Cancel()

	bar := progressbar.NewOptions(e.MaxIterations,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("fitting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	for p := range r.Progress() {
		bar.Describe(fmt.Sprintf("sse %.3e", p.SSE))
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return <-r.Done(), nil
}
