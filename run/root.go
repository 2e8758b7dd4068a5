package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/maseology/mfhw"
	"github.com/maseology/mfhw/config"
	"github.com/maseology/mfhw/fit"
	"github.com/maseology/mfhw/project"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app is the state shared by every sub-command.
type app struct {
	cfgPath string
	verbose bool
	log     *zap.Logger
	base    config.Baseline
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "mfhw",
		Short: "Pressure-transient model of a multi-fractured horizontal well",
		Long: `mfhw computes type curves of a multi-fractured horizontal well in a
composite dual-porosity reservoir and fits them to observed well-test data.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := zap.NewProductionConfig()
			if a.verbose {
				cfg = zap.NewDevelopmentConfig()
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.log = l

			b, err := config.Load(viper.New(), a.cfgPath)
			if err != nil {
				return err
			}
			a.base = b
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "mfhw.toml", "baseline configuration file (toml, yaml or json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newCurveCmd(a),
		newSweepCmd(a),
		newFitCmd(a),
		newSampleCmd(a),
	)
	return root
}

func (a *app) workers() int {
	if a.base.Workers > 0 {
		return a.base.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// modelFlags select the model a command works on: the configured baseline,
// optionally replaced by a saved project, then adjusted from the command line.
type modelFlags struct {
	variant       string
	project       string
	set           []string
	highPrecision bool
}

func (m *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.variant, "variant", "", `model variant, e.g. "3", "model3" or "closed-variable"`)
	cmd.Flags().StringVarP(&m.project, "project", "p", "", "start from a saved project")
	cmd.Flags().StringArrayVar(&m.set, "set", nil, "parameter override key=value (repeatable)")
	cmd.Flags().BoolVar(&m.highPrecision, "high-precision", false, "use the configured Stehfest term count (default 8) instead of 4, with adaptive quadrature")
}

type setup struct {
	variant mfhw.Variant
	params  mfhw.Parameters // complete set, table values applied
	table   []fit.Parameter
	hp      bool
}

func (a *app) setup(cmd *cobra.Command, m *modelFlags) (setup, error) {
	s := setup{variant: a.base.Variant, params: a.base.Parameters(), hp: a.base.HighPrecision}
	if m.project != "" {
		r, err := project.Load(m.project)
		if err != nil {
			return setup{}, err
		}
		s.variant, s.params, s.table, s.hp = r.Variant, r.Model(), r.Table, r.HighPrecision
		a.log.Info("project loaded", zap.String("path", m.project), zap.Stringer("variant", r.Variant))
	}
	if m.variant != "" {
		v, err := mfhw.ParseVariant(m.variant)
		if err != nil {
			return setup{}, err
		}
		s.variant = v
	}
	if cmd.Flags().Changed("high-precision") {
		s.hp = m.highPrecision
	}
	if s.table == nil {
		s.table = fit.DefaultTable(s.variant, s.params)
	}
	s.table = fit.SwitchVariant(s.table, s.variant)

	for _, kv := range m.set {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return setup{}, fmt.Errorf("--set %q: expected key=value", kv)
		}
		k = strings.TrimSpace(k)
		if err := s.params.SetText(k, v); err != nil {
			return setup{}, err
		}
		if r, ok := fit.Lookup(s.table, k); ok {
			r.Value = s.params[k]
			s.table = fit.Assign(s.table, []fit.Parameter{r})
		}
	}

	s.params = fit.Parameters(s.table, s.params)
	if err := s.params.Validate(); err != nil {
		return setup{}, err
	}
	return s, nil
}
