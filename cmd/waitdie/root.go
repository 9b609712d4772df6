package main

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"waitdie/config"
	"waitdie/schedule"
	"waitdie/server"
)

type rootFlags struct {
	configPath string
	order      string
	maxRounds  int
	logLevel   string
	format     string
	noColor    bool
	metrics    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "waitdie",
		Short:         "Simulate a Wait-Die lock scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&flags.order, "order", "", "pool order: ascending or descending")
	pf.IntVar(&flags.maxRounds, "max-rounds", 0, "abort a run after this many rounds (0 = unlimited)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn or error")
	pf.StringVar(&flags.format, "format", formatTable, "output format: table or text")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	pf.BoolVar(&flags.metrics, "metrics", false, "print event counters after the run")

	cmd.AddCommand(newRunCmd(flags), newSampleCmd(flags))
	return cmd
}

// loadConfig reads the configuration file, if any, and applies the flags
// that were set explicitly.
func (f *rootFlags) loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}

	if fs.Changed("order") {
		cfg.Order = f.order
	}
	if fs.Changed("max-rounds") {
		cfg.MaxRounds = f.maxRounds
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if f.metrics {
		cfg.Metrics.Enabled = true
	}
	return cfg, cfg.Validate()
}

// execute schedules every input and prints the results to out.
func (f *rootFlags) execute(cmd *cobra.Command, inputs []namedInput) error {
	cfg, err := f.loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	p, err := newPrinter(f.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if f.noColor {
		color.NoColor = true
	}

	w, err := server.New(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ops := make([][]schedule.Operation, len(inputs))
	for i, in := range inputs {
		ops[i] = in.ops
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := w.RunAll(ctx, ops...)
	if err != nil {
		return err
	}

	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		p.print(inputs[i].name, res)
	}
	if cfg.Metrics.Enabled {
		p.printCounters(w.Counters())
	}
	return nil
}

type namedInput struct {
	name string
	ops  []schedule.Operation
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		files []string
		ops   []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Schedule inputs from YAML files or compact notation",
		Example: `  waitdie run --ops "w(A,pear) w(A,apple) c(pear) c(apple)"
  waitdie run --file input.yaml --order descending`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var inputs []namedInput
			for _, path := range files {
				f, err := schedule.LoadFile(path)
				if err != nil {
					return err
				}
				name := f.Name
				if name == "" {
					name = path
				}
				inputs = append(inputs, namedInput{name: name, ops: f.Operations})
			}
			for _, s := range ops {
				parsed, err := schedule.ParseOperations(s)
				if err != nil {
					return err
				}
				inputs = append(inputs, namedInput{name: s, ops: parsed})
			}
			if len(inputs) == 0 {
				return errors.New("nothing to run: pass --file or --ops")
			}
			return flags.execute(cmd, inputs)
		},
	}

	cmd.Flags().StringArrayVar(&files, "file", nil, "YAML input file (repeatable)")
	cmd.Flags().StringArrayVar(&ops, "ops", nil, "input in compact notation (repeatable)")
	return cmd
}

func newSampleCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "sample [one|two|three]...",
		Short:     "Schedule the built-in samples",
		ValidArgs: server.SampleNames(),
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = server.SampleNames()
			}
			inputs := make([]namedInput, len(args))
			for i, name := range args {
				ops, err := server.Sample(name)
				if err != nil {
					return err
				}
				inputs[i] = namedInput{name: name, ops: ops}
			}
			return flags.execute(cmd, inputs)
		},
	}
}
