package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"crosswarped.com/snailfish"
	"crosswarped.com/snailfish/pkg/number"
)

type options struct {
	file     string
	maxSteps int
	workers  int
	trace    bool
	printSum bool
	verbose  bool

	log *zap.Logger
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "snailcli",
		Short:         "Add, reduce and measure snailfish numbers",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = newLogger(cmd.ErrOrStderr(), opts.verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress to stderr")
	root.PersistentFlags().IntVar(&opts.maxSteps, "max-steps", number.DefaultMaxSteps, "Maximum rewrites per reduction before giving up")

	sum := &cobra.Command{
		Use:   "sum",
		Short: "Print the magnitude of the sum of every number, in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSum(cmd, opts)
		},
	}
	sum.Flags().StringVarP(&opts.file, "file", "f", "", "The file to load numbers from (default stdin)")
	sum.Flags().BoolVar(&opts.trace, "trace", false, "Print every explode and split")
	sum.Flags().BoolVar(&opts.printSum, "print-sum", false, "Print the final sum before its magnitude")

	largest := &cobra.Command{
		Use:   "largest",
		Short: "Print the largest magnitude of the sum of any two different numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLargest(cmd, opts)
		},
	}
	largest.Flags().StringVarP(&opts.file, "file", "f", "", "The file to load numbers from (default stdin)")
	largest.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Number of goroutines searching pairs (default GOMAXPROCS)")
	largest.Flags().BoolVar(&opts.printSum, "print-sum", false, "Print the best pair and its sum before the magnitude")

	reduce := &cobra.Command{
		Use:   "reduce <number>...",
		Short: "Print each number fully reduced",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReduce(cmd, opts, args)
		},
	}
	reduce.Flags().BoolVar(&opts.trace, "trace", false, "Print every explode and split")

	magnitude := &cobra.Command{
		Use:   "magnitude <number>...",
		Short: "Print the magnitude of each number as written",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				n, err := number.Parse(arg)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n.Magnitude())
			}
			return nil
		},
	}

	root.AddCommand(sum, largest, reduce, magnitude)
	return root
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

func loadHomework(cmd *cobra.Command, opts *options) (*snailfish.Homework, error) {
	var r io.Reader = cmd.InOrStdin()
	source := "stdin"
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
		source = opts.file
	}

	hw, err := snailfish.ReadHomework(cmd.Context(), r)
	if err != nil {
		return nil, err
	}
	opts.log.Debug("loaded homework", zap.String("source", source), zap.Int("numbers", hw.Len()))
	return hw, nil
}

func traceTo(w io.Writer) func(number.Step) {
	return func(s number.Step) {
		fmt.Fprintf(w, "%-7s %-12s -> %s\n", s.Action, s.Target, s.Result)
	}
}

func runSum(cmd *cobra.Command, opts *options) error {
	hw, err := loadHomework(cmd, opts)
	if err != nil {
		return err
	}

	var stats number.Stats
	reduceOpts := []number.ReduceOption{
		number.WithMaxSteps(opts.maxSteps),
		number.WithStats(&stats),
	}
	if opts.trace {
		reduceOpts = append(reduceOpts, number.WithTrace(traceTo(cmd.OutOrStdout())))
	}

	start := time.Now()
	sum, err := hw.Sum(reduceOpts...)
	if err != nil {
		return err
	}
	opts.log.Debug("summed homework",
		zap.Int("explodes", stats.Explodes),
		zap.Int("splits", stats.Splits),
		zap.Duration("elapsed", time.Since(start)))

	if opts.printSum {
		fmt.Fprintln(cmd.OutOrStdout(), sum)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sum.Magnitude())
	return nil
}

func runLargest(cmd *cobra.Command, opts *options) error {
	hw, err := loadHomework(cmd, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := hw.LargestMagnitude(cmd.Context(), snailfish.LargestParams{
		Workers:  opts.workers,
		MaxSteps: opts.maxSteps,
	})
	if err != nil {
		return err
	}
	opts.log.Debug("searched pairs",
		zap.Int("first", res.First+1),
		zap.Int("second", res.Second+1),
		zap.Int("explodes", res.Stats.Explodes),
		zap.Int("splits", res.Stats.Splits),
		zap.Duration("elapsed", time.Since(start)))

	if opts.printSum {
		fmt.Fprintf(cmd.OutOrStdout(), "%d + %d = %s\n", res.First+1, res.Second+1, res.Sum)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Magnitude)
	return nil
}

func runReduce(cmd *cobra.Command, opts *options, args []string) error {
	for _, arg := range args {
		n, err := number.Parse(arg)
		if err != nil {
			return err
		}
		reduceOpts := []number.ReduceOption{number.WithMaxSteps(opts.maxSteps)}
		if opts.trace {
			reduceOpts = append(reduceOpts, number.WithTrace(traceTo(cmd.OutOrStdout())))
		}
		stats, err := n.Reduce(reduceOpts...)
		if err != nil {
			return err
		}
		opts.log.Debug("reduced", zap.String("input", arg), zap.Int("steps", stats.Steps()))
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
	return nil
}
