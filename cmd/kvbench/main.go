// Package main provides the CLI entry point for kvbench, a latency
// benchmark for embedded key-value storage engines.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/weiihann/kvbench/harness"
	"github.com/weiihann/kvbench/report"
	"github.com/weiihann/kvbench/store"
	_ "github.com/weiihann/kvbench/store/badgerstore"
	_ "github.com/weiihann/kvbench/store/boltstore"
	_ "github.com/weiihann/kvbench/store/mdbxstore"
	_ "github.com/weiihann/kvbench/store/memstore"
	_ "github.com/weiihann/kvbench/store/pebblestore"
	"github.com/weiihann/kvbench/workload"
)

func main() {
	a := newApp()

	root := a.newRootCmd()
	if err := root.Execute(); err != nil {
		a.logger.Error("kvbench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// app carries the configuration and logger shared by all commands.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
}

func newApp() *app {
	return &app{
		v: viper.New(),
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})),
	}
}

func (a *app) newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "kvbench",
		Short: "Key-value storage engine latency benchmark",
		Long: `Kvbench synthesizes randomized key-value workloads, replays them against
an embedded storage engine while timing every operation, and summarizes the
latencies. Workloads and results are exchanged as JSON on stdin/stdout so the
stages can be chained with pipes:

  kvbench generate '{"batch":[{"put":[16,100]}]}' 10000 > writes.json
  kvbench run pebble ./db < writes.json > /dev/null
  kvbench sample '{"get":16}' 10000 < writes.json | kvbench run pebble ./db | kvbench report`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd, configPath)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "",
		"Optional config file (yaml, toml or json)")
	flags.String("log-level", "info",
		"Log level: debug, info, warn, error")
	flags.Int64("seed", 0,
		"Random seed (0 = use current time)")
	flags.StringP("input", "i", "-",
		"Input file (- for stdin)")
	flags.StringP("output", "o", "-",
		"Output file (- for stdout)")

	root.AddCommand(
		a.newGenerateCmd(),
		a.newSampleCmd(),
		a.newRunCmd(),
		a.newReportCmd(),
		a.newEnginesCmd(),
	)

	return root
}

// configure binds flags and KVBENCH_* environment variables into viper,
// reads the optional config file and rebuilds the logger.
func (a *app) configure(cmd *cobra.Command, configPath string) error {
	var bindErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		if err := a.v.BindPFlag(f.Name, f); err != nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})

	if bindErr != nil {
		return bindErr
	}

	a.v.SetEnvPrefix("KVBENCH")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if configPath != "" {
		a.v.SetConfigFile(configPath)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))

	return nil
}

func (a *app) newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <generator-spec> <count>",
		Short: "Generate a workload from a generator spec",
		Long: `Generate writes a workload of <count> tasks built from the JSON generator
spec, for example {"get":16} or {"batch":[{"put":[16,100]},{"delete":16}]}.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, count, err := parseSpecArgs(args)
			if err != nil {
				return err
			}

			seed := a.seed()

			w, err := workload.NewGenerator(seed).Generate(spec, count)
			if err != nil {
				return fmt.Errorf("generate workload: %w", err)
			}

			a.logWorkload("workload generated", w, seed)

			return a.writeOutput(cmd, func(out io.Writer) error {
				return workload.Encode(out, w)
			})
		},
	}
}

func (a *app) newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample <generator-spec> <count>",
		Short: "Build a workload targeting keys put by an input workload",
		Long: `Sample reads a reference workload and writes <count> tasks shaped by the
generator spec. Get, exists and delete keys are drawn from the keys the
reference workload puts; put keys are fresh.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, count, err := parseSpecArgs(args)
			if err != nil {
				return err
			}

			var ref workload.Workload
			if err := a.readInput(cmd, func(in io.Reader) error {
				ref, err = workload.Decode(in)

				return err
			}); err != nil {
				return err
			}

			seed := a.seed()

			w, err := workload.NewGenerator(seed).Sample(ref, spec, count)
			if err != nil {
				return fmt.Errorf("sample workload: %w", err)
			}

			a.logWorkload("workload sampled", w, seed)

			return a.writeOutput(cmd, func(out io.Writer) error {
				return workload.Encode(out, w)
			})
		},
	}
}

func (a *app) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <engine> <path>",
		Short: "Run a workload against a storage engine",
		Long: `Run reads a workload, replays it against the engine stored at <path> and
writes the per-task latencies. Data written by the workload stays in <path>.
Use "kvbench engines" to list the available engines.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				w   workload.Workload
				err error
			)

			if err := a.readInput(cmd, func(in io.Reader) error {
				w, err = workload.Decode(in)

				return err
			}); err != nil {
				return err
			}

			seed := a.seed()
			a.logger.Debug("value seed", slog.Int64("seed", seed))

			result, err := harness.NewRunner(a.logger, seed).Run(w, harness.RunConfig{
				Engine: args[0],
				DBDir:  args[1],
			})
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}

			return a.writeOutput(cmd, func(out io.Writer) error {
				return harness.EncodeResult(out, result)
			})
		},
	}
}

func (a *app) newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the latencies of a run result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				result harness.Result
				err    error
			)

			if err := a.readInput(cmd, func(in io.Reader) error {
				result, err = harness.DecodeResult(in)

				return err
			}); err != nil {
				return err
			}

			format := a.v.GetString("format")

			switch format {
			case "json":
				rep, err := report.Generate(result)
				if err != nil {
					return fmt.Errorf("generate report: %w", err)
				}

				return a.writeOutput(cmd, func(out io.Writer) error {
					return report.GenerateJSON(out, rep)
				})
			case "markdown":
				return a.writeOutput(cmd, func(out io.Writer) error {
					return report.GenerateMarkdown(out, result)
				})
			default:
				return fmt.Errorf("unknown report format %q", format)
			}
		},
	}

	cmd.Flags().String("format", "json",
		"Report format: json, markdown")

	return cmd
}

func (a *app) newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the available storage engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.writeOutput(cmd, func(out io.Writer) error {
				for _, name := range store.Engines() {
					if _, err := fmt.Fprintln(out, name); err != nil {
						return err
					}
				}

				return nil
			})
		},
	}
}

func parseSpecArgs(args []string) (workload.Spec, int, error) {
	spec, err := workload.ParseSpec(args[0])
	if err != nil {
		return workload.Spec{}, 0, err
	}

	count, err := strconv.Atoi(args[1])
	if err != nil {
		return workload.Spec{}, 0, fmt.Errorf("invalid task count %q: %w", args[1], err)
	}

	if count < 0 {
		return workload.Spec{}, 0, fmt.Errorf("invalid task count %d", count)
	}

	return spec, count, nil
}

func (a *app) seed() int64 {
	seed := a.v.GetInt64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return seed
}

func (a *app) logWorkload(msg string, w workload.Workload, seed int64) {
	sum := w.Summarize()

	a.logger.Info(msg,
		slog.Int64("seed", seed),
		slog.Int("tasks", sum.Tasks),
		slog.Int("gets", sum.Gets),
		slog.Int("exists", sum.Exists),
		slog.Int("batches", sum.Batches),
		slog.Int("puts", sum.Puts),
		slog.Int("deletes", sum.Deletes),
	)
}

func (a *app) readInput(cmd *cobra.Command, fn func(io.Reader) error) error {
	path := a.v.GetString("input")
	if path == "" || path == "-" {
		return fn(cmd.InOrStdin())
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input %s: %w", path, err)
	}
	defer f.Close()

	return fn(f)
}

func (a *app) writeOutput(cmd *cobra.Command, fn func(io.Writer) error) error {
	path := a.v.GetString("output")
	if path == "" || path == "-" {
		return fn(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}

	if err := fn(f); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}
