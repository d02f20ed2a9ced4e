package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"movemut.dev/pkg/movemut/internal/adapter"
	"movemut.dev/pkg/movemut/internal/controller"
	"movemut.dev/pkg/movemut/internal/domain"
	"movemut.dev/pkg/movemut/internal/manifest"
	m "movemut.dev/pkg/movemut/internal/model"
	"movemut.dev/pkg/movemut/pkg"
)

var (
	runMutantsFlag     string
	runParallelFlag    int
	runBudgetFlag      uint64
	runFilterFlag      string
	runCoverageFlag    bool
	runDumpStateFlag   bool
	runIgnoreWarnFlag  bool
	runDevFlag         bool
	runSkipFetchFlag   bool
	runVerifyFirstFlag bool
	runNoTUIFlag       bool
)

const runLongDescription = `Run a full mutation session against the package at PATH (default: current
directory): build the compiled model, run the baseline test suite, then sweep
the mutant catalog in parallel sandboxes.

The catalog is a mutants.toml produced by an external mutant generator; each
entry names the original file and the replacement source text.`

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Run mutation testing",
		Long:  runLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packageRoot, err := packageRootFromArgs(args)
			if err != nil {
				return err
			}

			return runSession(cmd, packageRoot)
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&runMutantsFlag, mutantsFlagName, "m", "", "path to the mutant catalog (mutants.toml)")
	cmd.Flags().IntVarP(&runParallelFlag, parallelFlagName, "p", viper.GetInt(parallelConfigKey), "number of parallel workers for the mutant sweep")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), parallelConfigKey)
	cmd.Flags().Uint64Var(&runBudgetFlag, budgetFlagName, viper.GetUint64(budgetConfigKey), "execution-step budget per mutant run")
	bindFlagToConfig(cmd.Flags().Lookup(budgetFlagName), budgetConfigKey)
	cmd.Flags().BoolVar(&runVerifyFirstFlag, verifyFirstFlagName, viper.GetBool(verifyFirstConfigKey), "compile-check each mutant before running tests")
	bindFlagToConfig(cmd.Flags().Lookup(verifyFirstFlagName), verifyFirstConfigKey)
	cmd.Flags().StringVarP(&runFilterFlag, filterFlagName, "f", "", "run only tests whose name contains this string")
	cmd.Flags().BoolVar(&runCoverageFlag, coverageFlagName, false, "compute test coverage")
	cmd.Flags().BoolVar(&runDumpStateFlag, dumpStateFlagName, false, "dump storage state for failing tests")
	cmd.Flags().BoolVar(&runIgnoreWarnFlag, ignoreWarnFlagName, false, "silence compiler warnings during test runs")
	cmd.Flags().BoolVar(&runDevFlag, devFlagName, false, "use dev-addresses and dev-dependencies")
	cmd.Flags().BoolVar(&runSkipFetchFlag, skipFetchFlagName, false, "do not refresh external dependency sources before the baseline")
	cmd.Flags().BoolVar(&runNoTUIFlag, "no-tui", false, "plain-text output even on a terminal")

	cobra.CheckErr(cmd.MarkFlagRequired(mutantsFlagName))
}

func packageRootFromArgs(args []string) (m.Path, error) {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve package path: %w", err)
	}

	return m.Path(abs), nil
}

func buildConfigFromFlags() (m.BuildConfig, error) {
	addrs, err := parseAddressOverrides(addressFlags)
	if err != nil {
		return m.BuildConfig{}, err
	}

	return m.BuildConfig{
		DevMode:                  runDevFlag,
		TestMode:                 true,
		SkipFetchLatestDeps:      runSkipFetchFlag,
		AdditionalNamedAddresses: addrs,
	}, nil
}

func runSession(cmd *cobra.Command, packageRoot m.Path) error {
	ctx := cmd.Context()

	cfg, err := buildConfigFromFlags()
	if err != nil {
		return err
	}

	toolchain := adapter.NewExecToolchain(viper.GetString(toolchainConfigKey))
	fs := adapter.NewLocalSandboxFSAdapter()
	sink := adapter.NewConsoleSink(cmd.OutOrStdout())

	builder := domain.NewModelBuilder(toolchain, sink, m.Path(viper.GetString(depsCacheConfigKey)))

	model, err := builder.BuildPackageModel(ctx, cfg, packageRoot)
	if err != nil {
		return err
	}

	mutants, err := manifest.LoadMutants(m.Path(runMutantsFlag), packageRoot)
	if err != nil {
		return err
	}

	runner := domain.NewRunner(toolchain, fs, sink, model.NamedAddresses, domain.RunnerOptions{
		Filter:                runFilterFlag,
		ReportStorageOnError:  runDumpStateFlag,
		IgnoreCompileWarnings: runIgnoreWarnFlag,
		ComputeCoverage:       runCoverageFlag,
		MutantBudget:          runBudgetFlag,
	})

	// Hard ordering barrier: a broken baseline invalidates every comparison.
	if err := runner.RunBaseline(ctx, cfg, packageRoot); err != nil {
		var baseline *m.BaselineFailure
		if errors.As(err, &baseline) {
			return fmt.Errorf("the package's own test suite must pass before mutation testing: %w", err)
		}

		return err
	}

	sweeper := domain.NewSweep(domain.NewVerifier(toolchain, fs), runner)

	return runSweep(cmd, sweeper, cfg, mutants)
}

func runSweep(cmd *cobra.Command, sweeper domain.Sweep, cfg m.BuildConfig, mutants []m.Mutant) error {
	workers := viper.GetInt(parallelConfigKey)
	if workers < 1 {
		workers = 1
	}

	ui := sweepUI(cmd)
	if err := ui.Start(len(mutants), workers); err != nil {
		return err
	}

	outputDir := viper.GetString(outputConfigKey)
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	spill, err := pkg.NewFileSpill[m.MutantResult](filepath.Join(outputDir, "results.gob"))
	if err != nil {
		return err
	}
	defer func() { _ = spill.Close() }()

	in := make(chan m.Mutant, workers)

	go func() {
		defer close(in)

		for _, mutant := range mutants {
			in <- mutant
		}
	}()

	results := sweeper.Run(cmd.Context(), domain.SweepArgs{
		Config:      cfg,
		Mutants:     in,
		Workers:     workers,
		VerifyFirst: runVerifyFirstFlag,
	})

	for result := range results {
		ui.Progress(result)

		if err := spill.Append(result); err != nil {
			return err
		}
	}

	var summary controller.Summary

	err = spill.Range(func(_ uint64, result m.MutantResult) error {
		summary.Add(result)
		return nil
	})
	if err != nil {
		return err
	}

	return ui.Finish(summary)
}

func sweepUI(cmd *cobra.Command) controller.UI {
	out, isFile := cmd.OutOrStdout().(*os.File)
	if !isFile || runNoTUIFlag {
		return controller.NewSimpleUI(cmd.OutOrStdout())
	}

	return controller.NewUI(out)
}
