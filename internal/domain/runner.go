package domain

import (
	"context"
	"fmt"
	"log/slog"

	"movemut.dev/pkg/movemut/internal/adapter"
	"movemut.dev/pkg/movemut/internal/manifest"
	m "movemut.dev/pkg/movemut/internal/model"
)

// DefaultMutantBudget is the execution-step ceiling applied to mutant runs
// when the caller does not choose one. Large enough for any reasonable suite,
// finite so a mutant that loops forever still terminates deterministically.
const DefaultMutantBudget uint64 = 1_000_000

const (
	// traceFileName is the raw execution trace a coverage-instrumented run
	// leaves behind. Deleted right after the run to bound disk usage.
	traceFileName = ".trace"

	// CoverageMapFileName is the compact coverage artifact that is kept.
	CoverageMapFileName = ".coverage_map.mvcov"
)

// RunnerOptions carries the per-session test-engine settings shared by the
// baseline and every mutant run.
type RunnerOptions struct {
	// Filter restricts execution to matching test names. Empty runs all.
	Filter string

	// ReportStorageOnError dumps on-chain storage state for failing tests.
	ReportStorageOnError bool

	// IgnoreCompileWarnings silences warnings during test compilation.
	IgnoreCompileWarnings bool

	// ComputeCoverage instruments runs for coverage.
	ComputeCoverage bool

	// MutantBudget is the execution-step ceiling for mutant runs. Zero means
	// DefaultMutantBudget. The baseline always runs unbounded.
	MutantBudget uint64
}

func (o RunnerOptions) mutantBudget() m.ExecutionBudget {
	if o.MutantBudget == 0 {
		return m.StepBudget(DefaultMutantBudget)
	}

	return m.StepBudget(o.MutantBudget)
}

// Runner executes differential test sessions: one verbose sequential baseline
// against the untouched package, then silent sandboxed runs per mutant.
type Runner interface {
	// RunBaseline executes the test suite against the unmodified package.
	// A non-success outcome returns *model.BaselineFailure; engine faults
	// return *model.EngineError. The caller must not evaluate any mutant
	// unless this returns nil.
	RunBaseline(ctx context.Context, cfg m.BuildConfig, packageRoot m.Path) error

	// RunMutant executes the test suite against a private sandbox carrying
	// the mutant. Output is discarded; dependency refresh is skipped; the
	// run is bounded by the mutant execution budget.
	RunMutant(ctx context.Context, cfg m.BuildConfig, mutant m.Mutant) (m.TestOutcome, error)
}

type runner struct {
	toolchain adapter.Toolchain
	fs        adapter.SandboxFSAdapter
	sink      adapter.DiagnosticSink
	addresses m.NamedAddressMap
	opts      RunnerOptions
}

// NewRunner constructs a Runner. addresses is the merged global address map
// from the model builder; sink receives baseline output only.
func NewRunner(
	toolchain adapter.Toolchain,
	fs adapter.SandboxFSAdapter,
	sink adapter.DiagnosticSink,
	addresses m.NamedAddressMap,
	opts RunnerOptions,
) Runner {
	return &runner{
		toolchain: toolchain,
		fs:        fs,
		sink:      sink,
		addresses: addresses,
		opts:      opts,
	}
}

func (r *runner) RunBaseline(ctx context.Context, cfg m.BuildConfig, packageRoot m.Path) error {
	slog.Info("Running baseline test session", "package", packageRoot)

	testCfg := r.unitTestConfig(true, m.UnlimitedBudget())

	// The baseline is the only run allowed to refresh external dependency
	// sources; it is the single writer on the shared fetch cache.
	runCfg := cfg
	runCfg.TestMode = true

	outcome, err := r.toolchain.RunUnitTests(ctx, runCfg, packageRoot, testCfg, r.sink)

	r.cleanupTrace(packageRoot)

	if err != nil {
		return err
	}

	if outcome != m.OutcomeSuccess {
		return &m.BaselineFailure{Outcome: outcome}
	}

	slog.Info("Baseline test session succeeded", "package", packageRoot)

	return nil
}

func (r *runner) RunMutant(ctx context.Context, cfg m.BuildConfig, mutant m.Mutant) (m.TestOutcome, error) {
	packageRoot, err := manifest.FindRoot(mutant.OriginalFile)
	if err != nil {
		return m.OutcomeEngineError, fmt.Errorf("mutant %s: %w", mutant.ID, err)
	}

	sandbox, err := AcquireSandbox(r.fs, packageRoot, mutant)
	if err != nil {
		return m.OutcomeEngineError, fmt.Errorf("mutant %s: %w", mutant.ID, err)
	}
	defer sandbox.Release()

	runCfg := cfg
	runCfg.TestMode = true
	// The dependency cache was refreshed by the baseline; concurrent mutant
	// runs must never write to it.
	runCfg.SkipFetchLatestDeps = true

	testCfg := r.unitTestConfig(false, r.opts.mutantBudget())

	outcome, err := r.toolchain.RunUnitTests(ctx, runCfg, sandbox.Root(), testCfg, adapter.NewNullSink())

	r.cleanupTrace(sandbox.Root())

	if err != nil {
		return m.OutcomeEngineError, err
	}

	slog.Debug("Mutant test session finished", "mutant", mutant.ID, "outcome", outcome)

	return outcome, nil
}

func (r *runner) unitTestConfig(baseline bool, budget m.ExecutionBudget) m.UnitTestConfig {
	return m.UnitTestConfig{
		Filter:                r.opts.Filter,
		ReportStorageOnError:  r.opts.ReportStorageOnError,
		IgnoreCompileWarnings: r.opts.IgnoreCompileWarnings,
		ReportStatistics:      baseline,
		ComputeCoverage:       r.opts.ComputeCoverage,
		NamedAddresses:        r.addresses.Clone(),
		Budget:                budget,
	}
}

// cleanupTrace removes the raw execution-trace artifact a coverage run leaves
// behind. Best-effort: only the compact coverage map is worth keeping, and a
// failed delete must not fail the run.
func (r *runner) cleanupTrace(packageRoot m.Path) {
	if !r.opts.ComputeCoverage {
		return
	}

	trace := r.fs.JoinPath(string(packageRoot), traceFileName)
	if err := r.fs.Remove(trace); err != nil {
		slog.Warn("Failed to remove trace artifact", "path", trace, "error", err)
	}
}
