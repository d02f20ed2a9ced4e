package model

// CompilerConfig carries the compiler feature and version flags that are
// forwarded to every toolchain invocation unchanged.
type CompilerConfig struct {
	LanguageVersion     string
	CompilerVersion     string
	SkipAttributeChecks bool
	KnownAttributes     []string
	Experiments         []string
}

// BuildConfig is the immutable per-session build configuration. It is created
// once from user input and passed by value into every sub-operation; callers
// that need a variant (for example compile-only verification) take a copy and
// adjust the copy.
type BuildConfig struct {
	// DevMode selects the manifest's dev-addresses over its addresses.
	DevMode bool

	// TestMode compiles test code alongside regular sources.
	TestMode bool

	// SkipFetchLatestDeps suppresses refreshing external dependency sources.
	// The baseline run refreshes once; every mutant run must skip it so
	// concurrent runs never race on the shared dependency cache.
	SkipFetchLatestDeps bool

	// AdditionalNamedAddresses are user-supplied bindings layered on top of
	// whatever the package manifests declare.
	AdditionalNamedAddresses NamedAddressMap

	Compiler CompilerConfig
}

// ForCompileOnly returns a copy suitable for sandbox verification: test mode
// off, dependency refresh suppressed.
func (c BuildConfig) ForCompileOnly() BuildConfig {
	c.TestMode = false
	c.SkipFetchLatestDeps = true

	return c
}

// CompilerOptions is the fully resolved input handed to the toolchain's
// model-generation step: every contributing source, the bytecode-only
// dependency paths, and the merged address mapping.
type CompilerOptions struct {
	Sources        []Path
	Dependencies   []Path // pre-built artifacts for source-less dependencies
	NamedAddresses NamedAddressMap
	TestMode       bool
	Compiler       CompilerConfig
}

// ExecutionBudget bounds a test run by abstract execution steps instead of
// wall-clock time, so a mutant that loops forever still terminates in a
// bounded, reproducible amount of work. The zero value is unlimited.
type ExecutionBudget struct {
	limit *uint64
}

// UnlimitedBudget returns a budget with no ceiling, used for the trusted
// baseline run.
func UnlimitedBudget() ExecutionBudget {
	return ExecutionBudget{}
}

// StepBudget returns a budget capped at the given number of steps.
func StepBudget(steps uint64) ExecutionBudget {
	return ExecutionBudget{limit: &steps}
}

// Limit returns the step ceiling and whether one is set.
func (b ExecutionBudget) Limit() (uint64, bool) {
	if b.limit == nil {
		return 0, false
	}

	return *b.limit, true
}

// UnitTestConfig configures one invocation of the unit-test engine.
type UnitTestConfig struct {
	// Filter restricts execution to tests whose name contains the value.
	// Empty runs everything.
	Filter string

	// ReportStorageOnError dumps on-chain storage state for failing tests.
	ReportStorageOnError bool

	// IgnoreCompileWarnings silences warning diagnostics during the run.
	IgnoreCompileWarnings bool

	// ReportStatistics enables aggregate test statistics. On for the
	// baseline, off for mutant runs.
	ReportStatistics bool

	// ComputeCoverage instruments the run for coverage. The raw trace
	// artifact it produces is deleted right after the run; only the compact
	// coverage map is retained.
	ComputeCoverage bool

	NamedAddresses NamedAddressMap

	Budget ExecutionBudget
}
