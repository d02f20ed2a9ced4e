// Package adapter contains infrastructure adapters for the movemut pipeline.
package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	m "movemut.dev/pkg/movemut/internal/model"
)

// Toolchain abstracts the Move compiler and unit-test engine so the pipeline
// orchestration is independent of which concrete toolchain is linked in.
type Toolchain interface {
	// BuildModel runs the compiler's checking step over fully resolved
	// compiler options and returns the diagnostics it produced.
	BuildModel(ctx context.Context, opts m.CompilerOptions) ([]m.Diagnostic, error)

	// CompileOnly compiles the package rooted at packageRoot without running
	// tests. On compilation failure the returned error carries the
	// compiler's diagnostic text.
	CompileOnly(ctx context.Context, cfg m.BuildConfig, packageRoot m.Path) error

	// RunUnitTests executes the unit-test engine against the package rooted
	// at packageRoot, streaming engine output to sink. The outcome is only
	// meaningful when the returned error is nil; engine faults come back as
	// *model.EngineError.
	RunUnitTests(ctx context.Context, cfg m.BuildConfig, packageRoot m.Path, testCfg m.UnitTestConfig, sink io.Writer) (m.TestOutcome, error)
}

// testFailureExitCode is the exit status the Move CLI uses for a run where the
// engine completed but at least one test failed. Anything else non-zero is an
// engine fault.
const testFailureExitCode = 1

// ExecToolchain drives an external Move CLI binary through os/exec.
type ExecToolchain struct {
	binary string
}

// NewExecToolchain constructs an ExecToolchain for the given binary name, or
// the default "move" binary when empty.
func NewExecToolchain(binary string) *ExecToolchain {
	if binary == "" {
		binary = "move"
	}

	return &ExecToolchain{binary: binary}
}

// BuildModel runs the compiler check over explicit sources and dependencies.
func (t *ExecToolchain) BuildModel(ctx context.Context, opts m.CompilerOptions) ([]m.Diagnostic, error) {
	args := []string{"check"}

	for _, src := range opts.Sources {
		args = append(args, "--sources", string(src))
	}

	for _, dep := range opts.Dependencies {
		args = append(args, "--dependencies", string(dep))
	}

	args = appendAddressArgs(args, opts.NamedAddresses)
	args = appendCompilerArgs(args, opts.Compiler)

	if opts.TestMode {
		args = append(args, "--test")
	}

	output, runErr := t.run(ctx, args, "", io.Discard)

	diags := parseDiagnostics(output)

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, &m.EngineError{Op: "model check", Err: runErr}
		}

		// The compiler exited non-zero; make sure the failure is visible
		// even if no line parsed as a diagnostic.
		if !hasErrorDiagnostic(diags) {
			diags = append(diags, m.Diagnostic{
				Severity: m.SeverityError,
				Message:  strings.TrimSpace(output),
			})
		}
	}

	return diags, nil
}

// CompileOnly compiles the package without test execution.
func (t *ExecToolchain) CompileOnly(ctx context.Context, cfg m.BuildConfig, packageRoot m.Path) error {
	args := []string{"build", "--path", string(packageRoot)}
	args = appendBuildConfigArgs(args, cfg)

	output, err := t.run(ctx, args, packageRoot, io.Discard)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &m.CompileVerifyError{File: packageRoot, Diagnostics: strings.TrimSpace(output)}
		}

		return &m.EngineError{Op: "compile", Err: err}
	}

	return nil
}

// RunUnitTests executes the unit-test engine for the package.
func (t *ExecToolchain) RunUnitTests(ctx context.Context, cfg m.BuildConfig, packageRoot m.Path, testCfg m.UnitTestConfig, sink io.Writer) (m.TestOutcome, error) {
	args := []string{"test", "--path", string(packageRoot)}
	args = appendBuildConfigArgs(args, cfg)

	if testCfg.Filter != "" {
		args = append(args, "--filter", testCfg.Filter)
	}

	if testCfg.ReportStorageOnError {
		args = append(args, "--state-on-error")
	}

	if testCfg.IgnoreCompileWarnings {
		args = append(args, "--ignore-compile-warnings")
	}

	if testCfg.ReportStatistics {
		args = append(args, "--report-statistics")
	}

	if testCfg.ComputeCoverage {
		args = append(args, "--coverage")
	}

	if limit, ok := testCfg.Budget.Limit(); ok {
		args = append(args, "--gas-limit", strconv.FormatUint(limit, 10))
	}

	args = appendAddressArgs(args, testCfg.NamedAddresses)

	_, err := t.run(ctx, args, packageRoot, sink)
	if err == nil {
		return m.OutcomeSuccess, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == testFailureExitCode {
		return m.OutcomeFailure, nil
	}

	return m.OutcomeEngineError, &m.EngineError{Op: "unit tests", Err: err}
}

// run executes the binary with the given arguments, teeing combined output
// both to the sink and to the returned string.
func (t *ExecToolchain) run(ctx context.Context, args []string, workDir m.Path, sink io.Writer) (string, error) {
	slog.Debug("Invoking toolchain", "binary", t.binary, "args", args)

	cmd := exec.CommandContext(ctx, t.binary, args...)
	if workDir != "" {
		cmd.Dir = string(workDir)
	}

	var captured bytes.Buffer

	out := io.MultiWriter(&captured, sink)
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()

	return captured.String(), err
}

func appendBuildConfigArgs(args []string, cfg m.BuildConfig) []string {
	if cfg.DevMode {
		args = append(args, "--dev")
	}

	if cfg.TestMode {
		args = append(args, "--test")
	}

	if cfg.SkipFetchLatestDeps {
		args = append(args, "--skip-fetch-latest-git-deps")
	}

	args = appendAddressArgs(args, cfg.AdditionalNamedAddresses)

	return appendCompilerArgs(args, cfg.Compiler)
}

func appendAddressArgs(args []string, addrs m.NamedAddressMap) []string {
	if addrs.Len() == 0 {
		return args
	}

	return append(args, "--named-addresses", strings.Join(addrs.Pairs(), ","))
}

func appendCompilerArgs(args []string, cfg m.CompilerConfig) []string {
	if cfg.LanguageVersion != "" {
		args = append(args, "--language-version", cfg.LanguageVersion)
	}

	if cfg.CompilerVersion != "" {
		args = append(args, "--compiler-version", cfg.CompilerVersion)
	}

	if cfg.SkipAttributeChecks {
		args = append(args, "--skip-attribute-checks")
	}

	for _, experiment := range cfg.Experiments {
		args = append(args, "--experiment", experiment)
	}

	return args
}

// parseDiagnostics extracts "error:"/"warning:"/"note:" lines from compiler
// output. Location prefixes of the form "path:line:" are split off when
// present.
func parseDiagnostics(output string) []m.Diagnostic {
	var diags []m.Diagnostic

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)

		severity, rest, ok := splitSeverity(line)
		if !ok {
			continue
		}

		diag := m.Diagnostic{Severity: severity, Message: rest}
		diag.File, diag.Line, diag.Message = splitLocation(rest)
		diags = append(diags, diag)
	}

	return diags
}

func splitSeverity(line string) (m.Severity, string, bool) {
	for _, candidate := range []m.Severity{m.SeverityError, m.SeverityWarning, m.SeverityNote} {
		prefix := candidate.String() + ":"
		if strings.HasPrefix(line, prefix) {
			return candidate, strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}

	return 0, "", false
}

func splitLocation(message string) (m.Path, int, string) {
	parts := strings.SplitN(message, ":", 3)
	if len(parts) != 3 {
		return "", 0, message
	}

	line, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, message
	}

	return m.Path(parts[0]), line, strings.TrimSpace(parts[2])
}

func hasErrorDiagnostic(diags []m.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == m.SeverityError {
			return true
		}
	}

	return false
}

// String identifies the toolchain in logs.
func (t *ExecToolchain) String() string {
	return fmt.Sprintf("exec(%s)", t.binary)
}
