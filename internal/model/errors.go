package model

import "fmt"

// TestOutcome is the tri-state result of a test session.
type TestOutcome int

const (
	// OutcomeSuccess means every executed test passed.
	OutcomeSuccess TestOutcome = iota
	// OutcomeFailure means at least one test failed. On a mutant run this is
	// read as "killed"; on the baseline it invalidates the whole session.
	OutcomeFailure
	// OutcomeEngineError means the toolchain itself could not complete the
	// run. Never conflated with OutcomeFailure.
	OutcomeEngineError
)

// String returns the outcome label.
func (o TestOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeEngineError:
		return "engine error"
	}

	return "unknown"
}

// ModelBuildError reports a failed model build: dependency resolution failure,
// a malformed manifest, or error-severity diagnostics.
type ModelBuildError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ModelBuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model build failed: %s: %v", e.Reason, e.Err)
	}

	return fmt.Sprintf("model build failed: %s", e.Reason)
}

// Unwrap exposes the underlying cause.
func (e *ModelBuildError) Unwrap() error {
	return e.Err
}

// CompileVerifyError reports a mutant that fails to compile in its sandbox.
// It is not fatal to the session; the mutant is excluded from test execution.
type CompileVerifyError struct {
	File        Path
	Diagnostics string
}

// Error implements the error interface.
func (e *CompileVerifyError) Error() string {
	return fmt.Sprintf("mutant for %s does not compile: %s", e.File, e.Diagnostics)
}

// EngineError wraps a fault in the test engine itself, as opposed to a genuine
// test failure.
type EngineError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("test engine fault during %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// BaselineFailure aborts a whole mutation session: the unmodified package did
// not pass its own test suite, so no mutant comparison is meaningful.
type BaselineFailure struct {
	Outcome TestOutcome
	Output  string
}

// Error implements the error interface.
func (e *BaselineFailure) Error() string {
	return fmt.Sprintf("baseline test run did not succeed (%s); aborting mutation analysis", e.Outcome)
}
