// Package model defines the data structures for Move mutation testing.
package model

// Path represents a file system path.
type Path string

// PackageName identifies a Move package by its manifest name.
type PackageName string

// Severity classifies a compiler diagnostic.
type Severity int

const (
	// SeverityNote is an informational diagnostic.
	SeverityNote Severity = iota
	// SeverityWarning does not fail a build.
	SeverityWarning
	// SeverityError fails the build that produced it.
	SeverityError
)

// String returns the lower-case severity label used in compiler output.
func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "note"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}

	return "unknown"
}

// Diagnostic is a single message produced by the compiler toolchain.
type Diagnostic struct {
	Severity Severity
	File     Path
	Line     int
	Message  string
}

// CompiledModel is the checked program representation produced by the model
// builder. It is owned by the caller that built it and is not shared across
// goroutines.
type CompiledModel struct {
	Root PackageName

	// Sources lists every source file that contributed to the model.
	Sources []Path

	// FileOwner attributes each contributing file to the package that owns
	// it, so downstream tooling can map diagnostics and mutation candidates
	// back to a package.
	FileOwner map[Path]PackageName

	// BytecodeOnly names dependencies that had no sources and were resolved
	// from pre-built artifacts. Such packages cannot be mutated or
	// source-inspected.
	BytecodeOnly []PackageName

	// NamedAddresses is the merged global address mapping.
	NamedAddresses NamedAddressMap

	Diagnostics []Diagnostic
}

// HasErrors reports whether any diagnostic carries error severity.
func (m *CompiledModel) HasErrors() bool {
	for _, d := range m.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}

	return false
}

// Mutant identifies one candidate fault: the original file it replaces and the
// full replacement source text. Mutants are produced by an external generator;
// this package never constructs one itself.
type Mutant struct {
	ID           string
	OriginalFile Path
	Source       []byte
}

// MutantStatus is the per-mutant classification reported after a sweep.
type MutantStatus int

const (
	// MutantKilled means the test suite failed on the mutant.
	MutantKilled MutantStatus = iota
	// MutantSurvived means the test suite still passed.
	MutantSurvived
	// MutantRejected means the mutant did not compile and was excluded from
	// test execution.
	MutantRejected
	// MutantErrored means the test engine itself faulted on the mutant.
	MutantErrored
)

// String returns the human-readable status label.
func (s MutantStatus) String() string {
	switch s {
	case MutantKilled:
		return "killed"
	case MutantSurvived:
		return "survived"
	case MutantRejected:
		return "rejected"
	case MutantErrored:
		return "error"
	}

	return "unknown"
}

// MutantResult pairs a mutant with the outcome of its differential run.
type MutantResult struct {
	MutantID string
	File     Path
	Status   MutantStatus
	Output   string // compiler or engine diagnostics, empty on survival
}
