// Package controller provides output front-ends for mutation sessions.
package controller

import (
	"os"

	"golang.org/x/term"

	m "movemut.dev/pkg/movemut/internal/model"
)

// Summary aggregates sweep results per status.
type Summary struct {
	Killed   int
	Survived int
	Rejected int
	Errored  int
}

// Add counts one result into the summary.
func (s *Summary) Add(result m.MutantResult) {
	switch result.Status {
	case m.MutantKilled:
		s.Killed++
	case m.MutantSurvived:
		s.Survived++
	case m.MutantRejected:
		s.Rejected++
	case m.MutantErrored:
		s.Errored++
	}
}

// Total returns the number of counted mutants.
func (s Summary) Total() int {
	return s.Killed + s.Survived + s.Rejected + s.Errored
}

// Score returns the mutation score: killed over killed-plus-survived.
// Rejected mutants never reached test execution and engine faults say nothing
// about the suite, so neither is counted.
func (s Summary) Score() float64 {
	tested := s.Killed + s.Survived
	if tested == 0 {
		return 0
	}

	return float64(s.Killed) / float64(tested)
}

// UI is the interface for displaying sweep progress and results.
// Implementations can use different output methods (plain text, TUI).
type UI interface {
	// Start announces a sweep of total mutants over the given worker count.
	Start(total, workers int) error

	// Progress reports one finished mutant.
	Progress(result m.MutantResult)

	// Finish renders the final summary and releases the UI.
	Finish(summary Summary) error
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewUI picks the TUI when out is a terminal, the plain printer otherwise.
func NewUI(out *os.File) UI {
	if IsTTY(out) {
		return NewTUI(out)
	}

	return NewSimpleUI(out)
}
