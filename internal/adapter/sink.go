package adapter

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	m "movemut.dev/pkg/movemut/internal/model"
)

// DiagnosticSink receives human-readable compiler and test-engine output. The
// baseline run writes to a visible sink; mutant runs use the null sink because
// interleaved output from many concurrent runs would be unusable.
type DiagnosticSink interface {
	io.Writer

	// Diagnostic renders one structured compiler diagnostic.
	Diagnostic(d m.Diagnostic)
}

// ConsoleSink writes diagnostics to a terminal, coloring severity labels.
type ConsoleSink struct {
	out io.Writer

	errorLabel   *color.Color
	warningLabel *color.Color
	noteLabel    *color.Color
}

// NewConsoleSink constructs a ConsoleSink writing to out.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{
		out:          out,
		errorLabel:   color.New(color.FgRed, color.Bold),
		warningLabel: color.New(color.FgYellow),
		noteLabel:    color.New(color.FgCyan),
	}
}

// Write passes raw engine output through unchanged.
func (s *ConsoleSink) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// Diagnostic renders a structured diagnostic with a colored severity label.
func (s *ConsoleSink) Diagnostic(d m.Diagnostic) {
	label := s.noteLabel

	switch d.Severity {
	case m.SeverityError:
		label = s.errorLabel
	case m.SeverityWarning:
		label = s.warningLabel
	}

	location := ""
	if d.File != "" {
		location = fmt.Sprintf("%s:%d: ", d.File, d.Line)
	}

	fmt.Fprintf(s.out, "%s: %s%s\n", label.Sprint(d.Severity), location, d.Message)
}

// NullSink discards everything written to it.
type NullSink struct{}

// NewNullSink constructs a NullSink.
func NewNullSink() *NullSink {
	return &NullSink{}
}

// Write implements io.Writer by discarding the input.
func (s *NullSink) Write(p []byte) (int, error) {
	return len(p), nil
}

// Diagnostic implements DiagnosticSink by discarding the diagnostic.
func (s *NullSink) Diagnostic(m.Diagnostic) {}
