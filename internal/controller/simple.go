package controller

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"

	m "movemut.dev/pkg/movemut/internal/model"
)

// SimpleUI prints plain-text progress and a summary table. Suitable for
// non-interactive output such as CI logs.
type SimpleUI struct {
	out io.Writer
}

// NewSimpleUI creates a SimpleUI writing to out.
func NewSimpleUI(out io.Writer) *SimpleUI {
	return &SimpleUI{out: out}
}

// Start announces the sweep.
func (s *SimpleUI) Start(total, workers int) error {
	_, err := fmt.Fprintf(s.out, "Testing %d mutant(s) with %d worker(s)\n", total, workers)
	return err
}

// Progress prints one result line per mutant.
func (s *SimpleUI) Progress(result m.MutantResult) {
	fmt.Fprintf(s.out, "  %-12s %s (%s)\n", result.MutantID, result.Status, result.File)
}

// Finish renders the summary table and the mutation score.
func (s *SimpleUI) Finish(summary Summary) error {
	table := tablewriter.NewWriter(s.out)
	table.SetHeader([]string{"Status", "Count"})

	table.Append([]string{"killed", strconv.Itoa(summary.Killed)})
	table.Append([]string{"survived", strconv.Itoa(summary.Survived)})
	table.Append([]string{"rejected", strconv.Itoa(summary.Rejected)})
	table.Append([]string{"error", strconv.Itoa(summary.Errored)})
	table.SetFooter([]string{"total", strconv.Itoa(summary.Total())})

	table.Render()

	_, err := fmt.Fprintf(s.out, "Mutation score: %.1f%%\n", summary.Score()*100)

	return err
}

// MutantDiff renders a unified diff between the original file content and the
// mutant's replacement text.
func MutantDiff(out io.Writer, file m.Path, original, mutated string) error {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(mutated),
		FromFile: string(file),
		ToFile:   string(file) + " (mutant)",
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("render mutant diff: %w", err)
	}

	_, err = io.WriteString(out, diff)

	return err
}
