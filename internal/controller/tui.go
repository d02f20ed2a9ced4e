package controller

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "movemut.dev/pkg/movemut/internal/model"
)

var (
	killedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	survivedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle    = lipgloss.NewStyle().Bold(true)
)

// TUI renders live sweep progress with Bubble Tea.
type TUI struct {
	out     *os.File
	program *tea.Program
	done    sync.WaitGroup
}

// NewTUI creates a TUI writing to out.
func NewTUI(out *os.File) *TUI {
	return &TUI{out: out}
}

type resultMsg m.MutantResult

type finishMsg struct{}

// Start launches the progress display.
func (t *TUI) Start(total, workers int) error {
	model := newSweepModel(total, workers)
	t.program = tea.NewProgram(model, tea.WithOutput(t.out))

	t.done.Add(1)

	go func() {
		defer t.done.Done()

		if _, err := t.program.Run(); err != nil {
			fmt.Fprintf(t.out, "progress display failed: %v\n", err)
		}
	}()

	return nil
}

// Progress feeds one result into the display.
func (t *TUI) Progress(result m.MutantResult) {
	if t.program != nil {
		t.program.Send(resultMsg(result))
	}
}

// Finish stops the display and prints the summary table.
func (t *TUI) Finish(summary Summary) error {
	if t.program != nil {
		t.program.Send(finishMsg{})
		t.done.Wait()
	}

	return NewSimpleUI(t.out).Finish(summary)
}

type sweepModel struct {
	total   int
	workers int
	summary Summary
	last    string
	bar     progress.Model
}

func newSweepModel(total, workers int) sweepModel {
	return sweepModel{
		total:   total,
		workers: workers,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

// Init implements tea.Model.
func (sm sweepModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (sm sweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		sm.summary.Add(m.MutantResult(msg))
		sm.last = fmt.Sprintf("%s: %s", msg.MutantID, msg.Status)

		if sm.total > 0 {
			return sm, sm.bar.SetPercent(float64(sm.summary.Total()) / float64(sm.total))
		}

		return sm, nil

	case finishMsg:
		return sm, tea.Quit

	case progress.FrameMsg:
		bar, cmd := sm.bar.Update(msg)
		if updated, ok := bar.(progress.Model); ok {
			sm.bar = updated
		}

		return sm, cmd

	case tea.WindowSizeMsg:
		sm.bar.Width = msg.Width - 4
		return sm, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return sm, tea.Quit
		}
	}

	return sm, nil
}

// View implements tea.Model.
func (sm sweepModel) View() string {
	header := titleStyle.Render(fmt.Sprintf("Mutation sweep: %d/%d", sm.summary.Total(), sm.total))
	counts := fmt.Sprintf(
		"%s  %s  %s",
		killedStyle.Render(fmt.Sprintf("killed %d", sm.summary.Killed)),
		survivedStyle.Render(fmt.Sprintf("survived %d", sm.summary.Survived)),
		mutedStyle.Render(fmt.Sprintf("rejected %d, errors %d", sm.summary.Rejected, sm.summary.Errored)),
	)

	view := header + "\n" + sm.bar.View() + "\n" + counts + "\n"
	if sm.last != "" {
		view += mutedStyle.Render("last: "+sm.last) + "\n"
	}

	return view
}
