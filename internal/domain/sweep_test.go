package domain

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movemut.dev/pkg/movemut/internal/adapter"
	m "movemut.dev/pkg/movemut/internal/model"
)

func feedMutants(mutants ...m.Mutant) <-chan m.Mutant {
	ch := make(chan m.Mutant, len(mutants))
	for _, mutant := range mutants {
		ch <- mutant
	}

	close(ch)

	return ch
}

func collectResults(t *testing.T, results <-chan m.MutantResult) map[string]m.MutantResult {
	t.Helper()

	byID := map[string]m.MutantResult{}
	for result := range results {
		_, seen := byID[result.MutantID]
		require.False(t, seen, "mutant %s reported twice", result.MutantID)

		byID[result.MutantID] = result
	}

	return byID
}

func TestSweep_ClassifiesOutcomes(t *testing.T) {
	_, source := writeCounterPackage(t)

	toolchain := &fakeToolchain{runFunc: outcomeByMarker("sources/counter.move")}
	fs := adapter.NewLocalSandboxFSAdapter()

	sweep := NewSweep(
		NewVerifier(toolchain, fs),
		newTestRunner(toolchain, RunnerOptions{}),
	)

	results := sweep.Run(context.Background(), SweepArgs{
		Mutants: feedMutants(
			m.Mutant{ID: "m1", OriginalFile: source, Source: []byte("KILL")},
			m.Mutant{ID: "m2", OriginalFile: source, Source: []byte("SURVIVE")},
			m.Mutant{ID: "m3", OriginalFile: source, Source: []byte("CRASH")},
		),
		Workers: 2,
	})

	byID := collectResults(t, results)
	require.Len(t, byID, 3)

	assert.Equal(t, m.MutantKilled, byID["m1"].Status)
	assert.Equal(t, m.MutantSurvived, byID["m2"].Status)
	assert.Equal(t, m.MutantErrored, byID["m3"].Status)
	assert.Equal(t, source, byID["m1"].File)
}

func TestSweep_EveryMutantReportedExactlyOnce(t *testing.T) {
	_, source := writeCounterPackage(t)

	toolchain := &fakeToolchain{}

	sweep := NewSweep(
		NewVerifier(toolchain, adapter.NewLocalSandboxFSAdapter()),
		newTestRunner(toolchain, RunnerOptions{}),
	)

	const total = 20

	mutants := make([]m.Mutant, 0, total)
	for i := 0; i < total; i++ {
		mutants = append(mutants, m.Mutant{
			ID:           fmt.Sprintf("m%d", i),
			OriginalFile: source,
			Source:       []byte("SURVIVE"),
		})
	}

	results := sweep.Run(context.Background(), SweepArgs{
		Mutants: feedMutants(mutants...),
		Workers: 4,
	})

	byID := collectResults(t, results)
	assert.Len(t, byID, total)
	assert.Len(t, toolchain.recordedRuns(), total)
}

func TestSweep_VerifyFirstRejectsNonCompilingMutants(t *testing.T) {
	_, source := writeCounterPackage(t)

	toolchain := &fakeToolchain{compileErr: &m.CompileVerifyError{
		File:        "sources/counter.move",
		Diagnostics: "error: unexpected token",
	}}

	sweep := NewSweep(
		NewVerifier(toolchain, adapter.NewLocalSandboxFSAdapter()),
		newTestRunner(toolchain, RunnerOptions{}),
	)

	results := sweep.Run(context.Background(), SweepArgs{
		Mutants: feedMutants(
			m.Mutant{ID: "m1", OriginalFile: source, Source: []byte("garbage")},
		),
		Workers:     1,
		VerifyFirst: true,
	})

	byID := collectResults(t, results)
	require.Len(t, byID, 1)
	assert.Equal(t, m.MutantRejected, byID["m1"].Status)
	assert.Contains(t, byID["m1"].Output, "unexpected token")

	// A rejected mutant never reaches the test engine.
	assert.Empty(t, toolchain.recordedRuns())
}

func TestSweep_VerifyFirstPassThroughToTestRun(t *testing.T) {
	_, source := writeCounterPackage(t)

	toolchain := &fakeToolchain{runFunc: outcomeByMarker("sources/counter.move")}

	sweep := NewSweep(
		NewVerifier(toolchain, adapter.NewLocalSandboxFSAdapter()),
		newTestRunner(toolchain, RunnerOptions{}),
	)

	results := sweep.Run(context.Background(), SweepArgs{
		Mutants: feedMutants(
			m.Mutant{ID: "m1", OriginalFile: source, Source: []byte("KILL")},
		),
		Workers:     1,
		VerifyFirst: true,
	})

	byID := collectResults(t, results)
	require.Len(t, byID, 1)
	assert.Equal(t, m.MutantKilled, byID["m1"].Status)

	// Compile check first, then the bounded test run.
	assert.Len(t, toolchain.compiles, 1)
	assert.Len(t, toolchain.recordedRuns(), 1)
}

func TestSweep_VerificationFaultIsErroredNotRejected(t *testing.T) {
	_, source := writeCounterPackage(t)

	toolchain := &fakeToolchain{compileErr: &m.EngineError{Op: "compile", Err: fmt.Errorf("disk full")}}

	sweep := NewSweep(
		NewVerifier(toolchain, adapter.NewLocalSandboxFSAdapter()),
		newTestRunner(toolchain, RunnerOptions{}),
	)

	results := sweep.Run(context.Background(), SweepArgs{
		Mutants: feedMutants(
			m.Mutant{ID: "m1", OriginalFile: source, Source: []byte("x")},
		),
		Workers:     1,
		VerifyFirst: true,
	})

	byID := collectResults(t, results)
	require.Len(t, byID, 1)
	assert.Equal(t, m.MutantErrored, byID["m1"].Status)
}

func TestSweep_ZeroWorkersRunsSequentially(t *testing.T) {
	_, source := writeCounterPackage(t)

	toolchain := &fakeToolchain{}

	sweep := NewSweep(
		NewVerifier(toolchain, adapter.NewLocalSandboxFSAdapter()),
		newTestRunner(toolchain, RunnerOptions{}),
	)

	results := sweep.Run(context.Background(), SweepArgs{
		Mutants: feedMutants(
			m.Mutant{ID: "m1", OriginalFile: source, Source: []byte("a")},
			m.Mutant{ID: "m2", OriginalFile: source, Source: []byte("b")},
		),
		Workers: 0,
	})

	byID := collectResults(t, results)
	assert.Len(t, byID, 2)
}

func TestSweep_CancelledContextStillClosesResults(t *testing.T) {
	_, source := writeCounterPackage(t)

	toolchain := &fakeToolchain{}

	sweep := NewSweep(
		NewVerifier(toolchain, adapter.NewLocalSandboxFSAdapter()),
		newTestRunner(toolchain, RunnerOptions{}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := sweep.Run(ctx, SweepArgs{
		Mutants: feedMutants(
			m.Mutant{ID: "m1", OriginalFile: source, Source: []byte("a")},
		),
		Workers: 1,
	})

	// The channel must drain and close even though nothing was evaluated.
	for range results {
	}
}
