package domain

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"movemut.dev/pkg/movemut/internal/adapter"
	"movemut.dev/pkg/movemut/internal/manifest"
	m "movemut.dev/pkg/movemut/internal/model"
)

// writeCounterPackage lays out a minimal Move package and returns its root and
// the path of its single source file.
func writeCounterPackage(t *testing.T) (m.Path, m.Path) {
	t.Helper()

	dir := t.TempDir()

	manifestText := "[package]\nname = \"Counter\"\nversion = \"1.0.0\"\n\n[addresses]\ncounter = \"0x42\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(manifestText), 0o600))

	source := filepath.Join(dir, manifest.SourcesDir, "counter.move")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0o750))
	require.NoError(t, os.WriteFile(source, []byte("module counter::counter { public fun get(): u64 { 0 } }"), 0o600))

	return m.Path(dir), m.Path(source)
}

type runRecord struct {
	Root m.Path
	Cfg  m.BuildConfig
	Test m.UnitTestConfig
	Sink io.Writer
}

// fakeToolchain is an in-process Toolchain for pipeline tests. Behavior is
// programmable per call site; every invocation is recorded.
type fakeToolchain struct {
	mu sync.Mutex

	buildDiags []m.Diagnostic
	buildErr   error

	compileErr error

	// runFunc decides the outcome of a unit-test run; when nil every run
	// succeeds.
	runFunc func(root m.Path, cfg m.BuildConfig, testCfg m.UnitTestConfig) (m.TestOutcome, error)

	builds   []m.CompilerOptions
	compiles []runRecord
	runs     []runRecord
}

func (f *fakeToolchain) BuildModel(_ context.Context, opts m.CompilerOptions) ([]m.Diagnostic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.builds = append(f.builds, opts)

	return f.buildDiags, f.buildErr
}

func (f *fakeToolchain) CompileOnly(_ context.Context, cfg m.BuildConfig, root m.Path) error {
	f.mu.Lock()
	f.compiles = append(f.compiles, runRecord{Root: root, Cfg: cfg})
	f.mu.Unlock()

	return f.compileErr
}

func (f *fakeToolchain) RunUnitTests(_ context.Context, cfg m.BuildConfig, root m.Path, testCfg m.UnitTestConfig, sink io.Writer) (m.TestOutcome, error) {
	f.mu.Lock()
	f.runs = append(f.runs, runRecord{Root: root, Cfg: cfg, Test: testCfg, Sink: sink})
	f.mu.Unlock()

	if f.runFunc == nil {
		return m.OutcomeSuccess, nil
	}

	return f.runFunc(root, cfg, testCfg)
}

func (f *fakeToolchain) recordedRuns() []runRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]runRecord, len(f.runs))
	copy(out, f.runs)

	return out
}

// outcomeByMarker maps a mutant's replacement text (written into the sandbox
// copy of relFile) to a test outcome, so sweep tests can steer per-mutant
// behavior through the real sandbox machinery.
func outcomeByMarker(relFile string) func(root m.Path, cfg m.BuildConfig, testCfg m.UnitTestConfig) (m.TestOutcome, error) {
	return func(root m.Path, _ m.BuildConfig, _ m.UnitTestConfig) (m.TestOutcome, error) {
		content, err := os.ReadFile(filepath.Join(string(root), relFile)) // #nosec G304 - test sandbox path
		if err != nil {
			return m.OutcomeEngineError, &m.EngineError{Op: "unit tests", Err: err}
		}

		switch string(content) {
		case "KILL":
			return m.OutcomeFailure, nil
		case "SURVIVE":
			return m.OutcomeSuccess, nil
		case "CRASH":
			return m.OutcomeEngineError, &m.EngineError{Op: "unit tests", Err: fmt.Errorf("engine crashed")}
		}

		return m.OutcomeSuccess, nil
	}
}

var _ adapter.Toolchain = (*fakeToolchain)(nil)
