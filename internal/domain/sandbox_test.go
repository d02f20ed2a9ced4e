package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movemut.dev/pkg/movemut/internal/adapter"
	m "movemut.dev/pkg/movemut/internal/model"
)

func TestAcquireSandbox_WritesMutantIntoCopyOnly(t *testing.T) {
	fs := adapter.NewLocalSandboxFSAdapter()
	root, source := writeCounterPackage(t)

	before, err := fs.HashTree(root)
	require.NoError(t, err)

	mutant := m.Mutant{ID: "m1", OriginalFile: source, Source: []byte("module counter::counter { public fun get(): u64 { 1 } }")}

	sandbox, err := AcquireSandbox(fs, root, mutant)
	require.NoError(t, err)

	defer sandbox.Release()

	assert.NotEqual(t, root, sandbox.Root())

	copied, err := os.ReadFile(filepath.Join(string(sandbox.Root()), "sources", "counter.move"))
	require.NoError(t, err)
	assert.Equal(t, string(mutant.Source), string(copied))

	// Manifest travels with the copy so dependency resolution keeps working.
	assert.FileExists(t, filepath.Join(string(sandbox.Root()), "Move.toml"))

	// The real checkout is untouched.
	after, err := fs.HashTree(root)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSandbox_ReleaseDeletesTree(t *testing.T) {
	fs := adapter.NewLocalSandboxFSAdapter()
	root, source := writeCounterPackage(t)

	sandbox, err := AcquireSandbox(fs, root, m.Mutant{ID: "m1", OriginalFile: source, Source: []byte("x")})
	require.NoError(t, err)

	sandboxRoot := string(sandbox.Root())
	require.DirExists(t, sandboxRoot)

	sandbox.Release()
	assert.NoDirExists(t, sandboxRoot)

	// Idempotent.
	sandbox.Release()
}

func TestAcquireSandbox_RejectsFileOutsideRoot(t *testing.T) {
	fs := adapter.NewLocalSandboxFSAdapter()
	root, _ := writeCounterPackage(t)

	stray := filepath.Join(t.TempDir(), "outside.move")
	require.NoError(t, os.WriteFile(stray, []byte("module x::x {}"), 0o600))

	_, err := AcquireSandbox(fs, root, m.Mutant{ID: "m1", OriginalFile: m.Path(stray), Source: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside package root")
}

func TestAcquireSandbox_ConcurrentSandboxesAreDisjoint(t *testing.T) {
	fs := adapter.NewLocalSandboxFSAdapter()
	root, source := writeCounterPackage(t)

	first, err := AcquireSandbox(fs, root, m.Mutant{ID: "m1", OriginalFile: source, Source: []byte("one")})
	require.NoError(t, err)

	defer first.Release()

	second, err := AcquireSandbox(fs, root, m.Mutant{ID: "m2", OriginalFile: source, Source: []byte("two")})
	require.NoError(t, err)

	defer second.Release()

	assert.NotEqual(t, first.Root(), second.Root())

	one, err := os.ReadFile(filepath.Join(string(first.Root()), "sources", "counter.move"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(one))
}
