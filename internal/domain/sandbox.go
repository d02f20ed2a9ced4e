// Package domain implements the mutation-execution pipeline: building the
// compiled model, verifying mutants in sandboxes, and running differential
// test sessions.
package domain

import (
	"fmt"
	"log/slog"
	"strings"

	"movemut.dev/pkg/movemut/internal/adapter"
	m "movemut.dev/pkg/movemut/internal/model"
)

// Sandbox is an ephemeral, exclusively owned copy of a whole package tree with
// exactly one file overwritten by a mutant. It exists for a single compile or
// test invocation and must be released on every exit path.
type Sandbox struct {
	fs       adapter.SandboxFSAdapter
	root     m.Path
	released bool
}

// AcquireSandbox creates a private copy of the package rooted at packageRoot
// and writes the mutant's replacement text over its file inside the copy. The
// whole tree is copied, manifest and dependencies included, because
// dependencies may be referenced by paths relative to the package root.
//
// On any error the partially built sandbox is already cleaned up.
func AcquireSandbox(fs adapter.SandboxFSAdapter, packageRoot m.Path, mutant m.Mutant) (sb *Sandbox, err error) {
	tmpDir, err := fs.CreateTempDir("movemut-sandbox-*")
	if err != nil {
		return nil, fmt.Errorf("create sandbox dir: %w", err)
	}

	sb = &Sandbox{fs: fs, root: tmpDir}

	defer func() {
		if err != nil {
			sb.Release()
		}
	}()

	if err = fs.CopyTree(packageRoot, tmpDir); err != nil {
		return nil, fmt.Errorf("copy package into sandbox: %w", err)
	}

	rel, err := fs.RelPath(packageRoot, mutant.OriginalFile)
	if err != nil {
		return nil, fmt.Errorf("relativize %s against %s: %w", mutant.OriginalFile, packageRoot, err)
	}

	if strings.HasPrefix(string(rel), "..") {
		return nil, fmt.Errorf("mutant file %s is outside package root %s", mutant.OriginalFile, packageRoot)
	}

	target := fs.JoinPath(string(tmpDir), string(rel))
	if err = fs.WriteFile(target, mutant.Source, 0o600); err != nil {
		return nil, fmt.Errorf("write mutant into sandbox: %w", err)
	}

	slog.Debug("Sandbox acquired", "mutant", mutant.ID, "root", tmpDir, "file", rel)

	return sb, nil
}

// Root returns the sandbox's package root.
func (s *Sandbox) Root() m.Path {
	return s.root
}

// Release deletes the sandbox tree. It is safe to call more than once and is
// intended for defer, so cleanup happens on every exit path.
func (s *Sandbox) Release() {
	if s == nil || s.released {
		return
	}

	s.released = true

	if err := s.fs.RemoveAll(s.root); err != nil {
		slog.Error("Failed to release sandbox", "root", s.root, "error", err)
	}
}
