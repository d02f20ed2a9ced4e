package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"movemut.dev/pkg/movemut/internal/adapter"
	"movemut.dev/pkg/movemut/internal/manifest"
	m "movemut.dev/pkg/movemut/internal/model"
)

// Verifier checks whether a mutant still compiles, without ever touching the
// real checkout. Safe for arbitrary concurrent invocation: every call gets its
// own sandbox.
type Verifier interface {
	// VerifyMutant returns nil when the mutated package compiles, a
	// *model.CompileVerifyError when it does not, and other errors for
	// infrastructure faults.
	VerifyMutant(ctx context.Context, cfg m.BuildConfig, mutant m.Mutant) error
}

type verifier struct {
	toolchain adapter.Toolchain
	fs        adapter.SandboxFSAdapter
}

// NewVerifier constructs a Verifier backed by the given toolchain and
// filesystem adapter.
func NewVerifier(toolchain adapter.Toolchain, fs adapter.SandboxFSAdapter) Verifier {
	return &verifier{toolchain: toolchain, fs: fs}
}

func (v *verifier) VerifyMutant(ctx context.Context, cfg m.BuildConfig, mutant m.Mutant) error {
	root, err := manifest.FindRoot(mutant.OriginalFile)
	if err != nil {
		return fmt.Errorf("mutant %s: %w", mutant.ID, err)
	}

	sandbox, err := AcquireSandbox(v.fs, root, mutant)
	if err != nil {
		return fmt.Errorf("mutant %s: %w", mutant.ID, err)
	}
	defer sandbox.Release()

	// Verification is compile-only; the copied config drops test mode.
	working := cfg.ForCompileOnly()

	err = v.toolchain.CompileOnly(ctx, working, sandbox.Root())
	if err == nil {
		slog.Debug("Mutant compiles", "mutant", mutant.ID)
		return nil
	}

	var compileErr *m.CompileVerifyError
	if errors.As(err, &compileErr) {
		// Re-point the error at the real file; the sandbox path is
		// meaningless once the sandbox is gone.
		return &m.CompileVerifyError{
			File:        mutant.OriginalFile,
			Diagnostics: compileErr.Diagnostics,
		}
	}

	return fmt.Errorf("mutant %s: %w", mutant.ID, err)
}
