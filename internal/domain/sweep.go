package domain

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	m "movemut.dev/pkg/movemut/internal/model"
)

// SweepArgs configures one parallel mutant sweep.
type SweepArgs struct {
	Config m.BuildConfig

	// Mutants is the externally supplied mutant sequence. The sweep drains
	// it fully; every mutant appears exactly once in the results.
	Mutants <-chan m.Mutant

	// Workers bounds the number of concurrent mutant evaluations. Values
	// below 1 run sequentially.
	Workers int

	// VerifyFirst compile-checks each mutant in its own sandbox before the
	// test run, so non-compiling mutants are rejected cheaply instead of
	// being miscounted as survivors.
	VerifyFirst bool
}

// Sweep evaluates mutants concurrently and streams results over a channel,
// keeping result collection free of shared mutable state. The baseline must
// have succeeded before a sweep starts; that ordering is the caller's gate.
type Sweep interface {
	Run(ctx context.Context, args SweepArgs) <-chan m.MutantResult
}

type sweep struct {
	verifier Verifier
	runner   Runner
}

// NewSweep constructs a Sweep over the given verifier and runner.
func NewSweep(verifier Verifier, runner Runner) Sweep {
	return &sweep{verifier: verifier, runner: runner}
}

func (s *sweep) Run(ctx context.Context, args SweepArgs) <-chan m.MutantResult {
	workers := args.Workers
	if workers < 1 {
		workers = 1
	}

	results := make(chan m.MutantResult, workers)

	var group errgroup.Group
	group.SetLimit(workers)

	go func() {
		defer close(results)

		for mutant := range args.Mutants {
			if ctx.Err() != nil {
				// Drain so the producer never blocks.
				continue
			}

			current := mutant

			group.Go(func() error {
				result := s.evaluate(ctx, args, current)

				select {
				case <-ctx.Done():
				case results <- result:
				}

				return nil
			})
		}

		_ = group.Wait()
	}()

	return results
}

// evaluate classifies one mutant. Infrastructure faults become MutantErrored,
// never a kill.
func (s *sweep) evaluate(ctx context.Context, args SweepArgs, mutant m.Mutant) m.MutantResult {
	result := m.MutantResult{MutantID: mutant.ID, File: mutant.OriginalFile}

	if args.VerifyFirst {
		err := s.verifier.VerifyMutant(ctx, args.Config, mutant)

		var compileErr *m.CompileVerifyError

		switch {
		case err == nil:
			// Compiles; fall through to the test run.
		case errors.As(err, &compileErr):
			result.Status = m.MutantRejected
			result.Output = compileErr.Diagnostics

			return result
		default:
			slog.Error("Mutant verification faulted", "mutant", mutant.ID, "error", err)

			result.Status = m.MutantErrored
			result.Output = err.Error()

			return result
		}
	}

	outcome, err := s.runner.RunMutant(ctx, args.Config, mutant)
	if err != nil {
		slog.Error("Mutant test session faulted", "mutant", mutant.ID, "error", err)

		result.Status = m.MutantErrored
		result.Output = err.Error()

		return result
	}

	switch outcome {
	case m.OutcomeFailure:
		result.Status = m.MutantKilled
	case m.OutcomeSuccess:
		result.Status = m.MutantSurvived
	case m.OutcomeEngineError:
		result.Status = m.MutantErrored
	}

	return result
}
