package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "failure", OutcomeFailure.String())
	assert.Equal(t, "engine error", OutcomeEngineError.String())
}

func TestMutantStatus_String(t *testing.T) {
	assert.Equal(t, "killed", MutantKilled.String())
	assert.Equal(t, "survived", MutantSurvived.String())
	assert.Equal(t, "rejected", MutantRejected.String())
	assert.Equal(t, "error", MutantErrored.String())
}

func TestModelBuildError_WrapsCause(t *testing.T) {
	cause := errors.New("manifest missing")
	err := fmt.Errorf("building: %w", &ModelBuildError{Reason: "dependency resolution", Err: cause})

	var buildErr *ModelBuildError

	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "dependency resolution", buildErr.Reason)
	assert.ErrorIs(t, err, cause)
}

func TestEngineError_DistinctFromCompileVerifyError(t *testing.T) {
	var engineErr error = &EngineError{Op: "unit tests", Err: errors.New("binary not found")}

	var compileErr *CompileVerifyError
	assert.False(t, errors.As(engineErr, &compileErr))
	assert.Contains(t, engineErr.Error(), "unit tests")
}

func TestBaselineFailure_Message(t *testing.T) {
	err := &BaselineFailure{Outcome: OutcomeFailure}

	assert.Contains(t, err.Error(), "baseline")
	assert.Contains(t, err.Error(), "failure")
}

func TestCompiledModel_HasErrors(t *testing.T) {
	model := &CompiledModel{Diagnostics: []Diagnostic{
		{Severity: SeverityWarning, Message: "unused variable"},
	}}
	assert.False(t, model.HasErrors())

	model.Diagnostics = append(model.Diagnostics, Diagnostic{Severity: SeverityError, Message: "type mismatch"})
	assert.True(t, model.HasErrors())
}
