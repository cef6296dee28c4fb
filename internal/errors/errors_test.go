package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/helm-values-manager/internal/errors"
)

func TestWrappersUnwrapToSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		sentinel error
		contains []string
	}{
		{
			name:     "path error",
			err:      &errors.PathError{Path: "app.replicas", Err: errors.ErrDuplicatePath},
			sentinel: errors.ErrDuplicatePath,
			contains: []string{`"app.replicas"`, "already exists"},
		},
		{
			name:     "deployment error",
			err:      &errors.DeploymentError{Deployment: "prod", Err: errors.ErrDeploymentNotFound},
			sentinel: errors.ErrDeploymentNotFound,
			contains: []string{`"prod"`, "not found"},
		},
		{
			name:     "value error",
			err:      &errors.ValueError{Path: "app.db.password", Deployment: "prod", Err: errors.ErrValueNotSet},
			sentinel: errors.ErrValueNotSet,
			contains: []string{`"app.db.password"`, `"prod"`, "not set"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.err, tt.sentinel)
			for _, want := range tt.contains {
				assert.Contains(t, tt.err.Error(), want)
			}
		})
	}
}

func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "configuration file is locked",
		Details:    "could not lock .helm-values.json.lock",
		Suggestion: "Wait for the other command to finish and retry",
	}

	msg := err.Error()
	assert.Contains(t, msg, "configuration file is locked")
	assert.Contains(t, msg, "Details: could not lock")
	assert.Contains(t, msg, "Try: Wait for the other command")
}

func TestUserErrorFallsBackToWrapped(t *testing.T) {
	t.Parallel()

	inner := stderrors.New("disk full")
	err := error(errors.UserError{Err: inner})

	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, err, inner)
}

func TestFindingString(t *testing.T) {
	t.Parallel()

	f := errors.Finding{
		Code:       "missing-required-value",
		Path:       "app.replicas",
		Deployment: "prod",
		Message:    "required path has no value",
	}

	s := f.String()
	assert.Contains(t, s, "missing-required-value")
	assert.Contains(t, s, "path=app.replicas")
	assert.Contains(t, s, "deployment=prod")
	assert.Contains(t, s, "required path has no value")
}

func TestFindingsAsError(t *testing.T) {
	t.Parallel()

	var fs errors.Findings
	assert.NoError(t, fs.AsError())

	fs = append(fs,
		errors.Finding{Code: "a", Message: "first"},
		errors.Finding{Code: "b", Message: "second"},
	)

	err := fs.AsError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 validation finding(s)")
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
}
