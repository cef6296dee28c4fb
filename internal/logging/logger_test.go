package logging_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/helm-values-manager/internal/logging"
)

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	logger := logging.NewWithWriter(false, true, out)

	logger.Info("stored %d values", 2)
	logger.Warn("deployment %s has no backend", "dev")
	logger.Error("failed to reach vault")
	logger.Debug("this should not appear")

	got := out.String()
	assert.Contains(t, got, "✓ stored 2 values")
	assert.Contains(t, got, "⚠ deployment dev has no backend")
	assert.Contains(t, got, "✗ failed to reach vault")
	assert.NotContains(t, got, "should not appear")
}

func TestLoggerDebugEnabled(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	logger := logging.NewWithWriter(true, true, out)

	logger.Debug("bound backend for %s", "prod")
	assert.Contains(t, out.String(), "[DEBUG] bound backend for prod")
}

func TestLoggerColor(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	logger := logging.NewWithWriter(false, false, out)

	logger.Info("colored")
	assert.Contains(t, out.String(), "\033[32m")
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	// Must not panic and must swallow everything silently.
	logger := logging.Discard()
	logger.Info("lost")
	logger.Error("lost")
}

func TestSecretNeverPrints(t *testing.T) {
	t.Parallel()

	s := logging.Secret("hunter2")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
	assert.NotContains(t, fmt.Sprintf("%s %v %#v", s, s, s), "hunter2")
}

func TestRedact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		secrets []string
		want    string
	}{
		{
			name:    "single secret",
			input:   "password is hunter2 ok",
			secrets: []string{"hunter2"},
			want:    "password is [REDACTED] ok",
		},
		{
			name:    "multiple occurrences",
			input:   "hunter2 and hunter2",
			secrets: []string{"hunter2"},
			want:    "[REDACTED] and [REDACTED]",
		},
		{
			name:    "short secrets are left alone",
			input:   "the answer is 42",
			secrets: []string{"42"},
			want:    "the answer is 42",
		},
		{
			name:    "empty secret list",
			input:   "nothing to hide",
			secrets: nil,
			want:    "nothing to hide",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logging.Redact(tt.input, tt.secrets))
		})
	}
}
