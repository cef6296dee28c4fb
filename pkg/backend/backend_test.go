package backend_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/helm-values-manager/pkg/backend"
)

func TestValidAuthType(t *testing.T) {
	t.Parallel()

	for _, valid := range []backend.AuthType{
		backend.AuthNone,
		backend.AuthEnv,
		backend.AuthFile,
		backend.AuthDirect,
		backend.AuthManagedIdentity,
	} {
		assert.True(t, backend.ValidAuthType(valid), string(valid))
	}

	assert.False(t, backend.ValidAuthType("oauth"))
	assert.False(t, backend.ValidAuthType(""))
}

func TestTypedErrorMessages(t *testing.T) {
	t.Parallel()

	notFound := &backend.NotFoundError{Backend: "prod", Key: "app.db.password:prod"}
	assert.Contains(t, notFound.Error(), "app.db.password:prod")
	assert.Contains(t, notFound.Error(), "prod")

	auth := &backend.AuthError{Backend: "prod", Message: "access denied"}
	assert.Contains(t, auth.Error(), "access denied")

	cause := errors.New("dial tcp: connection refused")
	unreachable := &backend.UnreachableError{Backend: "prod", Err: cause}
	assert.Contains(t, unreachable.Error(), "connection refused")
	assert.ErrorIs(t, unreachable, cause)

	// Absent cause still renders a usable message
	assert.Contains(t, (&backend.UnreachableError{Backend: "prod"}).Error(), "unreachable")

	unavailable := &backend.UnavailableError{Backend: "prod", Err: cause}
	assert.ErrorIs(t, unavailable, cause)
}

func TestAuthConfigErrorListsEveryField(t *testing.T) {
	t.Parallel()

	err := &backend.AuthConfigError{
		Backend: "aws",
		Fields: []string{
			"access_key_id is required for direct auth",
			"secret_access_key is required for direct auth",
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "invalid auth config for backend aws")
	assert.Contains(t, msg, "access_key_id")
	assert.Contains(t, msg, "secret_access_key")
}
