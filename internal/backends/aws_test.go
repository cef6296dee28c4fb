package backends_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/helm-values-manager/internal/backends"
	"github.com/systmms/helm-values-manager/pkg/backend"
	"github.com/systmms/helm-values-manager/tests/fakes"
)

func newTestAWSBackend(t *testing.T, cfg map[string]any, opts ...backends.AWSOption) *backends.AWSBackend {
	t.Helper()
	b, err := backends.NewAWSBackend("prod", backend.AuthConfig{Type: backend.AuthNone}, cfg, opts...)
	require.NoError(t, err)
	return b
}

func TestAWSBackendSecretsManager(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("set creates then updates", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeSecretsManagerClient()
		b := newTestAWSBackend(t, map[string]any{"region": "eu-west-1"}, backends.WithSecretsManagerClient(client))

		require.NoError(t, b.SetValue(ctx, "app.db.password:prod", "hunter2"))
		assert.Equal(t, 1, client.CreateCalls)
		// ':' is not legal in secret names; the deployment becomes a path
		// segment.
		assert.Equal(t, "hunter2", client.Secrets["app.db.password/prod"])

		require.NoError(t, b.SetValue(ctx, "app.db.password:prod", "hunter3"))
		assert.Equal(t, 1, client.CreateCalls)
		assert.Equal(t, "hunter3", client.Secrets["app.db.password/prod"])
	})

	t.Run("get round trip", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeSecretsManagerClient()
		b := newTestAWSBackend(t, map[string]any{}, backends.WithSecretsManagerClient(client))

		require.NoError(t, b.SetValue(ctx, "app.token:prod", "tok"))
		got, err := b.GetValue(ctx, "app.token:prod")
		require.NoError(t, err)
		assert.Equal(t, "tok", got)
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeSecretsManagerClient()
		b := newTestAWSBackend(t, map[string]any{}, backends.WithSecretsManagerClient(client))

		_, err := b.GetValue(ctx, "missing:prod")
		var notFound *backend.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "missing:prod", notFound.Key)
	})

	t.Run("remove", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeSecretsManagerClient()
		b := newTestAWSBackend(t, map[string]any{}, backends.WithSecretsManagerClient(client))

		require.NoError(t, b.SetValue(ctx, "app.token:prod", "tok"))
		require.NoError(t, b.RemoveValue(ctx, "app.token:prod"))
		assert.Empty(t, client.Secrets)

		var notFound *backend.NotFoundError
		require.ErrorAs(t, b.RemoveValue(ctx, "app.token:prod"), &notFound)
	})

	t.Run("auth failure surfaces typed", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeSecretsManagerClient()
		client.Err = errors.New("AccessDeniedException: not authorized")
		b := newTestAWSBackend(t, map[string]any{}, backends.WithSecretsManagerClient(client))

		_, err := b.GetValue(ctx, "app.token:prod")
		var authErr *backend.AuthError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("transport failure surfaces unreachable", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeSecretsManagerClient()
		client.Err = errors.New("dial tcp: connection refused")
		b := newTestAWSBackend(t, map[string]any{}, backends.WithSecretsManagerClient(client))

		_, err := b.GetValue(ctx, "app.token:prod")
		var unreachable *backend.UnreachableError
		require.ErrorAs(t, err, &unreachable)
	})
}

func TestAWSBackendSSM(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := map[string]any{"service": "ssm", "region": "eu-west-1"}

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeSSMClient()
		b := newTestAWSBackend(t, cfg, backends.WithSSMClient(client))

		require.NoError(t, b.SetValue(ctx, "app.db.password:prod", "hunter2"))
		assert.Equal(t, "hunter2", client.Parameters["/app.db.password/prod"])

		got, err := b.GetValue(ctx, "app.db.password:prod")
		require.NoError(t, err)
		assert.Equal(t, "hunter2", got)

		require.NoError(t, b.RemoveValue(ctx, "app.db.password:prod"))
		assert.Empty(t, client.Parameters)
	})

	t.Run("missing parameter", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeSSMClient()
		b := newTestAWSBackend(t, cfg, backends.WithSSMClient(client))

		_, err := b.GetValue(ctx, "missing:prod")
		var notFound *backend.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestAWSBackendValidateAuth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("identity check passes", func(t *testing.T) {
		t.Parallel()
		sts := &fakes.FakeSTSClient{}
		b := newTestAWSBackend(t, map[string]any{},
			backends.WithSecretsManagerClient(fakes.NewFakeSecretsManagerClient()),
			backends.WithSTSClient(sts),
		)

		require.NoError(t, b.ValidateAuth(ctx, backend.AuthConfig{Type: backend.AuthNone}))
		assert.Equal(t, 1, sts.Calls)
	})

	t.Run("identity check fails", func(t *testing.T) {
		t.Parallel()
		sts := &fakes.FakeSTSClient{Err: errors.New("InvalidClientTokenId")}
		b := newTestAWSBackend(t, map[string]any{},
			backends.WithSecretsManagerClient(fakes.NewFakeSecretsManagerClient()),
			backends.WithSTSClient(sts),
		)

		err := b.ValidateAuth(ctx, backend.AuthConfig{Type: backend.AuthNone})
		var authErr *backend.AuthError
		require.ErrorAs(t, err, &authErr)
	})
}

func TestValidateAWSConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     map[string]any
		wantErr bool
	}{
		{name: "empty config", cfg: map[string]any{}},
		{name: "secretsmanager service", cfg: map[string]any{"service": "secretsmanager"}},
		{name: "ssm service", cfg: map[string]any{"service": "ssm"}},
		{name: "region and endpoint", cfg: map[string]any{"region": "eu-west-1", "endpoint": "http://localhost:4566"}},
		{name: "unknown service", cfg: map[string]any{"service": "kms"}, wantErr: true},
		{name: "non-string region", cfg: map[string]any{"region": 7}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := backends.ValidateAWSConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
