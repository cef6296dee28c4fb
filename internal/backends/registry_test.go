package backends_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/helm-values-manager/internal/backends"
	"github.com/systmms/helm-values-manager/pkg/backend"
	"github.com/systmms/helm-values-manager/tests/fakes"
)

func TestRegistrySupported(t *testing.T) {
	t.Parallel()

	r := backends.NewRegistry()
	assert.Equal(t, []string{"aws", "azure", "gcp", "git-secret"}, r.Supported())
	assert.True(t, r.IsSupported("aws"))
	assert.False(t, r.IsSupported("vault"))
}

func TestRegistryCreate(t *testing.T) {
	t.Parallel()

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		r := backends.NewRegistry()
		_, err := r.Create("prod", "vault", backend.AuthConfig{}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown backend type")
	})

	t.Run("git-secret uses the registry executor", func(t *testing.T) {
		t.Parallel()
		executor := fakes.NewFakeCommandExecutor()
		r := backends.NewRegistry(backends.WithCommandExecutor(executor))

		b, err := r.Create("prod", "git-secret",
			backend.AuthConfig{Type: backend.AuthNone},
			map[string]any{"store_dir": t.TempDir(), "gpg_key": "deploy@example.com"},
		)
		require.NoError(t, err)
		assert.Equal(t, "git-secret", b.Type())

		require.NoError(t, b.ValidateAuth(context.Background(), backend.AuthConfig{Type: backend.AuthNone}))
		assert.NotEmpty(t, executor.Commands)
	})

	t.Run("custom factory override", func(t *testing.T) {
		t.Parallel()
		r := backends.NewRegistry()
		r.Register("aws", func(deployment string, _ backend.AuthConfig, _ map[string]any) (backend.Backend, error) {
			b, err := backends.NewAWSBackend(deployment, backend.AuthConfig{Type: backend.AuthNone}, nil,
				backends.WithSecretsManagerClient(fakes.NewFakeSecretsManagerClient()))
			return b, err
		})

		b, err := r.Create("prod", "aws", backend.AuthConfig{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "aws", b.Type())
		assert.Equal(t, "prod", b.Name())
	})
}

func TestRegistryValidateConfig(t *testing.T) {
	t.Parallel()

	r := backends.NewRegistry()

	tests := []struct {
		name        string
		backendType string
		cfg         map[string]any
		wantErr     bool
	}{
		{name: "aws empty", backendType: "aws", cfg: map[string]any{}},
		{name: "azure requires vault url", backendType: "azure", cfg: map[string]any{}, wantErr: true},
		{name: "azure valid", backendType: "azure", cfg: map[string]any{"vault_url": "https://v.vault.azure.net"}},
		{name: "gcp requires project", backendType: "gcp", cfg: map[string]any{}, wantErr: true},
		{name: "gcp valid", backendType: "gcp", cfg: map[string]any{"project_id": "my-project"}},
		{name: "git-secret empty", backendType: "git-secret", cfg: map[string]any{}},
		{name: "unknown type", backendType: "vault", cfg: map[string]any{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := r.ValidateConfig(tt.backendType, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistryValidateAuth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r := backends.NewRegistry()

	t.Run("aws direct aggregates missing credentials", func(t *testing.T) {
		t.Parallel()
		err := r.ValidateAuth(ctx, "aws", backend.AuthConfig{Type: backend.AuthDirect, Credentials: map[string]string{}})
		var cfgErr *backend.AuthConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Len(t, cfgErr.Fields, 2)
	})

	t.Run("azure direct aggregates missing credentials", func(t *testing.T) {
		t.Parallel()
		err := r.ValidateAuth(ctx, "azure", backend.AuthConfig{
			Type:        backend.AuthDirect,
			Credentials: map[string]string{"tenant_id": "t"},
		})
		var cfgErr *backend.AuthConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Len(t, cfgErr.Fields, 2)
	})

	t.Run("git-secret rejects credential variants", func(t *testing.T) {
		t.Parallel()
		err := r.ValidateAuth(ctx, "git-secret", backend.AuthConfig{Type: backend.AuthDirect})
		var cfgErr *backend.AuthConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("env auth passes static checks", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, r.ValidateAuth(ctx, "aws", backend.AuthConfig{Type: backend.AuthEnv, Prefix: "PROD_"}))
		require.NoError(t, r.ValidateAuth(ctx, "git-secret", backend.AuthConfig{Type: backend.AuthEnv, Prefix: "PROD_"}))
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		require.Error(t, r.ValidateAuth(ctx, "vault", backend.AuthConfig{Type: backend.AuthNone}))
	})
}
