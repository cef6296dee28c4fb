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

func newTestAzureBackend(t *testing.T, client backends.AzureKeyVaultClientAPI) *backends.AzureBackend {
	t.Helper()
	b, err := backends.NewAzureBackend("prod",
		backend.AuthConfig{Type: backend.AuthNone},
		map[string]any{"vault_url": "https://test.vault.azure.net/"},
		backends.WithAzureKeyVaultClient(client),
	)
	require.NoError(t, err)
	return b
}

func TestAzureBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("round trip with name mapping", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeKeyVaultClient()
		b := newTestAzureBackend(t, client)

		require.NoError(t, b.SetValue(ctx, "app.db.password:prod", "hunter2"))
		// Key Vault names allow only alphanumerics and dashes; the escape
		// encoding keeps the mapping reversible.
		assert.Equal(t, "hunter2", client.Secrets["app-pdb-ppassword-cprod"])

		got, err := b.GetValue(ctx, "app.db.password:prod")
		require.NoError(t, err)
		assert.Equal(t, "hunter2", got)

		require.NoError(t, b.RemoveValue(ctx, "app.db.password:prod"))
		assert.Empty(t, client.Secrets)
	})

	t.Run("dashed keys never collide with folded ones", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeKeyVaultClient()
		b := newTestAzureBackend(t, client)

		require.NoError(t, b.SetValue(ctx, "db.password:dev", "dotted"))
		require.NoError(t, b.SetValue(ctx, "db-password:dev", "dashed"))
		require.NoError(t, b.SetValue(ctx, "db_password:dev", "underscored"))

		require.Len(t, client.Secrets, 3)

		got, err := b.GetValue(ctx, "db.password:dev")
		require.NoError(t, err)
		assert.Equal(t, "dotted", got)
		got, err = b.GetValue(ctx, "db-password:dev")
		require.NoError(t, err)
		assert.Equal(t, "dashed", got)
		got, err = b.GetValue(ctx, "db_password:dev")
		require.NoError(t, err)
		assert.Equal(t, "underscored", got)
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Parallel()
		b := newTestAzureBackend(t, fakes.NewFakeKeyVaultClient())

		_, err := b.GetValue(ctx, "missing:prod")
		var notFound *backend.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("forbidden surfaces auth error", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeKeyVaultClient()
		client.Err = fakes.KeyVaultForbiddenError()
		b := newTestAzureBackend(t, client)

		_, err := b.GetValue(ctx, "app.token:prod")
		var authErr *backend.AuthError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("validate auth treats not-found probe as success", func(t *testing.T) {
		t.Parallel()
		b := newTestAzureBackend(t, fakes.NewFakeKeyVaultClient())
		require.NoError(t, b.ValidateAuth(ctx, backend.AuthConfig{Type: backend.AuthNone}))
	})

	t.Run("validate auth fails on forbidden", func(t *testing.T) {
		t.Parallel()
		client := fakes.NewFakeKeyVaultClient()
		client.Err = fakes.KeyVaultForbiddenError()
		b := newTestAzureBackend(t, client)

		err := b.ValidateAuth(ctx, backend.AuthConfig{Type: backend.AuthNone})
		var authErr *backend.AuthError
		require.ErrorAs(t, err, &authErr)
	})
}

func TestValidateAzureConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     map[string]any
		wantErr bool
	}{
		{name: "valid vault url", cfg: map[string]any{"vault_url": "https://test.vault.azure.net/"}},
		{name: "missing vault url", cfg: map[string]any{}, wantErr: true},
		{name: "empty vault url", cfg: map[string]any{"vault_url": ""}, wantErr: true},
		{name: "non-https vault url", cfg: map[string]any{"vault_url": "http://test.vault.azure.net/"}, wantErr: true},
		{name: "non-string vault url", cfg: map[string]any{"vault_url": 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := backends.ValidateAzureConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
