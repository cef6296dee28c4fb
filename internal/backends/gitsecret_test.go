package backends_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/helm-values-manager/internal/backends"
	"github.com/systmms/helm-values-manager/pkg/backend"
	"github.com/systmms/helm-values-manager/tests/fakes"
)

func newTestGitSecretBackend(t *testing.T, executor *fakes.FakeCommandExecutor) *backends.GitSecretBackend {
	t.Helper()
	b, err := backends.NewGitSecretBackend("prod",
		backend.AuthConfig{Type: backend.AuthNone},
		map[string]any{"store_dir": t.TempDir(), "gpg_key": "deploy@example.com"},
		backends.WithExecutor(executor),
	)
	require.NoError(t, err)
	return b
}

func TestGitSecretBackendSetValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	executor := fakes.NewFakeCommandExecutor()
	b := newTestGitSecretBackend(t, executor)

	require.NoError(t, b.SetValue(ctx, "app.db.password:prod", "hunter2"))

	require.Len(t, executor.Commands, 1)
	cmd := executor.Commands[0]
	assert.Equal(t, "gpg", cmd.Name)
	assert.Contains(t, cmd.Args, "--encrypt")
	assert.Contains(t, cmd.Args, "deploy@example.com")
	// The plaintext goes through stdin, never through argv.
	assert.Equal(t, "hunter2\n", cmd.Input)
	assert.NotContains(t, cmd.Args, "hunter2")

	// The output path splits the storage key into deployment/path.gpg.
	var outFile string
	for i, arg := range cmd.Args {
		if arg == "--output" {
			outFile = cmd.Args[i+1]
		}
	}
	assert.Equal(t, filepath.Join("prod", "app.db.password.gpg"), filepath.Join(filepath.Base(filepath.Dir(outFile)), filepath.Base(outFile)))
}

func TestGitSecretBackendSetValueWithoutKey(t *testing.T) {
	t.Parallel()

	b, err := backends.NewGitSecretBackend("prod",
		backend.AuthConfig{Type: backend.AuthNone},
		map[string]any{"store_dir": t.TempDir()},
		backends.WithExecutor(fakes.NewFakeCommandExecutor()),
	)
	require.NoError(t, err)

	err = b.SetValue(context.Background(), "a:prod", "x")
	var cfgErr *backend.AuthConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestGitSecretBackendGetValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("decrypts existing file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		executor := fakes.NewFakeCommandExecutor()
		executor.Responses["gpg"] = "hunter2\n"

		b, err := backends.NewGitSecretBackend("prod",
			backend.AuthConfig{Type: backend.AuthNone},
			map[string]any{"store_dir": dir, "gpg_key": "deploy@example.com"},
			backends.WithExecutor(executor),
		)
		require.NoError(t, err)

		// GetValue checks file existence before shelling out.
		file := filepath.Join(dir, "prod", "app.db.password.gpg")
		require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o700))
		require.NoError(t, os.WriteFile(file, []byte("encrypted"), 0o600))

		got, err := b.GetValue(ctx, "app.db.password:prod")
		require.NoError(t, err)
		assert.Equal(t, "hunter2", got)
	})

	t.Run("missing file short-circuits", func(t *testing.T) {
		t.Parallel()
		executor := fakes.NewFakeCommandExecutor()
		b := newTestGitSecretBackend(t, executor)

		_, err := b.GetValue(ctx, "missing:prod")
		var notFound *backend.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Empty(t, executor.Commands)
	})
}

func TestGitSecretBackendValidateAuth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("lists the configured key", func(t *testing.T) {
		t.Parallel()
		executor := fakes.NewFakeCommandExecutor()
		b := newTestGitSecretBackend(t, executor)

		require.NoError(t, b.ValidateAuth(ctx, backend.AuthConfig{Type: backend.AuthNone}))
		require.Len(t, executor.Commands, 1)
		assert.Contains(t, executor.Commands[0].Args, "--list-secret-keys")
		assert.Contains(t, executor.Commands[0].Args, "deploy@example.com")
	})

	t.Run("missing key fails", func(t *testing.T) {
		t.Parallel()
		executor := fakes.NewFakeCommandExecutor()
		executor.Err = errors.New("exit status 2")
		executor.Stderr = "gpg: error reading key: No secret key"
		b := newTestGitSecretBackend(t, executor)

		err := b.ValidateAuth(ctx, backend.AuthConfig{Type: backend.AuthNone})
		var authErr *backend.AuthError
		require.ErrorAs(t, err, &authErr)
	})
}
