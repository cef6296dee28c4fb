package backends

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/systmms/helm-values-manager/pkg/backend"
	pkgexec "github.com/systmms/helm-values-manager/pkg/exec"
)

// GitSecretBackend stores secrets as GPG-encrypted files inside the
// repository, in the git-secret layout: one .gpg file per (path, deployment)
// under the configured store directory. The encrypted files are meant to be
// committed alongside the configuration.
type GitSecretBackend struct {
	deployment string
	storeDir   string
	gpgKey     string
	executor   pkgexec.CommandExecutor
}

// GitSecretOption is a functional option for configuring the backend.
type GitSecretOption func(*GitSecretBackend)

// WithExecutor sets a custom command executor (for testing).
func WithExecutor(executor pkgexec.CommandExecutor) GitSecretOption {
	return func(b *GitSecretBackend) { b.executor = executor }
}

// NewGitSecretBackend creates a git-secret backend for one deployment.
func NewGitSecretBackend(deployment string, auth backend.AuthConfig, backendConfig map[string]any, opts ...GitSecretOption) (*GitSecretBackend, error) {
	if err := ValidateGitSecretConfig(backendConfig); err != nil {
		return nil, err
	}

	b := &GitSecretBackend{
		deployment: deployment,
		storeDir:   ".git-secrets",
		executor:   pkgexec.DefaultExecutor(),
	}
	if dir, ok := backendConfig["store_dir"].(string); ok && dir != "" {
		b.storeDir = dir
	}
	if key, ok := backendConfig["gpg_key"].(string); ok {
		b.gpgKey = key
	}
	if b.gpgKey == "" && auth.Type == backend.AuthEnv {
		b.gpgKey = os.Getenv(auth.Prefix + "GPG_KEY")
	}

	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// ValidateGitSecretConfig checks backend_config for the git-secret backend.
func ValidateGitSecretConfig(backendConfig map[string]any) error {
	var problems []string
	if dir, ok := backendConfig["store_dir"]; ok {
		if _, isStr := dir.(string); !isStr {
			problems = append(problems, "store_dir must be a string")
		}
	}
	if key, ok := backendConfig["gpg_key"]; ok {
		if _, isStr := key.(string); !isStr {
			problems = append(problems, "gpg_key must be a string")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid git-secret backend config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Name returns the deployment this backend instance serves.
func (b *GitSecretBackend) Name() string { return b.deployment }

// Type returns the backend type identifier.
func (b *GitSecretBackend) Type() string { return "git-secret" }

// GetValue decrypts the secret file for a storage key.
func (b *GitSecretBackend) GetValue(ctx context.Context, key string) (string, error) {
	file := b.secretFile(key)
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return "", &backend.NotFoundError{Backend: b.deployment, Key: key}
	}

	stdout, stderr, err := b.executor.Execute(ctx, "gpg", "--batch", "--quiet", "--decrypt", file)
	if err != nil {
		return "", b.wrapGPGError(err, stderr)
	}
	return strings.TrimSuffix(string(stdout), "\n"), nil
}

// SetValue encrypts value into the secret file for a storage key. The
// plaintext is piped to gpg on stdin so it never hits the filesystem.
func (b *GitSecretBackend) SetValue(ctx context.Context, key, value string) error {
	if b.gpgKey == "" {
		return &backend.AuthConfigError{
			Backend: b.deployment,
			Fields:  []string{"gpg_key is required to encrypt values (set backend_config.gpg_key or the env auth prefix)"},
		}
	}

	file := b.secretFile(key)
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return &backend.UnavailableError{Backend: b.deployment, Err: err}
	}

	_, stderr, err := b.executor.ExecuteInput(ctx, strings.NewReader(value+"\n"),
		"gpg", "--batch", "--yes", "--recipient", b.gpgKey, "--output", file, "--encrypt")
	if err != nil {
		return b.wrapGPGError(err, stderr)
	}
	return nil
}

// RemoveValue deletes the secret file for a storage key.
func (b *GitSecretBackend) RemoveValue(_ context.Context, key string) error {
	err := os.Remove(b.secretFile(key))
	if os.IsNotExist(err) {
		return &backend.NotFoundError{Backend: b.deployment, Key: key}
	}
	if err != nil {
		return &backend.UnavailableError{Backend: b.deployment, Err: err}
	}
	return nil
}

// ValidateAuth checks that gpg is installed and a usable secret key exists.
func (b *GitSecretBackend) ValidateAuth(ctx context.Context, _ backend.AuthConfig) error {
	args := []string{"--batch", "--list-secret-keys"}
	if b.gpgKey != "" {
		args = append(args, b.gpgKey)
	}
	_, stderr, err := b.executor.Execute(ctx, "gpg", args...)
	if err != nil {
		return &backend.AuthError{
			Backend: b.deployment,
			Message: fmt.Sprintf("gpg key check failed: %v (%s)", err, strings.TrimSpace(string(stderr))),
		}
	}
	return nil
}

// Capabilities describes what this backend supports.
func (b *GitSecretBackend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Sensitive:    true,
		RequiresAuth: true,
		AuthTypes: []backend.AuthType{
			backend.AuthNone, backend.AuthEnv,
		},
	}
}

// secretFile maps a storage key to the encrypted file holding it. The
// deployment half of the key becomes a subdirectory so stores stay browsable.
func (b *GitSecretBackend) secretFile(key string) string {
	path := key
	deployment := b.deployment
	if p, d, ok := strings.Cut(key, ":"); ok {
		path, deployment = p, d
	}
	return filepath.Join(b.storeDir, deployment, path+".gpg")
}

func (b *GitSecretBackend) wrapGPGError(err error, stderr []byte) error {
	msg := strings.TrimSpace(string(stderr))
	if strings.Contains(msg, "No secret key") || strings.Contains(msg, "decryption failed") {
		return &backend.AuthError{
			Backend: b.deployment,
			Message: fmt.Sprintf("gpg decryption failed: %s", msg),
		}
	}
	return &backend.UnavailableError{Backend: b.deployment, Err: fmt.Errorf("%w: %s", err, msg)}
}
