// Package backends implements the secret backends a deployment can be
// configured with, and the registry that builds them from stored
// configuration. Each backend satisfies the pkg/backend contract; the
// registry satisfies the store's factory interface.
package backends

import (
	"context"
	"fmt"
	"sort"

	"github.com/systmms/helm-values-manager/internal/logging"
	"github.com/systmms/helm-values-manager/pkg/backend"
	pkgexec "github.com/systmms/helm-values-manager/pkg/exec"
)

// Factory creates a backend instance for one deployment from its stored
// configuration.
type Factory func(deployment string, auth backend.AuthConfig, backendConfig map[string]any) (backend.Backend, error)

// Registry maps backend type names to factories and static validators.
type Registry struct {
	logger    *logging.Logger
	executor  pkgexec.CommandExecutor
	factories map[string]Factory
}

// RegistryOption configures a Registry at construction.
type RegistryOption func(*Registry)

// WithLogger injects the logger handed to backends that log.
func WithLogger(logger *logging.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// WithCommandExecutor injects the executor used by CLI-based backends.
func WithCommandExecutor(executor pkgexec.CommandExecutor) RegistryOption {
	return func(r *Registry) { r.executor = executor }
}

// NewRegistry creates a registry with the built-in backends registered.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	if r.executor == nil {
		r.executor = pkgexec.DefaultExecutor()
	}

	r.Register("aws", func(deployment string, auth backend.AuthConfig, cfg map[string]any) (backend.Backend, error) {
		return NewAWSBackend(deployment, auth, cfg)
	})
	r.Register("azure", func(deployment string, auth backend.AuthConfig, cfg map[string]any) (backend.Backend, error) {
		return NewAzureBackend(deployment, auth, cfg)
	})
	r.Register("gcp", func(deployment string, auth backend.AuthConfig, cfg map[string]any) (backend.Backend, error) {
		return NewGCPBackend(deployment, auth, cfg)
	})
	r.Register("git-secret", func(deployment string, auth backend.AuthConfig, cfg map[string]any) (backend.Backend, error) {
		return NewGitSecretBackend(deployment, auth, cfg, WithExecutor(r.executor))
	})
	return r
}

// Register adds or replaces a factory for a backend type.
func (r *Registry) Register(backendType string, factory Factory) {
	r.factories[backendType] = factory
}

// Supported returns the registered backend type names, sorted.
func (r *Registry) Supported() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsSupported checks if a backend type is registered.
func (r *Registry) IsSupported(backendType string) bool {
	_, ok := r.factories[backendType]
	return ok
}

// Create builds a backend instance for a deployment.
func (r *Registry) Create(deployment, backendType string, auth backend.AuthConfig, backendConfig map[string]any) (backend.Backend, error) {
	factory, ok := r.factories[backendType]
	if !ok {
		return nil, fmt.Errorf("unknown backend type: %s", backendType)
	}
	r.logger.Debug("creating %s backend for deployment %s", backendType, deployment)
	return factory(deployment, auth, backendConfig)
}

// ValidateConfig checks backend_config for a backend type without
// constructing a client.
func (r *Registry) ValidateConfig(backendType string, backendConfig map[string]any) error {
	switch backendType {
	case "aws":
		return ValidateAWSConfig(backendConfig)
	case "azure":
		return ValidateAzureConfig(backendConfig)
	case "gcp":
		return ValidateGCPConfig(backendConfig)
	case "git-secret":
		return ValidateGitSecretConfig(backendConfig)
	}
	return fmt.Errorf("unknown backend type: %s", backendType)
}

// ValidateAuth statically checks an auth configuration against a backend
// type's requirements, reporting every problem at once. It never contacts
// the backend; live checks happen through Backend.ValidateAuth.
func (r *Registry) ValidateAuth(_ context.Context, backendType string, auth backend.AuthConfig) error {
	if !r.IsSupported(backendType) {
		return fmt.Errorf("unknown backend type: %s", backendType)
	}

	var fields []string
	switch backendType {
	case "aws":
		if auth.Type == backend.AuthDirect {
			if auth.Credentials["access_key_id"] == "" {
				fields = append(fields, "access_key_id is required for direct auth")
			}
			if auth.Credentials["secret_access_key"] == "" {
				fields = append(fields, "secret_access_key is required for direct auth")
			}
		}
	case "azure":
		if auth.Type == backend.AuthDirect {
			for _, field := range []string{"tenant_id", "client_id", "client_secret"} {
				if auth.Credentials[field] == "" {
					fields = append(fields, field+" is required for direct auth")
				}
			}
		}
	case "gcp":
		if auth.Type == backend.AuthDirect && auth.Credentials["service_account_json"] == "" {
			fields = append(fields, "service_account_json is required for direct auth")
		}
	case "git-secret":
		if auth.Type == backend.AuthDirect || auth.Type == backend.AuthFile || auth.Type == backend.AuthManagedIdentity {
			fields = append(fields, fmt.Sprintf("git-secret does not support %s auth (use no-auth or env)", auth.Type))
		}
	}

	if len(fields) > 0 {
		return &backend.AuthConfigError{Backend: backendType, Fields: fields}
	}
	return nil
}
