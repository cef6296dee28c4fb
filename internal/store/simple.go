package store

import (
	"context"

	"github.com/systmms/helm-values-manager/pkg/backend"
)

// SimpleBackend is the process-local backend holding every non-sensitive
// value. It is always available, never requires authentication, and is
// shared by all Values across all deployments of a store.
type SimpleBackend struct {
	values map[string]string
}

// NewSimpleBackend creates an empty simple backend.
func NewSimpleBackend() *SimpleBackend {
	return &SimpleBackend{values: make(map[string]string)}
}

func (b *SimpleBackend) Name() string { return "simple" }

func (b *SimpleBackend) Type() string { return "simple" }

func (b *SimpleBackend) GetValue(_ context.Context, key string) (string, error) {
	value, ok := b.values[key]
	if !ok {
		return "", &backend.NotFoundError{Backend: b.Name(), Key: key}
	}
	return value, nil
}

func (b *SimpleBackend) SetValue(_ context.Context, key, value string) error {
	b.values[key] = value
	return nil
}

func (b *SimpleBackend) RemoveValue(_ context.Context, key string) error {
	if _, ok := b.values[key]; !ok {
		return &backend.NotFoundError{Backend: b.Name(), Key: key}
	}
	delete(b.values, key)
	return nil
}

// ValidateAuth always succeeds; the simple backend needs no credentials.
func (b *SimpleBackend) ValidateAuth(context.Context, backend.AuthConfig) error {
	return nil
}

func (b *SimpleBackend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Sensitive:    false,
		RequiresAuth: false,
		AuthTypes:    []backend.AuthType{backend.AuthNone},
	}
}
