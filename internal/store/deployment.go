package store

import (
	"regexp"

	"github.com/systmms/helm-values-manager/pkg/backend"
)

// BackendType is the closed set of backends a deployment may use.
type BackendType string

const (
	BackendNone      BackendType = "no-backend"
	BackendGitSecret BackendType = "git-secret"
	BackendAWS       BackendType = "aws"
	BackendAzure     BackendType = "azure"
	BackendGCP       BackendType = "gcp"
)

// ValidBackendType reports whether t names a known backend.
func ValidBackendType(t BackendType) bool {
	switch t {
	case BackendNone, BackendGitSecret, BackendAWS, BackendAzure, BackendGCP:
		return true
	}
	return false
}

// deploymentNamePattern also guarantees names can never contain the ':' used
// as the storage key separator.
var deploymentNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidDeploymentName reports whether name is a legal deployment name.
func ValidDeploymentName(name string) bool {
	return deploymentNamePattern.MatchString(name)
}

// Deployment is a named target environment with its backend and auth
// configuration. New deployments start with no-backend/no-auth; backend and
// auth are attached by explicit operations, never defaulted silently.
type Deployment struct {
	Name          string
	Backend       BackendType
	Auth          backend.AuthConfig
	BackendConfig map[string]any
}

func newDeployment(name string) *Deployment {
	return &Deployment{
		Name:    name,
		Backend: BackendNone,
		Auth:    backend.AuthConfig{Type: backend.AuthNone},
	}
}

// HasBackend reports whether a secret backend is attached.
func (d *Deployment) HasBackend() bool {
	return d.Backend != BackendNone
}
