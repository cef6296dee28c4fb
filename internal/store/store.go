// Package store implements the configuration data model and value-resolution
// engine: the unified path/value schema for a Helm release, its validation
// rules, and the policy that routes each value either to the process-local
// simple backend or to the secret backend configured on the target
// deployment.
package store

import (
	"context"
	"slices"

	hvmerrors "github.com/systmms/helm-values-manager/internal/errors"
	"github.com/systmms/helm-values-manager/internal/logging"
	"github.com/systmms/helm-values-manager/pkg/backend"
)

// Version is the supported schema version literal.
const Version = "1.0"

// BackendFactory builds and statically validates secret backends for
// deployments. internal/backends.Registry is the production implementation;
// tests substitute fakes.
type BackendFactory interface {
	// Create builds a backend instance for a deployment.
	Create(deployment, backendType string, auth backend.AuthConfig, backendConfig map[string]any) (backend.Backend, error)

	// ValidateConfig checks backend_config for a backend type without
	// constructing a client.
	ValidateConfig(backendType string, backendConfig map[string]any) error

	// ValidateAuth checks an auth configuration against a backend type's
	// requirements, reporting every problem at once.
	ValidateAuth(ctx context.Context, backendType string, auth backend.AuthConfig) error
}

// Store is the single source of truth for one release's configuration
// schema: the path map, the deployment map, and the shared simple backend
// for non-sensitive values.
//
// A Store is not safe for concurrent mutation; command invocations each load
// their own instance and serialize access externally.
type Store struct {
	version     string
	release     string
	deployments map[string]*Deployment
	paths       map[string]*PathEntry
	pathOrder   []string

	simple  backend.Backend
	factory BackendFactory
	logger  *logging.Logger

	// Secret backend instances are cached per deployment and invalidated
	// when backend or auth configuration changes.
	secretBackends map[string]backend.Backend
}

// Option configures a Store at construction.
type Option func(*Store)

// WithLogger injects the logger used by the store and its backends.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithBackendFactory injects the factory used to build secret backends.
func WithBackendFactory(factory BackendFactory) Option {
	return func(s *Store) { s.factory = factory }
}

// WithSimpleBackend replaces the backend holding non-sensitive values.
func WithSimpleBackend(b backend.Backend) Option {
	return func(s *Store) { s.simple = b }
}

// New creates an empty store for the given Helm release.
func New(release string, opts ...Option) *Store {
	s := &Store{
		version:        Version,
		release:        release,
		deployments:    make(map[string]*Deployment),
		paths:          make(map[string]*PathEntry),
		secretBackends: make(map[string]backend.Backend),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.simple == nil {
		s.simple = NewSimpleBackend()
	}
	return s
}

// Release returns the Helm release name.
func (s *Store) Release() string { return s.release }

// SchemaVersion returns the schema version of the store.
func (s *Store) SchemaVersion() string { return s.version }

// Paths returns every path entry in insertion order.
func (s *Store) Paths() []*PathEntry {
	entries := make([]*PathEntry, 0, len(s.pathOrder))
	for _, p := range s.pathOrder {
		entries = append(entries, s.paths[p])
	}
	return entries
}

// Path returns the entry for path, or an error if it does not exist.
func (s *Store) Path(path string) (*PathEntry, error) {
	entry, ok := s.paths[path]
	if !ok {
		return nil, &hvmerrors.PathError{Path: path, Err: hvmerrors.ErrPathNotFound}
	}
	return entry, nil
}

// Deployments returns every deployment sorted by name.
func (s *Store) Deployments() []*Deployment {
	names := make([]string, 0, len(s.deployments))
	for name := range s.deployments {
		names = append(names, name)
	}
	slices.Sort(names)
	deps := make([]*Deployment, 0, len(names))
	for _, name := range names {
		deps = append(deps, s.deployments[name])
	}
	return deps
}

// Deployment returns the named deployment, or an error if it does not exist.
func (s *Store) Deployment(name string) (*Deployment, error) {
	dep, ok := s.deployments[name]
	if !ok {
		return nil, &hvmerrors.DeploymentError{Deployment: name, Err: hvmerrors.ErrDeploymentNotFound}
	}
	return dep, nil
}

// AddPath registers a new configuration path with its metadata. The entry
// starts with no values.
func (s *Store) AddPath(path string, metadata Metadata) error {
	if !ValidPath(path) {
		return &hvmerrors.PathError{Path: path, Err: hvmerrors.ErrInvalidPathFormat}
	}
	if _, ok := s.paths[path]; ok {
		return &hvmerrors.PathError{Path: path, Err: hvmerrors.ErrDuplicatePath}
	}
	s.paths[path] = newPathEntry(path, metadata)
	s.pathOrder = append(s.pathOrder, path)
	s.logger.Debug("added path %s (required=%t sensitive=%t)", path, metadata.Required, metadata.Sensitive)
	return nil
}

// RemovePath deletes a path. A path that still holds values is refused
// unless force is set, in which case every value is removed from its backend
// first.
func (s *Store) RemovePath(ctx context.Context, path string, force bool) error {
	entry, ok := s.paths[path]
	if !ok {
		return &hvmerrors.PathError{Path: path, Err: hvmerrors.ErrPathNotFound}
	}
	if entry.HasValues() {
		if !force {
			return &hvmerrors.PathError{Path: path, Err: hvmerrors.ErrPathInUse}
		}
		for dep, v := range entry.values {
			if err := s.ensureBound(v, path, dep); err != nil {
				return err
			}
			if err := v.Remove(ctx); err != nil {
				return &hvmerrors.ValueError{Path: path, Deployment: dep, Err: err}
			}
			entry.removeValue(dep)
		}
	}
	delete(s.paths, path)
	s.pathOrder = slices.DeleteFunc(s.pathOrder, func(p string) bool { return p == path })
	s.logger.Debug("removed path %s", path)
	return nil
}

// AddDeployment registers a named deployment with no-backend/no-auth
// defaults.
func (s *Store) AddDeployment(name string) error {
	if !ValidDeploymentName(name) {
		return &hvmerrors.DeploymentError{Deployment: name, Err: hvmerrors.ErrInvalidDeploymentName}
	}
	if _, ok := s.deployments[name]; ok {
		return &hvmerrors.DeploymentError{Deployment: name, Err: hvmerrors.ErrDuplicateDeployment}
	}
	s.deployments[name] = newDeployment(name)
	s.logger.Debug("added deployment %s", name)
	return nil
}

// AttachBackend configures the secret backend of a deployment.
func (s *Store) AttachBackend(name string, backendType BackendType, backendConfig map[string]any) error {
	dep, ok := s.deployments[name]
	if !ok {
		return &hvmerrors.DeploymentError{Deployment: name, Err: hvmerrors.ErrDeploymentNotFound}
	}
	if !ValidBackendType(backendType) || backendType == BackendNone {
		return &hvmerrors.DeploymentError{Deployment: name, Err: hvmerrors.ErrInvalidBackendType}
	}
	if s.factory != nil {
		if err := s.factory.ValidateConfig(string(backendType), backendConfig); err != nil {
			return &hvmerrors.DeploymentError{Deployment: name, Err: err}
		}
	}
	dep.Backend = backendType
	dep.BackendConfig = backendConfig
	delete(s.secretBackends, name)
	s.rebindSensitiveValues(name)
	s.logger.Debug("attached backend %s to deployment %s", backendType, name)
	return nil
}

// AttachAuth configures how a deployment authenticates to its backend.
func (s *Store) AttachAuth(ctx context.Context, name string, auth backend.AuthConfig) error {
	dep, ok := s.deployments[name]
	if !ok {
		return &hvmerrors.DeploymentError{Deployment: name, Err: hvmerrors.ErrDeploymentNotFound}
	}
	if !backend.ValidAuthType(auth.Type) {
		return &hvmerrors.DeploymentError{Deployment: name, Err: hvmerrors.ErrInvalidAuthType}
	}
	if err := validateAuthFields(name, auth); err != nil {
		return err
	}
	if dep.HasBackend() && s.factory != nil {
		if err := s.factory.ValidateAuth(ctx, string(dep.Backend), auth); err != nil {
			return &hvmerrors.DeploymentError{Deployment: name, Err: err}
		}
	}
	dep.Auth = auth
	delete(s.secretBackends, name)
	s.rebindSensitiveValues(name)
	s.logger.Debug("attached %s auth to deployment %s", auth.Type, name)
	return nil
}

// rebindSensitiveValues drops the backend binding of every sensitive value
// held for a deployment. Invalidating the instance cache is not enough:
// existing Values keep their backend pointer, so a reconfigured deployment
// would silently keep writing through the detached instance and persist
// references naming the old backend type. After a rebind the next operation
// on each value constructs the current backend through ensureBound.
func (s *Store) rebindSensitiveValues(name string) {
	dep := s.deployments[name]
	for _, path := range s.pathOrder {
		entry := s.paths[path]
		if !entry.metadata.Sensitive {
			continue
		}
		if v := entry.value(name); v != nil {
			v.backend = nil
			v.refType = string(dep.Backend)
		}
	}
}

// validateAuthFields checks the variant-independent field requirements,
// aggregating every missing field.
func validateAuthFields(deployment string, auth backend.AuthConfig) error {
	var missing []string
	switch auth.Type {
	case backend.AuthEnv:
		if auth.Prefix == "" {
			missing = append(missing, "prefix is required for env auth")
		}
	case backend.AuthFile:
		if auth.Path == "" {
			missing = append(missing, "path is required for file auth")
		}
	case backend.AuthDirect:
		if len(auth.Credentials) == 0 {
			missing = append(missing, "credentials are required for direct auth")
		}
	}
	if len(missing) > 0 {
		return &hvmerrors.DeploymentError{
			Deployment: deployment,
			Err:        &backend.AuthConfigError{Backend: deployment, Fields: missing},
		}
	}
	return nil
}

// RemoveDeployment deletes a deployment. Refused while any path still holds
// a value for it.
func (s *Store) RemoveDeployment(name string) error {
	if _, ok := s.deployments[name]; !ok {
		return &hvmerrors.DeploymentError{Deployment: name, Err: hvmerrors.ErrDeploymentNotFound}
	}
	for _, path := range s.pathOrder {
		if s.paths[path].HasValue(name) {
			return &hvmerrors.DeploymentError{Deployment: name, Err: hvmerrors.ErrDeploymentInUse}
		}
	}
	delete(s.deployments, name)
	delete(s.secretBackends, name)
	s.logger.Debug("removed deployment %s", name)
	return nil
}

// SetValue stores raw for (path, deployment). The value binding is created
// lazily on first set; its backend is fixed by the path's sensitivity and
// the deployment's configured backend.
func (s *Store) SetValue(ctx context.Context, path, deployment string, raw any) error {
	entry, ok := s.paths[path]
	if !ok {
		return &hvmerrors.PathError{Path: path, Err: hvmerrors.ErrPathNotFound}
	}
	dep, ok := s.deployments[deployment]
	if !ok {
		return &hvmerrors.DeploymentError{Deployment: deployment, Err: hvmerrors.ErrDeploymentNotFound}
	}

	v := entry.value(deployment)
	if v == nil {
		var err error
		v, err = s.bindValue(entry, dep)
		if err != nil {
			return err
		}
	} else if err := s.ensureBound(v, path, deployment); err != nil {
		return err
	}
	if err := v.Set(ctx, raw); err != nil {
		if wrapped, ok := err.(*hvmerrors.ValueError); ok {
			return wrapped
		}
		return &hvmerrors.ValueError{Path: path, Deployment: deployment, Err: err}
	}
	if err := entry.setValue(deployment, v); err != nil {
		return err
	}
	return nil
}

// GetValue retrieves the value for (path, deployment). With resolve false a
// sensitive value comes back as its secret:// reference string instead of
// being dereferenced, so inspection works without live backend credentials.
func (s *Store) GetValue(ctx context.Context, path, deployment string, resolve bool) (any, error) {
	entry, ok := s.paths[path]
	if !ok {
		return nil, &hvmerrors.PathError{Path: path, Err: hvmerrors.ErrPathNotFound}
	}
	if _, ok := s.deployments[deployment]; !ok {
		return nil, &hvmerrors.DeploymentError{Deployment: deployment, Err: hvmerrors.ErrDeploymentNotFound}
	}
	v := entry.value(deployment)
	if v == nil {
		return nil, &hvmerrors.ValueError{Path: path, Deployment: deployment, Err: hvmerrors.ErrValueNotSet}
	}
	if v.sensitive && !resolve {
		return v.Reference(), nil
	}
	if err := s.ensureBound(v, path, deployment); err != nil {
		return nil, err
	}
	out, err := v.Get(ctx)
	if err != nil {
		return nil, &hvmerrors.ValueError{Path: path, Deployment: deployment, Err: err}
	}
	return out, nil
}

// RemoveValue deletes the value for (path, deployment) from its backend and
// drops the binding.
func (s *Store) RemoveValue(ctx context.Context, path, deployment string) error {
	entry, ok := s.paths[path]
	if !ok {
		return &hvmerrors.PathError{Path: path, Err: hvmerrors.ErrPathNotFound}
	}
	if _, ok := s.deployments[deployment]; !ok {
		return &hvmerrors.DeploymentError{Deployment: deployment, Err: hvmerrors.ErrDeploymentNotFound}
	}
	v := entry.value(deployment)
	if v == nil {
		return &hvmerrors.ValueError{Path: path, Deployment: deployment, Err: hvmerrors.ErrValueNotSet}
	}
	if err := s.ensureBound(v, path, deployment); err != nil {
		return err
	}
	if err := v.Remove(ctx); err != nil {
		return &hvmerrors.ValueError{Path: path, Deployment: deployment, Err: err}
	}
	entry.removeValue(deployment)
	return nil
}

// ensureBound attaches a backend instance to a value restored from a
// persisted reference. Loading never builds clients, so the first operation
// that actually needs the backend performs the attachment here.
func (s *Store) ensureBound(v *Value, path, deployment string) error {
	if v.backend != nil {
		return nil
	}
	dep, ok := s.deployments[deployment]
	if !ok {
		return &hvmerrors.DeploymentError{Deployment: deployment, Err: hvmerrors.ErrDeploymentNotFound}
	}
	if !dep.HasBackend() {
		return &hvmerrors.ValueError{Path: path, Deployment: deployment, Err: hvmerrors.ErrSensitiveValueNoBackend}
	}
	b, err := s.secretBackend(dep)
	if err != nil {
		return &hvmerrors.ValueError{Path: path, Deployment: deployment, Err: err}
	}
	v.backend = b
	return nil
}

// bindValue constructs the Value for (entry, deployment), choosing the
// backend by the sensitivity policy: sensitive values require the
// deployment's secret backend, everything else uses the shared simple
// backend.
func (s *Store) bindValue(entry *PathEntry, dep *Deployment) (*Value, error) {
	if !entry.metadata.Sensitive {
		return newValue(entry.path, dep.Name, false, s.simple), nil
	}
	if !dep.HasBackend() {
		return nil, &hvmerrors.ValueError{
			Path:       entry.path,
			Deployment: dep.Name,
			Err:        hvmerrors.ErrSensitiveValueNoBackend,
		}
	}
	b, err := s.secretBackend(dep)
	if err != nil {
		return nil, &hvmerrors.ValueError{Path: entry.path, Deployment: dep.Name, Err: err}
	}
	return newValue(entry.path, dep.Name, true, b), nil
}

// secretBackend returns the cached backend instance for a deployment,
// constructing it through the factory on first use.
func (s *Store) secretBackend(dep *Deployment) (backend.Backend, error) {
	if b, ok := s.secretBackends[dep.Name]; ok {
		return b, nil
	}
	if s.factory == nil {
		return nil, &backend.UnavailableError{Backend: string(dep.Backend)}
	}
	b, err := s.factory.Create(dep.Name, string(dep.Backend), dep.Auth, dep.BackendConfig)
	if err != nil {
		return nil, err
	}
	s.secretBackends[dep.Name] = b
	return b, nil
}
