package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	hvmerrors "github.com/systmms/helm-values-manager/internal/errors"
	"github.com/systmms/helm-values-manager/pkg/backend"
)

//go:embed schema/v1.json
var schemaV1 []byte

// Structured is the canonical persisted form of a store. Sensitive values
// appear as secret:// reference strings, never as secret content.
type Structured struct {
	Version     string                          `json:"version"`
	Release     string                          `json:"release"`
	Deployments map[string]StructuredDeployment `json:"deployments"`
	Config      []StructuredPath                `json:"config"`
}

// StructuredDeployment is the persisted form of a Deployment.
type StructuredDeployment struct {
	Backend       string             `json:"backend"`
	Auth          backend.AuthConfig `json:"auth"`
	BackendConfig map[string]any     `json:"backend_config,omitempty"`
}

// StructuredPath is the persisted form of a PathEntry. Values keep their
// JSON scalar types; sensitive entries hold reference strings.
type StructuredPath struct {
	Path        string         `json:"path"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Sensitive   bool           `json:"sensitive,omitempty"`
	Values      map[string]any `json:"values"`
}

// ToStructured produces the canonical structured form of the store. It never
// contacts a backend: non-sensitive values are read from the simple backend's
// stored encoding, sensitive values serialize as their references.
func (s *Store) ToStructured() (*Structured, error) {
	out := &Structured{
		Version:     s.version,
		Release:     s.release,
		Deployments: make(map[string]StructuredDeployment, len(s.deployments)),
		Config:      make([]StructuredPath, 0, len(s.pathOrder)),
	}

	for name, dep := range s.deployments {
		out.Deployments[name] = StructuredDeployment{
			Backend:       string(dep.Backend),
			Auth:          dep.Auth,
			BackendConfig: dep.BackendConfig,
		}
	}

	for _, path := range s.pathOrder {
		entry := s.paths[path]
		sp := StructuredPath{
			Path:        path,
			Description: entry.metadata.Description,
			Required:    entry.metadata.Required,
			Sensitive:   entry.metadata.Sensitive,
			Values:      make(map[string]any, len(entry.values)),
		}
		for dep, v := range entry.values {
			if v.sensitive {
				sp.Values[dep] = v.Reference()
				continue
			}
			raw, err := v.Get(context.Background())
			if err != nil {
				return nil, &hvmerrors.ValueError{Path: path, Deployment: dep, Err: err}
			}
			sp.Values[dep] = raw
		}
		out.Config = append(out.Config, sp)
	}

	return out, nil
}

// MarshalJSON renders the structured form with stable two-space indentation.
func (s *Store) MarshalJSON() ([]byte, error) {
	structured, err := s.ToStructured()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(structured, "", "  ")
}

// FromJSON builds a store from persisted JSON bytes. The data is validated
// against the embedded schema before any state is built; on failure no store
// is returned.
func FromJSON(data []byte, opts ...Option) (*Store, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var structured Structured
	if err := dec.Decode(&structured); err != nil {
		return nil, hvmerrors.UserError{
			Message: "failed to parse configuration",
			Details: err.Error(),
			Err:     hvmerrors.ErrMalformedConfig,
		}
	}

	return FromStructured(&structured, opts...)
}

// FromStructured builds a store from the canonical structured form. The
// build is atomic: any violation aborts before a store is returned, so a
// partially-loaded store can never be observed.
func FromStructured(structured *Structured, opts ...Option) (*Store, error) {
	if structured.Version != Version {
		return nil, fmt.Errorf("%w: got %q, want %q", hvmerrors.ErrUnsupportedVersion, structured.Version, Version)
	}

	s := New(structured.Release, opts...)

	for name, sd := range structured.Deployments {
		if err := s.AddDeployment(name); err != nil {
			return nil, err
		}
		dep := s.deployments[name]
		bt := BackendType(sd.Backend)
		if !ValidBackendType(bt) {
			return nil, &hvmerrors.DeploymentError{Deployment: name, Err: hvmerrors.ErrInvalidBackendType}
		}
		if !backend.ValidAuthType(sd.Auth.Type) {
			return nil, &hvmerrors.DeploymentError{Deployment: name, Err: hvmerrors.ErrInvalidAuthType}
		}
		dep.Backend = bt
		dep.Auth = sd.Auth
		dep.BackendConfig = sd.BackendConfig
	}

	for _, sp := range structured.Config {
		meta := Metadata{
			Description: sp.Description,
			Required:    sp.Required,
			Sensitive:   sp.Sensitive,
		}
		if err := s.AddPath(sp.Path, meta); err != nil {
			return nil, err
		}
		entry := s.paths[sp.Path]

		for depName, raw := range sp.Values {
			dep, ok := s.deployments[depName]
			if !ok {
				return nil, &hvmerrors.ValueError{Path: sp.Path, Deployment: depName, Err: hvmerrors.ErrDeploymentNotFound}
			}
			if sp.Sensitive {
				if err := restoreSensitiveValue(entry, dep, raw); err != nil {
					return nil, err
				}
				continue
			}
			v := newValue(sp.Path, depName, false, s.simple)
			if err := v.Set(context.Background(), raw); err != nil {
				return nil, &hvmerrors.ValueError{Path: sp.Path, Deployment: depName, Err: err}
			}
			if err := entry.setValue(depName, v); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

// restoreSensitiveValue rebinds a persisted secret reference without
// contacting the backend: the secret content stays remote and resolves on
// demand.
func restoreSensitiveValue(entry *PathEntry, dep *Deployment, raw any) error {
	ref, ok := raw.(string)
	if !ok {
		return &hvmerrors.ValueError{Path: entry.path, Deployment: dep.Name, Err: hvmerrors.ErrInvalidSecretReference}
	}
	backendType, key, err := parseReference(ref)
	if err != nil {
		return &hvmerrors.ValueError{Path: entry.path, Deployment: dep.Name, Err: err}
	}
	if backendType != string(dep.Backend) {
		return &hvmerrors.ValueError{
			Path:       entry.path,
			Deployment: dep.Name,
			Err: fmt.Errorf("%w: reference backend %q does not match deployment backend %q",
				hvmerrors.ErrInvalidSecretReference, backendType, dep.Backend),
		}
	}
	if key != storageKey(entry.path, dep.Name) {
		return &hvmerrors.ValueError{
			Path:       entry.path,
			Deployment: dep.Name,
			Err:        fmt.Errorf("%w: reference key %q does not match path and deployment", hvmerrors.ErrInvalidSecretReference, key),
		}
	}
	// The binding is lazy: the backend instance is attached on first use
	// through the store's factory, so loading never needs credentials.
	entry.values[dep.Name] = &Value{
		path:       entry.path,
		deployment: dep.Name,
		sensitive:  true,
		refType:    backendType,
	}
	return nil
}

// validateSchema checks raw JSON against the embedded v1 schema, reporting
// every violation together.
func validateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schemaV1)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return hvmerrors.UserError{
			Message: "failed to validate configuration schema",
			Details: err.Error(),
			Err:     hvmerrors.ErrMalformedConfig,
		}
	}
	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return hvmerrors.UserError{
			Message:    "configuration does not match schema",
			Details:    strings.Join(messages, "; "),
			Suggestion: "Fix the listed fields and retry",
			Err:        hvmerrors.ErrMalformedConfig,
		}
	}
	return nil
}
