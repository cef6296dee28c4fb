package store

import (
	"context"
	"fmt"

	hvmerrors "github.com/systmms/helm-values-manager/internal/errors"
)

// Finding codes reported by Validate and Generate.
const (
	CodeEmptyRelease         = "EmptyRelease"
	CodeInvalidPathFormat    = "InvalidPathFormat"
	CodeDanglingDeployment   = "DanglingDeployment"
	CodeMissingRequiredValue = "MissingRequiredValue"
	CodeInvalidBackendConfig = "InvalidBackendConfig"
	CodeInvalidAuthConfig    = "InvalidAuthConfig"
	CodePathConflict         = "PathConflict"
)

// Validate checks the whole store and returns every violation it finds.
// Unlike the mutation operations it never stops at the first problem; the
// returned list is complete so all issues can be fixed in one pass.
func (s *Store) Validate(ctx context.Context) hvmerrors.Findings {
	var findings hvmerrors.Findings

	// The persisted schema requires a non-empty release; catching it here
	// stops a store from being saved in a form that can never be loaded.
	if s.release == "" {
		findings = append(findings, hvmerrors.Finding{
			Code:    CodeEmptyRelease,
			Message: "release name must not be empty",
		})
	}

	for _, path := range s.pathOrder {
		entry := s.paths[path]

		if !ValidPath(path) {
			findings = append(findings, hvmerrors.Finding{
				Code:    CodeInvalidPathFormat,
				Path:    path,
				Message: "path does not match [A-Za-z0-9_-] segments joined by dots",
			})
		}

		for _, depName := range entry.Deployments() {
			if _, ok := s.deployments[depName]; !ok {
				findings = append(findings, hvmerrors.Finding{
					Code:       CodeDanglingDeployment,
					Path:       path,
					Deployment: depName,
					Message:    "value references a deployment that does not exist",
				})
			}
		}

		if !entry.metadata.Required {
			continue
		}
		for _, dep := range s.Deployments() {
			if !entry.HasValue(dep.Name) {
				findings = append(findings, hvmerrors.Finding{
					Code:       CodeMissingRequiredValue,
					Path:       path,
					Deployment: dep.Name,
					Message:    "required path has no value for this deployment",
				})
			}
		}
	}

	for _, dep := range s.Deployments() {
		findings = append(findings, s.validateDeployment(ctx, dep)...)
	}

	if len(findings) == 0 {
		s.logger.Debug("store valid: %d path(s), %d deployment(s)", len(s.pathOrder), len(s.deployments))
	}
	return findings
}

// validateDeployment checks one deployment's backend and auth configuration.
func (s *Store) validateDeployment(ctx context.Context, dep *Deployment) hvmerrors.Findings {
	var findings hvmerrors.Findings

	if !dep.HasBackend() {
		return findings
	}
	if !ValidBackendType(dep.Backend) {
		findings = append(findings, hvmerrors.Finding{
			Code:       CodeInvalidBackendConfig,
			Deployment: dep.Name,
			Message:    fmt.Sprintf("unknown backend type %q", dep.Backend),
		})
		return findings
	}
	if s.factory == nil {
		return findings
	}

	if err := s.factory.ValidateConfig(string(dep.Backend), dep.BackendConfig); err != nil {
		findings = append(findings, hvmerrors.Finding{
			Code:       CodeInvalidBackendConfig,
			Deployment: dep.Name,
			Message:    err.Error(),
		})
	}
	if err := validateAuthFields(dep.Name, dep.Auth); err != nil {
		findings = append(findings, hvmerrors.Finding{
			Code:       CodeInvalidAuthConfig,
			Deployment: dep.Name,
			Message:    err.Error(),
		})
	} else if err := s.factory.ValidateAuth(ctx, string(dep.Backend), dep.Auth); err != nil {
		findings = append(findings, hvmerrors.Finding{
			Code:       CodeInvalidAuthConfig,
			Deployment: dep.Name,
			Message:    err.Error(),
		})
	}
	return findings
}
