// Package errors defines the error taxonomy of the configuration store.
//
// Mutating store operations fail fast with one of the sentinel errors below,
// wrapped in a context carrier (PathError, DeploymentError, ValueError) so the
// caller can render an actionable message. Whole-store checks (validate,
// generate) never fail fast; they collect Findings instead.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Structural errors.
var (
	ErrDuplicatePath       = errors.New("path already exists")
	ErrPathNotFound        = errors.New("path not found")
	ErrDuplicateDeployment = errors.New("deployment already exists")
	ErrDeploymentNotFound  = errors.New("deployment not found")
	ErrInvalidPathFormat   = errors.New("invalid path format")
	ErrPathInUse           = errors.New("path has values set")
	ErrDeploymentInUse     = errors.New("deployment has values set")
	ErrPathConflict        = errors.New("path conflicts with another path")
)

// Value errors.
var (
	ErrInvalidValueType        = errors.New("value is not a string, number, boolean, or null")
	ErrValueNotSet             = errors.New("value not set")
	ErrSensitiveValueNoBackend = errors.New("sensitive value requires a deployment backend")
	ErrMissingRequiredValue    = errors.New("missing required value")
	ErrInvalidDeploymentName   = errors.New("invalid deployment name")
	ErrInvalidSecretReference  = errors.New("invalid secret reference")
)

// Schema errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported schema version")
	ErrMalformedConfig    = errors.New("malformed configuration data")
	ErrInvalidBackendType = errors.New("unknown backend type")
	ErrInvalidAuthType    = errors.New("unknown auth type")
)

// PathError wraps a sentinel with the path it concerns.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %q: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// DeploymentError wraps a sentinel with the deployment it concerns.
type DeploymentError struct {
	Deployment string
	Err        error
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("deployment %q: %v", e.Deployment, e.Err)
}

func (e *DeploymentError) Unwrap() error { return e.Err }

// ValueError wraps a sentinel with the (path, deployment) pair it concerns.
type ValueError struct {
	Path       string
	Deployment string
	Err        error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("value for path %q in deployment %q: %v", e.Path, e.Deployment, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

// UserError is an error meant to be shown to the user with helpful context.
type UserError struct {
	Message    string
	Details    string
	Suggestion string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error { return e.Err }

// Finding is one violation discovered by a whole-store check. Zero-value
// fields are omitted from the rendered message.
type Finding struct {
	Code       string
	Path       string
	Deployment string
	Field      string
	Message    string
}

func (f Finding) String() string {
	var b strings.Builder
	b.WriteString(f.Code)
	if f.Path != "" {
		fmt.Fprintf(&b, " path=%s", f.Path)
	}
	if f.Deployment != "" {
		fmt.Fprintf(&b, " deployment=%s", f.Deployment)
	}
	if f.Field != "" {
		fmt.Fprintf(&b, " field=%s", f.Field)
	}
	if f.Message != "" {
		b.WriteString(": ")
		b.WriteString(f.Message)
	}
	return b.String()
}

// Findings aggregates every violation found in one pass. It implements error
// so a non-empty list can be returned directly from validate or generate.
type Findings []Finding

func (fs Findings) Error() string {
	if len(fs) == 0 {
		return "no findings"
	}
	lines := make([]string, 0, len(fs)+1)
	lines = append(lines, fmt.Sprintf("%d validation finding(s):", len(fs)))
	for _, f := range fs {
		lines = append(lines, "  - "+f.String())
	}
	return strings.Join(lines, "\n")
}

// AsError returns fs as an error, or nil when there is nothing to report.
func (fs Findings) AsError() error {
	if len(fs) == 0 {
		return nil
	}
	return fs
}
