// Package backend defines the key-value contract that all value storage
// backends must satisfy.
//
// The store routes every value read and write through a Backend. Non-sensitive
// values always go to the process-local simple backend; sensitive values go to
// whichever secret backend the target deployment has configured (AWS Secrets
// Manager, Azure Key Vault, GCP Secret Manager, or git-secret). All backends
// expose the same surface so the store never needs to know which kind it is
// talking to.
//
// # Implementing a Backend
//
//  1. Implement the Backend interface.
//  2. Map your SDK's failures onto the typed errors in this package:
//     NotFoundError for missing keys, AuthError for credential problems,
//     UnreachableError when the backing service cannot be contacted.
//  3. Register a factory for your backend type in internal/backends.
//
// Backends must never log secret values; wrap anything sensitive in
// logging.Secret before handing it to a logger.
//
// # Keys
//
// Keys are opaque to backends. The store derives them deterministically from
// (path, deployment) using a separator that cannot occur in either part, so a
// backend may use the key verbatim as its storage identifier or translate it
// into whatever addressing its service requires.
package backend

import "context"

// Backend is the capability every value storage mechanism provides.
//
// Implementations are used synchronously by a single store instance; they do
// not need to be safe for concurrent mutation but must support context
// cancellation on every call that can touch the network.
type Backend interface {
	// Name returns the instance name, usually the deployment the backend
	// was built for. Used in logs and error messages.
	Name() string

	// Type returns the backend type identifier ("simple", "aws", "azure",
	// "gcp", "git-secret"). It is the authority for reference strings of
	// the form secret://<type>/<key>.
	Type() string

	// GetValue retrieves the value stored under key. Returns NotFoundError
	// if the key has never been set, AuthError or UnreachableError when the
	// backing service cannot be used.
	GetValue(ctx context.Context, key string) (string, error)

	// SetValue stores value under key, overwriting any previous value.
	SetValue(ctx context.Context, key string, value string) error

	// RemoveValue deletes the value stored under key. Returns NotFoundError
	// if the key does not exist.
	RemoveValue(ctx context.Context, key string) error

	// ValidateAuth checks an auth configuration against the backend's
	// requirements without contacting the service. Every missing or
	// malformed field is reported together in a single AuthConfigError,
	// never just the first one.
	ValidateAuth(ctx context.Context, auth AuthConfig) error

	// Capabilities describes what the backend supports.
	Capabilities() Capabilities
}

// AuthType identifies how a backend authenticates to its service.
type AuthType string

const (
	AuthNone            AuthType = "no-auth"
	AuthEnv             AuthType = "env"
	AuthFile            AuthType = "file"
	AuthDirect          AuthType = "direct"
	AuthManagedIdentity AuthType = "managed-identity"
)

// ValidAuthType reports whether t is one of the known auth variants.
func ValidAuthType(t AuthType) bool {
	switch t {
	case AuthNone, AuthEnv, AuthFile, AuthDirect, AuthManagedIdentity:
		return true
	}
	return false
}

// AuthConfig is the tagged auth variant attached to a deployment.
//
// The Type tag decides which other fields are required:
//
//	no-auth           — no fields
//	env               — Prefix of the environment variables holding credentials
//	file              — Path of a credentials file
//	direct            — Credentials map with the raw credential fields
//	managed-identity  — no fields (platform-assigned identity)
type AuthConfig struct {
	Type        AuthType          `json:"type"`
	Prefix      string            `json:"prefix,omitempty"`
	Path        string            `json:"path,omitempty"`
	Credentials map[string]string `json:"credentials,omitempty"`
}

// Capabilities describes optional backend features.
type Capabilities struct {
	// Sensitive reports whether the backend may hold sensitive values.
	// Only the simple backend is non-sensitive capable.
	Sensitive bool

	// RequiresAuth reports whether the backend needs credentials before
	// values can be read or written.
	RequiresAuth bool

	// AuthTypes lists the auth variants the backend accepts.
	AuthTypes []AuthType
}

// NotFoundError reports a key with no stored value.
type NotFoundError struct {
	Backend string
	Key     string
}

func (e *NotFoundError) Error() string {
	return "no value for key " + e.Key + " in backend " + e.Backend
}

// AuthError reports failed authentication against the backing service.
type AuthError struct {
	Backend string
	Message string
}

func (e *AuthError) Error() string {
	return "authentication failed for backend " + e.Backend + ": " + e.Message
}

// UnreachableError reports that the backing service could not be contacted.
type UnreachableError struct {
	Backend string
	Err     error
}

func (e *UnreachableError) Error() string {
	if e.Err != nil {
		return "backend " + e.Backend + " unreachable: " + e.Err.Error()
	}
	return "backend " + e.Backend + " unreachable"
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// UnavailableError reports a backend that exists but cannot serve requests,
// for example because its client could not be constructed.
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return "backend " + e.Backend + " unavailable: " + e.Err.Error()
	}
	return "backend " + e.Backend + " unavailable"
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// AuthConfigError aggregates every problem found in an auth configuration.
// Fields holds one message per missing or malformed field.
type AuthConfigError struct {
	Backend string
	Fields  []string
}

func (e *AuthConfigError) Error() string {
	msg := "invalid auth config for backend " + e.Backend
	for _, f := range e.Fields {
		msg += "\n  - " + f
	}
	return msg
}
