package backends

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/helm-values-manager/pkg/backend"
)

// GCPBackend stores secrets in Google Cloud Secret Manager.
type GCPBackend struct {
	deployment string
	projectID  string
	client     *secretmanager.Client
}

// NewGCPBackend creates a GCP Secret Manager backend for one deployment.
func NewGCPBackend(deployment string, auth backend.AuthConfig, backendConfig map[string]any) (*GCPBackend, error) {
	if err := ValidateGCPConfig(backendConfig); err != nil {
		return nil, err
	}

	clientOptions, err := gcpClientOptions(auth)
	if err != nil {
		return nil, err
	}
	client, err := secretmanager.NewClient(context.Background(), clientOptions...)
	if err != nil {
		return nil, &backend.UnavailableError{Backend: deployment, Err: err}
	}

	return &GCPBackend{
		deployment: deployment,
		projectID:  backendConfig["project_id"].(string),
		client:     client,
	}, nil
}

// ValidateGCPConfig checks backend_config for the gcp backend.
func ValidateGCPConfig(backendConfig map[string]any) error {
	projectID, ok := backendConfig["project_id"].(string)
	if !ok || projectID == "" {
		return fmt.Errorf("invalid gcp backend config: project_id is required")
	}
	return nil
}

// gcpClientOptions maps the deployment's auth variant onto client options.
func gcpClientOptions(auth backend.AuthConfig) ([]option.ClientOption, error) {
	switch auth.Type {
	case backend.AuthFile:
		path := auth.Path
		if strings.HasPrefix(path, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, &backend.AuthError{
					Backend: "gcp",
					Message: fmt.Sprintf("failed to resolve home directory: %v", err),
				}
			}
			path = filepath.Join(home, path[2:])
		}
		return []option.ClientOption{option.WithCredentialsFile(path)}, nil
	case backend.AuthDirect:
		keyJSON := auth.Credentials["service_account_json"]
		if keyJSON == "" {
			return nil, &backend.AuthConfigError{
				Backend: "gcp",
				Fields:  []string{"service_account_json is required for direct auth"},
			}
		}
		return []option.ClientOption{option.WithCredentialsJSON([]byte(keyJSON))}, nil
	case backend.AuthEnv:
		if path := os.Getenv(auth.Prefix + "GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
			return []option.ClientOption{option.WithCredentialsFile(path)}, nil
		}
		return nil, &backend.AuthConfigError{
			Backend: "gcp",
			Fields:  []string{auth.Prefix + "GOOGLE_APPLICATION_CREDENTIALS is not set"},
		}
	}
	// managed-identity and no-auth use application default credentials.
	return nil, nil
}

// Name returns the deployment this backend instance serves.
func (b *GCPBackend) Name() string { return b.deployment }

// Type returns the backend type identifier.
func (b *GCPBackend) Type() string { return "gcp" }

// GetValue reads the latest version of a secret by storage key.
func (b *GCPBackend) GetValue(ctx context.Context, key string) (string, error) {
	result, err := b.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: b.versionName(key),
	})
	if err != nil {
		return "", b.wrapError(err, key)
	}
	if result.Payload == nil || result.Payload.Data == nil {
		return "", &backend.NotFoundError{Backend: b.deployment, Key: key}
	}
	return string(result.Payload.Data), nil
}

// SetValue adds a new secret version, creating the secret container on first
// use.
func (b *GCPBackend) SetValue(ctx context.Context, key, value string) error {
	payload := &secretmanagerpb.SecretPayload{Data: []byte(value)}

	_, err := b.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  b.secretResource(key),
		Payload: payload,
	})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return b.wrapError(err, key)
	}

	_, err = b.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   "projects/" + b.projectID,
		SecretId: b.secretID(key),
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil {
		return b.wrapError(err, key)
	}
	_, err = b.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  b.secretResource(key),
		Payload: payload,
	})
	if err != nil {
		return b.wrapError(err, key)
	}
	return nil
}

// RemoveValue deletes a secret and all its versions.
func (b *GCPBackend) RemoveValue(ctx context.Context, key string) error {
	err := b.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{
		Name: b.secretResource(key),
	})
	if err != nil {
		return b.wrapError(err, key)
	}
	return nil
}

// ValidateAuth verifies access by listing one secret in the project.
func (b *GCPBackend) ValidateAuth(ctx context.Context, _ backend.AuthConfig) error {
	iter := b.client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{
		Parent:   "projects/" + b.projectID,
		PageSize: 1,
	})
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		switch status.Code(err) {
		case codes.PermissionDenied, codes.Unauthenticated:
			return &backend.AuthError{
				Backend: b.deployment,
				Message: fmt.Sprintf("GCP Secret Manager denied access: %v", err),
			}
		}
		return &backend.UnreachableError{Backend: b.deployment, Err: err}
	}
	return nil
}

// Capabilities describes what this backend supports.
func (b *GCPBackend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Sensitive:    true,
		RequiresAuth: true,
		AuthTypes: []backend.AuthType{
			backend.AuthEnv, backend.AuthFile, backend.AuthDirect, backend.AuthManagedIdentity,
		},
	}
}

// gcpIDEncoder maps storage keys onto the Secret Manager ID charset
// [A-Za-z0-9_-]. The encoding is injective: literal dashes are doubled and
// dots and colons get their own dash escapes, so distinct keys can never
// share a secret ID.
var gcpIDEncoder = strings.NewReplacer(
	"-", "--",
	".", "-p",
	":", "-c",
)

// secretID maps a storage key to a Secret Manager secret ID.
func (b *GCPBackend) secretID(key string) string {
	return gcpIDEncoder.Replace(key)
}

func (b *GCPBackend) secretResource(key string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", b.projectID, b.secretID(key))
}

func (b *GCPBackend) versionName(key string) string {
	return b.secretResource(key) + "/versions/latest"
}

// wrapError converts gRPC status errors to backend errors.
func (b *GCPBackend) wrapError(err error, key string) error {
	switch status.Code(err) {
	case codes.NotFound:
		return &backend.NotFoundError{Backend: b.deployment, Key: key}
	case codes.PermissionDenied, codes.Unauthenticated:
		return &backend.AuthError{
			Backend: b.deployment,
			Message: fmt.Sprintf("GCP Secret Manager denied access: %v", err),
		}
	}
	return &backend.UnreachableError{Backend: b.deployment, Err: err}
}
