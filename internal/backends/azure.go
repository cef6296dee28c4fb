package backends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/helm-values-manager/pkg/backend"
)

// AzureKeyVaultClientAPI defines the interface for Azure Key Vault
// operations. This allows for mocking in tests.
type AzureKeyVaultClientAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
	SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters, options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error)
	DeleteSecret(ctx context.Context, name string, options *azsecrets.DeleteSecretOptions) (azsecrets.DeleteSecretResponse, error)
}

// AzureBackend stores secrets in an Azure Key Vault.
type AzureBackend struct {
	deployment string
	vaultURL   string
	client     AzureKeyVaultClientAPI
}

// AzureOption is a functional option for configuring the Azure backend.
type AzureOption func(*AzureBackend)

// WithAzureKeyVaultClient sets a custom Key Vault client (for testing).
func WithAzureKeyVaultClient(client AzureKeyVaultClientAPI) AzureOption {
	return func(b *AzureBackend) { b.client = client }
}

// NewAzureBackend creates an Azure Key Vault backend for one deployment.
func NewAzureBackend(deployment string, auth backend.AuthConfig, backendConfig map[string]any, opts ...AzureOption) (*AzureBackend, error) {
	if err := ValidateAzureConfig(backendConfig); err != nil {
		return nil, err
	}

	b := &AzureBackend{
		deployment: deployment,
		vaultURL:   backendConfig["vault_url"].(string),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.client != nil {
		return b, nil
	}

	cred, err := azureCredential(auth)
	if err != nil {
		return nil, err
	}
	client, err := azsecrets.NewClient(b.vaultURL, cred, nil)
	if err != nil {
		return nil, &backend.UnavailableError{Backend: deployment, Err: err}
	}
	b.client = client
	return b, nil
}

// ValidateAzureConfig checks backend_config for the azure backend.
func ValidateAzureConfig(backendConfig map[string]any) error {
	vaultURL, ok := backendConfig["vault_url"].(string)
	if !ok || vaultURL == "" {
		return fmt.Errorf("invalid azure backend config: vault_url is required (e.g. https://my-vault.vault.azure.net/)")
	}
	parsed, err := url.Parse(vaultURL)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return fmt.Errorf("invalid azure backend config: vault_url must be an https URL")
	}
	return nil
}

// azureCredential builds a token credential for the deployment's auth
// variant.
func azureCredential(auth backend.AuthConfig) (azcore.TokenCredential, error) {
	switch auth.Type {
	case backend.AuthDirect:
		return azureClientSecretCredential(
			auth.Credentials["tenant_id"],
			auth.Credentials["client_id"],
			auth.Credentials["client_secret"],
		)
	case backend.AuthEnv:
		return azureClientSecretCredential(
			os.Getenv(auth.Prefix+"AZURE_TENANT_ID"),
			os.Getenv(auth.Prefix+"AZURE_CLIENT_ID"),
			os.Getenv(auth.Prefix+"AZURE_CLIENT_SECRET"),
		)
	case backend.AuthFile:
		data, err := os.ReadFile(auth.Path)
		if err != nil {
			return nil, &backend.AuthError{
				Backend: "azure",
				Message: fmt.Sprintf("failed to read credentials file %s: %v", auth.Path, err),
			}
		}
		var creds struct {
			TenantID     string `json:"tenant_id"`
			ClientID     string `json:"client_id"`
			ClientSecret string `json:"client_secret"`
		}
		if err := json.Unmarshal(data, &creds); err != nil {
			return nil, &backend.AuthError{
				Backend: "azure",
				Message: fmt.Sprintf("credentials file %s is not valid JSON: %v", auth.Path, err),
			}
		}
		return azureClientSecretCredential(creds.TenantID, creds.ClientID, creds.ClientSecret)
	case backend.AuthManagedIdentity:
		cred, err := azidentity.NewManagedIdentityCredential(nil)
		if err != nil {
			return nil, &backend.AuthError{
				Backend: "azure",
				Message: fmt.Sprintf("failed to create managed identity credential: %v", err),
			}
		}
		return cred, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, &backend.AuthError{
			Backend: "azure",
			Message: fmt.Sprintf("failed to create default credential: %v", err),
		}
	}
	return cred, nil
}

func azureClientSecretCredential(tenantID, clientID, clientSecret string) (azcore.TokenCredential, error) {
	var fields []string
	if tenantID == "" {
		fields = append(fields, "tenant_id is required")
	}
	if clientID == "" {
		fields = append(fields, "client_id is required")
	}
	if clientSecret == "" {
		fields = append(fields, "client_secret is required")
	}
	if len(fields) > 0 {
		return nil, &backend.AuthConfigError{Backend: "azure", Fields: fields}
	}

	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return nil, &backend.AuthError{
			Backend: "azure",
			Message: fmt.Sprintf("failed to create service principal credential: %v", err),
		}
	}
	return cred, nil
}

// Name returns the deployment this backend instance serves.
func (b *AzureBackend) Name() string { return b.deployment }

// Type returns the backend type identifier.
func (b *AzureBackend) Type() string { return "azure" }

// GetValue reads a secret by storage key.
func (b *AzureBackend) GetValue(ctx context.Context, key string) (string, error) {
	resp, err := b.client.GetSecret(ctx, b.secretName(key), "", nil)
	if err != nil {
		return "", b.wrapError(err, key)
	}
	if resp.Value == nil {
		return "", &backend.NotFoundError{Backend: b.deployment, Key: key}
	}
	return *resp.Value, nil
}

// SetValue writes a secret; Key Vault creates a new version on each set.
func (b *AzureBackend) SetValue(ctx context.Context, key, value string) error {
	_, err := b.client.SetSecret(ctx, b.secretName(key), azsecrets.SetSecretParameters{Value: &value}, nil)
	if err != nil {
		return b.wrapError(err, key)
	}
	return nil
}

// RemoveValue deletes a secret.
func (b *AzureBackend) RemoveValue(ctx context.Context, key string) error {
	_, err := b.client.DeleteSecret(ctx, b.secretName(key), nil)
	if err != nil {
		return b.wrapError(err, key)
	}
	return nil
}

// ValidateAuth verifies access with a probe read. A not-found response still
// proves the credentials reached the vault.
func (b *AzureBackend) ValidateAuth(ctx context.Context, _ backend.AuthConfig) error {
	_, err := b.client.GetSecret(ctx, "helm-values-manager-probe", "", nil)
	if err == nil {
		return nil
	}
	var notFound *backend.NotFoundError
	if errors.As(b.wrapError(err, "probe"), &notFound) {
		return nil
	}
	return &backend.AuthError{
		Backend: b.deployment,
		Message: fmt.Sprintf("Azure Key Vault access check failed: %v", err),
	}
}

// Capabilities describes what this backend supports.
func (b *AzureBackend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Sensitive:    true,
		RequiresAuth: true,
		AuthTypes: []backend.AuthType{
			backend.AuthEnv, backend.AuthFile, backend.AuthDirect, backend.AuthManagedIdentity,
		},
	}
}

// azureNameEncoder maps storage keys onto the Key Vault name charset
// (alphanumerics and dashes). The encoding is injective: literal dashes are
// doubled, and each disallowed character gets its own dash escape, so
// distinct keys can never share a secret name.
var azureNameEncoder = strings.NewReplacer(
	"-", "--",
	".", "-p",
	":", "-c",
	"_", "-u",
)

// secretName maps a storage key to a Key Vault secret name.
func (b *AzureBackend) secretName(key string) string {
	return azureNameEncoder.Replace(key)
}

// wrapError converts Azure SDK errors to backend errors.
func (b *AzureBackend) wrapError(err error, key string) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 404:
			return &backend.NotFoundError{Backend: b.deployment, Key: key}
		case 401, 403:
			return &backend.AuthError{
				Backend: b.deployment,
				Message: fmt.Sprintf("Azure Key Vault denied access: %v", err),
			}
		}
	}
	return &backend.UnreachableError{Backend: b.deployment, Err: err}
}
