package fakes

import (
	"context"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// FakeKeyVaultClient is an in-memory Azure Key Vault.
type FakeKeyVaultClient struct {
	// Secrets maps secret names to values.
	Secrets map[string]string
	// Err, when set, is returned by every call.
	Err error
}

// NewFakeKeyVaultClient creates an empty fake client.
func NewFakeKeyVaultClient() *FakeKeyVaultClient {
	return &FakeKeyVaultClient{Secrets: make(map[string]string)}
}

// KeyVaultNotFoundError builds the 404 response error the real client
// returns for a missing secret.
func KeyVaultNotFoundError() error {
	return &azcore.ResponseError{
		StatusCode: http.StatusNotFound,
		ErrorCode:  "SecretNotFound",
	}
}

// KeyVaultForbiddenError builds the 403 response error the real client
// returns when access policies deny the caller.
func KeyVaultForbiddenError() error {
	return &azcore.ResponseError{
		StatusCode: http.StatusForbidden,
		ErrorCode:  "Forbidden",
	}
}

func (f *FakeKeyVaultClient) GetSecret(_ context.Context, name string, _ string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	if f.Err != nil {
		return azsecrets.GetSecretResponse{}, f.Err
	}
	value, ok := f.Secrets[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, KeyVaultNotFoundError()
	}
	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{Value: &value},
	}, nil
}

func (f *FakeKeyVaultClient) SetSecret(_ context.Context, name string, parameters azsecrets.SetSecretParameters, _ *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error) {
	if f.Err != nil {
		return azsecrets.SetSecretResponse{}, f.Err
	}
	var value string
	if parameters.Value != nil {
		value = *parameters.Value
	}
	f.Secrets[name] = value
	return azsecrets.SetSecretResponse{
		Secret: azsecrets.Secret{Value: &value},
	}, nil
}

func (f *FakeKeyVaultClient) DeleteSecret(_ context.Context, name string, _ *azsecrets.DeleteSecretOptions) (azsecrets.DeleteSecretResponse, error) {
	if f.Err != nil {
		return azsecrets.DeleteSecretResponse{}, f.Err
	}
	if _, ok := f.Secrets[name]; !ok {
		return azsecrets.DeleteSecretResponse{}, KeyVaultNotFoundError()
	}
	delete(f.Secrets, name)
	return azsecrets.DeleteSecretResponse{}, nil
}
