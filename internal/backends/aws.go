package backends

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/systmms/helm-values-manager/pkg/backend"
)

// Service selection for the aws backend. Secrets Manager is the default;
// Parameter Store is opted into with `service: ssm` in backend_config.
const (
	awsServiceSecretsManager = "secretsmanager"
	awsServiceSSM            = "ssm"
)

// SecretsManagerClientAPI defines the interface for AWS Secrets Manager
// operations. This allows for mocking in tests.
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

// SSMClientAPI defines the interface for AWS SSM Parameter Store operations.
type SSMClientAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	DeleteParameter(ctx context.Context, params *ssm.DeleteParameterInput, optFns ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error)
}

// STSClientAPI defines the interface for the STS identity check used by
// ValidateAuth.
type STSClientAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// AWSBackend stores secrets in AWS Secrets Manager or, when configured with
// `service: ssm`, in SSM Parameter Store as SecureString parameters.
type AWSBackend struct {
	deployment string
	service    string
	region     string
	endpoint   string

	secrets SecretsManagerClientAPI
	params  SSMClientAPI
	sts     STSClientAPI
}

// AWSOption is a functional option for configuring the AWS backend.
type AWSOption func(*AWSBackend)

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing).
func WithSecretsManagerClient(client SecretsManagerClientAPI) AWSOption {
	return func(b *AWSBackend) { b.secrets = client }
}

// WithSSMClient sets a custom SSM client (for testing).
func WithSSMClient(client SSMClientAPI) AWSOption {
	return func(b *AWSBackend) { b.params = client }
}

// WithSTSClient sets a custom STS client (for testing).
func WithSTSClient(client STSClientAPI) AWSOption {
	return func(b *AWSBackend) { b.sts = client }
}

// NewAWSBackend creates an AWS backend for one deployment.
func NewAWSBackend(deployment string, auth backend.AuthConfig, backendConfig map[string]any, opts ...AWSOption) (*AWSBackend, error) {
	if err := ValidateAWSConfig(backendConfig); err != nil {
		return nil, err
	}

	b := &AWSBackend{
		deployment: deployment,
		service:    awsServiceSecretsManager,
		region:     "us-east-1",
	}
	if s, ok := backendConfig["service"].(string); ok && s != "" {
		b.service = s
	}
	if r, ok := backendConfig["region"].(string); ok && r != "" {
		b.region = r
	}
	if e, ok := backendConfig["endpoint"].(string); ok && e != "" {
		b.endpoint = e
	}

	for _, opt := range opts {
		opt(b)
	}

	// Clients injected via options skip real config loading entirely.
	if b.secrets != nil || b.params != nil {
		return b, nil
	}

	cfg, err := loadAWSConfig(b.region, auth)
	if err != nil {
		return nil, err
	}
	switch b.service {
	case awsServiceSSM:
		b.params = ssm.NewFromConfig(cfg, func(o *ssm.Options) {
			if b.endpoint != "" {
				o.BaseEndpoint = &b.endpoint
			}
		})
	default:
		b.secrets = secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
			if b.endpoint != "" {
				o.BaseEndpoint = &b.endpoint
			}
		})
	}
	b.sts = sts.NewFromConfig(cfg)
	return b, nil
}

// ValidateAWSConfig checks backend_config for the aws backend without
// constructing a client. Every problem is reported together.
func ValidateAWSConfig(backendConfig map[string]any) error {
	var problems []string
	if s, ok := backendConfig["service"]; ok {
		str, isStr := s.(string)
		if !isStr || (str != awsServiceSecretsManager && str != awsServiceSSM) {
			problems = append(problems, fmt.Sprintf("service must be %q or %q", awsServiceSecretsManager, awsServiceSSM))
		}
	}
	if r, ok := backendConfig["region"]; ok {
		if _, isStr := r.(string); !isStr {
			problems = append(problems, "region must be a string")
		}
	}
	if e, ok := backendConfig["endpoint"]; ok {
		if _, isStr := e.(string); !isStr {
			problems = append(problems, "endpoint must be a string")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid aws backend config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// loadAWSConfig resolves credentials according to the deployment's auth
// variant and loads the SDK configuration.
func loadAWSConfig(region string, auth backend.AuthConfig) (aws.Config, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	switch auth.Type {
	case backend.AuthDirect:
		accessKey := auth.Credentials["access_key_id"]
		secretKey := auth.Credentials["secret_access_key"]
		var fields []string
		if accessKey == "" {
			fields = append(fields, "access_key_id is required for direct auth")
		}
		if secretKey == "" {
			fields = append(fields, "secret_access_key is required for direct auth")
		}
		if len(fields) > 0 {
			return aws.Config{}, &backend.AuthConfigError{Backend: "aws", Fields: fields}
		}
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, auth.Credentials["session_token"]),
		))
	case backend.AuthEnv:
		accessKey := os.Getenv(auth.Prefix + "AWS_ACCESS_KEY_ID")
		secretKey := os.Getenv(auth.Prefix + "AWS_SECRET_ACCESS_KEY")
		var fields []string
		if accessKey == "" {
			fields = append(fields, auth.Prefix+"AWS_ACCESS_KEY_ID is not set")
		}
		if secretKey == "" {
			fields = append(fields, auth.Prefix+"AWS_SECRET_ACCESS_KEY is not set")
		}
		if len(fields) > 0 {
			return aws.Config{}, &backend.AuthConfigError{Backend: "aws", Fields: fields}
		}
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, os.Getenv(auth.Prefix+"AWS_SESSION_TOKEN")),
		))
	case backend.AuthFile:
		configOpts = append(configOpts, awsconfig.WithSharedCredentialsFiles([]string{auth.Path}))
	}
	// managed-identity and no-auth fall through to the default chain, which
	// covers instance roles, IRSA and ambient environment credentials.

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return aws.Config{}, &backend.AuthError{Backend: "aws", Message: fmt.Sprintf("failed to load AWS config: %v", err)}
	}
	return cfg, nil
}

// Name returns the deployment this backend instance serves.
func (b *AWSBackend) Name() string { return b.deployment }

// Type returns the backend type identifier.
func (b *AWSBackend) Type() string { return "aws" }

// GetValue reads a secret by storage key.
func (b *AWSBackend) GetValue(ctx context.Context, key string) (string, error) {
	if b.service == awsServiceSSM {
		return b.getParameter(ctx, key)
	}

	result, err := b.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(b.secretName(key)),
	})
	if err != nil {
		return "", b.wrapError(err, key)
	}
	if result.SecretString != nil {
		return *result.SecretString, nil
	}
	if result.SecretBinary != nil {
		return string(result.SecretBinary), nil
	}
	return "", &backend.NotFoundError{Backend: b.deployment, Key: key}
}

// SetValue writes a secret, creating it on first use.
func (b *AWSBackend) SetValue(ctx context.Context, key, value string) error {
	if b.service == awsServiceSSM {
		return b.putParameter(ctx, key, value)
	}

	name := b.secretName(key)
	_, err := b.secrets.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(value),
	})
	if err == nil {
		return nil
	}
	var notFound *smtypes.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return b.wrapError(err, key)
	}

	_, err = b.secrets.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(value),
	})
	if err != nil {
		return b.wrapError(err, key)
	}
	return nil
}

// RemoveValue deletes a secret without a recovery window; the configuration
// store is the source of truth for which secrets exist.
func (b *AWSBackend) RemoveValue(ctx context.Context, key string) error {
	if b.service == awsServiceSSM {
		return b.deleteParameter(ctx, key)
	}

	_, err := b.secrets.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(b.secretName(key)),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil {
		return b.wrapError(err, key)
	}
	return nil
}

// ValidateAuth verifies the resolved credentials with an STS identity call.
func (b *AWSBackend) ValidateAuth(ctx context.Context, _ backend.AuthConfig) error {
	if b.sts == nil {
		return nil
	}
	if _, err := b.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		return &backend.AuthError{
			Backend: b.deployment,
			Message: fmt.Sprintf("AWS identity check failed: %v", err),
		}
	}
	return nil
}

// Capabilities describes what this backend supports.
func (b *AWSBackend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Sensitive:    true,
		RequiresAuth: true,
		AuthTypes: []backend.AuthType{
			backend.AuthEnv, backend.AuthFile, backend.AuthDirect, backend.AuthManagedIdentity,
		},
	}
}

// SSM operations

func (b *AWSBackend) getParameter(ctx context.Context, key string) (string, error) {
	result, err := b.params.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(b.parameterName(key)),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", b.wrapError(err, key)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", &backend.NotFoundError{Backend: b.deployment, Key: key}
	}
	return *result.Parameter.Value, nil
}

func (b *AWSBackend) putParameter(ctx context.Context, key, value string) error {
	_, err := b.params.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(b.parameterName(key)),
		Value:     aws.String(value),
		Type:      ssmtypes.ParameterTypeSecureString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return b.wrapError(err, key)
	}
	return nil
}

func (b *AWSBackend) deleteParameter(ctx context.Context, key string) error {
	_, err := b.params.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(b.parameterName(key)),
	})
	if err != nil {
		return b.wrapError(err, key)
	}
	return nil
}

// Remote naming

// secretName maps a storage key to a Secrets Manager name. ':' is not legal
// in secret names, so the deployment part becomes a path segment.
func (b *AWSBackend) secretName(key string) string {
	return strings.ReplaceAll(key, ":", "/")
}

// parameterName maps a storage key to an SSM parameter name. Hierarchical
// parameter names must start with '/'.
func (b *AWSBackend) parameterName(key string) string {
	return "/" + strings.ReplaceAll(key, ":", "/")
}

// wrapError converts AWS SDK errors to backend errors.
func (b *AWSBackend) wrapError(err error, key string) error {
	var smNotFound *smtypes.ResourceNotFoundException
	var ssmNotFound *ssmtypes.ParameterNotFound
	if errors.As(err, &smNotFound) || errors.As(err, &ssmNotFound) {
		return &backend.NotFoundError{Backend: b.deployment, Key: key}
	}
	if isAWSAuthError(err) {
		return &backend.AuthError{
			Backend: b.deployment,
			Message: fmt.Sprintf("AWS authentication/authorization failed: %v", err),
		}
	}
	return &backend.UnreachableError{Backend: b.deployment, Err: err}
}

func isAWSAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnauthorizedOperation") ||
		strings.Contains(errStr, "InvalidUserID") ||
		strings.Contains(errStr, "ExpiredToken") ||
		strings.Contains(errStr, "Forbidden")
}
