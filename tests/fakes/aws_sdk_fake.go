package fakes

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// FakeSecretsManagerClient is an in-memory Secrets Manager.
type FakeSecretsManagerClient struct {
	// Secrets maps secret names to their current string value.
	Secrets map[string]string
	// Err, when set, is returned by every call.
	Err error
	// CreateCalls counts CreateSecret invocations.
	CreateCalls int
}

// NewFakeSecretsManagerClient creates an empty fake client.
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{Secrets: make(map[string]string)}
}

func (f *FakeSecretsManagerClient) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	value, ok := f.Secrets[aws.ToString(params.SecretId)]
	if !ok {
		return nil, &smtypes.ResourceNotFoundException{Message: aws.String("Secrets Manager can't find the specified secret.")}
	}
	return &secretsmanager.GetSecretValueOutput{
		Name:         params.SecretId,
		SecretString: aws.String(value),
	}, nil
}

func (f *FakeSecretsManagerClient) CreateSecret(_ context.Context, params *secretsmanager.CreateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.CreateCalls++
	f.Secrets[aws.ToString(params.Name)] = aws.ToString(params.SecretString)
	return &secretsmanager.CreateSecretOutput{Name: params.Name}, nil
}

func (f *FakeSecretsManagerClient) PutSecretValue(_ context.Context, params *secretsmanager.PutSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	name := aws.ToString(params.SecretId)
	if _, ok := f.Secrets[name]; !ok {
		return nil, &smtypes.ResourceNotFoundException{Message: aws.String("Secrets Manager can't find the specified secret.")}
	}
	f.Secrets[name] = aws.ToString(params.SecretString)
	return &secretsmanager.PutSecretValueOutput{Name: params.SecretId}, nil
}

func (f *FakeSecretsManagerClient) DeleteSecret(_ context.Context, params *secretsmanager.DeleteSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	name := aws.ToString(params.SecretId)
	if _, ok := f.Secrets[name]; !ok {
		return nil, &smtypes.ResourceNotFoundException{Message: aws.String("Secrets Manager can't find the specified secret.")}
	}
	delete(f.Secrets, name)
	return &secretsmanager.DeleteSecretOutput{Name: params.SecretId}, nil
}

// FakeSSMClient is an in-memory SSM Parameter Store.
type FakeSSMClient struct {
	// Parameters maps parameter names to values.
	Parameters map[string]string
	// Err, when set, is returned by every call.
	Err error
}

// NewFakeSSMClient creates an empty fake client.
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{Parameters: make(map[string]string)}
}

func (f *FakeSSMClient) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	value, ok := f.Parameters[aws.ToString(params.Name)]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{Message: aws.String("parameter not found")}
	}
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:  params.Name,
			Value: aws.String(value),
			Type:  ssmtypes.ParameterTypeSecureString,
		},
	}, nil
}

func (f *FakeSSMClient) PutParameter(_ context.Context, params *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.Parameters[aws.ToString(params.Name)] = aws.ToString(params.Value)
	return &ssm.PutParameterOutput{}, nil
}

func (f *FakeSSMClient) DeleteParameter(_ context.Context, params *ssm.DeleteParameterInput, _ ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	name := aws.ToString(params.Name)
	if _, ok := f.Parameters[name]; !ok {
		return nil, &ssmtypes.ParameterNotFound{Message: aws.String("parameter not found")}
	}
	delete(f.Parameters, name)
	return &ssm.DeleteParameterOutput{}, nil
}

// FakeSTSClient answers the identity check used by auth validation.
type FakeSTSClient struct {
	// Err, when set, is returned by GetCallerIdentity.
	Err   error
	Calls int
}

func (f *FakeSTSClient) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String("123456789012"),
		Arn:     aws.String("arn:aws:iam::123456789012:user/test"),
	}, nil
}
